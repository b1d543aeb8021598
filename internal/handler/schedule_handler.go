package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/timetable-core-api/internal/models"
	"github.com/noah-isme/timetable-core-api/internal/service"
	appErrors "github.com/noah-isme/timetable-core-api/pkg/errors"
	"github.com/noah-isme/timetable-core-api/pkg/response"
)

// ScheduleHandler manages schedule read endpoints and slot clearing.
type ScheduleHandler struct {
	schedules *service.ScheduleService
	merges    *service.MergeService
}

// NewScheduleHandler constructs handler.
func NewScheduleHandler(schedules *service.ScheduleService, merges *service.MergeService) *ScheduleHandler {
	return &ScheduleHandler{schedules: schedules, merges: merges}
}

// List godoc
// @Summary List schedule entries
// @Tags Schedules
// @Produce json
// @Param section query string false "Filter by section"
// @Param day query int false "Filter by day (0-based)"
// @Param teacher query string false "Filter by teacher code"
// @Param subject query string false "Filter by subject code"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /schedules [get]
func (h *ScheduleHandler) List(c *gin.Context) {
	var filter models.ScheduleFilter
	filter.Section = c.Query("section")
	filter.TeacherCode = c.Query("teacher")
	filter.SubjectCode = c.Query("subject")
	if raw := c.Query("day"); raw != "" {
		day, err := strconv.Atoi(raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "day must be an integer"))
			return
		}
		filter.Day = &day
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if limit, err := strconv.Atoi(c.DefaultQuery("limit", "50")); err == nil {
		filter.PageSize = limit
	}
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	entries, pagination, err := h.schedules.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, pagination)
}

// Timetable godoc
// @Summary Get one section's week grid
// @Tags Schedules
// @Produce json
// @Param id path string true "Section"
// @Success 200 {object} response.Envelope
// @Router /sections/{id}/timetable [get]
func (h *ScheduleHandler) Timetable(c *gin.Context) {
	timetable, err := h.schedules.SectionTimetable(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, timetable, nil)
}

// ClearSlot godoc
// @Summary Clear one grid cell
// @Tags Schedules
// @Param id path string true "Section"
// @Param day path int true "Day (0-based)"
// @Param period path int true "Period (0-based)"
// @Success 204
// @Router /sections/{id}/slots/{day}/{period} [delete]
func (h *ScheduleHandler) ClearSlot(c *gin.Context) {
	day, err := strconv.Atoi(c.Param("day"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "day must be an integer"))
		return
	}
	period, err := strconv.Atoi(c.Param("period"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "period must be an integer"))
		return
	}
	if err := h.merges.ClearSlot(c.Request.Context(), c.Param("id"), day, period); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
