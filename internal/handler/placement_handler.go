package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/timetable-core-api/internal/service"
	appErrors "github.com/noah-isme/timetable-core-api/pkg/errors"
	"github.com/noah-isme/timetable-core-api/pkg/response"
)

// PlacementHandler exposes placement validation, merge planning and the
// combined place operation.
type PlacementHandler struct {
	placements *service.PlacementService
	merges     *service.MergeService
	metrics    *service.MetricsService
}

// NewPlacementHandler constructs handler.
func NewPlacementHandler(placements *service.PlacementService, merges *service.MergeService, metrics *service.MetricsService) *PlacementHandler {
	return &PlacementHandler{placements: placements, merges: merges, metrics: metrics}
}

// Validate godoc
// @Summary Validate a placement candidate
// @Tags Placements
// @Accept json
// @Produce json
// @Param payload body service.ValidatePlacementRequest true "Placement candidate"
// @Success 200 {object} response.Envelope
// @Router /placements/validate [post]
func (h *PlacementHandler) Validate(c *gin.Context) {
	var req service.ValidatePlacementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	check, err := h.placements.Validate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.RecordPlacementValidated()
	for _, conflict := range check.Conflicts {
		h.metrics.RecordConflict(string(conflict.Kind))
	}
	response.JSON(c, http.StatusOK, check, nil)
}

// Plan godoc
// @Summary Plan a period merge
// @Tags Placements
// @Accept json
// @Produce json
// @Param payload body service.PlanMergeRequest true "Merge anchor"
// @Success 200 {object} response.Envelope
// @Router /merges/plan [post]
func (h *PlacementHandler) Plan(c *gin.Context) {
	var req service.PlanMergeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	plan, err := h.merges.Plan(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, plan, nil)
}

// Place godoc
// @Summary Place a lesson into its anchor cell
// @Tags Placements
// @Accept json
// @Produce json
// @Param payload body service.PlaceRequest true "Placement payload"
// @Success 201 {object} response.Envelope
// @Router /placements [post]
func (h *PlacementHandler) Place(c *gin.Context) {
	var req service.PlaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.merges.Place(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.RecordMergeCommitted()
	for _, conflict := range result.Conflicts {
		h.metrics.RecordConflict(string(conflict.Kind))
	}
	response.Created(c, result)
}
