package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/timetable-core-api/internal/service"
	"github.com/noah-isme/timetable-core-api/pkg/response"
)

// AuditHandler exposes the full-schedule conflict report.
type AuditHandler struct {
	audits  *service.AuditService
	metrics *service.MetricsService
}

// NewAuditHandler constructs handler.
func NewAuditHandler(audits *service.AuditService, metrics *service.MetricsService) *AuditHandler {
	return &AuditHandler{audits: audits, metrics: metrics}
}

// Sweep godoc
// @Summary Audit the whole stored schedule
// @Tags Audit
// @Produce json
// @Param refresh query bool false "Bypass the cached report"
// @Success 200 {object} response.Envelope
// @Router /audit [get]
func (h *AuditHandler) Sweep(c *gin.Context) {
	refresh := c.Query("refresh") == "true"
	report, err := h.audits.Sweep(c.Request.Context(), refresh)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.RecordAuditSweep()
	for _, conflict := range report.Conflicts {
		h.metrics.RecordConflict(string(conflict.Kind))
	}
	response.JSON(c, http.StatusOK, report, nil)
}
