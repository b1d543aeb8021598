package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/timetable-core-api/internal/service"
	appErrors "github.com/noah-isme/timetable-core-api/pkg/errors"
	"github.com/noah-isme/timetable-core-api/pkg/response"
)

// ExportHandler streams section timetables as downloadable documents.
type ExportHandler struct {
	exports *service.ExportService
}

// NewExportHandler constructs handler.
func NewExportHandler(exports *service.ExportService) *ExportHandler {
	return &ExportHandler{exports: exports}
}

// Export godoc
// @Summary Export one section's timetable
// @Tags Schedules
// @Produce text/csv
// @Produce application/pdf
// @Param id path string true "Section"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} file
// @Router /sections/{id}/timetable/export [get]
func (h *ExportHandler) Export(c *gin.Context) {
	section := c.Param("id")
	format := c.DefaultQuery("format", "csv")

	var (
		payload     []byte
		filename    string
		contentType string
		err         error
	)
	switch format {
	case "csv":
		payload, filename, err = h.exports.RenderCSV(c.Request.Context(), section)
		contentType = "text/csv"
	case "pdf":
		payload, filename, err = h.exports.RenderPDF(c.Request.Context(), section)
		contentType = "application/pdf"
	default:
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf"))
		return
	}
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, contentType, payload)
}
