package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/hiring-pipeline-api/internal/service"
	"github.com/noah-isme/hiring-pipeline-api/pkg/response"
)

// ExportHandler serves CSV pipeline snapshots.
type ExportHandler struct {
	service *service.ExportService
}

// NewExportHandler creates a new handler.
func NewExportHandler(svc *service.ExportService) *ExportHandler {
	return &ExportHandler{service: svc}
}

// PipelineCSV godoc
// @Summary Export pipeline CSV
// @Description Download the job's current pipeline as CSV
// @Tags Exports
// @Produce text/csv
// @Param id path string true "Job ID"
// @Success 200 {file} binary
// @Failure 404 {object} response.Envelope
// @Router /jobs/{id}/export [get]
// @Security BearerAuth
func (h *ExportHandler) PipelineCSV(c *gin.Context) {
	data, filename, err := h.service.PipelineCSV(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "text/csv", data)
}
