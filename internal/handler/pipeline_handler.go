package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/hiring-pipeline-api/internal/models"
	"github.com/noah-isme/hiring-pipeline-api/internal/service"
	appErrors "github.com/noah-isme/hiring-pipeline-api/pkg/errors"
	"github.com/noah-isme/hiring-pipeline-api/pkg/response"
)

// PipelineHandler exposes application pipeline endpoints.
type PipelineHandler struct {
	service *service.PipelineService
}

// NewPipelineHandler creates a new handler.
func NewPipelineHandler(svc *service.PipelineService) *PipelineHandler {
	return &PipelineHandler{service: svc}
}

// List godoc
// @Summary List applications
// @Description List applications visible to the caller
// @Tags Pipeline
// @Produce json
// @Param job_id query string false "Filter by job"
// @Param stage query string false "Filter by stage"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /applications [get]
// @Security BearerAuth
func (h *PipelineHandler) List(c *gin.Context) {
	filter := models.ApplicationFilter{
		JobID:    c.Query("job_id"),
		Stage:    c.Query("stage"),
		Page:     parseIntDefault(c.Query("page"), 1),
		PageSize: parseIntDefault(c.Query("page_size"), 20),
	}

	applications, total, err := h.service.List(c.Request.Context(), claimsFromContext(c), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, applications, &models.Pagination{
		Page:       filter.Page,
		PageSize:   filter.PageSize,
		TotalCount: total,
	})
}

// Get godoc
// @Summary Get application
// @Description Fetch one application with its pipeline state
// @Tags Pipeline
// @Produce json
// @Param id path string true "Application ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /applications/{id} [get]
// @Security BearerAuth
func (h *PipelineHandler) Get(c *gin.Context) {
	detail, err := h.service.Get(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// Blockers godoc
// @Summary List stage blockers
// @Description Unmet gate requirements for leaving the current stage
// @Tags Pipeline
// @Produce json
// @Param id path string true "Application ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /applications/{id}/blockers [get]
// @Security BearerAuth
func (h *PipelineHandler) Blockers(c *gin.Context) {
	blockers, err := h.service.Blockers(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if blockers == nil {
		blockers = []models.Blocker{}
	}
	response.JSON(c, http.StatusOK, blockers, nil)
}

// AdvanceStage godoc
// @Summary Advance application stage
// @Description Move an application to the target stage when the gate is clear
// @Tags Pipeline
// @Accept json
// @Produce json
// @Param id path string true "Application ID"
// @Param payload body models.AdvanceStageRequest true "Target stage"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /applications/{id}/stage [put]
// @Security BearerAuth
func (h *PipelineHandler) AdvanceStage(c *gin.Context) {
	var req models.AdvanceStageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid stage payload"))
		return
	}

	app, blockers, err := h.service.AdvanceStage(c.Request.Context(), claimsFromContext(c), c.Param("id"), req.Stage)
	if err != nil {
		appErr := appErrors.FromError(err)
		if appErr.Code == appErrors.ErrStageBlocked.Code {
			c.Header("Cache-Control", "no-store")
			c.JSON(appErr.Status, response.Envelope{
				Error: appErr,
				Data:  gin.H{"blockers": blockers},
			})
			return
		}
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, app, nil)
}

// Withdraw godoc
// @Summary Withdraw application
// @Description Candidate withdraws their own application
// @Tags Pipeline
// @Produce json
// @Param id path string true "Application ID"
// @Success 204 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /applications/{id} [delete]
// @Security BearerAuth
func (h *PipelineHandler) Withdraw(c *gin.Context) {
	if err := h.service.Withdraw(c.Request.Context(), claimsFromContext(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

func parseIntDefault(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}
