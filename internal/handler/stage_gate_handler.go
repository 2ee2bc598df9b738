package handler

import (
	"context"
	"database/sql"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/hiring-pipeline-api/internal/models"
	"github.com/noah-isme/hiring-pipeline-api/internal/service"
	appErrors "github.com/noah-isme/hiring-pipeline-api/pkg/errors"
	"github.com/noah-isme/hiring-pipeline-api/pkg/response"
)

type jobDirectory interface {
	FindByID(ctx context.Context, id string) (*models.Job, error)
}

// StageGateHandler manages per-job gate configuration endpoints.
type StageGateHandler struct {
	gates  *service.StageGateService
	jobs   jobDirectory
	access *service.AccessService
}

// NewStageGateHandler creates a new handler.
func NewStageGateHandler(gates *service.StageGateService, jobs jobDirectory, access *service.AccessService) *StageGateHandler {
	return &StageGateHandler{gates: gates, jobs: jobs, access: access}
}

// List godoc
// @Summary List gate configurations
// @Description Gate requirements configured for a job's stages
// @Tags StageGates
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /jobs/{id}/stage-gates [get]
// @Security BearerAuth
func (h *StageGateHandler) List(c *gin.Context) {
	job, err := h.loadJob(c, false)
	if err != nil {
		response.Error(c, err)
		return
	}
	configs, err := h.gates.ListConfigs(c.Request.Context(), job.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	if configs == nil {
		configs = []models.StageGateConfig{}
	}
	response.JSON(c, http.StatusOK, configs, nil)
}

// Put godoc
// @Summary Configure a stage gate
// @Description Create or replace the gate requirements for one stage
// @Tags StageGates
// @Accept json
// @Produce json
// @Param id path string true "Job ID"
// @Param payload body models.UpsertStageGateConfigRequest true "Gate requirements"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /jobs/{id}/stage-gates [put]
// @Security BearerAuth
func (h *StageGateHandler) Put(c *gin.Context) {
	job, err := h.loadJob(c, true)
	if err != nil {
		response.Error(c, err)
		return
	}

	var req models.UpsertStageGateConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid gate config payload"))
		return
	}

	config, err := h.gates.PutConfig(c.Request.Context(), job, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, config, nil)
}

func (h *StageGateHandler) loadJob(c *gin.Context, elevatedOnly bool) (*models.Job, error) {
	claims := claimsFromContext(c)
	if claims == nil {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "missing authentication")
	}
	job, err := h.jobs.FindByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "job not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load job")
	}
	if err := h.access.CanAccessJob(c.Request.Context(), claims, job); err != nil {
		return nil, err
	}
	if elevatedOnly && !claims.IsElevated() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only recruiters and admins may configure gates")
	}
	return job, nil
}
