package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/hiring-pipeline-api/internal/models"
	"github.com/noah-isme/hiring-pipeline-api/internal/service"
	appErrors "github.com/noah-isme/hiring-pipeline-api/pkg/errors"
	"github.com/noah-isme/hiring-pipeline-api/pkg/response"
)

// ScoreHandler exposes rating endpoints.
type ScoreHandler struct {
	service *service.ScoreService
}

// NewScoreHandler creates a new handler.
func NewScoreHandler(svc *service.ScoreService) *ScoreHandler {
	return &ScoreHandler{service: svc}
}

// Upsert godoc
// @Summary Submit rating
// @Description Submit or replace the caller's rating; returns the recomputed aggregate
// @Tags Scores
// @Accept json
// @Produce json
// @Param payload body models.UpsertScoreRequest true "Rating"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /scores [put]
// @Security BearerAuth
func (h *ScoreHandler) Upsert(c *gin.Context) {
	var req models.UpsertScoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid score payload"))
		return
	}
	summary, err := h.service.Upsert(c.Request.Context(), claimsFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}

// Delete godoc
// @Summary Delete rating
// @Description Remove a rating row (admin only) and recompute the aggregate
// @Tags Scores
// @Produce json
// @Param id path string true "Score ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /scores/{id} [delete]
// @Security BearerAuth
func (h *ScoreHandler) Delete(c *gin.Context) {
	summary, err := h.service.Delete(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}

// ListByTarget godoc
// @Summary List ratings for a target
// @Tags Scores
// @Produce json
// @Param targetType path string true "CANDIDATE or ORGANIZATION"
// @Param targetId path string true "Target ID"
// @Success 200 {object} response.Envelope
// @Router /scores/{targetType}/{targetId} [get]
// @Security BearerAuth
func (h *ScoreHandler) ListByTarget(c *gin.Context) {
	scores, err := h.service.ListByTarget(c.Request.Context(), claimsFromContext(c),
		models.ScoreTargetType(c.Param("targetType")), c.Param("targetId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if scores == nil {
		scores = []models.Score{}
	}
	response.JSON(c, http.StatusOK, scores, nil)
}

// Mine godoc
// @Summary Get my rating for a target
// @Tags Scores
// @Produce json
// @Param targetType path string true "CANDIDATE or ORGANIZATION"
// @Param targetId path string true "Target ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /scores/{targetType}/{targetId}/mine [get]
// @Security BearerAuth
func (h *ScoreHandler) Mine(c *gin.Context) {
	score, err := h.service.Mine(c.Request.Context(), claimsFromContext(c),
		models.ScoreTargetType(c.Param("targetType")), c.Param("targetId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, score, nil)
}
