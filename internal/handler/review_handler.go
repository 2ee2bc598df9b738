package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/hiring-pipeline-api/internal/models"
	"github.com/noah-isme/hiring-pipeline-api/internal/service"
	appErrors "github.com/noah-isme/hiring-pipeline-api/pkg/errors"
	"github.com/noah-isme/hiring-pipeline-api/pkg/response"
)

// ReviewHandler exposes scorecard and interview endpoints.
type ReviewHandler struct {
	service *service.ReviewService
}

// NewReviewHandler creates a new handler.
func NewReviewHandler(svc *service.ReviewService) *ReviewHandler {
	return &ReviewHandler{service: svc}
}

// SubmitScorecard godoc
// @Summary Submit scorecard
// @Description Record or replace the caller's scorecard for the application's current stage
// @Tags Reviews
// @Accept json
// @Produce json
// @Param id path string true "Application ID"
// @Param payload body models.SubmitScorecardRequest true "Scorecard"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /applications/{id}/scorecards [post]
// @Security BearerAuth
func (h *ReviewHandler) SubmitScorecard(c *gin.Context) {
	var req models.SubmitScorecardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid scorecard payload"))
		return
	}
	card, err := h.service.SubmitScorecard(c.Request.Context(), claimsFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, card)
}

// ListScorecards godoc
// @Summary List scorecards
// @Tags Reviews
// @Produce json
// @Param id path string true "Application ID"
// @Success 200 {object} response.Envelope
// @Router /applications/{id}/scorecards [get]
// @Security BearerAuth
func (h *ReviewHandler) ListScorecards(c *gin.Context) {
	cards, err := h.service.ListScorecards(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if cards == nil {
		cards = []models.Scorecard{}
	}
	response.JSON(c, http.StatusOK, cards, nil)
}

// ScheduleInterview godoc
// @Summary Schedule interview
// @Description Book an interview attached to the application's current stage
// @Tags Reviews
// @Accept json
// @Produce json
// @Param id path string true "Application ID"
// @Param payload body models.ScheduleInterviewRequest true "Interview slot"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /applications/{id}/interviews [post]
// @Security BearerAuth
func (h *ReviewHandler) ScheduleInterview(c *gin.Context) {
	var req models.ScheduleInterviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid interview payload"))
		return
	}
	interview, err := h.service.ScheduleInterview(c.Request.Context(), claimsFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, interview)
}

// CompleteInterview godoc
// @Summary Complete interview
// @Description Mark an interview as held so it counts toward gate requirements
// @Tags Reviews
// @Produce json
// @Param id path string true "Application ID"
// @Param interviewId path string true "Interview ID"
// @Success 204 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /applications/{id}/interviews/{interviewId}/complete [post]
// @Security BearerAuth
func (h *ReviewHandler) CompleteInterview(c *gin.Context) {
	err := h.service.CompleteInterview(c.Request.Context(), claimsFromContext(c), c.Param("id"), c.Param("interviewId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListInterviews godoc
// @Summary List interviews
// @Tags Reviews
// @Produce json
// @Param id path string true "Application ID"
// @Success 200 {object} response.Envelope
// @Router /applications/{id}/interviews [get]
// @Security BearerAuth
func (h *ReviewHandler) ListInterviews(c *gin.Context) {
	interviews, err := h.service.ListInterviews(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if interviews == nil {
		interviews = []models.Interview{}
	}
	response.JSON(c, http.StatusOK, interviews, nil)
}
