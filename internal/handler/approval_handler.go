package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/hiring-pipeline-api/internal/models"
	"github.com/noah-isme/hiring-pipeline-api/internal/service"
	appErrors "github.com/noah-isme/hiring-pipeline-api/pkg/errors"
	"github.com/noah-isme/hiring-pipeline-api/pkg/response"
)

// ApprovalHandler exposes second-party sign-off endpoints.
type ApprovalHandler struct {
	service *service.ApprovalService
}

// NewApprovalHandler creates a new handler.
func NewApprovalHandler(svc *service.ApprovalService) *ApprovalHandler {
	return &ApprovalHandler{service: svc}
}

// Request godoc
// @Summary Request approval
// @Description Ask a designated member to sign off on an action
// @Tags Approvals
// @Accept json
// @Produce json
// @Param payload body models.CreateApprovalRequest true "Approval request"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /approvals [post]
// @Security BearerAuth
func (h *ApprovalHandler) Request(c *gin.Context) {
	var req models.CreateApprovalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid approval payload"))
		return
	}
	approval, err := h.service.Request(c.Request.Context(), claimsFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, approval)
}

// Respond godoc
// @Summary Resolve approval
// @Description Approve or reject a pending request; resolvable exactly once
// @Tags Approvals
// @Accept json
// @Produce json
// @Param id path string true "Approval ID"
// @Param payload body models.RespondApprovalRequest true "Decision"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /approvals/{id}/respond [post]
// @Security BearerAuth
func (h *ApprovalHandler) Respond(c *gin.Context) {
	var req models.RespondApprovalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid approval response"))
		return
	}
	approval, err := h.service.Respond(c.Request.Context(), claimsFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, approval, nil)
}

// Get godoc
// @Summary Get approval
// @Tags Approvals
// @Produce json
// @Param id path string true "Approval ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /approvals/{id} [get]
// @Security BearerAuth
func (h *ApprovalHandler) Get(c *gin.Context) {
	approval, err := h.service.Get(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, approval, nil)
}

// ListMine godoc
// @Summary List my approvals
// @Description Approvals addressed to the caller; pending_only trims resolved ones
// @Tags Approvals
// @Produce json
// @Param pending_only query bool false "Pending only"
// @Success 200 {object} response.Envelope
// @Router /approvals [get]
// @Security BearerAuth
func (h *ApprovalHandler) ListMine(c *gin.Context) {
	pendingOnly := c.Query("pending_only") == "true"
	approvals, err := h.service.ListMine(c.Request.Context(), claimsFromContext(c), pendingOnly)
	if err != nil {
		response.Error(c, err)
		return
	}
	if approvals == nil {
		approvals = []models.ApprovalRequest{}
	}
	response.JSON(c, http.StatusOK, approvals, nil)
}
