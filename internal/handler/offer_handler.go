package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/hiring-pipeline-api/internal/service"
	appErrors "github.com/noah-isme/hiring-pipeline-api/pkg/errors"
	"github.com/noah-isme/hiring-pipeline-api/pkg/response"
)

// OfferHandler exposes offer lifecycle endpoints.
type OfferHandler struct {
	service *service.OfferService
}

// NewOfferHandler creates a new handler.
func NewOfferHandler(svc *service.OfferService) *OfferHandler {
	return &OfferHandler{service: svc}
}

// Create godoc
// @Summary Extend an offer
// @Description Create a DRAFT offer and move the application into the offer stage
// @Tags Offers
// @Accept json
// @Produce json
// @Param id path string true "Application ID"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /applications/{id}/offer [post]
// @Security BearerAuth
func (h *OfferHandler) Create(c *gin.Context) {
	offer, err := h.service.Create(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, offer)
}

// Get godoc
// @Summary Get offer
// @Tags Offers
// @Produce json
// @Param id path string true "Offer ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /offers/{id} [get]
// @Security BearerAuth
func (h *OfferHandler) Get(c *gin.Context) {
	offer, err := h.service.Get(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, offer, nil)
}

// Send godoc
// @Summary Send offer
// @Description Move a DRAFT offer to SENT and notify the candidate
// @Tags Offers
// @Produce json
// @Param id path string true "Offer ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /offers/{id}/send [post]
// @Security BearerAuth
func (h *OfferHandler) Send(c *gin.Context) {
	offer, err := h.service.Send(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, offer, nil)
}

// RecordView godoc
// @Summary Record offer view
// @Description Candidate acknowledges seeing the offer; idempotent past SENT
// @Tags Offers
// @Produce json
// @Param id path string true "Offer ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /offers/{id}/view [post]
// @Security BearerAuth
func (h *OfferHandler) RecordView(c *gin.Context) {
	offer, err := h.service.RecordView(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, offer, nil)
}

// Sign godoc
// @Summary Sign offer
// @Description Candidate accepts a VIEWED offer
// @Tags Offers
// @Produce json
// @Param id path string true "Offer ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /offers/{id}/sign [post]
// @Security BearerAuth
func (h *OfferHandler) Sign(c *gin.Context) {
	offer, err := h.service.Sign(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, offer, nil)
}

// Withdraw godoc
// @Summary Withdraw offer
// @Description Retract a non-terminal offer and revert the application stage
// @Tags Offers
// @Produce json
// @Param id path string true "Offer ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /offers/{id}/withdraw [post]
// @Security BearerAuth
func (h *OfferHandler) Withdraw(c *gin.Context) {
	offer, err := h.service.Withdraw(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, offer, nil)
}

// GenerateLetter godoc
// @Summary Generate offer letter
// @Description Render the offer letter PDF and return a signed download link
// @Tags Offers
// @Produce json
// @Param id path string true "Offer ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /offers/{id}/letter [post]
// @Security BearerAuth
func (h *OfferHandler) GenerateLetter(c *gin.Context) {
	token, expiresAt, err := h.service.GenerateLetter(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{
		"download_url": "/api/v1/offer-letters/download?token=" + token,
		"token":        token,
		"expires_at":   expiresAt,
	}, nil)
}

// DownloadLetter godoc
// @Summary Download offer letter
// @Description Stream the letter PDF referenced by a signed token
// @Tags Offers
// @Produce application/pdf
// @Param token query string true "Signed download token"
// @Success 200 {file} binary
// @Failure 403 {object} response.Envelope
// @Router /offer-letters/download [get]
func (h *OfferHandler) DownloadLetter(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "token is required"))
		return
	}
	file, err := h.service.OpenLetter(c.Request.Context(), token)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close()

	c.Header("Content-Type", "application/pdf")
	c.Header("Content-Disposition", `attachment; filename="offer-letter.pdf"`)
	c.File(file.Name())
}
