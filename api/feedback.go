package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/queme-app/queme-client/internal/gateway"
)

type FeedbackGateway interface {
	SubmitFeedback(ctx context.Context, req gateway.FeedbackRequest) error
}

type FeedbackHandler struct {
	gw FeedbackGateway
}

func NewFeedbackHandler(gw FeedbackGateway) *FeedbackHandler {
	return &FeedbackHandler{gw: gw}
}

func (h *FeedbackHandler) Register(router *gin.RouterGroup) {
	router.POST("/", h.submit)
}

type feedbackRequest struct {
	ProviderID int64  `json:"provider_id" binding:"required"`
	Rating     int    `json:"rating" binding:"required,min=1,max=5"`
	Comment    string `json:"comment"`
}

func (h *FeedbackHandler) submit(c *gin.Context) {
	var req feedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.gw.SubmitFeedback(c.Request.Context(), gateway.FeedbackRequest{
		ProviderID: req.ProviderID,
		Rating:     req.Rating,
		Comment:    req.Comment,
	})
	if err != nil {
		if errors.Is(err, gateway.ErrUnauthorized) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "session expired"})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true})
}
