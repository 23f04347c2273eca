package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/queme-app/queme-client/internal/domain"
	"github.com/queme-app/queme-client/internal/gateway"
	"github.com/queme-app/queme-client/internal/queue"
)

// TokenTracker is the poller surface the UI drives.
type TokenTracker interface {
	Bind(token string)
	Unbind()
	State() queue.State
	Token() string
}

type BookingLookup interface {
	ByToken(token string) (domain.Booking, bool)
}

// ProviderQueueGateway is the provider-side queue surface: the live queue
// per service and the call-next action.
type ProviderQueueGateway interface {
	ProviderQueue(ctx context.Context, providerID, serviceID int64) (*domain.ProviderQueue, error)
	CallNext(ctx context.Context, serviceID int64) error
}

type QueueHandler struct {
	poller TokenTracker
	store  BookingLookup
	gw     ProviderQueueGateway
}

func NewQueueHandler(poller TokenTracker, store BookingLookup, gw ProviderQueueGateway) *QueueHandler {
	return &QueueHandler{poller: poller, store: store, gw: gw}
}

func (h *QueueHandler) Register(router *gin.RouterGroup) {
	router.POST("/track", h.track)
	router.DELETE("/track", h.untrack)
	router.GET("/status", h.status)
	router.GET("/provider", h.providerQueue)
	router.POST("/call-next/:serviceId", h.callNext)
}

type trackRequest struct {
	Token string `json:"token" binding:"required"`
}

func (h *QueueHandler) track(c *gin.Context) {
	var req trackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.poller.Bind(req.Token)
	c.JSON(http.StatusAccepted, gin.H{"token": req.Token, "state": h.poller.State().String()})
}

func (h *QueueHandler) untrack(c *gin.Context) {
	h.poller.Unbind()
	c.Status(http.StatusNoContent)
}

func (h *QueueHandler) status(c *gin.Context) {
	token := h.poller.Token()
	resp := gin.H{
		"state": h.poller.State().String(),
		"token": token,
	}
	if token != "" {
		if booking, ok := h.store.ByToken(token); ok {
			resp["booking"] = booking
		}
	}
	c.JSON(http.StatusOK, resp)
}

func (h *QueueHandler) providerQueue(c *gin.Context) {
	providerID, err := strconv.ParseInt(c.Query("provider_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid provider_id"})
		return
	}
	serviceID, err := strconv.ParseInt(c.Query("service_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid service_id"})
		return
	}

	q, err := h.gw.ProviderQueue(c.Request.Context(), providerID, serviceID)
	if err != nil {
		if errors.Is(err, gateway.ErrUnauthorized) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "session expired"})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, q)
}

func (h *QueueHandler) callNext(c *gin.Context) {
	serviceID, err := strconv.ParseInt(c.Param("serviceId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid service id"})
		return
	}

	if err := h.gw.CallNext(c.Request.Context(), serviceID); err != nil {
		if errors.Is(err, gateway.ErrUnauthorized) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "session expired"})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
