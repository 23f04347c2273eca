package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/queme-app/queme-client/internal/bookings"
	"github.com/queme-app/queme-client/internal/domain"
	"github.com/queme-app/queme-client/internal/gateway"
)

// BookingService is the booking cache as the UI consumes it.
type BookingService interface {
	Load(ctx context.Context) error
	Create(ctx context.Context, req gateway.CreateBookingRequest) (*domain.Booking, error)
	Cancel(ctx context.Context, id int64) error
	Filter(status string) []domain.Booking
	ByToken(token string) (domain.Booking, bool)
}

type BookingHandler struct {
	store BookingService
}

func NewBookingHandler(store BookingService) *BookingHandler {
	return &BookingHandler{store: store}
}

func (h *BookingHandler) Register(router *gin.RouterGroup) {
	router.GET("/", h.list)
	router.POST("/", h.create)
	router.POST("/:id/cancel", h.cancel)
}

func (h *BookingHandler) list(c *gin.Context) {
	if err := h.store.Load(c.Request.Context()); err != nil {
		if errors.Is(err, gateway.ErrUnauthorized) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "session expired"})
			return
		}
		// Serve the cached list when the refresh fails; polling or the next
		// request will catch up.
	}
	status := c.DefaultQuery("status", bookings.FilterAll)
	c.JSON(http.StatusOK, h.store.Filter(status))
}

func (h *BookingHandler) create(c *gin.Context) {
	var req gateway.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	booking, err := h.store.Create(c.Request.Context(), req)
	if err != nil {
		var ve *bookings.ValidationError
		switch {
		case errors.As(err, &ve):
			c.JSON(http.StatusBadRequest, gin.H{"error": ve.Message, "fields": ve.Fields})
		case errors.Is(err, gateway.ErrUnauthorized):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "session expired"})
		default:
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		}
		return
	}
	c.JSON(http.StatusCreated, booking)
}

func (h *BookingHandler) cancel(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	if err := h.store.Cancel(c.Request.Context(), id); err != nil {
		switch {
		case errors.Is(err, bookings.ErrBookingNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "booking not found"})
		case errors.Is(err, gateway.ErrUnauthorized):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "session expired"})
		default:
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
