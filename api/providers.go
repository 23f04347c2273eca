package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/queme-app/queme-client/internal/domain"
)

type ProviderDirectory interface {
	List(ctx context.Context) ([]domain.Provider, error)
	Services(ctx context.Context, providerID int64) ([]domain.Service, error)
}

type ProviderHandler struct {
	service ProviderDirectory
}

func NewProviderHandler(service ProviderDirectory) *ProviderHandler {
	return &ProviderHandler{service: service}
}

func (h *ProviderHandler) Register(router *gin.RouterGroup) {
	router.GET("/", h.list)
	router.GET("/:id/services", h.services)
}

func (h *ProviderHandler) list(c *gin.Context) {
	list, err := h.service.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *ProviderHandler) services(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	services, err := h.service.Services(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, services)
}
