package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/queme-app/queme-client/internal/notify"
)

type NotificationHandler struct {
	queue *notify.Queue
}

func NewNotificationHandler(queue *notify.Queue) *NotificationHandler {
	return &NotificationHandler{queue: queue}
}

func (h *NotificationHandler) Register(router *gin.RouterGroup) {
	router.GET("/current", h.current)
	router.DELETE("/:id", h.dismiss)
}

func (h *NotificationHandler) current(c *gin.Context) {
	n := h.queue.Current()
	if n == nil {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, n)
}

func (h *NotificationHandler) dismiss(c *gin.Context) {
	if !h.queue.Dismiss(c.Param("id")) {
		c.JSON(http.StatusNotFound, gin.H{"error": "notification not visible"})
		return
	}
	c.Status(http.StatusNoContent)
}
