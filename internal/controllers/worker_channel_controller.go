package controllers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kzero-xyz/proofbridge/internal/channelhub"
)

type workerChannelController struct {
	hub    *channelhub.Hub
	logger *slog.Logger
}

func NewWorkerChannelController(hub *channelhub.Hub, logger *slog.Logger) *workerChannelController {
	if logger == nil {
		logger = slog.Default()
	}
	return &workerChannelController{hub: hub, logger: logger}
}

// Handle upgrades the request to the websocket the channel runtime (C5)
// dispatches proof jobs over. It blocks for the lifetime of the connection.
func (h *workerChannelController) Handle(c *gin.Context) {
	if err := h.hub.Accept(c.Writer, c.Request); err != nil {
		h.logger.Warn("worker channel upgrade failed", "err", err)
		if !c.Writer.Written() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "websocket upgrade failed"})
		}
	}
}
