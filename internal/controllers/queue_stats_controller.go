package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kzero-xyz/proofbridge/internal/services"
)

type queueStatsController struct{ svc services.SchedulerService }

func NewQueueStatsController(svc services.SchedulerService) *queueStatsController {
	return &queueStatsController{svc: svc}
}

func (h *queueStatsController) Handle(c *gin.Context) {
	stats, err := h.svc.QueueStats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, stats)
}
