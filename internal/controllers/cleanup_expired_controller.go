package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kzero-xyz/proofbridge/internal/services"
)

type cleanupExpiredController struct{ svc services.SchedulerService }

func NewCleanupExpiredController(svc services.SchedulerService) *cleanupExpiredController {
	return &cleanupExpiredController{svc}
}

type cleanupReq struct {
	Limit        int `json:"limit,omitempty"`        // default: 500
	OlderThanSec int `json:"olderThanSeconds,omitempty"` // default: 0 (all terminal rows)
}

func (h *cleanupExpiredController) Handle(c *gin.Context) {
	var req cleanupReq
	_ = c.ShouldBindJSON(&req) // both fields are optional

	olderThan := time.Duration(req.OlderThanSec) * time.Second
	deleted, err := h.svc.CleanupExpired(c.Request.Context(), olderThan, req.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"deleted":          deleted,
		"olderThanSeconds": req.OlderThanSec,
		"limit":            req.Limit,
	})
}
