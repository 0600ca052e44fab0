package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kzero-xyz/proofbridge/internal/repository"
	"github.com/kzero-xyz/proofbridge/internal/services"
)

type getJobController struct{ svc services.SchedulerService }

func NewGetJobController(svc services.SchedulerService) *getJobController {
	return &getJobController{svc: svc}
}

func (h *getJobController) Handle(c *gin.Context) {
	id := c.Param("id")
	job, err := h.svc.GetJob(c.Request.Context(), id)
	if err != nil {
		if err == repository.ErrNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, job)
}
