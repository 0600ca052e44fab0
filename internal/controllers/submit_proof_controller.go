package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kzero-xyz/proofbridge/internal/repository"
	"github.com/kzero-xyz/proofbridge/internal/services"
	"github.com/kzero-xyz/proofbridge/pkg/jwtdissect"
	"github.com/kzero-xyz/proofbridge/pkg/zkinput"
)

type submitProofController struct{ svc services.SubmitService }

func NewSubmitProofController(svc services.SubmitService) *submitProofController {
	return &submitProofController{svc: svc}
}

type submitProofReq struct {
	JWT                string `json:"jwt" binding:"required"`
	Salt               string `json:"salt" binding:"required"`
	EphemeralPublicKey string `json:"ephemeralPublicKey" binding:"required"`
	MaxEpoch           string `json:"maxEpoch" binding:"required"`
	Randomness         string `json:"randomness" binding:"required"`
}

func (h *submitProofController) Handle(c *gin.Context) {
	var req submitProofReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	job, err := h.svc.Submit(c.Request.Context(), services.SubmitRequest{
		JWT:                req.JWT,
		Salt:               req.Salt,
		EphemeralPublicKey: req.EphemeralPublicKey,
		MaxEpoch:           req.MaxEpoch,
		Randomness:         req.Randomness,
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateNonce) {
			c.JSON(http.StatusConflict, gin.H{"error": "a proof job already exists for this nonce"})
			return
		}
		status := http.StatusBadRequest
		for _, target := range []error{
			jwtdissect.ErrInvalidJwtShape, jwtdissect.ErrMissingClaim, jwtdissect.ErrClaimTooLong,
			zkinput.ErrUnknownKid, zkinput.ErrInvalidEphemeralKey, zkinput.ErrInvalidJWKSEntry,
			zkinput.ErrInvalidDecimalString, zkinput.ErrValueTooLong,
		} {
			if errors.Is(err, target) {
				status = http.StatusUnprocessableEntity
			}
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"id": job.ID, "status": job.Status})
}
