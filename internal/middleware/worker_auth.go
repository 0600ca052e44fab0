package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kzero-xyz/proofbridge/pkg/auth"
)

const workerScopeClaim = "proofbridge:worker"

// WorkerAuthMiddleware validates the bearer token a worker presents when
// opening the channel runtime websocket (C5) against the configured worker
// Validator.
func WorkerAuthMiddleware(workerValidator auth.Validator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing Authorization header"})
			return
		}
		if workerValidator == nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "worker auth not configured"})
			return
		}
		claims, err := workerValidator.Validate(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		c.Set("workerClaims", claims)
		c.Next()
	}
}

// GetWorkerClaims returns the worker claims set by WorkerAuthMiddleware.
func GetWorkerClaims(c *gin.Context) (*auth.Claims, bool) {
	v, ok := c.Get("workerClaims")
	if !ok {
		return nil, false
	}
	claims, ok := v.(*auth.Claims)
	return claims, ok
}
