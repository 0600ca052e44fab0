package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kzero-xyz/proofbridge/pkg/auth"
	"github.com/kzero-xyz/proofbridge/pkg/config"
)

// AnyAuthMiddleware accepts either a worker token or a producer token on the
// same endpoint (the admin queue-stats surface is read by both operators and
// automated worker fleets).
func AnyAuthMiddleware(workerValidator, producerValidator auth.Validator, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing Authorization header"})
			return
		}

		if workerValidator != nil {
			if claims, err := workerValidator.Validate(token); err == nil {
				c.Set("workerClaims", claims)
				c.Set("authType", "worker")
				c.Next()
				return
			}
		}

		if producerValidator != nil {
			if claims, err := producerValidator.Validate(token); err == nil {
				c.Set("userClaims", claims)
				c.Set("userEmail", claims.Email)
				c.Set("userRole", resolveRole(c, cfg, claims))
				c.Set("authType", "producer")
				c.Next()
				return
			}
		}

		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
	}
}
