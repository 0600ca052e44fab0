package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RequireWorkerScope gates a worker endpoint on a specific scope claim, e.g.
// the channel-runtime websocket upgrade requiring "proofbridge:worker".
func RequireWorkerScope(scope string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := GetWorkerClaims(c)
		if !ok || claims == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing worker claims"})
			return
		}
		if !claims.HasScope(scope) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "missing scope"})
			return
		}
		c.Next()
	}
}
