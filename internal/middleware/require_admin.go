package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const adminScope = "proofbridge:admin"

// RequireAdmin gates the admin queue-stats/cleanup endpoints on either an
// explicit admin scope or a "role":"ADMIN" claim, falling back to the
// dev-only X-Role header resolved by AuthMiddleware.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if claims, ok := GetUserClaims(c); ok && claims != nil {
			if claims.HasScope(adminScope) {
				c.Next()
				return
			}
			if role, ok := claims.Raw["role"].(string); ok && strings.EqualFold(role, "ADMIN") {
				c.Next()
				return
			}
		}
		if v, _ := c.Get("userRole"); strings.EqualFold(asString(v), "ADMIN") {
			c.Next()
			return
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized. Admin only"})
	}
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}
