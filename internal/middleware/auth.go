package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/kzero-xyz/proofbridge/pkg/auth"
	"github.com/kzero-xyz/proofbridge/pkg/config"
)

// AuthMiddleware validates the producer-facing bearer token (the OAuth2 ID
// token a client presents when submitting a proof request) against the
// configured producer Validator and stashes the resulting claims in the gin
// context for downstream handlers.
func AuthMiddleware(producerValidator auth.Validator, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing Authorization header"})
			return
		}
		if producerValidator == nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "producer auth not configured"})
			return
		}
		claims, err := producerValidator.Validate(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		c.Set("userClaims", claims)
		c.Set("userEmail", claims.Email)
		c.Set("userRole", resolveRole(c, cfg, claims))
		c.Next()
	}
}

func resolveRole(c *gin.Context, cfg *config.Config, claims *auth.Claims) string {
	role := ""
	if claims.Raw != nil {
		if v, ok := claims.Raw["role"].(string); ok {
			role = v
		}
	}
	role = strings.ToUpper(strings.TrimSpace(role))
	if role == "" && cfg != nil && cfg.Env == "dev" {
		role = strings.ToUpper(strings.TrimSpace(c.GetHeader("X-Role")))
	}
	if role == "" {
		role = "USER"
	}
	return role
}

// GetUserClaims returns the producer claims set by AuthMiddleware.
func GetUserClaims(c *gin.Context) (*auth.Claims, bool) {
	v, ok := c.Get("userClaims")
	if !ok {
		return nil, false
	}
	claims, ok := v.(*auth.Claims)
	return claims, ok
}
