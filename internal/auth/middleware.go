package auth

import (
	"net/http"
	"strings"
	"time"

	"atgateway/pkg/logger"

	"github.com/gin-gonic/gin"
)

// RequireAPIToken admits requests carrying a valid client token and puts the client id
// and scopes on the request context. Scope checks belong to internal/rbac.
func RequireAPIToken(m *Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		tok, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}

		claims, err := m.Verify(tok, time.Now())
		if err != nil {
			logger.FromGin(c).Warn("api token rejected", "err", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Request = c.Request.WithContext(WithClient(c.Request.Context(), claims.ClientID, claims.Scopes))
		c.Set("client_id", claims.ClientID)
		c.Next()
	}
}

// bearerToken extracts the token from an Authorization header; the scheme is case-insensitive.
func bearerToken(header string) (string, bool) {
	scheme, tok, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	tok = strings.TrimSpace(tok)
	return tok, tok != ""
}
