package rbac

import (
	"net/http"
	"slices"

	"atgateway/internal/auth"

	"github.com/gin-gonic/gin"
)

// RequireScope allows access if the caller's token carries scope, or the wildcard scope.
// It expects auth.RequireAPIToken earlier in the chain.
func RequireScope(scope string) gin.HandlerFunc {
	return func(c *gin.Context) {
		scopes, err := auth.Scopes(c.Request.Context())
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "scopes required"})
			return
		}
		if slices.Contains(scopes, ScopeAll) || slices.Contains(scopes, scope) {
			c.Next()
			return
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
	}
}
