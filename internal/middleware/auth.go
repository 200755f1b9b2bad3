package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/team-tasks-api/internal/authz"
	apierrors "github.com/yukikurage/team-tasks-api/internal/errors"
	"github.com/yukikurage/team-tasks-api/internal/session"
)

const contextKeyPrincipal = "principal"

// RequireAuth checks if the user is authenticated via session
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := session.LoadPrincipal(c)
		if !ok {
			apierrors.Unauthenticated(c, "")
			return
		}

		// Store the principal in context for easy access in handlers
		c.Set(contextKeyPrincipal, principal)
		c.Next()
	}
}

// GetPrincipal retrieves the current principal from context
func GetPrincipal(c *gin.Context) (authz.Principal, bool) {
	v, exists := c.Get(contextKeyPrincipal)
	if !exists {
		return authz.Principal{}, false
	}
	principal, ok := v.(authz.Principal)
	return principal, ok
}
