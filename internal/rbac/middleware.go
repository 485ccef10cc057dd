package rbac

import (
	"net/http"

	"library-platform/internal/auth"

	"github.com/gin-gonic/gin"
)

// RequireAnyAuthority allows the request through if the caller holds at
// least one of the given authorities. Authorities come from the access
// token's scope claim, already verified and placed in context by
// auth.RequireAccessToken.
func RequireAnyAuthority(allowed ...string) gin.HandlerFunc {
	allowedSet := make(map[string]struct{}, len(allowed))
	for _, a := range allowed {
		allowedSet[a] = struct{}{}
	}

	return func(c *gin.Context) {
		authorities, err := auth.Authorities(c.Request.Context())
		if err != nil || len(authorities) == 0 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authority required"})
			return
		}

		for _, a := range authorities {
			if _, ok := allowedSet[a]; ok {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
	}
}
