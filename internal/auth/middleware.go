package auth

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

const authorizationHeader = "Authorization"
const bearerPrefix = "Bearer "

// BearerToken extracts the raw credential from the Authorization header, or
// "" when the header is absent or malformed.
func BearerToken(c *gin.Context) string {
	raw := strings.TrimSpace(c.GetHeader(authorizationHeader))
	if !strings.HasPrefix(raw, bearerPrefix) {
		return ""
	}
	return strings.TrimPrefix(raw, bearerPrefix)
}

// RequireAccessToken resolves the caller's identity, cache-first.
//
// On a cache hit the JWT is not re-validated; staleness is bounded by the
// cache TTL, which config caps at the access-token TTL. On a miss the token
// is verified against the Manager and the result stored for subsequent
// requests. RBAC checks belong to internal/rbac, not here.
func RequireAccessToken(m *Manager, cache *IdentityCache) gin.HandlerFunc {
	return func(c *gin.Context) {
		tok := BearerToken(c)
		if tok == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "error": "missing bearer token"})
			return
		}

		var ident Identity
		if cached, ok := cache.Resolve(tok); ok {
			ident = cached.Identity
		} else {
			claims, err := m.Verify(tok, TokenTypeAccess, time.Now())
			if err != nil {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "error": "invalid token"})
				return
			}
			stored := cache.Store(tok, Identity{
				UserID:      claims.UserID,
				WorkspaceID: claims.WorkspaceID,
				Email:       claims.Email,
				Role:        claims.Role,
			})
			ident = stored.Identity
		}

		ctx := WithIdentity(c.Request.Context(), ident)
		c.Request = c.Request.WithContext(ctx)

		// Also store on gin context for middleware/logging convenience.
		c.Set("user_id", ident.UserID)
		c.Set("workspace_id", ident.WorkspaceID)
		c.Set("role", ident.Role)

		c.Next()
	}
}
