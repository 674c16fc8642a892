package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"inventory-platform/internal/audit"
	"inventory-platform/internal/auth"
	"inventory-platform/internal/inventory"
	"inventory-platform/internal/projects"
	"inventory-platform/internal/trash"
	"inventory-platform/internal/users"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// Handlers groups HTTP handlers for dependency injection.
// Keep these thin: parse/validate input, call internal services, return JSON.
type Handlers struct {
	Auth      *auth.Manager
	Cache     *auth.IdentityCache
	Redis     *redis.Client
	Users     *users.Service
	Audit     *audit.Service
	Trash     *trash.Service
	Inventory *inventory.Service
	Importer  *inventory.Importer
	Projects  *projects.Service
	Log       *slog.Logger
}

// identity pulls the authenticated caller from the request context. The
// auth middleware guarantees it on protected routes; a miss is a wiring bug
// surfaced as 401.
func identity(c *gin.Context) (auth.Identity, bool) {
	id, ok := auth.IdentityFrom(c.Request.Context())
	if !ok {
		respondError(c, http.StatusUnauthorized, "authentication required")
		return auth.Identity{}, false
	}
	return id, true
}

// --- Auth ---

type loginRequest struct {
	WorkspaceID string `json:"workspace_id" binding:"required"`
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required"`
}

// Login validates the credential pair and issues a JWT token pair.
func (h Handlers) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "workspace_id, email and password required")
		return
	}
	u, err := h.Users.Authenticate(c.Request.Context(), req.WorkspaceID, req.Email, req.Password)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	pair, err := h.Auth.IssuePair(time.Now(), u.ID, u.WorkspaceID, u.Email, u.Role)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{
		"access_token":  pair.AccessToken,
		"refresh_token": pair.RefreshToken,
		"user": gin.H{
			"id":    u.ID,
			"email": u.Email,
			"name":  u.Name,
			"role":  u.Role,
		},
	})
}

// Logout evicts the caller's cached identity on this instance and
// broadcasts the eviction so peers drop it too. The JWT itself stays valid
// until expiry; what logout revokes is the cached fast path.
func (h Handlers) Logout(c *gin.Context) {
	if _, ok := identity(c); !ok {
		return
	}
	tok := auth.BearerToken(c)
	if tok == "" {
		respondError(c, http.StatusUnauthorized, "missing bearer token")
		return
	}
	if h.Cache != nil {
		h.Cache.Invalidate(tok)
	}
	if h.Redis != nil {
		if err := auth.PublishInvalidation(c.Request.Context(), h.Redis, tok); err != nil {
			// Peers fall back to TTL expiry; the local eviction already took.
			h.Log.Warn("logout broadcast failed", "err", err)
		}
	}
	respond(c, http.StatusOK, gin.H{"logged_out": true})
}

// Healthz is the unauthenticated liveness probe.
func Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
