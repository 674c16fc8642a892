package auth

import "github.com/golang-jwt/jwt/v5"

type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

// Claims are the only supported JWT claims shape for this service.
// Multi-tenant invariant: WorkspaceID must be present for all non-system activity.
// Permission sets are NOT carried in the token; they are derived from Role by
// the identity cache so the role table can change without re-issuing tokens.
type Claims struct {
	jwt.RegisteredClaims

	UserID      string    `json:"user_id"`
	WorkspaceID string    `json:"workspace_id"`
	Email       string    `json:"email,omitempty"`
	Role        string    `json:"role"`
	TokenType   TokenType `json:"token_type"`
}
