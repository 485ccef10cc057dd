package auth

import (
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// TokenTypeRefresh is the marker claim value that distinguishes refresh
// tokens from access tokens. Access tokens carry no type marker; they are
// identified by their scope claim instead.
const TokenTypeRefresh = "refresh"

// Claims are the only supported JWT claims shape for this service.
// Access tokens carry Scope (authorities joined by single spaces) and no
// Type. Refresh tokens carry Type=refresh and no Scope. Authorization never
// trusts Scope from a refresh token.
type Claims struct {
	jwt.RegisteredClaims

	Scope string `json:"scope,omitempty"`
	Type  string `json:"type,omitempty"`
}

// IsRefresh reports whether the claim set is marked as a refresh token.
func (c Claims) IsRefresh() bool {
	return c.Type == TokenTypeRefresh
}

// Authorities splits the scope claim on whitespace into individual
// authority strings. Empty scope yields nil.
func (c Claims) Authorities() []string {
	return strings.Fields(c.Scope)
}
