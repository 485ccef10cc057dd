package token

import "time"

// RefreshToken is the persisted record of an issued refresh token.
// The row is created on login and on every rotation, mutated only to flip
// Revoked to true, and physically removed only by the expiry sweep.
type RefreshToken struct {
	ID        int64
	Token     string
	Subject   string
	ExpiresAt time.Time
	Revoked   bool
	CreatedAt time.Time
}

// TokenPair is the result of a successful login or refresh.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}
