package users

import "time"

// User is a registered account. Email doubles as the token subject.
type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
}

// Authorities returns the authority strings granted to the user.
// Today a user holds exactly one role; the slice shape matches the
// space-joined scope claim of access tokens.
func (u User) Authorities() []string {
	if u.Role == "" {
		return nil
	}
	return []string{u.Role}
}
