package auth

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Common errors returned by the authentication API.
var (
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrInvalidRefreshToken = errors.New("refresh token is invalid, expired, or revoked")
	ErrInvalidCode         = errors.New("verification code is invalid or expired")
	ErrUnknownRole         = errors.New("role must be provider or patient")
	ErrUnknownChannel      = errors.New("channel must be email or phone")
)

// RefreshToken is the server-side record of an issued refresh token. Only the
// SHA-256 hash of the token ever reaches the database, so a leaked table does
// not yield usable credentials.
type RefreshToken struct {
	ID        uuid.UUID  `db:"id" json:"id"`
	UserID    uuid.UUID  `db:"user_id" json:"user_id"`
	Role      string     `db:"role" json:"role"`
	TokenHash string     `db:"token_hash" json:"-"`
	ExpiresAt time.Time  `db:"expires_at" json:"expires_at"`
	RevokedAt *time.Time `db:"revoked_at" json:"revoked_at,omitempty"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
}

// Expired reports whether the token's lifetime has passed.
func (t *RefreshToken) Expired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}

// TokenPair is returned by register, login, and refresh.
type TokenPair struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	TokenType    string    `json:"token_type"`
	ExpiresIn    int       `json:"expires_in"`
	UserID       uuid.UUID `json:"user_id"`
	Role         string    `json:"role"`
}
