package auth

import (
	"context"

	"github.com/google/uuid"
)

// TokenRepository persists refresh-token records.
type TokenRepository interface {
	// Save stores a new refresh-token record, assigning its ID.
	Save(ctx context.Context, t *RefreshToken) error

	// GetByHash looks a record up by token hash. Returns
	// ErrInvalidRefreshToken when no record matches.
	GetByHash(ctx context.Context, hash string) (*RefreshToken, error)

	// Revoke marks a single token revoked. Revoking an already revoked token
	// is a no-op.
	Revoke(ctx context.Context, id uuid.UUID) error

	// RevokeAllForUser revokes every live token the user holds and returns
	// how many were affected.
	RevokeAllForUser(ctx context.Context, userID uuid.UUID) (int, error)
}
