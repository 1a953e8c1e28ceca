package auth

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/carelink/carelink/internal/platform/db"
)

type tokenRepoPG struct {
	pool *pgxpool.Pool
}

// NewTokenRepoPG returns the PostgreSQL-backed TokenRepository.
func NewTokenRepoPG(pool *pgxpool.Pool) TokenRepository {
	return &tokenRepoPG{pool: pool}
}

func (r *tokenRepoPG) conn(ctx context.Context) querier {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const refreshTokenCols = `id, user_id, role, token_hash, expires_at, revoked_at, created_at`

func scanRefreshToken(row pgx.Row) (*RefreshToken, error) {
	var t RefreshToken
	err := row.Scan(&t.ID, &t.UserID, &t.Role, &t.TokenHash, &t.ExpiresAt, &t.RevokedAt, &t.CreatedAt)
	return &t, err
}

func (r *tokenRepoPG) Save(ctx context.Context, t *RefreshToken) error {
	t.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO refresh_token (id, user_id, role, token_hash, expires_at)
		VALUES ($1, $2, $3, $4, $5)`,
		t.ID, t.UserID, t.Role, t.TokenHash, t.ExpiresAt)
	return err
}

func (r *tokenRepoPG) GetByHash(ctx context.Context, hash string) (*RefreshToken, error) {
	t, err := scanRefreshToken(r.conn(ctx).QueryRow(ctx,
		`SELECT `+refreshTokenCols+` FROM refresh_token WHERE token_hash = $1`, hash))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrInvalidRefreshToken
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (r *tokenRepoPG) Revoke(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE refresh_token SET revoked_at = NOW()
		WHERE id = $1 AND revoked_at IS NULL`, id)
	return err
}

func (r *tokenRepoPG) RevokeAllForUser(ctx context.Context, userID uuid.UUID) (int, error) {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE refresh_token SET revoked_at = NOW()
		WHERE user_id = $1 AND revoked_at IS NULL`, userID)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

type querier interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}
