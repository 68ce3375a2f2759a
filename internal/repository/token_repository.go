package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// ErrRefreshInvalid is returned for a refresh token that is unknown,
// revoked or expired.
var ErrRefreshInvalid = errors.New("invalid refresh token")

// TokenRepo stores refresh tokens by their SHA-256 hash; the raw value
// only ever lives on the client.
type TokenRepo struct{ DB *sql.DB }

func NewTokenRepo(db *sql.DB) *TokenRepo { return &TokenRepo{DB: db} }

// StoreRefresh records a freshly issued token.
func (r *TokenRepo) StoreRefresh(ctx context.Context, userID, tokenHash string, exp time.Time) error {
	return storeRefresh(ctx, r.DB, userID, tokenHash, exp)
}

func storeRefresh(ctx context.Context, q querier, userID, tokenHash string, exp time.Time) error {
	_, err := q.ExecContext(ctx,
		"INSERT INTO refresh_tokens (user_id, token_hash, expires_at) VALUES (?,?,?)",
		userID, tokenHash, exp.UTC())
	return err
}

// ValidateRefresh returns the owner of a live token.
func (r *TokenRepo) ValidateRefresh(ctx context.Context, tokenHash string) (string, error) {
	return validateRefresh(ctx, r.DB, tokenHash)
}

func validateRefresh(ctx context.Context, q querier, tokenHash string) (string, error) {
	var (
		userID    string
		expiresAt time.Time
		revokedAt sql.NullTime
	)
	err := q.QueryRowContext(ctx,
		"SELECT user_id, expires_at, revoked_at FROM refresh_tokens WHERE token_hash = ?",
		tokenHash).Scan(&userID, &expiresAt, &revokedAt)
	if err != nil {
		return "", notFound(err, ErrRefreshInvalid)
	}
	if revokedAt.Valid || time.Now().UTC().After(expiresAt) {
		return "", ErrRefreshInvalid
	}
	return userID, nil
}

// Rotate revokes oldHash and records newHash for the same user in one
// transaction.  Of two concurrent rotations of the same token only one
// succeeds; the other gets ErrRefreshInvalid.
func (r *TokenRepo) Rotate(ctx context.Context, oldHash, newHash string, newExp time.Time) (string, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer rollback(tx)

	userID, err := validateRefresh(ctx, tx, oldHash)
	if err != nil {
		return "", err
	}
	res, err := tx.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked_at = CURRENT_TIMESTAMP WHERE token_hash = ? AND revoked_at IS NULL",
		oldHash)
	if err != nil {
		return "", err
	}
	if n, _ := res.RowsAffected(); n != 1 {
		return "", ErrRefreshInvalid
	}
	if err := storeRefresh(ctx, tx, userID, newHash, newExp); err != nil {
		return "", err
	}
	if err := tx.Commit(); err != nil {
		return "", err
	}
	return userID, nil
}

// RevokeByHash revokes one token.  Unknown or already revoked tokens are
// ignored.
func (r *TokenRepo) RevokeByHash(ctx context.Context, tokenHash string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked_at = CURRENT_TIMESTAMP WHERE token_hash = ? AND revoked_at IS NULL",
		tokenHash)
	return err
}

// RevokeAllForUser revokes every live token of a user.
func (r *TokenRepo) RevokeAllForUser(ctx context.Context, userID string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked_at = CURRENT_TIMESTAMP WHERE user_id = ? AND revoked_at IS NULL",
		userID)
	return err
}
