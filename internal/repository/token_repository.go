package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// ErrTokenInvalid covers unknown, revoked and expired refresh tokens alike.
var ErrTokenInvalid = errors.New("refresh token invalid")

// TokenRepo stores refresh tokens by SHA-256 hash.  Raw values never reach
// the database.
type TokenRepo struct{ db *sql.DB }

func NewTokenRepo(db *sql.DB) *TokenRepo { return &TokenRepo{db: db} }

func (r *TokenRepo) Store(ctx context.Context, userID, hash string, exp time.Time) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO refresh_tokens (user_id, token_hash, expires_at) VALUES (?, ?, ?)",
		userID, hash, exp.UTC())
	return err
}

// Consume revokes a live token and returns its owner.  The revoke is a
// conditional update, so of two concurrent refreshes with the same token
// only one succeeds.
func (r *TokenRepo) Consume(ctx context.Context, hash string) (string, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `UPDATE refresh_tokens SET revoked_at = UTC_TIMESTAMP()
		WHERE token_hash = ? AND revoked_at IS NULL AND expires_at > UTC_TIMESTAMP()`, hash)
	if err != nil {
		return "", err
	}
	if n, err := res.RowsAffected(); err != nil {
		return "", err
	} else if n == 0 {
		return "", ErrTokenInvalid
	}

	var userID string
	if err := tx.QueryRowContext(ctx,
		"SELECT user_id FROM refresh_tokens WHERE token_hash = ?", hash).Scan(&userID); err != nil {
		return "", err
	}
	return userID, tx.Commit()
}

// Revoke revokes one token of userID.  Tokens of other users are left
// alone and reported as invalid.
func (r *TokenRepo) Revoke(ctx context.Context, userID, hash string) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked_at = UTC_TIMESTAMP() WHERE token_hash = ? AND user_id = ? AND revoked_at IS NULL",
		hash, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrTokenInvalid
	}
	return nil
}

// RevokeAll revokes every live token of userID.
func (r *TokenRepo) RevokeAll(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked_at = UTC_TIMESTAMP() WHERE user_id = ? AND revoked_at IS NULL",
		userID)
	return err
}
