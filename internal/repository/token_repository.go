package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/cafe-table-reservation/internal/apperr"
)

// StoreRefresh inserts a refresh token hash row.
func (s *Store) StoreRefresh(ctx context.Context, userID, tokenHash string, exp time.Time) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO refresh_tokens (user_id, token_hash, expires_at) VALUES (?,?,?)",
		userID, tokenHash, exp.UTC())
	return err
}

// ValidateRefresh returns the owner of a live token.
func (s *Store) ValidateRefresh(ctx context.Context, tokenHash string) (string, error) {
	var (
		userID    string
		expiresAt time.Time
		revokedAt sql.NullTime
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT user_id, expires_at, revoked_at FROM refresh_tokens WHERE token_hash=? LIMIT 1",
		tokenHash).Scan(&userID, &expiresAt, &revokedAt)
	if err != nil {
		return "", notFound(err)
	}
	if revokedAt.Valid || s.now().After(expiresAt) {
		return "", apperr.ErrNotFound
	}
	return userID, nil
}

// RevokeByHash marks a token as revoked.
func (s *Store) RevokeByHash(ctx context.Context, tokenHash string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked_at=UTC_TIMESTAMP() WHERE token_hash=? AND revoked_at IS NULL",
		tokenHash)
	return err
}

// RevokeAllForUser revokes all the user's active tokens.
func (s *Store) RevokeAllForUser(ctx context.Context, userID string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked_at=UTC_TIMESTAMP() WHERE user_id=? AND revoked_at IS NULL",
		userID)
	return err
}
