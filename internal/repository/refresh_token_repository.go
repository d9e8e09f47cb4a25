package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/flightdeck-site/flightdeck-api/internal/model"
)

// RefreshTokenRepo persists the server-side half of refresh secrets.
// Only SHA-256 hashes are stored; consuming a token means deleting its
// row, so a row's existence is the single-use guarantee.
type RefreshTokenRepo struct{ DB *sql.DB }

func NewRefreshTokenRepo(db *sql.DB) *RefreshTokenRepo { return &RefreshTokenRepo{DB: db} }

// EnsureSchema creates the refresh_tokens table when it does not exist
// yet. Called once at startup before the server accepts traffic.
func (r *RefreshTokenRepo) EnsureSchema(ctx context.Context) error {
	_, err := r.DB.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS refresh_tokens (
			id         BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
			user_id    CHAR(36)        NOT NULL,
			token_hash CHAR(64)        NOT NULL,
			expires_at DATETIME        NOT NULL,
			created_at DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (id),
			UNIQUE KEY uq_refresh_tokens_token_hash (token_hash),
			KEY idx_refresh_tokens_user_id (user_id)
		)`)
	return err
}

// Save inserts a refresh token hash row. A collision on the unique hash
// column surfaces as ErrDuplicateToken.
func (r *RefreshTokenRepo) Save(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO refresh_tokens (user_id, token_hash, expires_at) VALUES (?,?,?)",
		userID, tokenHash, expiresAt)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return ErrDuplicateToken
		}
		return err
	}
	return nil
}

// Find returns the record stored for the given hash, or ErrNotFound.
// Expiry is not checked here; the controller owns that decision so it
// can delete expired rows on detection.
func (r *RefreshTokenRepo) Find(ctx context.Context, tokenHash string) (model.RefreshToken, error) {
	var t model.RefreshToken
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, user_id, token_hash, expires_at, created_at FROM refresh_tokens WHERE token_hash=? LIMIT 1",
		tokenHash).Scan(&t.ID, &t.UserID, &t.TokenHash, &t.ExpiresAt, &t.CreatedAt)
	if err == sql.ErrNoRows {
		return model.RefreshToken{}, ErrNotFound
	}
	if err != nil {
		return model.RefreshToken{}, err
	}
	return t, nil
}

// Delete removes at most one record by hash. Absence is not an error;
// callers on the logout path rely on that.
func (r *RefreshTokenRepo) Delete(ctx context.Context, tokenHash string) error {
	_, err := r.DB.ExecContext(ctx,
		"DELETE FROM refresh_tokens WHERE token_hash=?", tokenHash)
	return err
}

// DeleteByID removes one record by surrogate key. Used by the admin
// sessions console to revoke a selected session.
func (r *RefreshTokenRepo) DeleteByID(ctx context.Context, id uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"DELETE FROM refresh_tokens WHERE id=?", id)
	return err
}

// DeleteAllForUser removes every record owned by a user, terminating
// all of their sessions at once.
func (r *RefreshTokenRepo) DeleteAllForUser(ctx context.Context, userID string) error {
	_, err := r.DB.ExecContext(ctx,
		"DELETE FROM refresh_tokens WHERE user_id=?", userID)
	return err
}

// List enumerates all records for the admin sessions view, joined with
// the owning user's name. The hash column is deliberately not selected;
// operators identify sessions by owner and timestamps only.
func (r *RefreshTokenRepo) List(ctx context.Context) ([]model.RefreshToken, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT rt.id, rt.user_id, COALESCE(u.name, ''), rt.expires_at, rt.created_at
		FROM refresh_tokens rt
		LEFT JOIN users u ON u.id = rt.user_id
		ORDER BY rt.created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.RefreshToken
	for rows.Next() {
		var t model.RefreshToken
		if err := rows.Scan(&t.ID, &t.UserID, &t.UserName, &t.ExpiresAt, &t.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
