package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/google/uuid"

	"github.com/flightdeck-site/flightdeck-api/internal/model"
)

// UserRepo is the user directory. Names are unique and case-sensitive;
// ids are v4 UUIDs minted on insert so that pre-auth clients can carry
// them in the legacy identity header.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = "id, name, role, password_hash, created_at, updated_at"

func scanUser(row *sql.Row) (model.User, error) {
	var (
		u    model.User
		role sql.NullString
		hash sql.NullString
	)
	err := row.Scan(&u.ID, &u.Name, &role, &hash, &u.CreatedAt, &u.UpdatedAt)
	if err == sql.ErrNoRows {
		return model.User{}, ErrNotFound
	}
	if err != nil {
		return model.User{}, err
	}
	if role.Valid {
		u.Role = &role.String
	}
	if hash.Valid {
		u.PasswordHash = &hash.String
	}
	return u, nil
}

// Create inserts a user with a freshly generated UUID and returns the
// stored record. The password hash and role may both be nil; a nil hash
// provisions a legacy account that can only enter through the bridge.
func (r *UserRepo) Create(ctx context.Context, name string, role, passwordHash *string) (model.User, error) {
	id := uuid.NewString()
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (id, name, role, password_hash) VALUES (?,?,?,?)",
		id, name, role, passwordHash)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return model.User{}, ErrNameExists
		}
		return model.User{}, err
	}
	return r.GetByID(ctx, id)
}

// GetByName fetches a user by exact name, password hash included. This
// is the login lookup; callers must treat "no row" and "no hash" the
// same way towards the client.
func (r *UserRepo) GetByName(ctx context.Context, name string) (model.User, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE name=? LIMIT 1", name)
	return scanUser(row)
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id string) (model.User, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id)
	return scanUser(row)
}

// List returns all users ordered by name, for the admin console.
func (r *UserRepo) List(ctx context.Context) ([]model.User, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+userColumns+" FROM users ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.User
	for rows.Next() {
		var (
			u    model.User
			role sql.NullString
			hash sql.NullString
		)
		if err := rows.Scan(&u.ID, &u.Name, &role, &hash, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		if role.Valid {
			u.Role = &role.String
		}
		if hash.Valid {
			u.PasswordHash = &hash.String
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// UserUpdate describes a partial update from the admin console. The
// *Set flags distinguish "leave alone" from "set to NULL"; setting the
// password hash to nil demotes the account back to the legacy state.
type UserUpdate struct {
	Name            *string
	Role            *string
	RoleSet         bool
	PasswordHash    *string
	PasswordHashSet bool
}

// Update applies a partial update and returns the new record.
// ErrNotFound when the id matches nothing.
func (r *UserRepo) Update(ctx context.Context, id string, upd UserUpdate) (model.User, error) {
	sets := make([]string, 0, 3)
	args := make([]interface{}, 0, 4)
	if upd.Name != nil {
		sets = append(sets, "name=?")
		args = append(args, *upd.Name)
	}
	if upd.RoleSet {
		sets = append(sets, "role=?")
		args = append(args, upd.Role)
	}
	if upd.PasswordHashSet {
		sets = append(sets, "password_hash=?")
		args = append(args, upd.PasswordHash)
	}
	if len(sets) == 0 {
		return r.GetByID(ctx, id)
	}
	args = append(args, id)
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET "+strings.Join(sets, ", ")+", updated_at=NOW() WHERE id=?", args...)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return model.User{}, ErrNameExists
		}
		return model.User{}, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		// MySQL also reports 0 when the row exists but nothing changed,
		// so confirm absence with a lookup before reporting not found.
		if _, lookupErr := r.GetByID(ctx, id); lookupErr != nil {
			return model.User{}, lookupErr
		}
	}
	return r.GetByID(ctx, id)
}

// SetPasswordHashIfUnset sets the password hash only when none exists
// yet. This is the one-shot legacy migration step: the WHERE clause
// makes two concurrent resets race on the database, and the loser sees
// ErrAlreadyMigrated rather than overwriting the winner.
func (r *UserRepo) SetPasswordHashIfUnset(ctx context.Context, id, hash string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET password_hash=?, updated_at=NOW() WHERE id=? AND password_hash IS NULL",
		hash, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err // ErrNotFound or a real failure
		}
		return ErrAlreadyMigrated
	}
	return nil
}

// Delete removes a user. Refresh tokens are revoked separately by the
// caller so the directory stays unaware of the session store.
func (r *UserRepo) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM users WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}
