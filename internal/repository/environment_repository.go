// This file defines repository methods for environments, the named URLs
// hanging off a tab. Ownership is enforced through tab -> tab group.
package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/flightdeck-site/flightdeck-api/internal/model"
)

// EnvironmentRepo encapsulates all database queries related to environments.
type EnvironmentRepo struct{ DB *sql.DB }

func NewEnvironmentRepo(db *sql.DB) *EnvironmentRepo { return &EnvironmentRepo{DB: db} }

// ListForTab returns the environments of a tab the user owns.
func (r *EnvironmentRepo) ListForTab(ctx context.Context, userID, tabID string) ([]model.Environment, error) {
	var exists int
	err := r.DB.QueryRowContext(ctx, `
		SELECT 1 FROM tabs t JOIN tab_groups g ON g.id = t.tab_group_id
		WHERE t.id=? AND g.user_id=? LIMIT 1`, tabID, userID).Scan(&exists)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, tab_id, name, url, created_at, updated_at
		FROM environments WHERE tab_id=? ORDER BY name`, tabID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Environment
	for rows.Next() {
		var e model.Environment
		if err := rows.Scan(&e.ID, &e.TabID, &e.Name, &e.URL, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Create inserts an environment under a tab the user owns.
func (r *EnvironmentRepo) Create(ctx context.Context, userID, tabID, name, url string) (model.Environment, error) {
	id := uuid.NewString()
	res, err := r.DB.ExecContext(ctx, `
		INSERT INTO environments (id, tab_id, name, url)
		SELECT ?, t.id, ?, ? FROM tabs t JOIN tab_groups g ON g.id = t.tab_group_id
		WHERE t.id=? AND g.user_id=?`,
		id, name, url, tabID, userID)
	if err != nil {
		return model.Environment{}, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return model.Environment{}, ErrNotFound
	}
	return r.getByID(ctx, userID, id)
}

// Update changes name and/or url of an owned environment.
func (r *EnvironmentRepo) Update(ctx context.Context, userID, id string, name, url *string) (model.Environment, error) {
	if name == nil && url == nil {
		return r.getByID(ctx, userID, id)
	}
	sets := ""
	args := []interface{}{}
	if name != nil {
		sets = "e.name=?"
		args = append(args, *name)
	}
	if url != nil {
		if sets != "" {
			sets += ", "
		}
		sets += "e.url=?"
		args = append(args, *url)
	}
	args = append(args, id, userID)
	res, err := r.DB.ExecContext(ctx, `
		UPDATE environments e
		JOIN tabs t ON t.id = e.tab_id
		JOIN tab_groups g ON g.id = t.tab_group_id
		SET `+sets+`, e.updated_at=NOW()
		WHERE e.id=? AND g.user_id=?`, args...)
	if err != nil {
		return model.Environment{}, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		if _, lookupErr := r.getByID(ctx, userID, id); lookupErr != nil {
			return model.Environment{}, lookupErr
		}
	}
	return r.getByID(ctx, userID, id)
}

// Delete removes an owned environment.
func (r *EnvironmentRepo) Delete(ctx context.Context, userID, id string) error {
	res, err := r.DB.ExecContext(ctx, `
		DELETE e FROM environments e
		JOIN tabs t ON t.id = e.tab_id
		JOIN tab_groups g ON g.id = t.tab_group_id
		WHERE e.id=? AND g.user_id=?`, id, userID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *EnvironmentRepo) getByID(ctx context.Context, userID, id string) (model.Environment, error) {
	var e model.Environment
	err := r.DB.QueryRowContext(ctx, `
		SELECT e.id, e.tab_id, e.name, e.url, e.created_at, e.updated_at
		FROM environments e
		JOIN tabs t ON t.id = e.tab_id
		JOIN tab_groups g ON g.id = t.tab_group_id
		WHERE e.id=? AND g.user_id=? LIMIT 1`, id, userID).
		Scan(&e.ID, &e.TabID, &e.Name, &e.URL, &e.CreatedAt, &e.UpdatedAt)
	if err == sql.ErrNoRows {
		return model.Environment{}, ErrNotFound
	}
	if err != nil {
		return model.Environment{}, err
	}
	return e, nil
}
