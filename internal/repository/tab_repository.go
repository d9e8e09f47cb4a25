// This file defines repository methods for tabs. Ownership is enforced
// through the parent tab group: every statement joins up to tab_groups
// and filters on its user_id.
package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/flightdeck-site/flightdeck-api/internal/model"
)

// TabRepo encapsulates all database queries related to tabs.
type TabRepo struct{ DB *sql.DB }

func NewTabRepo(db *sql.DB) *TabRepo { return &TabRepo{DB: db} }

// ListForGroup returns the tabs of a group the user owns. ErrNotFound
// when the group does not exist or belongs to someone else.
func (r *TabRepo) ListForGroup(ctx context.Context, userID, groupID string) ([]model.Tab, error) {
	var exists int
	err := r.DB.QueryRowContext(ctx,
		"SELECT 1 FROM tab_groups WHERE id=? AND user_id=? LIMIT 1", groupID, userID).Scan(&exists)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, tab_group_id, title, sort_order, created_at, updated_at
		FROM tabs WHERE tab_group_id=? ORDER BY sort_order, created_at`, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Tab
	for rows.Next() {
		var t model.Tab
		if err := rows.Scan(&t.ID, &t.TabGroupID, &t.Title, &t.SortOrder, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Create inserts a tab at the end of the group. ErrNotFound when the
// group is absent or not owned by the user.
func (r *TabRepo) Create(ctx context.Context, userID, groupID, title string) (model.Tab, error) {
	id := uuid.NewString()
	res, err := r.DB.ExecContext(ctx, `
		INSERT INTO tabs (id, tab_group_id, title, sort_order)
		SELECT ?, g.id, ?, COALESCE((SELECT MAX(t.sort_order)+1 FROM tabs t WHERE t.tab_group_id = g.id), 0)
		FROM tab_groups g WHERE g.id=? AND g.user_id=?`,
		id, title, groupID, userID)
	if err != nil {
		return model.Tab{}, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return model.Tab{}, ErrNotFound
	}
	return r.getByID(ctx, userID, id)
}

// Rename updates a tab's title when its group belongs to the user.
func (r *TabRepo) Rename(ctx context.Context, userID, id, title string) (model.Tab, error) {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE tabs t JOIN tab_groups g ON g.id = t.tab_group_id
		SET t.title=?, t.updated_at=NOW()
		WHERE t.id=? AND g.user_id=?`, title, id, userID)
	if err != nil {
		return model.Tab{}, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		if _, lookupErr := r.getByID(ctx, userID, id); lookupErr != nil {
			return model.Tab{}, lookupErr
		}
	}
	return r.getByID(ctx, userID, id)
}

// Delete removes a tab and its environments.
func (r *TabRepo) Delete(ctx context.Context, userID, id string) error {
	res, err := r.DB.ExecContext(ctx, `
		DELETE t FROM tabs t JOIN tab_groups g ON g.id = t.tab_group_id
		WHERE t.id=? AND g.user_id=?`, id, userID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	_, err = r.DB.ExecContext(ctx, "DELETE FROM environments WHERE tab_id=?", id)
	return err
}

func (r *TabRepo) getByID(ctx context.Context, userID, id string) (model.Tab, error) {
	var t model.Tab
	err := r.DB.QueryRowContext(ctx, `
		SELECT t.id, t.tab_group_id, t.title, t.sort_order, t.created_at, t.updated_at
		FROM tabs t JOIN tab_groups g ON g.id = t.tab_group_id
		WHERE t.id=? AND g.user_id=? LIMIT 1`, id, userID).
		Scan(&t.ID, &t.TabGroupID, &t.Title, &t.SortOrder, &t.CreatedAt, &t.UpdatedAt)
	if err == sql.ErrNoRows {
		return model.Tab{}, ErrNotFound
	}
	if err != nil {
		return model.Tab{}, err
	}
	return t, nil
}
