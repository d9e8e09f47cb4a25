// This file defines repository methods for tab groups, the top level of
// a user's workspace. Every query is scoped by user_id so one tenant can
// never see or mutate another tenant's groups.
package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/flightdeck-site/flightdeck-api/internal/model"
)

// TabGroupRepo encapsulates all database queries related to tab groups.
type TabGroupRepo struct{ DB *sql.DB }

func NewTabGroupRepo(db *sql.DB) *TabGroupRepo { return &TabGroupRepo{DB: db} }

// ListForUser returns the user's tab groups in sort order.
func (r *TabGroupRepo) ListForUser(ctx context.Context, userID string) ([]model.TabGroup, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, user_id, title, sort_order, created_at, updated_at
		FROM tab_groups WHERE user_id=? ORDER BY sort_order, created_at`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.TabGroup
	for rows.Next() {
		var g model.TabGroup
		if err := rows.Scan(&g.ID, &g.UserID, &g.Title, &g.SortOrder, &g.CreatedAt, &g.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// Create inserts a group at the end of the user's workspace and returns
// the stored record.
func (r *TabGroupRepo) Create(ctx context.Context, userID, title string) (model.TabGroup, error) {
	id := uuid.NewString()
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO tab_groups (id, user_id, title, sort_order)
		SELECT ?, ?, ?, COALESCE(MAX(sort_order)+1, 0) FROM tab_groups WHERE user_id=?`,
		id, userID, title, userID)
	if err != nil {
		return model.TabGroup{}, err
	}
	return r.getByID(ctx, userID, id)
}

// Rename updates a group's title when it belongs to the user.
func (r *TabGroupRepo) Rename(ctx context.Context, userID, id, title string) (model.TabGroup, error) {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE tab_groups SET title=?, updated_at=NOW() WHERE id=? AND user_id=?",
		title, id, userID)
	if err != nil {
		return model.TabGroup{}, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		if _, lookupErr := r.getByID(ctx, userID, id); lookupErr != nil {
			return model.TabGroup{}, lookupErr
		}
	}
	return r.getByID(ctx, userID, id)
}

// Delete removes a group and everything under it (tabs, environments).
func (r *TabGroupRepo) Delete(ctx context.Context, userID, id string) error {
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM tab_groups WHERE id=? AND user_id=?", id, userID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	_, err = r.DB.ExecContext(ctx, `
		DELETE e FROM environments e
		JOIN tabs t ON t.id = e.tab_id
		WHERE t.tab_group_id=?`, id)
	if err != nil {
		return err
	}
	_, err = r.DB.ExecContext(ctx, "DELETE FROM tabs WHERE tab_group_id=?", id)
	return err
}

// Summary aggregates tab and environment counts per group for the
// workspace overview.
func (r *TabGroupRepo) Summary(ctx context.Context, userID string) ([]model.TabGroupSummary, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT g.id, g.title, COUNT(DISTINCT t.id), COUNT(e.id)
		FROM tab_groups g
		LEFT JOIN tabs t ON t.tab_group_id = g.id
		LEFT JOIN environments e ON e.tab_id = t.id
		WHERE g.user_id=?
		GROUP BY g.id, g.title
		ORDER BY MIN(g.sort_order)`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.TabGroupSummary
	for rows.Next() {
		var s model.TabGroupSummary
		if err := rows.Scan(&s.TabGroupID, &s.Title, &s.TabCount, &s.EnvironmentCount); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *TabGroupRepo) getByID(ctx context.Context, userID, id string) (model.TabGroup, error) {
	var g model.TabGroup
	err := r.DB.QueryRowContext(ctx, `
		SELECT id, user_id, title, sort_order, created_at, updated_at
		FROM tab_groups WHERE id=? AND user_id=? LIMIT 1`, id, userID).
		Scan(&g.ID, &g.UserID, &g.Title, &g.SortOrder, &g.CreatedAt, &g.UpdatedAt)
	if err == sql.ErrNoRows {
		return model.TabGroup{}, ErrNotFound
	}
	if err != nil {
		return model.TabGroup{}, err
	}
	return g, nil
}
