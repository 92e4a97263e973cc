package repository

import (
	"context"
	"database/sql"

	"github.com/omraut/carbon-terminal/internal/model"
)

// ActivityLogRepo persists the audit trail rows written by the queue
// consumer.
type ActivityLogRepo struct{ DB *sql.DB }

func NewActivityLogRepo(db *sql.DB) *ActivityLogRepo { return &ActivityLogRepo{DB: db} }

// Insert stores one audit entry.
func (r *ActivityLogRepo) Insert(ctx context.Context, l model.ActivityLog) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO activity_logs (id, user_id, user_name, action, details, created_at) VALUES (?,?,?,?,?,?)",
		l.ID, l.UserID, l.UserName, l.Action, l.Details, l.CreatedAt.UTC())
	return err
}

// List returns the most recent entries, newest first, capped at limit. A
// non-empty userID restricts the view to that user's own actions.
func (r *ActivityLogRepo) List(ctx context.Context, userID string, limit int) ([]model.ActivityLog, error) {
	if limit <= 0 {
		limit = 50
	}
	query := "SELECT id,user_id,user_name,action,details,created_at FROM activity_logs ORDER BY created_at DESC LIMIT ?"
	args := []any{limit}
	if userID != "" {
		query = "SELECT id,user_id,user_name,action,details,created_at FROM activity_logs WHERE user_id=? ORDER BY created_at DESC LIMIT ?"
		args = []any{userID, limit}
	}
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.ActivityLog
	for rows.Next() {
		var (
			l       model.ActivityLog
			details sql.NullString
		)
		if err := rows.Scan(&l.ID, &l.UserID, &l.UserName, &l.Action, &details, &l.CreatedAt); err != nil {
			return nil, err
		}
		l.Details = details.String
		out = append(out, l)
	}
	return out, rows.Err()
}
