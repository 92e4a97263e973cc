package repository

import (
	"context"
	"database/sql"

	"github.com/omraut/carbon-terminal/internal/model"
)

// EmissionRepo persists monthly emission records.
type EmissionRepo struct{ DB *sql.DB }

func NewEmissionRepo(db *sql.DB) *EmissionRepo { return &EmissionRepo{DB: db} }

// Insert stores one computed record.
func (r *EmissionRepo) Insert(ctx context.Context, rec model.EmissionRecord) error {
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO emissions (id, user_id, scope1, scope2, scope3, total, ai_insights, created_at)
		 VALUES (?,?,?,?,?,?,?,?)`,
		rec.ID, rec.UserID, rec.Scope1, rec.Scope2, rec.Scope3, rec.Total,
		rec.AIInsights, rec.CreatedAt.UTC())
	return err
}

// ListAsc returns records oldest first so trend charts and forecasts read
// them in time order. An empty userID returns every user's records.
func (r *EmissionRepo) ListAsc(ctx context.Context, userID string) ([]model.EmissionRecord, error) {
	query := "SELECT id,user_id,scope1,scope2,scope3,total,ai_insights,created_at FROM emissions ORDER BY created_at ASC"
	args := []any{}
	if userID != "" {
		query = "SELECT id,user_id,scope1,scope2,scope3,total,ai_insights,created_at FROM emissions WHERE user_id=? ORDER BY created_at ASC"
		args = append(args, userID)
	}
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.EmissionRecord
	for rows.Next() {
		var (
			rec      model.EmissionRecord
			insights sql.NullString
		)
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.Scope1, &rec.Scope2, &rec.Scope3,
			&rec.Total, &insights, &rec.CreatedAt); err != nil {
			return nil, err
		}
		rec.AIInsights = insights.String
		out = append(out, rec)
	}
	return out, rows.Err()
}
