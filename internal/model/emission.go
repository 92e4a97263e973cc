package model

import "time"

// EmissionRecord mirrors the `emissions` table. Records are append-only:
// once persisted they are never updated in place, only new ones are added.
// The three scope values are each rounded to whole kg CO2e before storage and
// Total is the sum of the rounded scopes, so Total can differ from rounding
// the raw sum (the rounding residue is intentional, see estimator tests).
type EmissionRecord struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	Scope1     int       `json:"scope1"`
	Scope2     int       `json:"scope2"`
	Scope3     int       `json:"scope3"`
	Total      int       `json:"total"`
	AIInsights string    `json:"ai_insights,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// ActivityLog is one row of the append-only audit trail written on
// privileged actions (login, calibration change, override toggle, data
// export, emission sync).
type ActivityLog struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	UserName  string    `json:"user_name"`
	Action    string    `json:"action"`
	Details   string    `json:"details,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
