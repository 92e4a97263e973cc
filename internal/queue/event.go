// Package queue defines message payloads exchanged over the message broker
// and the background consumer that turns them into audit rows.
package queue

// Queue names. The activity queue feeds the audit trail consumer; the
// emission queue is a fan-out point for downstream analytics.
const (
	ActivityQueueName = "activity.recorded"
	EmissionQueueName = "emission.recorded"
)

// ActivityEvent is published whenever a user performs an auditable action.
// It carries everything the consumer needs to write the audit row without
// querying the primary database.
type ActivityEvent struct {
	ID         string `json:"id"`
	UserID     string `json:"user_id"`
	UserName   string `json:"user_name"`
	Action     string `json:"action"`
	Details    string `json:"details"`
	RecordedAt string `json:"recorded_at"`
}

// EmissionRecordedEvent is published after a monthly record is persisted.
type EmissionRecordedEvent struct {
	RecordID   string `json:"record_id"`
	UserID     string `json:"user_id"`
	Scope1     int    `json:"scope1"`
	Scope2     int    `json:"scope2"`
	Scope3     int    `json:"scope3"`
	Total      int    `json:"total"`
	RecordedAt string `json:"recorded_at"`
}
