package model

import "time"

// Query outcomes recorded in the audit log.
const (
	QueryOutcomeAnswered = "answered"
	QueryOutcomeRefused  = "refused"
)

// QueryLog is one answered (or refused) question, persisted asynchronously
// for auditing which topics users ask about.
type QueryLog struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Question   string    `gorm:"type:text;not null" json:"question"`
	Labels     string    `gorm:"size:256" json:"labels"` // comma-joined label set
	Outcome    string    `gorm:"size:32;not null;index" json:"outcome"`
	Answer     string    `gorm:"type:text" json:"answer"`
	ChunkCount int       `json:"chunk_count"`
	DurationMs int64     `json:"duration_ms"`
	CreatedAt  time.Time `json:"created_at"`
}
