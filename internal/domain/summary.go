package domain

import "time"

// SessionSummary is the lightweight projection shown in list views. It is
// derived read-only from session metadata and never independently mutated.
type SessionSummary struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	DurationMs int64      `json:"duration_ms"`
	StartTime  time.Time  `json:"start_time"`
	URL        string     `json:"url"`
	Visibility Visibility `json:"visibility"`
	CreatedBy  string     `json:"created_by"`
	UpdatedAt  time.Time  `json:"updated_at"`
}
