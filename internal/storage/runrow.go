package storage

import "time"

// RunRow is a lightweight listing row for /runs.
type RunRow struct {
	ID         string    `json:"id"`
	StartedAt  time.Time `json:"started_at"`
	Policy     string    `json:"policy,omitempty"`
	IRVersion  string    `json:"ir_version,omitempty"`
	Violations int       `json:"violations"`
}
