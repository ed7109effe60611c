package models

import "time"

const (
	RunStatusRunning   = "running"
	RunStatusSucceeded = "succeeded"
	RunStatusFailed    = "failed"
)

// MRunRecord is one pipeline invocation as stored in the run ledger.
type MRunRecord struct {
	RunID       string     `json:"run_id"`
	StartedAt   time.Time  `json:"started_at"`
	FinishedAt  *time.Time `json:"finished_at,omitempty"`
	Packages    int        `json:"packages"`
	Status      string     `json:"status"`
	Error       string     `json:"error,omitempty"`
	ManifestURL string     `json:"manifest_url,omitempty"`
}

// MRunStats is the ledger totals exported as metrics.
type MRunStats struct {
	RunsByStatus map[string]int
	Uploads      int
	LastRunAt    time.Time
}
