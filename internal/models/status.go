package models

import "time"

type HealthStatusEntry struct {
	Status    Backend   `json:"status"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (e HealthStatusEntry) Expired(now time.Time) bool {
	return !e.ExpiresAt.IsZero() && !now.Before(e.ExpiresAt)
}

type FailoverEvent struct {
	NodeID string    `json:"node_id"`
	From   Backend   `json:"from"`
	To     Backend   `json:"to"`
	Reason string    `json:"reason,omitempty"`
	At     time.Time `json:"at"`
}

type MigrationResult struct {
	Backend   Backend
	Reachable bool
	Migrated  bool
	Applied   int
	Error     string
}

// Ready reports whether the backend can serve traffic after the sync run.
func (r MigrationResult) Ready() bool {
	return r.Reachable && r.Migrated
}
