package entity

import "time"

// Checkpoint is the last successful incremental run for one destination table.
// A zero LastRunAt means no run has completed yet.
type Checkpoint struct {
	Table     string
	LastRunAt time.Time
}

// Advance returns the checkpoint moved to at, never moving it backwards.
func (c Checkpoint) Advance(at time.Time) Checkpoint {
	if at.After(c.LastRunAt) {
		c.LastRunAt = at
	}
	return c
}
