package entity

import "time"

// ExportEvent is one audit-worthy step of an export run.
type ExportEvent struct {
	EventID    string
	RunID      string
	Kind       EventKind
	At         time.Time
	Table      string
	Sheet      string
	Created    bool
	Batch      *BatchReport
	Checkpoint *Checkpoint
	Result     *ExportResult
	Err        string
}
