package entity

type Mode string

const (
	ModeFull        Mode = "full"
	ModeIncremental Mode = "incremental"
)

func (m Mode) Valid() bool {
	return m == ModeFull || m == ModeIncremental
}

type RunStatus string

const (
	RunStatusQueued  RunStatus = "QUEUED"
	RunStatusRunning RunStatus = "RUNNING"
	RunStatusDone    RunStatus = "DONE"
	RunStatusFailed  RunStatus = "FAILED"
)

type EventKind string

const (
	EventTableEnsured      EventKind = "TABLE_ENSURED"
	EventBatchCompleted    EventKind = "BATCH_COMPLETED"
	EventCheckpointAdvance EventKind = "CHECKPOINT_ADVANCED"
	EventRunFailed         EventKind = "RUN_FAILED"
	EventRunCompleted      EventKind = "RUN_COMPLETED"
)
