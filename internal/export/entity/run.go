package entity

type RunMeta struct {
	ID        string
	Mode      Mode
	Source    string
	Status    RunStatus
	Err       string
	StartedAt int64
	EndedAt   int64

	Result *ExportResult
}
