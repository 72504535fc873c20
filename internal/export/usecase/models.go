package usecase

import "github.com/startbuilds/excel-mysql-exporter/internal/export/entity"

// SubmitRequest queues an export of the workbook at Path.
type SubmitRequest struct {
	Mode entity.Mode
	Path string
	// Cleanup, when set, runs after the export finishes, e.g. to remove an
	// uploaded temporary file.
	Cleanup func()
}

type SubmitResult struct {
	RunID  string
	Status entity.RunStatus
}

type RunResult struct {
	RunID     string
	Mode      entity.Mode
	Status    entity.RunStatus
	Err       string
	StartedAt int64
	EndedAt   int64
	Result    *entity.ExportResult
}
