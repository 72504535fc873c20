package inbound

import (
	"net/http"

	"github.com/startbuilds/excel-mysql-exporter/internal/export/entity"
)

type SubmitResponse struct {
	RunID  string           `json:"run_id"`
	Status entity.RunStatus `json:"status"`
}

func (SubmitResponse) StatusCode() int {
	return http.StatusAccepted
}

func (SubmitResponse) Message() string {
	return "export accepted"
}

type RunResponse struct {
	RunID     string           `json:"run_id"`
	Mode      entity.Mode      `json:"mode"`
	Status    entity.RunStatus `json:"status"`
	Error     string           `json:"error,omitempty"`
	StartedAt int64            `json:"started_at,omitempty"`
	EndedAt   int64            `json:"ended_at,omitempty"`
	Result    *ResultView      `json:"result,omitempty"`
}

type SheetView struct {
	Sheet       string `json:"sheet" yaml:"sheet"`
	Table       string `json:"table" yaml:"table"`
	Inserted    int    `json:"inserted" yaml:"inserted"`
	Duplicates  int    `json:"duplicates" yaml:"duplicates"`
	Mismatched  int    `json:"mismatched" yaml:"mismatched"`
	Unparseable int    `json:"unparseable_dates" yaml:"unparseable_dates"`
	FullScan    bool   `json:"full_scan" yaml:"full_scan"`
	Records     int64  `json:"records" yaml:"records"`
}

// ResultView is the wire and console form of an entity.ExportResult.
type ResultView struct {
	RunID        string      `json:"run_id" yaml:"run_id"`
	Mode         entity.Mode `json:"mode" yaml:"mode"`
	Source       string      `json:"source" yaml:"source"`
	Success      bool        `json:"success" yaml:"success"`
	RowsInserted int         `json:"rows_inserted" yaml:"rows_inserted"`
	RowsSkipped  int         `json:"rows_skipped" yaml:"rows_skipped"`
	ElapsedMS    int64       `json:"elapsed_ms" yaml:"elapsed_ms"`
	Error        string      `json:"error,omitempty" yaml:"error,omitempty"`
	Sheets       []SheetView `json:"sheets" yaml:"sheets"`
}

func NewResultView(r entity.ExportResult) ResultView {
	view := ResultView{
		RunID:        r.RunID,
		Mode:         r.Mode,
		Source:       r.Source,
		Success:      r.Success,
		RowsInserted: r.RowsInserted,
		RowsSkipped:  r.RowsSkipped,
		ElapsedMS:    r.Elapsed.Milliseconds(),
		Error:        r.Error(),
		Sheets:       make([]SheetView, 0, len(r.Sheets)),
	}
	for _, s := range r.Sheets {
		view.Sheets = append(view.Sheets, SheetView{
			Sheet:       s.Sheet,
			Table:       s.Table,
			Inserted:    s.Inserted,
			Duplicates:  s.Duplicates,
			Mismatched:  s.Mismatched,
			Unparseable: s.Unparseable,
			FullScan:    s.FullScan,
			Records:     s.Records,
		})
	}
	return view
}
