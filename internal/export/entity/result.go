package entity

import "time"

type BatchReport struct {
	Sheet      string
	Table      string
	Index      int
	Total      int
	FirstRow   int
	LastRow    int
	Inserted   int
	Duplicates int
	Mismatched int
}

func (r BatchReport) Skipped() int {
	return r.Duplicates + r.Mismatched
}

type SheetResult struct {
	Sheet       string
	Table       string
	Inserted    int
	Duplicates  int
	Mismatched  int
	Unparseable int
	FullScan    bool
	Records     int64
}

func (r *SheetResult) Add(report BatchReport) {
	r.Inserted += report.Inserted
	r.Duplicates += report.Duplicates
	r.Mismatched += report.Mismatched
}

type ExportResult struct {
	RunID        string
	Mode         Mode
	Source       string
	Success      bool
	RowsInserted int
	RowsSkipped  int
	Elapsed      time.Duration
	Err          error
	Sheets       []SheetResult
}

// Tally recomputes the run totals from the per-sheet results.
func (r *ExportResult) Tally() {
	r.RowsInserted, r.RowsSkipped = 0, 0
	for _, s := range r.Sheets {
		r.RowsInserted += s.Inserted
		r.RowsSkipped += s.Duplicates + s.Mismatched
	}
}

func (r ExportResult) Error() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}
