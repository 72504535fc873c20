package event

import (
	"context"
	"log/slog"

	"github.com/startbuilds/excel-mysql-exporter/internal/export/entity"
)

// AuditHandler writes one structured record per event to the audit log.
type AuditHandler struct {
	logger *slog.Logger
}

func NewAuditHandler(logger *slog.Logger) *AuditHandler {
	return &AuditHandler{logger: logger}
}

func (h *AuditHandler) Name() string { return "audit" }

// Handle goes straight to the slog handler so write failures reach the
// consumer and get retried.
func (h *AuditHandler) Handle(ctx context.Context, ev entity.ExportEvent) error {
	level := slog.LevelInfo
	switch {
	case ev.Kind == entity.EventRunFailed:
		level = slog.LevelError
	case ev.Batch != nil && ev.Batch.Skipped() > 0:
		level = slog.LevelWarn
	}

	handler := h.logger.Handler()
	if !handler.Enabled(ctx, level) {
		return nil
	}

	record := slog.NewRecord(ev.At, level, string(ev.Kind), 0)
	record.AddAttrs(auditAttrs(ev)...)
	return handler.Handle(ctx, record)
}

func auditAttrs(ev entity.ExportEvent) []slog.Attr {
	attrs := []slog.Attr{
		slog.String("event_id", ev.EventID),
		slog.String("run_id", ev.RunID),
	}
	if ev.Table != "" {
		attrs = append(attrs, slog.String("table", ev.Table))
	}
	if ev.Sheet != "" {
		attrs = append(attrs, slog.String("sheet", ev.Sheet))
	}

	switch ev.Kind {
	case entity.EventTableEnsured:
		attrs = append(attrs, slog.Bool("created", ev.Created))
	case entity.EventBatchCompleted:
		if b := ev.Batch; b != nil {
			attrs = append(attrs, slog.Group("batch",
				slog.Int("index", b.Index),
				slog.Int("total", b.Total),
				slog.Int("first_row", b.FirstRow),
				slog.Int("last_row", b.LastRow),
				slog.Int("inserted", b.Inserted),
				slog.Int("duplicates", b.Duplicates),
				slog.Int("mismatched", b.Mismatched),
			))
		}
	case entity.EventCheckpointAdvance:
		if cp := ev.Checkpoint; cp != nil {
			attrs = append(attrs, slog.Time("last_run_at", cp.LastRunAt))
		}
	case entity.EventRunCompleted:
		if r := ev.Result; r != nil {
			attrs = append(attrs,
				slog.String("mode", string(r.Mode)),
				slog.String("source", r.Source),
				slog.Bool("success", r.Success),
				slog.Int("rows_inserted", r.RowsInserted),
				slog.Int("rows_skipped", r.RowsSkipped),
				slog.Int("rows_unparseable", unparseable(r.Sheets)),
				slog.Duration("elapsed", r.Elapsed),
				slog.Any("sheets", sheetSummaries(r.Sheets)),
			)
		}
	}

	if ev.Err != "" {
		attrs = append(attrs, slog.String("error", ev.Err))
	}
	return attrs
}

type sheetSummary struct {
	Sheet       string `json:"sheet"`
	Table       string `json:"table"`
	Inserted    int    `json:"inserted"`
	Duplicates  int    `json:"duplicates"`
	Mismatched  int    `json:"mismatched"`
	Unparseable int    `json:"unparseable"`
	FullScan    bool   `json:"full_scan"`
}

func sheetSummaries(sheets []entity.SheetResult) []sheetSummary {
	out := make([]sheetSummary, len(sheets))
	for i, s := range sheets {
		out[i] = sheetSummary{
			Sheet:       s.Sheet,
			Table:       s.Table,
			Inserted:    s.Inserted,
			Duplicates:  s.Duplicates,
			Mismatched:  s.Mismatched,
			Unparseable: s.Unparseable,
			FullScan:    s.FullScan,
		}
	}
	return out
}

func unparseable(sheets []entity.SheetResult) int {
	n := 0
	for _, s := range sheets {
		n += s.Unparseable
	}
	return n
}
