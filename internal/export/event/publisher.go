package event

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/startbuilds/excel-mysql-exporter/internal/export/entity"
	"github.com/startbuilds/excel-mysql-exporter/internal/pkg/pkglog"
	"github.com/startbuilds/excel-mysql-exporter/internal/pkg/pkguid"
)

const defaultPublishTimeout = 5 * time.Second

// Publisher turns export progress callbacks into events on a bus. The run
// ID is read from the correlation ID of the callback context.
type Publisher struct {
	bus     *Bus
	id      pkguid.StringID
	now     func() time.Time
	timeout time.Duration
}

func NewPublisher(bus *Bus, id pkguid.StringID) *Publisher {
	return &Publisher{bus: bus, id: id, now: time.Now, timeout: defaultPublishTimeout}
}

func (p *Publisher) OnTableEnsured(ctx context.Context, schema entity.TableSchema, created bool) {
	p.publish(ctx, entity.ExportEvent{
		Kind:    entity.EventTableEnsured,
		Table:   schema.Table,
		Created: created,
	})
}

func (p *Publisher) OnBatchComplete(ctx context.Context, report entity.BatchReport) {
	p.publish(ctx, entity.ExportEvent{
		Kind:  entity.EventBatchCompleted,
		Table: report.Table,
		Sheet: report.Sheet,
		Batch: &report,
	})
}

func (p *Publisher) OnCheckpointAdvance(ctx context.Context, cp entity.Checkpoint) {
	p.publish(ctx, entity.ExportEvent{
		Kind:       entity.EventCheckpointAdvance,
		Table:      cp.Table,
		Checkpoint: &cp,
	})
}

func (p *Publisher) OnError(ctx context.Context, err error) {
	ev := entity.ExportEvent{Kind: entity.EventRunFailed, Err: err.Error()}
	var perr *entity.Error
	if errors.As(err, &perr) {
		ev.Table, ev.Sheet = perr.Table, perr.Sheet
	}
	p.publish(ctx, ev)
}

func (p *Publisher) OnRunComplete(ctx context.Context, result entity.ExportResult) {
	p.publish(ctx, entity.ExportEvent{
		RunID:  result.RunID,
		Kind:   entity.EventRunCompleted,
		Result: &result,
		Err:    result.Error(),
	})
}

func (p *Publisher) publish(ctx context.Context, ev entity.ExportEvent) {
	ev.EventID = p.id.Generate()
	ev.At = p.now()
	if runID, ok := pkglog.CorrelationID(ctx); ok {
		ev.RunID = runID
	}

	// A canceled run still reports how it ended.
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.timeout)
	defer cancel()

	if err := p.bus.Publish(pctx, ev); err != nil {
		slog.WarnContext(ctx, "failed to publish export event", "event_id", ev.EventID, "kind", ev.Kind, "error", err)
	}
}
