package event

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/startbuilds/excel-mysql-exporter/internal/export/entity"
)

const namespace = "exporter"

// MetricsHandler keeps Prometheus series for export events.
type MetricsHandler struct {
	rowsInserted   *prometheus.CounterVec
	rowsSkipped    *prometheus.CounterVec
	batches        *prometheus.CounterVec
	tablesCreated  *prometheus.CounterVec
	checkpoint     *prometheus.GaugeVec
	runs           *prometheus.CounterVec
	runDuration    *prometheus.HistogramVec
	lastRunSuccess *prometheus.GaugeVec
}

func NewMetricsHandler(reg prometheus.Registerer) *MetricsHandler {
	f := promauto.With(reg)
	return &MetricsHandler{
		rowsInserted: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_inserted_total",
			Help:      "Rows written to the destination store.",
		}, []string{"table"}),
		rowsSkipped: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_skipped_total",
			Help:      "Rows not written, by reason.",
		}, []string{"table", "reason"}),
		batches: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batches_total",
			Help:      "Batches written.",
		}, []string{"table"}),
		tablesCreated: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tables_created_total",
			Help:      "Destination tables created.",
		}, []string{"table"}),
		checkpoint: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "checkpoint_timestamp_seconds",
			Help:      "Last incremental run time per table.",
		}, []string{"table"}),
		runs: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Finished export runs.",
		}, []string{"mode", "status"}),
		runDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of export runs.",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 12),
		}, []string{"mode"}),
		lastRunSuccess: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_success",
			Help:      "1 when the last run of the mode succeeded.",
		}, []string{"mode"}),
	}
}

func (h *MetricsHandler) Name() string { return "metrics" }

func (h *MetricsHandler) Handle(_ context.Context, ev entity.ExportEvent) error {
	switch ev.Kind {
	case entity.EventTableEnsured:
		if ev.Created {
			h.tablesCreated.WithLabelValues(ev.Table).Inc()
		}
	case entity.EventBatchCompleted:
		if b := ev.Batch; b != nil {
			h.batches.WithLabelValues(b.Table).Inc()
			h.rowsInserted.WithLabelValues(b.Table).Add(float64(b.Inserted))
			h.rowsSkipped.WithLabelValues(b.Table, "duplicate").Add(float64(b.Duplicates))
			h.rowsSkipped.WithLabelValues(b.Table, "mismatch").Add(float64(b.Mismatched))
		}
	case entity.EventCheckpointAdvance:
		if cp := ev.Checkpoint; cp != nil {
			h.checkpoint.WithLabelValues(cp.Table).Set(float64(cp.LastRunAt.UnixMilli()) / 1000)
		}
	case entity.EventRunCompleted:
		if r := ev.Result; r != nil {
			status, success := "success", 1.0
			if !r.Success {
				status, success = "failed", 0
			}
			mode := string(r.Mode)
			h.runs.WithLabelValues(mode, status).Inc()
			h.runDuration.WithLabelValues(mode).Observe(r.Elapsed.Seconds())
			h.lastRunSuccess.WithLabelValues(mode).Set(success)
		}
	}
	return nil
}
