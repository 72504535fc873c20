package export

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/startbuilds/excel-mysql-exporter/internal/export/event"
	"github.com/startbuilds/excel-mysql-exporter/internal/export/inbound"
	"github.com/startbuilds/excel-mysql-exporter/internal/export/source"
	"github.com/startbuilds/excel-mysql-exporter/internal/export/store"
	"github.com/startbuilds/excel-mysql-exporter/internal/export/usecase"
	"github.com/startbuilds/excel-mysql-exporter/internal/pkg/pkgrouter"
	"github.com/startbuilds/excel-mysql-exporter/internal/pkg/pkgroutine"
	"github.com/startbuilds/excel-mysql-exporter/internal/pkg/pkguid"
)

type Dependency struct {
	Settings  Settings
	Goroutine *pkgroutine.Manager
	// Router is nil for one-shot CLI runs.
	Router    *pkgrouter.Router
	Context   context.Context
	ID        pkguid.StringID
	EventID   pkguid.StringID
	DB        *sql.DB
	Dialect   store.Dialect
	Audit     *slog.Logger
	Registry  *prometheus.Registry
	Reclaimer usecase.Reclaimer
}

type Module struct {
	Usecase  *usecase.Usecase
	Settings Settings

	consumer *event.Consumer
}

func New(dep Dependency) (*Module, error) {
	if dep.DB == nil {
		return nil, errors.New("export module needs a database")
	}
	if dep.ID == nil {
		dep.ID = pkguid.NewUUID()
	}
	if dep.EventID == nil {
		dep.EventID = dep.ID
	}
	if dep.Audit == nil {
		dep.Audit = slog.Default()
	}

	cfg := dep.Settings

	handlers := []event.Handler{event.NewAuditHandler(dep.Audit)}
	if dep.Registry != nil {
		handlers = append(handlers, event.NewMetricsHandler(dep.Registry))
	}

	bus := event.NewBus(cfg.EventBuffer)
	consumer := event.NewConsumer(bus, cfg.Events, handlers...)
	consumer.Start()

	var runner usecase.Runner
	if dep.Goroutine != nil {
		runner = dep.Goroutine
	}

	uc := usecase.New(usecase.Dependency{
		Config:      cfg.Usecase,
		Store:       store.NewSQLStore(dep.DB, dep.Dialect, cfg.SQL),
		Checkpoints: store.NewCheckpointStore(dep.DB, dep.Dialect, cfg.CheckpointTable),
		Runs:        store.NewInMemoryRunStore(cfg.RunRetention),
		Open:        source.Open,
		Observer:    event.NewPublisher(bus, dep.EventID),
		Runner:      runner,
		Reclaimer:   dep.Reclaimer,
		ID:          dep.ID,
		RootCtx:     dep.Context,
	})

	if dep.Router != nil {
		httpCfg := cfg.HTTP
		if dep.Registry != nil {
			httpCfg.Gatherer = dep.Registry
		}
		inbound.RegisterHTTPEndpoint(dep.Router, uc, httpCfg)
	}

	return &Module{Usecase: uc, Settings: cfg, consumer: consumer}, nil
}

// Close drains the event bus so every audit record of finished runs is written.
func (m *Module) Close(ctx context.Context) error {
	return m.consumer.Stop(ctx)
}
