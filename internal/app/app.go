package app

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/startbuilds/excel-mysql-exporter/internal/export"
	"github.com/startbuilds/excel-mysql-exporter/internal/export/store"
	"github.com/startbuilds/excel-mysql-exporter/internal/pkg/pkgconfig"
	"github.com/startbuilds/excel-mysql-exporter/internal/pkg/pkglog"
	"github.com/startbuilds/excel-mysql-exporter/internal/pkg/pkgmem"
	"github.com/startbuilds/excel-mysql-exporter/internal/pkg/pkgrouter"
	"github.com/startbuilds/excel-mysql-exporter/internal/pkg/pkgroutine"
	"github.com/startbuilds/excel-mysql-exporter/internal/pkg/pkguid"
)

type Options struct {
	// ConfigPath overrides the default config file location.
	ConfigPath string
	// Serve builds the HTTP server; one-shot commands leave it off.
	Serve bool
}

type App struct {
	ctx    context.Context
	cancel context.CancelFunc
	opts   Options

	// configuration
	config   pkgconfig.Config
	settings export.Settings

	// libraries
	uuid      pkguid.StringID
	eventID   pkguid.StringID
	goroutine *pkgroutine.Manager
	reclaimer *pkgmem.Reclaimer
	registry  *prometheus.Registry
	audit     *slog.Logger

	// resources
	db      *sql.DB
	dialect store.Dialect

	// server
	router     *pkgrouter.Router
	httpServer *http.Server

	// modules
	export *export.Module

	// closed in reverse order of registration
	closers []namedCloser
}

type namedCloser struct {
	name string
	fn   func(context.Context) error
}

func New(ctx context.Context, opts Options) (*App, error) {
	pkglog.InitLogging(pkglog.DefaultService, "info")

	ctx, cancel := context.WithCancel(ctx)
	app := &App{
		ctx:    ctx,
		cancel: cancel,
		opts:   opts,
	}

	steps := []func() error{
		app.initConfig,
		app.initLibraries,
		app.initDatabase,
		app.initHTTPServer,
		app.initModules,
	}
	for _, step := range steps {
		if err := step(); err != nil {
			app.Close(context.WithoutCancel(ctx))
			return nil, err
		}
	}

	return app, nil
}

func (a *App) addCloser(name string, fn func(context.Context) error) {
	a.closers = append(a.closers, namedCloser{name: name, fn: fn})
}

// Close releases everything New acquired. It is safe to call more than once.
func (a *App) Close(ctx context.Context) {
	if a.cancel != nil {
		a.cancel()
	}

	for i := len(a.closers) - 1; i >= 0; i-- {
		c := a.closers[i]
		if err := c.fn(ctx); err != nil {
			slog.ErrorContext(ctx, "failed to close resources", "name", c.name, "error", err)
		}
	}
	a.closers = nil
}
