package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/cors"

	"github.com/startbuilds/excel-mysql-exporter/internal/export"
	"github.com/startbuilds/excel-mysql-exporter/internal/export/store"
	"github.com/startbuilds/excel-mysql-exporter/internal/pkg/pkgconfig"
	"github.com/startbuilds/excel-mysql-exporter/internal/pkg/pkglog"
	"github.com/startbuilds/excel-mysql-exporter/internal/pkg/pkgmem"
	"github.com/startbuilds/excel-mysql-exporter/internal/pkg/pkgrouter"
	"github.com/startbuilds/excel-mysql-exporter/internal/pkg/pkgroutine"
	"github.com/startbuilds/excel-mysql-exporter/internal/pkg/pkguid"
)

func configPath(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if os.Getenv("LOCAL") == "true" {
		return "./config/config.yaml"
	}
	return "/config/config.yaml"
}

func (a *App) initConfig() error {
	cfg, err := pkgconfig.NewViper(configPath(a.opts.ConfigPath))
	if err != nil {
		return fmt.Errorf("init config: %w", err)
	}
	a.config = cfg
	a.addCloser("Config", func(context.Context) error {
		return cfg.Close()
	})

	if tz := cfg.GetString("tz"); tz != "" {
		//nolint:errcheck,gosec // ignore error
		os.Setenv("TZ", tz)
	}

	pkglog.InitLogging(cfg.GetString("app.name"), cfg.GetString("app.log_level"))

	settings, err := export.LoadSettings(cfg)
	if err != nil {
		return fmt.Errorf("init config: %w", err)
	}
	a.settings = settings

	return nil
}

func (a *App) initLibraries() error {
	a.goroutine = pkgroutine.NewManager(100)
	a.uuid = pkguid.NewUUID()
	a.reclaimer = pkgmem.NewReclaimer()

	sf, err := pkguid.NewSnowflake()
	if err != nil {
		return fmt.Errorf("init snowflake: %w", err)
	}
	a.eventID = sf.Strings()

	a.registry = prometheus.NewRegistry()
	a.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	audit, closer := pkglog.NewAuditLogger(a.config.GetString("app.name"), pkglog.AuditOptions{
		Path:       a.config.GetString("audit.path"),
		MaxSizeMB:  int(a.config.GetInt("audit.max_size_mb")),
		MaxBackups: int(a.config.GetInt("audit.max_backups")),
		MaxAgeDays: int(a.config.GetInt("audit.max_age_days")),
		Compress:   a.config.GetBool("audit.compress"),
	})
	a.audit = audit
	a.addCloser("Audit Log", func(context.Context) error {
		return closer.Close()
	})

	return nil
}

func (a *App) initDatabase() error {
	dialect, err := store.ParseDialect(a.config.GetString("database.driver"))
	if err != nil {
		return fmt.Errorf("init database: %w", err)
	}

	db, err := store.Open(a.ctx, dialect, a.config.GetString("database.dsn"))
	if err != nil {
		return fmt.Errorf("init database: %w", err)
	}

	slog.Info("connected to destination database", "driver", string(dialect))

	a.db = db
	a.dialect = dialect
	a.addCloser("Database", func(context.Context) error {
		return db.Close()
	})

	return nil
}

func (a *App) initHTTPServer() error {
	if !a.opts.Serve {
		return nil
	}

	a.router = pkgrouter.NewRouter(a.uuid)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodOptions,
		},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{pkgrouter.HeaderCorrelationID, pkgrouter.HeaderErrorCode},
	})

	a.httpServer = &http.Server{
		Addr:              a.config.GetString("server.address.http"),
		Handler:           corsHandler.Handler(a.router),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return nil
}
