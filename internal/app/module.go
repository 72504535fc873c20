package app

import (
	"fmt"

	"github.com/startbuilds/excel-mysql-exporter/internal/export"
)

func (a *App) initModules() error {
	if a.config.IsSet("modules.export.enabled") && !a.config.GetBool("modules.export.enabled") {
		return nil
	}

	mod, err := export.New(export.Dependency{
		Settings:  a.settings,
		Goroutine: a.goroutine,
		Router:    a.router,
		Context:   a.ctx,
		ID:        a.uuid,
		EventID:   a.eventID,
		DB:        a.db,
		Dialect:   a.dialect,
		Audit:     a.audit,
		Registry:  a.registry,
		Reclaimer: a.reclaimer,
	})
	if err != nil {
		return fmt.Errorf("init module export: %w", err)
	}

	a.export = mod
	a.addCloser("Export", mod.Close)

	return nil
}
