package usecase

import (
	"errors"
	"fmt"
	"time"

	"github.com/startbuilds/excel-mysql-exporter/internal/export/entity"
)

const (
	DefaultChunkSize    = 1000
	DefaultReclaimEvery = 10
	DefaultPrefetch     = 1
)

// DefaultDateColumns are tried in order to find the date column of a sheet.
// The managed timestamp names are left out: a header using them is rejected
// before any date column is looked up.
var DefaultDateColumns = []string{
	"date_created",
	"date_added",
	"created",
	"date",
	"timestamp",
	"date_modified",
}

// SheetConfig maps one source sheet onto one destination table.
type SheetConfig struct {
	Name            string   `mapstructure:"name"`
	Table           string   `mapstructure:"table"`
	IdentityColumns []string `mapstructure:"identity_columns"`
	DateColumns     []string `mapstructure:"date_columns"`
}

// Config is built once at startup and shared read-only by every component.
type Config struct {
	Sheets       []SheetConfig
	ChunkSize    int
	ReclaimEvery int
	Prefetch     int
	DateColumns  []string
	Location     *time.Location
	Managed      entity.ManagedColumns
}

// WithDefaults fills unset fields.
func (c Config) WithDefaults() Config {
	if c.ChunkSize <= 0 {
		c.ChunkSize = DefaultChunkSize
	}
	if c.ReclaimEvery < 0 {
		c.ReclaimEvery = 0
	}
	if c.Prefetch < 0 {
		c.Prefetch = DefaultPrefetch
	}
	if len(c.DateColumns) == 0 {
		c.DateColumns = DefaultDateColumns
	}
	if c.Location == nil {
		c.Location = time.UTC
	}
	if c.Managed == (entity.ManagedColumns{}) {
		c.Managed = entity.DefaultManagedColumns()
	}
	return c
}

// Validate checks the sheet mapping.
func (c Config) Validate() error {
	if len(c.Sheets) == 0 {
		return errors.New("no sheets configured")
	}
	for i, s := range c.Sheets {
		if s.Name == "" {
			return fmt.Errorf("sheet %d: name is required", i)
		}
		if s.Table == "" {
			return fmt.Errorf("sheet %q: table is required", s.Name)
		}
	}
	return nil
}

func (c Config) dateColumnsFor(s SheetConfig) []string {
	if len(s.DateColumns) > 0 {
		return s.DateColumns
	}
	return c.DateColumns
}
