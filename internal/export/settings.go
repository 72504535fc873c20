package export

import (
	"fmt"
	"time"

	"github.com/startbuilds/excel-mysql-exporter/internal/export/entity"
	"github.com/startbuilds/excel-mysql-exporter/internal/export/event"
	"github.com/startbuilds/excel-mysql-exporter/internal/export/inbound"
	"github.com/startbuilds/excel-mysql-exporter/internal/export/store"
	"github.com/startbuilds/excel-mysql-exporter/internal/export/usecase"
	"github.com/startbuilds/excel-mysql-exporter/internal/pkg/pkgconfig"
)

// Settings is everything the export module reads from configuration. It is
// loaded once; components receive the parts they need by value.
type Settings struct {
	Usecase         usecase.Config
	SQL             store.SQLConfig
	CheckpointTable string
	Events          event.ConsumerConfig
	EventBuffer     int
	RunRetention    int
	HTTP            inbound.HTTPConfig
	WatchDebounce   time.Duration
}

func LoadSettings(cfg pkgconfig.Config) (Settings, error) {
	var sheets []usecase.SheetConfig
	if err := cfg.Unmarshal("export.sheets", &sheets); err != nil {
		return Settings{}, fmt.Errorf("read export.sheets: %w", err)
	}

	loc := time.UTC
	if tz := cfg.GetString("tz"); tz != "" {
		l, err := time.LoadLocation(tz)
		if err != nil {
			return Settings{}, fmt.Errorf("load timezone %q: %w", tz, err)
		}
		loc = l
	}

	managed := entity.DefaultManagedColumns()
	if v := cfg.GetString("export.managed.id"); v != "" {
		managed.ID = v
	}
	if v := cfg.GetString("export.managed.created_at"); v != "" {
		managed.CreatedAt = v
	}
	if v := cfg.GetString("export.managed.updated_at"); v != "" {
		managed.UpdatedAt = v
	}

	uc := usecase.Config{
		Sheets:       sheets,
		ChunkSize:    int(cfg.GetInt("export.chunk_size")),
		ReclaimEvery: int(cfg.GetInt("export.reclaim_every")),
		Prefetch:     usecase.DefaultPrefetch,
		DateColumns:  cfg.GetArray("export.date_columns"),
		Location:     loc,
		Managed:      managed,
	}
	if cfg.IsSet("export.prefetch") {
		uc.Prefetch = int(cfg.GetInt("export.prefetch"))
	}
	if !cfg.IsSet("export.reclaim_every") {
		uc.ReclaimEvery = usecase.DefaultReclaimEvery
	}
	uc = uc.WithDefaults()
	if err := uc.Validate(); err != nil {
		return Settings{}, err
	}

	s := Settings{
		Usecase: uc,
		SQL: store.SQLConfig{
			Managed:        managed,
			UniqueIdentity: cfg.GetBool("database.unique_identity"),
			Timeout:        cfg.GetDuration("database.timeout"),
		},
		CheckpointTable: cfg.GetString("database.checkpoint_table"),
		Events: event.ConsumerConfig{
			Workers:     int(cfg.GetInt("events.workers")),
			MaxRetries:  int(cfg.GetInt("events.max_retries")),
			BaseBackoff: cfg.GetDuration("events.base_backoff"),
			DedupWindow: int(cfg.GetInt("events.dedup_window")),
		},
		EventBuffer:  int(cfg.GetInt("events.buffer")),
		RunRetention: int(cfg.GetInt("runs.retention")),
		HTTP: inbound.HTTPConfig{
			UploadDir:      cfg.GetString("server.upload_dir"),
			MaxUploadBytes: cfg.GetInt("server.max_upload_bytes"),
		},
		WatchDebounce: cfg.GetDuration("watch.debounce"),
	}

	if s.EventBuffer <= 0 {
		s.EventBuffer = 512
	}
	if s.Events.Workers <= 0 {
		s.Events.Workers = 1
	}

	return s, nil
}
