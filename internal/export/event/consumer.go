package event

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/startbuilds/excel-mysql-exporter/internal/export/entity"
	"github.com/startbuilds/excel-mysql-exporter/internal/pkg/pkglog"
)

type Handler interface {
	Name() string
	Handle(ctx context.Context, event entity.ExportEvent) error
}

type ConsumerConfig struct {
	// Workers above one lose the publish order of events.
	Workers     int
	MaxRetries  int
	BaseBackoff time.Duration
	// DedupWindow is how many recent event IDs are remembered.
	DedupWindow int
}

// Consumer drains the bus and hands every event to each handler, retrying a
// failing handler with exponential backoff. Redelivered event IDs are dropped.
type Consumer struct {
	bus         *Bus
	handlers    []Handler
	workers     int
	maxRetries  int
	baseBackoff time.Duration
	seen        *recentIDs
	wg          sync.WaitGroup
}

func NewConsumer(bus *Bus, cfg ConsumerConfig, handlers ...Handler) *Consumer {
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}

	maxRetries := cfg.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}

	baseBackoff := cfg.BaseBackoff
	if baseBackoff <= 0 {
		baseBackoff = 100 * time.Millisecond
	}

	return &Consumer{
		bus:         bus,
		handlers:    handlers,
		workers:     workers,
		maxRetries:  maxRetries,
		baseBackoff: baseBackoff,
		seen:        newRecentIDs(cfg.DedupWindow),
	}
}

func (c *Consumer) Start() {
	for i := 0; i < c.workers; i++ {
		c.wg.Add(1)
		go c.worker()
	}
}

// Stop closes the bus and waits for queued events to be handled.
func (c *Consumer) Stop(ctx context.Context) error {
	if c.bus != nil {
		c.bus.Close()
	}

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Consumer) worker() {
	defer c.wg.Done()

	for event := range c.bus.Subscribe() {
		c.processEvent(event)
	}
}

func (c *Consumer) processEvent(event entity.ExportEvent) {
	if event.EventID != "" && !c.seen.add(event.EventID) {
		slog.Info("skip duplicate export event", "event_id", event.EventID, "run_id", event.RunID)
		return
	}

	ctx := context.Background()
	if event.RunID != "" {
		ctx = pkglog.SetCorrelationID(ctx, event.RunID)
	}

	for _, h := range c.handlers {
		c.handle(ctx, h, event)
	}
}

func (c *Consumer) handle(ctx context.Context, h Handler, event entity.ExportEvent) {
	backoff := c.baseBackoff
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		err := h.Handle(ctx, event)
		if err == nil {
			return
		}

		if attempt == c.maxRetries {
			slog.ErrorContext(ctx, "failed to handle export event after retries",
				"handler", h.Name(), "event_id", event.EventID, "kind", event.Kind, "error", err)
			return
		}

		if !sleepBackoff(backoff) {
			return
		}
		backoff *= 2
	}
}

func sleepBackoff(d time.Duration) bool {
	if d <= 0 {
		return false
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	<-timer.C
	return true
}

const defaultDedupWindow = 4096

// recentIDs is a bounded set; the oldest ID is forgotten first.
type recentIDs struct {
	mu    sync.Mutex
	ids   map[string]struct{}
	order []string
	size  int
}

func newRecentIDs(size int) *recentIDs {
	if size <= 0 {
		size = defaultDedupWindow
	}
	return &recentIDs{ids: make(map[string]struct{}, size), size: size}
}

// add reports false when id was already present.
func (r *recentIDs) add(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.ids[id]; ok {
		return false
	}
	r.ids[id] = struct{}{}
	r.order = append(r.order, id)
	if len(r.order) > r.size {
		delete(r.ids, r.order[0])
		r.order = r.order[1:]
	}
	return true
}
