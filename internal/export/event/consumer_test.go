package event

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/startbuilds/excel-mysql-exporter/internal/export/entity"
	"github.com/startbuilds/excel-mysql-exporter/internal/pkg/pkglog"
)

type handlerFunc struct {
	name string
	fn   func(ctx context.Context, event entity.ExportEvent) error
}

func (h handlerFunc) Name() string { return h.name }

func (h handlerFunc) Handle(ctx context.Context, event entity.ExportEvent) error {
	return h.fn(ctx, event)
}

func TestConsumerRetriesAndIdempotent(t *testing.T) {
	bus := NewBus(10)

	var attempts int32
	done := make(chan struct{})
	flaky := handlerFunc{name: "flaky", fn: func(ctx context.Context, event entity.ExportEvent) error {
		n := atomic.AddInt32(&attempts, 1)
		if n < 3 {
			return errors.New("temporary failure")
		}
		select {
		case <-done:
		default:
			close(done)
		}
		return nil
	}}

	consumer := NewConsumer(bus, ConsumerConfig{
		Workers:     1,
		MaxRetries:  2,
		BaseBackoff: time.Millisecond,
	}, flaky)
	consumer.Start()

	event := entity.ExportEvent{EventID: "evt-1", RunID: "run-1", Kind: entity.EventBatchCompleted}
	if err := bus.Publish(context.Background(), event); err != nil {
		t.Fatalf("publish event: %v", err)
	}
	if err := bus.Publish(context.Background(), event); err != nil {
		t.Fatalf("publish duplicate: %v", err)
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for handler")
	}

	if err := consumer.Stop(context.Background()); err != nil {
		t.Fatalf("stop consumer: %v", err)
	}

	if got := atomic.LoadInt32(&attempts); got != 3 {
		t.Fatalf("expected 3 attempts, got %d", got)
	}
}

func TestConsumerKeepsOrderAndCorrelation(t *testing.T) {
	bus := NewBus(10)

	var mu sync.Mutex
	var kinds []entity.EventKind
	var cids []string
	failing := handlerFunc{name: "failing", fn: func(context.Context, entity.ExportEvent) error {
		return errors.New("always")
	}}
	recorder := handlerFunc{name: "recorder", fn: func(ctx context.Context, event entity.ExportEvent) error {
		mu.Lock()
		defer mu.Unlock()
		kinds = append(kinds, event.Kind)
		cids = append(cids, pkglog.GetCorrelationID(ctx))
		return nil
	}}

	consumer := NewConsumer(bus, ConsumerConfig{MaxRetries: 0}, failing, recorder)
	consumer.Start()

	for i, kind := range []entity.EventKind{entity.EventTableEnsured, entity.EventBatchCompleted, entity.EventRunCompleted} {
		ev := entity.ExportEvent{EventID: string(rune('a' + i)), RunID: "run-7", Kind: kind}
		if err := bus.Publish(context.Background(), ev); err != nil {
			t.Fatalf("publish: %v", err)
		}
	}

	if err := consumer.Stop(context.Background()); err != nil {
		t.Fatalf("stop consumer: %v", err)
	}

	want := []entity.EventKind{entity.EventTableEnsured, entity.EventBatchCompleted, entity.EventRunCompleted}
	if len(kinds) != len(want) {
		t.Fatalf("kinds = %v, want %v", kinds, want)
	}
	for i := range want {
		if kinds[i] != want[i] || cids[i] != "run-7" {
			t.Fatalf("event %d = %s/%s, want %s/run-7", i, kinds[i], cids[i], want[i])
		}
	}
}

func TestBusClosed(t *testing.T) {
	bus := NewBus(1)
	bus.Close()
	bus.Close()

	if err := bus.Publish(context.Background(), entity.ExportEvent{}); !errors.Is(err, ErrBusClosed) {
		t.Fatalf("Publish() err = %v, want ErrBusClosed", err)
	}
}

func TestRecentIDsWindow(t *testing.T) {
	r := newRecentIDs(2)
	if !r.add("a") || !r.add("b") {
		t.Fatal("fresh ids rejected")
	}
	if r.add("b") {
		t.Fatal("duplicate id accepted")
	}
	r.add("c")
	if !r.add("a") {
		t.Fatal("evicted id still remembered")
	}
}
