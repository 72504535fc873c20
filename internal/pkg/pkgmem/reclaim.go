package pkgmem

import (
	"context"
	"log/slog"
	"os"
	"runtime"
	"runtime/debug"

	"github.com/shirou/gopsutil/v3/process"
)

// Stats is a snapshot taken around a reclaim.
type Stats struct {
	HeapAlloc uint64
	RSS       uint64
}

// Reclaimer forces a collection and returns freed pages to the OS.
type Reclaimer struct {
	proc *process.Process
}

// NewReclaimer binds the reclaimer to the current process. RSS reporting is
// disabled when the process handle cannot be opened.
func NewReclaimer() *Reclaimer {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		slog.Warn("process stats unavailable", "error", err)
		return &Reclaimer{}
	}
	return &Reclaimer{proc: proc}
}

// Reclaim runs the collector and logs heap and RSS before and after.
func (r *Reclaimer) Reclaim(ctx context.Context) Stats {
	before := r.snapshot(ctx)

	runtime.GC()
	debug.FreeOSMemory()

	after := r.snapshot(ctx)
	slog.DebugContext(ctx, "memory reclaimed",
		"heap_before", before.HeapAlloc,
		"heap_after", after.HeapAlloc,
		"rss_before", before.RSS,
		"rss_after", after.RSS,
	)

	return after
}

func (r *Reclaimer) snapshot(ctx context.Context) Stats {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	stats := Stats{HeapAlloc: ms.HeapAlloc}
	if r == nil || r.proc == nil {
		return stats
	}

	info, err := r.proc.MemoryInfoWithContext(ctx)
	if err != nil {
		return stats
	}
	stats.RSS = info.RSS

	return stats
}
