package logbuffer

import (
	"context"
	"errors"
	"sync"
	"time"

	"scanmate/feature/inventory"

	"go.uber.org/zap"
)

// Sink persists a batch of log entries. take is called with the sink's write
// lock held and returns the entries to persist.
type Sink interface {
	FlushLogs(ctx context.Context, take func() []inventory.LogEntry) (int, error)
}

// Buffer batches scan-generated log entries in memory and writes them to
// their mode's store periodically or on demand.
type Buffer struct {
	sinks    func(inventory.Mode) Sink
	interval time.Duration
	logger   *zap.Logger

	mu      sync.Mutex
	pending map[inventory.Mode][]inventory.LogEntry
	// gen counts discards per mode. A failed batch taken under an older
	// generation describes a dataset that is gone and is not requeued.
	gen map[inventory.Mode]uint64

	runMu  sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a buffer writing to the sink returned for each mode.
func New(sinks func(inventory.Mode) Sink, cfg Config, logger *zap.Logger) *Buffer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Buffer{
		sinks:    sinks,
		interval: cfg.Interval(),
		logger:   logger,
		pending:  make(map[inventory.Mode][]inventory.LogEntry),
		gen:      make(map[inventory.Mode]uint64),
	}
}

// ForRouter adapts a router to the buffer's sink lookup.
func ForRouter(r *inventory.Router) func(inventory.Mode) Sink {
	return func(m inventory.Mode) Sink { return r.Store(m) }
}

// AddLog queues an entry. It never touches disk.
func (b *Buffer) AddLog(e inventory.LogEntry) {
	b.mu.Lock()
	b.pending[e.Mode] = append(b.pending[e.Mode], e)
	b.mu.Unlock()
}

// Pending returns how many entries of mode are waiting.
func (b *Buffer) Pending(mode inventory.Mode) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending[mode])
}

// Len returns how many entries are waiting across all modes.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, entries := range b.pending {
		n += len(entries)
	}
	return n
}

// Flush drains mode's entries and writes them in one transaction.
// On failure the drained entries go back to the front of the queue unless
// the mode was dropped or cleared in the meantime.
func (b *Buffer) Flush(ctx context.Context, mode inventory.Mode) (int, error) {
	if b.Pending(mode) == 0 {
		return 0, nil
	}

	var (
		taken []inventory.LogEntry
		gen   uint64
	)
	n, err := b.sinks(mode).FlushLogs(ctx, func() []inventory.LogEntry {
		taken, gen = b.take(mode)
		return taken
	})
	if err != nil {
		b.requeue(mode, gen, taken)
		return 0, err
	}
	return n, nil
}

// FlushAll flushes every mode and joins the failures.
func (b *Buffer) FlushAll(ctx context.Context) error {
	var errs []error
	for _, mode := range inventory.Modes {
		n, err := b.Flush(ctx, mode)
		if err != nil {
			b.logger.Error("Log flush failed", zap.String("mode", string(mode)), zap.Error(err))
			errs = append(errs, err)
			continue
		}
		if n > 0 {
			b.logger.Debug("Flushed logs", zap.String("mode", string(mode)), zap.Int("count", n))
		}
	}
	return errors.Join(errs...)
}

// Clear discards every buffered entry.
func (b *Buffer) Clear() {
	b.mu.Lock()
	b.pending = make(map[inventory.Mode][]inventory.LogEntry)
	for _, mode := range inventory.Modes {
		b.gen[mode]++
	}
	b.mu.Unlock()
}

// DropMode discards mode's buffered entries. Called after the mode's dataset
// was replaced, when the entries no longer describe any stored item.
func (b *Buffer) DropMode(mode inventory.Mode) {
	b.mu.Lock()
	dropped := len(b.pending[mode])
	delete(b.pending, mode)
	b.gen[mode]++
	b.mu.Unlock()

	if dropped > 0 {
		b.logger.Info("Dropped buffered logs", zap.String("mode", string(mode)), zap.Int("count", dropped))
	}
}

// Start launches the periodic flush. Calling it again while running is a no-op.
func (b *Buffer) Start(ctx context.Context) {
	b.runMu.Lock()
	defer b.runMu.Unlock()
	if b.done != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	b.cancel = cancel
	b.done = make(chan struct{})
	go b.run(ctx, b.done)
}

// Stop halts the periodic flush and writes whatever is still buffered.
func (b *Buffer) Stop(ctx context.Context) error {
	b.runMu.Lock()
	if b.done != nil {
		b.cancel()
		<-b.done
		b.done = nil
		b.cancel = nil
	}
	b.runMu.Unlock()

	return b.FlushAll(ctx)
}

func (b *Buffer) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = b.FlushAll(ctx)
		}
	}
}

func (b *Buffer) take(mode inventory.Mode) ([]inventory.LogEntry, uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	entries := b.pending[mode]
	delete(b.pending, mode)
	return entries, b.gen[mode]
}

func (b *Buffer) requeue(mode inventory.Mode, gen uint64, entries []inventory.LogEntry) {
	if len(entries) == 0 {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.gen[mode] != gen {
		b.logger.Info("Discarded failed batch of a replaced dataset",
			zap.String("mode", string(mode)), zap.Int("count", len(entries)))
		return
	}
	b.pending[mode] = append(entries, b.pending[mode]...)
}
