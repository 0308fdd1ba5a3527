package scanning

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"scanmate/core/events"
	"scanmate/feature/inventory"

	"go.uber.org/zap"
)

// LogSink receives the log entries produced by applied scans.
type LogSink interface {
	AddLog(e inventory.LogEntry)
}

// Outcome is what happened to one dequeued scan.
type Outcome string

const (
	OutcomeIncremented Outcome = "incremented"
	OutcomeCreated     Outcome = "created"
	OutcomeDiscarded   Outcome = "discarded"
	OutcomeFailed      Outcome = "failed"
)

// ItemChanged is published after every processed scan.
type ItemChanged struct {
	Outcome Outcome
	Barcode string
	Item    inventory.Item
	Entry   *inventory.LogEntry
	Err     error
}

// Counters summarises the pipeline's work since construction.
type Counters struct {
	Processed   int64 `json:"processed"`
	Incremented int64 `json:"incremented"`
	Created     int64 `json:"created"`
	Discarded   int64 `json:"discarded"`
	Failed      int64 `json:"failed"`
	Queued      int   `json:"queued"`
}

type routing struct {
	mode      inventory.Mode
	container *string
	section   *string
}

// Pipeline turns raw scans into item mutations, one at a time, in arrival order.
type Pipeline struct {
	router  *inventory.Router
	logs    LogSink
	confirm Confirmer
	bus     *events.Bus[ItemChanged]
	logger  *zap.Logger
	timeout time.Duration

	routeMu sync.RWMutex
	route   routing

	runMu  sync.Mutex
	queue  *queue
	cancel context.CancelFunc
	done   chan struct{}

	processed, incremented, created, discarded, failed atomic.Int64
}

// New creates a pipeline routed to Standard mode. It accepts scans right away
// and processes them once started.
func New(router *inventory.Router, logs LogSink, confirm Confirmer, bus *events.Bus[ItemChanged], cfg Config, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	if confirm == nil {
		confirm = AutoConfirm(cfg.AutoCreate)
	}
	if bus == nil {
		bus = events.NewBus[ItemChanged]()
	}

	return &Pipeline{
		router:  router,
		logs:    logs,
		confirm: confirm,
		bus:     bus,
		logger:  logger,
		timeout: cfg.StopTimeout(),
		route:   routing{mode: inventory.ModeStandard},
		queue:   newQueue(),
	}
}

// Events returns the bus processed scans are published on.
func (p *Pipeline) Events() *events.Bus[ItemChanged] {
	return p.bus
}

// SetMode routes every scan dequeued from now on. A scan already being
// resolved keeps the routing it was dequeued with.
func (p *Pipeline) SetMode(mode inventory.Mode, container *string) {
	if !mode.Valid() {
		panic("scanning: unknown mode " + string(mode))
	}
	p.routeMu.Lock()
	p.route.mode = mode
	p.route.container = inventory.NormalizeContainer(container)
	p.routeMu.Unlock()
}

// SetSection sets the free-text section label logged with Standard scans.
func (p *Pipeline) SetSection(section *string) {
	p.routeMu.Lock()
	p.route.section = inventory.NormalizeContainer(section)
	p.routeMu.Unlock()
}

// Mode returns the current routing.
func (p *Pipeline) Mode() (inventory.Mode, *string) {
	p.routeMu.RLock()
	defer p.routeMu.RUnlock()
	return p.route.mode, p.route.container
}

func (p *Pipeline) routing() routing {
	p.routeMu.RLock()
	defer p.routeMu.RUnlock()
	return p.route
}

// Enqueue queues a raw read. It never blocks and reports false when the scan
// was dropped because the pipeline was stopped or the read is blank. Reads
// queued before Start are processed once it runs.
func (p *Pipeline) Enqueue(barcode string) bool {
	barcode = inventory.NormalizeBarcode(barcode)
	if barcode == "" {
		return false
	}

	p.runMu.Lock()
	q := p.queue
	p.runMu.Unlock()

	return q.enqueue(request{barcode: barcode, received: time.Now()})
}

// Start launches the consumer. If it is already running the existing run's
// done channel is returned and nothing else happens.
func (p *Pipeline) Start(ctx context.Context) <-chan struct{} {
	p.runMu.Lock()
	defer p.runMu.Unlock()

	if p.done != nil {
		return p.done
	}

	ctx, cancel := context.WithCancel(ctx)
	if p.queue.isClosed() {
		p.queue = newQueue()
	}
	p.cancel = cancel
	p.done = make(chan struct{})

	go p.run(ctx, p.queue, p.done)
	p.logger.Info("Scan pipeline started")
	return p.done
}

// Stop cancels the run, closes intake and waits a bounded time for the scan
// in flight. The in-flight scan is finished, never aborted mid-write, even
// when Stop returns before it completes. Requests still queued are dropped.
func (p *Pipeline) Stop() {
	p.runMu.Lock()
	if p.done == nil {
		p.runMu.Unlock()
		return
	}
	cancel, done, q := p.cancel, p.done, p.queue
	p.cancel, p.done = nil, nil
	p.runMu.Unlock()

	cancel()
	if dropped := q.close(); dropped > 0 {
		p.logger.Warn("Dropped queued scans on stop", zap.Int("count", dropped))
	}

	select {
	case <-done:
		p.logger.Info("Scan pipeline stopped")
	case <-time.After(p.timeout):
		p.logger.Warn("Scan pipeline stop timed out, in-flight scan continues", zap.Duration("timeout", p.timeout))
	}
}

// Counters returns the pipeline's running totals.
func (p *Pipeline) Counters() Counters {
	p.runMu.Lock()
	queued := p.queue.len()
	p.runMu.Unlock()

	return Counters{
		Processed:   p.processed.Load(),
		Incremented: p.incremented.Load(),
		Created:     p.created.Load(),
		Discarded:   p.discarded.Load(),
		Failed:      p.failed.Load(),
		Queued:      queued,
	}
}

func (p *Pipeline) run(ctx context.Context, q *queue, done chan struct{}) {
	defer close(done)

	for {
		if ctx.Err() != nil {
			return
		}
		if r, ok := q.tryDequeue(); ok {
			p.process(ctx, r, p.routing())
			continue
		}
		select {
		case <-ctx.Done():
			return
		case _, ok := <-q.wait():
			if !ok {
				return
			}
		}
	}
}

// process applies one scan. Failures are logged and swallowed so one bad
// read cannot stall the queue; there is no retry.
func (p *Pipeline) process(ctx context.Context, r request, rt routing) {
	// Writes use a context detached from Stop so an item is finished, not aborted.
	writeCtx := context.WithoutCancel(ctx)
	store := p.router.Store(rt.mode)
	l := p.logger.With(
		zap.String("barcode", r.barcode),
		zap.String("mode", string(rt.mode)),
	)

	var entry *inventory.LogEntry
	emit := func(e inventory.LogEntry) {
		p.logs.AddLog(e)
		entry = &e
	}

	p.processed.Add(1)

	it, err := store.Increment(writeCtx, r.barcode, rt.container, rt.section, emit)
	if err == nil {
		p.incremented.Add(1)
		p.publish(ItemChanged{Outcome: OutcomeIncremented, Barcode: r.barcode, Item: it, Entry: entry})
		return
	}
	if !errors.Is(err, inventory.ErrNotFound) {
		p.fail(l, r.barcode, err)
		return
	}

	if !p.confirm.ConfirmCreate(ctx, Prompt{Mode: rt.mode, Barcode: r.barcode, Container: rt.container}) {
		p.discarded.Add(1)
		l.Debug("Unknown barcode discarded")
		p.publish(ItemChanged{Outcome: OutcomeDiscarded, Barcode: r.barcode})
		return
	}

	it, created, err := store.CreateScanned(writeCtx, r.barcode, rt.container, rt.section, emit)
	if err != nil {
		p.fail(l, r.barcode, err)
		return
	}

	outcome := OutcomeIncremented
	if created {
		outcome = OutcomeCreated
		p.created.Add(1)
		l.Info("Created item from scan", zap.String("container", it.ContainerID))
	} else {
		p.incremented.Add(1)
	}
	p.publish(ItemChanged{Outcome: outcome, Barcode: r.barcode, Item: it, Entry: entry})
}

func (p *Pipeline) fail(l *zap.Logger, barcode string, err error) {
	p.failed.Add(1)
	l.Error("Scan failed", zap.Error(err))
	p.publish(ItemChanged{Outcome: OutcomeFailed, Barcode: barcode, Err: err})
}

func (p *Pipeline) publish(ev ItemChanged) {
	p.bus.Publish(ev)
}
