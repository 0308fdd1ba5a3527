package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"scanmate/core/logger"
	"scanmate/core/reconcile"
	"scanmate/feature/archive"
	"scanmate/feature/exporter"
	"scanmate/feature/importer"
	"scanmate/feature/inventory"
	"scanmate/feature/logbuffer"
	"scanmate/feature/remote"
	"scanmate/feature/sales"
	"scanmate/feature/scanning"

	"go.uber.org/zap"
)

var (
	// ErrArchiveDisabled is returned by archive operations when storage is off.
	ErrArchiveDisabled = errors.New("archive is disabled")
	// ErrSalesDisabled is returned by sale lookups when no sales store is open.
	ErrSalesDisabled = errors.New("sales lookup is disabled")
)

// Import kinds accepted by Import.
const (
	ImportSpreadsheet = "spreadsheet"
	ImportJSON        = "json"
	ImportStore       = "store"
)

// Archive lists archived artifacts.
type Archive interface {
	List(ctx context.Context, mode inventory.Mode, kind string) ([]archive.Object, error)
}

// Deps are the components a session drives. Syncer, Archive and Sales may be nil.
type Deps struct {
	Router   *inventory.Router
	Pipeline *scanning.Pipeline
	Buffer   *logbuffer.Buffer
	Loader   *importer.Loader
	Exporter *exporter.Exporter
	Syncer   *remote.Syncer
	Archive  Archive
	Sales    *sales.Store
	Remote   remote.Config
}

// LastScan is the most recent pipeline outcome.
type LastScan struct {
	Outcome   scanning.Outcome `json:"outcome"`
	Barcode   string           `json:"barcode"`
	Item      *inventory.Item  `json:"item,omitempty"`
	Error     string           `json:"error,omitempty"`
	Processed time.Time        `json:"processed"`
}

// Status is a snapshot of the device session.
type Status struct {
	Mode        inventory.Mode    `json:"mode"`
	Container   *string           `json:"container,omitempty"`
	Counters    scanning.Counters `json:"counters"`
	PendingLogs int               `json:"pendingLogs"`
	Last        *LastScan         `json:"last,omitempty"`
}

// Service is the device-facing facade over one handheld's engine.
type Service struct {
	Deps
	logger *zap.Logger

	mu   sync.RWMutex
	last *LastScan

	runMu  sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewService creates a session service.
func NewService(deps Deps, l *zap.Logger) *Service {
	if l == nil {
		l = zap.NewNop()
	}
	return &Service{Deps: deps, logger: l}
}

// Start runs the scan pipeline, the log flusher and the last-scan watcher.
func (s *Service) Start(ctx context.Context) {
	s.runMu.Lock()
	defer s.runMu.Unlock()
	if s.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	events, unsubscribe := s.Pipeline.Events().Subscribe(64)
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer unsubscribe()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-events:
				if !ok {
					return
				}
				s.record(ev)
			}
		}
	}()

	s.cancel, s.done = cancel, done
	s.Buffer.Start(ctx)
	s.Pipeline.Start(ctx)
}

// Stop halts intake first, then flushes what the buffer still holds.
func (s *Service) Stop(ctx context.Context) error {
	s.runMu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.runMu.Unlock()
	if cancel == nil {
		return nil
	}

	s.Pipeline.Stop()
	err := s.Buffer.Stop(ctx)
	cancel()
	<-done
	return err
}

func (s *Service) record(ev scanning.ItemChanged) {
	last := &LastScan{Outcome: ev.Outcome, Barcode: ev.Barcode, Processed: time.Now().UTC()}
	if ev.Outcome != scanning.OutcomeDiscarded && ev.Outcome != scanning.OutcomeFailed {
		it := ev.Item
		last.Item = &it
	}
	if ev.Err != nil {
		last.Error = ev.Err.Error()
	}
	s.mu.Lock()
	s.last = last
	s.mu.Unlock()
}

// Scan queues raw reads and returns how many were accepted.
func (s *Service) Scan(barcodes ...string) int {
	n := 0
	for _, b := range barcodes {
		if s.Pipeline.Enqueue(b) {
			n++
		}
	}
	return n
}

// SetMode switches routing for scans not yet dequeued.
func (s *Service) SetMode(mode inventory.Mode, container, section *string) error {
	if !mode.Valid() {
		return &inventory.ValidationError{Op: "set mode", Err: fmt.Errorf("unknown mode %q", mode)}
	}
	s.Pipeline.SetMode(mode, container)
	s.Pipeline.SetSection(section)
	logger.ForMode(s.logger, string(mode)).Info("Scan mode changed")
	return nil
}

// Status returns the current routing, counters and last scan.
func (s *Service) Status() Status {
	mode, container := s.Pipeline.Mode()
	s.mu.RLock()
	last := s.last
	s.mu.RUnlock()
	return Status{
		Mode:        mode,
		Container:   container,
		Counters:    s.Pipeline.Counters(),
		PendingLogs: s.Buffer.Len(),
		Last:        last,
	}
}

// SetScanned is the operator's manual count correction.
func (s *Service) SetScanned(ctx context.Context, mode inventory.Mode, barcode string, container *string, value float64, section *string) (inventory.Item, error) {
	if !mode.Valid() {
		return inventory.Item{}, &inventory.ValidationError{Op: "set scanned quantity", Err: fmt.Errorf("unknown mode %q", mode)}
	}
	return s.Router.Store(mode).SetScannedQuantity(ctx, barcode, container, value, section, s.Buffer.AddLog)
}

// Import replaces a mode's dataset from r. sheet only applies to spreadsheets.
func (s *Service) Import(ctx context.Context, mode inventory.Mode, kind string, r io.Reader, sheet string) (importer.Result, error) {
	switch kind {
	case ImportSpreadsheet:
		return s.Loader.ReplaceDataset(ctx, mode, importer.Spreadsheet(r).Sheet(sheet))
	case ImportJSON:
		return s.Loader.ReplaceDataset(ctx, mode, importer.JSON(r))
	case ImportStore:
		return s.Loader.ReplaceStoreFile(ctx, mode, r)
	}
	return importer.Result{}, &inventory.ValidationError{Op: "import", Err: fmt.Errorf("unknown import kind %q", kind)}
}

// Export serializes a mode's dataset or logs.
func (s *Service) Export(ctx context.Context, mode inventory.Mode, kind exporter.Kind, format exporter.Format) (exporter.Artifact, error) {
	return s.Exporter.Export(ctx, mode, kind, format, nil)
}

// Stats aggregates a mode's counts.
func (s *Service) Stats(ctx context.Context, mode inventory.Mode) (inventory.Stats, error) {
	return s.Router.Store(mode).Stats(ctx)
}

// Recent returns the most recently updated items.
func (s *Service) Recent(ctx context.Context, mode inventory.Mode, limit int) ([]inventory.Item, error) {
	return s.Router.Store(mode).Recent(ctx, limit)
}

// Containers lists the Loots boxes.
func (s *Service) Containers(ctx context.Context) ([]string, error) {
	return s.Router.Store(inventory.ModeLoots).Containers(ctx)
}

// History flushes buffered entries and returns one barcode's logs.
func (s *Service) History(ctx context.Context, mode inventory.Mode, barcode string, container *string) ([]inventory.LogEntry, error) {
	if _, err := s.Buffer.Flush(ctx, mode); err != nil {
		return nil, err
	}
	return s.Router.Store(mode).LogsFor(ctx, barcode, container)
}

// Audit compares counts with the ledger and optionally realigns drift.
func (s *Service) Audit(ctx context.Context, mode inventory.Mode, repair bool) (*reconcile.ReconcilePlan, int, error) {
	spec := &reconcile.Spec{Adapter: reconcile.NewStoreAdapter(s.Router.Store(mode), s.Buffer)}
	opts := reconcile.ReconcileOptions{DoRepair: repair, Confirmed: repair}
	plan, executed, err := reconcile.ReconcileAndApply(ctx, spec, opts)
	if err != nil {
		return nil, 0, err
	}
	if executed > 0 {
		logger.ForMode(s.logger, string(mode)).Warn("Realigned drifted counts", zap.Int("items", executed))
	}
	return plan, executed, nil
}

// Employees lists the employees of a remote session.
func (s *Service) Employees(ctx context.Context, session int) ([]remote.Employee, error) {
	if s.Syncer == nil {
		return nil, remote.ErrNotConfigured
	}
	return s.Syncer.Employees(ctx, s.session(session))
}

// Download replaces a mode's dataset with the remote session's rows.
func (s *Service) Download(ctx context.Context, mode inventory.Mode, session, employee int) (importer.Result, error) {
	if s.Syncer == nil {
		return importer.Result{}, remote.ErrNotConfigured
	}
	return s.Syncer.ImportFromRemote(ctx, mode, s.session(session), s.employee(employee))
}

// Upload submits a mode's counts and logs to the remote session.
func (s *Service) Upload(ctx context.Context, mode inventory.Mode, session, employee int) (remote.UploadResult, error) {
	if s.Syncer == nil {
		return remote.UploadResult{}, remote.ErrNotConfigured
	}
	return s.Syncer.Upload(ctx, mode, s.session(session), s.employee(employee))
}

// Archives lists archived artifacts of a kind.
func (s *Service) Archives(ctx context.Context, mode inventory.Mode, kind string) ([]archive.Object, error) {
	if s.Archive == nil {
		return nil, ErrArchiveDisabled
	}
	return s.Archive.List(ctx, mode, kind)
}

// Sale looks up the sale price of a barcode.
func (s *Service) Sale(ctx context.Context, barcode string) (sales.Sale, error) {
	if s.Sales == nil {
		return sales.Sale{}, ErrSalesDisabled
	}
	return s.Sales.Get(ctx, barcode)
}

// ImportSales replaces the sales table from a workbook.
func (s *Service) ImportSales(ctx context.Context, r io.Reader, sheet string) (sales.Result, error) {
	if s.Sales == nil {
		return sales.Result{}, ErrSalesDisabled
	}
	return s.Sales.Import(ctx, r, sheet)
}

func (s *Service) session(id int) int {
	if id == 0 {
		return s.Remote.SessionID
	}
	return id
}

func (s *Service) employee(id int) int {
	if id == 0 {
		return s.Remote.EmployeeID
	}
	return id
}
