package remote

import (
	"context"
	"fmt"

	"scanmate/feature/exporter"
	"scanmate/feature/importer"
	"scanmate/feature/inventory"

	"go.uber.org/zap"
)

// Service is the subset of Client used by Syncer.
type Service interface {
	Employees(ctx context.Context, session int) ([]Employee, error)
	Download(ctx context.Context, session, employee int) ([]importer.Row, error)
	Submit(ctx context.Context, session, employee int, payload UploadPayload) (UploadResult, error)
}

// LogFlusher writes buffered log entries of a mode to its store.
type LogFlusher interface {
	Flush(ctx context.Context, mode inventory.Mode) (int, error)
}

// Syncer moves a mode's dataset between the device and the service.
type Syncer struct {
	service Service
	router  *inventory.Router
	loader  *importer.Loader
	logs    LogFlusher
	logger  *zap.Logger
}

// NewSyncer creates a syncer. logs may be nil when no buffer is in use.
func NewSyncer(service Service, router *inventory.Router, loader *importer.Loader, logs LogFlusher, logger *zap.Logger) *Syncer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Syncer{service: service, router: router, loader: loader, logs: logs, logger: logger}
}

// Employees lists the employees of a session.
func (s *Syncer) Employees(ctx context.Context, session int) ([]Employee, error) {
	return s.service.Employees(ctx, session)
}

type remoteRows []importer.Row

func (remoteRows) Kind() string { return "remote" }

func (r remoteRows) Read() ([]importer.Row, error) { return r, nil }

// ImportFromRemote downloads a session's baseline and loads it like a JSON
// source. When the service has nothing to offer the store is left untouched
// and a zero result is returned without error.
func (s *Syncer) ImportFromRemote(ctx context.Context, mode inventory.Mode, session, employee int) (importer.Result, error) {
	rows, err := s.service.Download(ctx, session, employee)
	if err != nil {
		return importer.Result{Mode: mode, Source: "remote"}, err
	}
	if len(rows) == 0 {
		s.logger.Info("No session data to import",
			zap.String("mode", string(mode)), zap.Int("session", session), zap.Int("employee", employee))
		return importer.Result{Mode: mode, Source: "remote"}, nil
	}
	return s.loader.ReplaceDataset(ctx, mode, remoteRows(rows))
}

// BuildPayload collects every item of mode with its log history. In Loots
// mode a barcode present in several containers is reported once, with the
// counts summed and the logs of all containers in order.
func (s *Syncer) BuildPayload(ctx context.Context, mode inventory.Mode, session, employee int) (UploadPayload, error) {
	if s.logs != nil {
		if _, err := s.logs.Flush(ctx, mode); err != nil {
			return UploadPayload{}, fmt.Errorf("failed to flush %s logs before upload: %w", mode, err)
		}
	}

	store := s.router.Store(mode)
	payload := UploadPayload{BarcodeData: make(map[string]*UploadItem)}
	productIDs := make(map[string]int)

	err := store.EachItem(ctx, 500, func(items []inventory.Item) error {
		for _, it := range items {
			entry, ok := payload.BarcodeData[it.Barcode]
			if !ok {
				entry = &UploadItem{Logs: []UploadLog{}}
				payload.BarcodeData[it.Barcode] = entry
			}
			entry.CountedQty += it.ScannedQuantity
			if it.ProductID != 0 {
				productIDs[it.Barcode] = it.ProductID
			}
		}
		return nil
	})
	if err != nil {
		return UploadPayload{}, fmt.Errorf("failed to read %s items: %w", mode, err)
	}

	err = store.EachLog(ctx, 500, func(entries []inventory.LogEntry) error {
		for _, e := range entries {
			entry, ok := payload.BarcodeData[e.Barcode]
			if !ok {
				continue
			}
			productID := e.ProductID
			if productID == 0 {
				productID = productIDs[e.Barcode]
			}
			entry.Logs = append(entry.Logs, UploadLog{
				SessionID:   session,
				ProductID:   productID,
				Barcode:     e.Barcode,
				EmployeeID:  employee,
				PreviousQty: e.Previous,
				FinalQty:    e.Resulting,
				ScanQty:     e.Delta,
				Timestamp:   exporter.Timestamp(e.Timestamp),
			})
		}
		return nil
	})
	if err != nil {
		return UploadPayload{}, fmt.Errorf("failed to read %s logs: %w", mode, err)
	}
	return payload, nil
}

// Upload submits a mode's counts. A refusal by the service is returned as
// ErrRejected together with the decoded result.
func (s *Syncer) Upload(ctx context.Context, mode inventory.Mode, session, employee int) (UploadResult, error) {
	payload, err := s.BuildPayload(ctx, mode, session, employee)
	if err != nil {
		return UploadResult{}, err
	}

	log := s.logger.With(zap.String("mode", string(mode)), zap.Int("session", session), zap.Int("employee", employee))
	res, err := s.service.Submit(ctx, session, employee, payload)
	if err != nil {
		log.Error("Upload failed", zap.Error(err))
		return res, err
	}
	if !res.Success {
		log.Warn("Upload rejected", zap.String("error", res.Error))
		return res, fmt.Errorf("%w: %s", ErrRejected, res.Error)
	}
	log.Info("Upload accepted", zap.Int("items", len(payload.BarcodeData)), zap.Int("updated", res.Updated))
	return res, nil
}
