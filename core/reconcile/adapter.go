package reconcile

import (
	"context"
	"errors"
	"fmt"

	"scanmate/feature/inventory"
)

// Adapter loads the two sides of a ledger audit.
type Adapter interface {
	// Name returns the unique name of this adapter, used as cache key.
	Name() string

	// LoadItemIndex maps every item key to its scanned quantity.
	LoadItemIndex(ctx context.Context) (map[inventory.Key]float64, error)

	// LoadLedgerIndex maps every logged key to the sum of its deltas.
	LoadLedgerIndex(ctx context.Context) (map[inventory.Key]float64, error)

	// QueryItem returns the scanned quantity of one item.
	QueryItem(ctx context.Context, key inventory.Key) (scanned float64, ok bool, err error)

	// QueryLedger sums the deltas logged for one key.
	QueryLedger(ctx context.Context, key inventory.Key) (total float64, ok bool, err error)
}

// Preparer is implemented by adapters that must settle state before the
// indices are loaded, such as flushing buffered logs.
type Preparer interface {
	Prepare(ctx context.Context) error
}

// Mutator is implemented by adapters that can repair drift.
type Mutator interface {
	OverwriteScanned(ctx context.Context, values map[inventory.Key]float64) (int, error)
}

// LogFlusher drains buffered log entries of a mode into its store.
type LogFlusher interface {
	Flush(ctx context.Context, mode inventory.Mode) (int, error)
}

// StoreAdapter audits one mode store.
type StoreAdapter struct {
	store *inventory.Store
	logs  LogFlusher
}

// NewStoreAdapter creates an adapter over store. logs may be nil when no
// buffer sits in front of the store.
func NewStoreAdapter(store *inventory.Store, logs LogFlusher) *StoreAdapter {
	return &StoreAdapter{store: store, logs: logs}
}

func (a *StoreAdapter) Name() string {
	return "ledger/" + string(a.store.Mode())
}

// Prepare flushes buffered entries so the ledger is complete.
func (a *StoreAdapter) Prepare(ctx context.Context) error {
	if a.logs == nil {
		return nil
	}
	if _, err := a.logs.Flush(ctx, a.store.Mode()); err != nil {
		return fmt.Errorf("failed to flush logs before audit: %w", err)
	}
	return nil
}

func (a *StoreAdapter) LoadItemIndex(ctx context.Context) (map[inventory.Key]float64, error) {
	return a.store.ScannedIndex(ctx)
}

func (a *StoreAdapter) LoadLedgerIndex(ctx context.Context) (map[inventory.Key]float64, error) {
	return a.store.LedgerIndex(ctx)
}

func (a *StoreAdapter) QueryItem(ctx context.Context, key inventory.Key) (float64, bool, error) {
	container, err := a.container(key)
	if err != nil {
		return 0, false, err
	}
	it, err := a.store.Find(ctx, key.Barcode, container)
	if errors.Is(err, inventory.ErrNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return it.ScannedQuantity, true, nil
}

func (a *StoreAdapter) QueryLedger(ctx context.Context, key inventory.Key) (float64, bool, error) {
	container, err := a.container(key)
	if err != nil {
		return 0, false, err
	}
	entries, err := a.store.LogsFor(ctx, key.Barcode, container)
	if err != nil {
		return 0, false, err
	}
	var total float64
	for _, e := range entries {
		total += e.Delta
	}
	return total, len(entries) > 0, nil
}

func (a *StoreAdapter) OverwriteScanned(ctx context.Context, values map[inventory.Key]float64) (int, error) {
	return a.store.OverwriteScanned(ctx, values)
}

// container maps a key to the store's lookup argument. Loots lookups need a
// container, otherwise any box would match.
func (a *StoreAdapter) container(key inventory.Key) (*string, error) {
	if !a.store.Mode().UsesContainers() {
		return nil, nil
	}
	if key.Container == "" {
		return nil, &inventory.ValidationError{Op: "audit item", Err: errors.New("container is required in loots mode")}
	}
	return &key.Container, nil
}
