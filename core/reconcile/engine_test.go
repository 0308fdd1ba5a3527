package reconcile

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"scanmate/feature/inventory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockAdapter is a simple in-memory adapter.
type mockAdapter struct {
	name      string
	items     map[inventory.Key]float64
	ledger    map[inventory.Key]float64
	itemErr   error
	ledgerErr error
	prepErr   error

	loads    atomic.Int32
	prepared atomic.Int32

	mu          sync.Mutex
	overwritten map[inventory.Key]float64
}

func (m *mockAdapter) Name() string {
	if m.name == "" {
		return "mock"
	}
	return m.name
}

func (m *mockAdapter) Prepare(ctx context.Context) error {
	m.prepared.Add(1)
	return m.prepErr
}

func (m *mockAdapter) LoadItemIndex(ctx context.Context) (map[inventory.Key]float64, error) {
	m.loads.Add(1)
	if m.itemErr != nil {
		return nil, m.itemErr
	}
	return m.items, nil
}

func (m *mockAdapter) LoadLedgerIndex(ctx context.Context) (map[inventory.Key]float64, error) {
	if m.ledgerErr != nil {
		return nil, m.ledgerErr
	}
	return m.ledger, nil
}

func (m *mockAdapter) QueryItem(ctx context.Context, key inventory.Key) (float64, bool, error) {
	v, ok := m.items[key]
	return v, ok, nil
}

func (m *mockAdapter) QueryLedger(ctx context.Context, key inventory.Key) (float64, bool, error) {
	v, ok := m.ledger[key]
	return v, ok, nil
}

func (m *mockAdapter) OverwriteScanned(ctx context.Context, values map[inventory.Key]float64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.overwritten = values
	return len(values), nil
}

func key(barcode string) inventory.Key {
	return inventory.Key{Barcode: barcode}
}

// TestBuildCache_ErrorHandling tests that BuildCache surfaces errors from either index.
func TestBuildCache_ErrorHandling(t *testing.T) {
	tests := []struct {
		name      string
		adapter   *mockAdapter
		expectErr string
	}{
		{
			name:      "item load error",
			adapter:   &mockAdapter{itemErr: errors.New("items error")},
			expectErr: "items error",
		},
		{
			name:      "ledger load error",
			adapter:   &mockAdapter{ledgerErr: errors.New("ledger error")},
			expectErr: "ledger error",
		},
		{
			name:      "prepare error",
			adapter:   &mockAdapter{prepErr: errors.New("flush error")},
			expectErr: "flush error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BuildCache(context.Background(), &Spec{Adapter: tt.adapter})
			assert.ErrorContains(t, err, tt.expectErr)
		})
	}
}

// TestReconcileAll_UnionKeys tests that every key from either side is reported once.
func TestReconcileAll_UnionKeys(t *testing.T) {
	adapter := &mockAdapter{
		items: map[inventory.Key]float64{
			key("A"): 2,
			key("B"): 3,
			key("C"): 0,
		},
		ledger: map[inventory.Key]float64{
			key("A"): 2,
			key("B"): 1,
			key("D"): 4,
		},
	}

	results, err := ReconcileAll(context.Background(), &Spec{Adapter: adapter})
	require.NoError(t, err)
	require.Len(t, results, 4)

	assert.Equal(t, []string{"A", "B", "C", "D"}, []string{results[0].Key, results[1].Key, results[2].Key, results[3].Key})

	assert.False(t, results[0].Drifted())
	assert.True(t, results[1].Drifted())
	assert.Equal(t, 2.0, results[1].Drift)
	assert.False(t, results[2].Drifted(), "unscanned item without logs is consistent")
	assert.True(t, results[3].Orphan())
	assert.Zero(t, results[3].Drift)
}

func TestReconcileAll_SortsByContainer(t *testing.T) {
	adapter := &mockAdapter{
		items: map[inventory.Key]float64{
			{Barcode: "A", Container: "BOX-2"}: 1,
			{Barcode: "A", Container: "BOX-1"}: 1,
		},
		ledger: map[inventory.Key]float64{},
	}

	results, err := ReconcileAll(context.Background(), &Spec{Adapter: adapter})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "A @ BOX-1", results[0].Key)
	assert.Equal(t, "BOX-2", results[1].Container)
}

func TestReconcileResult_FractionalSums(t *testing.T) {
	r := newResult(key("A"), 0.3, true, 0.1+0.2, true)
	assert.False(t, r.Drifted())
}

// TestReconcileOne_Targeted tests the uncached query path.
func TestReconcileOne_Targeted(t *testing.T) {
	adapter := &mockAdapter{
		items:  map[inventory.Key]float64{key("A"): 5},
		ledger: map[inventory.Key]float64{key("A"): 3},
	}

	result, err := ReconcileOne(context.Background(), &Spec{Adapter: adapter}, Query{Barcode: " A "})
	require.NoError(t, err)
	assert.True(t, result.ItemPresent)
	assert.Equal(t, 2.0, result.Drift)
	assert.Zero(t, adapter.loads.Load(), "targeted audit must not load full indices")
	assert.Equal(t, int32(1), adapter.prepared.Load())

	missing, err := ReconcileOne(context.Background(), &Spec{Adapter: adapter}, Query{Barcode: "nope"})
	require.NoError(t, err)
	assert.False(t, missing.ItemPresent)
	assert.False(t, missing.LedgerPresent)
}

// TestGetOrBuildCache_ReusesFreshCache tests that a TTL cache is built once.
func TestGetOrBuildCache_ReusesFreshCache(t *testing.T) {
	adapter := &mockAdapter{
		name:   "cache-reuse",
		items:  map[inventory.Key]float64{key("A"): 1},
		ledger: map[inventory.Key]float64{key("A"): 1},
	}
	spec := &Spec{Adapter: adapter, CacheTTL: time.Minute}
	t.Cleanup(func() { InvalidateCache(spec) })

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := ReconcileOne(context.Background(), spec, Query{Barcode: "A"})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), adapter.loads.Load())

	InvalidateCache(spec)
	_, err := ReconcileAll(context.Background(), spec)
	require.NoError(t, err)
	assert.Equal(t, int32(2), adapter.loads.Load())
}

func TestReconcileCache_IsExpired(t *testing.T) {
	assert.True(t, (&ReconcileCache{Built: time.Now()}).IsExpired())
	assert.False(t, (&ReconcileCache{Built: time.Now(), TTL: time.Minute}).IsExpired())
	assert.True(t, (&ReconcileCache{Built: time.Now().Add(-2 * time.Minute), TTL: time.Minute}).IsExpired())
}
