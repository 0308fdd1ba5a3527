package reconcile

import (
	"context"
	"sort"

	"scanmate/feature/inventory"
)

// ReconcileAll audits every key found in either index, sorted by key.
func ReconcileAll(ctx context.Context, spec *Spec) ([]ReconcileResult, error) {
	cache, err := GetOrBuildCache(ctx, spec)
	if err != nil {
		return nil, err
	}
	return reconcileFromCache(cache), nil
}

// ReconcileOne audits a single item. It uses cached indices when caching is
// enabled and targeted queries otherwise.
func ReconcileOne(ctx context.Context, spec *Spec, query Query) (*ReconcileResult, error) {
	key := query.Key()

	if spec.CacheTTL > 0 {
		cache, err := GetOrBuildCache(ctx, spec)
		if err != nil {
			return nil, err
		}
		result := buildResult(key, cache.ItemIndex, cache.LedgerIndex)
		return &result, nil
	}

	if p, ok := spec.Adapter.(Preparer); ok {
		if err := p.Prepare(ctx); err != nil {
			return nil, err
		}
	}
	scanned, itemOK, err := spec.Adapter.QueryItem(ctx, key)
	if err != nil {
		return nil, err
	}
	total, ledgerOK, err := spec.Adapter.QueryLedger(ctx, key)
	if err != nil {
		return nil, err
	}

	result := newResult(key, scanned, itemOK, total, ledgerOK)
	return &result, nil
}

func reconcileFromCache(cache *ReconcileCache) []ReconcileResult {
	union := buildUnion(cache.ItemIndex, cache.LedgerIndex)

	results := make([]ReconcileResult, 0, len(union))
	for key := range union {
		results = append(results, buildResult(key, cache.ItemIndex, cache.LedgerIndex))
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Barcode != results[j].Barcode {
			return results[i].Barcode < results[j].Barcode
		}
		return results[i].Container < results[j].Container
	})
	return results
}

// buildUnion creates a union of item and ledger keys.
func buildUnion(items, ledger map[inventory.Key]float64) map[inventory.Key]struct{} {
	union := make(map[inventory.Key]struct{}, len(items))
	for key := range items {
		union[key] = struct{}{}
	}
	for key := range ledger {
		union[key] = struct{}{}
	}
	return union
}

func buildResult(key inventory.Key, items, ledger map[inventory.Key]float64) ReconcileResult {
	scanned, itemOK := items[key]
	total, ledgerOK := ledger[key]
	return newResult(key, scanned, itemOK, total, ledgerOK)
}

func newResult(key inventory.Key, scanned float64, itemOK bool, total float64, ledgerOK bool) ReconcileResult {
	r := ReconcileResult{
		Key:           key.String(),
		Barcode:       key.Barcode,
		Container:     key.Container,
		ItemPresent:   itemOK,
		LedgerPresent: ledgerOK,
		Scanned:       scanned,
		Ledger:        total,
	}
	if itemOK {
		r.Drift = scanned - total
	}
	return r
}
