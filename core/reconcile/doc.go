// Package reconcile audits a mode store against its own ledger.
//
// Every scan and manual edit writes a log row holding the applied delta, so
// for each item the sum of its deltas should equal its scanned quantity. The
// audit loads both sides, builds the union of keys and reports, per key:
//   - drift: the item's count differs from its ledger total
//   - orphans: log rows whose item no longer exists
//
// # Architecture
//
//  1. Engine: builds the union of item and ledger keys and compares values.
//  2. Adapter: loads the indices. StoreAdapter flushes the log buffer first
//     so buffered entries are counted.
//  3. Cache: TTL-based index cache with stampede protection, used for
//     repeated targeted audits.
//
// Audits taken while scanning is in progress may report transient drift for
// items scanned between the two index loads.
//
// # Usage Example
//
//	spec := &reconcile.Spec{
//	    Adapter:  reconcile.NewStoreAdapter(router.Store(mode), buffer),
//	    CacheTTL: 0,
//	}
//
//	plan, err := reconcile.ReconcileWithPlan(ctx, spec, reconcile.ReconcileOptions{DoRepair: true})
//	executed, err := reconcile.ApplyPlan(ctx, spec, plan, reconcile.ReconcileOptions{Confirmed: true})
//
// Repair realigns drifted items to their ledger total. Orphans are reported
// only; the ledger is append-only.
package reconcile
