package reconcile

import (
	"math"
	"time"

	"scanmate/feature/inventory"
)

// driftTolerance absorbs float rounding in summed fractional deltas.
const driftTolerance = 1e-9

// ReconcileResult represents the audit output for a single item key.
// It compares the cached scanned quantity with the sum of logged deltas.
type ReconcileResult struct {
	// Key is the display form of the item identity.
	Key string `json:"key"`

	// Barcode and Container identify the item. Container is empty in Standard mode.
	Barcode   string `json:"barcode"`
	Container string `json:"container,omitempty"`

	// ItemPresent indicates whether the item exists in the dataset.
	ItemPresent bool `json:"item_present"`

	// LedgerPresent indicates whether any log rows exist for the key.
	LedgerPresent bool `json:"ledger_present"`

	// Scanned is the item's scanned quantity.
	Scanned float64 `json:"scanned"`

	// Ledger is the sum of the logged deltas.
	Ledger float64 `json:"ledger"`

	// Drift is Scanned minus Ledger.
	Drift float64 `json:"drift"`
}

// Drifted reports whether an existing item's count disagrees with its ledger.
func (r ReconcileResult) Drifted() bool {
	return r.ItemPresent && math.Abs(r.Drift) > driftTolerance
}

// Orphan reports log rows that belong to no item.
func (r ReconcileResult) Orphan() bool {
	return r.LedgerPresent && !r.ItemPresent
}

// Query addresses one item for targeted reconciliation.
type Query struct {
	Barcode   string
	Container string
}

// Key returns the normalized item identity of the query.
func (q Query) Key() inventory.Key {
	return inventory.Key{
		Barcode:   inventory.NormalizeBarcode(q.Barcode),
		Container: deref(inventory.NormalizeContainer(&q.Container)),
	}
}

// Spec defines the configuration for a reconciliation operation.
type Spec struct {
	// Adapter provides the two indices being compared.
	Adapter Adapter

	// CacheTTL is the time-to-live for cached indices.
	// If zero, caching is disabled.
	CacheTTL time.Duration
}

// CacheKey returns a unique key for caching based on spec parameters.
func (s *Spec) CacheKey() string {
	return s.Adapter.Name()
}

// ActionType represents the type of mutation action.
type ActionType string

const (
	// ActionRealign overwrites the scanned quantity with the ledger total.
	ActionRealign ActionType = "realign_scanned"
)

// Action represents a planned mutation operation.
type Action struct {
	// Type specifies the action to perform.
	Type ActionType `json:"type"`

	// Key is the display form of the item identity.
	Key string `json:"key"`

	// Value is the scanned quantity the item will be set to.
	Value float64 `json:"value"`

	// Reason explains why this action is needed.
	Reason string `json:"reason"`

	item inventory.Key
}

// ReconcilePlan contains reconciliation results and planned actions.
type ReconcilePlan struct {
	// Results contains per-key reconciliation data.
	Results []ReconcileResult `json:"results"`

	// Actions contains planned mutation operations.
	Actions []Action `json:"actions"`

	// Summary provides aggregate counts.
	Summary PlanSummary `json:"summary"`
}

// PlanSummary provides aggregate statistics for a reconcile plan.
type PlanSummary struct {
	// TotalKeys is the number of distinct item keys across both indices.
	TotalKeys int `json:"total_keys"`

	// Consistent counts items whose count matches the ledger.
	Consistent int `json:"consistent"`

	// Drifted counts items whose count disagrees with the ledger.
	Drifted int `json:"drifted"`

	// Orphans counts ledger keys without an item.
	Orphans int `json:"orphans"`

	// TotalDrift is the sum of all drifts.
	TotalDrift float64 `json:"total_drift"`

	// RepairActions counts planned realign actions.
	RepairActions int `json:"repair_actions"`
}

// ReconcileOptions controls whether drift is repaired.
type ReconcileOptions struct {
	// DryRun prevents execution of any mutations if true.
	DryRun bool

	// DoRepair plans realign actions for drifted items.
	DoRepair bool

	// Confirmed indicates user has confirmed destructive actions.
	// If false, mutations will not execute regardless of DryRun.
	Confirmed bool
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
