package reconcile

import (
	"context"
	"fmt"

	"scanmate/feature/inventory"
)

// ReconcileWithPlan audits the adapter's store and returns a plan with
// results and repair actions. It does NOT execute actions; use ApplyPlan.
func ReconcileWithPlan(ctx context.Context, spec *Spec, opts ReconcileOptions) (*ReconcilePlan, error) {
	cache, err := GetOrBuildCache(ctx, spec)
	if err != nil {
		return nil, err
	}

	results := reconcileFromCache(cache)
	summary, actions := buildPlanFromResults(results, opts)

	return &ReconcilePlan{
		Results: results,
		Actions: actions,
		Summary: summary,
	}, nil
}

// ApplyPlan executes the actions in a reconcile plan and invalidates the
// spec's cache. Requires opts.Confirmed=true and opts.DryRun=false.
func ApplyPlan(ctx context.Context, spec *Spec, plan *ReconcilePlan, opts ReconcileOptions) (int, error) {
	if !opts.Confirmed || opts.DryRun {
		return 0, nil
	}

	mutator, ok := spec.Adapter.(Mutator)
	if !ok {
		return 0, fmt.Errorf("adapter %s does not implement Mutator interface", spec.Adapter.Name())
	}

	values := make(map[inventory.Key]float64)
	for _, action := range plan.Actions {
		if action.Type == ActionRealign {
			values[action.item] = action.Value
		}
	}
	if len(values) == 0 {
		return 0, nil
	}

	executed, err := mutator.OverwriteScanned(ctx, values)
	InvalidateCache(spec)
	if err != nil {
		return 0, fmt.Errorf("failed to realign scanned quantities: %w", err)
	}
	return executed, nil
}

// ReconcileAndApply is a convenience wrapper that plans and optionally applies actions.
func ReconcileAndApply(ctx context.Context, spec *Spec, opts ReconcileOptions) (*ReconcilePlan, int, error) {
	plan, err := ReconcileWithPlan(ctx, spec, opts)
	if err != nil {
		return nil, 0, err
	}

	executed, err := ApplyPlan(ctx, spec, plan, opts)
	return plan, executed, err
}

func buildPlanFromResults(results []ReconcileResult, opts ReconcileOptions) (PlanSummary, []Action) {
	var summary PlanSummary
	var actions []Action

	summary.TotalKeys = len(results)

	for _, result := range results {
		switch {
		case result.Orphan():
			summary.Orphans++
			continue
		case result.Drifted():
			summary.Drifted++
			summary.TotalDrift += result.Drift
		default:
			summary.Consistent++
			continue
		}

		if opts.DoRepair {
			actions = append(actions, Action{
				Type:   ActionRealign,
				Key:    result.Key,
				Value:  result.Ledger,
				Reason: fmt.Sprintf("scanned=%g ledger=%g", result.Scanned, result.Ledger),
				item:   inventory.Key{Barcode: result.Barcode, Container: result.Container},
			})
			summary.RepairActions++
		}
	}

	return summary, actions
}
