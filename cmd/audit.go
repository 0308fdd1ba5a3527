package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"scanmate/core/reconcile"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	repairAudit bool
	dryRunAudit bool
	yesConfirm  bool
)

// auditCmd compares each item's count with its ledger.
var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Compare scanned counts with the log ledger (report + optionally repair)",
	Long: `Audits one mode: every item's scanned quantity should equal the sum of its
logged deltas. Reports drifted items and log rows without an item.
Optionally realigns drifted counts to the ledger.

Examples:
  # Report only
  scanmate audit --mode loots

  # Repair drift (with interactive confirmation)
  scanmate audit --repair

  # Repair with auto-confirm (non-interactive)
  scanmate audit --repair --yes`,
	RunE: runAudit,
}

func init() {
	auditCmd.Flags().BoolVar(&repairAudit, "repair", false, "Realign drifted counts to the ledger")
	auditCmd.Flags().BoolVar(&dryRunAudit, "dry-run", false, "Force dry-run (no mutations even with --yes)")
	auditCmd.Flags().BoolVar(&yesConfirm, "yes", false, "Auto-confirm destructive actions (non-interactive)")
	RootCmd.AddCommand(auditCmd)
}

func runAudit(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	eng, err := loadEngine(ctx)
	if err != nil {
		return err
	}
	defer eng.close(ctx)
	l := eng.logger

	mode, err := eng.mode()
	if err != nil {
		return err
	}

	spec := &reconcile.Spec{
		Adapter:  reconcile.NewStoreAdapter(eng.router.Store(mode), eng.buffer),
		CacheTTL: 0, // No caching, the store changes under us
	}
	opts := reconcile.ReconcileOptions{
		DoRepair: repairAudit,
		DryRun:   dryRunAudit,
	}

	l.Info("Auditing ledger...", zap.String("mode", string(mode)))
	plan, err := reconcile.ReconcileWithPlan(ctx, spec, opts)
	if err != nil {
		return fmt.Errorf("failed to audit: %w", err)
	}

	printAuditReport(l, plan)

	if !repairAudit {
		if plan.Summary.Drifted > 0 {
			l.Info("Use --repair to realign drifted counts.")
		}
		return nil
	}
	if dryRunAudit {
		l.Info("Dry-run mode: No changes were made.")
		return nil
	}
	if len(plan.Actions) == 0 {
		l.Info("No actions required.")
		return nil
	}

	if !confirmDestructiveAction() {
		l.Warn("Operation cancelled by user. No changes were made.")
		return nil
	}
	opts.Confirmed = true

	executed, err := reconcile.ApplyPlan(ctx, spec, plan, opts)
	if err != nil {
		return fmt.Errorf("failed to apply plan: %w", err)
	}
	l.Info("Successfully realigned items", zap.Int("count", executed))
	return nil
}

// printAuditReport prints the summary and a sample of findings.
func printAuditReport(l *zap.Logger, plan *reconcile.ReconcilePlan) {
	s := plan.Summary

	l.Info("Audit report",
		zap.Int("total_keys", s.TotalKeys),
		zap.Int("consistent", s.Consistent),
		zap.Int("drifted", s.Drifted),
		zap.Int("orphans", s.Orphans),
		zap.Float64("total_drift", s.TotalDrift),
	)

	shown := 0
	for _, r := range plan.Results {
		if !r.Drifted() && !r.Orphan() {
			continue
		}
		if shown == 5 {
			l.Info("Additional findings not shown", zap.Int("count", s.Drifted+s.Orphans-shown))
			break
		}
		l.Info("Finding",
			zap.String("key", r.Key),
			zap.Bool("orphan", r.Orphan()),
			zap.Float64("scanned", r.Scanned),
			zap.Float64("ledger", r.Ledger),
		)
		shown++
	}
}

// confirmDestructiveAction prompts the user for confirmation or uses --yes flag.
func confirmDestructiveAction() bool {
	if yesConfirm {
		fmt.Println("\n✓ Auto-confirmed via --yes flag")
		return true
	}

	fmt.Print("\n⚠️  Type 'yes' to confirm destructive actions: ")
	reader := bufio.NewReader(os.Stdin)
	response, err := reader.ReadString('\n')
	if err != nil {
		return false
	}

	return strings.TrimSpace(response) == "yes"
}
