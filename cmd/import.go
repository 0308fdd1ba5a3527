package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"scanmate/feature/session"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const importSales = "sales"

var (
	importKind  string
	importSheet string
)

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Replace a mode's dataset from a file",
	Long: `Replaces the whole dataset of a mode. Buffered and persisted logs of that
mode are discarded.

Kinds:
  spreadsheet  .xlsx workbook with a Barcode column
  json         array of baseline rows
  store        a complete store file; the current one is backed up
  sales        .xlsx sale price table, shared by both modes

The kind is taken from the file extension unless --kind is given.

Examples:
  scanmate import products.xlsx
  scanmate import --mode loots boxes.json
  scanmate import --kind store backup.db
  scanmate import --kind sales prices.xlsx`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	importCmd.Flags().StringVar(&importKind, "kind", "", "Source kind (spreadsheet, json, store, sales)")
	importCmd.Flags().StringVar(&importSheet, "sheet", "", "Sheet name (spreadsheet and sales, default first sheet)")
	RootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	eng, err := loadEngine(ctx)
	if err != nil {
		return err
	}
	defer eng.close(ctx)

	kind := importKind
	if kind == "" {
		kind = kindFromExtension(args[0])
	}

	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", args[0], err)
	}
	defer f.Close()

	if kind == importSales {
		res, err := eng.session().ImportSales(ctx, f, importSheet)
		if err != nil {
			return err
		}
		eng.logger.Info("Sales import finished",
			zap.Int("imported", res.Imported),
			zap.Int("skipped", res.Skipped),
			zap.Int("duplicates", res.Duplicates),
		)
		return nil
	}

	mode, err := eng.mode()
	if err != nil {
		return err
	}

	res, err := eng.session().Import(ctx, mode, kind, f, importSheet)
	if err != nil {
		return err
	}

	eng.logger.Info("Import finished",
		zap.String("mode", string(res.Mode)),
		zap.String("source", res.Source),
		zap.Int("imported", res.Imported),
		zap.Int("skipped", res.Skipped),
		zap.Int("duplicates", res.Duplicates),
	)
	return nil
}

func kindFromExtension(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return session.ImportSpreadsheet
	case ".db", ".sqlite", ".sqlite3":
		return session.ImportStore
	}
	return session.ImportJSON
}
