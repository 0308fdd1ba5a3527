package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"scanmate/feature/exporter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	exportFormat string
	exportDir    string
)

var exportCmd = &cobra.Command{
	Use:   "export <dataset|logs>",
	Short: "Export a mode's dataset or logs",
	Long: `Writes the dataset (expected vs. counted) or the full log of a mode to a
file in the export directory. When storage is enabled the file is archived too.

Examples:
  scanmate export dataset
  scanmate export logs --mode loots --format xlsx`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportFormat, "format", "json", "Output format (json or xlsx)")
	exportCmd.Flags().StringVar(&exportDir, "out", "", "Output directory (default from config)")
	RootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	eng, err := loadEngine(ctx)
	if err != nil {
		return err
	}
	defer eng.close(ctx)

	mode, err := eng.mode()
	if err != nil {
		return err
	}
	kind, err := exporter.ParseKind(args[0])
	if err != nil {
		return err
	}
	format, err := exporter.ParseFormat(exportFormat)
	if err != nil {
		return err
	}

	progress := func(f float64) {
		eng.logger.Debug("Export progress", zap.Float64("fraction", f))
	}
	a, err := eng.exporter.Export(ctx, mode, kind, format, progress)
	if err != nil {
		return err
	}

	dir := exportDir
	if dir == "" {
		dir = eng.cfg.Export.Dir
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}
	path := filepath.Join(dir, a.Name)
	if err := os.WriteFile(path, a.Data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	eng.logger.Info("Export written",
		zap.String("path", path),
		zap.Int("rows", a.Rows),
		zap.String("archive_key", a.ArchiveKey),
	)
	return nil
}
