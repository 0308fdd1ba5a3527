package exporter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"scanmate/feature/inventory"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// Progress receives the completed fraction of an export, from 0 to 1.
type Progress func(fraction float64)

// LogFlusher writes buffered log entries of a mode to its store.
type LogFlusher interface {
	Flush(ctx context.Context, mode inventory.Mode) (int, error)
}

// Archiver keeps a copy of a produced artifact and returns its object key.
type Archiver interface {
	PutArtifact(ctx context.Context, mode inventory.Mode, kind, name, contentType string, data []byte) (string, error)
}

// Kind selects what is exported.
type Kind string

const (
	KindDataset Kind = "dataset"
	KindLogs    Kind = "logs"
)

// Format selects the serialization.
type Format string

const (
	FormatJSON        Format = "json"
	FormatSpreadsheet Format = "xlsx"
)

// ParseKind accepts dataset|products and logs.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "dataset", "products", "items":
		return KindDataset, nil
	case "logs":
		return KindLogs, nil
	}
	return "", &inventory.ValidationError{Op: "parse export kind", Err: fmt.Errorf("unknown export kind %q", s)}
}

// ParseFormat accepts json and xlsx (or excel/spreadsheet).
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return FormatJSON, nil
	case "xlsx", "excel", "spreadsheet":
		return FormatSpreadsheet, nil
	}
	return "", &inventory.ValidationError{Op: "parse export format", Err: fmt.Errorf("unknown export format %q", s)}
}

// ContentType returns the MIME type of the format.
func (f Format) ContentType() string {
	if f == FormatSpreadsheet {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "application/json"
}

// Artifact is one serialized export.
type Artifact struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Mode        inventory.Mode `json:"mode"`
	Kind        Kind           `json:"kind"`
	Format      Format         `json:"format"`
	ContentType string         `json:"contentType"`
	Rows        int            `json:"rows"`
	ArchiveKey  string         `json:"archiveKey,omitempty"`
	Data        []byte         `json:"-"`
}

// Exporter reads a mode's items or logs and serializes them.
type Exporter struct {
	router  *inventory.Router
	logs    LogFlusher
	archive Archiver
	cfg     Config
	logger  *zap.Logger
	now     func() time.Time
}

// New creates an exporter. logs may be nil when no buffer is in use.
func New(router *inventory.Router, logs LogFlusher, cfg Config, logger *zap.Logger) *Exporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Exporter{
		router: router,
		logs:   logs,
		cfg:    cfg,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// WithArchive uploads every artifact produced by Export.
func (e *Exporter) WithArchive(a Archiver) *Exporter {
	e.archive = a
	return e
}

// ExportDataset reads every item of mode. progress, when set, is called every
// Config.ProgressEvery rows and with 1 once all rows are read.
func (e *Exporter) ExportDataset(ctx context.Context, mode inventory.Mode, progress Progress) ([]DatasetRow, error) {
	store := e.router.Store(mode)
	total, err := store.CountItems(ctx)
	if err != nil {
		return nil, err
	}

	t := e.tracker(total, progress)
	rows := make([]DatasetRow, 0, total)
	err = store.EachItem(ctx, e.cfg.every(), func(items []inventory.Item) error {
		for _, it := range items {
			rows = append(rows, NewDatasetRow(it))
			t.step()
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to export %s dataset: %w", mode, err)
	}
	t.finish()
	return rows, nil
}

// ExportLogs reads the whole audit log of mode after flushing buffered
// entries, so the export includes every applied scan.
func (e *Exporter) ExportLogs(ctx context.Context, mode inventory.Mode, progress Progress) ([]LogRow, error) {
	if e.logs != nil {
		if _, err := e.logs.Flush(ctx, mode); err != nil {
			return nil, fmt.Errorf("failed to flush %s logs before export: %w", mode, err)
		}
	}

	store := e.router.Store(mode)
	total, err := store.CountLogs(ctx)
	if err != nil {
		return nil, err
	}

	t := e.tracker(total, progress)
	rows := make([]LogRow, 0, total)
	err = store.EachLog(ctx, e.cfg.every(), func(entries []inventory.LogEntry) error {
		for _, entry := range entries {
			rows = append(rows, NewLogRow(entry))
			t.step()
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to export %s logs: %w", mode, err)
	}
	t.finish()
	return rows, nil
}

// Export produces a named artifact and archives it when an archiver is set.
// A failed upload is logged; the artifact is still returned.
func (e *Exporter) Export(ctx context.Context, mode inventory.Mode, kind Kind, format Format, progress Progress) (Artifact, error) {
	a := Artifact{
		ID:          uuid.NewString(),
		Mode:        mode,
		Kind:        kind,
		Format:      format,
		ContentType: format.ContentType(),
	}
	a.Name = fmt.Sprintf("%s_%s_%s.%s", mode, kind, e.now().Format("20060102T150405Z"), format)

	var buf bytes.Buffer
	switch kind {
	case KindDataset:
		rows, err := e.ExportDataset(ctx, mode, progress)
		if err != nil {
			return a, err
		}
		a.Rows = len(rows)
		if format == FormatSpreadsheet {
			err = WriteDatasetSpreadsheet(&buf, mode, rows)
		} else {
			err = WriteJSON(&buf, rows)
		}
		if err != nil {
			return a, err
		}
	case KindLogs:
		rows, err := e.ExportLogs(ctx, mode, progress)
		if err != nil {
			return a, err
		}
		a.Rows = len(rows)
		if format == FormatSpreadsheet {
			err = WriteLogsSpreadsheet(&buf, mode, rows)
		} else {
			err = WriteJSON(&buf, rows)
		}
		if err != nil {
			return a, err
		}
	default:
		return a, &inventory.ValidationError{Op: "export", Err: fmt.Errorf("unknown export kind %q", kind)}
	}
	a.Data = buf.Bytes()

	log := e.logger.With(zap.String("mode", string(mode)), zap.String("artifact", a.Name))
	if e.archive != nil {
		key, err := e.archive.PutArtifact(ctx, mode, string(kind), a.Name, a.ContentType, a.Data)
		if err != nil {
			log.Warn("Failed to archive export", zap.Error(err))
		} else {
			a.ArchiveKey = key
		}
	}
	log.Info("Export finished", zap.Int("rows", a.Rows), zap.Int("bytes", len(a.Data)))
	return a, nil
}

// WriteJSON writes rows as an indented JSON array.
func WriteJSON(w io.Writer, rows any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rows); err != nil {
		return fmt.Errorf("failed to encode json export: %w", err)
	}
	return nil
}

// WriteDatasetSpreadsheet writes items as a single-sheet workbook.
func WriteDatasetSpreadsheet(w io.Writer, mode inventory.Mode, rows []DatasetRow) error {
	cells := make([][]any, len(rows))
	for i, r := range rows {
		cells[i] = r.cells(mode)
	}
	return writeSheet(w, "Products", datasetHeader(mode), cells)
}

// WriteLogsSpreadsheet writes log rows as a single-sheet workbook.
func WriteLogsSpreadsheet(w io.Writer, mode inventory.Mode, rows []LogRow) error {
	cells := make([][]any, len(rows))
	for i, r := range rows {
		cells[i] = r.cells(mode)
	}
	return writeSheet(w, "Logs", logHeader(mode), cells)
}

func writeSheet(w io.Writer, name string, header []any, rows [][]any) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", name); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	sw, err := f.NewStreamWriter(name)
	if err != nil {
		return fmt.Errorf("failed to open sheet writer: %w", err)
	}
	if err := sw.SetRow("A1", header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}
	if err := sw.Flush(); err != nil {
		return fmt.Errorf("failed to flush sheet: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

type tracker struct {
	total, done int64
	every       int64
	report      Progress
}

func (e *Exporter) tracker(total int64, report Progress) *tracker {
	return &tracker{total: total, every: int64(e.cfg.every()), report: report}
}

func (t *tracker) step() {
	t.done++
	if t.report == nil || t.total == 0 || t.done%t.every != 0 {
		return
	}
	t.report(min(float64(t.done)/float64(t.total), 1))
}

func (t *tracker) finish() {
	if t.report != nil {
		t.report(1)
	}
}
