package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"scanmate/core/database"
	"scanmate/feature/inventory"

	"github.com/go-playground/validator"
	"go.uber.org/zap"
)

// LogDropper discards the buffered log entries of one mode.
type LogDropper interface {
	DropMode(mode inventory.Mode)
}

// Archiver keeps a copy of a file that is about to be lost.
type Archiver interface {
	ArchiveFile(ctx context.Context, mode inventory.Mode, kind, path string) error
}

// Result summarises one bulk load.
type Result struct {
	Mode       inventory.Mode `json:"mode"`
	Source     string         `json:"source"`
	Imported   int            `json:"imported"`
	Skipped    int            `json:"skipped"`
	Duplicates int            `json:"duplicates"`
}

// Loader replaces a mode's dataset from a bulk source.
type Loader struct {
	router   *inventory.Router
	buffer   LogDropper
	archive  Archiver
	validate *validator.Validate
	logger   *zap.Logger
	now      func() time.Time
}

// New creates a loader. buffer may be nil when no log buffer is in use.
func New(router *inventory.Router, buffer LogDropper, logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{
		router:   router,
		buffer:   buffer,
		validate: validator.New(),
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// WithArchive makes the loader archive store files before replacing them.
func (l *Loader) WithArchive(a Archiver) *Loader {
	l.archive = a
	return l
}

// ReplaceDataset swaps the whole dataset of mode for the rows of src.
//
// Rows without a barcode or with negative numbers are skipped. When a barcode
// (or barcode and container in Loots mode) repeats, the last row wins. If no
// row survives nothing is touched and a ValidationError wrapping
// inventory.ErrNoValidRows is returned. Otherwise logs and items are deleted
// and the rows inserted in one transaction; every item starts uncounted.
func (l *Loader) ReplaceDataset(ctx context.Context, mode inventory.Mode, src Source) (Result, error) {
	res := Result{Mode: mode, Source: src.Kind()}
	log := l.logger.With(zap.String("mode", string(mode)), zap.String("source", res.Source))

	rows, err := src.Read()
	if err != nil {
		return res, err
	}

	items, skipped, duplicates := l.prepare(mode, rows, log)
	res.Skipped, res.Duplicates = skipped, duplicates
	if len(items) == 0 {
		return res, &inventory.ValidationError{Op: "replace dataset", Err: inventory.ErrNoValidRows}
	}

	err = l.router.Store(mode).Replace(ctx, items, func() {
		if l.buffer != nil {
			l.buffer.DropMode(mode)
		}
	})
	if err != nil {
		log.Error("Dataset replace failed", zap.Error(err))
		return res, err
	}

	res.Imported = len(items)
	log.Info("Dataset replaced",
		zap.Int("imported", res.Imported),
		zap.Int("skipped", res.Skipped),
		zap.Int("duplicates", res.Duplicates),
	)
	return res, nil
}

func (l *Loader) prepare(mode inventory.Mode, rows []Row, log *zap.Logger) (items []inventory.Item, skipped, duplicates int) {
	now := l.now()
	index := make(map[inventory.Key]int, len(rows))
	items = make([]inventory.Item, 0, len(rows))

	for i, r := range rows {
		r.Barcode = inventory.NormalizeBarcode(r.Barcode)
		if c := inventory.NormalizeContainer(&r.ContainerID); c != nil {
			r.ContainerID = *c
		} else {
			r.ContainerID = ""
		}

		if err := l.validate.Struct(r); err != nil {
			skipped++
			log.Debug("Skipping invalid row", zap.Int("row", i+1), zap.Error(err))
			continue
		}

		it := r.item(mode, now)
		if at, ok := index[it.Key()]; ok {
			items[at] = it
			duplicates++
			continue
		}
		index[it.Key()] = len(items)
		items = append(items, it)
	}
	return items, skipped, duplicates
}

// ReplaceStoreFile installs a complete store file for mode. The current file
// is kept next to it as <file>.bak (and archived when configured). The new
// file must be a readable SQLite database; its schema is completed on open.
// If the new file cannot be opened the backup is put back.
func (l *Loader) ReplaceStoreFile(ctx context.Context, mode inventory.Mode, r io.Reader) (Result, error) {
	res := Result{Mode: mode, Source: "store"}
	store := l.router.Store(mode)
	log := l.logger.With(zap.String("mode", string(mode)), zap.String("source", res.Source))

	path := store.Path()
	if path == "" {
		return res, &inventory.ValidationError{Op: "replace store file", Err: errors.New("store has no backing file")}
	}

	incoming := path + ".incoming"
	defer os.Remove(incoming)
	if err := writeFile(incoming, r); err != nil {
		return res, err
	}
	if err := database.Probe(incoming); err != nil {
		return res, &inventory.ValidationError{Op: "replace store file", Err: err}
	}

	backup := path + ".bak"
	hasBackup := false
	err := store.Swap(ctx, func(current string) error {
		if l.buffer != nil {
			l.buffer.DropMode(mode)
		}
		if err := copyFile(current, backup); err == nil {
			hasBackup = true
		} else if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to back up store file: %w", err)
		}
		_ = os.Remove(current + "-journal")
		return os.Rename(incoming, current)
	})
	if err != nil {
		log.Error("Store file replace failed", zap.Error(err))
		rerr := store.Swap(ctx, func(current string) error {
			if !hasBackup {
				return nil
			}
			return copyFile(backup, current)
		})
		if rerr != nil {
			err = errors.Join(err, fmt.Errorf("failed to restore store file: %w", rerr))
		} else {
			log.Warn("Previous store file restored", zap.Bool("backup", hasBackup))
		}
		return res, &inventory.TransactionError{Mode: mode, Err: err}
	}

	if hasBackup && l.archive != nil {
		if err := l.archive.ArchiveFile(ctx, mode, "store-backup", backup); err != nil {
			log.Warn("Failed to archive store backup", zap.Error(err))
		}
	}

	count, err := store.CountItems(ctx)
	if err != nil {
		return res, err
	}
	res.Imported = int(count)
	log.Info("Store file replaced", zap.Int("items", res.Imported), zap.Bool("backup", hasBackup))
	return res, nil
}

func writeFile(path string, r io.Reader) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("failed to sync %s: %w", path, err)
	}
	return f.Close()
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	return writeFile(dst, in)
}
