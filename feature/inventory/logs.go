package inventory

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// FlushLogs persists the entries returned by take in one transaction.
// take runs under the write lock, so entries cannot be drained before a bulk
// replace and written after it. It returns how many rows were inserted.
func (s *Store) FlushLogs(ctx context.Context, take func() []LogEntry) (int, error) {
	var n int
	err := s.Exclusive(ctx, func(db *gorm.DB) error {
		entries := take()
		if len(entries) == 0 {
			return nil
		}
		err := db.Transaction(func(tx *gorm.DB) error {
			return s.insertLogs(tx, entries)
		})
		if err != nil {
			return err
		}
		n = len(entries)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to flush %s logs: %w", s.mode, err)
	}
	return n, nil
}

// AppendLogs persists entries immediately.
func (s *Store) AppendLogs(ctx context.Context, entries []LogEntry) error {
	_, err := s.FlushLogs(ctx, func() []LogEntry { return entries })
	return err
}

func (s *Store) insertLogs(tx *gorm.DB, entries []LogEntry) error {
	for start := 0; start < len(entries); start += insertBatchSize {
		end := min(start+insertBatchSize, len(entries))
		if err := tx.Create(s.logRecords(entries[start:end])).Error; err != nil {
			return fmt.Errorf("failed to insert log rows: %w", err)
		}
	}
	return nil
}

func (s *Store) logRecords(entries []LogEntry) any {
	switch s.mode {
	case ModeStandard:
		recs := make([]standardLog, len(entries))
		for i, e := range entries {
			recs[i] = standardLog{LogColumns: logColumnsFrom(e), Section: e.Section}
		}
		return &recs
	case ModeLoots:
		recs := make([]lootsLog, len(entries))
		for i, e := range entries {
			recs[i] = lootsLog{LogColumns: logColumnsFrom(e), BoxID: e.ContainerID}
		}
		return &recs
	}
	s.mode.mustValid()
	return nil
}

// LogsFor returns the history of one barcode, oldest first. In Loots mode a
// nil container returns the history across all containers.
func (s *Store) LogsFor(ctx context.Context, barcode string, container *string) ([]LogEntry, error) {
	db, err := s.handle(ctx)
	if err != nil {
		return nil, err
	}
	q := db.Where("barcode = ?", NormalizeBarcode(barcode)).Order("id")
	if c := NormalizeContainer(container); c != nil && s.mode == ModeLoots {
		q = q.Where("box_id = ?", *c)
	}
	return s.scanLogs(q)
}

// CountLogs returns the number of persisted log rows.
func (s *Store) CountLogs(ctx context.Context) (int64, error) {
	db, err := s.handle(ctx)
	if err != nil {
		return 0, err
	}
	var n int64
	if err := db.Model(s.logModel()).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count logs: %w", err)
	}
	return n, nil
}

// EachLog streams all persisted log rows in insertion order, batch by batch.
func (s *Store) EachLog(ctx context.Context, batchSize int, fn func([]LogEntry) error) error {
	db, err := s.handle(ctx)
	if err != nil {
		return err
	}
	if batchSize <= 0 {
		batchSize = insertBatchSize
	}

	var res *gorm.DB
	switch s.mode {
	case ModeStandard:
		var batch []standardLog
		res = db.FindInBatches(&batch, batchSize, func(tx *gorm.DB, _ int) error {
			entries := make([]LogEntry, len(batch))
			for i, r := range batch {
				entries[i] = r.entry()
			}
			return fn(entries)
		})
	case ModeLoots:
		var batch []lootsLog
		res = db.FindInBatches(&batch, batchSize, func(tx *gorm.DB, _ int) error {
			entries := make([]LogEntry, len(batch))
			for i, r := range batch {
				entries[i] = r.entry()
			}
			return fn(entries)
		})
	default:
		s.mode.mustValid()
	}
	return res.Error
}

// LedgerIndex sums the logged deltas per item key.
func (s *Store) LedgerIndex(ctx context.Context) (map[Key]float64, error) {
	db, err := s.handle(ctx)
	if err != nil {
		return nil, err
	}

	var rows []struct {
		Barcode string
		BoxID   *string
		Total   float64
	}
	q := db.Model(s.logModel())
	if s.mode == ModeLoots {
		q = q.Select("barcode, box_id, SUM(delta) AS total").Group("barcode, box_id")
	} else {
		q = q.Select("barcode, SUM(delta) AS total").Group("barcode")
	}
	if err := q.Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to index %s ledger: %w", s.mode, err)
	}

	index := make(map[Key]float64, len(rows))
	for _, r := range rows {
		k := Key{Barcode: r.Barcode}
		if r.BoxID != nil {
			k.Container = *r.BoxID
		}
		index[k] += r.Total
	}
	return index, nil
}

func (s *Store) scanLogs(q *gorm.DB) ([]LogEntry, error) {
	switch s.mode {
	case ModeStandard:
		var recs []standardLog
		if err := q.Find(&recs).Error; err != nil {
			return nil, fmt.Errorf("failed to query logs: %w", err)
		}
		out := make([]LogEntry, len(recs))
		for i, r := range recs {
			out[i] = r.entry()
		}
		return out, nil
	case ModeLoots:
		var recs []lootsLog
		if err := q.Find(&recs).Error; err != nil {
			return nil, fmt.Errorf("failed to query logs: %w", err)
		}
		out := make([]LogEntry, len(recs))
		for i, r := range recs {
			out[i] = r.entry()
		}
		return out, nil
	}
	s.mode.mustValid()
	return nil, nil
}
