package inventory

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// Emit receives the log entry produced by a mutation after its transaction
// committed, while the write lock is still held. A nil Emit makes the store
// persist the entry itself, in the same transaction as the item change.
type Emit func(LogEntry)

// Find resolves an item. In Loots mode a nil container matches any container
// (first by insertion order); Standard mode ignores the container.
func (s *Store) Find(ctx context.Context, barcode string, container *string) (Item, error) {
	db, err := s.handle(ctx)
	if err != nil {
		return Item{}, err
	}
	return s.find(db, NormalizeBarcode(barcode), NormalizeContainer(container))
}

func (s *Store) find(db *gorm.DB, barcode string, container *string) (Item, error) {
	switch s.mode {
	case ModeStandard:
		var rec standardProduct
		res := db.Where("barcode = ?", barcode).Limit(1).Find(&rec)
		if res.Error != nil {
			return Item{}, fmt.Errorf("failed to query item %q: %w", barcode, res.Error)
		}
		if res.RowsAffected == 0 {
			return Item{}, ErrNotFound
		}
		return rec.item(), nil
	case ModeLoots:
		q := db.Where("barcode = ?", barcode)
		if container != nil {
			q = q.Where("box_id = ?", *container)
		}
		var rec lootsProduct
		res := q.Order("id").Limit(1).Find(&rec)
		if res.Error != nil {
			return Item{}, fmt.Errorf("failed to query item %q: %w", barcode, res.Error)
		}
		if res.RowsAffected == 0 {
			return Item{}, ErrNotFound
		}
		return rec.item(), nil
	}
	s.mode.mustValid()
	return Item{}, nil
}

// exact narrows a query to the row holding it.
func (s *Store) exact(db *gorm.DB, it Item) *gorm.DB {
	q := db.Model(s.itemModel()).Where("barcode = ?", it.Barcode)
	if s.mode == ModeLoots {
		q = q.Where("box_id = ?", it.ContainerID)
	}
	return q
}

// Increment adds one to the scanned quantity of an existing item.
// It returns ErrNotFound when nothing matches.
func (s *Store) Increment(ctx context.Context, barcode string, container, section *string, emit Emit) (Item, error) {
	barcode = NormalizeBarcode(barcode)
	container = NormalizeContainer(container)

	var out Item
	err := s.mutate(ctx, emit, func(tx *gorm.DB, logEntry func(LogEntry) error) error {
		it, err := s.find(tx, barcode, container)
		if err != nil {
			return err
		}
		out, err = s.apply(tx, it, it.ScannedQuantity+1, nil, section, logEntry)
		return err
	})
	if err != nil && !errors.Is(err, ErrNotFound) {
		return Item{}, &PersistenceError{Mode: s.mode, Barcode: barcode, Err: err}
	}
	return out, err
}

// CreateScanned records a first scan of an unknown barcode: the item is
// created with nothing expected and one unit counted. If the item appeared in
// the meantime it is incremented instead; created reports which happened.
func (s *Store) CreateScanned(ctx context.Context, barcode string, container, section *string, emit Emit) (it Item, created bool, err error) {
	barcode = NormalizeBarcode(barcode)
	container = NormalizeContainer(container)
	if barcode == "" {
		return Item{}, false, &ValidationError{Op: "create item", Err: errors.New("barcode is required")}
	}

	err = s.mutate(ctx, emit, func(tx *gorm.DB, logEntry func(LogEntry) error) error {
		existing, err := s.find(tx, barcode, container)
		if err == nil {
			it, err = s.apply(tx, existing, existing.ScannedQuantity+1, nil, section, logEntry)
			return err
		}
		if !errors.Is(err, ErrNotFound) {
			return err
		}

		now := s.now()
		it = Item{
			Mode:            s.mode,
			Barcode:         barcode,
			ScannedQuantity: 1,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if s.mode == ModeLoots {
			it.ContainerID = UnassignedContainer
			if container != nil {
				it.ContainerID = *container
			}
		}
		if err := tx.Create(s.record(it)).Error; err != nil {
			return fmt.Errorf("failed to create item: %w", err)
		}
		created = true
		return logEntry(s.entryFor(it, 0, nil, section))
	})
	if err != nil {
		return Item{}, false, &PersistenceError{Mode: s.mode, Barcode: barcode, Err: err}
	}
	return it, created, nil
}

// SetScannedQuantity is the manual edit path: it sets an absolute scanned
// quantity and logs the difference as a manual entry. Setting the current
// value again changes nothing and logs nothing. Loots edits must name the box.
func (s *Store) SetScannedQuantity(ctx context.Context, barcode string, container *string, value float64, section *string, emit Emit) (Item, error) {
	if value < 0 {
		return Item{}, &ValidationError{Op: "set scanned quantity", Err: ErrNegativeQuantity}
	}
	barcode = NormalizeBarcode(barcode)
	container = NormalizeContainer(container)
	if s.mode == ModeLoots && container == nil {
		return Item{}, &ValidationError{Op: "set scanned quantity", Err: ErrContainerRequired}
	}

	var out Item
	err := s.mutate(ctx, emit, func(tx *gorm.DB, logEntry func(LogEntry) error) error {
		it, err := s.find(tx, barcode, container)
		if err != nil {
			return err
		}
		if it.ScannedQuantity == value {
			out = it
			return nil
		}
		out, err = s.apply(tx, it, value, Ptr(true), section, logEntry)
		return err
	})
	if err != nil && !errors.Is(err, ErrNotFound) {
		return Item{}, &PersistenceError{Mode: s.mode, Barcode: barcode, Err: err}
	}
	return out, err
}

// apply writes a new scanned quantity and produces the matching log entry.
func (s *Store) apply(tx *gorm.DB, it Item, value float64, manual *bool, section *string, logEntry func(LogEntry) error) (Item, error) {
	previous := it.ScannedQuantity
	now := s.now()
	if now.Before(it.CreatedAt) {
		now = it.CreatedAt
	}

	res := s.exact(tx, it).Updates(map[string]any{
		"scanned_quantity": value,
		"updated_at":       now,
	})
	if res.Error != nil {
		return Item{}, fmt.Errorf("failed to update item: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return Item{}, ErrNotFound
	}

	it.ScannedQuantity = value
	it.UpdatedAt = now
	return it, logEntry(s.entryFor(it, previous, manual, section))
}

func (s *Store) entryFor(it Item, previous float64, manual *bool, section *string) LogEntry {
	e := LogEntry{
		Mode:      s.mode,
		Barcode:   it.Barcode,
		Previous:  previous,
		Delta:     it.ScannedQuantity - previous,
		Resulting: it.ScannedQuantity,
		Timestamp: it.UpdatedAt,
		IsManual:  manual,
		ProductID: it.ProductID,
	}
	if s.mode == ModeLoots {
		e.ContainerID = Ptr(it.ContainerID)
	} else {
		e.Section = NormalizeContainer(section)
	}
	return e
}

// mutate runs fn in one transaction under the write lock. Entries handed to
// logEntry are inserted in that transaction when emit is nil; otherwise they
// go to emit once the transaction has committed, before the lock is released.
func (s *Store) mutate(ctx context.Context, emit Emit, fn func(tx *gorm.DB, logEntry func(LogEntry) error) error) error {
	return s.Exclusive(ctx, func(db *gorm.DB) error {
		var committed []LogEntry
		err := db.Transaction(func(tx *gorm.DB) error {
			return fn(tx, func(e LogEntry) error {
				if emit == nil {
					return s.insertLogs(tx, []LogEntry{e})
				}
				committed = append(committed, e)
				return nil
			})
		})
		if err != nil {
			return err
		}
		for _, e := range committed {
			emit(e)
		}
		return nil
	})
}

func (s *Store) record(it Item) any {
	switch s.mode {
	case ModeStandard:
		return &standardProduct{Barcode: it.Barcode, ItemColumns: itemColumnsFrom(it)}
	case ModeLoots:
		return &lootsProduct{Barcode: it.Barcode, BoxID: it.ContainerID, ItemColumns: itemColumnsFrom(it)}
	}
	s.mode.mustValid()
	return nil
}

// Replace swaps the whole dataset for items in one transaction: logs are
// deleted, items are deleted, the new items are inserted. onCommit runs after
// a successful commit while the write lock is still held. On any failure the
// transaction is rolled back and the store is left as it was.
func (s *Store) Replace(ctx context.Context, items []Item, onCommit func()) error {
	err := s.Exclusive(ctx, func(db *gorm.DB) error {
		err := db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(s.logModel()).Error; err != nil {
				return fmt.Errorf("failed to clear logs: %w", err)
			}
			if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(s.itemModel()).Error; err != nil {
				return fmt.Errorf("failed to clear items: %w", err)
			}

			for start := 0; start < len(items); start += insertBatchSize {
				end := min(start+insertBatchSize, len(items))
				if err := tx.Create(s.records(items[start:end])).Error; err != nil {
					return fmt.Errorf("failed to insert items %d-%d: %w", start, end, err)
				}
			}
			return nil
		})
		if err == nil && onCommit != nil {
			onCommit()
		}
		return err
	})
	if err != nil {
		return &TransactionError{Mode: s.mode, Err: err}
	}
	return nil
}

const insertBatchSize = 200

func (s *Store) records(items []Item) any {
	switch s.mode {
	case ModeStandard:
		recs := make([]standardProduct, len(items))
		for i, it := range items {
			recs[i] = standardProduct{Barcode: it.Barcode, ItemColumns: itemColumnsFrom(it)}
		}
		return &recs
	case ModeLoots:
		recs := make([]lootsProduct, len(items))
		for i, it := range items {
			recs[i] = lootsProduct{Barcode: it.Barcode, BoxID: it.ContainerID, ItemColumns: itemColumnsFrom(it)}
		}
		return &recs
	}
	s.mode.mustValid()
	return nil
}

// Stats aggregates the dataset.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	db, err := s.handle(ctx)
	if err != nil {
		return Stats{}, err
	}

	var row struct {
		TotalExpected   float64
		TotalScanned    float64
		TotalBarcodes   int64
		ScannedBarcodes int64
	}
	err = db.Model(s.itemModel()).Select(
		"COALESCE(SUM(initial_quantity), 0) AS total_expected, " +
			"COALESCE(SUM(scanned_quantity), 0) AS total_scanned, " +
			"COUNT(*) AS total_barcodes, " +
			"COALESCE(SUM(CASE WHEN scanned_quantity > 0 THEN 1 ELSE 0 END), 0) AS scanned_barcodes",
	).Scan(&row).Error
	if err != nil {
		return Stats{}, fmt.Errorf("failed to compute %s stats: %w", s.mode, err)
	}

	return Stats{
		Mode:            s.mode,
		TotalExpected:   row.TotalExpected,
		TotalScanned:    row.TotalScanned,
		TotalBarcodes:   row.TotalBarcodes,
		ScannedBarcodes: row.ScannedBarcodes,
	}, nil
}

// Recent returns the most recently updated items, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Item, error) {
	db, err := s.handle(ctx)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 20
	}
	return s.scanItems(db.Order("updated_at DESC").Limit(limit))
}

// Containers lists the distinct containers of a Loots store, sorted.
// Standard stores have none.
func (s *Store) Containers(ctx context.Context) ([]string, error) {
	if !s.mode.UsesContainers() {
		return nil, nil
	}
	db, err := s.handle(ctx)
	if err != nil {
		return nil, err
	}
	var boxes []string
	if err := db.Model(&lootsProduct{}).Distinct("box_id").Order("box_id").Pluck("box_id", &boxes).Error; err != nil {
		return nil, fmt.Errorf("failed to list containers: %w", err)
	}
	return boxes, nil
}

// CountItems returns the number of items.
func (s *Store) CountItems(ctx context.Context) (int64, error) {
	db, err := s.handle(ctx)
	if err != nil {
		return 0, err
	}
	var n int64
	if err := db.Model(s.itemModel()).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count items: %w", err)
	}
	return n, nil
}

// EachItem streams all items in primary key order, batch by batch.
func (s *Store) EachItem(ctx context.Context, batchSize int, fn func([]Item) error) error {
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
		var batch []standardProduct
		res = db.FindInBatches(&batch, batchSize, func(tx *gorm.DB, _ int) error {
			items := make([]Item, len(batch))
			for i, r := range batch {
				items[i] = r.item()
			}
			return fn(items)
		})
	case ModeLoots:
		var batch []lootsProduct
		res = db.FindInBatches(&batch, batchSize, func(tx *gorm.DB, _ int) error {
			items := make([]Item, len(batch))
			for i, r := range batch {
				items[i] = r.item()
			}
			return fn(items)
		})
	default:
		s.mode.mustValid()
	}
	return res.Error
}

// ScannedIndex maps every item key to its scanned quantity.
func (s *Store) ScannedIndex(ctx context.Context) (map[Key]float64, error) {
	index := make(map[Key]float64)
	err := s.EachItem(ctx, 500, func(items []Item) error {
		for _, it := range items {
			index[it.Key()] = it.ScannedQuantity
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to index %s items: %w", s.mode, err)
	}
	return index, nil
}

// OverwriteScanned sets scanned quantities without logging. It exists to
// realign the cached count with the ledger, which is the source of truth.
func (s *Store) OverwriteScanned(ctx context.Context, values map[Key]float64) (int, error) {
	updated := 0
	err := s.Exclusive(ctx, func(db *gorm.DB) error {
		return db.Transaction(func(tx *gorm.DB) error {
			for key, value := range values {
				it := Item{Mode: s.mode, Barcode: key.Barcode, ContainerID: key.Container}
				res := s.exact(tx, it).Updates(map[string]any{
					"scanned_quantity": value,
					"updated_at":       s.now(),
				})
				if res.Error != nil {
					return fmt.Errorf("failed to overwrite %s: %w", key, res.Error)
				}
				updated += int(res.RowsAffected)
			}
			return nil
		})
	})
	if err != nil {
		return 0, &TransactionError{Mode: s.mode, Err: err}
	}
	return updated, nil
}

func (s *Store) scanItems(q *gorm.DB) ([]Item, error) {
	switch s.mode {
	case ModeStandard:
		var recs []standardProduct
		if err := q.Find(&recs).Error; err != nil {
			return nil, fmt.Errorf("failed to query items: %w", err)
		}
		items := make([]Item, len(recs))
		for i, r := range recs {
			items[i] = r.item()
		}
		return items, nil
	case ModeLoots:
		var recs []lootsProduct
		if err := q.Find(&recs).Error; err != nil {
			return nil, fmt.Errorf("failed to query items: %w", err)
		}
		items := make([]Item, len(recs))
		for i, r := range recs {
			items[i] = r.item()
		}
		return items, nil
	}
	s.mode.mustValid()
	return nil, nil
}
