package inventory

import (
	"fmt"

	"scanmate/core/database"

	"gorm.io/gorm"
)

// metadataColumns may be missing from store files written by older builds.
// Identity columns are not listed: a file without them is rejected.
var metadataColumns = []database.ColumnSpec{
	{Name: "product_id", Type: "INTEGER", Default: "0"},
	{Name: "name", Type: "TEXT", Default: "''"},
	{Name: "category", Type: "TEXT", Default: "''"},
	{Name: "uom", Type: "TEXT", Default: "''"},
	{Name: "location", Type: "TEXT", Default: "''"},
	{Name: "initial_quantity", Type: "REAL", Default: "0"},
	{Name: "scanned_quantity", Type: "REAL", Default: "0"},
	{Name: "compare_price", Type: "REAL", Default: "0"},
	{Name: "sale_price", Type: "REAL", Default: "0"},
	{Name: "variants_json", Type: "JSON", Default: "'[]'"},
	{Name: "employees_json", Type: "JSON", Default: "'[]'"},
	{Name: "created_at", Type: "DATETIME", Default: "'1970-01-01 00:00:00'"},
	{Name: "updated_at", Type: "DATETIME", Default: "'1970-01-01 00:00:00'"},
}

var logMetadataColumns = []database.ColumnSpec{
	{Name: "product_id", Type: "INTEGER", Default: "0"},
	{Name: "previous_value", Type: "REAL", Default: "0"},
	{Name: "delta", Type: "REAL", Default: "0"},
	{Name: "resulting_value", Type: "REAL", Default: "0"},
	{Name: "is_manual", Type: "NUMERIC"},
}

func (s *Store) itemModel() any {
	switch s.mode {
	case ModeStandard:
		return &standardProduct{}
	case ModeLoots:
		return &lootsProduct{}
	}
	s.mode.mustValid()
	return nil
}

func (s *Store) logModel() any {
	switch s.mode {
	case ModeStandard:
		return &standardLog{}
	case ModeLoots:
		return &lootsLog{}
	}
	s.mode.mustValid()
	return nil
}

func (s *Store) itemTable() string {
	if s.mode == ModeLoots {
		return lootsProduct{}.TableName()
	}
	return standardProduct{}.TableName()
}

func (s *Store) logTable() string {
	if s.mode == ModeLoots {
		return lootsLog{}.TableName()
	}
	return standardLog{}.TableName()
}

// ensureSchema creates missing tables and indexes and adds metadata columns
// an existing table lacks. It never alters or drops existing columns, so it is
// safe to run on every open.
func ensureSchema(db *gorm.DB, s *Store) ([]string, error) {
	var changes []string

	tables := []struct {
		model    any
		name     string
		extra    []database.ColumnSpec
		identity []string
	}{
		{s.itemModel(), s.itemTable(), metadataColumns, s.itemIdentityColumns()},
		{s.logModel(), s.logTable(), s.logColumns(), []string{"id", "barcode"}},
	}

	for _, t := range tables {
		if !db.Migrator().HasTable(t.name) {
			if err := db.Migrator().CreateTable(t.model); err != nil {
				return changes, fmt.Errorf("failed to create table %s: %w", t.name, err)
			}
			changes = append(changes, "created table "+t.name)
			continue
		}

		for _, col := range t.identity {
			if !db.Migrator().HasColumn(t.model, col) {
				return changes, fmt.Errorf("table %s lacks identity column %s", t.name, col)
			}
		}

		added, err := database.AddMissingColumns(db, t.name, t.extra)
		changes = append(changes, added...)
		if err != nil {
			return changes, err
		}
	}

	if s.mode == ModeLoots && !db.Migrator().HasIndex(&lootsProduct{}, "idx_loots_barcode_box") {
		if err := db.Migrator().CreateIndex(&lootsProduct{}, "idx_loots_barcode_box"); err != nil {
			return changes, fmt.Errorf("failed to create identity index: %w", err)
		}
		changes = append(changes, "created index idx_loots_barcode_box")
	}

	// Rows written before the blob columns existed carry NULL, which the
	// JSON scanner rejects.
	for _, col := range []string{"variants_json", "employees_json"} {
		if err := db.Exec(fmt.Sprintf("UPDATE %s SET %s = '[]' WHERE %s IS NULL", s.itemTable(), col, col)).Error; err != nil {
			return changes, fmt.Errorf("failed to backfill %s: %w", col, err)
		}
	}

	return changes, nil
}

func (s *Store) itemIdentityColumns() []string {
	if s.mode == ModeLoots {
		return []string{"id", "barcode", "box_id"}
	}
	return []string{"barcode"}
}

func (s *Store) logColumns() []database.ColumnSpec {
	cols := append([]database.ColumnSpec{}, logMetadataColumns...)
	cols = append(cols, database.ColumnSpec{Name: "logged_at", Type: "DATETIME", Default: "'1970-01-01 00:00:00'"})
	if s.mode == ModeLoots {
		return append(cols, database.ColumnSpec{Name: "box_id", Type: "TEXT"})
	}
	return append(cols, database.ColumnSpec{Name: "section", Type: "TEXT"})
}
