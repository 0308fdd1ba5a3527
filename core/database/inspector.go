package database

import (
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// ColumnInfo matches the output of SHOW COLUMNS.
type ColumnInfo struct {
	Field   string
	Type    string
	Null    string
	Key     string
	Default *string
	Extra   string
}

// ColumnSpec describes a column a table is expected to carry.
type ColumnSpec struct {
	Name    string
	Type    string
	Default string
}

// GetTableColumns retrieves the column definitions for a given table.
func GetTableColumns(db *gorm.DB, tableName string) ([]ColumnInfo, error) {
	var columns []ColumnInfo
	if db.Dialector.Name() == "sqlite" {
		type sqliteColumn struct {
			Cid       int
			Name      string
			Type      string
			Notnull   int
			DfltValue *string
			Pk        int
		}
		var sqliteCols []sqliteColumn
		if err := db.Raw(fmt.Sprintf("PRAGMA table_info('%s')", tableName)).Scan(&sqliteCols).Error; err != nil {
			return nil, fmt.Errorf("failed to get columns for table %s: %w", tableName, err)
		}
		for _, col := range sqliteCols {
			info := ColumnInfo{
				Field:   strings.ToLower(col.Name),
				Type:    strings.ToLower(col.Type),
				Default: col.DfltValue,
			}
			if col.Pk > 0 {
				info.Key = "PRI"
			}
			if col.Notnull == 0 {
				info.Null = "YES"
			} else {
				info.Null = "NO"
			}
			columns = append(columns, info)
		}
		return columns, nil
	}

	err := db.Raw(fmt.Sprintf("SHOW COLUMNS FROM `%s`", tableName)).Scan(&columns).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get columns for table %s: %w", tableName, err)
	}
	for i := range columns {
		columns[i].Type = strings.ToLower(columns[i].Type)
		columns[i].Field = strings.ToLower(columns[i].Field)
	}
	return columns, nil
}

// AddMissingColumns adds every expected column the table lacks and returns
// a description of each change. Existing columns are never altered.
func AddMissingColumns(db *gorm.DB, tableName string, expected []ColumnSpec) ([]string, error) {
	columns, err := GetTableColumns(db, tableName)
	if err != nil {
		return nil, err
	}

	present := make(map[string]struct{}, len(columns))
	for _, col := range columns {
		present[col.Field] = struct{}{}
	}

	var changes []string
	for _, spec := range expected {
		if _, ok := present[strings.ToLower(spec.Name)]; ok {
			continue
		}

		defaultClause := ""
		if spec.Default != "" {
			defaultClause = " DEFAULT " + spec.Default
		}

		alterSQL := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s%s", tableName, spec.Name, spec.Type, defaultClause)
		if err := db.Exec(alterSQL).Error; err != nil {
			return changes, fmt.Errorf("failed to add column %s.%s: %w", tableName, spec.Name, err)
		}
		changes = append(changes, fmt.Sprintf("added column %s.%s (%s)", tableName, spec.Name, spec.Type))
	}

	return changes, nil
}
