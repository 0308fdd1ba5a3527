package database

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func TestGetTableColumns(t *testing.T) {
	db, err := Connect(Config{Driver: "sqlite", Name: MemoryDSN})
	require.NoError(t, err)

	err = db.Exec("CREATE TABLE test_items (id INTEGER PRIMARY KEY, name TEXT NOT NULL, qty REAL DEFAULT 0)").Error
	require.NoError(t, err)

	columns, err := GetTableColumns(db, "test_items")
	assert.NoError(t, err)
	assert.Len(t, columns, 3)

	colMap := make(map[string]ColumnInfo)
	for _, col := range columns {
		colMap[col.Field] = col
	}

	assert.Equal(t, "integer", colMap["id"].Type)
	assert.Equal(t, "PRI", colMap["id"].Key)
	assert.Equal(t, "text", colMap["name"].Type)
	assert.Equal(t, "NO", colMap["name"].Null)
	require.NotNil(t, colMap["qty"].Default)
	assert.Equal(t, "0", *colMap["qty"].Default)

	// PRAGMA table_info yields nothing for unknown tables
	cols, err := GetTableColumns(db, "non_existent")
	assert.NoError(t, err)
	assert.Empty(t, cols)
}

func TestAddMissingColumns(t *testing.T) {
	db, err := Connect(Config{Driver: "sqlite", Name: MemoryDSN})
	require.NoError(t, err)
	require.NoError(t, db.Exec("CREATE TABLE products (barcode TEXT PRIMARY KEY, name TEXT)").Error)

	expected := []ColumnSpec{
		{Name: "name", Type: "TEXT"},
		{Name: "location", Type: "TEXT"},
		{Name: "sale_price", Type: "REAL", Default: "0"},
	}

	changes, err := AddMissingColumns(db, "products", expected)
	require.NoError(t, err)
	assert.Len(t, changes, 2)

	// Second pass is a no-op
	changes, err = AddMissingColumns(db, "products", expected)
	require.NoError(t, err)
	assert.Empty(t, changes)

	cols, err := GetTableColumns(db, "products")
	require.NoError(t, err)
	assert.Len(t, cols, 4)
}

func TestAddMissingColumns_MySQL(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock: %v", err)
	}
	defer sqlDB.Close()

	gormDB, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{})
	require.NoError(t, err)

	mock.ExpectQuery("SHOW COLUMNS FROM `products`").
		WillReturnRows(sqlmock.NewRows([]string{"Field", "Type", "Null", "Key", "Default", "Extra"}).
			AddRow("Barcode", "VARCHAR(64)", "NO", "PRI", nil, ""))
	mock.ExpectExec("ALTER TABLE products ADD COLUMN uom TEXT").
		WillReturnResult(sqlmock.NewResult(0, 0))

	changes, err := AddMissingColumns(gormDB, "products", []ColumnSpec{
		{Name: "barcode", Type: "VARCHAR(64)"},
		{Name: "uom", Type: "TEXT"},
	})
	assert.NoError(t, err)
	assert.Equal(t, []string{"added column products.uom (TEXT)"}, changes)
	assert.NoError(t, mock.ExpectationsWereMet())
}
