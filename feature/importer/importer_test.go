package importer_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"scanmate/core/database"
	"scanmate/feature/importer"
	"scanmate/feature/inventory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

type dropRecorder struct {
	mu      sync.Mutex
	dropped []inventory.Mode
}

func (d *dropRecorder) DropMode(mode inventory.Mode) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dropped = append(d.dropped, mode)
}

type archiveRecorder struct {
	kinds []string
	paths []string
}

func (a *archiveRecorder) ArchiveFile(_ context.Context, _ inventory.Mode, kind, path string) error {
	a.kinds = append(a.kinds, kind)
	a.paths = append(a.paths, path)
	return nil
}

func memoryRouter(t *testing.T) *inventory.Router {
	t.Helper()
	open := func(mode inventory.Mode) *inventory.Store {
		db, err := database.Connect(database.Config{Name: database.MemoryDSN})
		require.NoError(t, err)
		s, err := inventory.NewStore(mode, db, zap.NewNop())
		require.NoError(t, err)
		return s
	}
	r := inventory.NewRouter(open(inventory.ModeStandard), open(inventory.ModeLoots))
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func fileConfig(dir string) database.Config {
	return database.Config{
		Driver:       "sqlite",
		DataDir:      dir,
		StandardFile: "standard.db",
		LootsFile:    "loots.db",
	}
}

func workbook(t *testing.T, rows [][]any) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf
}

func TestSpreadsheet_SkipsBlankBarcodes(t *testing.T) {
	ctx := context.Background()
	router := memoryRouter(t)
	drops := &dropRecorder{}
	loader := importer.New(router, drops, zap.NewNop())

	book := workbook(t, [][]any{
		{"Barcode", "Quantity", "Name"},
		{"111", 3, "Shirt"},
		{"222", 1, "Hat"},
		{"   ", 9, "Ghost"},
		{"333", "2,5", "Fabric"},
	})

	res, err := loader.ReplaceDataset(ctx, inventory.ModeStandard, importer.Spreadsheet(book))
	require.NoError(t, err)
	assert.Equal(t, 3, res.Imported)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, "spreadsheet", res.Source)
	assert.Equal(t, []inventory.Mode{inventory.ModeStandard}, drops.dropped)

	store := router.Store(inventory.ModeStandard)
	count, err := store.CountItems(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	fabric, err := store.Find(ctx, "333", nil)
	require.NoError(t, err)
	assert.Equal(t, 2.5, fabric.ExpectedQuantity)
	assert.Zero(t, fabric.ScannedQuantity)
	assert.Equal(t, fabric.CreatedAt, fabric.UpdatedAt)
}

func TestSpreadsheet_LegacyColumns(t *testing.T) {
	ctx := context.Background()
	router := memoryRouter(t)
	loader := importer.New(router, nil, zap.NewNop())

	book := workbook(t, [][]any{
		{"Barcode", "Quantity", "Name", "Color", "Size", "Price", "ArticCode", "Box_Id"},
		{"111", 2, "Shirt", "red", "XL", "19,90", "A-17", "BOX-1"},
		{"222", 1, "Hat", "", "", "", "", ""},
	})

	_, err := loader.ReplaceDataset(ctx, inventory.ModeLoots, importer.Spreadsheet(book))
	require.NoError(t, err)

	store := router.Store(inventory.ModeLoots)
	shirt, err := store.Find(ctx, "111", inventory.Ptr("BOX-1"))
	require.NoError(t, err)
	assert.Equal(t, 19.9, shirt.SalePrice)
	assert.Equal(t, []inventory.Variant{
		{Name: importer.VariantColor, Value: "red"},
		{Name: importer.VariantSize, Value: "XL"},
		{Name: importer.VariantArticle, Value: "A-17"},
	}, shirt.Variants)
	assert.Empty(t, shirt.Category)

	hat, err := store.Find(ctx, "222", nil)
	require.NoError(t, err)
	assert.Equal(t, inventory.UnassignedContainer, hat.ContainerID)
	assert.Empty(t, hat.Variants)
}

func TestSpreadsheet_RequiresBarcodeColumn(t *testing.T) {
	router := memoryRouter(t)
	loader := importer.New(router, nil, zap.NewNop())

	book := workbook(t, [][]any{{"Code", "Quantity"}, {"1", 1}})
	_, err := loader.ReplaceDataset(context.Background(), inventory.ModeStandard, importer.Spreadsheet(book))

	var verr *inventory.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestSpreadsheet_Garbage(t *testing.T) {
	router := memoryRouter(t)
	loader := importer.New(router, nil, zap.NewNop())

	_, err := loader.ReplaceDataset(context.Background(), inventory.ModeStandard, importer.Spreadsheet(strings.NewReader("not a workbook")))
	var verr *inventory.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestJSON_Tolerant(t *testing.T) {
	doc := `[
		{"Barcode": "111", "InitialQuantity": "4", "ScannedQuantity": 9, "comparePrice": "abc",
		 "salePrice": 12.5, "variants": [{"name": "size", "value": "M"}], "employeeIds": [1, "2", "x"],
		 "createdAt": "2024-03-01 10:00:00"},
		{"product_id": 77, "barcode": "222", "qty": 2, "uom": "pcs", "compare_price": 30,
		 "sale_price": 25, "employee_ids": "5", "variants": {"color": "blue"}, "location": "A1"},
		{"barcode": null, "qty": 1},
		{"barcode": 333, "quantity": true, "employee_ids": null, "variants": "weird"}
	]`

	rows, err := importer.DecodeRows([]byte(doc))
	require.NoError(t, err)
	require.Len(t, rows, 4)

	assert.Equal(t, "111", rows[0].Barcode)
	assert.Equal(t, 4.0, rows[0].Quantity)
	assert.Zero(t, rows[0].ComparePrice)
	assert.Equal(t, 12.5, rows[0].SalePrice)
	assert.Equal(t, []inventory.Variant{{Name: "size", Value: "M"}}, rows[0].Variants)
	assert.Equal(t, []int{1, 2}, rows[0].EmployeeIDs)
	require.NotNil(t, rows[0].CreatedAt)
	assert.Equal(t, 2024, rows[0].CreatedAt.Year())
	assert.Nil(t, rows[0].UpdatedAt)

	assert.Equal(t, 77, rows[1].ProductID)
	assert.Equal(t, 2.0, rows[1].Quantity)
	assert.Equal(t, "pcs", rows[1].UnitOfMeasure)
	assert.Equal(t, 30.0, rows[1].ComparePrice)
	assert.Equal(t, 25.0, rows[1].SalePrice)
	assert.Equal(t, []int{5}, rows[1].EmployeeIDs)
	assert.Equal(t, []inventory.Variant{{Name: "color", Value: "blue"}}, rows[1].Variants)

	assert.Empty(t, rows[2].Barcode)

	assert.Equal(t, "333", rows[3].Barcode)
	assert.Zero(t, rows[3].Quantity)
	assert.Empty(t, rows[3].EmployeeIDs)
	assert.Empty(t, rows[3].Variants)
}

func TestJSON_NotAnArray(t *testing.T) {
	for _, doc := range []string{``, `null`, `{"barcode":"1"}`, `[{"barcode":`} {
		_, err := importer.DecodeRows([]byte(doc))
		var verr *inventory.ValidationError
		assert.ErrorAs(t, err, &verr, doc)
	}
}

func TestParseEmployeeIDs(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want []int
	}{
		{"nil", nil, []int{}},
		{"false", false, []int{}},
		{"number", 7.0, []int{7}},
		{"string", "12", []int{12}},
		{"bad string", "twelve", []int{}},
		{"fraction", 1.5, []int{}},
		{"array", []any{1.0, "2", "x", nil, []any{3.0}}, []int{1, 2}},
		{"object", map[string]any{"id": 1.0}, []int{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, importer.ParseEmployeeIDs(tt.in))
		})
	}
}

func TestReplaceDataset_DuplicatesLastWins(t *testing.T) {
	ctx := context.Background()
	router := memoryRouter(t)
	loader := importer.New(router, nil, zap.NewNop())

	res, err := loader.ReplaceDataset(ctx, inventory.ModeStandard, importer.Rows{
		{Barcode: "1", Quantity: 1, Name: "first"},
		{Barcode: "2", Quantity: 1},
		{Barcode: " 1 ", Quantity: 5, Name: "second"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Imported)
	assert.Equal(t, 1, res.Duplicates)

	it, err := router.Store(inventory.ModeStandard).Find(ctx, "1", nil)
	require.NoError(t, err)
	assert.Equal(t, "second", it.Name)
	assert.Equal(t, 5.0, it.ExpectedQuantity)
}

func TestReplaceDataset_NoValidRowsLeavesStore(t *testing.T) {
	ctx := context.Background()
	router := memoryRouter(t)
	drops := &dropRecorder{}
	loader := importer.New(router, drops, zap.NewNop())
	store := router.Store(inventory.ModeStandard)

	_, err := loader.ReplaceDataset(ctx, inventory.ModeStandard, importer.Rows{{Barcode: "keep", Quantity: 1}})
	require.NoError(t, err)
	_, err = store.Increment(ctx, "keep", nil, nil, nil)
	require.NoError(t, err)

	_, err = loader.ReplaceDataset(ctx, inventory.ModeStandard, importer.Rows{
		{Barcode: ""},
		{Barcode: "neg", Quantity: -1},
	})
	require.ErrorIs(t, err, inventory.ErrNoValidRows)
	var verr *inventory.ValidationError
	assert.ErrorAs(t, err, &verr)

	it, err := store.Find(ctx, "keep", nil)
	require.NoError(t, err)
	assert.Equal(t, 1.0, it.ScannedQuantity)
	logs, err := store.CountLogs(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), logs)
	assert.Len(t, drops.dropped, 1)
}

func TestReplaceDataset_ClearsLogsAndCounts(t *testing.T) {
	ctx := context.Background()
	router := memoryRouter(t)
	loader := importer.New(router, nil, zap.NewNop())
	store := router.Store(inventory.ModeLoots)

	_, err := loader.ReplaceDataset(ctx, inventory.ModeLoots, importer.Rows{{Barcode: "1", ContainerID: "A", Quantity: 2}})
	require.NoError(t, err)
	_, err = store.Increment(ctx, "1", inventory.Ptr("A"), nil, nil)
	require.NoError(t, err)

	_, err = loader.ReplaceDataset(ctx, inventory.ModeLoots, importer.Rows{{Barcode: "1", ContainerID: "A", Quantity: 3}})
	require.NoError(t, err)

	it, err := store.Find(ctx, "1", inventory.Ptr("A"))
	require.NoError(t, err)
	assert.Zero(t, it.ScannedQuantity)
	assert.Equal(t, 3.0, it.ExpectedQuantity)

	logs, err := store.CountLogs(ctx)
	require.NoError(t, err)
	assert.Zero(t, logs)
}

func TestReplaceStoreFile(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	router, err := inventory.OpenRouter(fileConfig(dir), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = router.Close() })

	archive := &archiveRecorder{}
	drops := &dropRecorder{}
	loader := importer.New(router, drops, zap.NewNop()).WithArchive(archive)

	_, err = loader.ReplaceDataset(ctx, inventory.ModeStandard, importer.Rows{{Barcode: "old", Quantity: 1}})
	require.NoError(t, err)

	// Build the replacement in another directory
	otherDir := t.TempDir()
	other, err := inventory.OpenStore(inventory.ModeStandard, fileConfig(otherDir).WithFile("standard.db"), zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, other.Replace(ctx, []inventory.Item{
		{Mode: inventory.ModeStandard, Barcode: "new-1", ExpectedQuantity: 1},
		{Mode: inventory.ModeStandard, Barcode: "new-2", ExpectedQuantity: 2},
	}, nil))
	require.NoError(t, other.Close())

	data, err := os.ReadFile(filepath.Join(otherDir, "standard.db"))
	require.NoError(t, err)

	res, err := loader.ReplaceStoreFile(ctx, inventory.ModeStandard, bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 2, res.Imported)

	store := router.Store(inventory.ModeStandard)
	_, err = store.Find(ctx, "new-2", nil)
	assert.NoError(t, err)
	_, err = store.Find(ctx, "old", nil)
	assert.ErrorIs(t, err, inventory.ErrNotFound)

	backup := filepath.Join(dir, "standard.db.bak")
	assert.FileExists(t, backup)
	assert.NoFileExists(t, filepath.Join(dir, "standard.db.incoming"))
	assert.Equal(t, []string{"store-backup"}, archive.kinds)
	assert.Equal(t, []string{backup}, archive.paths)
}

func TestReplaceStoreFile_RejectsGarbage(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	router, err := inventory.OpenRouter(fileConfig(dir), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = router.Close() })

	loader := importer.New(router, nil, zap.NewNop())
	_, err = loader.ReplaceDataset(ctx, inventory.ModeLoots, importer.Rows{{Barcode: "keep", Quantity: 1}})
	require.NoError(t, err)

	_, err = loader.ReplaceStoreFile(ctx, inventory.ModeLoots, strings.NewReader("definitely not sqlite"))
	var verr *inventory.ValidationError
	require.ErrorAs(t, err, &verr)

	_, err = router.Store(inventory.ModeLoots).Find(ctx, "keep", nil)
	assert.NoError(t, err)
	assert.NoFileExists(t, filepath.Join(dir, "loots.db.bak"))
}

func TestReplaceStoreFile_InMemory(t *testing.T) {
	loader := importer.New(memoryRouter(t), nil, zap.NewNop())
	_, err := loader.ReplaceStoreFile(context.Background(), inventory.ModeStandard, strings.NewReader(""))
	var verr *inventory.ValidationError
	assert.ErrorAs(t, err, &verr)
}
