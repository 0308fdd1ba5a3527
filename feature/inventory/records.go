package inventory

import (
	"time"

	"gorm.io/datatypes"
)

// ItemColumns are shared by both item tables. Exported because gorm only
// flattens exported embedded structs.
type ItemColumns struct {
	ProductID       int `gorm:"column:product_id"`
	Name            string
	Category        string
	Uom             string
	Location        string
	InitialQuantity float64 `gorm:"not null"`
	ScannedQuantity float64 `gorm:"not null"`
	ComparePrice    float64
	SalePrice       float64
	VariantsJSON    datatypes.JSONSlice[Variant] `gorm:"column:variants_json"`
	EmployeesJSON   datatypes.JSONSlice[int]     `gorm:"column:employees_json"`
	CreatedAt       time.Time                    `gorm:"autoCreateTime:false"`
	UpdatedAt       time.Time                    `gorm:"autoUpdateTime:false"`
}

type standardProduct struct {
	Barcode     string `gorm:"primaryKey"`
	ItemColumns `gorm:"embedded"`
}

func (standardProduct) TableName() string { return "products" }

type lootsProduct struct {
	ID          uint   `gorm:"primaryKey;autoIncrement"`
	Barcode     string `gorm:"not null;uniqueIndex:idx_loots_barcode_box"`
	BoxID       string `gorm:"column:box_id;not null;uniqueIndex:idx_loots_barcode_box"`
	ItemColumns `gorm:"embedded"`
}

func (lootsProduct) TableName() string { return "loots_products" }

// LogColumns are shared by both log tables.
type LogColumns struct {
	ID             uint   `gorm:"primaryKey;autoIncrement"`
	Barcode        string `gorm:"not null;index"`
	ProductID      int    `gorm:"column:product_id"`
	PreviousValue  float64
	Delta          float64
	ResultingValue float64
	IsManual       *bool
	LoggedAt       time.Time `gorm:"not null"`
}

type standardLog struct {
	LogColumns `gorm:"embedded"`
	Section    *string
}

func (standardLog) TableName() string { return "scan_logs" }

type lootsLog struct {
	LogColumns `gorm:"embedded"`
	BoxID      *string `gorm:"column:box_id;index"`
}

func (lootsLog) TableName() string { return "loots_scan_logs" }

func itemColumnsFrom(it Item) ItemColumns {
	variants := it.Variants
	if variants == nil {
		variants = []Variant{}
	}
	employees := it.EmployeeIDs
	if employees == nil {
		employees = []int{}
	}
	return ItemColumns{
		ProductID:       it.ProductID,
		Name:            it.Name,
		Category:        it.Category,
		Uom:             it.UnitOfMeasure,
		Location:        it.Location,
		InitialQuantity: it.ExpectedQuantity,
		ScannedQuantity: it.ScannedQuantity,
		ComparePrice:    it.ComparePrice,
		SalePrice:       it.SalePrice,
		VariantsJSON:    datatypes.NewJSONSlice(variants),
		EmployeesJSON:   datatypes.NewJSONSlice(employees),
		CreatedAt:       it.CreatedAt.UTC(),
		UpdatedAt:       it.UpdatedAt.UTC(),
	}
}

func (c ItemColumns) item(mode Mode, barcode, container string) Item {
	return Item{
		Mode:             mode,
		Barcode:          barcode,
		ContainerID:      container,
		ExpectedQuantity: c.InitialQuantity,
		ScannedQuantity:  c.ScannedQuantity,
		CreatedAt:        c.CreatedAt.UTC(),
		UpdatedAt:        c.UpdatedAt.UTC(),
		Name:             c.Name,
		Category:         c.Category,
		UnitOfMeasure:    c.Uom,
		Location:         c.Location,
		ComparePrice:     c.ComparePrice,
		SalePrice:        c.SalePrice,
		Variants:         []Variant(c.VariantsJSON),
		EmployeeIDs:      []int(c.EmployeesJSON),
		ProductID:        c.ProductID,
	}
}

func (r standardProduct) item() Item {
	return r.ItemColumns.item(ModeStandard, r.Barcode, "")
}

func (r lootsProduct) item() Item {
	return r.ItemColumns.item(ModeLoots, r.Barcode, r.BoxID)
}

func logColumnsFrom(e LogEntry) LogColumns {
	return LogColumns{
		Barcode:        e.Barcode,
		ProductID:      e.ProductID,
		PreviousValue:  e.Previous,
		Delta:          e.Delta,
		ResultingValue: e.Resulting,
		IsManual:       e.IsManual,
		LoggedAt:       e.Timestamp.UTC(),
	}
}

func (c LogColumns) entry(mode Mode) LogEntry {
	return LogEntry{
		Mode:      mode,
		Barcode:   c.Barcode,
		Previous:  c.PreviousValue,
		Delta:     c.Delta,
		Resulting: c.ResultingValue,
		Timestamp: c.LoggedAt.UTC(),
		IsManual:  c.IsManual,
		ProductID: c.ProductID,
	}
}

func (r standardLog) entry() LogEntry {
	e := r.LogColumns.entry(ModeStandard)
	e.Section = r.Section
	return e
}

func (r lootsLog) entry() LogEntry {
	e := r.LogColumns.entry(ModeLoots)
	e.ContainerID = r.BoxID
	return e
}
