package exporter

import (
	"strings"
	"time"

	"scanmate/feature/inventory"
)

// TimestampLayout is the wall-clock layout used in JSON exports and uploads.
const TimestampLayout = "2006-01-02 15:04:05"

// Timestamp marshals as TimestampLayout in UTC.
type Timestamp time.Time

func (t Timestamp) MarshalJSON() ([]byte, error) {
	return []byte(`"` + time.Time(t).UTC().Format(TimestampLayout) + `"`), nil
}

// DatasetRow is the exported shape of one item.
type DatasetRow struct {
	Barcode          string              `json:"barcode"`
	ContainerID      string              `json:"boxId,omitempty"`
	ExpectedQuantity float64             `json:"initialQuantity"`
	ScannedQuantity  float64             `json:"scannedQuantity"`
	Difference       float64             `json:"difference"`
	Name             string              `json:"name"`
	Category         string              `json:"category"`
	UnitOfMeasure    string              `json:"uom"`
	Location         string              `json:"location"`
	ComparePrice     float64             `json:"comparePrice"`
	SalePrice        float64             `json:"salePrice"`
	Variants         []inventory.Variant `json:"variants"`
	EmployeeIDs      []int               `json:"employeeIds"`
	ProductID        int                 `json:"productId"`
	CreatedAt        Timestamp           `json:"createdAt"`
	UpdatedAt        Timestamp           `json:"updatedAt"`

	created, updated time.Time
}

// NewDatasetRow converts an item to its exported shape.
func NewDatasetRow(it inventory.Item) DatasetRow {
	return DatasetRow{
		Barcode:          it.Barcode,
		ContainerID:      it.ContainerID,
		ExpectedQuantity: it.ExpectedQuantity,
		ScannedQuantity:  it.ScannedQuantity,
		Difference:       it.ScannedQuantity - it.ExpectedQuantity,
		Name:             it.Name,
		Category:         it.Category,
		UnitOfMeasure:    it.UnitOfMeasure,
		Location:         it.Location,
		ComparePrice:     it.ComparePrice,
		SalePrice:        it.SalePrice,
		Variants:         nonNil(it.Variants),
		EmployeeIDs:      nonNil(it.EmployeeIDs),
		ProductID:        it.ProductID,
		CreatedAt:        Timestamp(it.CreatedAt),
		UpdatedAt:        Timestamp(it.UpdatedAt),
		created:          it.CreatedAt,
		updated:          it.UpdatedAt,
	}
}

// LogRow is the exported shape of one log entry.
type LogRow struct {
	Barcode     string    `json:"barcode"`
	ContainerID string    `json:"boxId,omitempty"`
	ProductID   int       `json:"productId"`
	Previous    float64   `json:"was"`
	Delta       float64   `json:"incrementBy"`
	Resulting   float64   `json:"isValue"`
	IsManual    bool      `json:"isManual"`
	Section     string    `json:"section,omitempty"`
	Timestamp   Timestamp `json:"updatedAt"`

	at time.Time
}

// NewLogRow converts a log entry to its exported shape.
func NewLogRow(e inventory.LogEntry) LogRow {
	r := LogRow{
		Barcode:   e.Barcode,
		ProductID: e.ProductID,
		Previous:  e.Previous,
		Delta:     e.Delta,
		Resulting: e.Resulting,
		IsManual:  e.IsManual != nil && *e.IsManual,
		Timestamp: Timestamp(e.Timestamp),
		at:        e.Timestamp,
	}
	if e.ContainerID != nil {
		r.ContainerID = *e.ContainerID
	}
	if e.Section != nil {
		r.Section = *e.Section
	}
	return r
}

// sheet columns; the container column is only written for Loots.
func datasetHeader(mode inventory.Mode) []any {
	h := []any{"Barcode"}
	if mode.UsesContainers() {
		h = append(h, "Box_Id")
	}
	return append(h, "InitialQuantity", "ScannedQuantity", "Difference", "Name", "Category",
		"Uom", "Location", "ComparePrice", "SalePrice", "Variants", "ProductId", "CreatedAt", "UpdatedAt")
}

func (r DatasetRow) cells(mode inventory.Mode) []any {
	c := []any{r.Barcode}
	if mode.UsesContainers() {
		c = append(c, r.ContainerID)
	}
	return append(c, r.ExpectedQuantity, r.ScannedQuantity, r.Difference, r.Name, r.Category,
		r.UnitOfMeasure, r.Location, r.ComparePrice, r.SalePrice, formatVariants(r.Variants), r.ProductID,
		isoTime(r.created), isoTime(r.updated))
}

func logHeader(mode inventory.Mode) []any {
	h := []any{"Barcode"}
	if mode.UsesContainers() {
		h = append(h, "Box_Id")
	}
	h = append(h, "ProductId", "Was", "IncrementBy", "IsValue", "IsManual")
	if !mode.UsesContainers() {
		h = append(h, "Section")
	}
	return append(h, "UpdatedAt")
}

func (r LogRow) cells(mode inventory.Mode) []any {
	c := []any{r.Barcode}
	if mode.UsesContainers() {
		c = append(c, r.ContainerID)
	}
	c = append(c, r.ProductID, r.Previous, r.Delta, r.Resulting, r.IsManual)
	if !mode.UsesContainers() {
		c = append(c, r.Section)
	}
	return append(c, isoTime(r.at))
}

func isoTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func formatVariants(vs []inventory.Variant) string {
	parts := make([]string, 0, len(vs))
	for _, v := range vs {
		if v.Name == "" {
			parts = append(parts, v.Value)
			continue
		}
		parts = append(parts, v.Name+": "+v.Value)
	}
	return strings.Join(parts, ", ")
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
