package inventory

import (
	"strings"
	"time"

	"golang.org/x/text/width"
)

// Variant is one attribute/value pair of a product variant (e.g. size=XL).
type Variant struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Item is a value snapshot of one inventory row.
type Item struct {
	Mode             Mode      `json:"mode"`
	Barcode          string    `json:"barcode"`
	ContainerID      string    `json:"containerId,omitempty"`
	ExpectedQuantity float64   `json:"expectedQuantity"`
	ScannedQuantity  float64   `json:"scannedQuantity"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
	Name             string    `json:"name"`
	Category         string    `json:"category"`
	UnitOfMeasure    string    `json:"unitOfMeasure"`
	Location         string    `json:"location"`
	ComparePrice     float64   `json:"comparePrice"`
	SalePrice        float64   `json:"salePrice"`
	Variants         []Variant `json:"variants"`
	EmployeeIDs      []int     `json:"employeeIds"`
	ProductID        int       `json:"productId"`
}

// Key returns the identity of the item within its mode.
func (it Item) Key() Key {
	if it.Mode.UsesContainers() {
		return Key{Barcode: it.Barcode, Container: it.ContainerID}
	}
	return Key{Barcode: it.Barcode}
}

// Remaining is how many units are still expected but not yet counted.
func (it Item) Remaining() float64 {
	return it.ExpectedQuantity - it.ScannedQuantity
}

// LogEntry is one append-only quantity change.
// IsManual is nil for scans and set for operator edits.
type LogEntry struct {
	Mode        Mode      `json:"mode"`
	Barcode     string    `json:"barcode"`
	ContainerID *string   `json:"containerId,omitempty"`
	Previous    float64   `json:"previousValue"`
	Delta       float64   `json:"delta"`
	Resulting   float64   `json:"resultingValue"`
	Timestamp   time.Time `json:"timestamp"`
	IsManual    *bool     `json:"isManual,omitempty"`
	Section     *string   `json:"section,omitempty"`
	ProductID   int       `json:"productId"`
}

// Key returns the identity of the item the entry belongs to.
func (e LogEntry) Key() Key {
	if e.Mode.UsesContainers() && e.ContainerID != nil {
		return Key{Barcode: e.Barcode, Container: *e.ContainerID}
	}
	return Key{Barcode: e.Barcode}
}

// Key identifies an item inside one mode.
type Key struct {
	Barcode   string
	Container string
}

func (k Key) String() string {
	if k.Container == "" {
		return k.Barcode
	}
	return k.Barcode + " @ " + k.Container
}

// Stats aggregates one mode's dataset.
type Stats struct {
	Mode            Mode    `json:"mode"`
	TotalExpected   float64 `json:"totalExpected"`
	TotalScanned    float64 `json:"totalScanned"`
	TotalBarcodes   int64   `json:"totalBarcodes"`
	ScannedBarcodes int64   `json:"scannedBarcodes"`
}

// NormalizeBarcode trims a raw read and folds full-width characters, which
// some scanner keyboard wedges emit, to their ASCII form.
func NormalizeBarcode(raw string) string {
	return width.Fold.String(strings.TrimSpace(raw))
}

// NormalizeContainer maps blank containers to nil, the wildcard.
func NormalizeContainer(container *string) *string {
	if container == nil {
		return nil
	}
	c := strings.TrimSpace(*container)
	if c == "" {
		return nil
	}
	return &c
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}
