package importer

import (
	"time"

	"scanmate/feature/inventory"
)

// Row is one baseline line as read from a bulk source, before validation.
type Row struct {
	Barcode       string  `validate:"required"`
	ContainerID   string  `validate:"omitempty,max=128"`
	Quantity      float64 `validate:"gte=0"`
	Name          string
	Category      string
	UnitOfMeasure string
	Location      string
	ComparePrice  float64 `validate:"gte=0"`
	SalePrice     float64 `validate:"gte=0"`
	Variants      []inventory.Variant
	EmployeeIDs   []int
	ProductID     int

	// Timestamps are kept only when the source carries them.
	CreatedAt *time.Time
	UpdatedAt *time.Time
}

// item converts a validated row into a fresh, uncounted item.
func (r Row) item(mode inventory.Mode, now time.Time) inventory.Item {
	it := inventory.Item{
		Mode:             mode,
		Barcode:          r.Barcode,
		ExpectedQuantity: r.Quantity,
		CreatedAt:        now,
		UpdatedAt:        now,
		Name:             r.Name,
		Category:         r.Category,
		UnitOfMeasure:    r.UnitOfMeasure,
		Location:         r.Location,
		ComparePrice:     r.ComparePrice,
		SalePrice:        r.SalePrice,
		Variants:         r.Variants,
		EmployeeIDs:      r.EmployeeIDs,
		ProductID:        r.ProductID,
	}
	if r.CreatedAt != nil {
		it.CreatedAt = r.CreatedAt.UTC()
	}
	if r.UpdatedAt != nil {
		it.UpdatedAt = r.UpdatedAt.UTC()
	}
	if it.UpdatedAt.Before(it.CreatedAt) {
		it.UpdatedAt = it.CreatedAt
	}
	if it.Variants == nil {
		it.Variants = []inventory.Variant{}
	}
	if it.EmployeeIDs == nil {
		it.EmployeeIDs = []int{}
	}
	if mode.UsesContainers() {
		it.ContainerID = r.ContainerID
		if it.ContainerID == "" {
			it.ContainerID = inventory.UnassignedContainer
		}
	}
	return it
}

// Source yields the rows of one bulk input.
type Source interface {
	// Kind names the source in logs and results (spreadsheet, json, remote).
	Kind() string
	// Read parses the whole input. Rows are returned unvalidated.
	Read() ([]Row, error)
}

// Rows is an in-memory Source.
type Rows []Row

func (Rows) Kind() string { return "rows" }

func (r Rows) Read() ([]Row, error) { return r, nil }
