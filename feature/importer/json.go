package importer

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"scanmate/core/utils"
	"scanmate/feature/inventory"
)

// JSONSource reads a JSON array of baseline rows. Each field is decoded on
// its own: a value of the wrong type falls back to the field's zero value
// instead of failing the row or the file.
type JSONSource struct {
	r io.Reader
}

// JSON returns a source reading the document in r.
func JSON(r io.Reader) *JSONSource {
	return &JSONSource{r: r}
}

func (s *JSONSource) Kind() string { return "json" }

func (s *JSONSource) Read() ([]Row, error) {
	data, err := io.ReadAll(s.r)
	if err != nil {
		return nil, fmt.Errorf("failed to read json source: %w", err)
	}
	return DecodeRows(data)
}

// DecodeRows decodes a JSON array of rows in either the device export layout
// (camelCase) or the inventory service layout (snake_case).
func DecodeRows(data []byte) ([]Row, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil, &inventory.ValidationError{Op: "decode json", Err: inventory.ErrEmptySource}
	}

	var raw []jsonRow
	if err := json.Unmarshal(data, &raw); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			err = fmt.Errorf("expected an array of rows, got %s", typeErr.Value)
		}
		return nil, &inventory.ValidationError{Op: "decode json", Err: err}
	}

	rows := make([]Row, 0, len(raw))
	for _, r := range raw {
		rows = append(rows, r.row())
	}
	return rows, nil
}

// jsonRow lists every accepted spelling of a field. encoding/json matches
// keys case-insensitively, so only distinct spellings need their own field.
type jsonRow struct {
	Barcode flexString `json:"barcode"`

	InitialQuantity *flexFloat `json:"initialQuantity"`
	Quantity        *flexFloat `json:"quantity"`
	Qty             *flexFloat `json:"qty"`

	BoxID        flexString `json:"boxId"`
	BoxIDSnake   flexString `json:"box_id"`
	ContainerID  flexString `json:"containerId"`
	ContainerIDS flexString `json:"container_id"`

	Name          flexString `json:"name"`
	Category      flexString `json:"category"`
	Uom           flexString `json:"uom"`
	UnitOfMeasure flexString `json:"unitOfMeasure"`
	Location      flexString `json:"location"`

	ComparePrice      flexFloat `json:"comparePrice"`
	ComparePriceSnake flexFloat `json:"compare_price"`
	SalePrice         flexFloat `json:"salePrice"`
	SalePriceSnake    flexFloat `json:"sale_price"`

	Variants flexVariants `json:"variants"`

	EmployeeIDs      EmployeeIDs `json:"employeeIds"`
	EmployeeIDsSnake EmployeeIDs `json:"employee_ids"`

	ProductID      flexInt `json:"productId"`
	ProductIDSnake flexInt `json:"product_id"`

	CreatedAt      flexTime `json:"createdAt"`
	CreatedAtSnake flexTime `json:"created_at"`
	UpdatedAt      flexTime `json:"updatedAt"`
	UpdatedAtSnake flexTime `json:"updated_at"`

	// Original device layout
	Color     flexString `json:"color"`
	Size      flexString `json:"size"`
	Price     flexString `json:"price"`
	ArticCode flexString `json:"articCode"`
}

func (j jsonRow) row() Row {
	r := Row{
		Barcode:       string(j.Barcode),
		ContainerID:   firstString(j.ContainerID, j.ContainerIDS, j.BoxID, j.BoxIDSnake),
		Name:          string(j.Name),
		Category:      string(j.Category),
		UnitOfMeasure: firstString(j.Uom, j.UnitOfMeasure),
		Location:      string(j.Location),
		ComparePrice:  float64(firstFloat(j.ComparePrice, j.ComparePriceSnake)),
		SalePrice:     float64(firstFloat(j.SalePrice, j.SalePriceSnake)),
		Variants:      []inventory.Variant(j.Variants),
		EmployeeIDs:   j.EmployeeIDs,
		ProductID:     int(j.ProductID),
		CreatedAt:     j.CreatedAt.t,
		UpdatedAt:     j.UpdatedAt.t,
	}
	for _, q := range []*flexFloat{j.InitialQuantity, j.Quantity, j.Qty} {
		if q != nil {
			r.Quantity = float64(*q)
			break
		}
	}
	if len(r.EmployeeIDs) == 0 {
		r.EmployeeIDs = j.EmployeeIDsSnake
	}
	if r.ProductID == 0 {
		r.ProductID = int(j.ProductIDSnake)
	}
	if r.CreatedAt == nil {
		r.CreatedAt = j.CreatedAtSnake.t
	}
	if r.UpdatedAt == nil {
		r.UpdatedAt = j.UpdatedAtSnake.t
	}

	migrateLegacy(&r, LegacyColumns{
		Color:       string(j.Color),
		Size:        string(j.Size),
		Price:       string(j.Price),
		ArticleCode: string(j.ArticCode),
	}, 0)
	return r
}

func firstString(vals ...flexString) string {
	for _, v := range vals {
		if s := strings.TrimSpace(string(v)); s != "" {
			return s
		}
	}
	return ""
}

func firstFloat(vals ...flexFloat) flexFloat {
	for _, v := range vals {
		if v != 0 {
			return v
		}
	}
	return 0
}

func decodeLoose(b []byte) any {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil
	}
	return v
}

type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	switch v := decodeLoose(b).(type) {
	case nil, map[string]any, []any:
		*f = ""
	default:
		*f = flexString(strings.TrimSpace(utils.ToString(v)))
	}
	return nil
}

type flexFloat float64

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	*f = flexFloat(utils.ToFloat(decodeLoose(b)))
	return nil
}

type flexInt int

func (f *flexInt) UnmarshalJSON(b []byte) error {
	*f = flexInt(utils.ToInt(decodeLoose(b)))
	return nil
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

type flexTime struct {
	t *time.Time
}

func (f *flexTime) UnmarshalJSON(b []byte) error {
	f.t = nil
	s, ok := decodeLoose(b).(string)
	if !ok {
		return nil
	}
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			f.t = &t
			return nil
		}
	}
	return nil
}

type flexVariants []inventory.Variant

// UnmarshalJSON accepts [{"name":..,"value":..}], ["XL", ...] and {"size":"XL"}.
func (f *flexVariants) UnmarshalJSON(b []byte) error {
	*f = flexVariants{}
	switch v := decodeLoose(b).(type) {
	case []any:
		for _, el := range v {
			switch e := el.(type) {
			case map[string]any:
				name := utils.ToString(e["name"])
				value := utils.ToString(e["value"])
				if name == "" && value == "" {
					continue
				}
				*f = append(*f, inventory.Variant{Name: name, Value: value})
			case string:
				if e != "" {
					*f = append(*f, inventory.Variant{Value: e})
				}
			}
		}
	case map[string]any:
		for name, value := range v {
			*f = append(*f, inventory.Variant{Name: name, Value: utils.ToString(value)})
		}
		slices.SortFunc(*f, func(a, b inventory.Variant) int { return strings.Compare(a.Name, b.Name) })
	}
	return nil
}

// EmployeeIDs is the list of employees an item is assigned to. The inventory
// service sends it as a number, a numeric string, an array of either, or
// null; every shape decodes to a plain list and anything else to an empty one.
type EmployeeIDs []int

func (e *EmployeeIDs) UnmarshalJSON(b []byte) error {
	*e = ParseEmployeeIDs(decodeLoose(b))
	return nil
}

// ParseEmployeeIDs converts a loosely typed employee reference to ids.
func ParseEmployeeIDs(v any) []int {
	ids := []int{}
	switch x := v.(type) {
	case nil, bool:
	case []any:
		for _, el := range x {
			switch el.(type) {
			case json.Number, float64, string, int:
				if id, ok := utils.IntFrom(el); ok {
					ids = append(ids, id)
				}
			}
		}
	case json.Number, float64, int, string:
		if id, ok := utils.IntFrom(x); ok {
			ids = append(ids, id)
		}
	}
	return ids
}
