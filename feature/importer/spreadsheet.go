package importer

import (
	"fmt"
	"io"
	"strings"

	"scanmate/core/utils"
	"scanmate/feature/inventory"

	"github.com/xuri/excelize/v2"
)

type column int

const (
	colBarcode column = iota
	colQuantity
	colName
	colCategory
	colUnit
	colLocation
	colComparePrice
	colSalePrice
	colProductID
	colContainer
	colColor
	colSize
	colPrice
	colArticle
)

// headerAliases maps normalized header cells to columns. Both the original
// device layout (Barcode, Quantity, Color, Size, Price, ArticCode, Box_Id) and
// the current item shape are accepted.
var headerAliases = map[string]column{
	"barcode":         colBarcode,
	"quantity":        colQuantity,
	"qty":             colQuantity,
	"initialquantity": colQuantity,
	"name":            colName,
	"category":        colCategory,
	"uom":             colUnit,
	"unitofmeasure":   colUnit,
	"location":        colLocation,
	"compareprice":    colComparePrice,
	"saleprice":       colSalePrice,
	"productid":       colProductID,
	"boxid":           colContainer,
	"box":             colContainer,
	"containerid":     colContainer,
	"container":       colContainer,
	"color":           colColor,
	"size":            colSize,
	"price":           colPrice,
	"articcode":       colArticle,
	"articlecode":     colArticle,
}

func normalizeHeader(cell string) string {
	return strings.NewReplacer(" ", "", "_", "", "-", "").Replace(strings.ToLower(strings.TrimSpace(cell)))
}

// SpreadsheetSource reads the first sheet of an .xlsx workbook. The first row
// is the header; columns are matched by name, not position.
type SpreadsheetSource struct {
	r     io.Reader
	sheet string
}

// Spreadsheet returns a source reading the first sheet of the workbook in r.
func Spreadsheet(r io.Reader) *SpreadsheetSource {
	return &SpreadsheetSource{r: r}
}

// Sheet selects a sheet by name instead of the first one.
func (s *SpreadsheetSource) Sheet(name string) *SpreadsheetSource {
	s.sheet = name
	return s
}

func (s *SpreadsheetSource) Kind() string { return "spreadsheet" }

func (s *SpreadsheetSource) Read() ([]Row, error) {
	f, err := excelize.OpenReader(s.r)
	if err != nil {
		return nil, &inventory.ValidationError{Op: "read spreadsheet", Err: err}
	}
	defer f.Close()

	sheet := s.sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, &inventory.ValidationError{Op: "read spreadsheet", Err: inventory.ErrEmptySource}
		}
		sheet = sheets[0]
	}

	cells, err := f.GetRows(sheet)
	if err != nil {
		return nil, &inventory.ValidationError{Op: "read spreadsheet", Err: err}
	}
	if len(cells) == 0 {
		return nil, &inventory.ValidationError{Op: "read spreadsheet", Err: inventory.ErrEmptySource}
	}

	index := make(map[column]int)
	for i, cell := range cells[0] {
		if c, ok := headerAliases[normalizeHeader(cell)]; ok {
			if _, seen := index[c]; !seen {
				index[c] = i
			}
		}
	}
	if _, ok := index[colBarcode]; !ok {
		return nil, &inventory.ValidationError{Op: "read spreadsheet", Err: fmt.Errorf("sheet %q has no barcode column", sheet)}
	}

	rows := make([]Row, 0, len(cells)-1)
	for _, line := range cells[1:] {
		get := func(c column) string {
			i, ok := index[c]
			if !ok || i >= len(line) {
				return ""
			}
			return strings.TrimSpace(line[i])
		}

		row := Row{
			Barcode:       get(colBarcode),
			ContainerID:   get(colContainer),
			Quantity:      utils.ToFloat(get(colQuantity)),
			Name:          get(colName),
			Category:      get(colCategory),
			UnitOfMeasure: get(colUnit),
			Location:      get(colLocation),
			ComparePrice:  utils.ToFloat(get(colComparePrice)),
			SalePrice:     utils.ToFloat(get(colSalePrice)),
			ProductID:     utils.ToInt(get(colProductID)),
		}
		migrateLegacy(&row, LegacyColumns{
			Color:       get(colColor),
			Size:        get(colSize),
			Price:       get(colPrice),
			ArticleCode: get(colArticle),
		}, 0)
		rows = append(rows, row)
	}
	return rows, nil
}
