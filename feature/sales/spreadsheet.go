package sales

import (
	"context"
	"fmt"
	"io"
	"strings"

	"scanmate/feature/inventory"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

type column int

const (
	colBarcode column = iota
	colName
	colColor
	colSize
	colSaleType
	colOldPrice
	colNewPrice
	colArticle
)

var headerAliases = map[string]column{
	"barcode":     colBarcode,
	"name":        colName,
	"color":       colColor,
	"colour":      colColor,
	"size":        colSize,
	"saletype":    colSaleType,
	"type":        colSaleType,
	"oldprice":    colOldPrice,
	"newprice":    colNewPrice,
	"articcode":   colArticle,
	"articlecode": colArticle,
}

func normalizeHeader(cell string) string {
	return strings.NewReplacer(" ", "", "_", "", "-", "").Replace(strings.ToLower(strings.TrimSpace(cell)))
}

// ReadSpreadsheet parses a sales workbook. The first row is the header and
// columns are matched by name. Rows without a barcode are skipped and counted.
// An empty sheet name reads the first sheet.
func ReadSpreadsheet(r io.Reader, sheet string) (sales []Sale, skipped int, err error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, 0, &inventory.ValidationError{Op: "read sales spreadsheet", Err: err}
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, 0, &inventory.ValidationError{Op: "read sales spreadsheet", Err: inventory.ErrEmptySource}
		}
		sheet = sheets[0]
	}

	cells, err := f.GetRows(sheet)
	if err != nil {
		return nil, 0, &inventory.ValidationError{Op: "read sales spreadsheet", Err: err}
	}
	if len(cells) == 0 {
		return nil, 0, &inventory.ValidationError{Op: "read sales spreadsheet", Err: inventory.ErrEmptySource}
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
		return nil, 0, &inventory.ValidationError{Op: "read sales spreadsheet", Err: fmt.Errorf("sheet %q has no barcode column", sheet)}
	}

	sales = make([]Sale, 0, len(cells)-1)
	for _, line := range cells[1:] {
		get := func(c column) string {
			i, ok := index[c]
			if !ok || i >= len(line) {
				return ""
			}
			return strings.TrimSpace(line[i])
		}

		barcode := inventory.NormalizeBarcode(get(colBarcode))
		if barcode == "" {
			skipped++
			continue
		}
		sales = append(sales, Sale{
			Barcode:     barcode,
			Name:        get(colName),
			Color:       get(colColor),
			Size:        get(colSize),
			SaleType:    get(colSaleType),
			OldPrice:    get(colOldPrice),
			NewPrice:    get(colNewPrice),
			ArticleCode: get(colArticle),
		})
	}
	return sales, skipped, nil
}

// Import replaces the table with the rows of a sales workbook. A workbook
// without a single usable row is rejected and the table is left as it was.
func (s *Store) Import(ctx context.Context, r io.Reader, sheet string) (Result, error) {
	var res Result

	rows, skipped, err := ReadSpreadsheet(r, sheet)
	if err != nil {
		return res, err
	}
	res.Skipped = skipped
	if len(rows) == 0 {
		return res, &inventory.ValidationError{Op: "import sales", Err: inventory.ErrNoValidRows}
	}

	stored, duplicates, err := s.Replace(ctx, rows)
	if err != nil {
		return res, err
	}
	res.Imported, res.Duplicates = stored, duplicates

	s.logger.Info("Sales imported",
		zap.Int("imported", res.Imported),
		zap.Int("skipped", res.Skipped),
		zap.Int("duplicates", res.Duplicates),
	)
	return res, nil
}
