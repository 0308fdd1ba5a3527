package importer

import (
	"strings"

	"scanmate/core/utils"
	"scanmate/feature/inventory"
)

// LegacyColumns holds the cells of the original spreadsheet layout that have
// no column of their own in the item shape.
type LegacyColumns struct {
	Color       string
	Size        string
	Price       string
	ArticleCode string
}

func (c LegacyColumns) empty() bool {
	return c.Color == "" && c.Size == "" && c.Price == "" && c.ArticleCode == ""
}

// Variant attribute names produced by the migration.
const (
	VariantColor   = "color"
	VariantSize    = "size"
	VariantArticle = "article"
)

type legacyStep struct {
	version int
	apply   func(r *Row, c LegacyColumns)
}

// legacySteps are applied in order to every row read from a legacy layout.
// Append new steps with the next version; never renumber.
var legacySteps = []legacyStep{
	{version: 1, apply: func(r *Row, c LegacyColumns) {
		r.Variants = appendVariant(r.Variants, VariantColor, c.Color)
		r.Variants = appendVariant(r.Variants, VariantSize, c.Size)
	}},
	{version: 2, apply: func(r *Row, c LegacyColumns) {
		if r.SalePrice != 0 {
			return
		}
		if price, ok := utils.FloatFrom(c.Price); ok {
			r.SalePrice = price
		}
	}},
	{version: 3, apply: func(r *Row, c LegacyColumns) {
		r.Variants = appendVariant(r.Variants, VariantArticle, c.ArticleCode)
	}},
}

// LegacyVersion is the layout version rows end up in after migration.
var LegacyVersion = legacySteps[len(legacySteps)-1].version

// migrateLegacy brings a row from layout version from up to LegacyVersion and
// returns the number of steps applied.
func migrateLegacy(r *Row, c LegacyColumns, from int) int {
	if c.empty() {
		return 0
	}
	applied := 0
	for _, step := range legacySteps {
		if step.version <= from {
			continue
		}
		step.apply(r, c)
		applied++
	}
	return applied
}

func appendVariant(vs []inventory.Variant, name, value string) []inventory.Variant {
	value = strings.TrimSpace(value)
	if value == "" {
		return vs
	}
	for _, v := range vs {
		if strings.EqualFold(v.Name, name) {
			return vs
		}
	}
	return append(vs, inventory.Variant{Name: name, Value: value})
}
