// Package importer replaces a mode's baseline from a bulk source.
//
// Three inputs are supported: an .xlsx workbook (header-mapped columns), a
// JSON array of rows and a complete store file. Spreadsheet and JSON rows are
// validated one by one; invalid rows are skipped and counted, and the
// surviving rows replace the dataset in a single transaction that also clears
// the audit log. A store file is probed, the current file is backed up, and
// the new one is swapped in and its schema completed.
//
// Rows in the original device layout (Color, Size, Price, ArticCode columns)
// pass through a versioned migration into the item shape.
package importer
