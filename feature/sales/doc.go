// Package sales keeps the sale price lookup table.
//
// The table is independent of both inventory modes: one row per barcode with
// the printed name, colour, size, sale type and the old and new price as they
// appear on the shelf label. It lives in its own store file and is replaced
// wholesale from a spreadsheet. A failed import leaves the previous table in
// place.
//
// Usage:
//
//	store, err := sales.Open(cfg.Database.WithFile(cfg.Database.SalesFile), logger)
//	res, err := store.Import(ctx, file, "")
//	sale, err := store.Get(ctx, "4006381333931")
package sales
