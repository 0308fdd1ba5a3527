// Package inventory implements the dual-mode item and audit-log stores.
//
// Two modes partition the data. Standard keys an item by barcode alone;
// Loots keys it by barcode and container ("box"), so the same barcode can
// live in several containers. Each mode owns a separate SQLite file with an
// items table and an append-only logs table; there is no cross-mode query.
//
// # Identity
//
// The Router resolves a mode to its Store. Lookups in Loots mode accept a nil
// container as a wildcard matching the first row for the barcode; creation
// with a nil container files the item under UnassignedContainer. An unknown
// Mode value is a programming error and panics.
//
// # Writes
//
// Every mutation runs under the store's write lock and produces a LogEntry.
// Callers either persist entries themselves (through an Emit func, usually the
// log buffer) or let the store write them in the same transaction. The
// scanned quantity of an item always equals the sum of its logged deltas
// since the last Replace.
//
//	router, err := inventory.OpenRouter(cfg.Database, logger)
//	item, err := router.Store(inventory.ModeLoots).Increment(ctx, "123", &box, nil, buffer.AddLog)
package inventory
