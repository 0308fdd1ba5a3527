// Package session exposes one handheld's engine to its UI over HTTP.
//
// The Service owns the run lifecycle: Start launches the scan pipeline, the
// periodic log flush and a watcher that remembers the last processed scan;
// Stop closes intake before the final flush. Everything else is a thin,
// mode-addressed call into the inventory, importer, exporter, remote,
// archive and sales packages.
//
// # Routes
//
//	POST /scans                      queue reads
//	GET  /status                     routing, counters, last scan
//	PUT  /mode                       switch mode/container/section
//	PUT  /items/:barcode/scanned     manual count correction
//	GET  /items/:mode/recent         recently updated items
//	GET  /items/:mode/:barcode/logs  item history
//	GET  /containers                 Loots boxes
//	POST /import/:kind?mode=         spreadsheet | json | store
//	GET  /export/:mode/:what         dataset | logs, ?format=json|xlsx
//	GET  /stats/:mode                aggregate counts
//	GET  /audit/:mode                ledger audit, ?repair=true
//	GET  /archive/:mode/:kind        archived artifacts
//	POST /sales/import?sheet=        replace the sale price table
//	GET  /sales/:barcode             sale price lookup
//	GET  /sync/employees             remote session employees
//	POST /sync/:mode/download|upload remote session sync
package session
