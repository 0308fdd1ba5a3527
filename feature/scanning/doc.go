// Package scanning serializes raw barcode reads into inventory mutations.
//
// Reads are queued without blocking and a single consumer resolves them in
// arrival order against the store of the current mode. Unknown barcodes are
// put to a Confirmer; declined reads leave no trace. Every processed read is
// published on an events.Bus so the UI can refresh.
//
// # Lifecycle
//
//	p := scanning.New(router, buffer, confirmer, nil, cfg.Scanner, log)
//	done := p.Start(ctx)
//	p.Enqueue("4006381333931")
//	p.Stop()
//	<-done
package scanning
