// Package remote synchronizes a mode's dataset with the inventory service.
//
// Client speaks the service's JSON API under /api/scanmate/{session}:
// employees, data/{employee} (a base64 gzip baseline) and submit/{employee}.
// Syncer feeds downloads through the bulk loader and builds uploads keyed by
// barcode from the stores. Transport failures are TransportError; a
// baseline the service cannot provide is an empty result, not an error.
package remote
