// Package logbuffer decouples scan-rate log production from disk writes.
//
// AddLog appends to an in-memory queue per mode under a single mutex. A
// ticker drains each mode and writes the batch in one transaction; Flush does
// the same on demand (before an export or upload). A failed write puts the
// batch back at the front so ordering is preserved for the next attempt.
package logbuffer
