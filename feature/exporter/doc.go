// Package exporter serializes a mode's items and audit log.
//
// Rows are streamed from the store in batches and reported through a
// Progress callback every Config.ProgressEvery rows, then once with 1.0 when
// the read succeeded. JSON exports use "2006-01-02 15:04:05" UTC timestamps;
// workbooks use RFC 3339. Log exports flush the log buffer first.
package exporter
