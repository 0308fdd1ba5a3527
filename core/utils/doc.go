// Package utils provides small helpers shared across scanmate packages:
// loose value conversion for spreadsheet cells and decoded JSON, and the
// HTTP transport used by outbound clients.
package utils
