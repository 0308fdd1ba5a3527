// Package server holds the device API configuration.
//
// The start command builds the Fiber app; this package only defines the
// listen port, the optional API key and the device identifier used to name
// archived artifacts.
package server
