package server

import "strings"

// Config holds configuration for the HTTP server.
type Config struct {
	// Port is the port where the server will listen.
	Port string `mapstructure:"port" default:"8080"`
	// ApiKey is the secret key required to access the API.
	ApiKey string `mapstructure:"api_key" default:""`
	// DeviceID identifies this handheld in logs and archive object names.
	DeviceID string `mapstructure:"device_id" default:"scanner-01"`
}

// Address returns the listen address for the configured port.
func (c Config) Address() string {
	if strings.Contains(c.Port, ":") {
		return c.Port
	}
	return ":" + c.Port
}

// Protected reports whether requests must carry an API key.
func (c Config) Protected() bool {
	return c.ApiKey != ""
}
