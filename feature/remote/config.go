package remote

import "time"

// Config holds the inventory service endpoint.
type Config struct {
	// BaseURL is the service root, e.g. https://erp.example.com/. Empty disables sync.
	BaseURL string `mapstructure:"base_url" default:""`
	// ApiKey is sent as X-API-KEY on every request.
	ApiKey string `mapstructure:"api_key" default:""`
	// TimeoutSeconds bounds a whole request.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"30"`
	// SessionID is the default inventory session for CLI sync.
	SessionID int `mapstructure:"session_id" default:"0"`
	// EmployeeID is the default employee for CLI sync.
	EmployeeID int `mapstructure:"employee_id" default:"0"`
}

// Timeout returns the request timeout.
func (c Config) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Enabled reports whether a service endpoint is configured.
func (c Config) Enabled() bool {
	return c.BaseURL != ""
}
