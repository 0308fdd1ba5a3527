package scanning

import "time"

// Config holds the scan pipeline settings.
type Config struct {
	// StopTimeoutMs bounds how long Stop waits for the in-flight scan.
	StopTimeoutMs int `mapstructure:"stop_timeout_ms" default:"200"`
	// AutoCreate answers the unknown-barcode question when no operator is attached.
	AutoCreate bool `mapstructure:"auto_create" default:"false"`
}

// StopTimeout returns the bounded wait used by Stop.
func (c Config) StopTimeout() time.Duration {
	if c.StopTimeoutMs <= 0 {
		return 200 * time.Millisecond
	}
	return time.Duration(c.StopTimeoutMs) * time.Millisecond
}
