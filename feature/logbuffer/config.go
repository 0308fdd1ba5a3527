package logbuffer

import "time"

// Config holds the log buffer settings.
type Config struct {
	// FlushIntervalMs is the period of the background flush.
	FlushIntervalMs int `mapstructure:"flush_interval_ms" default:"2000"`
}

// Interval returns the flush period, defaulting to two seconds.
func (c Config) Interval() time.Duration {
	if c.FlushIntervalMs <= 0 {
		return 2 * time.Second
	}
	return time.Duration(c.FlushIntervalMs) * time.Millisecond
}
