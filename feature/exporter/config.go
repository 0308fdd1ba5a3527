package exporter

// Config holds the exporter settings.
type Config struct {
	// ProgressEvery is how many rows pass between progress reports.
	ProgressEvery int `mapstructure:"progress_every" default:"200"`
	// Dir is where the CLI writes export files.
	Dir string `mapstructure:"dir" default:"./exports"`
}

func (c Config) every() int {
	if c.ProgressEvery <= 0 {
		return 200
	}
	return c.ProgressEvery
}
