package logger

// Config holds configuration for the logger.
type Config struct {
	// Level is the minimum enabled level (debug, info, warn, error).
	Level string `mapstructure:"level" default:"info"`
	// Format selects the encoder: json or console.
	Format string `mapstructure:"format" default:"console"`
	// Output is stderr, stdout or a file path. Handhelds usually log to a
	// file on the data partition so logs survive a reboot.
	Output string `mapstructure:"output" default:"stderr"`
}
