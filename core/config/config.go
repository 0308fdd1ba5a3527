package config

import (
	"reflect"
	"strings"

	"scanmate/core/database"
	"scanmate/core/logger"
	"scanmate/core/server"
	"scanmate/core/storage"
	"scanmate/feature/exporter"
	"scanmate/feature/logbuffer"
	"scanmate/feature/remote"
	"scanmate/feature/scanning"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
// It is divided into partial configurations for better modularity.
type Config struct {
	// Server holds configuration for the device API.
	Server server.Config `mapstructure:"server"`
	// Storage holds configuration for the archive bucket (S3, Minio).
	Storage storage.Config `mapstructure:"storage"`
	// Log holds configuration for the logger.
	Log logger.Config `mapstructure:"log"`
	// Database holds the location of the per-mode store files.
	Database database.Config `mapstructure:"database"`
	// Buffer holds the audit log flush settings.
	Buffer logbuffer.Config `mapstructure:"buffer"`
	// Scanner holds the scan pipeline settings.
	Scanner scanning.Config `mapstructure:"scanner"`
	// Export holds the exporter settings.
	Export exporter.Config `mapstructure:"export"`
	// Remote holds the inventory service endpoint.
	Remote remote.Config `mapstructure:"remote"`
}

// LoadConfig loads configuration from environment variables and .env file.
func LoadConfig(path string) (*Config, error) {
	envPath := path + "/.env"
	if path == "." {
		envPath = ".env"
	}

	// Ignore error if file doesn't exist (e.g. production)
	_ = godotenv.Overload(envPath)

	v := viper.New()

	// Recursively parse struct tags to set default values
	bindValues(v, Config{}, "")

	// Map environment variables to nested keys (e.g. REMOTE_BASE_URL -> remote.base_url)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// bindValues uses reflection to iterate over the struct and set default values in Viper
// based on the 'default' and 'mapstructure' tags.
func bindValues(v *viper.Viper, iface any, prefix string) {
	t := reflect.TypeOf(iface)

	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("mapstructure")
		if tag == "" {
			continue
		}

		key := tag
		if prefix != "" {
			key = prefix + "." + tag
		}

		if field.Type.Kind() == reflect.Struct {
			bindValues(v, reflect.New(field.Type).Elem().Interface(), key)
			continue
		}

		// Always set default (even if empty) to register the key for AutomaticEnv
		v.SetDefault(key, field.Tag.Get("default"))
	}
}
