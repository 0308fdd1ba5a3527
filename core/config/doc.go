// Package config provides configuration management for scanmate.
//
// It utilizes Viper for loading configuration from environment variables and
// an optional .env file. Defaults come from the `default` struct tags of each
// section, registered by walking the `mapstructure` tags.
//
// # Configuration Structure
//
//   - Server: device API port and API key
//   - Log: logging level and format
//   - Database: driver and the per-mode store files
//   - Storage: S3/MinIO archive bucket
//   - Buffer: audit log flush interval
//   - Scanner: pipeline stop timeout and unattended creation
//   - Export: progress granularity
//   - Remote: inventory service endpoint and key
//
// # Usage
//
//	cfg, err := config.LoadConfig(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Database.StandardFile)
package config
