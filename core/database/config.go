package database

import (
	"path/filepath"
	"strings"
)

// Config holds configuration for the database connection.
type Config struct {
	// Driver is the database driver (sqlite, mysql, postgres).
	Driver string `mapstructure:"driver" default:"sqlite"`
	// DataDir is the directory holding the per-mode SQLite files.
	DataDir string `mapstructure:"data_dir" default:"./data"`
	// StandardFile is the SQLite file backing the Standard mode.
	StandardFile string `mapstructure:"standard_file" default:"scanmate_standard.db"`
	// LootsFile is the SQLite file backing the Loots mode.
	LootsFile string `mapstructure:"loots_file" default:"scanmate_loots.db"`
	// SalesFile is the SQLite file holding the sale price lookup table.
	SalesFile string `mapstructure:"sales_file" default:"scanmate_sales.db"`
	// Host is the database host (network drivers only).
	Host string `mapstructure:"host" default:"localhost"`
	// Port is the database port (network drivers only). Zero picks the
	// driver's standard port.
	Port int `mapstructure:"port" default:"0"`
	// User is the database user (network drivers only).
	User string `mapstructure:"user" default:"root"`
	// Password is the database password (network drivers only).
	Password string `mapstructure:"password" default:""`
	// Name is the database name for network drivers, or the file path for sqlite.
	Name string `mapstructure:"name" default:""`
	// TimeoutSeconds bounds connection setup and the initial ping.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"10"`
}

// WithFile returns a copy of the config pointing at a file inside DataDir.
// Absolute paths and ":memory:" are kept as they are. Network drivers
// get the file's base name without extension as the database name.
func (c Config) WithFile(file string) Config {
	switch {
	case c.Networked():
		c.Name = strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
	case file == MemoryDSN, filepath.IsAbs(file), c.DataDir == "":
		c.Name = file
	default:
		c.Name = filepath.Join(c.DataDir, file)
	}
	return c
}

// Networked reports whether the driver reaches a database server rather than
// a local file.
func (c Config) Networked() bool {
	return c.Driver == "mysql" || c.Driver == "postgres"
}

// ServerPort returns the configured port, or the driver's standard port when
// none is set.
func (c Config) ServerPort() int {
	if c.Port > 0 {
		return c.Port
	}
	switch c.Driver {
	case "postgres":
		return 5432
	case "mysql":
		return 3306
	}
	return 0
}
