package database

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnect(t *testing.T) {
	t.Run("Invalid MySQL Connection", func(t *testing.T) {
		cfg := Config{
			Driver:         "mysql",
			Host:           "localhost",
			Port:           9999, // Unused port
			User:           "root",
			Password:       "wrongpassword",
			Name:           "scanmate",
			TimeoutSeconds: 1,
		}

		db, err := Connect(cfg)
		assert.Error(t, err)
		assert.Nil(t, db)
	})

	t.Run("Invalid Postgres Connection", func(t *testing.T) {
		cfg := Config{
			Driver:         "postgres",
			Host:           "localhost",
			Port:           9998,
			User:           "postgres",
			Password:       "wrongpassword",
			Name:           "scanmate",
			TimeoutSeconds: 1,
		}

		db, err := Connect(cfg)
		assert.Error(t, err)
		assert.Nil(t, db)
	})

	t.Run("Unknown driver", func(t *testing.T) {
		db, err := Connect(Config{Driver: "oracle"})
		assert.Error(t, err)
		assert.Nil(t, db)
	})

	t.Run("SQLite memory", func(t *testing.T) {
		db, err := Connect(Config{Driver: "sqlite", Name: MemoryDSN})
		require.NoError(t, err)
		defer Close(db)

		sqlDB, err := db.DB()
		require.NoError(t, err)
		assert.Equal(t, 1, sqlDB.Stats().MaxOpenConnections)
	})

	t.Run("SQLite file creates data dir", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "nested")
		cfg := Config{Driver: "sqlite", DataDir: dir}.WithFile("standard.db")

		db, err := Connect(cfg)
		require.NoError(t, err)
		require.NoError(t, db.Exec("CREATE TABLE t (id INTEGER)").Error)
		require.NoError(t, Close(db))

		_, err = os.Stat(filepath.Join(dir, "standard.db"))
		assert.NoError(t, err)
	})
}

func TestConfigWithFile(t *testing.T) {
	cfg := Config{DataDir: "/var/lib/scanmate"}

	assert.Equal(t, filepath.Join("/var/lib/scanmate", "loots.db"), cfg.WithFile("loots.db").Name)
	assert.Equal(t, MemoryDSN, cfg.WithFile(MemoryDSN).Name)
	assert.Equal(t, "/tmp/x.db", cfg.WithFile("/tmp/x.db").Name)
	assert.Equal(t, "x.db", Config{}.WithFile("x.db").Name)

	remote := Config{Driver: "postgres", DataDir: "/var/lib/scanmate"}
	assert.True(t, remote.Networked())
	assert.Equal(t, "scanmate_loots", remote.WithFile("scanmate_loots.db").Name)
	assert.False(t, cfg.Networked())
}

func TestConfigServerPort(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want int
	}{
		{"postgres default", Config{Driver: "postgres"}, 5432},
		{"mysql default", Config{Driver: "mysql"}, 3306},
		{"explicit port", Config{Driver: "postgres", Port: 6543}, 6543},
		{"sqlite has none", Config{Driver: "sqlite"}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.cfg.ServerPort())
		})
	}
}

func TestProbe(t *testing.T) {
	dir := t.TempDir()

	t.Run("Valid database", func(t *testing.T) {
		path := filepath.Join(dir, "ok.db")
		db, err := Connect(Config{Name: path})
		require.NoError(t, err)
		require.NoError(t, db.Exec("CREATE TABLE t (id INTEGER)").Error)
		require.NoError(t, Close(db))

		assert.NoError(t, Probe(path))
	})

	t.Run("Garbage file", func(t *testing.T) {
		path := filepath.Join(dir, "garbage.db")
		require.NoError(t, os.WriteFile(path, []byte("definitely not sqlite, just some bytes padding the header out"), 0o644))

		assert.Error(t, Probe(path))
	})

	t.Run("Missing file", func(t *testing.T) {
		assert.Error(t, Probe(filepath.Join(dir, "missing.db")))
	})
}
