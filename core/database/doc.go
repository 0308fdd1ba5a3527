// Package database opens the GORM connections behind the mode stores.
//
// SQLite is the default driver: every mode lives in its own file under
// data_dir and is reached through a single connection. MySQL is available for
// a shared back-office deployment.
//
// # Schema Inspection
//
// Store files written by older app versions may lack newer columns.
// GetTableColumns reads a table's columns and AddMissingColumns adds the
// missing ones with their defaults, so an old file can be opened in place.
// Probe checks that a file is a readable SQLite database before it replaces
// a live store.
//
// # Usage
//
//	db, err := database.Connect(cfg.Database.WithFile(cfg.Database.LootsFile))
//	if err != nil {
//	    return err
//	}
//	defer database.Close(db)
//
//	added, err := database.AddMissingColumns(db, "loots_products", specs)
package database
