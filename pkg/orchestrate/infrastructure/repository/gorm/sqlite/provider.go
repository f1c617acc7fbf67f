// Package sqlite registers the SQLite dialector with the GORM adapter.
package sqlite

import (
	"errors"

	gormadapter "github.com/lumapix/darkroom/pkg/orchestrate/infrastructure/repository/gorm"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// init registers the SQLite dialector factory with the GORM adapter.
// Importing this package is enough to make "sqlite" connections available.
func init() {
	gormadapter.RegisterDialector("sqlite", func(cfg gormadapter.DatabaseConfig) (gorm.Dialector, error) {
		if cfg.Database == "" { // Ensure database path is provided.
			return nil, errors.New("SQLite database path cannot be empty")
		}
		return sqlite.Open(ConnectionString(cfg)), nil
	})
}

// ConnectionString generates the DSN (Data Source Name) for SQLite connections.
func ConnectionString(c gormadapter.DatabaseConfig) string {
	// GORM SQLite Dialector expects the file path directly
	return c.Database
}
