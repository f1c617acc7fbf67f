// Package mysql registers the MySQL dialector with the GORM adapter.
package mysql

import (
	"fmt"

	gormadapter "github.com/lumapix/darkroom/pkg/orchestrate/infrastructure/repository/gorm"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// init registers the MySQL dialector factory with the GORM adapter.
// Importing this package is enough to make "mysql" connections available.
func init() {
	gormadapter.RegisterDialector("mysql", func(cfg gormadapter.DatabaseConfig) (gorm.Dialector, error) {
		return mysql.Open(ConnectionString(cfg)), nil
	})
}

// ConnectionString generates the DSN (Data Source Name) for MySQL connections.
func ConnectionString(c gormadapter.DatabaseConfig) string {
	// DSN format expected by GORM (gorm.io/driver/mysql)
	// user:password@tcp(host:port)/dbname?charset=utf8mb4&parseTime=True&loc=Local
	var authPart string
	if c.User != "" {
		authPart = c.User
		if c.Password != "" {
			authPart = fmt.Sprintf("%s:%s", c.User, c.Password)
		}
		authPart += "@"
	}

	return fmt.Sprintf("%stcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		authPart, c.Host, c.Port, c.Database)
}
