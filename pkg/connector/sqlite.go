// pkg/connector/sqlite.go
package connector

import (
	// registers the "sqlite3" database/sql driver
	_ "github.com/mattn/go-sqlite3"

	"github.com/David-Botos/gazetteer/pkg/config"
)

func init() {
	registerDialect(dialect{
		name:         config.DriverSQLite,
		versionQuery: "SELECT sqlite_version()",
		sessionSetup: func(*config.SinkConfig) []string {
			return []string{"PRAGMA journal_mode = WAL", "PRAGMA busy_timeout = 5000"}
		},
	})
}
