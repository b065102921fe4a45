// pkg/connector/postgres.go
package connector

import (
	"fmt"

	// registers the "pgx" database/sql driver
	_ "github.com/jackc/pgx/v4/stdlib"

	"github.com/David-Botos/gazetteer/pkg/config"
)

func init() {
	registerDialect(dialect{
		name:         config.DriverPostgres,
		versionQuery: "SELECT version()",
		sessionSetup: func(cfg *config.SinkConfig) []string {
			if cfg.StatementTimeout <= 0 {
				return nil
			}
			return []string{
				fmt.Sprintf("SET statement_timeout = %d", cfg.StatementTimeout.Milliseconds()),
			}
		},
	})
}
