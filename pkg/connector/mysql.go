// pkg/connector/mysql.go
package connector

import (
	"fmt"

	// registers the "mysql" database/sql driver
	_ "github.com/go-sql-driver/mysql"

	"github.com/David-Botos/gazetteer/pkg/config"
)

func init() {
	registerDialect(dialect{
		name:         config.DriverMySQL,
		versionQuery: "SELECT VERSION()",
		sessionSetup: func(cfg *config.SinkConfig) []string {
			if cfg.StatementTimeout <= 0 {
				return nil
			}
			return []string{
				fmt.Sprintf("SET SESSION max_execution_time = %d", cfg.StatementTimeout.Milliseconds()),
			}
		},
	})
}
