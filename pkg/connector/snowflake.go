// pkg/connector/snowflake.go
package connector

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	// registers the "snowflake" database/sql driver
	_ "github.com/snowflakedb/gosnowflake"

	"github.com/David-Botos/gazetteer/pkg/config"
)

func init() {
	// sqlx does not know the snowflake driver's bindvar style
	sqlx.BindDriver(config.DriverSnowflake, sqlx.QUESTION)

	registerDialect(dialect{
		name:         config.DriverSnowflake,
		versionQuery: "SELECT CURRENT_VERSION()",
		sessionSetup: func(cfg *config.SinkConfig) []string {
			if cfg.StatementTimeout <= 0 {
				return nil
			}
			return []string{
				fmt.Sprintf("ALTER SESSION SET STATEMENT_TIMEOUT_IN_SECONDS = %d",
					int(cfg.StatementTimeout.Seconds())),
			}
		},
	})
}
