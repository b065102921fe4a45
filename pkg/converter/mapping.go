// pkg/converter/mapping.go
package converter

import (
	"fmt"

	"github.com/David-Botos/gazetteer/pkg/model"
)

// Dialects supported by the sink
const (
	DialectPostgres  = "postgres"
	DialectMySQL     = "mysql"
	DialectSQLite    = "sqlite3"
	DialectSnowflake = "snowflake"
)

// typeMappings holds the column type of every kind per dialect
var typeMappings = map[string]map[model.ColumnKind]string{
	DialectPostgres: {
		model.KindSerial:    "BIGSERIAL",
		model.KindBigInt:    "BIGINT",
		model.KindText:      "TEXT",
		model.KindShortText: "VARCHAR(16)",
		model.KindDecimal:   "DOUBLE PRECISION",
		model.KindTimestamp: "TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP",
	},
	DialectMySQL: {
		model.KindSerial:    "BIGINT AUTO_INCREMENT",
		model.KindBigInt:    "BIGINT",
		model.KindText:      "TEXT",
		model.KindShortText: "VARCHAR(16)",
		model.KindDecimal:   "DOUBLE",
		model.KindTimestamp: "TIMESTAMP DEFAULT CURRENT_TIMESTAMP",
	},
	DialectSQLite: {
		model.KindSerial:    "INTEGER",
		model.KindBigInt:    "INTEGER",
		model.KindText:      "TEXT",
		model.KindShortText: "TEXT",
		model.KindDecimal:   "REAL",
		model.KindTimestamp: "TIMESTAMP DEFAULT CURRENT_TIMESTAMP",
	},
	DialectSnowflake: {
		model.KindSerial:    "NUMBER(38,0) AUTOINCREMENT",
		model.KindBigInt:    "NUMBER(38,0)",
		model.KindText:      "VARCHAR",
		model.KindShortText: "VARCHAR(16)",
		model.KindDecimal:   "FLOAT",
		model.KindTimestamp: "TIMESTAMP_LTZ DEFAULT CURRENT_TIMESTAMP()",
	},
}

// MapColumnType returns the SQL type of a column kind in a dialect
func MapColumnType(dialect string, kind model.ColumnKind) (string, error) {
	types, ok := typeMappings[dialect]
	if !ok {
		return "", fmt.Errorf("unsupported dialect %q", dialect)
	}
	sqlType, ok := types[kind]
	if !ok {
		return "", fmt.Errorf("dialect %s has no type for column kind %d", dialect, kind)
	}
	return sqlType, nil
}
