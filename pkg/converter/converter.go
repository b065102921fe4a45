// pkg/converter/converter.go
package converter

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/David-Botos/gazetteer/pkg/model"
)

// TypeConverter maps the places model onto a SQL dialect. Blank text
// values are stored as NULL.
type TypeConverter struct {
	logger  *zap.Logger
	dialect string
}

func NewTypeConverter(logger *zap.Logger, dialect string) *TypeConverter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TypeConverter{logger: logger, dialect: dialect}
}

// Dialect returns the target dialect
func (c *TypeConverter) Dialect() string {
	return c.dialect
}

// GenerateColumnDefinitions creates column definitions for the dialect
func (c *TypeConverter) GenerateColumnDefinitions(metadata *model.TableMetadata) ([]string, error) {
	definitions := make([]string, 0, len(metadata.Columns))

	for _, col := range metadata.Columns {
		sqlType, err := MapColumnType(c.dialect, col.Kind)
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", col.Name, err)
		}

		def := fmt.Sprintf("%s %s", col.Name, sqlType)
		switch {
		case col.IsPrimaryKey && c.dialect == DialectSQLite:
			// rowid alias; AUTOINCREMENT keeps ids from being reused
			def += " PRIMARY KEY AUTOINCREMENT"
		case col.IsPrimaryKey, !col.Nullable && !col.Defaulted:
			def += " NOT NULL"
		}
		if col.Name == "updated_at" && c.dialect == DialectMySQL {
			def += " ON UPDATE CURRENT_TIMESTAMP"
		}

		definitions = append(definitions, def)
	}

	return definitions, nil
}

// GenerateCreateTable builds the CREATE TABLE statement for a table
func (c *TypeConverter) GenerateCreateTable(metadata *model.TableMetadata) (string, error) {
	definitions, err := c.GenerateColumnDefinitions(metadata)
	if err != nil {
		return "", err
	}

	if len(metadata.PrimaryKeys) > 0 && c.dialect != DialectSQLite {
		definitions = append(definitions,
			fmt.Sprintf("PRIMARY KEY (%s)", strings.Join(metadata.PrimaryKeys, ", ")))
	}
	if len(metadata.UniqueKeys) > 0 {
		definitions = append(definitions,
			fmt.Sprintf("CONSTRAINT uq_%s_natural_key UNIQUE (%s)",
				metadata.Table, strings.Join(metadata.UniqueKeys, ", ")))
	}

	stmt := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n\t%s\n)",
		metadata.Table, strings.Join(definitions, ",\n\t"))

	c.logger.Debug("Generated table definition",
		zap.String("dialect", c.dialect),
		zap.String("table", metadata.Table))

	return stmt, nil
}

// GenerateDropTable builds the DROP TABLE statement for a table
func (c *TypeConverter) GenerateDropTable(metadata *model.TableMetadata) string {
	return fmt.Sprintf("DROP TABLE IF EXISTS %s", metadata.Table)
}
