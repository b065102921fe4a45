package converter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/David-Botos/gazetteer/pkg/model"
)

func TestGenerateCreateTable(t *testing.T) {
	tests := []struct {
		dialect  string
		contains []string
	}{
		{DialectPostgres, []string{"place_id BIGSERIAL NOT NULL", "PRIMARY KEY (place_id)", "latitude DOUBLE PRECISION"}},
		{DialectMySQL, []string{"BIGINT AUTO_INCREMENT", "ON UPDATE CURRENT_TIMESTAMP", "source VARCHAR(16) NOT NULL"}},
		{DialectSQLite, []string{"place_id INTEGER PRIMARY KEY AUTOINCREMENT", "latitude REAL"}},
		{DialectSnowflake, []string{"NUMBER(38,0) AUTOINCREMENT", "TIMESTAMP_LTZ"}},
	}

	for _, tt := range tests {
		t.Run(tt.dialect, func(t *testing.T) {
			c := NewTypeConverter(zap.NewNop(), tt.dialect)
			stmt, err := c.GenerateCreateTable(model.PlacesMetadata())
			require.NoError(t, err)

			assert.Contains(t, stmt, "CREATE TABLE IF NOT EXISTS places")
			assert.Contains(t, stmt, "UNIQUE (original_source_id, source)")
			for _, want := range tt.contains {
				assert.Contains(t, stmt, want)
			}
		})
	}
}

func TestGenerateCreateTableUnknownDialect(t *testing.T) {
	c := NewTypeConverter(zap.NewNop(), "oracle")
	_, err := c.GenerateCreateTable(model.PlacesMetadata())
	assert.Error(t, err)
}

func TestToRowRoundTrip(t *testing.T) {
	c := NewTypeConverter(zap.NewNop(), DialectSQLite)

	place := &model.CanonicalPlace{
		OriginalSourceID: 7005685,
		Source:           model.SourceTGN,
		PlaceName:        "Lima",
		PlaceType:        model.StringPtr("inhabited place"),
		Latitude:         model.Float64Ptr(-12.05),
		Longitude:        model.Float64Ptr(-77.05),
		ParentID:         model.Int64Ptr(7005684),
		AlternateNames:   []string{"Ciudad de los Reyes", "Rimac"},
		CertaintyScore:   model.IntPtr(100),
	}

	row := c.ToRow(place)
	assert.Equal(t, "Ciudad de los Reyes|Rimac", row.AlternateNames.String)
	assert.True(t, row.ParentID.Valid)

	back := row.ToCanonical()
	place.CertaintyScore = nil
	assert.Equal(t, place, back)
}

func TestToRowNulls(t *testing.T) {
	c := NewTypeConverter(zap.NewNop(), DialectPostgres)

	row := c.ToRow(&model.CanonicalPlace{
		OriginalSourceID: 1,
		Source:           model.SourceHGIS,
		PlaceType:        model.StringPtr("  "),
	})

	assert.Equal(t, model.UnnamedPlace, row.PlaceName)
	assert.False(t, row.PlaceType.Valid)
	assert.False(t, row.Latitude.Valid)
	assert.False(t, row.Longitude.Valid)
	assert.False(t, row.ParentID.Valid)
	assert.False(t, row.AlternateNames.Valid)
}
