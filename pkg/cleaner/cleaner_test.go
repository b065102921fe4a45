package cleaner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/David-Botos/gazetteer/pkg/model"
)

func TestIsNull(t *testing.T) {
	for _, raw := range []string{"", "  ", `\`, `\N`, "N", "NULL", "nan", "NaN", "None"} {
		assert.True(t, IsNull(raw), "expected %q to be null", raw)
	}
	for _, raw := range []string{"0", "Lima", "Nuevo"} {
		assert.False(t, IsNull(raw), "expected %q to be present", raw)
	}
}

func TestParseOptionalInt(t *testing.T) {
	v, err := ParseOptionalInt(" 7011 ")
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.Equal(t, int64(7011), *v)

	v, err = ParseOptionalInt("12.0")
	require.NoError(t, err)
	assert.Equal(t, int64(12), *v)

	v, err = ParseOptionalInt(`\N`)
	require.NoError(t, err)
	assert.Nil(t, v)

	_, err = ParseOptionalInt("12.5")
	assert.ErrorIs(t, err, ErrNotNumeric)

	_, err = ParseOptionalInt("abc")
	assert.ErrorIs(t, err, ErrNotNumeric)
}

func TestParseOptionalFloat(t *testing.T) {
	v, err := ParseOptionalFloat("-12.0464")
	require.NoError(t, err)
	assert.InDelta(t, -12.0464, *v, 1e-9)

	v, err = ParseOptionalFloat("NULL")
	require.NoError(t, err)
	assert.Nil(t, v)

	_, err = ParseOptionalFloat("twelve")
	assert.ErrorIs(t, err, ErrNotNumeric)

	_, err = ParseOptionalFloat("Inf")
	assert.ErrorIs(t, err, ErrNotNumeric)
}

func TestCleanTerm(t *testing.T) {
	term, removed, escaped := CleanTerm(`Ciudad de los Reyes\`)
	assert.Equal(t, "Ciudad de los Reyes", term)
	assert.True(t, removed)
	assert.False(t, escaped)

	term, removed, escaped = CleanTerm("Lima|Rímac")
	assert.Equal(t, "Lima/Rímac", term)
	assert.False(t, removed)
	assert.True(t, escaped)

	term, _, _ = CleanTerm("  Cuzco   Viejo ")
	assert.Equal(t, "Cuzco Viejo", term)
}

func TestCleanNameNormalizesComposition(t *testing.T) {
	decomposed := "Bogota\u0301"
	assert.Equal(t, "Bogot\u00e1", CleanName(decomposed))
}

func TestCertaintyScore(t *testing.T) {
	tests := []struct {
		label string
		want  *int
	}{
		{"Exacta", model.IntPtr(100)},
		{"buena", model.IntPtr(85)},
		{"Suficiente", model.IntPtr(70)},
		{"Interpolada", model.IntPtr(50)},
		{"Geoservice/Satelite", model.IntPtr(40)},
		{"Geoservice / Satélite", model.IntPtr(40)},
		{"No localizado", model.IntPtr(30)},
		{"Identificación incierta", model.IntPtr(25)},
		{"Dudosa", nil},
		{"", nil},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			assert.Equal(t, tt.want, CertaintyScore(tt.label))
		})
	}
}

func TestDataCleanerAlternateNames(t *testing.T) {
	c := NewDataCleaner(zap.NewNop())

	names := c.CleanAlternateNames(model.SourceTGN, "7005685", []string{`Los Reyes\`, "", "A|B", "Lima"})
	assert.Equal(t, []string{"Los Reyes", "A/B", "Lima"}, names)

	counts := c.Counts()
	assert.Equal(t, 1, counts[model.OpBackslashRemoved])
	assert.Equal(t, 1, counts[model.OpDelimiterEscaped])
	assert.Len(t, c.Samples(), 2)
}

func TestNilDataCleaner(t *testing.T) {
	var c *DataCleaner
	names := c.CleanAlternateNames(model.SourceHGIS, "1", []string{`x\`})
	assert.Equal(t, []string{"x"}, names)
	assert.Nil(t, c.Counts())
}
