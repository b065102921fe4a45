package training

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadValidation(t *testing.T) {
	input := "nombre_lugar,tipo,lat,lon\n" +
		"Lima,Ciudad,-12.04,-77.04\n" +
		"Nowhere,Pueblo,\\N,\n" +
		"Cusco,,-13.53,-71.97\n"

	records, skipped, err := ReadValidation(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, 1, skipped)
	require.Len(t, records, 2)
	assert.Equal(t, "Lima Ciudad", records[0].Text())
	assert.Equal(t, "Cusco", records[1].Text())
	assert.InDelta(t, -71.97, records[1].Longitude, 1e-9)
}

func TestReadValidationAcceptsCanonicalHeaders(t *testing.T) {
	records, _, err := ReadValidation(strings.NewReader("place_name,place_type,latitude,longitude\nQuito,Ciudad,-0.18,-78.47\n"))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Quito Ciudad", records[0].Text())

	_, _, err = ReadValidation(strings.NewReader("nombre_lugar,lon\nLima,-77\n"))
	assert.ErrorContains(t, err, "lat")
}

func TestScore(t *testing.T) {
	m := Score([]float64{10, 0}, []float64{20, 0}, []float64{12, 0}, []float64{17, 0})
	assert.Equal(t, 2, m.Samples)
	assert.InDelta(t, 1.0, m.MAELatitude, 1e-12)
	assert.InDelta(t, 1.5, m.MAELongitude, 1e-12)
	assert.InDelta(t, 2.0, m.MSELatitude, 1e-12)
	assert.InDelta(t, 4.5, m.MSELongitude, 1e-12)
	assert.Greater(t, m.MeanDistanceKm, 0.0)
}

func TestDistanceKm(t *testing.T) {
	assert.InDelta(t, 111.195, DistanceKm(0, 0, 0, 1), 0.01)
	assert.InDelta(t, 0, DistanceKm(-12.04, -77.04, -12.04, -77.04), 1e-9)
}

func TestEvaluate(t *testing.T) {
	m, err := NewModel(testConfig(1))
	require.NoError(t, err)
	require.NoError(t, m.Fit(peruSamples))

	metrics, err := Evaluate(m, &ValidationSet{
		Records: []ValidationRecord{{Name: "Cusco", Type: "Ciudad", Latitude: -13.53, Longitude: -71.97}},
		Skipped: 4,
	})
	require.NoError(t, err)
	assert.Equal(t, 4, metrics.Skipped)
	assert.InDelta(t, 0, metrics.MAELatitude, 1e-9)

	_, err = Evaluate(m, &ValidationSet{})
	assert.Error(t, err)
}
