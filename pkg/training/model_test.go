package training

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/David-Botos/gazetteer/pkg/config"
)

var peruSamples = []Sample{
	{Text: "Lima|Ciudad de los Reyes Ciudad", Latitude: -12.04, Longitude: -77.04},
	{Text: "Cusco|Qosqo Ciudad", Latitude: -13.53, Longitude: -71.97},
	{Text: "Quito|San Francisco de Quito Ciudad", Latitude: -0.18, Longitude: -78.47},
}

func testConfig(neighbors int) *config.TrainingConfig {
	cfg := config.DefaultTrainingConfig()
	cfg.Model.Neighbors = neighbors
	return &cfg
}

func TestKNNWeightsBySimilarity(t *testing.T) {
	knn := NewKNNRegressor(2)
	require.NoError(t, knn.Fit(
		[]SparseVector{
			{Indices: []int32{0}, Values: []float64{1}},
			{Indices: []int32{0, 1}, Values: []float64{0.6, 0.8}},
			{Indices: []int32{1}, Values: []float64{1}},
		},
		[]float64{10, 20, 90},
		[]float64{-10, -20, -90},
	))

	lat, lng := knn.Predict(SparseVector{Indices: []int32{0}, Values: []float64{1}})
	assert.InDelta(t, 13.75, lat, 1e-9)
	assert.InDelta(t, -13.75, lng, 1e-9)

	lat, lng = knn.Predict(SparseVector{Indices: []int32{7}, Values: []float64{1}})
	assert.InDelta(t, 40, lat, 1e-9)
	assert.InDelta(t, -40, lng, 1e-9)

	assert.Error(t, knn.Fit(nil, nil, nil))
	assert.Error(t, knn.Fit([]SparseVector{{}}, []float64{1, 2}, []float64{1}))
}

func TestModelPredict(t *testing.T) {
	m, err := NewModel(testConfig(1))
	require.NoError(t, err)

	_, _, err = m.Predict("Cusco")
	assert.ErrorIs(t, err, ErrNotFitted)

	require.NoError(t, m.Fit(peruSamples))
	lat, lng, err := m.Predict("Cusco")
	require.NoError(t, err)
	assert.InDelta(t, -13.53, lat, 1e-9)
	assert.InDelta(t, -71.97, lng, 1e-9)

	lat, lng, err = m.Predict("Atlantis")
	require.NoError(t, err)
	assert.InDelta(t, (-12.04-13.53-0.18)/3, lat, 1e-9)
	assert.InDelta(t, (-77.04-71.97-78.47)/3, lng, 1e-9)
}

func TestNewModelRejectsUnknownType(t *testing.T) {
	cfg := testConfig(5)
	cfg.ModelType = "rfr"
	_, err := NewModel(cfg)
	assert.ErrorIs(t, err, ErrUnsupportedModel)
}

func TestModelSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "models", "model.gob.gz")
	m, err := NewModel(testConfig(2))
	require.NoError(t, err)

	assert.ErrorIs(t, m.Save(path), ErrNotFitted)

	require.NoError(t, m.Fit(peruSamples))
	require.NoError(t, m.Save(path))

	loaded, err := LoadModel(path)
	require.NoError(t, err)
	assert.Equal(t, 3, loaded.Samples)

	for _, text := range []string{"Lima", "Qosqo", "San Francisco", "Mexico"} {
		wantLat, wantLng, err := m.Predict(text)
		require.NoError(t, err)
		gotLat, gotLng, err := loaded.Predict(text)
		require.NoError(t, err)
		assert.InDelta(t, wantLat, gotLat, 1e-12, text)
		assert.InDelta(t, wantLng, gotLng, 1e-12, text)
	}
}
