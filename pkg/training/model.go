// pkg/training/model.go
package training

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/David-Botos/gazetteer/pkg/config"
)

// ModelKNN is the only supported model type
const ModelKNN = "knn"

// ErrUnsupportedModel is returned for an unknown model_type
var ErrUnsupportedModel = errors.New("unsupported model type")

// ErrNotFitted is returned when predicting with an untrained model
var ErrNotFitted = errors.New("model has not been fitted")

// Model maps place text to coordinates
type Model struct {
	Type       string
	Vectorizer *Vectorizer
	Regressor  *KNNRegressor
	TrainedAt  time.Time
	Samples    int
}

// NewModel creates an unfitted model from the training configuration
func NewModel(cfg *config.TrainingConfig) (*Model, error) {
	modelType := strings.ToLower(strings.TrimSpace(cfg.ModelType))
	if modelType != ModelKNN {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedModel, cfg.ModelType)
	}

	vec, err := NewVectorizer(cfg.Vectorizer.MaxFeatures, cfg.Vectorizer.StopWords, cfg.Vectorizer.FuzzyDistance)
	if err != nil {
		return nil, err
	}
	return &Model{
		Type:       modelType,
		Vectorizer: vec,
		Regressor:  NewKNNRegressor(cfg.Model.Neighbors),
	}, nil
}

// Fit trains the vectorizer and regressor on samples
func (m *Model) Fit(samples []Sample) error {
	if len(samples) == 0 {
		return errors.New("no samples to fit")
	}

	docs := make([]string, len(samples))
	lat := make([]float64, len(samples))
	lng := make([]float64, len(samples))
	for i, s := range samples {
		docs[i] = s.Text
		lat[i] = s.Latitude
		lng[i] = s.Longitude
	}

	if err := m.Vectorizer.Fit(docs); err != nil {
		return fmt.Errorf("fitting vectorizer: %w", err)
	}
	vectors := make([]SparseVector, len(docs))
	for i, d := range docs {
		vectors[i] = m.Vectorizer.Transform(d)
	}
	if err := m.Regressor.Fit(vectors, lat, lng); err != nil {
		return fmt.Errorf("fitting regressor: %w", err)
	}

	m.TrainedAt = time.Now().UTC()
	m.Samples = len(samples)
	return nil
}

// Fitted reports whether Fit has completed
func (m *Model) Fitted() bool {
	return m.Regressor != nil && len(m.Regressor.Vectors) > 0 && len(m.Vectorizer.Terms) > 0
}

// Predict returns the latitude and longitude for text
func (m *Model) Predict(text string) (float64, float64, error) {
	if !m.Fitted() {
		return 0, 0, ErrNotFitted
	}
	lat, lng := m.Regressor.Predict(m.Vectorizer.Transform(text))
	return lat, lng, nil
}

// PredictAll predicts every sample and returns the coordinates in order
func (m *Model) PredictAll(samples []Sample) ([]float64, []float64, error) {
	lat := make([]float64, len(samples))
	lng := make([]float64, len(samples))
	for i, s := range samples {
		var err error
		if lat[i], lng[i], err = m.Predict(s.Text); err != nil {
			return nil, nil, err
		}
	}
	return lat, lng, nil
}

// Save writes the fitted model to path
func (m *Model) Save(path string) error {
	if !m.Fitted() {
		return ErrNotFitted
	}
	return SaveGob(path, m)
}

// LoadModel reads a model written by Save
func LoadModel(path string) (*Model, error) {
	var m Model
	if err := LoadGob(path, &m); err != nil {
		return nil, err
	}
	if m.Vectorizer == nil || m.Regressor == nil {
		return nil, fmt.Errorf("%s: incomplete model file", path)
	}
	if err := m.Vectorizer.init(); err != nil {
		return nil, err
	}
	m.Regressor.index()
	return &m, nil
}
