// pkg/config/training.go
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// TrainingConfig mirrors config/model_config.yaml
type TrainingConfig struct {
	ModelType  string           `yaml:"model_type"`
	Model      ModelParams      `yaml:"model"`
	Vectorizer VectorizerParams `yaml:"vectorizer"`
	Training   TrainingParams   `yaml:"training"`
	Region     RegionParams     `yaml:"region"`
	Paths      TrainingPaths    `yaml:"paths"`
}

// ModelParams configures the coordinate regressor
type ModelParams struct {
	Neighbors   int   `yaml:"n_neighbors"`
	RandomState int64 `yaml:"random_state"`
}

// VectorizerParams configures the TF-IDF text vectorizer
type VectorizerParams struct {
	MaxFeatures   int    `yaml:"max_features"`
	StopWords     string `yaml:"stop_words"`
	FuzzyDistance int    `yaml:"fuzzy_distance"`
}

// TrainingParams configures splitting and cross-validation
type TrainingParams struct {
	CVFolds  int     `yaml:"cv_folds"`
	CVJobs   int     `yaml:"cv_jobs"`
	TestSize float64 `yaml:"test_size"`
}

// RegionParams is the lat/lng box used by the regionalize step
type RegionParams struct {
	MinLat float64 `yaml:"min_lat"`
	MaxLat float64 `yaml:"max_lat"`
	MinLng float64 `yaml:"min_lng"`
	MaxLng float64 `yaml:"max_lng"`
}

// TrainingPaths locates every artifact of the training pipeline
type TrainingPaths struct {
	TrainingData   string `yaml:"training_data"`
	RegionalData   string `yaml:"regional_data"`
	TrainTestSplit string `yaml:"train_test_split"`
	ModelOutput    string `yaml:"model_output"`
	ReportDir      string `yaml:"report_dir"`
	ValidationData string `yaml:"validation_data"`
}

// DefaultTrainingConfig returns the values used when the YAML omits a key
func DefaultTrainingConfig() TrainingConfig {
	return TrainingConfig{
		ModelType: "knn",
		Model: ModelParams{
			Neighbors:   5,
			RandomState: 42,
		},
		Vectorizer: VectorizerParams{
			MaxFeatures:   5000,
			StopWords:     "none",
			FuzzyDistance: 1,
		},
		Training: TrainingParams{
			CVFolds:  5,
			TestSize: 0.2,
		},
		// Americas bounding box
		Region: RegionParams{
			MinLat: -54.0,
			MaxLat: 71.439786,
			MinLng: -179.231086,
			MaxLng: -56.0,
		},
		Paths: TrainingPaths{
			TrainingData:   "training/data/training_data.csv",
			RegionalData:   "training/data/training_data_americas.csv",
			TrainTestSplit: "training/data/train_test_split.gob.gz",
			ModelOutput:    "models/model.gob.gz",
			ReportDir:      "models",
			ValidationData: "test/validation_data.csv",
		},
	}
}

// LoadTrainingConfig decodes a YAML file on top of the defaults
func LoadTrainingConfig(path string) (*TrainingConfig, error) {
	cfg := DefaultTrainingConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read training config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse training config %s: %w", path, err)
	}

	cfg.ModelType = strings.ToLower(strings.TrimSpace(cfg.ModelType))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate ensures the training configuration is usable
func (c *TrainingConfig) Validate() error {
	if c.ModelType == "" {
		return errors.New("model_type is required")
	}
	if c.Model.Neighbors <= 0 {
		return errors.New("model.n_neighbors must be positive")
	}
	if c.Vectorizer.MaxFeatures <= 0 {
		return errors.New("vectorizer.max_features must be positive")
	}
	if c.Vectorizer.FuzzyDistance < 0 {
		return errors.New("vectorizer.fuzzy_distance cannot be negative")
	}
	if c.Training.CVFolds < 2 {
		return errors.New("training.cv_folds must be at least 2")
	}
	if c.Training.TestSize <= 0 || c.Training.TestSize >= 1 {
		return errors.New("training.test_size must be between 0 and 1")
	}
	if c.Region.MinLat >= c.Region.MaxLat || c.Region.MinLng >= c.Region.MaxLng {
		return errors.New("region bounds are empty")
	}
	return nil
}
