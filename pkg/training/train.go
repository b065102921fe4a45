// pkg/training/train.go
package training

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"

	"github.com/David-Botos/gazetteer/pkg/config"
)

const (
	reportTimeLayout = "2006-01-02 15:04:05"
	reportFileLayout = "2006-01-02_15-04-05"
)

// Fold is a half-open range of held-out sample indices
type Fold struct {
	Start, End int
}

// KFold partitions n samples into k contiguous folds. The first n%k folds
// hold one extra sample.
func KFold(n, k int) ([]Fold, error) {
	if k < 2 {
		return nil, fmt.Errorf("need at least 2 folds, got %d", k)
	}
	if n < k {
		return nil, fmt.Errorf("cannot split %d samples into %d folds", n, k)
	}

	folds := make([]Fold, k)
	start := 0
	for i := range folds {
		size := n / k
		if i < n%k {
			size++
		}
		folds[i] = Fold{Start: start, End: start + size}
		start += size
	}
	return folds, nil
}

// MeanAbsoluteError averages the absolute latitude and longitude errors
// over both outputs
func MeanAbsoluteError(lat, lng, predLat, predLng []float64) float64 {
	errs := make([]float64, 0, 2*len(lat))
	for i := range lat {
		errs = append(errs, math.Abs(lat[i]-predLat[i]), math.Abs(lng[i]-predLng[i]))
	}
	return stat.Mean(errs, nil)
}

// CVResult is the outcome of cross-validation
type CVResult struct {
	FoldMAE []float64 `json:"fold_mae"`
	Mean    float64   `json:"mean_mae"`
	Std     float64   `json:"std_mae"`
}

// Report is written as JSON after each training run
type Report struct {
	StartTime        string             `json:"start_time"`
	EndTime          string             `json:"end_time"`
	ModelType        string             `json:"model_type"`
	Neighbors        int                `json:"n_neighbors"`
	RandomState      int64              `json:"random_state"`
	MaxFeatures      int                `json:"max_features"`
	StopWords        string             `json:"stop_words"`
	FuzzyDistance    int                `json:"fuzzy_distance"`
	TrainingSamples  int                `json:"training_samples"`
	TestSamples      int                `json:"test_samples"`
	CrossValidation  CVResult           `json:"cross_validation"`
	FinalModelMAE    float64            `json:"final_model_mae"`
	Validation       *ValidationMetrics `json:"validation,omitempty"`
	ModelPath        string             `json:"model_path,omitempty"`
	ReportPath       string             `json:"-"`
	TrainingDuration string             `json:"training_duration"`
}

// Trainer fits and evaluates models from a training configuration
type Trainer struct {
	cfg    *config.TrainingConfig
	logger *zap.Logger
}

// NewTrainer creates a trainer
func NewTrainer(cfg *config.TrainingConfig, logger *zap.Logger) *Trainer {
	return &Trainer{cfg: cfg, logger: logger.Named("train")}
}

// CrossValidate fits one model per fold, bounded by cv_jobs concurrent
// fits, and scores each on its held-out fold
func (t *Trainer) CrossValidate(ctx context.Context, samples []Sample) (CVResult, error) {
	folds, err := KFold(len(samples), t.cfg.Training.CVFolds)
	if err != nil {
		return CVResult{}, err
	}
	if _, err := NewModel(t.cfg); err != nil {
		return CVResult{}, err
	}

	jobs := t.cfg.Training.CVJobs
	if jobs <= 0 {
		jobs = len(folds)
	}
	t.logger.Info("Starting cross-validation",
		zap.Int("folds", len(folds)),
		zap.Int("jobs", jobs),
		zap.Int("samples", len(samples)))

	scores := make([]float64, len(folds))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for i, fold := range folds {
		i, fold := i, fold
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			train := make([]Sample, 0, len(samples)-(fold.End-fold.Start))
			train = append(train, samples[:fold.Start]...)
			train = append(train, samples[fold.End:]...)
			held := samples[fold.Start:fold.End]

			m, err := NewModel(t.cfg)
			if err != nil {
				return err
			}
			if err := m.Fit(train); err != nil {
				return fmt.Errorf("fold %d: %w", i+1, err)
			}
			mae, err := m.score(held)
			if err != nil {
				return fmt.Errorf("fold %d: %w", i+1, err)
			}
			scores[i] = mae
			t.logger.Debug("Fold complete", zap.Int("fold", i+1), zap.Float64("mae", mae))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return CVResult{}, fmt.Errorf("cross-validation failed: %w", err)
	}

	result := CVResult{
		FoldMAE: scores,
		Mean:    stat.Mean(scores, nil),
		Std:     stat.PopStdDev(scores, nil),
	}
	t.logger.Info("Cross-validation complete",
		zap.Float64("mean_mae", result.Mean),
		zap.Float64("std_mae", result.Std))
	return result, nil
}

// score returns the MAE of the model over samples
func (m *Model) score(samples []Sample) (float64, error) {
	predLat, predLng, err := m.PredictAll(samples)
	if err != nil {
		return 0, err
	}
	lat := make([]float64, len(samples))
	lng := make([]float64, len(samples))
	for i, s := range samples {
		lat[i], lng[i] = s.Latitude, s.Longitude
	}
	return MeanAbsoluteError(lat, lng, predLat, predLng), nil
}

// Train cross-validates on the training half of split, fits the final
// model on it and scores that model on the test half
func (t *Trainer) Train(ctx context.Context, split *Split) (*Model, *Report, error) {
	if split == nil || len(split.Train) == 0 {
		return nil, nil, errors.New("no training samples")
	}

	start := time.Now()
	report := t.newReport(start)
	report.TrainingSamples = len(split.Train)
	report.TestSamples = len(split.Test)
	t.logger.Info("Data loaded",
		zap.Int("training_samples", report.TrainingSamples),
		zap.Int("test_samples", report.TestSamples))

	cv, err := t.CrossValidate(ctx, split.Train)
	if err != nil {
		return nil, nil, err
	}
	report.CrossValidation = cv

	t.logger.Info("Training final model")
	m, err := NewModel(t.cfg)
	if err != nil {
		return nil, nil, err
	}
	if err := m.Fit(split.Train); err != nil {
		return nil, nil, fmt.Errorf("training final model: %w", err)
	}

	if len(split.Test) > 0 {
		if report.FinalModelMAE, err = m.score(split.Test); err != nil {
			return nil, nil, err
		}
	}
	t.logger.Info("Model evaluation complete", zap.Float64("mae", report.FinalModelMAE))

	report.EndTime = time.Now().Format(reportTimeLayout)
	report.TrainingDuration = time.Since(start).Round(time.Millisecond).String()
	return m, report, nil
}

func (t *Trainer) newReport(start time.Time) *Report {
	return &Report{
		StartTime:     start.Format(reportTimeLayout),
		ModelType:     t.cfg.ModelType,
		Neighbors:     t.cfg.Model.Neighbors,
		RandomState:   t.cfg.Model.RandomState,
		MaxFeatures:   t.cfg.Vectorizer.MaxFeatures,
		StopWords:     t.cfg.Vectorizer.StopWords,
		FuzzyDistance: t.cfg.Vectorizer.FuzzyDistance,
	}
}

// Run loads the persisted split, trains, validates against the validation
// file when it exists, writes the report and saves the model
func (t *Trainer) Run(ctx context.Context) (*Report, error) {
	paths := t.cfg.Paths
	split, err := LoadSplit(paths.TrainTestSplit)
	if err != nil {
		return nil, fmt.Errorf("loading train/test split: %w", err)
	}

	m, report, err := t.Train(ctx, split)
	if err != nil {
		return nil, err
	}

	if paths.ValidationData != "" {
		set, err := ReadValidationFile(paths.ValidationData)
		switch {
		case errors.Is(err, os.ErrNotExist):
			t.logger.Warn("Validation data not found, skipping validation",
				zap.String("path", paths.ValidationData))
		case err != nil:
			return nil, err
		default:
			metrics, err := Evaluate(m, set)
			if err != nil {
				return nil, fmt.Errorf("validating model: %w", err)
			}
			report.Validation = &metrics
			metrics.Log(t.logger)
		}
	}

	report.ModelPath = paths.ModelOutput
	if report.ReportPath, err = WriteReport(paths.ReportDir, report); err != nil {
		return nil, err
	}
	t.logger.Info("Training report written", zap.String("path", report.ReportPath))

	if err := m.Save(paths.ModelOutput); err != nil {
		return nil, fmt.Errorf("saving model: %w", err)
	}
	t.logger.Info("Model saved", zap.String("path", paths.ModelOutput))
	return report, nil
}

// WriteReport writes report as indented JSON into dir, named after the
// model type and end time
func WriteReport(dir string, report *Report) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating report directory: %w", err)
	}

	end := time.Now()
	if parsed, err := time.ParseInLocation(reportTimeLayout, report.EndTime, time.Local); err == nil {
		end = parsed
	}
	path := filepath.Join(dir, fmt.Sprintf("training_report_%s_%s.json", report.ModelType, end.Format(reportFileLayout)))

	data, err := json.MarshalIndent(report, "", "    ")
	if err != nil {
		return "", fmt.Errorf("encoding report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing report: %w", err)
	}
	return path, nil
}
