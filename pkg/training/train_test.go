package training

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gonum.org/v1/gonum/stat"
)

func TestKFold(t *testing.T) {
	folds, err := KFold(10, 3)
	require.NoError(t, err)
	assert.Equal(t, []Fold{{0, 4}, {4, 7}, {7, 10}}, folds)

	_, err = KFold(2, 5)
	assert.Error(t, err)
	_, err = KFold(10, 1)
	assert.Error(t, err)
}

func TestMeanAbsoluteError(t *testing.T) {
	mae := MeanAbsoluteError(
		[]float64{0, 0}, []float64{0, 0},
		[]float64{1, 3}, []float64{2, -2},
	)
	assert.InDelta(t, 2.0, mae, 1e-12)
}

func TestCrossValidate(t *testing.T) {
	cfg := testConfig(3)
	cfg.Training.CVFolds = 5
	cfg.Training.CVJobs = 2
	trainer := NewTrainer(cfg, zaptest.NewLogger(t))

	result, err := trainer.CrossValidate(context.Background(), numberedSamples(20))
	require.NoError(t, err)
	require.Len(t, result.FoldMAE, 5)
	for _, mae := range result.FoldMAE {
		assert.GreaterOrEqual(t, mae, 0.0)
	}
	assert.InDelta(t, stat.Mean(result.FoldMAE, nil), result.Mean, 1e-12)
	assert.InDelta(t, stat.PopStdDev(result.FoldMAE, nil), result.Std, 1e-12)
}

func TestCrossValidateHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewTrainer(testConfig(3), zaptest.NewLogger(t)).CrossValidate(ctx, numberedSamples(20))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTrainerRun(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(1)
	cfg.Training.CVFolds = 4
	cfg.Paths.TrainTestSplit = filepath.Join(dir, "split.gob.gz")
	cfg.Paths.ModelOutput = filepath.Join(dir, "models", "model.gob.gz")
	cfg.Paths.ReportDir = filepath.Join(dir, "reports")
	cfg.Paths.ValidationData = filepath.Join(dir, "validation.csv")

	split, err := TrainTestSplit(numberedSamples(25), 0.2, 42)
	require.NoError(t, err)
	require.NoError(t, SaveGob(cfg.Paths.TrainTestSplit, split))
	require.NoError(t, os.WriteFile(cfg.Paths.ValidationData,
		[]byte("nombre_lugar,tipo,lat,lon\nLugar3,Ciudad,3,-6\nLugar4,,\\N,\n"), 0o644))

	report, err := NewTrainer(cfg, zaptest.NewLogger(t)).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 20, report.TrainingSamples)
	assert.Equal(t, 5, report.TestSamples)
	assert.Len(t, report.CrossValidation.FoldMAE, 4)
	require.NotNil(t, report.Validation)
	assert.Equal(t, 1, report.Validation.Samples)
	assert.Equal(t, 1, report.Validation.Skipped)

	data, err := os.ReadFile(report.ReportPath)
	require.NoError(t, err)
	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "knn", decoded["model_type"])
	assert.Contains(t, decoded, "final_model_mae")
	assert.Regexp(t, `training_report_knn_\d{4}-\d{2}-\d{2}_\d{2}-\d{2}-\d{2}\.json$`, report.ReportPath)

	_, err = LoadModel(cfg.Paths.ModelOutput)
	assert.NoError(t, err)
}

func TestTrainerRunWithoutValidationFile(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(2)
	cfg.Training.CVFolds = 2
	cfg.Paths.TrainTestSplit = filepath.Join(dir, "split.gob.gz")
	cfg.Paths.ModelOutput = filepath.Join(dir, "model.gob.gz")
	cfg.Paths.ReportDir = dir
	cfg.Paths.ValidationData = filepath.Join(dir, "absent.csv")

	split, err := TrainTestSplit(numberedSamples(10), 0.2, 7)
	require.NoError(t, err)
	require.NoError(t, SaveGob(cfg.Paths.TrainTestSplit, split))

	report, err := NewTrainer(cfg, zaptest.NewLogger(t)).Run(context.Background())
	require.NoError(t, err)
	assert.Nil(t, report.Validation)
	assert.FileExists(t, cfg.Paths.ModelOutput)
}
