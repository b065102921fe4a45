package cmd

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const hgisExport = "gz_id,nombre_lugar,tipo,lat,lon,otros_nombres,cert\n" +
	"1,Lima,Ciudad,-12.046,-77.043,Ciudad de los Reyes,Exacta\n" +
	"2,Cusco,Ciudad,-13.532,-71.967,Qosqo,Exacta\n" +
	"3,Quito,Ciudad,-0.180,-78.467,San Francisco de Quito,Buena\n" +
	"4,Bogota,Ciudad,4.711,-74.072,Santa Fe de Bogota,Exacta\n" +
	"5,Mexico,Ciudad,19.433,-99.133,Tenochtitlan,Exacta\n" +
	"6,Puebla,Ciudad,19.041,-98.206,Puebla de los Angeles,Buena\n" +
	"7,Santiago,Ciudad,-33.449,-70.669,Santiago del Nuevo Extremo,Exacta\n" +
	"8,Potosi,Villa,-19.589,-65.753,Villa Imperial,Exacta\n" +
	"9,Cartagena,Ciudad,10.391,-75.479,Cartagena de Indias,Exacta\n" +
	"10,La Habana,Villa,23.113,-82.366,San Cristobal de La Habana,Exacta\n"

func setupEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	modelConfig := fmt.Sprintf(`model_type: knn
model:
  n_neighbors: 1
training:
  cv_folds: 2
  test_size: 0.2
paths:
  training_data: %[1]s/training.csv
  regional_data: %[1]s/regional.csv
  train_test_split: %[1]s/split.gob.gz
  model_output: %[1]s/model.gob.gz
  report_dir: %[1]s/reports
  validation_data: %[1]s/validation.csv
`, dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "model_config.yaml"), []byte(modelConfig), 0o644))

	t.Setenv("SINK_DRIVER", "sqlite3")
	t.Setenv("SQLITE_PATH", filepath.Join(dir, "gazetteer.db"))
	t.Setenv("RAW_DATA_DIR", filepath.Join(dir, "raw_data"))
	t.Setenv("LOG_DIR", filepath.Join(dir, "logs"))
	t.Setenv("MODEL_CONFIG", filepath.Join(dir, "model_config.yaml"))
	t.Setenv("LOG_LEVEL", "error")
	return dir
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	rc := NewRootCommand(strings.NewReader(""), &stdout, &stderr)
	rc.SetArgs(args)
	err := rc.ExecuteContext(context.Background())
	return stdout.String(), err
}

func TestInitRequiresForceToRecreate(t *testing.T) {
	dir := setupEnv(t)

	_, err := run(t, "init")
	require.NoError(t, err)
	assert.DirExists(t, filepath.Join(dir, "raw_data", "TGN"))
	assert.DirExists(t, filepath.Join(dir, "raw_data", "HGIS"))
	assert.DirExists(t, filepath.Join(dir, "logs"))

	_, err = run(t, "init")
	assert.ErrorContains(t, err, "--force")

	_, err = run(t, "init", "--force")
	assert.NoError(t, err)
}

func TestPipeline(t *testing.T) {
	dir := setupEnv(t)
	export := filepath.Join(dir, "hgis.csv")
	require.NoError(t, os.WriteFile(export, []byte(hgisExport), 0o644))

	_, err := run(t, "init")
	require.NoError(t, err)

	out, err := run(t, "import-hgis", export)
	require.NoError(t, err)
	assert.Contains(t, out, "HGIS")

	out, err = run(t, "extract-training")
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote 10 rows")

	out, err = run(t, "regionalize")
	require.NoError(t, err)
	assert.Contains(t, out, "Kept 10 of 10 rows")

	out, err = run(t, "preprocess")
	require.NoError(t, err)
	assert.Contains(t, out, "Saved 8 training and 2 test samples")

	out, err = run(t, "train")
	require.NoError(t, err)
	assert.Contains(t, out, "CV MAE")
	assert.FileExists(t, filepath.Join(dir, "model.gob.gz"))

	out, err = run(t, "predict", "Cusco", "--type", "Ciudad")
	require.NoError(t, err)
	assert.Regexp(t, `^-?\d+\.\d{6},-?\d+\.\d{6}\n$`, out)
}

func TestImportRejectsUnknownPolicy(t *testing.T) {
	dir := setupEnv(t)
	export := filepath.Join(dir, "hgis.csv")
	require.NoError(t, os.WriteFile(export, []byte(hgisExport), 0o644))

	_, err := run(t, "import-hgis", export, "--on-batch-error", "retry")
	assert.ErrorContains(t, err, "unknown batch error policy")
}

func TestImportTGNNeedsExports(t *testing.T) {
	setupEnv(t)
	_, err := run(t, "import-tgn")
	assert.ErrorContains(t, err, "no TGN exports")
}

func TestConvertLegacy(t *testing.T) {
	dir := setupEnv(t)
	in := filepath.Join(dir, "tgn.csv")
	require.NoError(t, os.WriteFile(in, []byte(
		"place_id\tplace_name\tplace_type\tlatitude\tlongitude\tparent_id\talternate_names\tcreated_at\tupdated_at\n"+
			"7005685\tMexico\tnations\t23\t-102\t\\N\t\t\t\n"), 0o644))

	out, err := run(t, "convert-legacy", in)
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote 1 rows")
	assert.FileExists(t, filepath.Join(dir, "tgn_new_columns.csv"))
}

func TestPredictWithoutModel(t *testing.T) {
	setupEnv(t)
	_, err := run(t, "predict", "Lima")
	assert.ErrorContains(t, err, "loading model")
}

func TestNewLogger(t *testing.T) {
	_, err := newLogger("debug", "json")
	assert.NoError(t, err)
	_, err = newLogger("loud", "json")
	assert.Error(t, err)
	_, err = newLogger("info", "xml")
	assert.Error(t, err)
}
