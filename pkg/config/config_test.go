package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jackc/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("SINK_DRIVER", "sqlite3")
	t.Setenv("SQLITE_PATH", filepath.Join(t.TempDir(), "places.db"))

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 1000, cfg.BatchSize)
	assert.Equal(t, 1000, cfg.ProgressEvery)
	assert.Equal(t, PolicyContinue, cfg.TGNBatchPolicy)
	assert.Equal(t, PolicyAbort, cfg.HGISBatchPolicy)
	assert.Equal(t, "sqlite3", cfg.Sink.DriverName())
}

func TestLoadConfigRejectsUnknownPolicy(t *testing.T) {
	t.Setenv("SINK_DRIVER", "sqlite3")
	t.Setenv("HGIS_BATCH_ERROR_POLICY", "retry")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HGIS_BATCH_ERROR_POLICY")
}

func TestLoadReadsEnvFile(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(envFile, []byte("SINK_DRIVER=sqlite3\nBATCH_SIZE=250\n"), 0o600))

	// godotenv never overrides variables that are already set
	t.Setenv("SINK_DRIVER", "")
	t.Setenv("BATCH_SIZE", "")
	os.Unsetenv("SINK_DRIVER")
	os.Unsetenv("BATCH_SIZE")

	cfg, err := Load(envFile)
	require.NoError(t, err)
	assert.Equal(t, 250, cfg.BatchSize)
	assert.Equal(t, DriverSQLite, cfg.Sink.Driver)
}

func TestPostgresConnectionStrings(t *testing.T) {
	tests := []struct {
		name string
		cfg  SinkConfig
		port uint16
		tls  bool
	}{
		{
			name: "fields",
			cfg:  SinkConfig{Driver: DriverPostgres, Host: "db", Port: 5432, User: "u", Password: "p", Database: "places", SSLMode: "disable"},
			port: 5432,
		},
		{
			name: "url",
			cfg:  SinkConfig{Driver: DriverPostgres, URL: "postgres://u:p@db:5433/places?sslmode=require"},
			port: 5433,
			tls:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dsn, err := tt.cfg.ConnectionString()
			require.NoError(t, err)

			parsed, err := pgconn.ParseConfig(dsn)
			require.NoError(t, err)
			assert.Equal(t, "db", parsed.Host)
			assert.Equal(t, tt.port, parsed.Port)
			assert.Equal(t, "u", parsed.User)
			assert.Equal(t, "p", parsed.Password)
			assert.Equal(t, "places", parsed.Database)
			assert.Equal(t, tt.tls, parsed.TLSConfig != nil)
		})
	}
}

func TestSinkConnectionStrings(t *testing.T) {
	tests := []struct {
		name     string
		cfg      SinkConfig
		contains []string
	}{
		{
			name:     "mysql",
			cfg:      SinkConfig{Driver: DriverMySQL, Host: "db", Port: 3306, User: "u", Password: "p", Database: "places"},
			contains: []string{"u:p@tcp(db:3306)/places", "parseTime=true"},
		},
		{
			name:     "sqlite",
			cfg:      SinkConfig{Driver: DriverSQLite, Path: "file.db"},
			contains: []string{"file.db"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dsn, err := tt.cfg.ConnectionString()
			require.NoError(t, err)
			for _, want := range tt.contains {
				assert.Contains(t, dsn, want)
			}
		})
	}
}

func TestSinkValidate(t *testing.T) {
	assert.Error(t, (&SinkConfig{Driver: "oracle"}).Validate())
	assert.Error(t, (&SinkConfig{Driver: DriverMySQL, Database: "places"}).Validate())
	assert.NoError(t, (&SinkConfig{Driver: DriverMySQL, User: "u", Database: "places"}).Validate())
	assert.NoError(t, (&SinkConfig{Driver: DriverPostgres, URL: "postgres://db/places"}).Validate())
	assert.Error(t, (&SinkConfig{Driver: DriverSnowflake, User: "u", Database: "d"}).Validate())
}

func TestLoadTrainingConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model_config.yaml")
	yamlDoc := strings.Join([]string{
		"model_type: KNN",
		"model:",
		"  n_neighbors: 3",
		"vectorizer:",
		"  max_features: 200",
		"  stop_words: spanish",
		"training:",
		"  cv_folds: 4",
		"paths:",
		"  model_output: out/model.gob.gz",
	}, "\n")
	require.NoError(t, os.WriteFile(path, []byte(yamlDoc), 0o600))

	cfg, err := LoadTrainingConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "knn", cfg.ModelType)
	assert.Equal(t, 3, cfg.Model.Neighbors)
	assert.Equal(t, int64(42), cfg.Model.RandomState)
	assert.Equal(t, 200, cfg.Vectorizer.MaxFeatures)
	assert.Equal(t, "spanish", cfg.Vectorizer.StopWords)
	assert.Equal(t, 4, cfg.Training.CVFolds)
	assert.InDelta(t, 0.2, cfg.Training.TestSize, 1e-9)
	assert.Equal(t, "out/model.gob.gz", cfg.Paths.ModelOutput)
	assert.Equal(t, "test/validation_data.csv", cfg.Paths.ValidationData)
}

func TestLoadTrainingConfigValidation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("training:\n  cv_folds: 1\n"), 0o600))

	_, err := LoadTrainingConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cv_folds")
}
