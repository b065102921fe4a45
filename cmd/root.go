// Package cmd holds the gazetteer command line
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/David-Botos/gazetteer/pkg/config"
	"github.com/David-Botos/gazetteer/pkg/connector"
)

// app carries what every subcommand shares
type app struct {
	envFile     string
	logLevel    string
	logFormat   string
	metricsAddr string

	stdout   io.Writer
	logger   *zap.Logger
	registry *prometheus.Registry
	server   *http.Server
}

// NewRootCommand builds the gazetteer command tree
func NewRootCommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	a := &app{stdout: stdout, logger: zap.NewNop()}

	rc := &cobra.Command{
		Use:   "gazetteer",
		Short: "Load historical gazetteers and train a place-to-coordinate model",
		Long: `Loads the Getty TGN and HGIS de las Indias gazetteers into a relational
store, exports training data from it, and trains and validates a model that
predicts coordinates from place names.`,
		SilenceUsage:       true,
		SilenceErrors:      true,
		PersistentPreRunE:  a.setup,
		PersistentPostRunE: a.teardown,
	}

	flags := rc.PersistentFlags()
	flags.StringVar(&a.envFile, "env-file", "", "env file to load (default .env when present)")
	flags.StringVar(&a.logLevel, "log-level", "", "debug, info, warn or error (default LOG_LEVEL or info)")
	flags.StringVar(&a.logFormat, "log-format", "", "console or json (default LOG_FORMAT or console)")
	flags.StringVar(&a.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address, e.g. :9090")

	rc.AddCommand(newInitCommand(a))
	rc.AddCommand(newImportTGNCommand(a))
	rc.AddCommand(newImportHGISCommand(a))
	rc.AddCommand(newTranslateTypesCommand(a))
	rc.AddCommand(newExtractTrainingCommand(a))
	rc.AddCommand(newRegionalizeCommand(a))
	rc.AddCommand(newPreprocessCommand(a))
	rc.AddCommand(newTrainCommand(a))
	rc.AddCommand(newValidateCommand(a))
	rc.AddCommand(newPredictCommand(a))
	rc.AddCommand(newConvertLegacyCommand(a))

	rc.SetIn(stdin)
	rc.SetOut(stdout)
	rc.SetErr(stderr)
	return rc
}

func (a *app) setup(c *cobra.Command, args []string) error {
	if err := config.LoadEnvFile(a.envFile); err != nil {
		return err
	}

	level := firstNonEmpty(a.logLevel, os.Getenv("LOG_LEVEL"), "info")
	format := firstNonEmpty(a.logFormat, os.Getenv("LOG_FORMAT"), "console")
	logger, err := newLogger(level, format)
	if err != nil {
		return err
	}
	a.logger = logger

	a.registry = prometheus.NewRegistry()
	a.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	if a.metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{}))
		a.server = &http.Server{Addr: a.metricsAddr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
		go func() {
			if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				a.logger.Error("Metrics server stopped", zap.Error(err))
			}
		}()
		a.logger.Info("Serving metrics", zap.String("addr", a.metricsAddr))
	}
	return nil
}

func (a *app) teardown(c *cobra.Command, args []string) error {
	if a.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.server.Shutdown(ctx); err != nil {
			a.logger.Warn("Failed to stop metrics server", zap.Error(err))
		}
	}
	_ = a.logger.Sync()
	return nil
}

// config loads the environment configuration, including the sink
func (a *app) config() (*config.Config, error) {
	return config.LoadConfig()
}

// trainingConfig loads the model configuration. A missing default file
// falls back to the built-in defaults.
func (a *app) trainingConfig(path string) (*config.TrainingConfig, error) {
	explicit := path != ""
	if !explicit {
		path = firstNonEmpty(os.Getenv("MODEL_CONFIG"), "config/model_config.yaml")
	}

	cfg, err := config.LoadTrainingConfig(path)
	if errors.Is(err, os.ErrNotExist) && !explicit {
		a.logger.Warn("Model configuration not found, using defaults", zap.String("path", path))
		defaults := config.DefaultTrainingConfig()
		return &defaults, nil
	}
	return cfg, err
}

// openStore connects to the configured sink
func (a *app) openStore(ctx context.Context) (*connector.PlaceStore, *config.Config, error) {
	cfg, err := a.config()
	if err != nil {
		return nil, nil, err
	}
	a.logger.Info("Opening sink", zap.String("sink", cfg.Sink.Redacted()))
	store, err := connector.NewConnectorFactory(cfg.Sink, a.logger).CreatePlaceStore(ctx)
	if err != nil {
		return nil, nil, err
	}
	return store, cfg, nil
}

func (a *app) printf(format string, args ...interface{}) {
	fmt.Fprintf(a.stdout, format, args...)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
