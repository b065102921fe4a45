package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/David-Botos/gazetteer/pkg/config"
	"github.com/David-Botos/gazetteer/pkg/connector"
	"github.com/David-Botos/gazetteer/pkg/model"
	"github.com/David-Botos/gazetteer/pkg/placetype"
	"github.com/David-Botos/gazetteer/pkg/transfer"
)

func newInitCommand(a *app) *cobra.Command {
	var force bool
	c := &cobra.Command{
		Use:   "init",
		Short: "Create working directories and the places table",
		Long: `
Creates the raw data and log directories and the places table. An existing
table is only dropped and recreated with --force.
`,
		Args: cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			store, cfg, err := a.openStore(c.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			for _, dir := range []string{
				filepath.Join(cfg.RawDataDir, model.SourceTGN),
				filepath.Join(cfg.RawDataDir, model.SourceHGIS),
				cfg.LogDir,
			} {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return fmt.Errorf("creating %s: %w", dir, err)
				}
			}

			if err := store.CreateSchema(c.Context(), force); err != nil {
				if errors.Is(err, connector.ErrForceRequired) {
					return fmt.Errorf("%w (rerun with --force to delete all stored places)", err)
				}
				return err
			}
			a.printf("Initialized %s\n", cfg.Sink.Redacted())
			return nil
		},
	}
	c.Flags().BoolVar(&force, "force", false, "drop and recreate an existing places table")
	return c
}

// ingestFlags are shared by the import commands
type ingestFlags struct {
	force          bool
	onBatchError   string
	translateTypes bool
}

func (f *ingestFlags) register(c *cobra.Command, defaultPolicyEnv string) {
	c.Flags().BoolVar(&f.force, "force", false, "delete the source's stored places before loading")
	c.Flags().StringVar(&f.onBatchError, "on-batch-error", "",
		fmt.Sprintf("continue or abort after a failed batch (default %s)", defaultPolicyEnv))
}

func (f *ingestFlags) options(configured string) (transfer.IngestOptions, error) {
	name := configured
	if f.onBatchError != "" {
		name = f.onBatchError
	}
	policy, err := transfer.ParseBatchErrorPolicy(name)
	if err != nil {
		return transfer.IngestOptions{}, err
	}
	return transfer.IngestOptions{Policy: policy, Force: f.force, TranslateTypes: f.translateTypes}, nil
}

// newIngestor wires an ingestor to the configured sink
func (a *app) newIngestor(cfg *config.Config) *transfer.Ingestor {
	factory := connector.NewConnectorFactory(cfg.Sink, a.logger)
	open := func(ctx context.Context) (transfer.Sink, error) {
		store, err := factory.CreatePlaceStore(ctx)
		if err != nil {
			return nil, err
		}
		return store, nil
	}
	return transfer.NewIngestor(open, cfg, transfer.NewIngestMetrics(a.registry), a.logger)
}

func (a *app) reportIngest(result *transfer.IngestResult, err error) error {
	if result != nil {
		a.printf("%s", result.GenerateReport())
	}
	return err
}

func newImportTGNCommand(a *app) *cobra.Command {
	var flags ingestFlags
	c := &cobra.Command{
		Use:   "import-tgn [FILE...]",
		Short: "Load TGN XML exports",
		Long: `
Streams every Subject of the given TGN XML exports into the places table.
Without arguments, loads every .xml file under RAW_DATA_DIR/TGN.
`,
		RunE: func(c *cobra.Command, args []string) error {
			cfg, err := a.config()
			if err != nil {
				return err
			}
			opts, err := flags.options(cfg.TGNBatchPolicy)
			if err != nil {
				return err
			}

			paths := args
			if len(paths) == 0 {
				pattern := filepath.Join(cfg.RawDataDir, model.SourceTGN, "*.xml")
				if paths, err = filepath.Glob(pattern); err != nil {
					return err
				}
				if len(paths) == 0 {
					return fmt.Errorf("no TGN exports match %s", pattern)
				}
				sort.Strings(paths)
			}
			a.logger.Info("Importing TGN", zap.Strings("paths", paths))

			return a.reportIngest(a.newIngestor(cfg).IngestTGN(c.Context(), paths, opts))
		},
	}
	flags.register(c, "TGN_BATCH_ERROR_POLICY or continue")
	return c
}

func newImportHGISCommand(a *app) *cobra.Command {
	var flags ingestFlags
	c := &cobra.Command{
		Use:   "import-hgis FILE",
		Short: "Load an HGIS table export",
		Long: `
Loads an HGIS CSV or TSV export, keeping the most certain row per place and
translating place types to the canonical vocabulary.
`,
		Args: cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			cfg, err := a.config()
			if err != nil {
				return err
			}
			opts, err := flags.options(cfg.HGISBatchPolicy)
			if err != nil {
				return err
			}
			return a.reportIngest(a.newIngestor(cfg).IngestHGIS(c.Context(), args[0], opts))
		},
	}
	flags.register(c, "HGIS_BATCH_ERROR_POLICY or abort")
	c.Flags().BoolVar(&flags.translateTypes, "translate-types", true, "translate place types before loading")
	return c
}

func newTranslateTypesCommand(a *app) *cobra.Command {
	var source string
	c := &cobra.Command{
		Use:   "translate-types",
		Short: "Translate stored place types to the canonical vocabulary",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			store, _, err := a.openStore(c.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			n, err := store.TranslatePlaceTypes(c.Context(), source, placetype.Table())
			if err != nil {
				return err
			}
			a.printf("Updated %d %s rows\n", n, source)
			return nil
		},
	}
	c.Flags().StringVar(&source, "source", model.SourceHGIS, "source whose place types are translated")
	return c
}
