package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/David-Botos/gazetteer/pkg/training"
)

func newExtractTrainingCommand(a *app) *cobra.Command {
	var (
		configPath string
		out        string
		sources    []string
	)
	c := &cobra.Command{
		Use:   "extract-training",
		Short: "Export located places as training CSV",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			tcfg, err := a.trainingConfig(configPath)
			if err != nil {
				return err
			}
			if out == "" {
				out = tcfg.Paths.TrainingData
			}

			store, _, err := a.openStore(c.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			n, err := training.Extract(c.Context(), store, out, sources...)
			if err != nil {
				return err
			}
			a.logger.Info("Training data extracted", zap.String("path", out), zap.Int("rows", n))
			a.printf("Wrote %d rows to %s\n", n, out)
			return nil
		},
	}
	c.Flags().StringVar(&configPath, "config", "", "model configuration file (default MODEL_CONFIG)")
	c.Flags().StringVar(&out, "out", "", "output CSV (default paths.training_data)")
	c.Flags().StringSliceVar(&sources, "source", nil, "only export these sources (TGN, HGIS)")
	return c
}

func newRegionalizeCommand(a *app) *cobra.Command {
	var configPath, in, out string
	c := &cobra.Command{
		Use:   "regionalize",
		Short: "Keep the training rows inside the configured region",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			tcfg, err := a.trainingConfig(configPath)
			if err != nil {
				return err
			}
			in = firstNonEmpty(in, tcfg.Paths.TrainingData)
			out = firstNonEmpty(out, tcfg.Paths.RegionalData)

			rows, err := training.ReadRowsFile(in)
			if err != nil {
				return err
			}
			kept, stats := training.NewRegion(tcfg.Region).Regionalize(rows)
			if err := training.WriteRowsFile(out, kept); err != nil {
				return err
			}

			a.logger.Info("Regionalized training data",
				zap.String("input", in),
				zap.String("output", out),
				zap.Int("kept", stats.Kept),
				zap.Int("unlocated", stats.Unlocated),
				zap.Int("out_of_range", stats.OutOfRange))
			a.printf("Kept %d of %d rows in %s\n", stats.Kept, len(rows), out)
			return nil
		},
	}
	c.Flags().StringVar(&configPath, "config", "", "model configuration file (default MODEL_CONFIG)")
	c.Flags().StringVar(&in, "in", "", "training CSV (default paths.training_data)")
	c.Flags().StringVar(&out, "out", "", "regional CSV (default paths.regional_data)")
	return c
}

func newPreprocessCommand(a *app) *cobra.Command {
	var configPath, in, out string
	c := &cobra.Command{
		Use:   "preprocess",
		Short: "Build features and persist a seeded train/test split",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			tcfg, err := a.trainingConfig(configPath)
			if err != nil {
				return err
			}
			in = firstNonEmpty(in, tcfg.Paths.RegionalData)
			out = firstNonEmpty(out, tcfg.Paths.TrainTestSplit)

			rows, err := training.ReadRowsFile(in)
			if err != nil {
				return err
			}
			samples, dropped := training.BuildSamples(rows)
			split, err := training.TrainTestSplit(samples, tcfg.Training.TestSize, tcfg.Model.RandomState)
			if err != nil {
				return err
			}
			if err := training.SaveGob(out, split); err != nil {
				return err
			}

			a.logger.Info("Train/test split saved",
				zap.String("path", out),
				zap.Int("dropped", dropped),
				zap.Int("train", len(split.Train)),
				zap.Int("test", len(split.Test)))
			a.printf("Saved %d training and %d test samples to %s\n", len(split.Train), len(split.Test), out)
			return nil
		},
	}
	c.Flags().StringVar(&configPath, "config", "", "model configuration file (default MODEL_CONFIG)")
	c.Flags().StringVar(&in, "in", "", "regional CSV (default paths.regional_data)")
	c.Flags().StringVar(&out, "out", "", "split file (default paths.train_test_split)")
	return c
}

func newTrainCommand(a *app) *cobra.Command {
	var configPath string
	c := &cobra.Command{
		Use:   "train",
		Short: "Cross-validate, fit and save the model",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			tcfg, err := a.trainingConfig(configPath)
			if err != nil {
				return err
			}
			report, err := training.NewTrainer(tcfg, a.logger).Run(c.Context())
			if err != nil {
				return err
			}

			a.printf("CV MAE %.4f (+/- %.4f), test MAE %.4f\n",
				report.CrossValidation.Mean, report.CrossValidation.Std, report.FinalModelMAE)
			if v := report.Validation; v != nil {
				a.printf("Validation MAE lat %.4f lon %.4f, mean error %.1f km\n",
					v.MAELatitude, v.MAELongitude, v.MeanDistanceKm)
			}
			a.printf("Model saved to %s, report %s\n", report.ModelPath, report.ReportPath)
			return nil
		},
	}
	c.Flags().StringVar(&configPath, "config", "", "model configuration file (default MODEL_CONFIG)")
	return c
}

func newValidateCommand(a *app) *cobra.Command {
	var configPath, data string
	c := &cobra.Command{
		Use:   "validate",
		Short: "Score the saved model against the validation file",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			tcfg, err := a.trainingConfig(configPath)
			if err != nil {
				return err
			}
			data = firstNonEmpty(data, tcfg.Paths.ValidationData)

			m, err := training.LoadModel(tcfg.Paths.ModelOutput)
			if err != nil {
				return err
			}
			set, err := training.ReadValidationFile(data)
			if err != nil {
				return err
			}
			metrics, err := training.Evaluate(m, set)
			if err != nil {
				return err
			}
			metrics.Log(a.logger)

			a.printf("Mean Absolute Error (Latitude): %v\n", metrics.MAELatitude)
			a.printf("Mean Absolute Error (Longitude): %v\n", metrics.MAELongitude)
			a.printf("Mean Squared Error (Latitude): %v\n", metrics.MSELatitude)
			a.printf("Mean Squared Error (Longitude): %v\n", metrics.MSELongitude)
			a.printf("Mean Distance (km): %v\n", metrics.MeanDistanceKm)
			return nil
		},
	}
	c.Flags().StringVar(&configPath, "config", "", "model configuration file (default MODEL_CONFIG)")
	c.Flags().StringVar(&data, "data", "", "validation CSV (default paths.validation_data)")
	return c
}

func newPredictCommand(a *app) *cobra.Command {
	var configPath, placeType string
	c := &cobra.Command{
		Use:   "predict TEXT",
		Short: "Predict coordinates for a place name",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			tcfg, err := a.trainingConfig(configPath)
			if err != nil {
				return err
			}
			m, err := training.LoadModel(tcfg.Paths.ModelOutput)
			if err != nil {
				return fmt.Errorf("loading model: %w", err)
			}

			record := training.ValidationRecord{Name: strings.Join(args, " "), Type: placeType}
			lat, lng, err := m.Predict(record.Text())
			if err != nil {
				return err
			}
			a.printf("%.6f,%.6f\n", lat, lng)
			return nil
		},
	}
	c.Flags().StringVar(&configPath, "config", "", "model configuration file (default MODEL_CONFIG)")
	c.Flags().StringVar(&placeType, "type", "", "place type appended to the text")
	return c
}
