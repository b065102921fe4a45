package cmd

import (
	"github.com/spf13/cobra"

	"github.com/David-Botos/gazetteer/pkg/migrate"
)

func newConvertLegacyCommand(a *app) *cobra.Command {
	var out string
	c := &cobra.Command{
		Use:   "convert-legacy IN",
		Short: "Rewrite a pre-migration TGN export into the current columns",
		Long: `
Reads a tab-separated TGN export whose first column is place_id and writes a
CSV where that id is original_source_id and every row has source TGN. The
output defaults to the input name with .csv replaced by _new_columns.csv.
`,
		Args: cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			if out == "" {
				out = migrate.DefaultOutputPath(args[0])
			}
			stats, err := migrate.NewLegacyConverter(a.logger).ConvertFile(c.Context(), args[0], out)
			if err != nil {
				return err
			}
			a.printf("Wrote %d rows to %s (%d skipped)\n", stats.Written, out, stats.Skipped)
			return nil
		},
	}
	c.Flags().StringVarP(&out, "out", "o", "", "output CSV")
	return c
}
