package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/tally-dev/tally/internal/app"
)

func newCategorizeCommand(configPath *string) *cobra.Command {
	var opts app.CategorizeOptions

	cmd := &cobra.Command{
		Use:   "categorize",
		Short: "Apply the Rules table to transaction rows",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.StartRow < 0 || opts.NumRows < 0 {
				return usageError("--start-row and --num-rows must not be negative")
			}
			cfg, base, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			rt, err := buildApp(cmd.Context(), cfg, base, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer rt.Close()

			sum, err := rt.Categorize(cmd.Context(), opts)
			if err != nil {
				return err
			}
			printCategorize(cmd.OutOrStdout(), sum)
			return nil
		},
	}

	cmd.Flags().IntVar(&opts.StartRow, "start-row", 0, "first data row to categorize (0-based)")
	cmd.Flags().IntVar(&opts.NumRows, "num-rows", 0, "number of rows to categorize (0 for all)")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "compute without writing")

	return cmd
}

func printCategorize(w io.Writer, sum *app.CategorizeSummary) {
	title := "Categorize"
	if sum.DryRun {
		title += " (dry run)"
	}
	heading(w, fmt.Sprintf("%s %s", title, sum.RunID))
	if sum.Rows == 0 {
		info(w, "No rows to categorize.")
		return
	}
	success(w, "%d of %d rows matched %d rules", sum.Matched, sum.Rows, sum.Rules)
}
