package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/tally-dev/tally/internal/app"
)

func newIngestCommand(configPath *string) *cobra.Command {
	var dryRun bool
	var categorize bool

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Import waiting bank CSV files into the transactions table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, base, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			rt, err := buildApp(cmd.Context(), cfg, base, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer rt.Close()

			return runIngest(cmd.Context(), rt.App, cmd.OutOrStdout(), dryRun, categorize)
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "parse and deduplicate without writing or archiving")
	cmd.Flags().BoolVar(&categorize, "categorize", false, "apply the rules to every row afterwards")

	return cmd
}

func runIngest(ctx context.Context, a *app.App, out io.Writer, dryRun, categorize bool) error {
	sum, err := a.Ingest(ctx, app.IngestOptions{DryRun: dryRun})
	if err != nil {
		return err
	}
	printIngest(out, sum)

	if !categorize {
		return nil
	}
	cat, err := a.Categorize(ctx, app.CategorizeOptions{DryRun: dryRun})
	if err != nil {
		return err
	}
	printCategorize(out, cat)
	return nil
}

func printIngest(w io.Writer, sum *app.IngestSummary) {
	title := "Ingest"
	if sum.DryRun {
		title += " (dry run)"
	}
	heading(w, fmt.Sprintf("%s %s", title, sum.RunID))

	if len(sum.Files) == 0 {
		info(w, "No CSVs found.")
		return
	}
	for _, f := range sum.Files {
		switch {
		case f.Err != nil:
			failure(w, "%s: %v", f.Name, f.Err)
		case f.Skipped:
			info(w, "%s: no data rows", f.Name)
		case f.Format == "":
			warning(w, "%s: unknown format %s", f.Name, f.Fingerprint)
		default:
			success(w, "%s [%s]: %d new, %d already imported, %d flagged", f.Name, f.Format, f.Appended, f.Duplicates, f.Flagged)
		}
		if n := len(f.RowErrors); n > 0 {
			warning(w, "%s: %d rows skipped with errors", f.Name, n)
		}
	}
	info(w, "%d new rows, %d files archived", sum.Appended, sum.Archived)
}
