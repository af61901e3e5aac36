package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/tally-dev/tally/internal/header"
	"github.com/tally-dev/tally/internal/importer"
)

func newFingerprintCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "fingerprint <file.csv>...",
		Short: "Print the header fingerprint of CSV files for the formats list",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for _, path := range args {
				data, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("reading %s: %w", path, err)
				}
				headers, err := importer.ReadHeader(data)
				if err != nil {
					return fmt.Errorf("parsing %s: %w", path, err)
				}
				heading(out, filepath.Base(path))
				info(out, "fingerprint: %s", header.Fingerprint(headers))
				info(out, "headers: %q", headers)
			}
			return nil
		},
	}
}
