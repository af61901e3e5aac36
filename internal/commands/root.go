package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tally-dev/tally/internal/buildinfo"
	"github.com/tally-dev/tally/internal/config"
)

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:     "tally",
		Short:   "Bank CSV ingestion and rule-based categorization",
		Version: buildinfo.String(),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.FileName, "path to "+config.FileName)

	rootCmd.AddCommand(
		newInitCommand(),
		newIngestCommand(&configPath),
		newCategorizeCommand(&configPath),
		newFingerprintCommand(),
		newScheduleCommand(&configPath),
	)

	return rootCmd
}

// usageError marks bad flag combinations.
func usageError(format string, args ...any) error {
	return fmt.Errorf("usage: "+format, args...)
}
