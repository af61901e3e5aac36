package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/tally-dev/tally/internal/config"
	"github.com/tally-dev/tally/internal/gitops"
	"github.com/tally-dev/tally/internal/rules"
	"github.com/tally-dev/tally/internal/table"
	"github.com/tally-dev/tally/internal/table/csvfile"
)

func newInitCommand() *cobra.Command {
	var noGit bool
	var timezone string

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new Tally project",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			return runInit(cmd.Context(), absDir, timezone, !noGit)
		},
	}

	cmd.Flags().BoolVar(&noGit, "no-git", false, "skip git init and the initial commit")
	cmd.Flags().StringVar(&timezone, "timezone", "", "IANA time zone for transaction dates")

	return cmd
}

func runInit(ctx context.Context, dir, timezone string, useGit bool) error {
	cfgPath := filepath.Join(dir, config.FileName)
	if _, err := os.Stat(cfgPath); err == nil {
		return fmt.Errorf("%s already exists", cfgPath)
	}

	cfg := config.Default()
	if timezone != "" {
		cfg.Timezone = timezone
	}
	cfg.Git.AutoCommit = useGit
	if err := cfg.Validate(); err != nil {
		return err
	}

	// Create directory structure.
	dirs := []string{
		cfg.Store.Dir,
		cfg.Source.Dir,
		filepath.Join(cfg.Source.Dir, "processed"),
	}
	for _, d := range dirs {
		if err := os.MkdirAll(filepath.Join(dir, d), 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", d, err)
		}
	}

	// Write tally.yaml.
	if err := config.Save(cfgPath, cfg); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	// Create the Transactions and Rules tables.
	store := csvfile.New(filepath.Join(dir, cfg.Store.Dir))
	if err := store.EnsureColumns(ctx, cfg.Tables.Transactions, append(append([]string(nil), table.Columns...), table.AuditColumns...)); err != nil {
		return fmt.Errorf("creating %s table: %w", cfg.Tables.Transactions, err)
	}
	if err := store.EnsureColumns(ctx, cfg.Tables.Rules, rules.Headers()); err != nil {
		return fmt.Errorf("creating %s table: %w", cfg.Tables.Rules, err)
	}

	// Write .gitignore.
	gitignore := ".env\n*.db\n" + cfg.Source.Dir + "/*.csv\n" + cfg.Source.Dir + "/processed/\n"
	if err := os.WriteFile(filepath.Join(dir, ".gitignore"), []byte(gitignore), 0o644); err != nil {
		return fmt.Errorf("writing .gitignore: %w", err)
	}

	// Write import/.gitkeep.
	if err := os.WriteFile(filepath.Join(dir, cfg.Source.Dir, ".gitkeep"), []byte{}, 0o644); err != nil {
		return fmt.Errorf("writing .gitkeep: %w", err)
	}

	if !useGit {
		fmt.Printf("Initialized Tally project at %s\n", dir)
		return nil
	}

	// Initialize git and create initial commit.
	if err := gitops.Init(dir); err != nil {
		return fmt.Errorf("git init: %w", err)
	}

	author := gitops.Author{Name: cfg.Git.AuthorName, Email: cfg.Git.AuthorEmail}
	hash, err := gitops.Commit(dir, "init: Initialize Tally project", author)
	if err != nil {
		return fmt.Errorf("initial commit: %w", err)
	}

	fmt.Printf("Initialized Tally project at %s (%s)\n", dir, hash)
	return nil
}
