package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"google.golang.org/api/option"

	"github.com/tally-dev/tally/internal/alert"
	"github.com/tally-dev/tally/internal/app"
	"github.com/tally-dev/tally/internal/config"
	"github.com/tally-dev/tally/internal/gitops"
	"github.com/tally-dev/tally/internal/importer"
	"github.com/tally-dev/tally/internal/logger"
	"github.com/tally-dev/tally/internal/source"
	"github.com/tally-dev/tally/internal/source/dir"
	"github.com/tally-dev/tally/internal/source/drive"
	"github.com/tally-dev/tally/internal/source/gcs"
	"github.com/tally-dev/tally/internal/table"
	"github.com/tally-dev/tally/internal/table/csvfile"
	"github.com/tally-dev/tally/internal/table/sheets"
	"github.com/tally-dev/tally/internal/table/sqlite"
)

// loadConfig reads, overrides, resolves and validates the configuration.
// It also returns the project directory holding the file.
func loadConfig(path string) (*config.Config, string, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, "", fmt.Errorf("resolving path: %w", err)
	}
	base := filepath.Dir(absPath)

	if err := config.LoadDotEnv(filepath.Join(base, ".env")); err != nil {
		return nil, "", err
	}
	cfg, err := config.Load(absPath)
	if err != nil {
		return nil, "", err
	}
	cfg.ApplyEnv(os.LookupEnv)
	cfg.Resolve(base)
	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}
	return cfg, base, nil
}

// session is an App plus the resources to release after it.
type session struct {
	*app.App
	closers []io.Closer
}

func (r *session) Close() error {
	var errs []error
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// buildApp wires the configured store, source and alert sink. logOut
// receives log output.
func buildApp(ctx context.Context, cfg *config.Config, base string, logOut io.Writer) (*session, error) {
	log := logger.New(logOut, cfg.Log.Level, cfg.Log.Format)
	rt := &session{}

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	reg, err := importer.NewRegistry(cfg.SourceFormats())
	if err != nil {
		return nil, err
	}

	store, err := openStore(ctx, cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("opening %s store: %w", cfg.Store.Kind, err)
	}
	if c, ok := store.(io.Closer); ok {
		rt.closers = append(rt.closers, c)
	}

	lister, archiver, err := openSource(ctx, cfg.Source)
	if err != nil {
		_ = rt.Close()
		return nil, fmt.Errorf("opening %s source: %w", cfg.Source.Kind, err)
	}
	if c, ok := lister.(io.Closer); ok {
		rt.closers = append(rt.closers, c)
	}

	sink, err := openAlerts(cfg.Alerts, log)
	if err != nil {
		_ = rt.Close()
		return nil, fmt.Errorf("opening %s alerts: %w", cfg.Alerts.Kind, err)
	}
	if c, ok := sink.(io.Closer); ok {
		rt.closers = append(rt.closers, c)
	}
	if cfg.Alerts.SubjectPrefix != "" {
		sink = alert.Prefixed{Prefix: cfg.Alerts.SubjectPrefix, Sink: sink}
	}

	rt.App = &app.App{
		Store:    store,
		Source:   lister,
		Archiver: archiver,
		Alerts:   sink,
		Registry: reg,
		Settings: app.Settings{
			Location:          loc,
			TransactionsTable: cfg.Tables.Transactions,
			RulesTable:        cfg.Tables.Rules,
			DuplicatePrefix:   cfg.DuplicatePrefix,
			NotifySummary:     cfg.Alerts.NotifySummary,
			RunLog:            cfg.RunLog,
		},
		Committer: committer(cfg, base),
		Log:       log,
	}
	return rt, nil
}

func openStore(ctx context.Context, sc config.StoreConfig) (table.Adapter, error) {
	switch sc.Kind {
	case config.StoreSheets:
		return sheets.New(ctx, sc.SpreadsheetID, sc.CredentialsFile)
	case config.StoreSQLite:
		return sqlite.Open(sc.Path)
	case config.StoreCSV:
		if err := os.MkdirAll(sc.Dir, 0o755); err != nil {
			return nil, err
		}
		return csvfile.New(sc.Dir), nil
	}
	return nil, fmt.Errorf("unknown store kind %q", sc.Kind)
}

func openSource(ctx context.Context, sc config.SourceConfig) (source.Lister, source.Archiver, error) {
	switch sc.Kind {
	case config.SourceDrive:
		s, err := drive.New(ctx, sc.FolderID, sc.ArchiveFolderID, sc.CredentialsFile)
		if err != nil {
			return nil, nil, err
		}
		return s, s, nil
	case config.SourceGCS:
		var opts []option.ClientOption
		if sc.CredentialsFile != "" {
			opts = append(opts, option.WithCredentialsFile(sc.CredentialsFile))
		}
		s, err := gcs.New(ctx, sc.Bucket, sc.Prefix, sc.ArchivePrefix, opts...)
		if err != nil {
			return nil, nil, err
		}
		return s, s, nil
	case config.SourceDir:
		s := dir.New(sc.Dir, sc.ProcessedDir)
		return s, s, nil
	}
	return nil, nil, fmt.Errorf("unknown source kind %q", sc.Kind)
}

func openAlerts(ac config.AlertsConfig, log zerolog.Logger) (alert.Sink, error) {
	logSink := alert.LogSink{Log: logger.Component(log, "alert")}
	switch ac.Kind {
	case config.AlertsAMQP:
		s, err := alert.DialAMQP(ac.URL, ac.Exchange, ac.RoutingKey)
		if err != nil {
			return nil, err
		}
		return multiCloser{Multi: alert.Multi{logSink, s}, closer: s}, nil
	case config.AlertsLog:
		return logSink, nil
	}
	return nil, fmt.Errorf("unknown alerts kind %q", ac.Kind)
}

// multiCloser fans alerts out and closes the AMQP connection after the run.
type multiCloser struct {
	alert.Multi
	closer io.Closer
}

func (m multiCloser) Close() error { return m.closer.Close() }

// committer returns a git committer for a csv store inside a repository
// with auto_commit on, and nil otherwise.
func committer(cfg *config.Config, base string) app.Committer {
	if !cfg.Git.AutoCommit || cfg.Store.Kind != config.StoreCSV || !gitops.IsRepo(base) {
		return nil
	}
	paths := []string{cfg.Store.Dir}
	if cfg.RunLog != "" {
		paths = append(paths, cfg.RunLog)
	}
	return gitops.Committer{
		Dir:    base,
		Author: gitops.Author{Name: cfg.Git.AuthorName, Email: cfg.Git.AuthorEmail},
		Paths:  paths,
	}
}
