// Package app runs ingestion and categorization against a table store.
package app

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tally-dev/tally/internal/alert"
	"github.com/tally-dev/tally/internal/importer"
	"github.com/tally-dev/tally/internal/logger"
	"github.com/tally-dev/tally/internal/runlog"
	"github.com/tally-dev/tally/internal/source"
	"github.com/tally-dev/tally/internal/table"
)

// Settings is the per-run configuration handed to every operation.
type Settings struct {
	Location          *time.Location
	TransactionsTable string
	RulesTable        string
	DuplicatePrefix   string
	NotifySummary     bool   // also send the run summary through the alert sink
	RunLog            string // CSV run log path, empty to disable
}

// Committer records the store's state after a run that changed it. An empty
// hash means there was nothing to commit.
type Committer interface {
	Commit(message string) (hash string, err error)
}

// App holds the collaborators of both operations.
type App struct {
	Store     table.Adapter
	Source    source.Lister
	Archiver  source.Archiver // NopArchiver when nil
	Alerts    alert.Sink
	Registry  *importer.Registry
	Settings  Settings
	Committer Committer // optional
	Now       func() time.Time
	Log       zerolog.Logger
}

func (a *App) now() time.Time {
	if a.Now == nil {
		return time.Now()
	}
	return a.Now()
}

func (a *App) archiver() source.Archiver {
	if a.Archiver == nil {
		return source.NopArchiver{}
	}
	return a.Archiver
}

func (a *App) location() *time.Location {
	if a.Settings.Location == nil {
		return time.UTC
	}
	return a.Settings.Location
}

// storageError makes sure err is a *table.Error.
func storageError(op, name string, err error) error {
	if err == nil {
		return nil
	}
	var te *table.Error
	if errors.As(err, &te) {
		return err
	}
	return table.Wrap(op, name, err)
}

// begin tags the run's logger with a fresh run id.
func (a *App) begin(ctx context.Context, op string) (context.Context, string) {
	runID := uuid.NewString()
	log := logger.Component(a.Log, "app").With().Str("run_id", runID).Str("op", op).Logger()
	return logger.WithContext(ctx, log), runID
}

func (a *App) recordRun(ctx context.Context, e runlog.Entry) {
	if a.Settings.RunLog == "" {
		return
	}
	if err := runlog.Append(a.Settings.RunLog, []runlog.Entry{e}); err != nil {
		log := logger.FromContext(ctx)
		log.Warn().Err(err).Str("path", a.Settings.RunLog).Msg("run log append failed")
	}
}

func (a *App) commit(ctx context.Context, message string) {
	if a.Committer == nil {
		return
	}
	log := logger.FromContext(ctx)
	hash, err := a.Committer.Commit(message)
	if err != nil {
		log.Warn().Err(err).Msg("commit failed")
		return
	}
	if hash != "" {
		log.Info().Str("commit", hash).Msg("committed store")
	}
}
