package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/tally-dev/tally/internal/app"
	"github.com/tally-dev/tally/internal/logger"
)

func newScheduleCommand(configPath *string) *cobra.Command {
	var runNow bool

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Run ingestion on the configured cron schedule until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, base, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			if cfg.Schedule.Cron == "" {
				return fmt.Errorf("schedule.cron is not set in %s", *configPath)
			}
			loc, err := cfg.Location()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			rt, err := buildApp(ctx, cfg, base, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer rt.Close()

			job := scheduledJob{app: rt.App, out: cmd.OutOrStdout(), categorize: cfg.Schedule.Categorize}
			c, err := newScheduler(cfg.Schedule.Cron, loc, func() { job.run(ctx) })
			if err != nil {
				return err
			}

			log := logger.Component(rt.Log, "schedule")
			log.Info().Str("cron", cfg.Schedule.Cron).Str("timezone", loc.String()).Msg("scheduler started")
			if runNow {
				job.run(ctx)
			}

			c.Start()
			<-ctx.Done()
			<-c.Stop().Done()
			log.Info().Msg("scheduler stopped")
			return nil
		},
	}

	cmd.Flags().BoolVar(&runNow, "run-now", false, "also run once immediately")

	return cmd
}

// newScheduler registers fn on spec in loc. Runs never overlap.
func newScheduler(spec string, loc *time.Location, fn func()) (*cron.Cron, error) {
	c := cron.New(
		cron.WithLocation(loc),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)
	if _, err := c.AddFunc(spec, fn); err != nil {
		return nil, fmt.Errorf("scheduling %q: %w", spec, err)
	}
	return c, nil
}

type scheduledJob struct {
	app        *app.App
	out        io.Writer
	categorize bool
}

// run performs one ingest and logs, rather than returns, its failure so the
// scheduler keeps going.
func (j scheduledJob) run(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if err := runIngest(ctx, j.app, j.out, false, j.categorize); err != nil {
		log := logger.Component(j.app.Log, "schedule")
		log.Error().Err(err).Msg("scheduled run failed")
	}
}
