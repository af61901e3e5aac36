// Package alert delivers operator notifications about ingestion and
// categorization problems.
package alert

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/tally-dev/tally/internal/logger"
)

//go:generate mockgen -destination=mocks/mock_alert.go -package=mocks . Sink

// Sink delivers one alert.
type Sink interface {
	Notify(ctx context.Context, title, details string) error
}

// Notify sends through sink and logs, rather than returns, any failure. A
// nil sink only logs.
func Notify(ctx context.Context, sink Sink, title, details string) {
	log := logger.FromContext(ctx)
	if sink == nil {
		log.Warn().Str("title", title).Msg("alert (no sink configured)")
		return
	}
	if err := sink.Notify(ctx, title, details); err != nil {
		log.Error().Err(err).Str("title", title).Msg("alert delivery failed")
	}
}

// LogSink writes alerts to a zerolog logger at warn level.
type LogSink struct {
	Log zerolog.Logger
}

// Notify logs the alert.
func (s LogSink) Notify(_ context.Context, title, details string) error {
	s.Log.Warn().Str("component", "alert").Str("title", title).Str("details", details).Msg(title)
	return nil
}

// Multi fans out to every sink. Errors from all sinks are joined.
type Multi []Sink

// Notify sends to each sink in turn.
func (m Multi) Notify(ctx context.Context, title, details string) error {
	var errs []error
	for _, s := range m {
		if err := s.Notify(ctx, title, details); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Prefixed adds Prefix to the front of every title.
type Prefixed struct {
	Prefix string
	Sink   Sink
}

// Notify forwards with the prefixed title.
func (p Prefixed) Notify(ctx context.Context, title, details string) error {
	if p.Prefix != "" {
		title = p.Prefix + ": " + title
	}
	return p.Sink.Notify(ctx, title, details)
}
