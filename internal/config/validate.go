package config

import (
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"

	"github.com/tally-dev/tally/internal/importer"
)

// ValidationError lists every problem found in a configuration.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid configuration: " + strings.Join(e.Problems, "; ")
}

// Validate checks the whole configuration, including the source formats.
func (c *Config) Validate() error {
	var problems []string
	addf := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	if _, err := c.Location(); err != nil {
		addf("timezone: %v", err)
	}
	if strings.TrimSpace(c.Tables.Transactions) == "" {
		addf("tables.transactions is required")
	}
	if strings.TrimSpace(c.Tables.Rules) == "" {
		addf("tables.rules is required")
	}

	switch c.Store.Kind {
	case StoreCSV:
		if c.Store.Dir == "" {
			addf("store.dir is required for csv store")
		}
	case StoreSheets:
		if c.Store.SpreadsheetID == "" {
			addf("store.spreadsheet_id is required for sheets store")
		}
	case StoreSQLite:
		if c.Store.Path == "" {
			addf("store.path is required for sqlite store")
		}
	default:
		addf("store.kind %q must be one of csv, sheets, sqlite", c.Store.Kind)
	}

	switch c.Source.Kind {
	case SourceDir:
		if c.Source.Dir == "" {
			addf("source.dir is required for dir source")
		}
	case SourceDrive:
		if c.Source.FolderID == "" {
			addf("source.folder_id is required for drive source")
		}
	case SourceGCS:
		if c.Source.Bucket == "" {
			addf("source.bucket is required for gcs source")
		}
	default:
		addf("source.kind %q must be one of dir, drive, gcs", c.Source.Kind)
	}

	switch c.Alerts.Kind {
	case AlertsLog:
	case AlertsAMQP:
		if c.Alerts.URL == "" {
			addf("alerts.url is required for amqp alerts")
		}
		if c.Alerts.Exchange == "" {
			addf("alerts.exchange is required for amqp alerts")
		}
	default:
		addf("alerts.kind %q must be one of log, amqp", c.Alerts.Kind)
	}

	if c.Schedule.Cron != "" {
		if _, err := cron.ParseStandard(c.Schedule.Cron); err != nil {
			addf("schedule.cron: %v", err)
		}
	}

	if _, err := importer.NewRegistry(c.SourceFormats()); err != nil {
		addf("formats: %v", err)
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}
