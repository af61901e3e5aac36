package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "TALLY_"

// LoadDotEnv loads .env style files into the process environment. Missing
// files are ignored; variables already set are kept.
func LoadDotEnv(paths ...string) error {
	for _, p := range paths {
		if _, err := os.Stat(p); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("loading %s: %w", p, err)
		}
	}
	return nil
}

// ApplyEnv overrides file values with TALLY_* variables found by lookup.
// Store and source credentials fall back to GOOGLE_APPLICATION_CREDENTIALS.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	set := func(name string, dst *string) {
		if v, ok := lookup(EnvPrefix + name); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	set("TIMEZONE", &c.Timezone)
	set("TRANSACTIONS_TABLE", &c.Tables.Transactions)
	set("RULES_TABLE", &c.Tables.Rules)
	set("STORE_KIND", &c.Store.Kind)
	set("STORE_DIR", &c.Store.Dir)
	set("SPREADSHEET_ID", &c.Store.SpreadsheetID)
	set("SQLITE_PATH", &c.Store.Path)
	set("SOURCE_KIND", &c.Source.Kind)
	set("SOURCE_DIR", &c.Source.Dir)
	set("DRIVE_FOLDER_ID", &c.Source.FolderID)
	set("DRIVE_ARCHIVE_FOLDER_ID", &c.Source.ArchiveFolderID)
	set("GCS_BUCKET", &c.Source.Bucket)
	set("GCS_PREFIX", &c.Source.Prefix)
	set("ALERTS_KIND", &c.Alerts.Kind)
	set("AMQP_URL", &c.Alerts.URL)
	set("AMQP_EXCHANGE", &c.Alerts.Exchange)
	set("SCHEDULE", &c.Schedule.Cron)
	set("LOG_LEVEL", &c.Log.Level)
	set("LOG_FORMAT", &c.Log.Format)

	if v, ok := lookup("GOOGLE_APPLICATION_CREDENTIALS"); ok && v != "" {
		if c.Store.CredentialsFile == "" {
			c.Store.CredentialsFile = v
		}
		if c.Source.CredentialsFile == "" {
			c.Source.CredentialsFile = v
		}
	}
}
