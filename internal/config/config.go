// Package config reads and writes tally.yaml.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	_ "time/tzdata" // time zones resolve on hosts without zoneinfo

	"gopkg.in/yaml.v3"

	"github.com/tally-dev/tally/internal/importer"
	"github.com/tally-dev/tally/internal/model"
)

// FileName is the default configuration file name.
const FileName = "tally.yaml"

// Config represents the top-level tally.yaml configuration.
type Config struct {
	Timezone        string         `yaml:"timezone"`
	Tables          TablesConfig   `yaml:"tables"`
	DuplicatePrefix string         `yaml:"duplicate_prefix"`
	Store           StoreConfig    `yaml:"store"`
	Source          SourceConfig   `yaml:"source"`
	Alerts          AlertsConfig   `yaml:"alerts"`
	Schedule        ScheduleConfig `yaml:"schedule"`
	Git             GitConfig      `yaml:"git"`
	Log             LogConfig      `yaml:"log"`
	RunLog          string         `yaml:"run_log,omitempty"` // CSV audit log path, empty to disable
	Formats         []FormatConfig `yaml:"formats"`
}

// TablesConfig names the tables in the store.
type TablesConfig struct {
	Transactions string `yaml:"transactions"`
	Rules        string `yaml:"rules"`
}

// Store kinds.
const (
	StoreCSV    = "csv"
	StoreSheets = "sheets"
	StoreSQLite = "sqlite"
)

// StoreConfig selects the table store.
type StoreConfig struct {
	Kind            string `yaml:"kind"`
	Dir             string `yaml:"dir,omitempty"`            // csv
	SpreadsheetID   string `yaml:"spreadsheet_id,omitempty"` // sheets
	CredentialsFile string `yaml:"credentials_file,omitempty"`
	Path            string `yaml:"path,omitempty"` // sqlite
}

// Source kinds.
const (
	SourceDir   = "dir"
	SourceDrive = "drive"
	SourceGCS   = "gcs"
)

// SourceConfig selects where import CSVs are read from.
type SourceConfig struct {
	Kind            string `yaml:"kind"`
	Dir             string `yaml:"dir,omitempty"`
	ProcessedDir    string `yaml:"processed_dir,omitempty"`
	FolderID        string `yaml:"folder_id,omitempty"`
	ArchiveFolderID string `yaml:"archive_folder_id,omitempty"`
	Bucket          string `yaml:"bucket,omitempty"`
	Prefix          string `yaml:"prefix,omitempty"`
	ArchivePrefix   string `yaml:"archive_prefix,omitempty"`
	CredentialsFile string `yaml:"credentials_file,omitempty"`
}

// Alert kinds.
const (
	AlertsLog  = "log"
	AlertsAMQP = "amqp"
)

// AlertsConfig selects the alert sink.
type AlertsConfig struct {
	Kind          string `yaml:"kind"`
	SubjectPrefix string `yaml:"subject_prefix,omitempty"`
	NotifySummary bool   `yaml:"notify_summary"`
	URL           string `yaml:"url,omitempty"`
	Exchange      string `yaml:"exchange,omitempty"`
	RoutingKey    string `yaml:"routing_key,omitempty"`
}

// ScheduleConfig controls `tally schedule`.
type ScheduleConfig struct {
	Cron       string `yaml:"cron"`
	Categorize bool   `yaml:"categorize"`
}

// GitConfig controls git integration for a csv store.
type GitConfig struct {
	AutoCommit  bool   `yaml:"auto_commit"`
	AuthorName  string `yaml:"author_name"`
	AuthorEmail string `yaml:"author_email"`
}

// LogConfig controls logging.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // console or json
}

// FormatConfig is one source format entry.
type FormatConfig struct {
	Name             string            `yaml:"name"`
	Fingerprint      string            `yaml:"fingerprint,omitempty"`
	Headers          []string          `yaml:"headers,omitempty"`
	DateFormat       string            `yaml:"date_format,omitempty"`
	DateFormats      []string          `yaml:"date_formats,omitempty"`
	AmountColumn     string            `yaml:"amount_column,omitempty"`
	SignConvention   string            `yaml:"sign_convention,omitempty"`
	WithdrawalColumn string            `yaml:"withdrawal_column,omitempty"`
	DepositColumn    string            `yaml:"deposit_column,omitempty"`
	AccountName      string            `yaml:"account_name,omitempty"`
	Institution      string            `yaml:"institution,omitempty"`
	ColumnMap        map[string]string `yaml:"column_map"`
}

// SourceFormat converts the entry. date_format comes first, followed by any
// date_formats not already listed.
func (f FormatConfig) SourceFormat() model.SourceFormat {
	var dates []string
	seen := map[string]bool{}
	for _, d := range append([]string{f.DateFormat}, f.DateFormats...) {
		d = strings.TrimSpace(d)
		if d == "" || seen[d] {
			continue
		}
		seen[d] = true
		dates = append(dates, d)
	}
	return model.SourceFormat{
		Name:             f.Name,
		Fingerprint:      f.Fingerprint,
		Headers:          f.Headers,
		DateFormats:      dates,
		AmountColumn:     f.AmountColumn,
		SignConvention:   model.SignConvention(f.SignConvention),
		WithdrawalColumn: f.WithdrawalColumn,
		DepositColumn:    f.DepositColumn,
		AccountName:      f.AccountName,
		Institution:      f.Institution,
		ColumnMap:        f.ColumnMap,
	}
}

// SourceFormats converts every format entry.
func (c *Config) SourceFormats() []model.SourceFormat {
	out := make([]model.SourceFormat, len(c.Formats))
	for i, f := range c.Formats {
		out[i] = f.SourceFormat()
	}
	return out
}

// Location loads the configured time zone. Empty means UTC.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("loading timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Load reads a tally.yaml file from disk. Unset fields take their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Tables.Transactions == "" {
		c.Tables.Transactions = "Transactions"
	}
	if c.Tables.Rules == "" {
		c.Tables.Rules = "Rules"
	}
	if c.DuplicatePrefix == "" {
		c.DuplicatePrefix = importer.DefaultDuplicatePrefix
	}
	if c.Store.Kind == "" {
		c.Store.Kind = StoreCSV
	}
	if c.Store.Kind == StoreCSV && c.Store.Dir == "" {
		c.Store.Dir = "tables"
	}
	if c.Store.Kind == StoreSQLite && c.Store.Path == "" {
		c.Store.Path = "tally.db"
	}
	if c.Source.Kind == "" {
		c.Source.Kind = SourceDir
	}
	if c.Source.Kind == SourceDir && c.Source.Dir == "" {
		c.Source.Dir = "import"
	}
	if c.Alerts.Kind == "" {
		c.Alerts.Kind = AlertsLog
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "console"
	}
}

// Resolve makes relative local paths relative to base, usually the
// directory holding tally.yaml.
func (c *Config) Resolve(base string) {
	abs := func(p *string) {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(base, *p)
		}
	}
	abs(&c.Store.Dir)
	abs(&c.Store.Path)
	abs(&c.Source.Dir)
	abs(&c.Source.ProcessedDir)
	abs(&c.RunLog)
}

// Default returns a Config with sensible defaults for a new project,
// including the example Chase and Schwab formats.
func Default() *Config {
	cfg := &Config{
		Timezone: "America/Los_Angeles",
		Alerts:   AlertsConfig{Kind: AlertsLog, NotifySummary: true},
		Schedule: ScheduleConfig{Cron: "0 6 * * *", Categorize: true},
		Git: GitConfig{
			AutoCommit:  false,
			AuthorName:  "Tally",
			AuthorEmail: "tally@localhost",
		},
		RunLog: "runs.csv",
		Formats: []FormatConfig{
			{
				Name:           "chase-checking",
				Headers:        []string{"Details", "Posting Date", "Description", "Amount", "Type", "Balance", "Check or Slip #"},
				DateFormat:     "MM/dd/yyyy",
				AmountColumn:   "Amount",
				SignConvention: string(model.PositiveDeposit),
				AccountName:    "Chase",
				Institution:    "Chase Bank",
				ColumnMap: map[string]string{
					"Posting Date":    "date",
					"Description":     "description",
					"Type":            "type",
					"Check or Slip #": "check_number",
				},
			},
			{
				Name:        "schwab-checking",
				Fingerprint: "sha256:0741502d4e8f7779dc44e8e3b0434bbbd71c57edce8b7fa5c69d9db1ef5d6199",
				DateFormat:  "MM/dd/yyyy",
				AccountName: "CharlesSchwab",
				Institution: "Charles Schwab Bank",
				ColumnMap: map[string]string{
					"Date":        "date",
					"Type":        "type",
					"CheckNumber": "check_number",
					"Description": "description",
					"Withdrawal":  "withdrawal",
					"Deposit":     "deposit",
				},
			},
		},
	}
	cfg.applyDefaults()
	return cfg
}
