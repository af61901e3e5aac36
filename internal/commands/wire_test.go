package commands

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tally-dev/tally/internal/alert"
	"github.com/tally-dev/tally/internal/config"
	"github.com/tally-dev/tally/internal/gitops"
	"github.com/tally-dev/tally/internal/source/dir"
	"github.com/tally-dev/tally/internal/table/csvfile"
	"github.com/tally-dev/tally/internal/table/sqlite"
)

func writeConfig(t *testing.T, cfg *config.Config) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), config.FileName)
	require.NoError(t, config.Save(path, cfg))
	return path
}

func TestLoadConfig_ResolvesPaths(t *testing.T) {
	path := writeConfig(t, config.Default())
	base := filepath.Dir(path)

	cfg, gotBase, err := loadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, base, gotBase)
	assert.Equal(t, filepath.Join(base, "tables"), cfg.Store.Dir)
	assert.Equal(t, filepath.Join(base, "import"), cfg.Source.Dir)
	assert.Equal(t, filepath.Join(base, "runs.csv"), cfg.RunLog)
}

func TestLoadConfig_Invalid(t *testing.T) {
	cfg := config.Default()
	cfg.Timezone = "Nowhere/Special"
	_, _, err := loadConfig(writeConfig(t, cfg))

	var verr *config.ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestLoadConfig_DotEnvOverride(t *testing.T) {
	path := writeConfig(t, config.Default())
	base := filepath.Dir(path)
	require.NoError(t, os.WriteFile(filepath.Join(base, ".env"), []byte("TALLY_TRANSACTIONS_TABLE=Ledger\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("TALLY_TRANSACTIONS_TABLE") })

	cfg, _, err := loadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "Ledger", cfg.Tables.Transactions)
}

func TestOpenStore(t *testing.T) {
	dirPath := filepath.Join(t.TempDir(), "tables")
	s, err := openStore(context.Background(), config.StoreConfig{Kind: config.StoreCSV, Dir: dirPath})
	require.NoError(t, err)
	assert.IsType(t, &csvfile.Store{}, s)
	assert.DirExists(t, dirPath)

	s, err = openStore(context.Background(), config.StoreConfig{Kind: config.StoreSQLite, Path: ":memory:"})
	require.NoError(t, err)
	require.IsType(t, &sqlite.Store{}, s)
	require.NoError(t, s.(*sqlite.Store).Close())

	_, err = openStore(context.Background(), config.StoreConfig{Kind: "excel"})
	require.Error(t, err)
}

func TestOpenSource_Dir(t *testing.T) {
	lister, archiver, err := openSource(context.Background(), config.SourceConfig{Kind: config.SourceDir, Dir: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &dir.Source{}, lister)
	assert.Same(t, lister, archiver)
}

func TestOpenAlerts_Log(t *testing.T) {
	sink, err := openAlerts(config.AlertsConfig{Kind: config.AlertsLog}, zerolog.Nop())
	require.NoError(t, err)
	assert.IsType(t, alert.LogSink{}, sink)

	_, err = openAlerts(config.AlertsConfig{Kind: "pager"}, zerolog.Nop())
	require.Error(t, err)
}

func TestBuildApp_PrefixesAlerts(t *testing.T) {
	path := writeConfig(t, config.Default())
	cfg, base, err := loadConfig(path)
	require.NoError(t, err)
	cfg.Alerts.SubjectPrefix = "Tally"

	rt, err := buildApp(context.Background(), cfg, base, nil)
	require.NoError(t, err)
	defer rt.Close()

	p, ok := rt.Alerts.(alert.Prefixed)
	require.True(t, ok, "alerts should be prefixed")
	assert.Equal(t, "Tally", p.Prefix)
	assert.IsType(t, alert.LogSink{}, p.Sink)
	assert.Equal(t, "Transactions", rt.Settings.TransactionsTable)
	assert.Nil(t, rt.Committer, "auto_commit is off by default")
}

func TestCommitter(t *testing.T) {
	cfg := config.Default()
	base := t.TempDir()
	assert.Nil(t, committer(cfg, base))

	cfg.Git.AutoCommit = true
	if !gitops.IsRepo(base) {
		assert.Nil(t, committer(cfg, base), "not a repository")
	}

	cfg.Store.Kind = config.StoreSQLite
	assert.Nil(t, committer(cfg, base), "only csv stores are committed")
}
