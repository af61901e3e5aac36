package commands_test

import (
	"encoding/csv"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tally-dev/tally/internal/header"
	"github.com/tally-dev/tally/internal/runlog"
	"github.com/tally-dev/tally/internal/table"
)

var binaryPath string

func TestMain(m *testing.M) {
	// Build the binary once for all tests.
	tmpDir, err := os.MkdirTemp("", "tally-test-*")
	if err != nil {
		panic(err)
	}
	defer os.RemoveAll(tmpDir)

	binaryPath = filepath.Join(tmpDir, "tally")
	cmd := exec.Command("go", "build", "-o", binaryPath, "../../cmd/tally")
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		panic("failed to build binary: " + err.Error())
	}

	os.Exit(m.Run())
}

func runTally(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := exec.Command(binaryPath, args...)
	cmd.Env = append(os.Environ(), "NO_COLOR=1")
	out, err := cmd.CombinedOutput()
	return string(out), err
}

func requireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
}

func readTable(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	require.NoError(t, err)
	return records
}

func TestInit_CreatesStructure(t *testing.T) {
	dir := t.TempDir()
	_, err := runTally(t, "init", dir, "--no-git")
	require.NoError(t, err)

	expectedDirs := []string{
		"import",
		filepath.Join("import", "processed"),
		"tables",
	}
	for _, d := range expectedDirs {
		info, err := os.Stat(filepath.Join(dir, d))
		require.NoError(t, err, "directory %s should exist", d)
		assert.True(t, info.IsDir(), "%s should be a directory", d)
	}
	_, err = os.Stat(filepath.Join(dir, ".git"))
	assert.True(t, os.IsNotExist(err), "--no-git should not create a repository")
}

func TestInit_Config(t *testing.T) {
	dir := t.TempDir()
	_, err := runTally(t, "init", dir, "--no-git", "--timezone", "Europe/Berlin")
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "tally.yaml"))
	require.NoError(t, err)
	contents := string(data)

	assert.Contains(t, contents, "timezone: Europe/Berlin")
	assert.Contains(t, contents, "name: chase-checking")
	assert.Contains(t, contents, "check_number")
}

func TestInit_Tables(t *testing.T) {
	dir := t.TempDir()
	_, err := runTally(t, "init", dir, "--no-git")
	require.NoError(t, err)

	tx := readTable(t, filepath.Join(dir, "tables", "Transactions.csv"))
	require.Len(t, tx, 1)
	assert.Equal(t, append(append([]string(nil), table.Columns...), table.AuditColumns...), tx[0])

	rules := readTable(t, filepath.Join(dir, "tables", "Rules.csv"))
	require.Len(t, rules, 1)
	assert.Equal(t, "Rule ID", rules[0][0])
}

func TestInit_RefusesExisting(t *testing.T) {
	dir := t.TempDir()
	_, err := runTally(t, "init", dir, "--no-git")
	require.NoError(t, err)

	out, err := runTally(t, "init", dir, "--no-git")
	require.Error(t, err, "second init should fail")
	assert.Contains(t, out, "already exists")
}

func TestInit_BadTimezone(t *testing.T) {
	dir := t.TempDir()
	_, err := runTally(t, "init", dir, "--no-git", "--timezone", "Mars/Olympus")
	require.Error(t, err)
	_, statErr := os.Stat(filepath.Join(dir, "tally.yaml"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestInit_GitRepo(t *testing.T) {
	requireGit(t)
	dir := t.TempDir()
	_, err := runTally(t, "init", dir)
	require.NoError(t, err)

	// .git directory should exist.
	_, err = os.Stat(filepath.Join(dir, ".git"))
	require.NoError(t, err, ".git should exist")

	// git log should have an init commit.
	log := exec.Command("git", "log", "--format=%s", "-1")
	log.Dir = dir
	out, err := log.Output()
	require.NoError(t, err)
	assert.Contains(t, string(out), "init:")

	// Verify author.
	authorLog := exec.Command("git", "log", "--format=%an <%ae>", "-1")
	authorLog.Dir = dir
	out, err = authorLog.Output()
	require.NoError(t, err)
	assert.Contains(t, string(out), "Tally <tally@localhost>")
}

func TestInit_Gitignore(t *testing.T) {
	dir := t.TempDir()
	_, err := runTally(t, "init", dir, "--no-git")
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, ".gitignore"))
	require.NoError(t, err)
	contents := string(data)

	for _, pattern := range []string{".env", "*.db", "import/*.csv", "import/processed/"} {
		assert.Contains(t, contents, pattern, ".gitignore should contain %s", pattern)
	}
}

func copyFixture(t *testing.T, name, dst string) {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("..", "..", "testdata", name))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(dst, data, 0o644))
}

func TestIngestAndCategorize(t *testing.T) {
	dir := t.TempDir()
	_, err := runTally(t, "init", dir, "--no-git")
	require.NoError(t, err)
	cfg := filepath.Join(dir, "tally.yaml")

	copyFixture(t, "chase_checking.csv", filepath.Join(dir, "import", "chase_checking.csv"))
	copyFixture(t, "rules.csv", filepath.Join(dir, "tables", "Rules.csv"))

	out, err := runTally(t, "ingest", "--config", cfg)
	require.NoError(t, err, out)
	assert.Contains(t, out, "chase_checking.csv [chase-checking]: 6 new")

	tx := readTable(t, filepath.Join(dir, "tables", "Transactions.csv"))
	require.Len(t, tx, 7)
	_, err = os.Stat(filepath.Join(dir, "import", "processed", "chase_checking.csv"))
	require.NoError(t, err, "ingested file should be archived")

	out, err = runTally(t, "categorize", "--config", cfg)
	require.NoError(t, err, out)
	assert.Contains(t, out, "5 of 6 rows matched 3 rules")

	tx = readTable(t, filepath.Join(dir, "tables", "Transactions.csv"))
	ruleCol := -1
	for i, h := range tx[0] {
		if h == table.ColMatchedRuleID {
			ruleCol = i
		}
	}
	require.GreaterOrEqual(t, ruleCol, 0)
	assert.Equal(t, "software", tx[1][ruleCol])
	assert.Equal(t, "", tx[5][ruleCol])

	entries, err := runlog.Read(filepath.Join(dir, "runs.csv"))
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, runlog.OpIngest, entries[0].Operation)
	assert.Equal(t, 6, entries[0].Appended)
	assert.Equal(t, runlog.OpCategorize, entries[1].Operation)
	assert.Equal(t, 5, entries[1].Matched)
}

func TestIngest_DryRun(t *testing.T) {
	dir := t.TempDir()
	_, err := runTally(t, "init", dir, "--no-git")
	require.NoError(t, err)
	copyFixture(t, "chase_checking.csv", filepath.Join(dir, "import", "chase_checking.csv"))

	out, err := runTally(t, "ingest", "--dry-run", "--config", filepath.Join(dir, "tally.yaml"))
	require.NoError(t, err, out)
	assert.Contains(t, out, "dry run")

	tx := readTable(t, filepath.Join(dir, "tables", "Transactions.csv"))
	assert.Len(t, tx, 1)
	_, err = os.Stat(filepath.Join(dir, "import", "chase_checking.csv"))
	assert.NoError(t, err, "dry run leaves the file in place")
}

func TestIngest_MissingConfig(t *testing.T) {
	_, err := runTally(t, "ingest", "--config", filepath.Join(t.TempDir(), "tally.yaml"))
	require.Error(t, err)
}

func TestCategorize_NegativeRange(t *testing.T) {
	out, err := runTally(t, "categorize", "--start-row", "-1")
	require.Error(t, err)
	assert.Contains(t, out, "must not be negative")
}

func TestFingerprint(t *testing.T) {
	path := filepath.Join("..", "..", "testdata", "chase_checking.csv")
	out, err := runTally(t, "fingerprint", path)
	require.NoError(t, err, out)

	want := header.Fingerprint([]string{"Details", "Posting Date", "Description", "Amount", "Type", "Balance", "Check or Slip #"})
	assert.Contains(t, out, want)
}
