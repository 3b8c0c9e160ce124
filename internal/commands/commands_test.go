package commands

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fundbook-dev/fundbook/internal/config"
	"github.com/fundbook-dev/fundbook/internal/importer"
	"github.com/fundbook-dev/fundbook/internal/mapping"
	"github.com/fundbook-dev/fundbook/internal/tabular"
)

const balancedCSV = `Account,Description,Balance
10-1000,Cash,250.00
10-4000,Revenue,"(250.00)"
20-1000,Cash,100.00
20-2000,Payable,(100.00)
`

// setupWorkspace initializes a workspace in a temp dir and points the
// config's database path at it, so commands run from any working directory.
func setupWorkspace(t *testing.T) (dir, configPath string) {
	t.Helper()
	dir = t.TempDir()
	require.NoError(t, runInit(io.Discard, dir))

	configPath = filepath.Join(dir, "fundbook.yaml")
	cfg := config.Default()
	cfg.Database.Path = filepath.Join(dir, "fundbook.db")
	require.NoError(t, config.Save(configPath, cfg))
	return dir, configPath
}

func writeMapping(t *testing.T, dir string) string {
	t.Helper()
	m := mapping.Default()
	m.AccountCol = "Account"
	m.DescCol = "Description"
	m.BalanceCol = "Balance"
	path := filepath.Join(dir, "mapping.yaml")
	require.NoError(t, mapping.Save(path, m))
	return path
}

func uploadText(t *testing.T, dir, configPath, text string) string {
	t.Helper()
	csvPath := filepath.Join(dir, "tb.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte(text), 0o644))

	var out bytes.Buffer
	require.NoError(t, runUpload(context.Background(), &out, configPath, csvPath))
	id := strings.TrimSpace(out.String())
	require.NotEmpty(t, id)
	return id
}

func TestInit_WritesWorkspace(t *testing.T) {
	dir := t.TempDir()
	var out bytes.Buffer
	require.NoError(t, runInit(&out, dir))

	for _, name := range []string{"fundbook.yaml", "mapping.yaml", "fundbook.db"} {
		_, err := os.Stat(filepath.Join(dir, name))
		require.NoError(t, err, "%s should exist", name)
	}
	assert.Contains(t, out.String(), "Initialized fundbook workspace")
}

func TestUploads_ListsStoredFiles(t *testing.T) {
	dir, configPath := setupWorkspace(t)
	id := uploadText(t, dir, configPath, balancedCSV)

	var out bytes.Buffer
	require.NoError(t, runUploads(context.Background(), &out, configPath))
	assert.Contains(t, out.String(), id)
	assert.Contains(t, out.String(), "tb.csv")
}

func TestPreview_ShowsHeaderAndRows(t *testing.T) {
	dir, configPath := setupWorkspace(t)
	id := uploadText(t, dir, configPath, balancedCSV)

	var out bytes.Buffer
	require.NoError(t, runPreview(context.Background(), &out, configPath, id, tabular.Options{HasHeaders: true}, 2))

	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	require.Len(t, lines, 3, "header plus two preview rows")
	assert.Equal(t, "Account | Description | Balance", lines[0])
	assert.Equal(t, "10-1000 | Cash | 250.00", lines[1])
}

func TestValidate_ReportsBalanced(t *testing.T) {
	dir, configPath := setupWorkspace(t)
	id := uploadText(t, dir, configPath, balancedCSV)
	mappingPath := writeMapping(t, dir)

	var out bytes.Buffer
	require.NoError(t, runValidate(context.Background(), &out, configPath, id,
		tabular.Options{HasHeaders: true}, mappingPath))

	report := out.String()
	assert.Contains(t, report, "Rows read:           4")
	assert.Contains(t, report, "Rows kept:           4")
	assert.Contains(t, report, "Net total:           0.00")
	assert.Contains(t, report, "Balanced within 1.00")
	assert.Contains(t, report, "10")
	assert.Contains(t, report, "20")
}

func TestCommit_PersistsAndReports(t *testing.T) {
	dir, configPath := setupWorkspace(t)
	id := uploadText(t, dir, configPath, balancedCSV)
	mappingPath := writeMapping(t, dir)

	fundsPath := filepath.Join(dir, "funds.yaml")
	funds := "\"10\":\n  name: General Fund\n  type: governmental\n"
	require.NoError(t, os.WriteFile(fundsPath, []byte(funds), 0o644))

	var out bytes.Buffer
	require.NoError(t, runCommit(context.Background(), &out, configPath, id, "2026-06",
		tabular.Options{HasHeaders: true}, mappingPath, fundsPath, false))

	assert.Contains(t, out.String(), "Imported 4 lines")
	assert.Contains(t, out.String(), `"TB Import - tb.csv"`)
	assert.Contains(t, out.String(), "scope 2026-06")
}

func TestCommit_MissingFundsFileIsFine(t *testing.T) {
	dir, configPath := setupWorkspace(t)
	id := uploadText(t, dir, configPath, balancedCSV)
	mappingPath := writeMapping(t, dir)

	var out bytes.Buffer
	require.NoError(t, runCommit(context.Background(), &out, configPath, id, "2026-07",
		tabular.Options{HasHeaders: true}, mappingPath, filepath.Join(dir, "absent.yaml"), false))
	assert.Contains(t, out.String(), "Imported 4 lines")
}

func TestCommit_UnbalancedNeedsOverride(t *testing.T) {
	dir, configPath := setupWorkspace(t)
	unbalanced := "Account,Description,Balance\n10-1000,Cash,5.00\n"
	id := uploadText(t, dir, configPath, unbalanced)
	mappingPath := writeMapping(t, dir)

	err := runCommit(context.Background(), io.Discard, configPath, id, "2026-06",
		tabular.Options{HasHeaders: true}, mappingPath, filepath.Join(dir, "absent.yaml"), false)
	require.ErrorIs(t, err, importer.ErrUnbalanced)

	var out bytes.Buffer
	require.NoError(t, runCommit(context.Background(), &out, configPath, id, "2026-06",
		tabular.Options{HasHeaders: true}, mappingPath, filepath.Join(dir, "absent.yaml"), true))
	assert.Contains(t, out.String(), "Imported 1 lines")
}

func TestRootCommand_RegistersSubcommands(t *testing.T) {
	root := NewRootCommand()
	names := make(map[string]bool)
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"init", "upload", "uploads", "preview", "validate", "commit"} {
		assert.True(t, names[want], "subcommand %s should be registered", want)
	}
}
