package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/sensitivity/internal/store"
)

// storedRun runs the power config into a fresh database and returns the
// database path and run ID.
func storedRun(t *testing.T) (string, string) {
	t.Helper()
	a, _ := newTestApp(t)
	dbPath := filepath.Join(t.TempDir(), "runs.db")
	_, err := execCmd(t, a, "--db", dbPath, "run", writeConfig(t, powerConfig))
	require.NoError(t, err)

	st, err := store.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()
	runs, err := st.ListRuns(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	return dbPath, runs[0].ID
}

func TestShowCommand_RerendersStoredRun(t *testing.T) {
	dbPath, id := storedRun(t)
	a, mem := newTestApp(t)
	csvPath := filepath.Join(t.TempDir(), "again.csv")

	out, err := execCmd(t, a, "--db", dbPath, "show", id, "--csv", csvPath)
	require.NoError(t, err)
	assert.NotEmpty(t, out)

	csv, err := mem.ReadFile(csvPath)
	require.NoError(t, err)
	assert.Equal(t, powerCSV, string(csv))
}

func TestShowCommand_Overrides(t *testing.T) {
	dbPath, id := storedRun(t)
	a, mem := newTestApp(t)
	htmlPath := filepath.Join(t.TempDir(), "max.html")

	out, err := execCmd(t, a, "--db", dbPath, "show", id,
		"--terminal=false", "--agg", "max", "--color-map", "Blues", "--reverse", "--num-fmt", "%.1f",
		"--html", htmlPath)
	require.NoError(t, err)
	assert.Empty(t, out)

	html, err := mem.ReadFile(htmlPath)
	require.NoError(t, err)
	assert.Contains(t, string(html), "9.0")
}

func TestShowCommand_Errors(t *testing.T) {
	dbPath, id := storedRun(t)
	tests := []struct {
		name     string
		args     []string
		wantCode int
	}{
		{"unknown run", []string{"--db", dbPath, "show", "missing"}, ExitError},
		{"unknown aggregation", []string{"--db", dbPath, "show", id, "--agg", "mode"}, ExitConfigError},
		{"unknown color map", []string{"--db", dbPath, "show", id, "--color-map", "Nope"}, ExitConfigError},
		{"bad grid size", []string{"--db", dbPath, "show", id, "--grid-size", "0"}, ExitConfigError},
		{"no database", []string{"--db", "", "show", id}, ExitConfigError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, _ := newTestApp(t)
			_, err := execCmd(t, a, tt.args...)
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, exitCode(err))
		})
	}
}

func TestRunsCommand_ListAndDelete(t *testing.T) {
	dbPath, id := storedRun(t)
	a, _ := newTestApp(t)

	out, err := execCmd(t, a, "--db", dbPath, "runs")
	require.NoError(t, err)
	assert.Contains(t, out, id)
	assert.Contains(t, out, "Power test")
	assert.Contains(t, out, "x_1, x_2")

	out, err = execCmd(t, a, "--db", dbPath, "runs", "delete", id)
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted "+id)

	out, err = execCmd(t, a, "--db", dbPath, "runs")
	require.NoError(t, err)
	assert.Contains(t, out, "No stored runs.")

	_, err = execCmd(t, a, "--db", dbPath, "runs", "delete", id)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestServeCommand_RequiresDatabase(t *testing.T) {
	a, _ := newTestApp(t)
	_, err := execCmd(t, a, "--db", "", "serve")
	require.Error(t, err)
	assert.Equal(t, ExitConfigError, exitCode(err))
}

func TestShowCommand_CompressedArtifacts(t *testing.T) {
	dbPath, id := storedRun(t)
	a, mem := newTestApp(t)
	dir := t.TempDir()

	_, err := execCmd(t, a, "--db", dbPath, "show", id, "--terminal=false",
		"--csv", filepath.Join(dir, "t.csv.gz"), "--figure", filepath.Join(dir, "f.svg.zst"))
	require.NoError(t, err)
	assert.Len(t, mem.Files(dir), 2)

	_, err = execCmd(t, a, "--db", dbPath, "show", id, "--figure", filepath.Join(dir, "f.gif.gz"))
	assert.Equal(t, ExitConfigError, exitCode(err))
}
