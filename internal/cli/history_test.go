package cli

import (
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recordRuns(t *testing.T, db string, n int) []string {
	t.Helper()
	dir := writeSurvey(t, bmiSurvey)
	participant := writeFile(t, t.TempDir(), "p001.yaml", bmiParticipant)

	ids := make([]string, n)
	for i := range n {
		out, err := runCommand(t, NewRunCommand(&RootOptions{Format: "json"}),
			dir, "-p", participant, "--today", "2025-03-01", "--db", db)
		require.NoError(t, err)

		var resp struct {
			Data struct {
				Run string `json:"run"`
			} `json:"data"`
		}
		require.NoError(t, json.Unmarshal([]byte(out), &resp))
		require.NotEmpty(t, resp.Data.Run)
		ids[i] = resp.Data.Run
	}
	return ids
}

func TestRun_DB(t *testing.T) {
	db := filepath.Join(t.TempDir(), "runs.db")
	dir := writeSurvey(t, bmiSurvey)
	participant := writeFile(t, t.TempDir(), "p001.yaml", bmiParticipant)

	first, err := runCommand(t, NewRunCommand(&RootOptions{Format: "text"}),
		dir, "-p", participant, "--today", "2025-03-01", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, first, "7 firing(s)")
	assert.Contains(t, first, "  run: ")

	second, err := runCommand(t, NewRunCommand(&RootOptions{Format: "text"}),
		dir, "-p", participant, "--today", "2025-03-01", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, second, "0 firing(s)")
	assert.Contains(t, second, "27.34")
	assert.Contains(t, second, "incl (Inclusion): fulfilled")
}

const anonymousParticipant = `
code: "002"
interviews:
  - type: Inclusion
    items:
      POIDS: 80
      TAILLE: {value: 2, unit: m}
  - type: Visit
    items:
      POIDS: 81
`

func TestRun_DBWithoutInterviewIDs(t *testing.T) {
	db := filepath.Join(t.TempDir(), "runs.db")
	dir := writeSurvey(t, bmiSurvey)
	participant := writeFile(t, t.TempDir(), "p002.yaml", anonymousParticipant)

	first, err := runCommand(t, NewRunCommand(&RootOptions{Format: "text"}),
		dir, "-p", participant, "--today", "2025-03-01", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, first, "002-1 (Inclusion)")
	assert.Contains(t, first, "002-2 (Visit)")
	assert.NotContains(t, first, " 0 firing(s)")

	second, err := runCommand(t, NewRunCommand(&RootOptions{Format: "text"}),
		dir, "-p", participant, "--today", "2025-03-01", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, second, " 0 firing(s)", "stable ids let the cache hit")

	started, err := runCommand(t, NewRunCommand(&RootOptions{Format: "text"}),
		dir, "-p", participant, "--today", "2025-03-01", "--start", "002-2")
	require.NoError(t, err)
	assert.Contains(t, started, "002-2 (Visit)")
}

func TestRun_DBUnwritable(t *testing.T) {
	dir := writeSurvey(t, bmiSurvey)
	participant := writeFile(t, t.TempDir(), "p001.yaml", bmiParticipant)

	_, err := runCommand(t, NewRunCommand(&RootOptions{Format: "text"}),
		dir, "-p", participant, "--db", "/nonexistent/dir/runs.db")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), ErrCodeWriteFailed)
}

func TestHistory_List(t *testing.T) {
	db := filepath.Join(t.TempDir(), "runs.db")
	ids := recordRuns(t, db, 2)

	out, err := runCommand(t, NewHistoryCommand(&RootOptions{Format: "text"}), db)
	require.NoError(t, err)
	assert.Contains(t, out, ids[0])
	assert.Contains(t, out, ids[1])
	assert.Less(t, strings.Index(out, ids[0]), strings.Index(out, ids[1]))

	out, err = runCommand(t, NewHistoryCommand(&RootOptions{Format: "json"}), db, "-p", "nobody")
	require.NoError(t, err)
	var resp struct {
		Data HistoryResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Empty(t, resp.Data.Runs)

	out, err = runCommand(t, NewHistoryCommand(&RootOptions{Format: "json"}), db, "-p", "001")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Data.Runs, 2)
	assert.Equal(t, ids[0], resp.Data.Runs[0].ID)
	assert.Equal(t, int64(1), resp.Data.Runs[0].Seq)
}

func TestHistory_Run(t *testing.T) {
	db := filepath.Join(t.TempDir(), "runs.db")
	ids := recordRuns(t, db, 2)

	out, err := runCommand(t, NewHistoryCommand(&RootOptions{Format: "json"}), db, "--run", ids[0])
	require.NoError(t, err)
	var resp struct {
		Data TraceResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "001", resp.Data.Participant)
	assert.Len(t, resp.Data.Firings, 7)
	assert.Equal(t, 7, resp.Data.Stats.Firings)

	out, err = runCommand(t, NewHistoryCommand(&RootOptions{Format: "text"}), db, "--run", ids[1])
	require.NoError(t, err)
	assert.Contains(t, out, "Trace for participant: 001")
	assert.Contains(t, out, "(no firings)")
}

func TestHistory_Errors(t *testing.T) {
	_, err := runCommand(t, NewHistoryCommand(&RootOptions{Format: "text"}),
		filepath.Join(t.TempDir(), "missing.db"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), ErrCodeNotFound)

	db := filepath.Join(t.TempDir(), "runs.db")
	recordRuns(t, db, 1)
	_, err = runCommand(t, NewHistoryCommand(&RootOptions{Format: "text"}), db, "--run", "nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown run "nope"`)
}
