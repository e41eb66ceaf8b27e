package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const passingScenario = `
name: bmi_inclusion
description: "IMC is derived then rounded"
survey: .
today: "2025-03-01"
participant:
  code: "001"
  interviews:
    - id: incl
      type: Inclusion
      items:
        POIDS: 70
        TAILLE: {value: 1.6, unit: m}
        IMC: null
assertions:
  - type: value
    interview: incl
    item: IMC
    expect: 27.34
  - type: status
    interview: incl
    expect: fulfilled
`

const failingScenario = `
name: bmi_wrong
description: "expects the wrong IMC"
survey: .
today: "2025-03-01"
participant:
  code: "002"
  interviews:
    - id: incl
      type: Inclusion
      items:
        POIDS: 70
        TAILLE: {value: 1.6, unit: m}
        IMC: null
assertions:
  - type: value
    interview: incl
    item: IMC
    expect: 30
`

// scenarioLayout writes the bmi survey and the given scenarios, keyed by
// file name, and returns the survey and scenarios directories.
func scenarioLayout(t *testing.T, scenarios map[string]string) (string, string) {
	t.Helper()
	surveyDir := writeSurvey(t, bmiSurvey)
	scenariosDir := t.TempDir()
	for name, content := range scenarios {
		writeFile(t, scenariosDir, name, content)
	}
	return surveyDir, scenariosDir
}

func TestTest_AllPass(t *testing.T) {
	surveyDir, scenariosDir := scenarioLayout(t, map[string]string{"bmi-inclusion.yaml": passingScenario})

	out, err := runCommand(t, NewTestCommand(&RootOptions{Format: "text"}), surveyDir, scenariosDir)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ bmi_inclusion")
	assert.Contains(t, out, "1 passed, 0 failed, 1 total")
}

func TestTest_Failure(t *testing.T) {
	surveyDir, scenariosDir := scenarioLayout(t, map[string]string{
		"bmi-inclusion.yaml": passingScenario,
		"bmi-wrong.yaml":     failingScenario,
	})

	out, err := runCommand(t, NewTestCommand(&RootOptions{Format: "text"}), surveyDir, scenariosDir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ bmi_wrong")
	assert.Contains(t, out, "Assertion failed")
	assert.Contains(t, out, "1 passed, 1 failed, 2 total")
}

func TestTest_JSON(t *testing.T) {
	surveyDir, scenariosDir := scenarioLayout(t, map[string]string{
		"bmi-inclusion.yaml": passingScenario,
		"bmi-wrong.yaml":     failingScenario,
	})

	out, err := runCommand(t, NewTestCommand(&RootOptions{Format: "json"}), surveyDir, scenariosDir)
	require.Error(t, err)

	var resp struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, 2, resp.Data.Total)
	assert.Equal(t, 1, resp.Data.Passed)
	assert.Equal(t, 1, resp.Data.Failed)
	require.Len(t, resp.Data.Scenarios, 2)
	assert.Equal(t, "bmi_inclusion", resp.Data.Scenarios[0].Name)
	assert.True(t, resp.Data.Scenarios[0].Pass)
	assert.NotEmpty(t, resp.Data.Scenarios[1].Errors)
}

func TestTest_Filter(t *testing.T) {
	surveyDir, scenariosDir := scenarioLayout(t, map[string]string{
		"bmi-inclusion.yaml": passingScenario,
		"bmi-wrong.yaml":     failingScenario,
	})

	out, err := runCommand(t, NewTestCommand(&RootOptions{Format: "text"}), surveyDir, scenariosDir, "--filter", "*-inclusion")
	require.NoError(t, err)
	assert.Contains(t, out, "1 passed, 0 failed, 1 total")

	_, err = runCommand(t, NewTestCommand(&RootOptions{Format: "text"}), surveyDir, scenariosDir, "--filter", "[")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid filter pattern")
}

func TestTest_Golden(t *testing.T) {
	surveyDir, scenariosDir := scenarioLayout(t, map[string]string{"bmi-inclusion.yaml": passingScenario})
	golden := filepath.Join(scenariosDir, "golden", "bmi-inclusion.golden")

	out, err := runCommand(t, NewTestCommand(&RootOptions{Format: "text"}), surveyDir, scenariosDir, "--update")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ bmi_inclusion")

	data, err := os.ReadFile(golden)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"scenario":"bmi_inclusion"`)
	assert.Contains(t, string(data), `"rule":"computed"`)

	_, err = runCommand(t, NewTestCommand(&RootOptions{Format: "text"}), surveyDir, scenariosDir)
	require.NoError(t, err, "run against fresh golden")

	require.NoError(t, os.WriteFile(golden, []byte(`{"scenario":"stale"}`), 0o644))
	out, err = runCommand(t, NewTestCommand(&RootOptions{Format: "text"}), surveyDir, scenariosDir)
	require.Error(t, err)
	assert.Contains(t, out, "does not match golden file")
}

func TestTest_SingleFile(t *testing.T) {
	surveyDir, scenariosDir := scenarioLayout(t, map[string]string{
		"bmi-inclusion.yaml": passingScenario,
		"bmi-wrong.yaml":     failingScenario,
	})

	out, err := runCommand(t, NewTestCommand(&RootOptions{Format: "text"}),
		surveyDir, filepath.Join(scenariosDir, "bmi-inclusion.yaml"))
	require.NoError(t, err)
	assert.Contains(t, out, "1 total")
}

func TestTest_LoadError(t *testing.T) {
	surveyDir, scenariosDir := scenarioLayout(t, map[string]string{"broken.yaml": "name: broken\n"})

	out, err := runCommand(t, NewTestCommand(&RootOptions{Format: "text"}), surveyDir, scenariosDir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ broken.yaml")
	assert.Contains(t, out, "failed to load scenario")
}

func TestTest_CommandErrors(t *testing.T) {
	surveyDir := writeSurvey(t, bmiSurvey)

	t.Run("missing survey directory", func(t *testing.T) {
		_, err := runCommand(t, NewTestCommand(&RootOptions{Format: "text"}), "/nonexistent/survey", t.TempDir())
		require.Error(t, err)
		assert.Equal(t, ExitCommandError, GetExitCode(err))
	})
	t.Run("missing scenarios", func(t *testing.T) {
		_, err := runCommand(t, NewTestCommand(&RootOptions{Format: "text"}), surveyDir, "/nonexistent/scenarios")
		require.Error(t, err)
		assert.Equal(t, ExitCommandError, GetExitCode(err))
		assert.Contains(t, err.Error(), ErrCodeNotFound)
	})
	t.Run("empty scenarios directory", func(t *testing.T) {
		out, err := runCommand(t, NewTestCommand(&RootOptions{Format: "text"}), surveyDir, t.TempDir())
		require.NoError(t, err)
		assert.Contains(t, out, "No scenarios found.")
	})
}
