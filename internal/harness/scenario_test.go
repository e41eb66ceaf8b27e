package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validScenarioYAML = `
name: bmi_inclusion
description: "IMC is derived then rounded"
survey: survey
today: "2025-03-01"
participant:
  code: "001"
  sample: S1
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
  - type: firing_order
    rules: [computed, decimalPrecision]
`

// scenarioDir lays out dir/survey/survey.cue and returns dir.
func scenarioDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, dir, "survey/survey.cue", bmiSurvey)
	return dir
}

func TestLoadScenario_ValidFile(t *testing.T) {
	dir := scenarioDir(t)
	path := writeFile(t, dir, "bmi.yaml", validScenarioYAML)

	scenario, err := LoadScenario(path)
	require.NoError(t, err)

	assert.Equal(t, "bmi_inclusion", scenario.Name)
	assert.Equal(t, filepath.Join(dir, "survey"), scenario.Survey)
	assert.Equal(t, "2025-03-01", scenario.Today)
	assert.Equal(t, "001", scenario.Participant.Code)
	require.Len(t, scenario.Participant.Interviews, 1)

	items := scenario.Participant.Interviews[0].Items
	assert.Equal(t, 70, items["POIDS"].Value)
	assert.Equal(t, 1.6, items["TAILLE"].Value)
	assert.Equal(t, "m", items["TAILLE"].Unit)
	assert.Nil(t, items["IMC"].Value)
	require.Len(t, scenario.Assertions, 2)
	assert.Equal(t, []string{"computed", "decimalPrecision"}, scenario.Assertions[1].Rules)

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestLoadScenarioWithBasePath(t *testing.T) {
	dir := scenarioDir(t)
	path := writeFile(t, t.TempDir(), "elsewhere.yaml", validScenarioYAML)

	scenario, err := LoadScenarioWithBasePath(path, dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "survey"), scenario.Survey)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorContains(t, err, "failed to read scenario file")
}

func TestLoadScenario_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "malformed",
			yaml:    "name: [unclosed",
			wantErr: "failed to parse YAML",
		},
		{
			name: "unknown field",
			yaml: `
name: x
description: x
survey: survey
assertion: []
`,
			wantErr: "field assertion not found",
		},
		{
			name: "missing name",
			yaml: `
description: x
survey: survey
participant: {code: "1"}
assertions: [{type: next, expect: Visit}]
`,
			wantErr: "Name is required",
		},
		{
			name: "missing participant code",
			yaml: `
name: x
description: x
survey: survey
participant: {sample: S}
assertions: [{type: next, expect: Visit}]
`,
			wantErr: "Participant.Code is required",
		},
		{
			name: "interview without type",
			yaml: `
name: x
description: x
survey: survey
participant: {code: "1", interviews: [{id: a}]}
assertions: [{type: next, expect: Visit}]
`,
			wantErr: "Participant.Interviews[0].Type is required",
		},
		{
			name: "no assertions",
			yaml: `
name: x
description: x
survey: survey
participant: {code: "1"}
assertions: []
`,
			wantErr: "Assertions",
		},
		{
			name: "bad date",
			yaml: `
name: x
description: x
survey: survey
today: 03/01/2025
participant: {code: "1"}
assertions: [{type: next, expect: Visit}]
`,
			wantErr: "Today must be a yyyy-mm-dd date",
		},
		{
			name: "survey directory missing",
			yaml: `
name: x
description: x
survey: nowhere
participant: {code: "1"}
assertions: [{type: next, expect: Visit}]
`,
			wantErr: "survey directory not found",
		},
		{
			name: "unknown assertion type",
			yaml: `
name: x
description: x
survey: survey
participant: {code: "1"}
assertions: [{type: final_state}]
`,
			wantErr: `unknown assertion type "final_state"`,
		},
		{
			name: "value without item",
			yaml: `
name: x
description: x
survey: survey
participant: {code: "1"}
assertions: [{type: value, interview: a, expect: 1}]
`,
			wantErr: "item is required for value",
		},
		{
			name: "malformed item key",
			yaml: `
name: x
description: x
survey: survey
participant: {code: "1"}
assertions: [{type: special, interview: a, item: "AE[0]"}]
`,
			wantErr: "malformed instance",
		},
		{
			name: "message without rule",
			yaml: `
name: x
description: x
survey: survey
participant: {code: "1"}
assertions: [{type: message, interview: a, item: POIDS}]
`,
			wantErr: "rule is required for message",
		},
		{
			name: "negative count",
			yaml: `
name: x
description: x
survey: survey
participant: {code: "1"}
assertions: [{type: firing_count, rule: required, count: -1}]
`,
			wantErr: "count must be non-negative",
		},
		{
			name: "order without rules",
			yaml: `
name: x
description: x
survey: survey
participant: {code: "1"}
assertions: [{type: firing_order}]
`,
			wantErr: "rules is required for firing_order",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := scenarioDir(t)
			path := writeFile(t, dir, "s.yaml", tt.yaml)
			_, err := LoadScenario(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadScenario_FiringCountZeroAllowed(t *testing.T) {
	dir := scenarioDir(t)
	path := writeFile(t, dir, "s.yaml", `
name: x
description: x
survey: survey
participant: {code: "1"}
assertions: [{type: firing_count, rule: copy, count: 0}]
`)
	scenario, err := LoadScenario(path)
	require.NoError(t, err)
	assert.Equal(t, 0, scenario.Assertions[0].Count)
}

func TestAssertionConstants(t *testing.T) {
	assert.Equal(t, "value", AssertValue)
	assert.Equal(t, "message", AssertMessage)
	assert.Equal(t, "firing_count", AssertFiringCount)
	assert.Equal(t, "firing_order", AssertFiringOrder)
}
