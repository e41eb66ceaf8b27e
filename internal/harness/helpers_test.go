package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const bmiSurvey = `
package bmi

survey: "bmi"

items: {
	POIDS:  {type: "numerical", units: ["kg"]}
	TAILLE: {type: "numerical", units: ["m"]}
	IMC:    {type: "numerical"}
	YEAR:   {type: "numerical"}
	CENTRE: {type: "text"}
	AE:     {type: "text", array: true}
}

pageSets: {
	Home:      {items: []}
	Inclusion: {items: ["POIDS", "TAILLE", "IMC", "YEAR", "CENTRE"]}
	Visit:     {items: ["POIDS", "AE"]}
}

rules: [
	{rule: "decimalPrecision", target: "IMC", args: [2]},
	{rule: "computed", target: "IMC", formula: "POIDS / (TAILLE * TAILLE)"},
	{rule: "required", target: "POIDS"},
	{rule: "computed", target: "YEAR", formula: "@THISYEAR"},
	{rule: "letterCase", target: "AE", args: ["upper"]},
	{rule: "constant", target: "CENTRE", args: ["Paris"], when: "initialization"},
]

workflows: main: {
	home:     "Home"
	initial:  ["Inclusion"]
	followUp: ["Visit"]
}
`

// writeSurvey writes the bmi survey into a fresh directory.
func writeSurvey(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "survey.cue"), []byte(bmiSurvey), 0o644))
	return dir
}

// writeFile writes content to name under dir and returns the path.
func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func bmiParticipant() ParticipantFile {
	return ParticipantFile{
		Code:   "001",
		Sample: "S1",
		Interviews: []InterviewFile{
			{ID: "incl", Type: "Inclusion", Items: map[string]ItemValue{
				"POIDS":  {Value: 70},
				"TAILLE": {Value: 1.6, Unit: "m"},
				"IMC":    {},
				"YEAR":   {},
			}},
			{ID: "v1", Type: "Visit", Items: map[string]ItemValue{
				"POIDS": {},
				"AE":    {Value: "headache"},
				"AE[2]": {Value: "nausea"},
			}},
		},
	}
}

func bmiScenario(t *testing.T, assertions ...Assertion) *Scenario {
	return &Scenario{
		Name:        "bmi",
		Description: "body mass index over two interviews",
		Survey:      writeSurvey(t),
		Today:       "2025-03-01",
		Participant: bmiParticipant(),
		Assertions:  assertions,
	}
}

func boolPtr(b bool) *bool { return &b }
