package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
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

const invalidSurvey = `
package bad

items: {
	A: {type: "numerical"}
}

pageSets: Main: {items: ["A", "Z"]}

rules: [
	{rule: "frobnicate", target: "A"},
]
`

const cyclicSurvey = `
package cyc

survey: "cyc"

items: {
	A: {type: "numerical"}
	B: {type: "numerical"}
}

pageSets: Main: {items: ["A", "B"]}

rules: [
	{formula: "B + 1", target: "A"},
	{formula: "A - 1", target: "B"},
]
`

const bmiParticipant = `
code: "001"
sample: S1
interviews:
  - id: incl
    type: Inclusion
    items:
      POIDS: 70
      TAILLE: {value: 1.6, unit: m}
      IMC: null
      YEAR: null
  - id: v1
    type: Visit
    items:
      POIDS: null
      AE: headache
      AE[2]: nausea
`

// writeFile writes content to name under dir and returns the path.
func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// writeSurvey writes src as the only CUE file of a fresh directory.
func writeSurvey(t *testing.T, src string) string {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, dir, "survey.cue", src)
	return dir
}

// runCommand runs cmd with args and returns stdout.
func runCommand(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}
