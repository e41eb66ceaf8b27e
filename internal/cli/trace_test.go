package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/u-ask/uask-dom-sub000/internal/engine"
)

func TestTrace_Text(t *testing.T) {
	dir := writeSurvey(t, bmiSurvey)
	participant := writeFile(t, t.TempDir(), "p001.yaml", bmiParticipant)

	out, err := runCommand(t, NewTraceCommand(&RootOptions{Format: "text"}),
		dir, "-p", participant, "--today", "2025-03-01")
	require.NoError(t, err)
	assert.Contains(t, out, "Trace for participant: 001")
	assert.Contains(t, out, "[1] * pass 1 incl computed -> IMC")
	assert.Contains(t, out, "Firings: 7")
	assert.Contains(t, out, "Passes:  1")
}

func TestTrace_JSON(t *testing.T) {
	dir := writeSurvey(t, bmiSurvey)
	participant := writeFile(t, t.TempDir(), "p001.yaml", bmiParticipant)

	out, err := runCommand(t, NewTraceCommand(&RootOptions{Format: "json"}),
		dir, "-p", participant, "--today", "2025-03-01")
	require.NoError(t, err)

	var resp struct {
		Status string      `json:"status"`
		Data   TraceResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "001", resp.Data.Participant)
	require.Len(t, resp.Data.Firings, 7)
	for i, f := range resp.Data.Firings {
		assert.Equal(t, int64(i+1), f.Seq)
	}
	assert.Equal(t, 7, resp.Data.Stats.Firings)
	assert.Zero(t, resp.Data.Stats.Errors)
}

func TestTrace_Filters(t *testing.T) {
	dir := writeSurvey(t, bmiSurvey)
	participant := writeFile(t, t.TempDir(), "p001.yaml", bmiParticipant)

	tests := []struct {
		name string
		args []string
		want int
	}{
		{"by rule", []string{"--rule", "computed"}, 2},
		{"by interview", []string{"--interview", "v1"}, 3},
		{"rule and interview", []string{"--rule", "required", "--interview", "incl"}, 1},
		{"unknown rule", []string{"--rule", "nope"}, 0},
		{"by target", []string{"--target", "IMC"}, 2},
		{"by array target", []string{"--target", "AE"}, 2},
		{"target and rule", []string{"--target", "IMC", "--rule", "computed"}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{dir, "-p", participant, "--today", "2025-03-01"}, tt.args...)
			out, err := runCommand(t, NewTraceCommand(&RootOptions{Format: "json"}), args...)
			require.NoError(t, err)

			var resp struct {
				Data TraceResult `json:"data"`
			}
			require.NoError(t, json.Unmarshal([]byte(out), &resp))
			assert.Len(t, resp.Data.Firings, tt.want)
		})
	}
}

func TestTrace_TargetErrors(t *testing.T) {
	dir := writeSurvey(t, bmiSurvey)
	participant := writeFile(t, t.TempDir(), "p001.yaml", bmiParticipant)

	tests := []struct {
		target string
		want   string
	}{
		{"NOPE", `unknown item "NOPE"`},
		{"TAILLE", `no rule targets "TAILLE"`},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			_, err := runCommand(t, NewTraceCommand(&RootOptions{Format: "text"}),
				dir, "-p", participant, "--target", tt.target)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestFilterFirings(t *testing.T) {
	trace := []engine.Firing{
		{Seq: 1, Pass: 1, Interview: "a", Rule: "computed", Target: "X", Changed: true},
		{Seq: 2, Pass: 1, Interview: "a", Rule: "required", Target: "Y"},
		{Seq: 3, Pass: 2, Interview: "b", Rule: "computed", Target: "X", Error: "boom"},
	}

	got := filterFirings(trace, &TraceOptions{Changed: true}, nil)
	require.Len(t, got, 1)
	assert.Equal(t, int64(1), got[0].Seq)

	stats := traceStats(trace)
	assert.Equal(t, TraceStats{Firings: 3, Changed: 1, Errors: 1, Passes: 2}, stats)
}

func TestTrace_TextShowsErrors(t *testing.T) {
	out := &bytes.Buffer{}
	printTrace(&OutputFormatter{Format: "text", Writer: out}, TraceResult{
		Participant: "007",
		Firings:     []engine.Firing{{Seq: 4, Pass: 1, Interview: "v", Rule: "computed", Target: "X", Error: "division"}},
		Stats:       TraceStats{Firings: 1, Errors: 1, Passes: 1},
	})
	assert.Contains(t, out.String(), "[4]   pass 1 v computed -> X (error: division)")
	assert.Contains(t, out.String(), "Errors:  1")
}

func TestTrace_NoFirings(t *testing.T) {
	out := &bytes.Buffer{}
	printTrace(&OutputFormatter{Format: "text", Writer: out}, TraceResult{Participant: "007", Firings: []engine.Firing{}})
	assert.Contains(t, out.String(), "(no firings)")
}
