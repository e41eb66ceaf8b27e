package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/u-ask/uask-dom-sub000/internal/ir"
)

func TestRootCommand_Subcommands(t *testing.T) {
	cmd := NewRootCommand()
	var names []string
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}
	for _, want := range []string{"compile", "validate", "run", "next", "trace", "test", "history"} {
		assert.Contains(t, names, want)
	}
}

func TestRootCommand_InvalidFormat(t *testing.T) {
	dir := writeSurvey(t, bmiSurvey)
	_, err := runCommand(t, NewRootCommand(), "--format", "xml", "validate", dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid format "xml"`)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestRootCommand_GlobalFlags(t *testing.T) {
	dir := writeSurvey(t, bmiSurvey)
	out, err := runCommand(t, NewRootCommand(), "--format", "json", "-v", "validate", dir)
	require.NoError(t, err)
	assert.Contains(t, out, `"status": "ok"`)
}

func TestRootCommand_Version(t *testing.T) {
	out, err := runCommand(t, NewRootCommand(), "--version")
	require.NoError(t, err)
	assert.Contains(t, out, ir.EngineVersion)
}
