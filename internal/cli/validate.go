package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/u-ask/uask-dom-sub000/internal/compiler"
	"github.com/u-ask/uask-dom-sub000/internal/rule"
)

// ValidationReport is the JSON payload of the validate command.
type ValidationReport struct {
	Valid    bool                    `json:"valid"`
	Errors   []CLIError              `json:"errors,omitempty"`
	Warnings []compiler.CycleWarning `json:"warnings,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <survey-dir>",
		Short: "Validate a CUE survey",
		Long: `Validate a CUE survey definition without running it.

Every validation error is reported, not just the first. Dependency
cycles between computed items are reported as warnings.

Exit codes:
  0 - Survey is valid
  1 - Validation errors
  2 - Command error (directory not found, no CUE files, etc.)`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runValidate(opts *RootOptions, dir string, cmd *cobra.Command) error {
	f := newFormatter(opts, cmd)

	result, errs := LoadSurvey(dir, rule.NewLibrary(), LoadModeCollectAll)
	if result == nil {
		code, msg := describeError(errs[0])
		return commandError(f, code, msg)
	}
	f.VerboseLog("Found %d CUE file(s) in %s", result.FileCount, dir)

	if len(errs) > 0 {
		return outputValidationErrors(f, errs)
	}

	if f.JSON() {
		return f.Success(ValidationReport{Valid: true, Warnings: result.Warnings})
	}
	fmt.Fprintf(f.Writer, "✓ Survey %s is valid\n", result.Survey.Name)
	for _, w := range result.Warnings {
		fmt.Fprintf(f.Writer, "  ! %s: %s\n", w.Level, strings.Join(w.Path, " -> "))
	}
	return nil
}

// outputValidationErrors reports every error and returns ExitFailure.
func outputValidationErrors(f *OutputFormatter, errs []error) error {
	report := ValidationReport{Errors: make([]CLIError, len(errs))}
	for i, err := range errs {
		code, msg := describeError(err)
		report.Errors[i] = CLIError{Code: code, Message: msg}
	}

	if f.JSON() {
		first := report.Errors[0]
		if err := f.encode(CLIResponse{Status: "error", Data: report, Error: &first}); err != nil {
			return err
		}
	} else {
		fmt.Fprintf(f.Writer, "✗ %d validation error(s)\n", len(errs))
		for _, e := range report.Errors {
			fmt.Fprintf(f.Writer, "  [%s] %s\n", e.Code, e.Message)
		}
	}
	return NewExitError(ExitFailure, fmt.Sprintf("%d validation error(s)", len(errs)))
}
