package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/u-ask/uask-dom-sub000/internal/compiler"
	"github.com/u-ask/uask-dom-sub000/internal/rule"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output string // output file path
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <survey-dir>",
		Short: "Compile a CUE survey",
		Long: `Compile a CUE survey definition and print its summary: items, page
sets, rules in definition order and workflows.

With --output the summary is also written as indented JSON.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file path")

	return cmd
}

func runCompile(opts *CompileOptions, dir string, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd)

	result, errs := LoadSurvey(dir, rule.NewLibrary(), LoadModeCollectAll)
	if result == nil || result.Definition == nil {
		code, msg := describeError(errs[0])
		return commandError(f, code, msg)
	}
	f.VerboseLog("Found %d CUE file(s) in %s", result.FileCount, dir)
	if len(errs) > 0 {
		return outputValidationErrors(f, errs)
	}

	s := result.Survey
	summary := s.Summary()
	if opts.Output != "" {
		data, err := json.MarshalIndent(summary, "", "  ")
		if err != nil {
			return commandError(f, ErrCodeWriteFailed, fmt.Sprintf("encoding summary: %v", err))
		}
		if err := os.WriteFile(opts.Output, append(data, '\n'), 0o644); err != nil {
			return commandError(f, ErrCodeWriteFailed, fmt.Sprintf("writing output file: %v", err))
		}
	}

	if f.JSON() {
		return f.Success(summary)
	}
	printSurvey(f, s)
	if opts.Output != "" {
		fmt.Fprintf(f.Writer, "Wrote summary to %s\n", opts.Output)
	}
	return nil
}

func printSurvey(f *OutputFormatter, s *compiler.Survey) {
	w := f.Writer
	fmt.Fprintf(w, "✓ Compiled survey %s: %d item(s), %d page set(s), %d rule(s), %d workflow(s)\n\n",
		s.Name, len(s.Registry.Items()), len(s.PageSets), len(s.Rules), len(s.Workflows))

	if len(s.PageSets) > 0 {
		fmt.Fprintln(w, "Page sets:")
		for _, ps := range s.PageSets {
			fmt.Fprintf(w, "  %s: %d item(s)\n", ps.Type, len(ps.Items))
		}
		fmt.Fprintln(w)
	}

	if len(s.Rules) > 0 {
		fmt.Fprintln(w, "Rules:")
		for _, r := range s.Rules {
			fmt.Fprintf(w, "  %s -> %s (%s)\n", r.Name(), r.Target(), r.When)
		}
		fmt.Fprintln(w)
	}

	if len(s.Workflows) > 0 {
		fmt.Fprintln(w, "Workflows:")
		for _, wf := range s.Workflows {
			fmt.Fprintf(w, "  %s\n", wf)
		}
	}
}
