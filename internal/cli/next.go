package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/u-ask/uask-dom-sub000/internal/harness"
	"github.com/u-ask/uask-dom-sub000/internal/workflow"
)

// NextOptions holds flags for the next command.
type NextOptions struct {
	*RootOptions
	Workflow    string   // workflow name; empty is the main workflow
	Done        []string // interview types already done, in order
	Participant string   // participant YAML file giving the done types
}

// NextResult is the workflow suggestion for a participant history.
type NextResult struct {
	Workflow  string   `json:"workflow"`
	Done      []string `json:"done"`
	Next      string   `json:"next,omitempty"`
	Available []string `json:"available"`
}

// NewNextCommand creates the next command.
func NewNextCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &NextOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "next <survey-dir>",
		Short: "Suggest the next interview types",
		Long: `Print the interview type a workflow suggests after the given history,
and every type that may be started.

The history comes from --done or from the interviews of --participant.

Examples:
  uask next ./survey --done Home,Inclusion
  uask next ./survey --workflow investigator --participant p001.yaml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNext(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Workflow, "workflow", "w", "", "workflow name (default: main workflow)")
	cmd.Flags().StringSliceVar(&opts.Done, "done", nil, "interview types already done, in order")
	cmd.Flags().StringVarP(&opts.Participant, "participant", "p", "", "participant YAML file")
	cmd.MarkFlagsMutuallyExclusive("done", "participant")

	return cmd
}

func runNext(opts *NextOptions, dir string, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd)

	s, err := loadCompiled(f, dir)
	if err != nil {
		return err
	}

	var w *workflow.Workflow
	if opts.Workflow != "" {
		var ok bool
		if w, ok = s.Workflow(opts.Workflow); !ok {
			return commandError(f, ErrCodeInput, fmt.Sprintf("unknown workflow %q", opts.Workflow))
		}
	} else if w = s.MainWorkflow(); w == nil {
		return commandError(f, ErrCodeInput, "survey declares no workflow")
	}

	done := opts.Done
	if opts.Participant != "" {
		pf, err := harness.LoadParticipant(opts.Participant)
		if err != nil {
			return commandError(f, ErrCodeInput, err.Error())
		}
		done = make([]string, len(pf.Interviews))
		for i, iv := range pf.Interviews {
			done[i] = iv.Type
		}
	}
	for _, t := range done {
		if _, ok := s.PageSet(t); !ok {
			return commandError(f, ErrCodeInput, fmt.Sprintf("unknown interview type %q", t))
		}
	}

	result := NextResult{
		Workflow:  w.Name(),
		Done:      append([]string{}, done...),
		Next:      w.Next(done...),
		Available: append([]string{}, w.Available(done...)...),
	}

	if f.JSON() {
		return f.Success(result)
	}
	next := result.Next
	if next == "" {
		next = "(none)"
	}
	fmt.Fprintf(f.Writer, "✓ Workflow %s\n", result.Workflow)
	fmt.Fprintf(f.Writer, "  done:      %s\n", strings.Join(result.Done, ", "))
	fmt.Fprintf(f.Writer, "  next:      %s\n", next)
	fmt.Fprintf(f.Writer, "  available: %s\n", strings.Join(result.Available, ", "))
	return nil
}
