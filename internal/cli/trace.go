package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/u-ask/uask-dom-sub000/internal/compiler"
	"github.com/u-ask/uask-dom-sub000/internal/engine"
	"github.com/u-ask/uask-dom-sub000/internal/rule"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	ExecOptions
	Rule      string // filter on rule name
	Interview string // filter on interview id
	Target    string // filter on rules targeting this item
	Changed   bool   // keep only firings that changed an item
}

// TraceStats summarizes a trace.
type TraceStats struct {
	Firings int `json:"firings"`
	Changed int `json:"changed"`
	Errors  int `json:"errors"`
	Passes  int `json:"passes"`
}

// TraceResult is the JSON payload of the trace command.
type TraceResult struct {
	Participant string          `json:"participant"`
	Firings     []engine.Firing `json:"firings"`
	Stats       TraceStats      `json:"stats"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{ExecOptions: ExecOptions{RootOptions: rootOpts}}

	cmd := &cobra.Command{
		Use:   "trace <survey-dir>",
		Short: "Show rule firings for a participant",
		Long: `Run the survey rules over a participant history and print every rule
firing in execution order.

Each line shows the sequence number, the pass, the interview, the rule
and its target. Rule failures are shown inline.

Examples:
  uask trace ./survey --participant p001.yaml
  uask trace ./survey -p p001.yaml --rule computed --changed
  uask trace ./survey -p p001.yaml --target IMC`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, args[0], cmd)
		},
	}
	opts.bind(cmd)
	cmd.Flags().StringVar(&opts.Rule, "rule", "", "only firings of this rule")
	cmd.Flags().StringVar(&opts.Interview, "interview", "", "only firings in this interview")
	cmd.Flags().BoolVar(&opts.Changed, "changed", false, "only firings that changed an item")
	cmd.Flags().StringVar(&opts.Target, "target", "", "only firings of rules targeting this item")

	return cmd
}

func runTrace(opts *TraceOptions, dir string, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd)

	x, err := execute(f, &opts.ExecOptions, dir)
	if err != nil {
		return err
	}

	var targeting func(engine.Firing) bool
	if opts.Target != "" {
		if targeting, err = targetFilter(x.survey, opts.Target); err != nil {
			return commandError(f, ErrCodeInput, err.Error())
		}
	}

	result := TraceResult{
		Participant: x.participant.Code,
		Firings:     filterFirings(x.trace, opts, targeting),
	}
	result.Stats = traceStats(result.Firings)

	if f.JSON() {
		return f.Success(result)
	}
	printTrace(f, result)
	return nil
}

// targetFilter keeps the firings of the rules whose local target is the
// item variable, on any of its instances.
func targetFilter(s *compiler.Survey, variable string) (func(engine.Firing) bool, error) {
	def, ok := s.Registry.Lookup(variable)
	if !ok {
		return nil, fmt.Errorf("unknown item %q", variable)
	}
	rules := rule.Targeting(s.Rules, def)
	if len(rules) == 0 {
		return nil, fmt.Errorf("no rule targets %q", variable)
	}
	names := make(map[string]bool, len(rules))
	for _, r := range rules {
		names[r.Name()] = true
	}
	return func(fr engine.Firing) bool {
		v, _, _ := strings.Cut(fr.Target, "[")
		return v == def.Variable && names[fr.Rule]
	}, nil
}

func filterFirings(trace []engine.Firing, opts *TraceOptions, keep func(engine.Firing) bool) []engine.Firing {
	out := []engine.Firing{}
	for _, fr := range trace {
		if keep != nil && !keep(fr) {
			continue
		}
		if opts.Rule != "" && fr.Rule != opts.Rule {
			continue
		}
		if opts.Interview != "" && fr.Interview != opts.Interview {
			continue
		}
		if opts.Changed && !fr.Changed {
			continue
		}
		out = append(out, fr)
	}
	return out
}

func traceStats(firings []engine.Firing) TraceStats {
	var stats TraceStats
	for _, fr := range firings {
		stats.Firings++
		if fr.Changed {
			stats.Changed++
		}
		if fr.Error != "" {
			stats.Errors++
		}
		stats.Passes = max(stats.Passes, fr.Pass)
	}
	return stats
}

func printTrace(f *OutputFormatter, result TraceResult) {
	w := f.Writer
	fmt.Fprintf(w, "Trace for participant: %s\n\n", result.Participant)
	if len(result.Firings) == 0 {
		fmt.Fprintln(w, "  (no firings)")
	}
	for _, fr := range result.Firings {
		mark := " "
		if fr.Changed {
			mark = "*"
		}
		fmt.Fprintf(w, "  [%d] %s pass %d %s %s -> %s", fr.Seq, mark, fr.Pass, fr.Interview, fr.Rule, fr.Target)
		if fr.Error != "" {
			fmt.Fprintf(w, " (error: %s)", fr.Error)
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Statistics:")
	fmt.Fprintf(w, "  Firings: %d\n", result.Stats.Firings)
	fmt.Fprintf(w, "  Changed: %d\n", result.Stats.Changed)
	fmt.Fprintf(w, "  Errors:  %d\n", result.Stats.Errors)
	fmt.Fprintf(w, "  Passes:  %d\n", result.Stats.Passes)
}
