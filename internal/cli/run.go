package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/u-ask/uask-dom-sub000/internal/compiler"
	"github.com/u-ask/uask-dom-sub000/internal/engine"
	"github.com/u-ask/uask-dom-sub000/internal/harness"
	"github.com/u-ask/uask-dom-sub000/internal/ir"
	"github.com/u-ask/uask-dom-sub000/internal/store"
	"github.com/u-ask/uask-dom-sub000/internal/survey"
)

// ExecOptions holds the flags shared by run and trace.
type ExecOptions struct {
	*RootOptions
	Participant string   // participant YAML file
	Start       string   // first interview executed
	Today       string   // yyyy-mm-dd; empty is the current day
	Init        []string // initialization filter items
	DB          string   // SQLite file backing the cache and run log
}

func (o *ExecOptions) bind(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.Participant, "participant", "p", "", "participant YAML file (required)")
	cmd.Flags().StringVar(&o.Start, "start", "", "id of the first interview to execute")
	cmd.Flags().StringVar(&o.Today, "today", "", "current day as yyyy-mm-dd (default: now)")
	cmd.Flags().StringSliceVar(&o.Init, "init", nil, "run the initialization filter on these items")
	cmd.Flags().StringVar(&o.DB, "db", "", "SQLite file caching executions and recording runs")
	_ = cmd.MarkFlagRequired("participant")
}

// execution is a participant history after its rules ran.
type execution struct {
	survey      *compiler.Survey
	participant survey.Participant
	trace       []engine.Firing
	run         *store.Run // set when recorded with --db
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExecOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <survey-dir>",
		Short: "Run survey rules over a participant",
		Long: `Run the survey rules over a participant history and print the
resulting interviews.

Interviews before --start keep their values. With --init only
initialization rules on the listed items run, plus always rules.

Examples:
  uask run ./survey --participant p001.yaml
  uask run ./survey -p p001.yaml --start v2 --today 2025-03-01
  uask run ./survey -p p001.yaml --init CENTRE --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParticipant(opts, args[0], cmd)
		},
	}
	opts.bind(cmd)

	return cmd
}

func runParticipant(opts *ExecOptions, dir string, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd)

	x, err := execute(f, opts, dir)
	if err != nil {
		return err
	}

	if f.JSON() {
		data := participantData(x.participant)
		if x.run != nil {
			data["run"] = ir.String(x.run.ID)
		}
		return f.Success(data)
	}

	fmt.Fprintf(f.Writer, "✓ Participant %s: %d interview(s), %d firing(s)\n",
		x.participant.Code, len(x.participant.Interviews), len(x.trace))
	if x.run != nil {
		fmt.Fprintf(f.Writer, "  run: %s\n", x.run.ID)
	}
	fmt.Fprintln(f.Writer)
	for _, iv := range x.participant.Interviews {
		printInterview(f, iv)
	}
	return nil
}

// execute loads the survey and participant and runs the rules.
func execute(f *OutputFormatter, opts *ExecOptions, dir string) (*execution, error) {
	today := time.Now()
	if opts.Today != "" {
		t, err := time.Parse(time.DateOnly, opts.Today)
		if err != nil {
			return nil, commandError(f, ErrCodeInput, fmt.Sprintf("invalid --today %q: expected yyyy-mm-dd", opts.Today))
		}
		today = t
	}

	s, err := loadCompiled(f, dir)
	if err != nil {
		return nil, err
	}

	pf, err := harness.LoadParticipant(opts.Participant)
	if err != nil {
		return nil, commandError(f, ErrCodeInput, err.Error())
	}
	p, err := pf.Build(s, nil)
	if err != nil {
		return nil, commandError(f, ErrCodeInput, err.Error())
	}
	f.VerboseLog("Participant %s: %d interview(s)", p.Code, len(p.Interviews))

	x := harness.Execution{
		Survey:      s,
		Participant: p,
		Today:       today,
		Start:       opts.Start,
		Initialize:  opts.Init,
		Logger:      f.Logger(),
	}
	if opts.DB == "" {
		out, trace, err := harness.Execute(x)
		if err != nil {
			return nil, commandError(f, ErrCodeInput, err.Error())
		}
		return &execution{survey: s, participant: out, trace: trace}, nil
	}

	st, err := store.Open(opts.DB)
	if err != nil {
		return nil, commandError(f, ErrCodeWriteFailed, err.Error())
	}
	defer st.Close()

	x.Cache = store.NewCache(st, store.Catalog{Registry: s.Registry, PageSets: s.PageSets}, f.Logger())
	out, trace, err := harness.Execute(x)
	if err != nil {
		return nil, commandError(f, ErrCodeInput, err.Error())
	}
	run, err := recordRun(st, s, out.Code, trace)
	if err != nil {
		return nil, commandError(f, ErrCodeWriteFailed, err.Error())
	}
	f.VerboseLog("Recorded run %s (seq %d)", run.ID, run.Seq)
	return &execution{survey: s, participant: out, trace: trace, run: &run}, nil
}

func recordRun(st *store.Store, s *compiler.Survey, participant string, trace []engine.Firing) (store.Run, error) {
	hash, err := engine.RuleSetFingerprint(s.Rules)
	if err != nil {
		return store.Run{}, err
	}
	run := store.Run{
		ID:          survey.UUIDv7Generator{}.Generate(),
		Participant: participant,
		RulesHash:   hash,
	}
	return st.WriteRun(context.Background(), run, trace)
}

func participantData(p survey.Participant) ir.Object {
	interviews := make(ir.Array, len(p.Interviews))
	for i, iv := range p.Interviews {
		interviews[i] = iv.Snapshot()
	}
	return ir.Object{
		"participant": ir.String(p.Code),
		"sample":      ir.String(p.SampleCode),
		"interviews":  interviews,
	}
}

func printInterview(f *OutputFormatter, iv survey.Interview) {
	w := f.Writer
	fmt.Fprintf(w, "%s (%s): %s\n", iv.ID, iv.Type(), iv.Status())
	for _, item := range iv.Items {
		fmt.Fprintf(w, "  %-12s %s", item.Key(), describeItem(item))
		for _, name := range item.Messages.Pending() {
			text, _ := item.Messages.Get(name)
			fmt.Fprintf(w, "  ! %s: %s", name, text)
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintln(w)
}

func describeItem(item survey.InterviewItem) string {
	switch {
	case item.Special != survey.SpecialNone:
		return "<" + string(item.Special) + ">"
	case item.Value == nil:
		return "-"
	case item.Unit != "":
		return ir.Format(item.Value) + " " + item.Unit
	default:
		return ir.Format(item.Value)
	}
}
