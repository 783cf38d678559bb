package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/roach88/bayesq/internal/engine"
	"github.com/roach88/bayesq/internal/ir"
	"github.com/roach88/bayesq/internal/predicate"
)

// QueryOptions holds flags shared by the probability commands.
type QueryOptions struct {
	*RootOptions
	Source DataSource

	// Trace includes the evaluation trace in the output.
	Trace bool
}

// ProbabilityResult is the output of a single probability query.
type ProbabilityResult struct {
	Query       string              `json:"query"`
	Kind        string              `json:"kind"`
	Predicates  []string            `json:"predicates"`
	Probability string              `json:"probability"`
	Trace       []engine.TraceEvent `json:"trace,omitempty"`
}

// String renders the result for text output.
func (r ProbabilityResult) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s = %s", r.Query, r.Probability)
	for i, ev := range r.Trace {
		fmt.Fprintf(&b, "\n  [%d] %s", i+1, formatEvent(ev))
	}
	return b.String()
}

func formatEvent(ev engine.TraceEvent) string {
	switch ev.Type {
	case engine.EventPredicate:
		s := fmt.Sprintf("%s matched %d", ev.Predicate, ev.Matched)
		if ev.Cached {
			s += " (cached)"
		}
		return s
	case engine.EventIntersect:
		return fmt.Sprintf("condition %d: %s matched %d, %d rows remain", ev.Step, ev.Predicate, ev.Matched, ev.Remaining)
	case engine.EventShortCircuit:
		return fmt.Sprintf("condition %d emptied the set, skipped %d", ev.Step, ev.Skipped)
	default:
		return ev.Type
	}
}

// NewMarginalCommand creates the marginal command.
func NewMarginalCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{RootOptions: rootOpts}
	var where string

	cmd := &cobra.Command{
		Use:   "marginal",
		Short: "Fraction of rows satisfying a predicate",
		Long: `Compute P(A): rows satisfying the predicate over rows where its column
is not missing.

Examples:
  bayesq marginal --data players.csv --where "Age geq 22"
  bayesq marginal --db stats.db --table players --where 'Name eq "David"'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProbability(cmd, opts, predicate.QueryMarginal, []string{where})
		},
	}

	opts.Source.addFlags(cmd)
	cmd.Flags().StringVar(&where, "where", "", `predicate "COLUMN OP VALUE" (required)`)
	cmd.Flags().BoolVar(&opts.Trace, "trace", false, "include the evaluation trace")
	_ = cmd.MarkFlagRequired("where")

	return cmd
}

// NewJointCommand creates the joint command.
func NewJointCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{RootOptions: rootOpts}
	var where []string

	cmd := &cobra.Command{
		Use:   "joint",
		Short: "Fraction of all rows satisfying two predicates",
		Long: `Compute P(A and B) over all rows.

Example:
  bayesq joint --data players.csv --where "Name eq Bob" --where "Age leq 25"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(where) != 2 {
				return flagError(cmd, opts.RootOptions, fmt.Sprintf("joint takes exactly two --where predicates, got %d", len(where)))
			}
			return runProbability(cmd, opts, predicate.QueryJoint, where)
		},
	}

	opts.Source.addFlags(cmd)
	cmd.Flags().StringArrayVar(&where, "where", nil, "predicate (give twice)")
	cmd.Flags().BoolVar(&opts.Trace, "trace", false, "include the evaluation trace")

	return cmd
}

// NewConditionalCommand creates the conditional command.
func NewConditionalCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{RootOptions: rootOpts}
	var event string
	var given []string

	cmd := &cobra.Command{
		Use:   "conditional",
		Short: "Probability of an event given one or more conditions",
		Long: `Compute P(E | C1 and C2 ...). The conditions are intersected in order;
if no row satisfies them all the result is 0.

Example:
  bayesq conditional --data players.csv --event 'Name eq "David"' \
      --given "Age geq 22" --given "Age leq 27"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProbability(cmd, opts, predicate.QueryConditional, append([]string{event}, given...))
		},
	}

	opts.Source.addFlags(cmd)
	cmd.Flags().StringVar(&event, "event", "", "event predicate (required)")
	cmd.Flags().StringArrayVar(&given, "given", nil, "condition predicate (repeatable)")
	cmd.Flags().BoolVar(&opts.Trace, "trace", false, "include the evaluation trace")
	_ = cmd.MarkFlagRequired("event")

	return cmd
}

// NewBayesCommand creates the bayes command.
func NewBayesCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{RootOptions: rootOpts}
	var event, evidence string

	cmd := &cobra.Command{
		Use:   "bayes",
		Short: "Invert a conditional with Bayes' rule",
		Long: `Compute P(E | X) = P(X | E) * P(E) / P(X). Fails when the evidence
never occurs.

Example:
  bayesq bayes --data defense.csv --event "d_rank eq 4" --evidence "yards geq 170"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProbability(cmd, opts, predicate.QueryBayes, []string{event, evidence})
		},
	}

	opts.Source.addFlags(cmd)
	cmd.Flags().StringVar(&event, "event", "", "event predicate (required)")
	cmd.Flags().StringVar(&evidence, "evidence", "", "evidence predicate (required)")
	cmd.Flags().BoolVar(&opts.Trace, "trace", false, "include the evaluation trace")
	_ = cmd.MarkFlagRequired("event")
	_ = cmd.MarkFlagRequired("evidence")

	return cmd
}

// runProbability parses exprs, loads the dataset, and evaluates one query.
func runProbability(cmd *cobra.Command, opts *QueryOptions, kind predicate.QueryKind, exprs []string) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())
	cfg := opts.settings()

	raws := make([]predicate.Raw, len(exprs))
	for i, expr := range exprs {
		raw, err := predicate.ParseRaw(expr)
		if err != nil {
			return flagError(cmd, opts.RootOptions, err.Error())
		}
		raws[i] = raw
	}

	ctx := commandContext(cmd)
	ds, err := opts.Source.load(ctx, cfg)
	if err != nil {
		_ = formatter.Error(ErrCodeDatasetLoad, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to load dataset", err)
	}
	formatter.VerboseLog("dataset %s: %d rows, columns %s", ds.ID(), ds.RowCount(), strings.Join(ds.Schema().Names(), ", "))

	rq := predicate.RawQuery{Name: string(kind), Kind: string(kind), Predicates: raws}
	q, err := rq.Bind(ds.Schema())
	if err != nil {
		return evaluationError(formatter, err)
	}

	logger := opts.logger(formatter.GetErrWriter()).With("trace_id", formatter.TraceID)
	rec := engine.NewRecorder()
	tracers := []engine.Tracer{engine.NewSlogTracer(logger)}
	if opts.Trace {
		tracers = append(tracers, rec)
	}
	engOpts := []engine.Option{engine.WithTracer(engine.Tee(tracers...))}
	var cache *engine.Cache
	if cfg.Cache {
		cache = engine.NewCache()
		engOpts = append(engOpts, engine.WithCache(cache))
	}

	p, err := engine.New(engOpts...).Run(ds, q)
	if cache != nil {
		stats := cache.Stats()
		logger.Debug("predicate cache", "hits", stats.Hits, "misses", stats.Misses, "entries", stats.Entries)
	}
	if err != nil {
		return evaluationError(formatter, err)
	}

	result := ProbabilityResult{
		Query:       renderQuery(q),
		Kind:        string(q.Kind),
		Predicates:  predicateStrings(q.Predicates),
		Probability: formatProbability(p, cfg.Precision),
	}
	if opts.Trace {
		result.Trace = rec.Events()
	}
	return formatter.Success(result)
}

// renderQuery writes q in probability notation, e.g. P(A | B, C).
func renderQuery(q predicate.Query) string {
	preds := predicateStrings(q.Predicates)
	switch q.Kind {
	case predicate.QueryConditional, predicate.QueryBayes:
		return fmt.Sprintf("P(%s | %s)", preds[0], strings.Join(preds[1:], ", "))
	default:
		return fmt.Sprintf("P(%s)", strings.Join(preds, ", "))
	}
}

func predicateStrings(preds []predicate.Predicate) []string {
	out := make([]string, len(preds))
	for i, p := range preds {
		out[i] = p.String()
	}
	return out
}

func formatProbability(p float64, precision int) string {
	return decimal.NewFromFloat(p).StringFixed(int32(precision))
}

// evaluationError reports a binding or evaluation failure. Domain errors
// carry their code and column in the details.
func evaluationError(formatter *OutputFormatter, err error) error {
	var details map[string]string
	var domainErr *ir.Error
	if errors.As(err, &domainErr) {
		details = map[string]string{"code": string(domainErr.Code)}
		if domainErr.Column != "" {
			details["column"] = domainErr.Column
		}
		for k, v := range domainErr.Details {
			details[k] = v
		}
	}
	_ = formatter.Error(ErrCodeEvaluation, err.Error(), details)
	return WrapExitError(ExitFailure, "evaluation failed", err)
}

// flagError reports invalid flag values or predicate text.
func flagError(cmd *cobra.Command, opts *RootOptions, message string) error {
	formatter := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
	_ = formatter.Error(ErrCodeBadFlag, message, nil)
	return NewExitError(ExitCommandError, message)
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
