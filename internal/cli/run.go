package cli

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/bayesq/internal/engine"
	"github.com/roach88/bayesq/internal/ir"
	"github.com/roach88/bayesq/internal/predicate"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Source DataSource
}

// QueryOutcome is the result of one query in a batch.
type QueryOutcome struct {
	Name        string `json:"name"`
	Kind        string `json:"kind"`
	Query       string `json:"query,omitempty"`
	Probability string `json:"probability,omitempty"`
	Code        string `json:"code,omitempty"`
	Error       string `json:"error,omitempty"`
}

// BatchOutput is the output of the run command.
type BatchOutput struct {
	Queries   []QueryOutcome `json:"queries"`
	Succeeded int            `json:"succeeded"`
	Failed    int            `json:"failed"`
}

// String renders the batch as one line per query.
func (b BatchOutput) String() string {
	var sb strings.Builder
	for _, q := range b.Queries {
		if q.Error != "" {
			fmt.Fprintf(&sb, "✗ %s: %s\n", q.Name, q.Error)
			continue
		}
		fmt.Fprintf(&sb, "%s: %s = %s\n", q.Name, q.Query, q.Probability)
	}
	fmt.Fprintf(&sb, "\n%d succeeded, %d failed", b.Succeeded, b.Failed)
	return sb.String()
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <queries-dir>",
		Short: "Evaluate every query in a CUE query directory",
		Long: `Compile the CUE query files in a directory and evaluate all queries
concurrently against one dataset.

The dataset comes from --data or --db/--table, or else from the top-level
dataset field of the query files (relative to the directory).

Exit codes:
  0 - All queries evaluated
  1 - One or more queries failed
  2 - Command error (invalid paths, no dataset, etc.)

Example:
  bayesq run ./queries --data defense.csv
  bayesq run ./queries --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQueries(opts, args[0], cmd)
		},
	}

	opts.Source.addFlags(cmd)

	return cmd
}

func runQueries(opts *RunOptions, dir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())
	cfg := opts.settings()
	logger := opts.logger(formatter.GetErrWriter()).With("trace_id", formatter.TraceID)

	loaded, loadErrs := LoadQueries(dir, LoadModeFailFast)
	if len(loadErrs) > 0 {
		code, msg := ErrCodeGeneric, loadErrs[0].Error()
		var loadErr *LoadError
		if errors.As(loadErrs[0], &loadErr) {
			code = loadErr.Code
		}
		_ = formatter.Error(code, msg, nil)
		return WrapExitError(ExitCommandError, "failed to load queries", loadErrs[0])
	}
	logger.Debug("queries loaded", "dir", dir, "files", loaded.FileCount, "queries", len(loaded.Queries))

	source := opts.Source
	if source.empty() {
		source.Data = loaded.Dataset
	}

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ds, err := source.load(ctx, cfg)
	if err != nil {
		_ = formatter.Error(ErrCodeDatasetLoad, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to load dataset", err)
	}

	// Queries that fail to bind are reported without being evaluated.
	outcomes := make([]QueryOutcome, len(loaded.Queries))
	var bound []predicate.Query
	var slots []int
	for i, rq := range loaded.Queries {
		outcomes[i] = QueryOutcome{Name: rq.Name, Kind: rq.Kind}
		q, err := rq.Bind(ds.Schema())
		if err != nil {
			outcomes[i].Code, outcomes[i].Error = errorCode(err), err.Error()
			continue
		}
		outcomes[i].Query = renderQuery(q)
		bound = append(bound, q)
		slots = append(slots, i)
	}

	engOpts := []engine.Option{
		engine.WithTracer(engine.NewSlogTracer(logger)),
		engine.WithParallelism(cfg.Parallelism),
	}
	if cfg.Cache {
		engOpts = append(engOpts, engine.WithCache(engine.NewCache()))
	}

	results, err := engine.New(engOpts...).RunBatch(ctx, ds, bound)
	if err != nil {
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "batch interrupted", err)
	}

	for j, r := range results {
		out := &outcomes[slots[j]]
		if r.Err != nil {
			out.Code, out.Error = errorCode(r.Err), r.Err.Error()
			continue
		}
		out.Probability = formatProbability(r.Probability, cfg.Precision)
	}

	output := BatchOutput{Queries: outcomes}
	for _, o := range outcomes {
		if o.Error != "" {
			output.Failed++
		} else {
			output.Succeeded++
		}
	}

	if err := formatter.Success(output); err != nil {
		return err
	}
	if output.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d query(ies) failed", output.Failed))
	}
	return nil
}

// errorCode returns the domain code of err, or the generic CLI code.
func errorCode(err error) string {
	if code := ir.CodeOf(err); code != "" {
		return string(code)
	}
	return ErrCodeGeneric
}
