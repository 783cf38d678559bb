package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/bayesq/internal/store"
)

// TablesOptions holds flags for the tables command.
type TablesOptions struct {
	*RootOptions
	DB   string
	Drop string
}

// TablesResult lists the datasets of a database.
type TablesResult struct {
	Tables []store.TableInfo `json:"tables"`
}

// String renders one line per dataset.
func (r TablesResult) String() string {
	if len(r.Tables) == 0 {
		return "No tables."
	}
	var b strings.Builder
	for i, info := range r.Tables {
		if i > 0 {
			b.WriteByte('\n')
		}
		cols := make([]string, len(info.Schema))
		for j, col := range info.Schema {
			cols[j] = col.Name + ":" + col.Kind.String()
		}
		fmt.Fprintf(&b, "%s\t%d rows\t%s\t%s", info.Name, info.RowCount, strings.Join(cols, ", "), shortDigest(info.Digest))
	}
	return b.String()
}

// DropResult reports a removed dataset.
type DropResult struct {
	Dropped string `json:"dropped"`
}

func (r DropResult) String() string {
	return fmt.Sprintf("✓ dropped %s", r.Dropped)
}

func shortDigest(d string) string {
	if len(d) > 12 {
		return d[:12]
	}
	return d
}

// NewTablesCommand creates the tables command.
func NewTablesCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TablesOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "tables",
		Short: "List or drop the datasets stored in a SQLite database",
		Long: `List every imported dataset with its row count, typed columns, and
content digest. With --drop, remove one dataset instead.

Example:
  bayesq tables --db stats.db
  bayesq tables --db stats.db --drop players`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTables(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.DB, "db", "", "SQLite database path (required)")
	cmd.Flags().StringVar(&opts.Drop, "drop", "", "dataset name to remove")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runTables(opts *TablesOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())
	logger := opts.logger(formatter.GetErrWriter()).With("trace_id", formatter.TraceID)

	if _, err := os.Stat(opts.DB); err != nil {
		_ = formatter.Error(ErrCodeNotFound, fmt.Sprintf("database not found: %s", opts.DB), nil)
		return NewExitError(ExitCommandError, fmt.Sprintf("database not found: %s", opts.DB))
	}

	st, err := store.Open(opts.DB)
	if err != nil {
		_ = formatter.Error(ErrCodeNotFound, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			logger.Error("error closing database", "error", closeErr)
		}
	}()

	ctx := commandContext(cmd)
	if opts.Drop != "" {
		if err := st.Drop(ctx, opts.Drop); err != nil {
			if errors.Is(err, store.ErrDatasetNotFound) {
				_ = formatter.Error(ErrCodeNotFound, err.Error(), map[string]string{"table": opts.Drop})
				return WrapExitError(ExitCommandError, "failed to drop dataset", err)
			}
			_ = formatter.Error(ErrCodeWriteFailed, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to drop dataset", err)
		}
		logger.Debug("dataset dropped", "table", opts.Drop)
		return formatter.Success(DropResult{Dropped: opts.Drop})
	}

	tables, err := st.Tables(ctx)
	if err != nil {
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitFailure, "failed to list datasets", err)
	}
	return formatter.Success(TablesResult{Tables: tables})
}
