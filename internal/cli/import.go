package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/bayesq/internal/dataset"
	"github.com/roach88/bayesq/internal/store"
)

// ImportOptions holds flags for the import command.
type ImportOptions struct {
	*RootOptions
	Data  string
	DB    string
	Table string
}

// ImportResult describes an imported dataset.
type ImportResult struct {
	Table    string   `json:"table"`
	ImportID string   `json:"import_id"`
	Digest   string   `json:"digest"`
	Rows     int      `json:"rows"`
	Columns  []string `json:"columns"`
}

// String renders the result for text output.
func (r ImportResult) String() string {
	return fmt.Sprintf("✓ imported %d rows into %s (%s)\n  import %s\n  digest %s",
		r.Rows, r.Table, strings.Join(r.Columns, ", "), r.ImportID, r.Digest)
}

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ImportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Load a dataset file into a SQLite database",
		Long: `Read a CSV, TSV, YAML, or JSON dataset and store it as a named table
in a SQLite database. Importing under an existing name replaces it.

Query commands read imported tables with --db and --table.

Example:
  bayesq import --data players.csv --db stats.db --table players`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Data, "data", "", "dataset file (required)")
	cmd.Flags().StringVar(&opts.DB, "db", "", "SQLite database path, created if missing (required)")
	cmd.Flags().StringVar(&opts.Table, "table", "", "dataset name (required)")
	_ = cmd.MarkFlagRequired("data")
	_ = cmd.MarkFlagRequired("db")
	_ = cmd.MarkFlagRequired("table")

	return cmd
}

func runImport(opts *ImportOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())
	logger := opts.logger(formatter.GetErrWriter()).With("trace_id", formatter.TraceID)

	if err := store.ValidateName(opts.Table); err != nil {
		return flagError(cmd, opts.RootOptions, err.Error())
	}

	ds, err := dataset.Load(opts.Data, dataset.Options{MissingTokens: opts.settings().MissingTokens})
	if err != nil {
		_ = formatter.Error(ErrCodeDatasetLoad, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to load dataset", err)
	}
	logger.Debug("dataset loaded", "path", opts.Data, "rows", ds.RowCount(), "columns", len(ds.Schema()))

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

	importID, err := st.Import(commandContext(cmd), opts.Table, ds)
	if err != nil {
		_ = formatter.Error(ErrCodeWriteFailed, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to import dataset", err)
	}
	info, err := st.Describe(commandContext(cmd), opts.Table)
	if err != nil {
		_ = formatter.Error(ErrCodeWriteFailed, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to read back import", err)
	}
	logger.Debug("dataset imported", "table", opts.Table, "import_id", importID, "digest", info.Digest)

	return formatter.Success(ImportResult{
		Table:    opts.Table,
		ImportID: importID,
		Digest:   info.Digest,
		Rows:     ds.RowCount(),
		Columns:  ds.Schema().Names(),
	})
}
