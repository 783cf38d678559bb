package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/bayesq/internal/config"
	"github.com/roach88/bayesq/internal/dataset"
	"github.com/roach88/bayesq/internal/store"
)

// DataSource selects where a command reads its dataset from: a file
// (--data) or a table in a SQLite database (--db with --table).
type DataSource struct {
	Data  string
	DB    string
	Table string
}

func (s *DataSource) addFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&s.Data, "data", "", "dataset file (.csv, .tsv, .yaml, .json)")
	cmd.Flags().StringVar(&s.DB, "db", "", "SQLite database written by the import command")
	cmd.Flags().StringVar(&s.Table, "table", "", "dataset name inside --db")
	cmd.MarkFlagsMutuallyExclusive("data", "db")
	cmd.MarkFlagsRequiredTogether("db", "table")
}

// empty reports whether no source flag was given.
func (s *DataSource) empty() bool {
	return s.Data == "" && s.DB == ""
}

// load reads the dataset. Missing-value tokens come from cfg.
func (s *DataSource) load(ctx context.Context, cfg *config.Config) (dataset.Dataset, error) {
	switch {
	case s.Data != "":
		opts := dataset.Options{MissingTokens: cfg.MissingTokens}
		return dataset.Load(s.Data, opts)

	case s.DB != "":
		if _, err := os.Stat(s.DB); err != nil {
			return nil, fmt.Errorf("database %s: %w", s.DB, err)
		}
		st, err := store.Open(s.DB)
		if err != nil {
			return nil, err
		}
		defer st.Close()
		return st.Read(ctx, s.Table)

	default:
		return nil, fmt.Errorf("no dataset: pass --data FILE or --db FILE --table NAME")
	}
}
