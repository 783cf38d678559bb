package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/roach88/bayesq/internal/dataset"
	"github.com/roach88/bayesq/internal/ir"
	"github.com/roach88/bayesq/internal/querysql"
)

// Import stores ds under name, replacing any dataset with the same name.
// The whole import runs in one transaction: readers see either the old
// dataset or the new one, never a partial import.
//
// Returns the import identifier (UUIDv7).
func (s *Store) Import(ctx context.Context, name string, ds dataset.Dataset) (string, error) {
	if err := ValidateName(name); err != nil {
		return "", err
	}
	if ds == nil {
		return "", fmt.Errorf("import %s: dataset is nil", name)
	}

	schema := ds.Schema()
	if err := checkColumnNames(schema); err != nil {
		return "", fmt.Errorf("import %s: %w", name, err)
	}

	columnsJSON, err := marshalSchema(schema)
	if err != nil {
		return "", fmt.Errorf("import %s: %w", name, err)
	}

	// Fetch every column up front so a bad dataset fails before the transaction
	cells := make([][]any, len(schema))
	columns := make(map[string][]ir.Value, len(schema))
	for i, col := range schema {
		values, err := ds.ValuesOf(col.Name)
		if err != nil {
			return "", fmt.Errorf("import %s: %w", name, err)
		}
		columns[col.Name] = values
		cells[i] = make([]any, len(values))
		for r, v := range values {
			cells[i][r] = cellParam(v)
		}
	}

	digest, err := ir.DatasetDigest(schema, columns)
	if err != nil {
		return "", fmt.Errorf("import %s: %w", name, err)
	}

	importID := uuid.Must(uuid.NewV7()).String()
	table := querysql.QuoteIdent(dataTable(name))

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("import %s: begin: %w", name, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+table); err != nil {
		return "", fmt.Errorf("import %s: drop: %w", name, err)
	}

	defs := []string{querysql.QuoteIdent(querysql.RowColumn) + " INTEGER PRIMARY KEY"}
	cols := []string{querysql.QuoteIdent(querysql.RowColumn)}
	for _, col := range schema {
		defs = append(defs, querysql.QuoteIdent(col.Name)+" "+sqlType(col.Kind))
		cols = append(cols, querysql.QuoteIdent(col.Name))
	}
	create := fmt.Sprintf("CREATE TABLE %s (%s)", table, strings.Join(defs, ", "))
	if _, err := tx.ExecContext(ctx, create); err != nil {
		return "", fmt.Errorf("import %s: create: %w", name, err)
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		table, strings.Join(cols, ", "), placeholders))
	if err != nil {
		return "", fmt.Errorf("import %s: prepare: %w", name, err)
	}
	defer stmt.Close()

	args := make([]any, len(cols))
	for r := 0; r < ds.RowCount(); r++ {
		args[0] = r
		for i := range schema {
			args[i+1] = cells[i][r]
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return "", fmt.Errorf("import %s: row %d: %w", name, r, err)
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO datasets (name, columns, row_count, import_id, digest)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			columns = excluded.columns,
			row_count = excluded.row_count,
			import_id = excluded.import_id,
			digest = excluded.digest,
			imported_at = strftime('%Y-%m-%dT%H:%M:%fZ', 'now')
	`, name, columnsJSON, ds.RowCount(), importID, digest)
	if err != nil {
		return "", fmt.Errorf("import %s: record metadata: %w", name, err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("import %s: commit: %w", name, err)
	}
	return importID, nil
}

// Drop removes a dataset. Returns ErrDatasetNotFound when it does not exist.
func (s *Store) Drop(ctx context.Context, name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("drop %s: begin: %w", name, err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, "DELETE FROM datasets WHERE name = ?", name)
	if err != nil {
		return fmt.Errorf("drop %s: %w", name, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("drop %s: %w", name, ErrDatasetNotFound)
	}
	if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+querysql.QuoteIdent(dataTable(name))); err != nil {
		return fmt.Errorf("drop %s: %w", name, err)
	}

	return tx.Commit()
}

// checkColumnNames rejects names SQLite would treat as the same column.
// SQLite folds ASCII case in identifiers, so Age and age collide.
func checkColumnNames(schema ir.Schema) error {
	seen := map[string]string{foldIdent(querysql.RowColumn): querysql.RowColumn}
	for _, col := range schema {
		key := foldIdent(col.Name)
		prev, ok := seen[key]
		switch {
		case ok && prev == querysql.RowColumn:
			return fmt.Errorf("column name %q is reserved", col.Name)
		case ok:
			return fmt.Errorf("columns %q and %q differ only in case", prev, col.Name)
		}
		seen[key] = col.Name
	}
	return nil
}

// foldIdent lowercases ASCII letters only, matching SQLite identifier rules.
func foldIdent(name string) string {
	return strings.Map(func(r rune) rune {
		if 'A' <= r && r <= 'Z' {
			return r + ('a' - 'A')
		}
		return r
	}, name)
}
