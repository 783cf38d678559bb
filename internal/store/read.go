package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/bayesq/internal/dataset"
	"github.com/roach88/bayesq/internal/ir"
	"github.com/roach88/bayesq/internal/querysql"
)

// TableInfo describes an imported dataset.
type TableInfo struct {
	Name       string    `json:"name"`
	Schema     ir.Schema `json:"columns"`
	RowCount   int       `json:"row_count"`
	ImportID   string    `json:"import_id"`
	Digest     string    `json:"digest"`
	ImportedAt string    `json:"imported_at"`
}

// Tables lists every imported dataset ordered by name.
// Returns an empty slice (not nil) when the store is empty.
func (s *Store) Tables(ctx context.Context) ([]TableInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, columns, row_count, import_id, digest, imported_at
		FROM datasets
		ORDER BY name COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query datasets: %w", err)
	}
	defer rows.Close()

	infos := []TableInfo{}
	for rows.Next() {
		info, err := scanTableInfo(rows)
		if err != nil {
			return nil, err
		}
		infos = append(infos, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate datasets: %w", err)
	}
	return infos, nil
}

// Describe returns the metadata of one dataset.
// Returns ErrDatasetNotFound when it does not exist.
func (s *Store) Describe(ctx context.Context, name string) (TableInfo, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT name, columns, row_count, import_id, digest, imported_at
		FROM datasets
		WHERE name = ?
	`, name)

	info, err := scanTableInfo(row)
	if errors.Is(err, sql.ErrNoRows) {
		return TableInfo{}, fmt.Errorf("describe %s: %w", name, ErrDatasetNotFound)
	}
	if err != nil {
		return TableInfo{}, fmt.Errorf("describe %s: %w", name, err)
	}
	return info, nil
}

// Read loads a dataset into an in-memory table. Row identifiers match the
// stored _row values.
func (s *Store) Read(ctx context.Context, name string) (*dataset.Table, error) {
	info, err := s.Describe(ctx, name)
	if err != nil {
		return nil, err
	}

	query, _, err := querysql.NewSQLCompiler().CompileSelect(dataTable(name), info.Schema.Names())
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	defer rows.Close()

	columns := make(map[string][]ir.Value, len(info.Schema))
	for _, col := range info.Schema {
		columns[col.Name] = make([]ir.Value, 0, info.RowCount)
	}

	dest := make([]any, len(info.Schema)+1)
	n := 0
	for rows.Next() {
		var rowID int64
		dest[0] = &rowID
		for i, col := range info.Schema {
			dest[i+1] = cellScanner(col.Kind)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("read %s: scan: %w", name, err)
		}
		if rowID != int64(n) {
			return nil, fmt.Errorf("read %s: row identifiers not contiguous at %d", name, rowID)
		}
		for i, col := range info.Schema {
			columns[col.Name] = append(columns[col.Name], scannedCell(dest[i+1]))
		}
		n++
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	if n != info.RowCount {
		return nil, fmt.Errorf("read %s: found %d rows, metadata records %d", name, n, info.RowCount)
	}

	return dataset.NewTable(info.Schema, columns)
}

// rowScanner abstracts *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanTableInfo(row rowScanner) (TableInfo, error) {
	var info TableInfo
	var columnsJSON string
	if err := row.Scan(&info.Name, &columnsJSON, &info.RowCount, &info.ImportID, &info.Digest, &info.ImportedAt); err != nil {
		return TableInfo{}, err
	}

	schema, err := unmarshalSchema(columnsJSON)
	if err != nil {
		return TableInfo{}, err
	}
	info.Schema = schema
	return info, nil
}
