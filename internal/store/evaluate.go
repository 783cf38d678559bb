package store

import (
	"context"
	"fmt"
	"math"

	"github.com/RoaringBitmap/roaring"

	"github.com/roach88/bayesq/internal/ir"
	"github.com/roach88/bayesq/internal/predicate"
	"github.com/roach88/bayesq/internal/querysql"
)

// Evaluate returns the rows of a stored dataset satisfying every predicate,
// computed in SQL. With one predicate the result equals engine.Evaluate
// on the dataset returned by Read.
//
// Predicates are validated against the stored schema first, so the error
// codes match the in-memory evaluator.
func (s *Store) Evaluate(ctx context.Context, name string, preds ...predicate.Predicate) (ir.RowSet, error) {
	info, err := s.Describe(ctx, name)
	if err != nil {
		return ir.RowSet{}, err
	}
	if err := predicate.ValidateAll(preds, info.Schema); err != nil {
		return ir.RowSet{}, err
	}

	query, params, err := querysql.NewSQLCompiler().Compile(dataTable(name), preds...)
	if err != nil {
		return ir.RowSet{}, fmt.Errorf("evaluate %s: %w", name, err)
	}

	rows, err := s.db.QueryContext(ctx, query, params...)
	if err != nil {
		return ir.RowSet{}, fmt.Errorf("evaluate %s: %w", name, err)
	}
	defer rows.Close()

	bm := roaring.New()
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return ir.RowSet{}, fmt.Errorf("evaluate %s: scan: %w", name, err)
		}
		if id < 0 || id > math.MaxUint32 {
			return ir.RowSet{}, fmt.Errorf("evaluate %s: row identifier %d out of range", name, id)
		}
		bm.Add(ir.RowID(id))
	}
	if err := rows.Err(); err != nil {
		return ir.RowSet{}, fmt.Errorf("evaluate %s: %w", name, err)
	}

	return ir.RowSetFromBitmap(bm), nil
}

// Marginal computes the marginal probability of p entirely in SQL:
// matching rows over non-missing rows of p.Column. Fails with
// EMPTY_DENOMINATOR when the column has no non-missing rows.
func (s *Store) Marginal(ctx context.Context, name string, p predicate.Predicate) (float64, error) {
	info, err := s.Describe(ctx, name)
	if err != nil {
		return 0, err
	}
	if err := predicate.Validate(p, info.Schema); err != nil {
		return 0, err
	}

	compiler := querysql.NewSQLCompiler()
	table := dataTable(name)

	eligibleSQL, err := compiler.CompileEligible(table, p.Column)
	if err != nil {
		return 0, fmt.Errorf("marginal %s: %w", name, err)
	}
	var eligible int
	if err := s.db.QueryRowContext(ctx, eligibleSQL).Scan(&eligible); err != nil {
		return 0, fmt.Errorf("marginal %s: %w", name, err)
	}
	if eligible == 0 {
		return 0, ir.NewEmptyDenominatorError(p.Column)
	}

	countSQL, params, err := compiler.CompileCount(table, p)
	if err != nil {
		return 0, fmt.Errorf("marginal %s: %w", name, err)
	}
	var matched int
	if err := s.db.QueryRowContext(ctx, countSQL, params...).Scan(&matched); err != nil {
		return 0, fmt.Errorf("marginal %s: %w", name, err)
	}

	return float64(matched) / float64(eligible), nil
}
