package compiler

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/bayesq/internal/predicate"
)

// QueryFile is the compiled content of a query directory.
type QueryFile struct {
	// Dataset is the optional default dataset path declared in the files.
	Dataset string

	// Queries in label order.
	Queries []predicate.RawQuery
}

// CompileQueries extracts every query under the top-level "query" field.
// Errors are collected per query; a query that fails to compile is left
// out of the result.
//
//	dataset: "defense.csv"
//	query: rank4: {
//		kind: "bayes"
//		predicates: [
//			{column: "d_rank", op: "eq", value: 4},
//			"yards geq 170",
//		]
//	}
func CompileQueries(v cue.Value) (*QueryFile, []error) {
	if err := v.Err(); err != nil {
		return nil, []error{formatCUEError(err)}
	}

	file := &QueryFile{}
	var errs []error

	if dsVal := v.LookupPath(cue.ParsePath("dataset")); dsVal.Exists() {
		ds, err := dsVal.String()
		if err != nil {
			errs = append(errs, &CompileError{Field: "dataset", Message: "dataset must be a string path", Pos: dsVal.Pos()})
		} else {
			file.Dataset = ds
		}
	}

	queriesVal := v.LookupPath(cue.ParsePath("query"))
	if !queriesVal.Exists() {
		return file, errs
	}

	iter, err := queriesVal.Fields()
	if err != nil {
		return file, append(errs, formatCUEError(err))
	}
	for iter.Next() {
		rq, err := CompileQuery(iter.Value())
		if err != nil {
			errs = append(errs, err)
			continue
		}
		file.Queries = append(file.Queries, *rq)
	}

	return file, errs
}

// CompileQuery parses a CUE value into a RawQuery.
// The query name is the value's last path label.
//
// Binding against a dataset schema happens later, in RawQuery.Bind.
func CompileQuery(v cue.Value) (*predicate.RawQuery, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	rq := &predicate.RawQuery{}

	labels := v.Path().Selectors()
	if len(labels) > 0 {
		rq.Name = labels[len(labels)-1].String()
	}

	kindVal := v.LookupPath(cue.ParsePath("kind"))
	if !kindVal.Exists() {
		return nil, &CompileError{
			Field:   "kind",
			Message: fmt.Sprintf("query %s: kind is required", rq.Name),
			Pos:     v.Pos(),
		}
	}
	kind, err := kindVal.String()
	if err != nil {
		return nil, &CompileError{Field: "kind", Message: fmt.Sprintf("query %s: kind must be a string", rq.Name), Pos: kindVal.Pos()}
	}
	rq.Kind = kind

	predsVal := v.LookupPath(cue.ParsePath("predicates"))
	if !predsVal.Exists() {
		return nil, &CompileError{
			Field:   "predicates",
			Message: fmt.Sprintf("query %s: predicates are required", rq.Name),
			Pos:     v.Pos(),
		}
	}
	list, err := predsVal.List()
	if err != nil {
		return nil, &CompileError{Field: "predicates", Message: fmt.Sprintf("query %s: predicates must be a list", rq.Name), Pos: predsVal.Pos()}
	}
	for i := 0; list.Next(); i++ {
		raw, err := compilePredicate(list.Value())
		if err != nil {
			return nil, fmt.Errorf("query %s: predicates[%d]: %w", rq.Name, i, err)
		}
		rq.Predicates = append(rq.Predicates, raw)
	}

	return rq, nil
}

// compilePredicate parses one predicate, either a struct
// {column, op, value} or the textual form "COLUMN OP VALUE".
func compilePredicate(v cue.Value) (predicate.Raw, error) {
	if s, err := v.String(); err == nil {
		raw, err := predicate.ParseRaw(s)
		if err != nil {
			return predicate.Raw{}, &CompileError{Field: "predicate", Message: err.Error(), Pos: v.Pos()}
		}
		return raw, nil
	}

	var raw predicate.Raw
	for _, field := range []string{"column", "op"} {
		fv := v.LookupPath(cue.ParsePath(field))
		if !fv.Exists() {
			return predicate.Raw{}, &CompileError{Field: field, Message: field + " is required", Pos: v.Pos()}
		}
		s, err := fv.String()
		if err != nil {
			return predicate.Raw{}, &CompileError{Field: field, Message: field + " must be a string", Pos: fv.Pos()}
		}
		if field == "column" {
			raw.Column = s
		} else {
			raw.Op = s
		}
	}

	valueVal := v.LookupPath(cue.ParsePath("value"))
	if !valueVal.Exists() {
		return predicate.Raw{}, &CompileError{Field: "value", Message: "value is required", Pos: v.Pos()}
	}
	value, err := literal(valueVal)
	if err != nil {
		return predicate.Raw{}, err
	}
	raw.Value = value

	return raw, nil
}

// literal converts a concrete CUE scalar or list into the Go value
// predicate.Raw expects.
func literal(v cue.Value) (any, error) {
	switch v.IncompleteKind() {
	case cue.StringKind:
		s, err := v.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return s, nil
	case cue.IntKind, cue.FloatKind, cue.NumberKind:
		f, err := v.Float64()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return f, nil
	case cue.BoolKind:
		b, err := v.Bool()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return b, nil
	case cue.ListKind:
		iter, err := v.List()
		if err != nil {
			return nil, formatCUEError(err)
		}
		var items []any
		for iter.Next() {
			item, err := literal(iter.Value())
			if err != nil {
				return nil, err
			}
			items = append(items, item)
		}
		return items, nil
	default:
		return nil, &CompileError{
			Field:   "value",
			Message: fmt.Sprintf("value must be a string, number, bool, or list, got %s", v.IncompleteKind()),
			Pos:     v.Pos(),
		}
	}
}

// CompileError reports a query file problem with its CUE position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	// CUE errors may contain multiple errors
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	// Return first error with position info
	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
