package engine

import (
	"fmt"

	"github.com/roach88/bayesq/internal/dataset"
	"github.com/roach88/bayesq/internal/ir"
	"github.com/roach88/bayesq/internal/predicate"
)

// overshoot absorbs floating error that pushes an exact 1 slightly above it.
const overshoot = 1e-12

// Bayes returns P(event | evidence) = P(evidence | event) · P(event) / P(evidence).
//
// All three terms are taken over one population: the rows where both the
// event column and the evidence column are present. Every term shares a
// denominator, so the result stays in [0, 1] on sparse data.
//
// Both predicates are validated first. P(evidence) is then computed; when
// it is exactly zero Bayes fails with DIVISION_BY_ZERO: a query whose
// evidence never occurs is ill-posed, which is different from the defined
// zero of Conditional. An empty population fails with EMPTY_DENOMINATOR.
func (e *Engine) Bayes(ds dataset.Dataset, event, evidence predicate.Predicate) (float64, error) {
	if ds == nil {
		return 0, ErrNilDataset
	}
	if err := predicate.ValidateAll([]predicate.Predicate{event, evidence}, ds.Schema()); err != nil {
		return 0, err
	}

	population, err := bayesPopulation(ds, event.Column, evidence.Column)
	if err != nil {
		return 0, err
	}

	pEvidence, err := e.marginalWithin(ds, population, evidence)
	if err != nil {
		return 0, fmt.Errorf("evidence probability: %w", err)
	}
	if pEvidence == 0 {
		return 0, ir.NewDivisionByZeroError(evidence.String())
	}

	likelihood, err := e.likelihoodWithin(ds, population, evidence, event)
	if err != nil {
		return 0, fmt.Errorf("likelihood: %w", err)
	}

	prior, err := e.marginalWithin(ds, population, event)
	if err != nil {
		return 0, fmt.Errorf("prior: %w", err)
	}

	posterior := likelihood * prior / pEvidence
	if posterior > 1 && posterior-1 < overshoot {
		posterior = 1
	}
	return posterior, nil
}

// bayesPopulation returns the rows where both columns are present.
func bayesPopulation(ds dataset.Dataset, eventColumn, evidenceColumn string) (ir.RowSet, error) {
	evidencePresent, err := presentRows(ds, evidenceColumn)
	if err != nil {
		return ir.RowSet{}, err
	}
	if evidencePresent.IsEmpty() {
		return ir.RowSet{}, fmt.Errorf("evidence probability: %w", ir.NewEmptyDenominatorError(evidenceColumn))
	}

	eventPresent, err := presentRows(ds, eventColumn)
	if err != nil {
		return ir.RowSet{}, err
	}
	if eventPresent.IsEmpty() {
		return ir.RowSet{}, fmt.Errorf("prior: %w", ir.NewEmptyDenominatorError(eventColumn))
	}

	rows := evidencePresent.Intersect(eventPresent)
	if rows.IsEmpty() {
		return ir.RowSet{}, fmt.Errorf("no row has both %s and %s present: %w",
			evidenceColumn, eventColumn, ir.NewEmptyDenominatorError(eventColumn))
	}
	return rows, nil
}

// marginalWithin returns |p ∩ pop| / |pop|. pop is never empty.
func (e *Engine) marginalWithin(ds dataset.Dataset, pop ir.RowSet, p predicate.Predicate) (float64, error) {
	rows, err := e.Evaluate(ds, p)
	if err != nil {
		return 0, err
	}
	return float64(rows.Intersect(pop).Len()) / float64(pop.Len()), nil
}

// likelihoodWithin returns P(target | given) restricted to pop. An empty
// conditioning set yields 0, as in Conditional.
func (e *Engine) likelihoodWithin(ds dataset.Dataset, pop ir.RowSet, target, given predicate.Predicate) (float64, error) {
	givenRows, err := e.Evaluate(ds, given)
	if err != nil {
		return 0, err
	}
	space := givenRows.Intersect(pop)
	e.tracer.ConditionIntersected(1, given, givenRows.Len(), space.Len())
	if space.IsEmpty() {
		return 0, nil
	}

	targetRows, err := e.Evaluate(ds, target)
	if err != nil {
		return 0, err
	}
	return float64(space.Intersect(targetRows).Len()) / float64(space.Len()), nil
}
