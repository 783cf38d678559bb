// Package engine implements the predicate evaluator and the probability
// composer.
//
// ARCHITECTURE:
//
// Two layers, no hidden state:
//
//	[Dataset] → Evaluate(predicate) → RowSet → set arithmetic → probability
//
// The evaluator maps one predicate to the set of row identifiers that
// satisfy it. The composer builds marginal, joint, conditional, and
// Bayesian-inverted probabilities from those sets. Nothing mutates the
// dataset.
//
// Probability Definitions:
//
//	Marginal(A)          = |A| / non-missing rows of A's column
//	Joint(A, B)          = |A ∩ B| / all rows          (0 for an empty dataset)
//	Conditional(E; C...) = |E ∩ C| / |C|, C = ∩ Ci      (0 when |C| = 0)
//	Bayes(E, X)          = P(X|E) · P(E) / P(X)         (DIVISION_BY_ZERO when P(X) = 0)
//
// Bayes takes all three terms over the rows where both E's and X's
// columns are present, so sparse columns cannot push it above 1.
//
// The zero from Conditional is a deliberate "no evidence, no confidence"
// result returned with a nil error. The failures from Marginal
// (EMPTY_DENOMINATOR) and Bayes (DIVISION_BY_ZERO) are errors.
//
// CONCURRENCY:
//
// Every operation is a pure function of its inputs, so any number of
// calls may run against the same dataset snapshot without coordination.
// The optional Cache is safe for concurrent use. RunBatch fans queries out
// over a bounded errgroup.
//
// DIAGNOSTICS:
//
// There is no package-level logger. Callers inject a Tracer (SlogTracer,
// Recorder) to observe intermediate set sizes as conditions intersect.
package engine
