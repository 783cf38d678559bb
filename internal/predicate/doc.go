// Package predicate provides the declarative row conditions evaluated by
// the engine.
//
// A Predicate is a (column, operator, operand) triple. It is pure data,
// not a closure: the engine owns the comparison semantics and the
// predicate only describes what to compare.
//
// CLOSED OPERATOR SET:
//
// Operator is a closed enum. Six operators exist:
//
//	Token     Name               Semantics
//	-----     ----               ---------
//	geq       greater-or-equal   cell >= value
//	g         greater-than       cell >  value
//	eq        equal              cell == value
//	l         less-than          cell <  value
//	leq       less-or-equal      cell <= value
//	in_range  in-range           lower <= cell <= upper
//
// Anything else fails with INVALID_OPERATOR. The zero Operator is
// OpInvalid so an uninitialized predicate can never evaluate.
//
// SEALED OPERANDS:
//
// Operand is a sealed interface using the marker method pattern. Only
// Scalar and Bounds implement it. The constructors make illegal shapes
// unrepresentable:
//
//	GreaterOrEqual("Age", 22)       // ordering operators take float64
//	Equal("Name", ir.Category("Bob")) // equality takes any ir.Value
//	InRange("Age", 20, 25)          // bounds are float64 pairs
//
// UNTYPED INPUT:
//
// CLI flags, CUE query files and YAML scenarios produce Raw predicates
// whose value is untyped. Raw.Bind resolves them against a schema using
// explicit coercion rules (see Bind).
//
// CONJUNCTION ONLY:
//
// Condition lists are conjunctions. Disjunctions are not modeled; use
// separate queries instead.
package predicate
