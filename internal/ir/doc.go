// Package ir provides the foundational types for bayesq.
//
// This package contains type definitions only. All other internal packages
// import ir; ir imports nothing internal. This keeps ir the foundational
// layer with no circular dependencies.
//
// Key design constraints:
//   - Cell values are a sealed sum type: Number, Category, Missing
//   - Every column has exactly one Kind (numeric or categorical)
//   - Row identifiers are ordinal positions, never reassigned
//   - RowSet values are immutable once built
//   - Canonical JSON never contains floats; probabilities travel as decimal strings
package ir
