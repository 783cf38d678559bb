// Package dataset provides the tabular input evaluated by the engine.
//
// Dataset is the read-only contract the engine consumes. Table is the
// in-memory implementation; loaders build Tables from CSV, YAML/JSON, or
// decoded records, applying the coercion rules below.
//
// # Row Identity
//
// Rows are addressed by ordinal position (0-based) assigned at load time.
// A Table never reorders or removes rows, so identifiers stay stable for
// its lifetime. Each Table also carries a UUIDv7 snapshot ID used to key
// caches.
//
// # Coercion Rules
//
//   - A cell equal to one of the missing tokens (default "", NA, NaN, N/A,
//     nan, null, None) or a nil/NaN value is Missing
//   - A column is numeric when every non-missing cell is a number or a
//     string that parses as a float; otherwise it is categorical
//   - A fully missing column is numeric
//   - Categorical cells are trimmed and NFC normalized; numbers in a
//     categorical column become their shortest decimal text and bools
//     become "true"/"false"
//
// Format-specific cleanup (column renaming, win/loss parsing, and so on)
// belongs to callers; this package only maps text to typed cells.
package dataset
