// Package store provides a SQLite-backed dataset source.
//
// Datasets are imported once and then read back as in-memory tables, or
// evaluated in place by compiling predicates to SQL (see querysql).
//
// # Storage Layout
//
//   - datasets: one row per imported dataset with its typed schema (canonical JSON)
//     and a SHA-256 content digest (ir.DatasetDigest)
//   - data_<name>: the cells, keyed by _row
//
// Missing cells are stored as NULL. SQL comparisons against NULL never
// hold, so the SQL evaluator agrees with the in-memory evaluator on
// missing values without special cases.
//
// # Deterministic Results
//
// Every row query orders by _row ASC, so row identifiers read back in
// load order.
//
// # Concurrency
//
// SQLite allows one writer. The pool is limited to a single connection,
// and WAL mode lets readers proceed during an import.
package store
