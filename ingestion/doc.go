// Package ingestion loads users and transactions from CSV files into storage.
//
// Column headers are normalized before lookup, so "Amount ($)" and "amount"
// name the same column. Missing markers (empty, NA, N/A, null) read as empty
// values and malformed amounts are kept as absent rather than rejected.
// Rows without an ID are skipped with a warning.
package ingestion
