// Package dataset implements the tabular pipeline behind the dashboard:
// loading CSV sources into in-memory tables, dataset-specific cleaning
// (forward-fill, currency parsing, placeholder substitution), pure
// filtering and aggregation, and year-series extraction for charting.
//
// All functions that derive a table from another return a new table; the
// input is never mutated. The empty string is the missing-value marker
// throughout.
package dataset
