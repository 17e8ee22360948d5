// Package report accumulates test results for one transport run and persists the final report.
//
// An Aggregator belongs to exactly one run. It can be read at any time for a partial view, and
// Finalize renders the AggregateReport and saves it to every configured Store.
package report
