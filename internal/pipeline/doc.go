// Package pipeline runs one ETL pass: fetch the source page, extract the
// ranking table, convert the values, persist them to CSV and the table store,
// and report the configured queries. Every phase boundary is written to the
// progress log.
package pipeline
