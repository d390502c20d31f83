// Package etl holds the record types, collaborator interfaces, and the two
// pieces of real logic in the bank market-cap job: pulling a ranking table out
// of an HTML document and deriving per-currency columns from it.
package etl
