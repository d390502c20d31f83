package etl

import "errors"

// Error classes surfaced by the pipeline. Components wrap these with context so
// callers can branch with errors.Is.
var (
	// ErrNetwork indicates the source page could not be fetched.
	ErrNetwork = errors.New("network error")
	// ErrExtraction indicates the expected table or cell structure is missing.
	ErrExtraction = errors.New("extraction error")
	// ErrParse indicates a numeric cell could not be parsed.
	ErrParse = errors.New("parse error")
	// ErrMissingCurrency indicates a target currency is absent from the rate table.
	ErrMissingCurrency = errors.New("missing currency")
	// ErrInvalidTarget indicates a malformed target currency list.
	ErrInvalidTarget = errors.New("invalid target currency")
	// ErrRates indicates the exchange-rate reference file is malformed.
	ErrRates = errors.New("invalid rate table")
	// ErrStore indicates a persistence or query failure in the relational store.
	ErrStore = errors.New("store error")
	// ErrIO indicates a local file write or read failure.
	ErrIO = errors.New("io error")
)
