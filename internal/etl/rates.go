package etl

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// LoadRatesFile reads a Currency,Rate reference file from disk.
func LoadRatesFile(path string) (RateTable, error) {
	// #nosec G304 -- path comes from operator configuration.
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open rates %s: %v", ErrIO, path, err)
	}
	defer f.Close() //nolint:errcheck // read-only handle

	rates, err := LoadRates(f)
	if err != nil {
		return nil, fmt.Errorf("load rates %s: %w", path, err)
	}
	return rates, nil
}

// LoadRates parses CSV with a header row naming Currency and Rate columns.
// Column order is free and extra columns are ignored.
func LoadRates(r io.Reader) (RateTable, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty file", ErrRates)
		}
		return nil, fmt.Errorf("%w: read header: %v", ErrRates, err)
	}
	codeCol, rateCol := -1, -1
	for i, h := range header {
		switch strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")) {
		case "Currency":
			codeCol = i
		case "Rate":
			rateCol = i
		}
	}
	if codeCol < 0 || rateCol < 0 {
		return nil, fmt.Errorf("%w: header must contain Currency and Rate, got %v", ErrRates, header)
	}

	rates := make(RateTable)
	for line := 2; ; line++ {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrRates, line, err)
		}
		if len(row) <= max(codeCol, rateCol) {
			return nil, fmt.Errorf("%w: line %d: expected at least %d columns", ErrRates, line, max(codeCol, rateCol)+1)
		}
		code := strings.TrimSpace(row[codeCol])
		if code == "" {
			return nil, fmt.Errorf("%w: line %d: empty currency code", ErrRates, line)
		}
		if _, dup := rates[code]; dup {
			return nil, fmt.Errorf("%w: line %d: duplicate currency %s", ErrRates, line, code)
		}
		rate, err := strconv.ParseFloat(strings.TrimSpace(row[rateCol]), 64)
		if err != nil || rate <= 0 {
			return nil, fmt.Errorf("%w: line %d: rate for %s must be a positive number, got %q", ErrRates, line, code, row[rateCol])
		}
		rates[code] = rate
	}
	return rates, nil
}
