// Package csvsink writes converted record sets to CSV files with a leading
// row-index column.
package csvsink

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/JakeFAU/bank-cap-etl/internal/etl"
)

// Write serializes set to path, replacing any existing file. The data is
// written to a sibling temp file first and renamed into place.
func Write(set etl.ConvertedSet, path string) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("%w: csv path is required", etl.ErrIO)
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("%w: create csv dir %s: %v", etl.ErrIO, dir, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+"-*.tmp")
	if err != nil {
		return fmt.Errorf("%w: create temp file in %s: %v", etl.ErrIO, dir, err)
	}
	tmpName := tmp.Name()
	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}

	if err := Encode(tmp, set); err != nil {
		cleanup()
		return fmt.Errorf("%w: write %s: %v", etl.ErrIO, path, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("%w: close %s: %v", etl.ErrIO, tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("%w: rename into %s: %v", etl.ErrIO, path, err)
	}
	return nil
}

// Encode writes the CSV form of set to w.
func Encode(w io.Writer, set etl.ConvertedSet) error {
	cw := csv.NewWriter(w)
	header := append([]string{""}, set.Schema.Fields()...)
	if err := cw.Write(header); err != nil {
		return err
	}
	width := len(header)
	for i, rec := range set.Records {
		if len(rec.Derived) != len(set.Schema.Derived) {
			return fmt.Errorf("row %d has %d derived values, schema has %d", i, len(rec.Derived), len(set.Schema.Derived))
		}
		row := make([]string, 0, width)
		row = append(row, strconv.Itoa(i), rec.Name)
		for _, v := range rec.Numbers() {
			row = append(row, FormatFloat(v))
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// FormatFloat renders v in its shortest form, keeping a ".0" on integral
// values so every numeric column reads as a float.
func FormatFloat(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eEnN") {
		s += ".0"
	}
	return s
}

// Read loads a file produced by Write. The index column is ignored.
func Read(path string) (etl.ConvertedSet, error) {
	// #nosec G304 -- path comes from operator configuration.
	f, err := os.Open(path)
	if err != nil {
		return etl.ConvertedSet{}, fmt.Errorf("%w: open %s: %v", etl.ErrIO, path, err)
	}
	defer f.Close() //nolint:errcheck // read-only handle

	set, err := Decode(f)
	if err != nil {
		return etl.ConvertedSet{}, fmt.Errorf("%w: read %s: %v", etl.ErrIO, path, err)
	}
	return set, nil
}

// Decode parses the CSV form produced by Encode.
func Decode(r io.Reader) (etl.ConvertedSet, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return etl.ConvertedSet{}, errors.New("missing header")
		}
		return etl.ConvertedSet{}, err
	}
	if len(header) < 3 {
		return etl.ConvertedSet{}, fmt.Errorf("header has %d columns, need at least 3", len(header))
	}
	set := etl.ConvertedSet{
		Schema: etl.Schema{
			NameField:  header[1],
			ValueField: header[2],
			Derived:    append([]string(nil), header[3:]...),
		},
	}
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return etl.ConvertedSet{}, err
		}
		nums := make([]float64, 0, len(row)-2)
		for _, cell := range row[2:] {
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return etl.ConvertedSet{}, fmt.Errorf("row %s: %w", row[0], err)
			}
			nums = append(nums, v)
		}
		set.Records = append(set.Records, etl.ConvertedRecord{
			Name:    row[1],
			Value:   nums[0],
			Derived: nums[1:],
		})
	}
	return set, nil
}
