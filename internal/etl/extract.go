package etl

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// ColumnSpec locates the name and value cells inside each table row.
type ColumnSpec struct {
	// NameCell is the zero-based index of the cell holding the entity link.
	NameCell int `mapstructure:"name_cell"`
	// NameLink is the zero-based index of the link whose title is the entity name.
	NameLink int `mapstructure:"name_link"`
	// ValueCell is the zero-based index of the cell holding the numeric value.
	ValueCell int `mapstructure:"value_cell"`
	// MinCells is the cell count below which a row is treated as a header.
	MinCells   int    `mapstructure:"min_cells"`
	NameField  string `mapstructure:"name_field"`
	ValueField string `mapstructure:"value_field"`
}

// DefaultColumnSpec matches the Wikipedia "List of largest banks" markup, where
// the name cell holds a flag link followed by the bank link.
func DefaultColumnSpec() ColumnSpec {
	return ColumnSpec{
		NameCell:   1,
		NameLink:   1,
		ValueCell:  2,
		MinCells:   3,
		NameField:  DefaultNameField,
		ValueField: DefaultValueField,
	}
}

func (c ColumnSpec) withDefaults() ColumnSpec {
	if c.NameField == "" {
		c.NameField = DefaultNameField
	}
	if c.ValueField == "" {
		c.ValueField = DefaultValueField
	}
	need := max(c.NameCell, c.ValueCell) + 1
	if c.MinCells < need {
		c.MinCells = need
	}
	return c
}

// Extract pulls (name, value) records from the tableIndex-th table body of doc.
func Extract(doc Node, tableIndex int, spec ColumnSpec) (RecordSet, error) {
	if doc == nil {
		return RecordSet{}, fmt.Errorf("%w: nil document", ErrExtraction)
	}
	if spec.NameCell < 0 || spec.NameLink < 0 || spec.ValueCell < 0 {
		return RecordSet{}, fmt.Errorf("%w: negative column index", ErrExtraction)
	}
	spec = spec.withDefaults()

	tables := doc.Find("tbody")
	if tableIndex < 0 || tableIndex >= len(tables) {
		return RecordSet{}, fmt.Errorf("%w: table %d requested, document has %d", ErrExtraction, tableIndex, len(tables))
	}

	set := RecordSet{NameField: spec.NameField, ValueField: spec.ValueField}
	for rowIdx, row := range tables[tableIndex].Find("tr") {
		cells := row.Find("td")
		if len(cells) < spec.MinCells {
			continue
		}
		name, err := linkTitle(cells[spec.NameCell], spec.NameLink)
		if err != nil {
			return RecordSet{}, fmt.Errorf("row %d: %w", rowIdx, err)
		}
		raw := cells[spec.ValueCell].LeadingText()
		value, err := ParseAmount(raw)
		if err != nil {
			return RecordSet{}, fmt.Errorf("row %d (%s): %w", rowIdx, name, err)
		}
		set.Records = append(set.Records, Record{Name: name, Value: value})
	}
	return set, nil
}

func linkTitle(cell Node, linkIdx int) (string, error) {
	links := cell.Find("a")
	if linkIdx >= len(links) {
		return "", fmt.Errorf("%w: link %d requested, cell has %d", ErrExtraction, linkIdx, len(links))
	}
	title, ok := links[linkIdx].Attr("title")
	title = strings.TrimSpace(title)
	if !ok || title == "" {
		return "", fmt.Errorf("%w: link %d has no title", ErrExtraction, linkIdx)
	}
	return title, nil
}

// ParseAmount parses a non-negative figure such as "2,000.25B" or "432.92\n".
// Trailing unit markers and thousands separators are dropped.
func ParseAmount(raw string) (float64, error) {
	text := strings.TrimSpace(raw)
	text = strings.TrimRightFunc(text, func(r rune) bool {
		return !unicode.IsDigit(r) && r != '.'
	})
	text = strings.ReplaceAll(text, ",", "")
	if text == "" {
		return 0, fmt.Errorf("%w: no numeric text in %q", ErrParse, raw)
	}
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %v", ErrParse, raw, err)
	}
	if v < 0 {
		return 0, fmt.Errorf("%w: negative value %q", ErrParse, raw)
	}
	return v, nil
}
