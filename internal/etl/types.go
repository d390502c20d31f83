package etl

import "time"

// Default field names of the bank ranking table.
const (
	DefaultNameField  = "Name"
	DefaultValueField = "MC_USD_Billion"
)

// Record is one extracted row: an entity name and its base measure in billions
// of US dollars.
type Record struct {
	Name  string
	Value float64
}

// RecordSet is the ordered output of extraction. Records keep document order.
type RecordSet struct {
	NameField  string
	ValueField string
	Records    []Record
}

// Len reports the number of records.
func (s RecordSet) Len() int {
	return len(s.Records)
}

// RateTable maps a currency code to its conversion factor from USD.
type RateTable map[string]float64

// TargetCurrency names a currency to derive and the output field it lands in.
type TargetCurrency struct {
	Code  string `mapstructure:"code"`
	Field string `mapstructure:"field"`
}

// Schema describes the column layout shared by every record in a ConvertedSet.
type Schema struct {
	NameField  string
	ValueField string
	Derived    []string
}

// Fields returns every column name in order, starting with the name column.
func (s Schema) Fields() []string {
	out := make([]string, 0, 2+len(s.Derived))
	out = append(out, s.NameField, s.ValueField)
	return append(out, s.Derived...)
}

// NumericFields returns the value column followed by the derived columns.
func (s Schema) NumericFields() []string {
	out := make([]string, 0, 1+len(s.Derived))
	out = append(out, s.ValueField)
	return append(out, s.Derived...)
}

// ConvertedRecord is a Record widened with one value per derived column.
type ConvertedRecord struct {
	Name    string
	Value   float64
	Derived []float64
}

// Numbers returns the base value followed by the derived values.
func (r ConvertedRecord) Numbers() []float64 {
	out := make([]float64, 0, 1+len(r.Derived))
	out = append(out, r.Value)
	return append(out, r.Derived...)
}

// ConvertedSet is the transformed record set written to the sinks.
type ConvertedSet struct {
	Schema  Schema
	Records []ConvertedRecord
}

// Len reports the number of records.
func (s ConvertedSet) Len() int {
	return len(s.Records)
}

// QueryResult is the tabular output of a read query.
type QueryResult struct {
	Query   string
	Columns []string
	Rows    [][]any
}

// Summary describes a completed run. It is published as the run notification.
type Summary struct {
	RunID      string    `json:"run_id"`
	SourceURL  string    `json:"source_url"`
	Records    int       `json:"records"`
	CSVPath    string    `json:"csv_path"`
	Table      string    `json:"table"`
	ArchiveURI string    `json:"archive_uri,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}
