package etl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func referenceSet() RecordSet {
	return RecordSet{
		NameField:  DefaultNameField,
		ValueField: DefaultValueField,
		Records: []Record{
			{Name: "Bank A", Value: 100.5},
			{Name: "Bank B", Value: 2000.25},
		},
	}
}

func TestTransformReferenceScenario(t *testing.T) {
	t.Parallel()

	rates := RateTable{"GBP": 0.8, "EUR": 0.9, "INR": 80.0}
	out, err := Transform(referenceSet(), rates, DefaultTargets())
	require.NoError(t, err)

	assert.Equal(t, Schema{
		NameField:  "Name",
		ValueField: "MC_USD_Billion",
		Derived:    []string{"MC_GBP_Billion", "MC_EUR_Billion", "MC_INR_Billion"},
	}, out.Schema)
	require.Equal(t, 2, out.Len())

	assert.Equal(t, ConvertedRecord{Name: "Bank A", Value: 100.5, Derived: []float64{80.4, 90.45, 8040}}, out.Records[0])
	assert.Equal(t, ConvertedRecord{Name: "Bank B", Value: 2000.25, Derived: []float64{1600.2, 1800.22, 160020}}, out.Records[1])
}

func TestConvertRoundsHalfToEven(t *testing.T) {
	t.Parallel()

	tests := []struct {
		value, rate, want float64
	}{
		{0.125, 1, 0.12},
		{0.135, 1, 0.14},
		{0.105, 1, 0.10},
		{0.115, 1, 0.12},
		{2.675, 1, 2.68},
		{2000.25, 0.9, 1800.22},
		{0.5, 0.01, 0.0},
		{1.5, 0.01, 0.02},
		{432.92, 0.8, 346.34},
		{432.92, 0.93, 402.62},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Convert(tt.value, tt.rate), "%v x %v", tt.value, tt.rate)
	}
}

func TestTransformMissingCurrencyLeavesInputUntouched(t *testing.T) {
	t.Parallel()

	in := referenceSet()
	before := append([]Record(nil), in.Records...)

	out, err := Transform(in, RateTable{"GBP": 0.8, "EUR": 0.9}, DefaultTargets())
	require.ErrorIs(t, err, ErrMissingCurrency)
	assert.Contains(t, err.Error(), "INR")
	assert.Zero(t, out.Len())
	assert.Empty(t, out.Schema.Derived)
	assert.Equal(t, before, in.Records)

	_, again := Transform(in, RateTable{"GBP": 0.8, "EUR": 0.9}, DefaultTargets())
	assert.Equal(t, err.Error(), again.Error())
}

func TestTransformRejectsBadTargets(t *testing.T) {
	t.Parallel()

	rates := RateTable{"GBP": 0.8, "EUR": 0.9}
	cases := map[string][]TargetCurrency{
		"empty list":         nil,
		"missing field":      {{Code: "GBP"}},
		"missing code":       {{Field: "MC_GBP_Billion"}},
		"duplicate field":    {{Code: "GBP", Field: "X"}, {Code: "EUR", Field: "X"}},
		"clashes with value": {{Code: "GBP", Field: DefaultValueField}},
	}
	for name, targets := range cases {
		_, err := Transform(referenceSet(), rates, targets)
		assert.ErrorIs(t, err, ErrInvalidTarget, name)
	}
}

func TestTransformEmptySet(t *testing.T) {
	t.Parallel()

	out, err := Transform(RecordSet{NameField: "Name", ValueField: "V"}, RateTable{"GBP": 0.8}, []TargetCurrency{{Code: "GBP", Field: "G"}})
	require.NoError(t, err)
	assert.Zero(t, out.Len())
	assert.Equal(t, []string{"Name", "V", "G"}, out.Schema.Fields())
	assert.Equal(t, []string{"V", "G"}, out.Schema.NumericFields())
}
