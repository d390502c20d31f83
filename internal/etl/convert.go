package etl

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// DefaultTargets derives GBP, EUR and INR columns.
func DefaultTargets() []TargetCurrency {
	return []TargetCurrency{
		{Code: "GBP", Field: "MC_GBP_Billion"},
		{Code: "EUR", Field: "MC_EUR_Billion"},
		{Code: "INR", Field: "MC_INR_Billion"},
	}
}

// Transform derives one column per target currency. Each derived value is
// Convert(value, rate). The input set is never modified; on error nothing is
// returned.
func Transform(set RecordSet, rates RateTable, targets []TargetCurrency) (ConvertedSet, error) {
	if err := validateTargets(set, targets); err != nil {
		return ConvertedSet{}, err
	}
	factors := make([]float64, len(targets))
	for i, t := range targets {
		rate, ok := rates[t.Code]
		if !ok {
			return ConvertedSet{}, fmt.Errorf("%w: %s", ErrMissingCurrency, t.Code)
		}
		factors[i] = rate
	}

	schema := Schema{NameField: set.NameField, ValueField: set.ValueField}
	for _, t := range targets {
		schema.Derived = append(schema.Derived, t.Field)
	}

	out := ConvertedSet{
		Schema:  schema,
		Records: make([]ConvertedRecord, 0, len(set.Records)),
	}
	for _, rec := range set.Records {
		derived := make([]float64, len(factors))
		for i, rate := range factors {
			derived[i] = Convert(rec.Value, rate)
		}
		out.Records = append(out.Records, ConvertedRecord{
			Name:    rec.Name,
			Value:   rec.Value,
			Derived: derived,
		})
	}
	return out, nil
}

// Convert multiplies value by rate and rounds half-to-even to two places. The
// product is taken on the shortest decimal forms of both inputs, so ties are
// decided on the decimal digits a reader sees rather than on binary noise.
func Convert(value, rate float64) float64 {
	return decimal.NewFromFloat(value).Mul(decimal.NewFromFloat(rate)).RoundBank(2).InexactFloat64()
}

func validateTargets(set RecordSet, targets []TargetCurrency) error {
	if len(targets) == 0 {
		return fmt.Errorf("%w: no target currencies", ErrInvalidTarget)
	}
	seen := map[string]struct{}{
		set.NameField:  {},
		set.ValueField: {},
	}
	for _, t := range targets {
		if t.Code == "" || t.Field == "" {
			return fmt.Errorf("%w: code and field are required (%+v)", ErrInvalidTarget, t)
		}
		if _, dup := seen[t.Field]; dup {
			return fmt.Errorf("%w: duplicate field %q", ErrInvalidTarget, t.Field)
		}
		seen[t.Field] = struct{}{}
	}
	return nil
}
