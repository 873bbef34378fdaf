package domain

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

type daysState uint8

const (
	daysUnknown daysState = iota
	daysDefined
	daysInfinite
)

// Days is a tagged optional day count. It distinguishes a defined value
// from "infinite" (a zero rate never depletes) and from "unknown" (the
// inputs needed to compute it are missing). Division by zero must resolve
// here, never to a runtime error and never silently to zero.
type Days struct {
	state daysState
	value decimal.Decimal
}

// DefinedDays wraps a concrete day count.
func DefinedDays(v decimal.Decimal) Days {
	return Days{state: daysDefined, value: v}
}

// InfiniteDays marks a metric that never occurs at the current rate.
func InfiniteDays() Days {
	return Days{state: daysInfinite}
}

// UnknownDays marks a metric that cannot be computed from the inputs.
func UnknownDays() Days {
	return Days{state: daysUnknown}
}

// SafeDiv divides num by den, mapping a zero divisor to InfiniteDays. It is
// the single division point for every rate and projection calculation.
func SafeDiv(num, den decimal.Decimal) Days {
	if den.IsZero() {
		return InfiniteDays()
	}
	return DefinedDays(num.Div(den))
}

// Defined reports whether the count holds a concrete value.
func (d Days) Defined() bool { return d.state == daysDefined }

// Infinite reports whether the metric never occurs at the current rate.
func (d Days) Infinite() bool { return d.state == daysInfinite }

// Unknown reports whether the metric could not be computed.
func (d Days) Unknown() bool { return d.state == daysUnknown }

// Value returns the concrete day count and whether one is defined.
func (d Days) Value() (decimal.Decimal, bool) {
	if d.state != daysDefined {
		return decimal.Decimal{}, false
	}
	return d.value, true
}

// MarshalJSON renders a defined count as a decimal, infinite as the string
// "infinite", and unknown as null.
func (d Days) MarshalJSON() ([]byte, error) {
	switch d.state {
	case daysDefined:
		return json.Marshal(d.value)
	case daysInfinite:
		return json.Marshal("infinite")
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON accepts the MarshalJSON forms.
func (d *Days) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*d = UnknownDays()
		return nil
	}
	var label string
	if err := json.Unmarshal(data, &label); err == nil && label == "infinite" {
		*d = InfiniteDays()
		return nil
	}
	var v decimal.Decimal
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*d = DefinedDays(v)
	return nil
}
