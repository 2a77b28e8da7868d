package invoice

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// Amount is a decimal quantity extracted from a document. An Amount that
// could not be coerced from its source text is invalid (not-a-number):
// arithmetic with it yields an invalid Amount and every tolerance
// comparison involving it fails. The zero value is a valid zero.
type Amount struct {
	value   decimal.Decimal
	invalid bool
	raw     string
}

// NewAmount wraps a decimal value.
func NewAmount(d decimal.Decimal) Amount {
	return Amount{value: d}
}

// AmountFromFloat converts a float, treating NaN and infinities as invalid.
func AmountFromFloat(f float64) Amount {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Invalid(fmt.Sprint(f))
	}
	return Amount{value: decimal.NewFromFloat(f)}
}

// Invalid returns a not-a-number Amount remembering the text it came from.
func Invalid(raw string) Amount {
	return Amount{invalid: true, raw: raw}
}

// MustAmount parses s and panics if it is not a number. Intended for
// literals in tests and fixtures.
func MustAmount(s string) Amount {
	a := ParseAmount(s)
	if !a.Valid() {
		panic(fmt.Sprintf("invoice: invalid amount literal %q", s))
	}
	return a
}

// ParseAmount coerces text to an Amount. Thousands separators, embedded
// spaces and a leading rupee sign are stripped. Blank text is a valid zero
// (a missing value); anything else that is not a decimal number is invalid.
func ParseAmount(s string) Amount {
	cleaned := strings.TrimSpace(s)
	cleaned = strings.TrimPrefix(cleaned, "₹")
	cleaned = strings.NewReplacer(",", "", " ", "", "\u00a0", "").Replace(cleaned)
	if cleaned == "" {
		return Amount{raw: s}
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return Invalid(s)
	}
	return Amount{value: d, raw: s}
}

// CoerceAmount converts a decoded JSON value to an Amount. It is total:
// null is a missing value (zero), numbers and numeric strings are parsed,
// and any other shape is invalid.
func CoerceAmount(v any) Amount {
	switch t := v.(type) {
	case nil:
		return Amount{}
	case json.Number:
		return ParseAmount(t.String())
	case string:
		return ParseAmount(t)
	case float64:
		return AmountFromFloat(t)
	case float32:
		return AmountFromFloat(float64(t))
	case int:
		return Amount{value: decimal.NewFromInt(int64(t))}
	case int64:
		return Amount{value: decimal.NewFromInt(t)}
	case decimal.Decimal:
		return NewAmount(t)
	case Amount:
		return t
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return Invalid(fmt.Sprint(t))
		}
		return Invalid(string(b))
	}
}

// Valid reports whether the amount holds a number.
func (a Amount) Valid() bool { return !a.invalid }

// Decimal returns the numeric value, or zero for an invalid amount.
func (a Amount) Decimal() decimal.Decimal {
	if a.invalid {
		return decimal.Zero
	}
	return a.value
}

// Raw returns the source text the amount was parsed from, if any.
func (a Amount) Raw() string { return a.raw }

// Add returns a+b; invalid if either operand is.
func (a Amount) Add(b Amount) Amount {
	if a.invalid || b.invalid {
		return Invalid("")
	}
	return Amount{value: a.value.Add(b.value)}
}

// Sub returns a-b; invalid if either operand is.
func (a Amount) Sub(b Amount) Amount {
	if a.invalid || b.invalid {
		return Invalid("")
	}
	return Amount{value: a.value.Sub(b.value)}
}

// Abs returns |a|.
func (a Amount) Abs() Amount {
	if a.invalid {
		return a
	}
	return Amount{value: a.value.Abs(), raw: a.raw}
}

// Within reports whether |a-b| < tolerance. Always false when either
// side is invalid.
func (a Amount) Within(b Amount, tolerance decimal.Decimal) bool {
	diff := a.Sub(b)
	if !diff.Valid() {
		return false
	}
	return diff.value.Abs().LessThan(tolerance)
}

// Equal reports whether two amounts hold the same number. Invalid amounts
// are never equal to anything, mirroring NaN.
func (a Amount) Equal(b Amount) bool {
	if a.invalid || b.invalid {
		return false
	}
	return a.value.Equal(b.value)
}

// String renders the exact decimal, or "NaN".
func (a Amount) String() string {
	if a.invalid {
		return "NaN"
	}
	return a.value.String()
}

// Fixed renders the amount with the given number of decimal places, or an
// empty string when invalid.
func (a Amount) Fixed(places int32) string {
	if a.invalid {
		return ""
	}
	return a.value.StringFixed(places)
}

// MarshalJSON encodes a valid amount as a JSON number and an invalid one as null.
func (a Amount) MarshalJSON() ([]byte, error) {
	if a.invalid {
		return []byte("null"), nil
	}
	return []byte(a.value.String()), nil
}

// UnmarshalJSON accepts numbers, numeric strings and null.
func (a *Amount) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(strings.NewReader(string(b)))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return err
	}
	*a = CoerceAmount(v)
	return nil
}

// Sum adds amounts. The sum of nothing is zero; any invalid operand makes
// the sum invalid.
func Sum(amounts ...Amount) Amount {
	total := Amount{}
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}
