// Package codec converts domain scalars to and from their storage
// representation. Money and interest rates are stored as integer minor
// units, dates as calendar days. All functions are pure.
package codec

import (
	"fmt"
	"math"
	"time"
)

// DateLayout is the accepted textual date format.
const DateLayout = "2006/01/02"

// EncodeMoney converts a decimal amount to integer cents. The half-cent
// nudge keeps amounts like 3.11, whose float form sits just under the
// true value, from truncating to the cent below.
func EncodeMoney(amount float64) int64 {
	return int64(math.Floor(amount*100.0 + 0.005))
}

// DecodeMoney converts integer cents back to a decimal amount.
func DecodeMoney(cents int64) float64 {
	return float64(cents) / 100.0
}

// EncodeRate converts an interest rate to integer thousandths, with the
// same truncation guard as EncodeMoney.
func EncodeRate(rate float64) int64 {
	return int64(math.Floor(rate*1000.0 + 0.0005))
}

// DecodeRate converts integer thousandths back to a rate.
func DecodeRate(thousandths int64) float64 {
	return float64(thousandths) / 1000.0
}

// ParseDate normalizes a caller-supplied date. It accepts a "YYYY/MM/DD"
// string, a time.Time, a *time.Time, or nil; nil (and a nil pointer)
// passes through as nil.
func ParseDate(value any) (*time.Time, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case *time.Time:
		return v, nil
	case time.Time:
		return &v, nil
	case string:
		t, err := time.Parse(DateLayout, v)
		if err != nil {
			return nil, fmt.Errorf("parse date %q: %w", v, err)
		}
		return &t, nil
	default:
		return nil, fmt.Errorf("unsupported date value %T", value)
	}
}

// FormatDate renders a date in the accepted textual format, or "" for nil.
func FormatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(DateLayout)
}
