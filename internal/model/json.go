package model

import (
	"encoding/json"
	"math"
)

// NullableFloat is a float64 that marshals NaN and ±Inf as JSON null.
// Aggregated ratios (leverage, percent invested, P&L percent) can become
// non-finite when a denominator is zero or a rate was unavailable; callers
// must see an explicit null instead of a fabricated number.
type NullableFloat float64

// MarshalJSON implements json.Marshaler.
func (f NullableFloat) MarshalJSON() ([]byte, error) {
	v := float64(f)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return []byte("null"), nil
	}
	return json.Marshal(v)
}

// UnmarshalJSON implements json.Unmarshaler. JSON null decodes to NaN so a
// round trip preserves the "unavailable" marker.
func (f *NullableFloat) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = NullableFloat(math.NaN())
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*f = NullableFloat(v)
	return nil
}
