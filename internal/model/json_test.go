package model

import (
	"encoding/json"
	"math"
	"testing"
)

// TestNullableFloat_Marshal tests non-finite sanitization.
//
// WHY: encoding/json rejects NaN and infinities outright; the API contract
// is an explicit null for any value the pass could not compute.
func TestNullableFloat_Marshal(t *testing.T) {
	tests := []struct {
		name  string
		value float64
		want  string
	}{
		{"finite", 42.5, "42.5"},
		{"zero", 0, "0"},
		{"nan", math.NaN(), "null"},
		{"positive infinity", math.Inf(1), "null"},
		{"negative infinity", math.Inf(-1), "null"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(NullableFloat(tt.value))
			if err != nil {
				t.Fatalf("Marshal() returned error: %v", err)
			}
			if string(data) != tt.want {
				t.Errorf("Marshal(%v) = %s, want %s", tt.value, data, tt.want)
			}
		})
	}
}

// TestNullableFloat_Unmarshal tests null round-tripping back to NaN.
func TestNullableFloat_Unmarshal(t *testing.T) {
	var v NullableFloat
	if err := json.Unmarshal([]byte("null"), &v); err != nil {
		t.Fatalf("Unmarshal(null) returned error: %v", err)
	}
	if !math.IsNaN(float64(v)) {
		t.Errorf("Unmarshal(null) = %v, want NaN", float64(v))
	}

	if err := json.Unmarshal([]byte("3.14"), &v); err != nil {
		t.Fatalf("Unmarshal(3.14) returned error: %v", err)
	}
	if float64(v) != 3.14 {
		t.Errorf("Unmarshal(3.14) = %v", float64(v))
	}
}
