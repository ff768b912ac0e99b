package collector_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/overtime-engine/allowance"
	"github.com/warp/overtime-engine/collector"
	"github.com/warp/overtime-engine/factory"
)

func TestCoerceValue(t *testing.T) {
	tests := []struct {
		name   string
		in     any
		want   int
		reason allowance.InvalidCountReason
	}{
		{"nil", nil, 0, ""},
		{"empty", "", 0, ""},
		{"blank", "   ", 0, ""},
		{"digits", "12", 12, ""},
		{"padded", " 7 ", 7, ""},
		{"integral float string", "3.0", 3, ""},
		{"int", 4, 4, ""},
		{"int64", int64(9), 9, ""},
		{"json number", json.Number("5"), 5, ""},
		{"integral float", 3.0, 3, ""},
		{"zero", "0", 0, ""},
		{"negative string", "-2", 0, allowance.ReasonNegative},
		{"negative int", -1, 0, allowance.ReasonNegative},
		{"negative float", -0.5, 0, allowance.ReasonNegative},
		{"fraction", 2.5, 0, allowance.ReasonNotInteger},
		{"fraction string", "2.5", 0, allowance.ReasonNotInteger},
		{"text", "abc", 0, allowance.ReasonNotNumber},
		{"trailing text", "12abc", 0, allowance.ReasonNotNumber},
		{"bool", true, 0, allowance.ReasonNotNumber},
		{"huge", "99999999999", 0, allowance.ReasonNotNumber},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, reason := collector.CoerceValue(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.reason, reason)
		})
	}
}

func TestCoerce_NormalizesAndReports(t *testing.T) {
	// GIVEN: A JSON-style input with valid, invalid and unknown entries
	table := factory.MustPreset(factory.PresetRankedV3)
	raw := map[string]any{
		"Regular Night":     "2",
		"Holiday":           1.0,
		"Weekend Daytime":   "-4",
		"Weekend Nighttime": "",
		"Sunday Brunch":     3,
	}

	// WHEN: Coercing
	counts, notices := collector.Coerce(table, raw)

	// THEN: Invalid values are zeroed and reported, never fatal
	assert.Equal(t, allowance.Counts{"Regular Night": 2, "Holiday": 1}, counts)
	require.Len(t, notices, 2)
	assert.Equal(t, "Sunday Brunch", notices[0].Category)
	assert.Equal(t, allowance.ReasonUnknownCategory, notices[0].Reason)
	assert.Equal(t, "Weekend Daytime", notices[1].Category)
	assert.Equal(t, allowance.ReasonNegative, notices[1].Reason)
	assert.Equal(t, "-4", notices[1].Raw)
	assert.ErrorIs(t, notices[1], allowance.ErrInvalidCount)
}

func TestCoerceStrings(t *testing.T) {
	table := factory.MustPreset(factory.PresetFixedV1)
	counts, notices := collector.CoerceStrings(table, map[string]string{
		"Civic Day":     "1",
		"Regular Night": "x",
	})
	assert.Equal(t, allowance.Counts{"Civic Day": 1}, counts)
	require.Len(t, notices, 1)
	assert.Equal(t, allowance.ReasonNotNumber, notices[0].Reason)
}
