package allowance_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/overtime-engine/allowance"
)

func TestFormatCurrency_FloorsNeverRoundsUp(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"1.999", "1.99"},
		{"2.0", "2.00"},
		{"2", "2.00"},
		{"0.005", "0.00"},
		{"0.29", "0.29"},
		{"59.75", "59.75"},
		{"178.125", "178.12"},
		{"1135.25", "1,135.25"},
		{"1234567.891", "1,234,567.89"},
		{"0", "0.00"},
		{"9007199254740993.01", "9,007,199,254,740,993.01"},
		{"123456789012345678901.239", "123,456,789,012,345,678,901.23"},
		{"-1.999", "-1.99"},
		{"-1234.567", "-1,234.56"},
		{"-0.001", "0.00"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, allowance.FormatCurrency(dec(tt.in)))
		})
	}
}

func TestFormatCurrency_IdempotentOnFlooredValue(t *testing.T) {
	for _, in := range []string{"1.999", "12345.678", "0.01", "99.995"} {
		first := allowance.FormatCurrency(dec(in))
		again := allowance.FormatCurrency(allowance.FloorCents(dec(in)))
		assert.Equal(t, first, again, in)
	}
}

func TestFloorCents(t *testing.T) {
	assertDecimal(t, "1.99", allowance.FloorCents(dec("1.999")))
	assertDecimal(t, "9.37", allowance.FloorCents(dec("9.375")))
	assertDecimal(t, "2", allowance.FloorCents(dec("2.00")))
	assertDecimal(t, "-1.99", allowance.FloorCents(dec("-1.999")))
}

func TestNewCurrencyFormatterFor(t *testing.T) {
	f, err := allowance.NewCurrencyFormatterFor("")
	require.NoError(t, err)
	assert.Equal(t, "1,195.00", f.Format(dec("1195")))

	f, err = allowance.NewCurrencyFormatterFor("en-GB")
	require.NoError(t, err)
	assert.Equal(t, "1,195.00", f.Format(dec("1195")))

	// GIVEN: A locale with swapped separators
	f, err = allowance.NewCurrencyFormatterFor("de")
	require.NoError(t, err)
	assert.Equal(t, "1.234.567,89", f.Format(dec("1234567.899")))
	assert.Equal(t, "9.007.199.254.740.993,01", f.Format(dec("9007199254740993.01")))

	_, err = allowance.NewCurrencyFormatterFor("not a locale!")
	assert.Error(t, err)
}
