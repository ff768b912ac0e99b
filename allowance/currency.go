package allowance

import (
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// FloorCents truncates value to whole cents, toward zero. For the
// non-negative amounts the engine produces this is a floor: half-cent
// values are never rounded up.
func FloorCents(value decimal.Decimal) decimal.Decimal {
	return value.Truncate(2)
}

// CurrencyFormatter renders truncated amounts with two fraction digits and
// the locale's separators.
type CurrencyFormatter struct {
	group string
	point string
}

func NewCurrencyFormatter(tag language.Tag) *CurrencyFormatter {
	sample := message.NewPrinter(tag).Sprint(number.Decimal(1234567.5, number.Scale(2)))
	group, point := separators(sample)
	return &CurrencyFormatter{group: group, point: point}
}

// separators extracts the grouping and decimal separators from a locale's
// rendering of 1234567.50.
func separators(sample string) (group, point string) {
	rs := []rune(sample)
	if len(rs) < 3 {
		return ",", "."
	}
	rest := rs[:len(rs)-2]

	end := len(rest)
	for end > 0 && !unicode.IsDigit(rest[end-1]) {
		end--
	}
	point = string(rest[end:])
	if point == "" {
		point = "."
	}

	intPart := rest[:end]
	for i, r := range intPart {
		if unicode.IsDigit(r) {
			continue
		}
		j := i
		for j < len(intPart) && !unicode.IsDigit(intPart[j]) {
			j++
		}
		return string(intPart[i:j]), point
	}
	return "", point
}

// NewCurrencyFormatterFor parses a BCP 47 locale such as "en" or "en-GB".
// An empty locale selects English.
func NewCurrencyFormatterFor(locale string) (*CurrencyFormatter, error) {
	if locale == "" {
		return NewCurrencyFormatter(language.English), nil
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return nil, err
	}
	return NewCurrencyFormatter(tag), nil
}

// Format truncates value to the cent and renders it, e.g. 1135.259 -> "1,135.25".
// Digits come from the decimal itself, so any magnitude is exact.
func (f *CurrencyFormatter) Format(value decimal.Decimal) string {
	s := FloorCents(value).StringFixed(2)

	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	whole, frac, _ := strings.Cut(s, ".")

	var sb strings.Builder
	sb.WriteString(sign)
	for i, d := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			sb.WriteString(f.group)
		}
		sb.WriteRune(d)
	}
	sb.WriteString(f.point)
	sb.WriteString(frac)
	return sb.String()
}

var englishFormatter = NewCurrencyFormatter(language.English)

// FormatCurrency formats value with the English grouping convention.
func FormatCurrency(value decimal.Decimal) string {
	return englishFormatter.Format(value)
}
