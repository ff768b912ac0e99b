/*
Package collector shapes raw form input into engine counts.

PURPOSE:
  The engine only understands non-negative integer counts. Forms, JSON
  bodies and CLI flags hand over strings, JSON numbers or nothing at all.
  This package normalizes those values and owns the mirroring policy that
  pre-fills one field from another.

COERCION RULES:
  nil, "", "   "     -> 0 (absent, no notice)
  "12", " 7 ", 3     -> the integer
  3.0, "3.0"         -> 3
  -2, "-2"           -> 0 + InvalidCountError{negative}
  2.5, "2.5"         -> 0 + InvalidCountError{not an integer}
  "abc", true        -> 0 + InvalidCountError{not a number}
  unknown category   -> dropped + InvalidCountError{unknown category}

Notices are returned next to the counts, never as a failure: invalid input
is treated as zero and the calculation proceeds.

SEE ALSO:
  - form.go: Mirroring form state
  - allowance/errors.go: InvalidCountError
*/
package collector

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/warp/overtime-engine/allowance"
)

// Coerce converts raw values keyed by category name into engine counts.
// Notices are sorted by category name.
func Coerce(table *allowance.RateTable, raw map[string]any) (allowance.Counts, []*allowance.InvalidCountError) {
	counts := make(allowance.Counts, len(raw))
	var notices []*allowance.InvalidCountError

	for name, value := range raw {
		if _, ok := table.Category(name); !ok {
			notices = append(notices, &allowance.InvalidCountError{
				Category: name,
				Raw:      rawString(value),
				Reason:   allowance.ReasonUnknownCategory,
			})
			continue
		}

		n, reason := CoerceValue(value)
		if reason != "" {
			notices = append(notices, &allowance.InvalidCountError{
				Category: name,
				Raw:      rawString(value),
				Reason:   reason,
			})
		}
		if n > 0 {
			counts[name] = n
		}
	}

	sort.Slice(notices, func(i, j int) bool { return notices[i].Category < notices[j].Category })
	return counts, notices
}

// CoerceStrings is Coerce for string-only sources such as form fields.
func CoerceStrings(table *allowance.RateTable, raw map[string]string) (allowance.Counts, []*allowance.InvalidCountError) {
	values := make(map[string]any, len(raw))
	for k, v := range raw {
		values[k] = v
	}
	return Coerce(table, values)
}

// CoerceValue normalizes one raw value. A non-empty reason means the value
// was invalid and has been replaced by zero.
func CoerceValue(value any) (int, allowance.InvalidCountReason) {
	switch v := value.(type) {
	case nil:
		return 0, ""
	case string:
		return coerceString(v)
	case json.Number:
		return coerceString(v.String())
	case int:
		return coerceInt(int64(v))
	case int32:
		return coerceInt(int64(v))
	case int64:
		return coerceInt(v)
	case float64:
		return coerceFloat(v)
	case float32:
		return coerceFloat(float64(v))
	}
	return 0, allowance.ReasonNotNumber
}

func coerceString(s string) (int, allowance.InvalidCountReason) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ""
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return coerceInt(n)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, allowance.ReasonNotNumber
	}
	return coerceFloat(f)
}

func coerceInt(n int64) (int, allowance.InvalidCountReason) {
	if n < 0 {
		return 0, allowance.ReasonNegative
	}
	if n > math.MaxInt32 {
		return 0, allowance.ReasonNotNumber
	}
	return int(n), ""
}

func coerceFloat(f float64) (int, allowance.InvalidCountReason) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, allowance.ReasonNotNumber
	}
	if f < 0 {
		return 0, allowance.ReasonNegative
	}
	if f != math.Trunc(f) {
		return 0, allowance.ReasonNotInteger
	}
	return coerceInt(int64(f))
}

func rawString(value any) string {
	if value == nil {
		return ""
	}
	if s, ok := value.(string); ok {
		return s
	}
	return fmt.Sprint(value)
}
