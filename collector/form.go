package collector

import (
	"errors"
	"fmt"
	"sync"

	"github.com/warp/overtime-engine/allowance"
)

var ErrUnknownCategory = errors.New("unknown category")

// Form holds raw field values for one rate table and applies the table's
// mirror pairs: editing a pair's source copies the value into its target
// until the target is edited directly. Only Reset re-enables mirroring.
type Form struct {
	mu         sync.Mutex
	table      *allowance.RateTable
	values     map[string]string
	overridden map[allowance.MirrorPair]bool
}

func NewForm(table *allowance.RateTable) *Form {
	return &Form{
		table:      table,
		values:     make(map[string]string),
		overridden: make(map[allowance.MirrorPair]bool),
	}
}

// Table returns the rate table the form was built for.
func (f *Form) Table() *allowance.RateTable {
	return f.table
}

// Set records a user edit of category. It returns the categories whose
// value changed, the edited one first.
func (f *Form) Set(category, raw string) ([]string, error) {
	if _, ok := f.table.Category(category); !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCategory, category)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.values[category] = raw
	changed := []string{category}

	for _, pair := range f.table.Mirrors() {
		switch category {
		case pair.Target:
			f.overridden[pair] = true
		case pair.Source:
			if !f.overridden[pair] {
				f.values[pair.Target] = raw
				changed = append(changed, pair.Target)
			}
		}
	}
	return changed, nil
}

// Value returns the raw value of category ("" when never set).
func (f *Form) Value(category string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.values[category]
}

// Values returns a copy of all non-empty raw values.
func (f *Form) Values() map[string]string {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make(map[string]string, len(f.values))
	for k, v := range f.values {
		if v != "" {
			out[k] = v
		}
	}
	return out
}

// Mirroring reports whether edits of target are still copied from its source.
// Categories that are not a mirror target report false.
func (f *Form) Mirroring(target string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, pair := range f.table.Mirrors() {
		if pair.Target == target {
			return !f.overridden[pair]
		}
	}
	return false
}

// Reset clears every value and re-enables mirroring.
func (f *Form) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values = make(map[string]string)
	f.overridden = make(map[allowance.MirrorPair]bool)
}

// Counts coerces the current values for the engine.
func (f *Form) Counts() (allowance.Counts, []*allowance.InvalidCountError) {
	return CoerceStrings(f.table, f.Values())
}

// Calculate coerces the form and runs the engine.
func (f *Form) Calculate(rank string) (*allowance.Result, []*allowance.InvalidCountError, error) {
	counts, notices := f.Counts()
	result, err := allowance.Calculate(f.table, counts, rank)
	return result, notices, err
}
