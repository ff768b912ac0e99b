package allowance

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// =============================================================================
// RATE TABLE - The single injectable rate configuration
// =============================================================================

// RateTable is an immutable, validated rate configuration. Build it with
// NewRateTable; the zero value is not usable.
type RateTable struct {
	ID             string
	Name           string
	Version        int
	TaxRate        decimal.Decimal
	CurrencySymbol string
	CurrencyCode   string

	categories []RateCategory
	ranks      []RankTier
	mirrors    []MirrorPair

	categoryIndex map[string]int
	rankIndex     map[string]int
}

// RateTableConfig is the input to NewRateTable.
type RateTableConfig struct {
	ID             string
	Name           string
	Version        int
	TaxRate        decimal.Decimal
	CurrencySymbol string
	CurrencyCode   string
	Categories     []RateCategory
	Ranks          []RankTier
	Mirrors        []MirrorPair
}

// NewRateTable validates cfg and returns a table whose categories are ordered
// fixed-rate first, then rank-dependent, each group in declared order.
func NewRateTable(cfg RateTableConfig) (*RateTable, error) {
	invalid := func(format string, args ...any) error {
		return &RateTableError{TableID: cfg.ID, Reason: fmt.Sprintf(format, args...)}
	}

	if strings.TrimSpace(cfg.ID) == "" {
		return nil, invalid("id is required")
	}
	if len(cfg.Categories) == 0 {
		return nil, invalid("at least one category is required")
	}
	if cfg.TaxRate.IsNegative() || cfg.TaxRate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return nil, invalid("tax rate %s must be in [0, 1)", cfg.TaxRate)
	}

	t := &RateTable{
		ID:             cfg.ID,
		Name:           cfg.Name,
		Version:        cfg.Version,
		TaxRate:        cfg.TaxRate,
		CurrencySymbol: cfg.CurrencySymbol,
		CurrencyCode:   cfg.CurrencyCode,
		categoryIndex:  make(map[string]int, len(cfg.Categories)),
		rankIndex:      make(map[string]int, len(cfg.Ranks)),
	}

	var fixed, ranked []RateCategory
	for _, c := range cfg.Categories {
		if strings.TrimSpace(c.Name) == "" {
			return nil, invalid("category name is required")
		}
		switch c.Unit {
		case UnitDay, UnitOccurrence:
		case "":
			c.Unit = UnitDay
		default:
			return nil, invalid("category %q: unknown unit %q", c.Name, c.Unit)
		}
		switch c.Rate.Kind {
		case RateFixed:
			if c.Rate.Amount.IsNegative() {
				return nil, invalid("category %q: negative rate", c.Name)
			}
			fixed = append(fixed, c)
		case RateRankDependent:
			if c.Rate.Tier != TierWeekend && c.Rate.Tier != TierHoliday {
				return nil, invalid("category %q: unknown tier %q", c.Name, c.Rate.Tier)
			}
			ranked = append(ranked, c)
		default:
			return nil, invalid("category %q: unknown rate kind %q", c.Name, c.Rate.Kind)
		}
	}

	t.categories = append(fixed, ranked...)
	for i, c := range t.categories {
		if _, dup := t.categoryIndex[c.Name]; dup {
			return nil, invalid("duplicate category %q", c.Name)
		}
		t.categoryIndex[c.Name] = i
	}

	if len(ranked) > 0 && len(cfg.Ranks) == 0 {
		return nil, invalid("rank-dependent categories need at least one rank")
	}
	for i, r := range cfg.Ranks {
		if strings.TrimSpace(r.Name) == "" {
			return nil, invalid("rank name is required")
		}
		if _, dup := t.rankIndex[r.Name]; dup {
			return nil, invalid("duplicate rank %q", r.Name)
		}
		if r.WeekendRate.IsNegative() || r.HolidayRate.IsNegative() {
			return nil, invalid("rank %q: negative rate", r.Name)
		}
		t.rankIndex[r.Name] = i
	}
	t.ranks = append([]RankTier(nil), cfg.Ranks...)

	for _, m := range cfg.Mirrors {
		if m.Source == m.Target {
			return nil, invalid("mirror %q onto itself", m.Source)
		}
		if _, ok := t.categoryIndex[m.Source]; !ok {
			return nil, invalid("mirror source %q is not a category", m.Source)
		}
		if _, ok := t.categoryIndex[m.Target]; !ok {
			return nil, invalid("mirror target %q is not a category", m.Target)
		}
	}
	t.mirrors = append([]MirrorPair(nil), cfg.Mirrors...)

	return t, nil
}

// Categories returns the categories in calculation order.
func (t *RateTable) Categories() []RateCategory {
	return append([]RateCategory(nil), t.categories...)
}

// Ranks returns the ranks in declared order.
func (t *RateTable) Ranks() []RankTier {
	return append([]RankTier(nil), t.ranks...)
}

// Mirrors returns the mirrored field pairs.
func (t *RateTable) Mirrors() []MirrorPair {
	return append([]MirrorPair(nil), t.mirrors...)
}

func (t *RateTable) Category(name string) (RateCategory, bool) {
	i, ok := t.categoryIndex[name]
	if !ok {
		return RateCategory{}, false
	}
	return t.categories[i], true
}

// Rank looks up a rank by name. Surrounding whitespace is ignored.
func (t *RateTable) Rank(name string) (RankTier, bool) {
	i, ok := t.rankIndex[strings.TrimSpace(name)]
	if !ok {
		return RankTier{}, false
	}
	return t.ranks[i], true
}

// UsesRanks reports whether any category is rank-dependent.
func (t *RateTable) UsesRanks() bool {
	for _, c := range t.categories {
		if c.Rate.IsRankDependent() {
			return true
		}
	}
	return false
}
