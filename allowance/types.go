/*
Package allowance provides the overtime allowance engine.

PURPOSE:
  Turns per-category day/occurrence counts into an itemized allowance:
  per-category subtotals, a gross total, a flat tax deduction and the net
  amount paid out. Everything else (forms, rendering, preferences, HTTP)
  depends on this package; it depends on nothing but decimal arithmetic.

KEY CONCEPTS IN THIS FILE (types.go):
  - RateCategory: A named kind of overtime work with its own rate source
  - RateSource: Either a fixed per-unit rate or a rank-dependent tier
  - RankTier: A personnel grade carrying weekend and holiday rates
  - LineItem / Result: The ephemeral output of one calculation pass

DESIGN PRINCIPLES:
  1. Precision: All money uses decimal.Decimal, never float64 arithmetic
  2. Purity: Calculate has no side effects and keeps no state
  3. Configuration: Rates, ranks and the tax rate live in a RateTable that
     is injected into the engine, never inline literals

USAGE:
  table, _ := factory.Preset(factory.PresetRankedV3)
  result, err := allowance.Calculate(table, allowance.Counts{
      "Regular Night":   2,
      "Weekend Daytime": 1,
  }, "Level 2")

SEE ALSO:
  - ratetable.go: RateTable construction and validation
  - engine.go: The calculation pass
  - currency.go: Floor-to-cent display formatting
  - errors.go: NoInputError, MissingRankError, InvalidCountError
*/
package allowance

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// UNITS - How a category's count is described
// =============================================================================

type Unit string

const (
	UnitDay        Unit = "day"
	UnitOccurrence Unit = "occurrence"
)

// Plural returns the unit name for the given count ("1 day", "2 days").
func (u Unit) Plural(count int) string {
	if count == 1 {
		return string(u)
	}
	return string(u) + "s"
}

// =============================================================================
// RATE SOURCES - Fixed constant or rank-dependent tier
// =============================================================================

type RateKind string

const (
	RateFixed         RateKind = "fixed"
	RateRankDependent RateKind = "rank_dependent"
)

// Tier selects which rank rate a rank-dependent category uses.
type Tier string

const (
	TierWeekend Tier = "weekend"
	TierHoliday Tier = "holiday"
)

// RateSource is a tagged rate: Fixed carries Amount, RankDependent carries Tier.
type RateSource struct {
	Kind   RateKind
	Amount decimal.Decimal
	Tier   Tier
}

func FixedRate(amount decimal.Decimal) RateSource {
	return RateSource{Kind: RateFixed, Amount: amount}
}

func RankRate(tier Tier) RateSource {
	return RateSource{Kind: RateRankDependent, Tier: tier}
}

func (s RateSource) IsRankDependent() bool { return s.Kind == RateRankDependent }

// =============================================================================
// CATEGORIES AND RANKS
// =============================================================================

// RateCategory is a named pay category. Name is the unique key used by inputs.
type RateCategory struct {
	Name string
	Unit Unit
	Rate RateSource
}

// RankTier is a personnel grade with its rank-dependent rates.
type RankTier struct {
	Name        string
	WeekendRate decimal.Decimal
	HolidayRate decimal.Decimal
}

// Rate returns the rank's rate for the given tier.
func (r RankTier) Rate(tier Tier) (decimal.Decimal, bool) {
	switch tier {
	case TierWeekend:
		return r.WeekendRate, true
	case TierHoliday:
		return r.HolidayRate, true
	}
	return decimal.Zero, false
}

// MirrorPair names two categories whose input fields are kept in sync by the
// input collector until the target is edited directly.
type MirrorPair struct {
	Source string
	Target string
}

// =============================================================================
// CALCULATION INPUT AND OUTPUT
// =============================================================================

// Counts maps category name to a day/occurrence count. Absent means zero.
type Counts map[string]int

// LineItem is one non-zero category in a calculation.
type LineItem struct {
	Category RateCategory
	Count    int
	UnitRate decimal.Decimal
	Subtotal decimal.Decimal
}

// Result is the unrounded outcome of a calculation. Rounding is a display
// concern handled by FormatCurrency.
type Result struct {
	TableID      string
	TableVersion int
	Rank         string // empty when no rank-dependent category was used
	LineItems    []LineItem
	GrossTotal   decimal.Decimal
	TaxRate      decimal.Decimal
	TaxAmount    decimal.Decimal
	NetAmount    decimal.Decimal
}
