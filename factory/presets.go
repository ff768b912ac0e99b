/*
presets.go - Built-in rate tables

PURPOSE:
  The calculator's rates changed over time. Each revision is kept as a
  versioned preset so older payslips can be recomputed with the rates that
  applied when they were issued.

AVAILABLE PRESETS:
  fixed-v1:   Six fixed categories, including Civic Day at 187.50
  fixed-v2:   Civic Day retired, five fixed categories
  ranked-v3:  Weekend Daytime and Holiday priced by rank (default)

All presets deduct 5% tax, display amounts in GH₵ and pre-fill Early
Take-over from Regular Night.
*/
package factory

import (
	"fmt"
	"sort"

	"github.com/warp/overtime-engine/allowance"
)

const (
	PresetFixedV1  = "fixed-v1"
	PresetFixedV2  = "fixed-v2"
	PresetRankedV3 = "ranked-v3"

	// DefaultPreset is the rate table used when none is configured.
	DefaultPreset = PresetRankedV3
)

const (
	CategoryRegularNight     = "Regular Night"
	CategoryWeekendNighttime = "Weekend Nighttime"
	CategoryWeekendDaytime   = "Weekend Daytime"
	CategoryHoliday          = "Holiday"
	CategoryEarlyTakeover    = "Early Take-over"
	CategoryCivicDay         = "Civic Day"
)

var presets = map[string]func() RateTableJSON{
	PresetFixedV1:  FixedV1JSON,
	PresetFixedV2:  FixedV2JSON,
	PresetRankedV3: RankedV3JSON,
}

// PresetIDs returns the preset ids in sorted order.
func PresetIDs() []string {
	ids := make([]string, 0, len(presets))
	for id := range presets {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Preset builds the named preset.
func Preset(id string) (*allowance.RateTable, error) {
	build, ok := presets[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", allowance.ErrRateTableNotFound, id)
	}
	return FromJSON(build())
}

// MustPreset is Preset for presets known to exist; it panics otherwise.
func MustPreset(id string) *allowance.RateTable {
	table, err := Preset(id)
	if err != nil {
		panic(err)
	}
	return table
}

// =============================================================================
// PRESET DOCUMENTS
// =============================================================================

// FixedV1JSON is the original all-fixed rate set.
func FixedV1JSON() RateTableJSON {
	doc := baseJSON(PresetFixedV1, "Fixed rates", 1)
	doc.Categories = []CategoryJSON{
		fixed(CategoryRegularNight, "day", 160),
		fixed(CategoryWeekendNighttime, "day", 200),
		fixed(CategoryWeekendDaytime, "day", 250),
		fixed(CategoryHoliday, "day", 375),
		fixed(CategoryEarlyTakeover, "occurrence", 40),
		fixed(CategoryCivicDay, "day", 187.50),
	}
	return doc
}

// FixedV2JSON drops Civic Day from the v1 set.
func FixedV2JSON() RateTableJSON {
	doc := baseJSON(PresetFixedV2, "Fixed rates without Civic Day", 2)
	doc.Categories = []CategoryJSON{
		fixed(CategoryRegularNight, "day", 160),
		fixed(CategoryWeekendNighttime, "day", 200),
		fixed(CategoryWeekendDaytime, "day", 250),
		fixed(CategoryHoliday, "day", 375),
		fixed(CategoryEarlyTakeover, "occurrence", 40),
	}
	return doc
}

// RankedV3JSON prices weekend daytime and holiday work by rank.
func RankedV3JSON() RateTableJSON {
	doc := baseJSON(PresetRankedV3, "Rank-based rates", 3)
	doc.Categories = []CategoryJSON{
		fixed(CategoryRegularNight, "day", 160),
		fixed(CategoryWeekendNighttime, "day", 200),
		fixed(CategoryEarlyTakeover, "occurrence", 40),
		{Name: CategoryWeekendDaytime, Unit: "day", RankTier: string(allowance.TierWeekend)},
		{Name: CategoryHoliday, Unit: "day", RankTier: string(allowance.TierHoliday)},
	}
	doc.Ranks = []RankJSON{
		{Name: "Trainee", WeekendRate: 250, HolidayRate: 375},
		{Name: "Level 2", WeekendRate: 350, HolidayRate: 525},
		{Name: "Level 3", WeekendRate: 400, HolidayRate: 600},
		{Name: "Supervisor", WeekendRate: 500, HolidayRate: 750},
	}
	return doc
}

func baseJSON(id, name string, version int) RateTableJSON {
	tax := DefaultTaxRate
	return RateTableJSON{
		ID:             id,
		Name:           name,
		Version:        version,
		TaxRate:        &tax,
		CurrencySymbol: "GH₵",
		CurrencyCode:   "GHS",
		Mirrors:        []MirrorJSON{{Source: CategoryRegularNight, Target: CategoryEarlyTakeover}},
	}
}

func fixed(name, unit string, rate float64) CategoryJSON {
	return CategoryJSON{Name: name, Unit: unit, Rate: &rate}
}
