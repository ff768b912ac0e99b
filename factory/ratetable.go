/*
Package factory provides JSON/YAML to Go rate-table conversion.

PURPOSE:
  Converts rate-table documents into validated allowance.RateTable values.
  Rates change between calculator versions (categories added, dropped, or
  made rank-dependent), so the active rate set is data, not code: it can be
  stored in SQLite, loaded from a YAML file, or picked from a preset.

JSON SCHEMA:
  {
    "id": "ranked-v3",
    "name": "Rank-based rates",
    "version": 3,
    "tax_rate": 0.05,
    "currency_symbol": "GH₵",
    "currency_code": "GHS",
    "categories": [
      {"name": "Regular Night", "unit": "day", "rate": 160},
      {"name": "Early Take-over", "unit": "occurrence", "rate": 40},
      {"name": "Holiday", "unit": "day", "rank_tier": "holiday"}
    ],
    "ranks": [
      {"name": "Level 2", "weekend_rate": 350, "holiday_rate": 525}
    ],
    "mirrors": [
      {"source": "Regular Night", "target": "Early Take-over"}
    ]
  }

  A category carries exactly one of "rate" or "rank_tier". YAML documents
  use the same keys.

DEFAULTS:
  - version: 1
  - tax_rate: 0.05
  - unit: "day"

SEE ALSO:
  - presets.go: Built-in versioned rate tables
  - allowance/ratetable.go: Validation rules
*/
package factory

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/warp/overtime-engine/allowance"
)

// DefaultTaxRate applies when a document omits tax_rate.
const DefaultTaxRate = 0.05

// =============================================================================
// DOCUMENT SCHEMA TYPES
// =============================================================================

// RateTableJSON is the JSON/YAML representation of a rate table.
type RateTableJSON struct {
	ID             string         `json:"id" yaml:"id"`
	Name           string         `json:"name" yaml:"name"`
	Version        int            `json:"version,omitempty" yaml:"version,omitempty"`
	TaxRate        *float64       `json:"tax_rate,omitempty" yaml:"tax_rate,omitempty"`
	CurrencySymbol string         `json:"currency_symbol,omitempty" yaml:"currency_symbol,omitempty"`
	CurrencyCode   string         `json:"currency_code,omitempty" yaml:"currency_code,omitempty"`
	Categories     []CategoryJSON `json:"categories" yaml:"categories"`
	Ranks          []RankJSON     `json:"ranks,omitempty" yaml:"ranks,omitempty"`
	Mirrors        []MirrorJSON   `json:"mirrors,omitempty" yaml:"mirrors,omitempty"`
}

// CategoryJSON represents one pay category.
type CategoryJSON struct {
	Name     string   `json:"name" yaml:"name"`
	Unit     string   `json:"unit,omitempty" yaml:"unit,omitempty"` // day, occurrence
	Rate     *float64 `json:"rate,omitempty" yaml:"rate,omitempty"`
	RankTier string   `json:"rank_tier,omitempty" yaml:"rank_tier,omitempty"` // weekend, holiday
}

// RankJSON represents a personnel rank.
type RankJSON struct {
	Name        string  `json:"name" yaml:"name"`
	WeekendRate float64 `json:"weekend_rate" yaml:"weekend_rate"`
	HolidayRate float64 `json:"holiday_rate" yaml:"holiday_rate"`
}

// MirrorJSON represents a mirrored field pair.
type MirrorJSON struct {
	Source string `json:"source" yaml:"source"`
	Target string `json:"target" yaml:"target"`
}

// =============================================================================
// PARSING
// =============================================================================

// ParseRateTable parses a JSON document into a RateTable.
func ParseRateTable(jsonStr string) (*allowance.RateTable, error) {
	var doc RateTableJSON
	if err := json.Unmarshal([]byte(jsonStr), &doc); err != nil {
		return nil, fmt.Errorf("failed to parse rate table JSON: %w", err)
	}
	return FromJSON(doc)
}

// ParseRateTableYAML parses a YAML document into a RateTable.
func ParseRateTableYAML(data []byte) (*allowance.RateTable, error) {
	var doc RateTableJSON
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse rate table YAML: %w", err)
	}
	return FromJSON(doc)
}

// LoadRateTableFile reads a .json, .yaml or .yml rate-table file.
func LoadRateTableFile(path string) (*allowance.RateTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rate table: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return ParseRateTable(string(data))
	case ".yaml", ".yml":
		return ParseRateTableYAML(data)
	default:
		return nil, fmt.Errorf("unsupported rate table format %q", filepath.Ext(path))
	}
}

// FromJSON converts a document to a validated RateTable.
func FromJSON(doc RateTableJSON) (*allowance.RateTable, error) {
	cfg := allowance.RateTableConfig{
		ID:             doc.ID,
		Name:           doc.Name,
		Version:        doc.Version,
		TaxRate:        decimal.NewFromFloat(DefaultTaxRate),
		CurrencySymbol: doc.CurrencySymbol,
		CurrencyCode:   doc.CurrencyCode,
	}
	if cfg.Version == 0 {
		cfg.Version = 1
	}
	if doc.TaxRate != nil {
		cfg.TaxRate = decimal.NewFromFloat(*doc.TaxRate)
	}

	for _, cj := range doc.Categories {
		rate, err := parseRateSource(cj)
		if err != nil {
			return nil, &allowance.RateTableError{TableID: doc.ID, Reason: err.Error()}
		}
		cfg.Categories = append(cfg.Categories, allowance.RateCategory{
			Name: strings.TrimSpace(cj.Name),
			Unit: allowance.Unit(cj.Unit),
			Rate: rate,
		})
	}

	for _, rj := range doc.Ranks {
		cfg.Ranks = append(cfg.Ranks, allowance.RankTier{
			Name:        strings.TrimSpace(rj.Name),
			WeekendRate: decimal.NewFromFloat(rj.WeekendRate),
			HolidayRate: decimal.NewFromFloat(rj.HolidayRate),
		})
	}

	for _, mj := range doc.Mirrors {
		cfg.Mirrors = append(cfg.Mirrors, allowance.MirrorPair{Source: mj.Source, Target: mj.Target})
	}

	return allowance.NewRateTable(cfg)
}

// ToJSON converts a RateTable back to its document form.
func ToJSON(table *allowance.RateTable) RateTableJSON {
	tax, _ := table.TaxRate.Float64()
	doc := RateTableJSON{
		ID:             table.ID,
		Name:           table.Name,
		Version:        table.Version,
		TaxRate:        &tax,
		CurrencySymbol: table.CurrencySymbol,
		CurrencyCode:   table.CurrencyCode,
	}

	for _, c := range table.Categories() {
		cj := CategoryJSON{Name: c.Name, Unit: string(c.Unit)}
		if c.Rate.IsRankDependent() {
			cj.RankTier = string(c.Rate.Tier)
		} else {
			v, _ := c.Rate.Amount.Float64()
			cj.Rate = &v
		}
		doc.Categories = append(doc.Categories, cj)
	}

	for _, r := range table.Ranks() {
		weekend, _ := r.WeekendRate.Float64()
		holiday, _ := r.HolidayRate.Float64()
		doc.Ranks = append(doc.Ranks, RankJSON{Name: r.Name, WeekendRate: weekend, HolidayRate: holiday})
	}

	for _, m := range table.Mirrors() {
		doc.Mirrors = append(doc.Mirrors, MirrorJSON{Source: m.Source, Target: m.Target})
	}

	return doc
}

// MarshalRateTable renders a table as an indented JSON document, the form
// stored in the rate_tables table.
func MarshalRateTable(table *allowance.RateTable) (string, error) {
	data, err := json.MarshalIndent(ToJSON(table), "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal rate table: %w", err)
	}
	return string(data), nil
}

// =============================================================================
// PARSING HELPERS
// =============================================================================

func parseRateSource(cj CategoryJSON) (allowance.RateSource, error) {
	switch {
	case cj.Rate != nil && cj.RankTier != "":
		return allowance.RateSource{}, fmt.Errorf("category %q has both rate and rank_tier", cj.Name)
	case cj.Rate != nil:
		return allowance.FixedRate(decimal.NewFromFloat(*cj.Rate)), nil
	case cj.RankTier != "":
		return allowance.RankRate(allowance.Tier(strings.ToLower(cj.RankTier))), nil
	default:
		return allowance.RateSource{}, fmt.Errorf("category %q needs rate or rank_tier", cj.Name)
	}
}
