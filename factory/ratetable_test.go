package factory_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/overtime-engine/allowance"
	"github.com/warp/overtime-engine/factory"
)

const rankedDoc = `{
  "id": "custom",
  "name": "Custom",
  "version": 4,
  "tax_rate": 0.1,
  "currency_symbol": "GH₵",
  "categories": [
    {"name": "Holiday", "rank_tier": "HOLIDAY"},
    {"name": "Regular Night", "unit": "day", "rate": 160},
    {"name": "Early Take-over", "unit": "occurrence", "rate": 40}
  ],
  "ranks": [{"name": "Level 2", "weekend_rate": 350, "holiday_rate": 525}],
  "mirrors": [{"source": "Regular Night", "target": "Early Take-over"}]
}`

func TestParseRateTable(t *testing.T) {
	table, err := factory.ParseRateTable(rankedDoc)
	require.NoError(t, err)

	assert.Equal(t, "custom", table.ID)
	assert.Equal(t, 4, table.Version)
	assert.True(t, decimal.RequireFromString("0.1").Equal(table.TaxRate))

	cats := table.Categories()
	require.Len(t, cats, 3)
	assert.Equal(t, "Regular Night", cats[0].Name)
	assert.Equal(t, "Holiday", cats[2].Name)
	assert.Equal(t, allowance.TierHoliday, cats[2].Rate.Tier)
	assert.Equal(t, allowance.UnitDay, cats[2].Unit)
}

func TestParseRateTable_Defaults(t *testing.T) {
	table, err := factory.ParseRateTable(`{"id": "min", "categories": [{"name": "A", "rate": 10}]}`)
	require.NoError(t, err)
	assert.Equal(t, 1, table.Version)
	assert.True(t, decimal.RequireFromString("0.05").Equal(table.TaxRate))
}

func TestParseRateTable_Errors(t *testing.T) {
	tests := map[string]string{
		"malformed":     `{"id": `,
		"both sources":  `{"id": "x", "categories": [{"name": "A", "rate": 1, "rank_tier": "weekend"}]}`,
		"no source":     `{"id": "x", "categories": [{"name": "A"}]}`,
		"unknown tier":  `{"id": "x", "categories": [{"name": "A", "rank_tier": "midweek"}], "ranks": [{"name": "R"}]}`,
		"missing ranks": `{"id": "x", "categories": [{"name": "A", "rank_tier": "weekend"}]}`,
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := factory.ParseRateTable(doc)
			assert.Error(t, err)
		})
	}

	_, err := factory.ParseRateTable(`{"id": "x", "categories": [{"name": "A"}]}`)
	assert.ErrorIs(t, err, allowance.ErrInvalidRateTable)
}

func TestParseRateTableYAML(t *testing.T) {
	doc := []byte(`
id: yaml-table
name: From YAML
version: 2
categories:
  - name: Regular Night
    rate: 160
  - name: Civic Day
    rate: 187.5
`)
	table, err := factory.ParseRateTableYAML(doc)
	require.NoError(t, err)

	civic, ok := table.Category("Civic Day")
	require.True(t, ok)
	assert.Equal(t, "187.5", civic.Rate.Amount.String())
	assert.Equal(t, 2, table.Version)
}

func TestLoadRateTableFile(t *testing.T) {
	dir := t.TempDir()

	jsonPath := filepath.Join(dir, "rates.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(rankedDoc), 0o600))
	table, err := factory.LoadRateTableFile(jsonPath)
	require.NoError(t, err)
	assert.Equal(t, "custom", table.ID)

	yamlPath := filepath.Join(dir, "rates.yml")
	require.NoError(t, os.WriteFile(yamlPath, []byte("id: y\ncategories:\n  - name: A\n    rate: 1\n"), 0o600))
	table, err = factory.LoadRateTableFile(yamlPath)
	require.NoError(t, err)
	assert.Equal(t, "y", table.ID)

	txtPath := filepath.Join(dir, "rates.txt")
	require.NoError(t, os.WriteFile(txtPath, []byte("x"), 0o600))
	_, err = factory.LoadRateTableFile(txtPath)
	assert.Error(t, err)

	_, err = factory.LoadRateTableFile(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}

func TestMarshalRateTable_RoundTrip(t *testing.T) {
	// GIVEN: The ranked preset
	original := factory.MustPreset(factory.PresetRankedV3)

	// WHEN: It is stored as JSON and parsed back
	doc, err := factory.MarshalRateTable(original)
	require.NoError(t, err)
	parsed, err := factory.ParseRateTable(doc)
	require.NoError(t, err)

	// THEN: Calculations agree
	counts := allowance.Counts{"Regular Night": 2, "Weekend Daytime": 1, "Holiday": 1}
	want, err := allowance.Calculate(original, counts, "Level 2")
	require.NoError(t, err)
	got, err := allowance.Calculate(parsed, counts, "Level 2")
	require.NoError(t, err)
	assert.True(t, want.NetAmount.Equal(got.NetAmount))
	assert.Equal(t, original.Mirrors(), parsed.Mirrors())
	assert.Equal(t, original.CurrencySymbol, parsed.CurrencySymbol)
}
