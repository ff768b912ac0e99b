/*
engine.go - The allowance calculation pass

ALGORITHM:
  1. Walk the table's categories in order, skipping zero counts
  2. Resolve the unit rate: the fixed constant, or the selected rank's
     weekend/holiday rate for rank-dependent categories
  3. subtotal = count * unitRate, appended as a LineItem
  4. gross = sum of subtotals
  5. tax = gross * table.TaxRate
  6. net = gross - tax

Nothing is rounded here. FormatCurrency floors to the cent at display time.

ERRORS:
  - NoInputError when every count is zero (checked first)
  - MissingRankError when a rank-dependent category has a count but the
    rank is empty or not in the table

Negative counts are treated as zero. Names that are not categories of the
table are ignored; the input collector reports them to the user.
*/
package allowance

import (
	"github.com/shopspring/decimal"
)

// Engine binds a rate table for repeated calculations. It holds no mutable
// state and is safe for concurrent use.
type Engine struct {
	table *RateTable
}

func NewEngine(table *RateTable) *Engine {
	return &Engine{table: table}
}

// Table returns the engine's rate table.
func (e *Engine) Table() *RateTable {
	return e.table
}

// Calculate runs one calculation pass against the engine's table.
func (e *Engine) Calculate(inputs Counts, rank string) (*Result, error) {
	return Calculate(e.table, inputs, rank)
}

// Calculate computes the allowance for inputs under table. rank is only
// consulted when a rank-dependent category has a non-zero count.
func Calculate(table *RateTable, inputs Counts, rank string) (*Result, error) {
	var active []RateCategory
	for _, c := range table.categories {
		if count(inputs, c.Name) > 0 {
			active = append(active, c)
		}
	}
	if len(active) == 0 {
		return nil, &NoInputError{TableID: table.ID}
	}

	result := &Result{
		TableID:      table.ID,
		TableVersion: table.Version,
		LineItems:    make([]LineItem, 0, len(active)),
		GrossTotal:   decimal.Zero,
		TaxRate:      table.TaxRate,
	}

	for _, c := range active {
		n := count(inputs, c.Name)

		rate, err := resolveRate(table, c, rank)
		if err != nil {
			return nil, err
		}
		if c.Rate.IsRankDependent() {
			tier, _ := table.Rank(rank)
			result.Rank = tier.Name
		}

		subtotal := rate.Mul(decimal.NewFromInt(int64(n)))
		result.LineItems = append(result.LineItems, LineItem{
			Category: c,
			Count:    n,
			UnitRate: rate,
			Subtotal: subtotal,
		})
		result.GrossTotal = result.GrossTotal.Add(subtotal)
	}

	result.TaxAmount = result.GrossTotal.Mul(table.TaxRate)
	result.NetAmount = result.GrossTotal.Sub(result.TaxAmount)
	return result, nil
}

func resolveRate(table *RateTable, c RateCategory, rank string) (decimal.Decimal, error) {
	if !c.Rate.IsRankDependent() {
		return c.Rate.Amount, nil
	}
	tier, ok := table.Rank(rank)
	if !ok {
		return decimal.Zero, &MissingRankError{Rank: rank, Category: c.Name}
	}
	rate, ok := tier.Rate(c.Rate.Tier)
	if !ok {
		return decimal.Zero, &MissingRankError{Rank: rank, Category: c.Name}
	}
	return rate, nil
}

func count(inputs Counts, name string) int {
	n := inputs[name]
	if n < 0 {
		return 0
	}
	return n
}
