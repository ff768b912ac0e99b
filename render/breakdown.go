/*
Package render turns allowance results into display output.

PURPOSE:
  The engine returns unrounded decimals. This package applies the display
  policy (floor to the cent, two fraction digits, locale grouping) and lays
  out the itemized breakdown shown to the user:

    Regular Night:      2 days × 160          320.00
    Weekend Daytime:    1 day × 350           350.00
    Holiday:            1 day × 525           525.00
    Gross Total:                            1,195.00
    Tax Deduction (5%):                       -59.75
    Net Amount (After Tax):                 1,135.25

OUTPUTS:
  - Breakdown: Plain rows, serialized by the API and used by the web page
  - Text: Lipgloss box for terminals
  - PDF: One-page payslip

SEE ALSO:
  - allowance/currency.go: FormatCurrency
*/
package render

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/warp/overtime-engine/allowance"
)

// Row is one line item of the breakdown.
type Row struct {
	Label  string `json:"label"`
	Detail string `json:"detail"`
	Amount string `json:"amount"`
}

// Breakdown is a fully formatted calculation result.
type Breakdown struct {
	Rows     []Row  `json:"rows"`
	Gross    string `json:"gross"`
	TaxLabel string `json:"tax_label"`
	Tax      string `json:"tax"`
	Net      string `json:"net"`
	Headline string `json:"headline"`
	Rank     string `json:"rank,omitempty"`
	Table    string `json:"table"`
}

// NewBreakdown formats result. symbol is appended to the headline net amount.
func NewBreakdown(result *allowance.Result, f *allowance.CurrencyFormatter, symbol string) Breakdown {
	b := Breakdown{
		Rows:     make([]Row, 0, len(result.LineItems)),
		Gross:    f.Format(result.GrossTotal),
		TaxLabel: fmt.Sprintf("Tax Deduction (%s%%)", result.TaxRate.Mul(decimal.NewFromInt(100)).String()),
		Tax:      "-" + f.Format(result.TaxAmount),
		Net:      f.Format(result.NetAmount),
		Rank:     result.Rank,
		Table:    result.TableID,
	}

	b.Headline = b.Net
	if symbol != "" {
		b.Headline = b.Net + " " + symbol
	}

	for _, li := range result.LineItems {
		b.Rows = append(b.Rows, Row{
			Label:  li.Category.Name,
			Detail: fmt.Sprintf("%d %s × %s", li.Count, li.Category.Unit.Plural(li.Count), li.UnitRate.String()),
			Amount: f.Format(li.Subtotal),
		})
	}
	return b
}
