package render

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/go-pdf/fpdf"
)

const (
	pageWidth    = 210.0
	marginLeft   = 20.0
	marginRight  = 20.0
	marginTop    = 20.0
	contentWidth = pageWidth - marginLeft - marginRight
	amountWidth  = 40.0
)

// PayslipMeta is printed in the payslip header.
type PayslipMeta struct {
	Title        string
	CurrencyCode string // core fonts cannot draw symbols such as ₵
	GeneratedAt  time.Time
}

// PDF writes b as a one-page A4 payslip.
func PDF(w io.Writer, b Breakdown, meta PayslipMeta) error {
	if meta.Title == "" {
		meta.Title = "Overtime Allowance"
	}
	if meta.GeneratedAt.IsZero() {
		meta.GeneratedAt = time.Now()
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(marginLeft, marginTop, marginRight)
	pdf.SetAutoPageBreak(true, marginTop)
	pdf.SetCreationDate(meta.GeneratedAt)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.AddPage()

	pdf.SetFont("Arial", "B", 18)
	pdf.SetTextColor(40, 40, 40)
	pdf.CellFormat(contentWidth, 10, tr(meta.Title), "", 1, "L", false, 0, "")

	pdf.SetFont("Arial", "", 10)
	pdf.SetTextColor(110, 110, 110)
	sub := fmt.Sprintf("Rate table %s  |  Generated %s", b.Table, meta.GeneratedAt.Format("2 January 2006"))
	if b.Rank != "" {
		sub = fmt.Sprintf("Rank %s  |  %s", b.Rank, sub)
	}
	pdf.CellFormat(contentWidth, 6, tr(sub), "", 1, "L", false, 0, "")
	pdf.Ln(6)

	code := ""
	if meta.CurrencyCode != "" {
		code = " " + meta.CurrencyCode
	}

	pdf.SetFont("Arial", "B", 11)
	pdf.SetFillColor(240, 244, 238)
	pdf.SetTextColor(40, 40, 40)
	pdf.CellFormat(contentWidth-amountWidth, 8, "Category", "B", 0, "L", true, 0, "")
	pdf.CellFormat(amountWidth, 8, "Amount"+code, "B", 1, "R", true, 0, "")

	pdf.SetFont("Arial", "", 11)
	for _, r := range b.Rows {
		pdf.CellFormat(contentWidth-amountWidth, 7, tr(r.Label+": "+r.Detail), "", 0, "L", false, 0, "")
		pdf.CellFormat(amountWidth, 7, r.Amount, "", 1, "R", false, 0, "")
	}

	pdf.SetDrawColor(200, 200, 200)
	pdf.Line(marginLeft, pdf.GetY()+1, marginLeft+contentWidth, pdf.GetY()+1)
	pdf.Ln(3)

	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(contentWidth-amountWidth, 7, "Gross Total", "", 0, "L", false, 0, "")
	pdf.CellFormat(amountWidth, 7, b.Gross, "", 1, "R", false, 0, "")

	pdf.SetFont("Arial", "", 11)
	pdf.SetTextColor(231, 76, 60)
	pdf.CellFormat(contentWidth-amountWidth, 7, tr(b.TaxLabel), "", 0, "L", false, 0, "")
	pdf.CellFormat(amountWidth, 7, b.Tax, "", 1, "R", false, 0, "")

	pdf.SetFont("Arial", "B", 12)
	pdf.SetTextColor(40, 40, 40)
	pdf.SetFillColor(228, 243, 217)
	pdf.CellFormat(contentWidth-amountWidth, 9, "Net Amount (After Tax)", "", 0, "L", true, 0, "")
	pdf.CellFormat(amountWidth, 9, b.Net+code, "", 1, "R", true, 0, "")

	pdf.Ln(8)
	pdf.SetFont("Arial", "I", 8)
	pdf.SetTextColor(130, 130, 130)
	pdf.MultiCell(contentWidth, 4, "Amounts are truncated to the cent, never rounded up.", "", "L", false)

	return pdf.Output(w)
}

// PDFBytes is PDF into a byte slice.
func PDFBytes(b Breakdown, meta PayslipMeta) ([]byte, error) {
	var buf bytes.Buffer
	if err := PDF(&buf, b, meta); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
