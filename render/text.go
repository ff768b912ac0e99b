package render

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Theme selects a terminal palette. Values match the "theme" preference.
type Theme string

const (
	ThemeDark  Theme = "dark"
	ThemeLight Theme = "light"
)

// Palette is the set of styles used by Text.
type Palette struct {
	Title  lipgloss.Style
	Label  lipgloss.Style
	Detail lipgloss.Style
	Amount lipgloss.Style
	Tax    lipgloss.Style
	Net    lipgloss.Style
	Box    lipgloss.Style
}

var (
	brandGreen = lipgloss.Color("#78C144")
	taxRed     = lipgloss.Color("#E74C3C")
)

// PaletteFor returns the palette for theme; unknown themes get the dark one.
func PaletteFor(theme Theme) Palette {
	text, subtle, border := lipgloss.Color("#EEEEEE"), lipgloss.Color("#888888"), lipgloss.Color("#444444")
	if theme == ThemeLight {
		text, subtle, border = lipgloss.Color("#222222"), lipgloss.Color("#666666"), lipgloss.Color("#BBBBBB")
	}
	return Palette{
		Title:  lipgloss.NewStyle().Bold(true).Foreground(brandGreen),
		Label:  lipgloss.NewStyle().Foreground(text),
		Detail: lipgloss.NewStyle().Foreground(subtle),
		Amount: lipgloss.NewStyle().Foreground(text),
		Tax:    lipgloss.NewStyle().Foreground(taxRed),
		Net:    lipgloss.NewStyle().Bold(true).Foreground(brandGreen),
		Box: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(border).
			Padding(0, 1),
	}
}

// Text renders b as a boxed terminal table.
func Text(b Breakdown, theme Theme) string {
	p := PaletteFor(theme)

	type line struct{ left, right string }
	var lines []line
	for _, r := range b.Rows {
		lines = append(lines, line{
			left:  p.Label.Render(r.Label+":") + " " + p.Detail.Render(r.Detail),
			right: p.Amount.Render(r.Amount),
		})
	}
	lines = append(lines,
		line{left: p.Label.Bold(true).Render("Gross Total:"), right: p.Amount.Bold(true).Render(b.Gross)},
		line{left: p.Tax.Render(b.TaxLabel + ":"), right: p.Tax.Render(b.Tax)},
		line{left: p.Net.Render("Net Amount (After Tax):"), right: p.Net.Render(b.Net)},
	)

	width := 0
	for _, l := range lines {
		if w := lipgloss.Width(l.left) + lipgloss.Width(l.right) + 4; w > width {
			width = w
		}
	}

	var sb strings.Builder
	title := "Overtime Allowance"
	if b.Rank != "" {
		title += " · " + b.Rank
	}
	sb.WriteString(p.Title.Render(title))
	sb.WriteString("\n")
	sb.WriteString(p.Net.Render(b.Headline))
	sb.WriteString("\n\n")
	for i, l := range lines {
		gap := width - lipgloss.Width(l.left) - lipgloss.Width(l.right)
		sb.WriteString(l.left + strings.Repeat(" ", gap) + l.right)
		if i < len(lines)-1 {
			sb.WriteString("\n")
		}
	}

	return p.Box.Render(sb.String())
}
