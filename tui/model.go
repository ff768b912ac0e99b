/*
Package tui is the interactive terminal form for the calculator.

PURPOSE:
  One text field per rate category, in rate-table order. Typing into a
  mirror source copies the value into its target until the target is
  edited directly. Enter calculates and renders the breakdown below the
  form.

KEYS:
  tab / down        next field
  shift+tab / up    previous field
  ctrl+n / ctrl+p   next / previous rank (ranked tables only)
  ctrl+t            toggle dark / light theme
  enter             calculate
  ctrl+r            reset every field and re-enable mirroring
  esc / ctrl+c      quit

  The selected rank and theme are saved through the preference service
  when one is configured.

SEE ALSO:
  - collector/form.go: Field values and mirroring
  - render/text.go: Breakdown rendering
*/
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/text/language"

	"github.com/warp/overtime-engine/allowance"
	"github.com/warp/overtime-engine/collector"
	"github.com/warp/overtime-engine/preference"
	"github.com/warp/overtime-engine/render"
)

// Options configures a Model.
type Options struct {
	// Prefs loads and saves theme and rank. Nil disables persistence.
	Prefs     *preference.Service
	Formatter *allowance.CurrencyFormatter
}

// Model is the bubbletea model for the form.
type Model struct {
	ctx        context.Context
	form       *collector.Form
	categories []allowance.RateCategory
	sources    map[string]string
	inputs     []textinput.Model
	focus      int

	ranks   []string
	rankIdx int // -1 when no rank is selected

	theme     render.Theme
	prefs     *preference.Service
	formatter *allowance.CurrencyFormatter

	breakdown *render.Breakdown
	notices   []string
	err       error
	status    string
}

// NewModel builds a form for table. Saved preferences are applied when
// opts.Prefs is set.
func NewModel(ctx context.Context, table *allowance.RateTable, opts Options) Model {
	m := Model{
		ctx:        ctx,
		form:       collector.NewForm(table),
		categories: table.Categories(),
		sources:    make(map[string]string),
		rankIdx:    -1,
		theme:      render.ThemeLight,
		prefs:      opts.Prefs,
		formatter:  opts.Formatter,
	}
	if m.formatter == nil {
		m.formatter = allowance.NewCurrencyFormatter(language.English)
	}

	for _, pair := range table.Mirrors() {
		m.sources[pair.Target] = pair.Source
	}
	for _, r := range table.Ranks() {
		m.ranks = append(m.ranks, r.Name)
	}

	m.inputs = make([]textinput.Model, len(m.categories))
	for i := range m.categories {
		in := textinput.New()
		in.Prompt = ""
		in.CharLimit = 6
		in.Width = 8
		in.Placeholder = "0"
		if i == 0 {
			in.Focus()
		}
		m.inputs[i] = in
	}

	m.loadPreferences()
	return m
}

func (m *Model) loadPreferences() {
	if m.prefs == nil {
		return
	}
	if theme, err := m.prefs.Get(m.ctx, preference.KeyTheme); err == nil && theme == preference.ThemeDark {
		m.theme = render.ThemeDark
	}
	if rank, err := m.prefs.Get(m.ctx, preference.KeyRank); err == nil && rank != "" {
		for i, name := range m.ranks {
			if name == rank {
				m.rankIdx = i
			}
		}
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch key.String() {
	case "ctrl+c", "esc":
		return m, tea.Quit
	case "tab", "down":
		m.moveFocus(1)
		return m, nil
	case "shift+tab", "up":
		m.moveFocus(-1)
		return m, nil
	case "ctrl+n":
		m.cycleRank(1)
		return m, nil
	case "ctrl+p":
		m.cycleRank(-1)
		return m, nil
	case "ctrl+t":
		m.toggleTheme()
		return m, nil
	case "ctrl+r":
		m.reset()
		return m, nil
	case "enter":
		m.calculate()
		return m, nil
	}

	return m.updateFocused(msg)
}

// updateFocused forwards a key to the focused input and applies mirroring.
func (m Model) updateFocused(msg tea.Msg) (tea.Model, tea.Cmd) {
	before := m.inputs[m.focus].Value()

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)

	after := m.inputs[m.focus].Value()
	if after == before {
		return m, cmd
	}

	changed, err := m.form.Set(m.categories[m.focus].Name, after)
	if err != nil {
		m.err = err
		return m, cmd
	}
	for _, name := range changed[1:] {
		if i := m.indexOf(name); i >= 0 {
			m.inputs[i].SetValue(m.form.Value(name))
		}
	}
	return m, cmd
}

func (m *Model) moveFocus(delta int) {
	m.inputs[m.focus].Blur()
	m.focus = (m.focus + delta + len(m.inputs)) % len(m.inputs)
	m.inputs[m.focus].Focus()
}

func (m *Model) cycleRank(delta int) {
	if len(m.ranks) == 0 {
		return
	}
	if m.rankIdx < 0 {
		if delta > 0 {
			m.rankIdx = 0
		} else {
			m.rankIdx = len(m.ranks) - 1
		}
	} else {
		m.rankIdx = (m.rankIdx + delta + len(m.ranks)) % len(m.ranks)
	}
	m.save(preference.KeyRank, m.ranks[m.rankIdx])
}

func (m *Model) toggleTheme() {
	if m.theme == render.ThemeDark {
		m.theme = render.ThemeLight
	} else {
		m.theme = render.ThemeDark
	}
	m.save(preference.KeyTheme, string(m.theme))
}

func (m *Model) save(key, value string) {
	if m.prefs == nil {
		return
	}
	if err := m.prefs.Set(m.ctx, key, value); err != nil {
		m.status = fmt.Sprintf("could not save %s: %v", key, err)
		return
	}
	m.status = ""
}

func (m *Model) reset() {
	m.form.Reset()
	for i := range m.inputs {
		m.inputs[i].Reset()
	}
	m.breakdown = nil
	m.notices = nil
	m.err = nil
}

func (m *Model) calculate() {
	result, notices, err := m.form.Calculate(m.Rank())
	m.notices = nil
	for _, n := range notices {
		m.notices = append(m.notices, n.Error())
	}
	if err != nil {
		m.err = err
		m.breakdown = nil
		return
	}
	m.err = nil
	b := render.NewBreakdown(result, m.formatter, m.form.Table().CurrencySymbol)
	m.breakdown = &b
}

func (m Model) indexOf(category string) int {
	for i, c := range m.categories {
		if c.Name == category {
			return i
		}
	}
	return -1
}

// =============================================================================
// ACCESSORS
// =============================================================================

// Rank returns the selected rank name, or "".
func (m Model) Rank() string {
	if m.rankIdx < 0 {
		return ""
	}
	return m.ranks[m.rankIdx]
}

// Value returns the text currently shown in a category's field.
func (m Model) Value(category string) string {
	if i := m.indexOf(category); i >= 0 {
		return m.inputs[i].Value()
	}
	return ""
}

// Breakdown returns the last successful calculation, if any.
func (m Model) Breakdown() *render.Breakdown { return m.breakdown }

// Err returns the last calculation error, if any.
func (m Model) Err() error { return m.err }

// Theme returns the active theme.
func (m Model) Theme() render.Theme { return m.theme }

// =============================================================================
// VIEW
// =============================================================================

// View implements tea.Model.
func (m Model) View() string {
	p := render.PaletteFor(m.theme)
	var sb strings.Builder

	sb.WriteString(p.Title.Render(m.form.Table().Name))
	sb.WriteString("\n\n")

	if len(m.ranks) > 0 {
		rank := m.Rank()
		if rank == "" {
			rank = "(none, ctrl+n to select)"
		}
		sb.WriteString(p.Label.Render("Rank: ") + rank + "\n\n")
	}

	width := 0
	for _, c := range m.categories {
		width = max(width, lipgloss.Width(c.Name))
	}
	for i, c := range m.categories {
		marker := "  "
		if i == m.focus {
			marker = "› "
		}
		label := p.Label.Width(width + 1).Render(c.Name + ":")
		line := marker + label + " " + m.inputs[i].View() + " " + p.Detail.Render(c.Unit.Plural(2))
		if src, ok := m.sources[c.Name]; ok && m.form.Mirroring(c.Name) {
			line += p.Detail.Render(" (follows " + src + ")")
		}
		sb.WriteString(line + "\n")
	}

	for _, n := range m.notices {
		sb.WriteString(p.Tax.Render("! "+n) + "\n")
	}
	if m.err != nil {
		sb.WriteString("\n" + p.Tax.Render(m.err.Error()) + "\n")
	}
	if m.breakdown != nil {
		sb.WriteString("\n" + render.Text(*m.breakdown, m.theme) + "\n")
	}
	if m.status != "" {
		sb.WriteString(p.Detail.Render(m.status) + "\n")
	}

	sb.WriteString("\n" + p.Detail.Render("enter calculate · tab next · ctrl+n/p rank · ctrl+t theme · ctrl+r reset · esc quit"))
	return sb.String()
}

// Run starts the program and blocks until the user quits.
func Run(ctx context.Context, m Model) error {
	_, err := tea.NewProgram(m, tea.WithContext(ctx)).Run()
	return err
}
