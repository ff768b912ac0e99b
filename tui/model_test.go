package tui_test

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/overtime-engine/allowance"
	"github.com/warp/overtime-engine/factory"
	"github.com/warp/overtime-engine/preference"
	"github.com/warp/overtime-engine/render"
	"github.com/warp/overtime-engine/tui"
)

func send(t *testing.T, m tui.Model, msgs ...tea.Msg) tui.Model {
	t.Helper()
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		var ok bool
		m, ok = next.(tui.Model)
		require.True(t, ok)
	}
	return m
}

func typed(s string) tea.Msg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

var (
	tab       = tea.KeyMsg{Type: tea.KeyTab}
	backspace = tea.KeyMsg{Type: tea.KeyBackspace}
	enter     = tea.KeyMsg{Type: tea.KeyEnter}
	ctrlN     = tea.KeyMsg{Type: tea.KeyCtrlN}
	ctrlR     = tea.KeyMsg{Type: tea.KeyCtrlR}
	ctrlT     = tea.KeyMsg{Type: tea.KeyCtrlT}
)

func newModel(t *testing.T) (tui.Model, *preference.Memory) {
	t.Helper()
	table := factory.MustPreset(factory.PresetRankedV3)
	mem := preference.NewMemory()
	m := tui.NewModel(context.Background(), table, tui.Options{
		Prefs: preference.NewService(mem, table),
	})
	return m, mem
}

func TestModel_MirrorsUntilTargetEdited(t *testing.T) {
	// GIVEN: A fresh form focused on Regular Night
	m, _ := newModel(t)

	// WHEN: Typing into Regular Night
	m = send(t, m, typed("2"))

	// THEN: Early Take-over follows
	assert.Equal(t, "2", m.Value("Regular Night"))
	assert.Equal(t, "2", m.Value("Early Take-over"))

	// WHEN: Early Take-over (third field) is edited, then Regular Night again
	m = send(t, m, tab, tab, backspace, typed("1"))
	assert.Equal(t, "1", m.Value("Early Take-over"))
	m = send(t, m, tab, tab, tab, typed("3"))

	// THEN: The override sticks
	assert.Equal(t, "23", m.Value("Regular Night"))
	assert.Equal(t, "1", m.Value("Early Take-over"))
}

func TestModel_ResetReenablesMirroring(t *testing.T) {
	m, _ := newModel(t)
	m = send(t, m, typed("2"), tab, tab, backspace, typed("5"))
	require.Equal(t, "5", m.Value("Early Take-over"))

	m = send(t, m, ctrlR)
	assert.Empty(t, m.Value("Regular Night"))
	assert.Empty(t, m.Value("Early Take-over"))

	// Focus stays on Early Take-over; move back to Regular Night
	m = send(t, m, tab, tab, tab, typed("4"))
	assert.Equal(t, "4", m.Value("Early Take-over"))
}

func TestModel_CalculateWithRank(t *testing.T) {
	// GIVEN: Regular Night 2 (mirrored into Early Take-over) and Holiday 1
	m, mem := newModel(t)
	m = send(t, m, typed("2"), tab, tab, tab, tab, typed("1"))

	// WHEN: Calculating without a rank
	m = send(t, m, enter)

	// THEN: The rank is demanded
	require.Error(t, m.Err())
	assert.ErrorIs(t, m.Err(), allowance.ErrMissingRank)
	assert.Nil(t, m.Breakdown())

	// WHEN: Cycling to Level 2 and calculating
	m = send(t, m, ctrlN, ctrlN, enter)

	// THEN: 2×160 + 2×40 + 525 = 925
	require.NoError(t, m.Err())
	require.NotNil(t, m.Breakdown())
	assert.Equal(t, "Level 2", m.Rank())
	assert.Equal(t, "925.00", m.Breakdown().Gross)
	assert.Contains(t, m.View(), "Net Amount (After Tax):")

	// AND: The rank was saved
	stored, ok, err := mem.GetPreference(context.Background(), preference.KeyRank)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Level 2", stored)
}

func TestModel_EmptyFormIsNoInput(t *testing.T) {
	m, _ := newModel(t)
	m = send(t, m, enter)
	assert.ErrorIs(t, m.Err(), allowance.ErrNoInput)
	assert.Contains(t, m.View(), "please enter at least one day count")
}

func TestModel_LoadsAndSavesPreferences(t *testing.T) {
	// GIVEN: Saved dark theme and Supervisor rank
	table := factory.MustPreset(factory.PresetRankedV3)
	mem := preference.NewMemory()
	svc := preference.NewService(mem, table)
	require.NoError(t, svc.Set(context.Background(), preference.KeyTheme, "dark"))
	require.NoError(t, svc.Set(context.Background(), preference.KeyRank, "Supervisor"))

	// WHEN: A form opens
	m := tui.NewModel(context.Background(), table, tui.Options{Prefs: svc})

	// THEN: They are applied
	assert.Equal(t, render.ThemeDark, m.Theme())
	assert.Equal(t, "Supervisor", m.Rank())

	// WHEN: The theme is toggled
	m = send(t, m, ctrlT)
	assert.Equal(t, render.ThemeLight, m.Theme())
	theme, err := svc.Get(context.Background(), preference.KeyTheme)
	require.NoError(t, err)
	assert.Equal(t, "light", theme)
}

func TestModel_FixedTableHasNoRanks(t *testing.T) {
	m := tui.NewModel(context.Background(), factory.MustPreset(factory.PresetFixedV1), tui.Options{})
	m = send(t, m, ctrlN, typed("1"), enter)

	assert.Empty(t, m.Rank())
	require.NoError(t, m.Err())
	assert.Equal(t, "190.00", m.Breakdown().Net, "160 plus mirrored 40, less 5%")
	assert.NotContains(t, m.View(), "Rank:")
}
