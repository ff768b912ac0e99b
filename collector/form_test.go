package collector_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/overtime-engine/allowance"
	"github.com/warp/overtime-engine/collector"
	"github.com/warp/overtime-engine/factory"
)

const (
	regularNight  = factory.CategoryRegularNight
	earlyTakeover = factory.CategoryEarlyTakeover
)

func newForm() *collector.Form {
	return collector.NewForm(factory.MustPreset(factory.PresetRankedV3))
}

func TestForm_MirrorsUntilOverride(t *testing.T) {
	// GIVEN: A fresh form
	form := newForm()
	assert.True(t, form.Mirroring(earlyTakeover))

	// WHEN: Regular Night is edited
	changed, err := form.Set(regularNight, "3")
	require.NoError(t, err)

	// THEN: Early Take-over follows
	assert.Equal(t, []string{regularNight, earlyTakeover}, changed)
	assert.Equal(t, "3", form.Value(earlyTakeover))

	_, err = form.Set(regularNight, "5")
	require.NoError(t, err)
	assert.Equal(t, "5", form.Value(earlyTakeover))

	// WHEN: Early Take-over is edited directly
	changed, err = form.Set(earlyTakeover, "1")
	require.NoError(t, err)
	assert.Equal(t, []string{earlyTakeover}, changed)
	assert.False(t, form.Mirroring(earlyTakeover))

	// THEN: Further Regular Night edits leave it alone
	changed, err = form.Set(regularNight, "9")
	require.NoError(t, err)
	assert.Equal(t, []string{regularNight}, changed)
	assert.Equal(t, "1", form.Value(earlyTakeover))
	assert.Equal(t, "9", form.Value(regularNight))
}

func TestForm_ResetReenablesMirroring(t *testing.T) {
	form := newForm()
	_, _ = form.Set(earlyTakeover, "2")
	_, _ = form.Set(regularNight, "4")
	require.Equal(t, "2", form.Value(earlyTakeover))

	form.Reset()

	assert.Empty(t, form.Values())
	assert.True(t, form.Mirroring(earlyTakeover))
	_, err := form.Set(regularNight, "6")
	require.NoError(t, err)
	assert.Equal(t, "6", form.Value(earlyTakeover))
}

func TestForm_UnknownCategory(t *testing.T) {
	_, err := newForm().Set("Sunday Brunch", "1")
	assert.ErrorIs(t, err, collector.ErrUnknownCategory)
}

func TestForm_MirroringOnlyForTargets(t *testing.T) {
	assert.False(t, newForm().Mirroring(regularNight))
}

func TestForm_Calculate(t *testing.T) {
	// GIVEN: Regular Night 2 mirrored into Early Take-over, plus a holiday
	form := newForm()
	_, _ = form.Set(regularNight, "2")
	_, _ = form.Set(factory.CategoryHoliday, "1")
	_, _ = form.Set(factory.CategoryWeekendNighttime, "abc")

	// WHEN: Calculating as Level 2
	result, notices, err := form.Calculate("Level 2")

	// THEN: 2*160 + 2*40 + 525
	require.NoError(t, err)
	assert.Equal(t, "925", result.GrossTotal.String())
	require.Len(t, notices, 1)
	assert.Equal(t, factory.CategoryWeekendNighttime, notices[0].Category)
}

func TestForm_CalculateEmpty(t *testing.T) {
	_, _, err := newForm().Calculate("")
	assert.ErrorIs(t, err, allowance.ErrNoInput)
}
