package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/overtime-engine/factory"
	"github.com/warp/overtime-engine/preference"
	"github.com/warp/overtime-engine/store/sqlite"
)

var _ preference.Store = (*sqlite.Store)(nil)

func newStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestRateTables_SaveGetList(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	// GIVEN: Two preset documents
	for _, id := range []string{factory.PresetRankedV3, factory.PresetFixedV1} {
		table := factory.MustPreset(id)
		doc, err := factory.MarshalRateTable(table)
		require.NoError(t, err)
		require.NoError(t, store.SaveRateTable(ctx, sqlite.RateTableRecord{
			ID: table.ID, Name: table.Name, Version: table.Version, ConfigJSON: doc,
		}))
	}

	// WHEN: Read back
	got, err := store.GetRateTable(ctx, factory.PresetRankedV3)
	require.NoError(t, err)
	require.NotNil(t, got)

	// THEN: The stored document parses to the same table
	assert.Equal(t, 1, got.Revision)
	assert.False(t, got.CreatedAt.IsZero())
	parsed, err := factory.ParseRateTable(got.ConfigJSON)
	require.NoError(t, err)
	assert.Equal(t, factory.PresetRankedV3, parsed.ID)
	assert.Len(t, parsed.Ranks(), 4)

	list, err := store.ListRateTables(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, factory.PresetFixedV1, list[0].ID, "ordered by version")
}

func TestRateTables_OverwriteBumpsRevision(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	rec := sqlite.RateTableRecord{ID: "custom", Name: "Custom", Version: 1, ConfigJSON: `{"id":"custom"}`}
	require.NoError(t, store.SaveRateTable(ctx, rec))

	rec.Name = "Custom (amended)"
	require.NoError(t, store.SaveRateTable(ctx, rec))

	got, err := store.GetRateTable(ctx, "custom")
	require.NoError(t, err)
	assert.Equal(t, 2, got.Revision)
	assert.Equal(t, "Custom (amended)", got.Name)
}

func TestRateTables_MissingAndDelete(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	got, err := store.GetRateTable(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, store.SaveRateTable(ctx, sqlite.RateTableRecord{ID: "x", Name: "X", Version: 1, ConfigJSON: "{}"}))
	require.NoError(t, store.DeleteRateTable(ctx, "x"))
	require.NoError(t, store.DeleteRateTable(ctx, "x"), "deleting twice is fine")

	got, err = store.GetRateTable(ctx, "x")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestPreferences(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	_, ok, err := store.GetPreference(ctx, "theme")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.SetPreference(ctx, "theme", "light"))
	require.NoError(t, store.SetPreference(ctx, "theme", "dark"))
	require.NoError(t, store.SetPreference(ctx, "rank", "Level 3"))

	v, ok, err := store.GetPreference(ctx, "theme")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "dark", v)

	all, err := store.ListPreferences(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"theme": "dark", "rank": "Level 3"}, all)
}

func TestNew_ReopenKeepsData(t *testing.T) {
	// GIVEN: A file-backed database with a preference
	path := filepath.Join(t.TempDir(), "overtime.db")
	store, err := sqlite.New(path)
	require.NoError(t, err)
	require.NoError(t, store.SetPreference(context.Background(), "rank", "Trainee"))
	require.NoError(t, store.Close())

	// WHEN: Reopened (migrations run again as a no-op)
	store, err = sqlite.New(path)
	require.NoError(t, err)
	defer store.Close()

	// THEN: The value survived
	v, ok, err := store.GetPreference(context.Background(), "rank")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Trainee", v)
}

func TestPreferenceService_OverSQLite(t *testing.T) {
	store := newStore(t)
	svc := preference.NewService(store, factory.MustPreset(factory.PresetRankedV3))

	require.NoError(t, svc.Set(context.Background(), preference.KeyRank, " Level 2"))
	rank, err := svc.Get(context.Background(), preference.KeyRank)
	require.NoError(t, err)
	assert.Equal(t, "Level 2", rank)
}
