package snapshot

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/aps/pkg/domain/entities"
	"github.com/vsinha/aps/pkg/domain/repositories"
)

func sampleEquipment() []entities.Equipment {
	start := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	return []entities.Equipment{
		{
			ID:               "EQ1",
			Name:             "Lathe 1",
			ProcessID:        "TURN",
			EligibleProducts: []entities.ProductID{"P1", "P2"},
			Blackout:         &entities.Window{Start: start, End: start.AddDate(0, 0, 1)},
		},
		{ID: "EQ2", Name: "Lathe 2", ProcessID: "TURN"},
	}
}

func TestStores_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	fileStore, err := NewFileStore(filepath.Join(dir, "yaml"))
	require.NoError(t, err)
	sqliteStore, err := OpenSQLite(filepath.Join(dir, "db", "aps.db"))
	require.NoError(t, err)
	defer sqliteStore.Close()

	stores := map[string]repositories.SnapshotStore{
		"yaml":   fileStore,
		"sqlite": sqliteStore,
	}

	for name, store := range stores {
		t.Run(name, func(t *testing.T) {
			var empty []entities.Equipment
			found, err := store.Load(repositories.KindEquipment, &empty)
			require.NoError(t, err)
			assert.False(t, found)

			want := sampleEquipment()
			require.NoError(t, store.Save(repositories.KindEquipment, want))

			var got []entities.Equipment
			found, err = store.Load(repositories.KindEquipment, &got)
			require.NoError(t, err)
			assert.True(t, found)
			require.Len(t, got, 2)
			assert.Equal(t, want[0].ID, got[0].ID)
			assert.Equal(t, want[0].EligibleProducts, got[0].EligibleProducts)
			require.NotNil(t, got[0].Blackout)
			assert.True(t, want[0].Blackout.Start.Equal(got[0].Blackout.Start))
			assert.Nil(t, got[1].Blackout)

			// a second save replaces the whole collection
			require.NoError(t, store.Save(repositories.KindEquipment, want[:1]))
			got = nil
			_, err = store.Load(repositories.KindEquipment, &got)
			require.NoError(t, err)
			assert.Len(t, got, 1)
		})
	}
}

func TestOpen_UnknownBackend(t *testing.T) {
	_, _, err := Open("redis", t.TempDir(), "")
	assert.ErrorContains(t, err, "unsupported storage backend")
}
