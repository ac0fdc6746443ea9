package memory

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/aps/pkg/domain/entities"
	"github.com/vsinha/aps/pkg/domain/repositories"
	"github.com/vsinha/aps/pkg/infrastructure/repositories/snapshot"
)

// countingStore records how many times each kind was written
type countingStore struct {
	repositories.SnapshotStore
	saves map[string]int
}

func (c *countingStore) Save(kind string, records any) error {
	c.saves[kind]++
	return c.SnapshotStore.Save(kind, records)
}

func seededStore(t *testing.T, store repositories.SnapshotStore) *MasterDataStore {
	t.Helper()
	s := NewMasterDataStore(store)
	require.NoError(t, s.AddProcess(entities.Process{ID: "WELD", Name: "Weld", Sequence: 2, DefaultDurationHours: 2}))
	require.NoError(t, s.AddProcess(entities.Process{ID: "CUT", Name: "Cut", Sequence: 1, DefaultDurationHours: 4}))
	require.NoError(t, s.AddProduct(entities.Product{ID: "P1", Name: "Bracket", Priority: 1, ProcessOrder: []entities.ProcessID{"CUT", "WELD"}}))
	require.NoError(t, s.AddEquipment(entities.Equipment{ID: "SAW2", ProcessID: "CUT", EligibleProducts: []entities.ProductID{"P1"}}))
	require.NoError(t, s.AddEquipment(entities.Equipment{ID: "SAW1", ProcessID: "CUT", EligibleProducts: []entities.ProductID{"P1"}}))
	require.NoError(t, s.AddEquipment(entities.Equipment{ID: "WLD1", ProcessID: "WELD"}))
	return s
}

func TestMasterDataStore_Queries(t *testing.T) {
	s := seededStore(t, nil)

	p, err := s.GetProduct("P1")
	require.NoError(t, err)
	assert.Equal(t, "Bracket", p.Name)

	byName, err := s.GetProductByName("Bracket")
	require.NoError(t, err)
	assert.Equal(t, entities.ProductID("P1"), byName.ID)

	_, err = s.GetProduct("NOPE")
	assert.True(t, errors.Is(err, entities.ErrNotFound))

	ordered := s.GetProcessesOrdered()
	require.Len(t, ordered, 2)
	assert.Equal(t, entities.ProcessID("CUT"), ordered[0].ID)
	assert.Equal(t, entities.ProcessID("WELD"), ordered[1].ID)

	saws := s.GetEquipmentForProcess("CUT")
	require.Len(t, saws, 2)
	assert.Equal(t, entities.EquipmentID("SAW2"), saws[0].ID, "catalogue insertion order")
	assert.Equal(t, entities.EquipmentID("SAW1"), saws[1].ID)
	assert.Empty(t, s.GetEquipmentForProcess("PAINT"))
}

func TestMasterDataStore_ReferentialChecks(t *testing.T) {
	s := seededStore(t, nil)

	err := s.AddEquipment(entities.Equipment{ID: "BOOTH", ProcessID: "PAINT"})
	assert.True(t, errors.Is(err, entities.ErrNotFound))

	err = s.SetOperatorCapacity(entities.OperatorCapacity{ProcessID: "PAINT", Date: time.Now()})
	assert.True(t, errors.Is(err, entities.ErrNotFound))

	// product routes are not validated here
	assert.NoError(t, s.AddProduct(entities.Product{ID: "P9", ProcessOrder: []entities.ProcessID{"PAINT"}}))
}

func TestMasterDataStore_OperatorCapacityGate(t *testing.T) {
	s := seededStore(t, nil)
	day := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)

	_, ok := s.GetOperatorCapacity("CUT", day)
	assert.False(t, ok, "missing record means unavailable")

	oc, err := entities.NewOperatorCapacity("CUT", day, 2, 3)
	require.NoError(t, err)
	require.NoError(t, s.SetOperatorCapacity(*oc))

	capacity, ok := s.GetOperatorCapacity("CUT", day.Add(5*time.Hour))
	assert.True(t, ok)
	assert.Equal(t, 6.0, capacity)

	info, ok := s.GetOperatorInfo("CUT", day)
	require.True(t, ok)
	assert.Equal(t, 2, info.Workers)

	require.NoError(t, s.RemoveOperatorCapacity("CUT", day))
	_, ok = s.GetOperatorInfo("CUT", day)
	assert.False(t, ok)
}

func TestMasterDataStore_EquipmentAvailability(t *testing.T) {
	s := seededStore(t, nil)
	start := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	require.NoError(t, s.AddEquipment(entities.Equipment{
		ID:        "SAW3",
		ProcessID: "CUT",
		Blackout:  &entities.Window{Start: start, End: start.Add(24 * time.Hour)},
	}))

	assert.True(t, s.IsEquipmentAvailable("SAW1", start))
	assert.False(t, s.IsEquipmentAvailable("SAW3", start.Add(time.Hour)))
	assert.True(t, s.IsEquipmentAvailable("SAW3", start.Add(24*time.Hour)))
	assert.False(t, s.IsEquipmentAvailable("GHOST", start))
	assert.False(t, s.IsEquipmentAvailableBetween("SAW3", start.Add(-time.Hour), start.Add(time.Hour)))
}

func TestMasterDataStore_WriteThroughAndReload(t *testing.T) {
	fileStore, err := snapshot.NewFileStore(t.TempDir())
	require.NoError(t, err)
	counting := &countingStore{SnapshotStore: fileStore, saves: map[string]int{}}

	s := seededStore(t, counting)
	day := time.Date(2025, 6, 3, 0, 0, 0, 0, time.UTC)
	require.NoError(t, s.SetOperatorCapacity(entities.OperatorCapacity{ProcessID: "WELD", Date: day, Workers: 1, TotalCapacity: 4}))

	assert.Equal(t, 2, counting.saves[repositories.KindProcesses])
	assert.Equal(t, 1, counting.saves[repositories.KindProducts])
	assert.Equal(t, 3, counting.saves[repositories.KindEquipment])
	assert.Equal(t, 1, counting.saves[repositories.KindOperatorCapacity])

	reloaded, err := LoadMasterDataStore(fileStore)
	require.NoError(t, err)
	assert.Len(t, reloaded.Products(), 1)
	assert.Len(t, reloaded.Equipment(), 3)
	assert.Equal(t, entities.EquipmentID("SAW2"), reloaded.GetEquipmentForProcess("CUT")[0].ID)
	capacity, ok := reloaded.GetOperatorCapacity("WELD", day)
	assert.True(t, ok)
	assert.Equal(t, 4.0, capacity)

	require.NoError(t, reloaded.RemoveEquipment("SAW2"))
	assert.Equal(t, entities.EquipmentID("SAW1"), reloaded.GetEquipmentForProcess("CUT")[0].ID)
	_, err = reloaded.GetEquipment("SAW2")
	assert.True(t, errors.Is(err, entities.ErrNotFound))
}

// failingStore accepts writes until fail is set
type failingStore struct {
	repositories.SnapshotStore
	fail bool
}

func (f *failingStore) Save(kind string, records any) error {
	if f.fail {
		return errors.New("disk full")
	}
	return f.SnapshotStore.Save(kind, records)
}

func TestMasterDataStore_FailedWriteLeavesMemoryUnchanged(t *testing.T) {
	fileStore, err := snapshot.NewFileStore(t.TempDir())
	require.NoError(t, err)
	store := &failingStore{SnapshotStore: fileStore}

	s := seededStore(t, store)
	day := time.Date(2025, 6, 3, 0, 0, 0, 0, time.UTC)
	require.NoError(t, s.SetOperatorCapacity(entities.OperatorCapacity{ProcessID: "WELD", Date: day, Workers: 1, TotalCapacity: 4}))
	store.fail = true

	err = s.AddProduct(entities.Product{ID: "P1", Name: "Renamed"})
	assert.ErrorContains(t, err, "failed to persist products")
	p, err := s.GetProduct("P1")
	require.NoError(t, err)
	assert.Equal(t, "Bracket", p.Name)

	require.Error(t, s.AddProduct(entities.Product{ID: "P2", Name: "Hinge"}))
	_, err = s.GetProduct("P2")
	assert.True(t, errors.Is(err, entities.ErrNotFound))

	require.Error(t, s.RemoveProduct("P1"))
	assert.Len(t, s.Products(), 1)

	require.Error(t, s.AddProcess(entities.Process{ID: "PAINT", Sequence: 3}))
	_, err = s.GetProcess("PAINT")
	assert.True(t, errors.Is(err, entities.ErrNotFound))

	require.Error(t, s.AddEquipment(entities.Equipment{ID: "SAW3", ProcessID: "CUT"}))
	require.Error(t, s.RemoveEquipment("SAW2"))
	assert.Len(t, s.Equipment(), 3)
	assert.Equal(t, entities.EquipmentID("SAW2"), s.GetEquipmentForProcess("CUT")[0].ID)

	require.Error(t, s.SetOperatorCapacity(entities.OperatorCapacity{ProcessID: "CUT", Date: day, Workers: 1, TotalCapacity: 2}))
	_, ok := s.GetOperatorCapacity("CUT", day)
	assert.False(t, ok)
	require.Error(t, s.RemoveOperatorCapacity("WELD", day))
	_, ok = s.GetOperatorCapacity("WELD", day)
	assert.True(t, ok)

	store.fail = false
	reloaded, err := LoadMasterDataStore(fileStore)
	require.NoError(t, err)
	renamed, err := reloaded.GetProduct("P1")
	require.NoError(t, err)
	assert.Equal(t, "Bracket", renamed.Name)
	assert.Len(t, reloaded.Products(), 1)
	assert.Len(t, reloaded.Equipment(), 3)
	assert.Len(t, reloaded.OperatorCapacities(), 1)
}
