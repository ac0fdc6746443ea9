package events

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/aps/pkg/domain/entities"
)

func TestInMemoryEventStore_AppendAndRead(t *testing.T) {
	store := NewInMemoryEventStore(nil)

	require.NoError(t, store.AppendEvent(PlanStream, NewBatchScheduledEvent(entities.Batch{ID: "B1"})))
	require.NoError(t, store.AppendEvent(PlanStream, NewBatchRemovedEvent(entities.Batch{ID: "B1"}, "deleted")))
	require.NoError(t, store.AppendEvent("other", NewEvent("custom", "other", nil)))

	planEvents, err := store.ReadEvents(PlanStream, 0)
	require.NoError(t, err)
	require.Len(t, planEvents, 2)
	assert.Equal(t, 1, planEvents[0].Version())
	assert.Equal(t, 2, planEvents[1].Version())
	assert.Equal(t, BatchRemovedEvent, planEvents[1].Type())

	tail, err := store.ReadEvents(PlanStream, 2)
	require.NoError(t, err)
	assert.Len(t, tail, 1)

	none, err := store.ReadEvents(PlanStream, 5)
	require.NoError(t, err)
	assert.Empty(t, none)

	all, err := store.ReadAllEvents(1)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "other", all[1].StreamID())
	assert.Equal(t, 1, all[1].Version())
	assert.Equal(t, 3, store.Len())
}

func TestInMemoryEventStore_IdentityAndNil(t *testing.T) {
	store := NewInMemoryEventStore(nil)

	first := NewBatchScheduledEvent(entities.Batch{ID: "B1"})
	second := NewBatchScheduledEvent(entities.Batch{ID: "B2"})
	assert.NotEqual(t, first.ID(), second.ID())
	assert.Zero(t, first.Version())
	assert.False(t, first.Timestamp().IsZero())

	require.NoError(t, store.AppendEvent(PlanStream, first))
	stored, err := store.ReadEvents(PlanStream, 1)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, first.ID(), stored[0].ID())
	assert.Equal(t, 1, stored[0].Version())

	assert.ErrorIs(t, store.AppendEvent(PlanStream, nil), ErrNilEvent)
	assert.Error(t, store.Subscribe([]string{BatchMovedEvent}, nil))
}

func TestInMemoryEventStore_Subscribe(t *testing.T) {
	store := NewInMemoryEventStore(nil)

	var moved []BatchMoved
	handler := &HandlerFunc{
		Types: []string{BatchMovedEvent},
		Fn: func(e Event) error {
			moved = append(moved, e.Data().(BatchMoved))
			return nil
		},
	}
	failing := &HandlerFunc{
		Types: []string{BatchMovedEvent},
		Fn:    func(Event) error { return errors.New("boom") },
	}
	require.NoError(t, store.Subscribe([]string{BatchMovedEvent}, failing))
	require.NoError(t, store.Subscribe([]string{BatchMovedEvent}, handler))

	before := entities.Batch{ID: "B1", EquipmentID: "EQ1"}
	after := entities.Batch{ID: "B1", EquipmentID: "EQ2"}
	require.NoError(t, store.AppendEvent(PlanStream, NewBatchMovedEvent(before, after)))
	require.NoError(t, store.AppendEvent(PlanStream, NewBatchScheduledEvent(after)))

	require.Len(t, moved, 1)
	assert.Equal(t, entities.EquipmentID("EQ2"), moved[0].After.EquipmentID)
}
