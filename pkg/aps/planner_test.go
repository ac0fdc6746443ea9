package aps

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/aps/pkg/domain/entities"
	"github.com/vsinha/aps/pkg/domain/plan"
	"github.com/vsinha/aps/pkg/infrastructure/events"
)

var monday = time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

func newPlanner(t *testing.T) *Planner {
	t.Helper()
	p := NewPlanner(nil, PlannerConfig{})
	md := p.Catalogue()
	require.NoError(t, md.AddProcess(entities.Process{ID: "CUT", Sequence: 1, DefaultDurationHours: 4}))
	require.NoError(t, md.AddProcess(entities.Process{ID: "WELD", Sequence: 2, DefaultDurationHours: 2}))
	require.NoError(t, md.AddProduct(entities.Product{ID: "P1", Name: "Bracket", ProcessOrder: []entities.ProcessID{"CUT", "WELD"}}))
	require.NoError(t, md.AddEquipment(entities.Equipment{ID: "SAW1", ProcessID: "CUT", EligibleProducts: []entities.ProductID{"P1"}}))
	require.NoError(t, md.AddEquipment(entities.Equipment{ID: "WLD1", ProcessID: "WELD", EligibleProducts: []entities.ProductID{"P1"}}))
	for _, process := range []entities.ProcessID{"CUT", "WELD"} {
		for i := 0; i < 10; i++ {
			oc, err := entities.NewOperatorCapacity(process, monday.AddDate(0, 0, i), 2, 5)
			require.NoError(t, err)
			require.NoError(t, md.SetOperatorCapacity(*oc))
		}
	}
	return p
}

func demand(lots ...string) entities.DemandTable {
	table := entities.DemandTable{Columns: []string{"productCode", "lotNumber", "quantity", "dueDate"}}
	for _, lot := range lots {
		table.Rows = append(table.Rows, []string{"P1", lot, "10", "2025-03-10"})
	}
	return table
}

func TestPlanner_Schedule(t *testing.T) {
	p := newPlanner(t)
	assert.True(t, p.Validate().Valid())

	result, err := p.Schedule(context.Background(), demand("LOT-1"))
	require.NoError(t, err)
	assert.True(t, result.Complete())
	require.Equal(t, 2, result.Plan.Len())
	for _, b := range result.Plan.Batches() {
		assert.Equal(t, "LOT-1", b.LotNumber)
	}

	published, err := p.Events().ReadEvents(events.PlanStream, 0)
	require.NoError(t, err)
	require.Len(t, published, 2)
	assert.Equal(t, events.BatchScheduledEvent, published[0].Type())
}

func TestPlanner_UnresolvedRows(t *testing.T) {
	p := newPlanner(t)
	table := demand("LOT-1")
	table.Rows = append(table.Rows, []string{"X9", "LOT-2", "1", "2025-03-10"})

	result, err := p.Schedule(context.Background(), table)
	require.NoError(t, err)
	require.Len(t, result.Unresolved, 1)
	assert.Equal(t, "X9", result.Unresolved[0].Product)
	assert.False(t, result.Complete())
}

func TestPlanner_RescheduleKeepsExistingBatches(t *testing.T) {
	p := newPlanner(t)
	existing := plan.New()
	locked, err := entities.NewBatch("LOCKED", "P1", "Bracket", "SAW1", entities.SlotStart(monday, 0), 4, "CUT", "LOT-0")
	require.NoError(t, err)
	require.NoError(t, existing.AddBatch(locked))

	result, err := p.Reschedule(context.Background(), demand("LOT-1"), existing)
	require.NoError(t, err)
	assert.Same(t, existing, result.Plan)

	_, ok := existing.Batch("LOCKED")
	assert.True(t, ok)

	saw := existing.BatchesByEquipment("SAW1")
	require.Len(t, saw, 2)
	assert.False(t, saw[0].Overlaps(saw[1].Start, saw[1].End))
}

func TestPlanner_Editor(t *testing.T) {
	p := newPlanner(t)
	result, err := p.Schedule(context.Background(), demand("LOT-1", "LOT-2"))
	require.NoError(t, err)

	editor := p.Editor(result.Plan)
	assert.Equal(t, 2, editor.WithdrawLot("LOT-2"))
	assert.Equal(t, 2, result.Plan.Len())

	published, err := p.Events().ReadEvents(events.PlanStream, 0)
	require.NoError(t, err)
	last := published[len(published)-1]
	assert.Equal(t, events.BatchRemovedEvent, last.Type())
}
