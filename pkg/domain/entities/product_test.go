package entities

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProduct_ProductionDate(t *testing.T) {
	due := time.Date(2025, 4, 15, 0, 0, 0, 0, time.UTC)

	days := Product{ID: "P1", LeadTime: LeadTime{Value: 3, Unit: LeadTimeDays}}
	assert.Equal(t, time.Date(2025, 4, 12, 0, 0, 0, 0, time.UTC), days.ProductionDate(due))

	hours := Product{ID: "P2", LeadTime: LeadTime{Value: 36, Unit: LeadTimeHours}}
	assert.Equal(t, time.Date(2025, 4, 13, 0, 0, 0, 0, time.UTC), hours.ProductionDate(due))
}

func TestProduct_DurationFor(t *testing.T) {
	cut := &Process{ID: "CUT", DefaultDurationHours: 4}
	weld := &Process{ID: "WELD", DefaultDurationHours: 2}
	p := Product{ID: "P1", ProcessDurations: map[ProcessID]float64{"CUT": 6}}

	assert.Equal(t, 6.0, p.DurationFor(cut))
	assert.Equal(t, 2.0, p.DurationFor(weld))
}

func TestEquipment_Availability(t *testing.T) {
	start := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	eq := Equipment{ID: "EQ1", Blackout: &Window{Start: start, End: start.AddDate(0, 0, 2)}}

	assert.False(t, eq.IsAvailableAt(start))
	assert.False(t, eq.IsAvailableAt(start.Add(36*time.Hour)))
	assert.True(t, eq.IsAvailableAt(start.AddDate(0, 0, 2)))
	assert.True(t, eq.IsAvailableAt(start.Add(-time.Minute)))
	assert.False(t, eq.IsAvailableBetween(start.Add(-time.Hour), start.Add(time.Hour)))

	open := Equipment{ID: "EQ2"}
	assert.True(t, open.IsAvailableAt(start))
}

func TestParsePriority(t *testing.T) {
	testCases := map[string]Priority{
		"Urgent": PriorityUrgent,
		"high":   PriorityHigh,
		"Normal": PriorityNormal,
		"LOW":    PriorityLow,
		"緊急":     PriorityUrgent,
		"":       PriorityNormal,
		"bogus":  PriorityNormal,
	}
	for label, want := range testCases {
		assert.Equal(t, want, ParsePriority(label), "label=%q", label)
	}
}

func TestDemandEntry_UnitBatches(t *testing.T) {
	entry := DemandEntry{ProductID: "P1", UnitCount: decimal.RequireFromString("2.25")}
	assert.Equal(t, 3, entry.UnitBatches())

	entry.UnitCount = decimal.Zero
	assert.Equal(t, 0, entry.UnitBatches())

	lot := DemandEntry{ProductID: "P1", UnitCount: decimal.NewFromInt(1), LotNumber: "L-1"}
	assert.Equal(t, "L-1", lot.LotFor(0))
}

func TestSequenceEntries(t *testing.T) {
	day := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	one := decimal.NewFromInt(1)
	entries := []DemandEntry{
		{ProductID: "P1", Day: day, UnitCount: one},
		{ProductID: "P1", Day: day.Add(5 * time.Hour), UnitCount: one},
		{ProductID: "P2", Day: day, UnitCount: one},
		{ProductID: "P1", Day: day, UnitCount: one, Seq: 4},
		{ProductID: "P1", Day: day.AddDate(0, 0, 1), UnitCount: one},
	}

	sequenced := SequenceEntries(entries)
	require.Len(t, sequenced, len(entries))
	assert.Zero(t, entries[0].Seq, "input is not modified")

	seqs := make([]int, len(sequenced))
	for i, e := range sequenced {
		seqs[i] = e.Seq
	}
	assert.Equal(t, []int{5, 6, 1, 4, 1}, seqs)

	assert.Equal(t, "P1-20250310-5-1", sequenced[0].LotFor(0))
	assert.NotEqual(t, sequenced[0].LotFor(0), sequenced[1].LotFor(0))
}

func TestNewOperatorCapacity(t *testing.T) {
	date := time.Date(2025, 4, 1, 13, 0, 0, 0, time.UTC)
	oc, err := NewOperatorCapacity("CUT", date, 3, 2.5)
	assert.NoError(t, err)
	assert.Equal(t, 7.5, oc.TotalCapacity)
	assert.Equal(t, Day(date), oc.Date)

	_, err = NewOperatorCapacity("", date, 1, 1)
	assert.Error(t, err)
	_, err = NewOperatorCapacity("CUT", date, -1, 1)
	assert.Error(t, err)
}
