package entities

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlotsFor(t *testing.T) {
	testCases := []struct {
		hours float64
		want  int
	}{
		{0, 1},
		{0.5, 1},
		{1, 1},
		{2, 1},
		{3, 2},
		{4, 2},
		{5, 2},
		{6, 3},
		{7, 4},
		{8, 4},
		{9, 4},
		{10, 5},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.want, SlotsFor(tc.hours), "hours=%g", tc.hours)
	}
}

func TestSlotsReached(t *testing.T) {
	testCases := []struct {
		hours float64
		want  int
	}{
		{0, 1},
		{1, 1},
		{2, 1},
		{3, 2},
		{4.5, 3},
		{5, 3},
		{8, 4},
		{9, 5},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.want, SlotsReached(tc.hours), "hours=%g", tc.hours)
	}
}

func TestOnSlotBoundary(t *testing.T) {
	day := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	assert.True(t, OnSlotBoundary(SlotStart(day, 0)))
	assert.True(t, OnSlotBoundary(SlotStart(day, 3)))
	assert.False(t, OnSlotBoundary(day.Add(time.Hour)))
	assert.False(t, OnSlotBoundary(day.Add(2*time.Hour+time.Minute)))
}

func TestSlotStartAndSlotOf(t *testing.T) {
	day := time.Date(2025, 3, 10, 15, 30, 0, 0, time.UTC)

	for slot := 0; slot < SlotsPerDay; slot++ {
		start := SlotStart(day, slot)
		assert.Equal(t, slot*SlotHours, start.Hour())
		assert.Equal(t, slot, SlotOf(start))
		assert.Equal(t, Day(day), Day(start))
	}
}

func TestIsWeekend(t *testing.T) {
	saturday := time.Date(2025, 3, 8, 0, 0, 0, 0, time.UTC)
	assert.True(t, IsWeekend(saturday))
	assert.True(t, IsWeekend(saturday.AddDate(0, 0, 1)))
	assert.False(t, IsWeekend(saturday.AddDate(0, 0, 2)))
}

func TestBatch_SlotRangeAndLabel(t *testing.T) {
	start := SlotStart(time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), 1)
	b, err := NewBatch("B1", "P1", "Widget", "EQ1", start, 4, "CUT", "LOT-7")
	require.NoError(t, err)

	first, count := b.SlotRange()
	assert.Equal(t, 1, first)
	assert.Equal(t, 2, count)
	assert.True(t, b.WithinOneDay())
	assert.Equal(t, start.Add(4*time.Hour), b.End)
	assert.Equal(t, "Widget/CUT/LOT-7", b.Label())

	b.Reschedule("EQ2", SlotStart(start, 3))
	assert.Equal(t, EquipmentID("EQ2"), b.EquipmentID)
	assert.False(t, b.WithinOneDay())
}

func TestBatch_SlotRangeCoversTouchedSlots(t *testing.T) {
	day := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	testCases := []struct {
		name      string
		start     time.Time
		hours     float64
		first     int
		count     int
		withinDay bool
	}{
		{"aligned", SlotStart(day, 1), 2, 1, 1, true},
		{"off boundary", day.Add(time.Hour), 2, 0, 2, true},
		{"uneven duration", SlotStart(day, 0), 4.5, 0, 3, true},
		{"runs past last slot", day.Add(7 * time.Hour), 2, 3, 2, false},
		{"uneven duration in last slots", SlotStart(day, 2), 4.5, 2, 3, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			b, err := NewBatch("B1", "P1", "", "EQ1", tc.start, tc.hours, "CUT", "")
			require.NoError(t, err)
			first, count := b.SlotRange()
			assert.Equal(t, tc.first, first)
			assert.Equal(t, tc.count, count)
			assert.Equal(t, tc.withinDay, b.WithinOneDay())
		})
	}
}

func TestNewBatch_Validation(t *testing.T) {
	start := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	testCases := []struct {
		name        string
		id          string
		product     ProductID
		equipment   EquipmentID
		hours       float64
		expectError string
	}{
		{"empty id", "", "P1", "EQ1", 2, "batch id cannot be empty"},
		{"empty product", "B1", "", "EQ1", 2, "product id cannot be empty"},
		{"empty equipment", "B1", "P1", "", 2, "equipment id cannot be empty"},
		{"zero duration", "B1", "P1", "EQ1", 0, "duration must be positive, got 0"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewBatch(tc.id, tc.product, "", tc.equipment, start, tc.hours, "", "")
			require.Error(t, err)
			assert.Equal(t, tc.expectError, err.Error())
		})
	}
}
