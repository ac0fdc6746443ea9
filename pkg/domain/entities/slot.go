package entities

import (
	"math"
	"time"
)

const (
	// SlotsPerDay is the number of fixed blocks a calendar day is divided into
	SlotsPerDay = 4
	// SlotHours is the wall-clock length of one block
	SlotHours = 2
)

// SlotsFor converts a duration in hours into a whole number of slots,
// rounding halves to even
func SlotsFor(hours float64) int {
	slots := int(math.RoundToEven(hours / SlotHours))
	if slots < 1 {
		return 1
	}
	return slots
}

// SlotsReached is the number of slots an interval of the given length touches
// when it starts on a slot boundary. It never undercounts the real end.
func SlotsReached(hours float64) int {
	slots := SlotsFor(hours)
	for float64(slots*SlotHours) < hours {
		slots++
	}
	return slots
}

// SlotStart returns the instant at which the given slot of day begins
func SlotStart(day time.Time, slot int) time.Time {
	return Day(day).Add(time.Duration(slot*SlotHours) * time.Hour)
}

// SlotOf returns the slot index an instant falls in
func SlotOf(t time.Time) int {
	return int(t.Sub(Day(t)).Hours()) / SlotHours
}

// OnSlotBoundary reports whether t is exactly the start of a slot
func OnSlotBoundary(t time.Time) bool {
	return t.Equal(SlotStart(t, SlotOf(t)))
}

// Day truncates an instant to midnight in its own location
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// IsWeekend reports whether the day is a Saturday or Sunday
func IsWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}
