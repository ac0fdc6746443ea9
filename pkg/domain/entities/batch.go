package entities

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Batch is one scheduled occurrence of one process step for one lot
type Batch struct {
	ID            string      `json:"id"`
	ProductID     ProductID   `json:"product_id"`
	ProductName   string      `json:"product_name"`
	EquipmentID   EquipmentID `json:"equipment_id"`
	Start         time.Time   `json:"start"`
	DurationHours float64     `json:"duration_hours"`
	End           time.Time   `json:"end"`
	ProcessID     ProcessID   `json:"process_id,omitempty"`
	LotNumber     string      `json:"lot_number,omitempty"`
	IsCleaning    bool        `json:"is_cleaning"`
}

// NewBatchID returns a fresh batch identifier
func NewBatchID() string {
	return uuid.NewString()
}

// NewBatch creates a validated Batch and derives its end instant
func NewBatch(
	id string,
	productID ProductID,
	productName string,
	equipmentID EquipmentID,
	start time.Time,
	durationHours float64,
	processID ProcessID,
	lotNumber string,
) (*Batch, error) {
	if id == "" {
		return nil, fmt.Errorf("batch id cannot be empty")
	}
	if productID == "" {
		return nil, fmt.Errorf("product id cannot be empty")
	}
	if equipmentID == "" {
		return nil, fmt.Errorf("equipment id cannot be empty")
	}
	if durationHours <= 0 {
		return nil, fmt.Errorf("duration must be positive, got %g", durationHours)
	}

	b := &Batch{
		ID:            id,
		ProductID:     productID,
		ProductName:   productName,
		EquipmentID:   equipmentID,
		Start:         start,
		DurationHours: durationHours,
		ProcessID:     processID,
		LotNumber:     lotNumber,
	}
	b.End = EndOf(start, durationHours)
	return b, nil
}

// EndOf derives an end instant from a start and a duration in hours
func EndOf(start time.Time, durationHours float64) time.Time {
	return start.Add(time.Duration(durationHours * float64(time.Hour)))
}

// Reschedule moves the batch to another equipment/start and recomputes its end
func (b *Batch) Reschedule(equipmentID EquipmentID, start time.Time) {
	b.EquipmentID = equipmentID
	b.Start = start
	b.End = EndOf(start, b.DurationHours)
}

// Overlaps reports whether [start, end) intersects the batch interval
func (b *Batch) Overlaps(start, end time.Time) bool {
	return start.Before(b.End) && b.Start.Before(end)
}

// SlotRange returns the first slot and the number of slots [Start, End)
// touches, counted from the start of its day
func (b *Batch) SlotRange() (first, count int) {
	first = SlotOf(b.Start)
	return first, SlotsReached(b.End.Sub(SlotStart(b.Start, first)).Hours())
}

// WithinOneDay reports whether every slot the batch touches lies in its start day
func (b *Batch) WithinOneDay() bool {
	first, count := b.SlotRange()
	return first >= 0 && first+count <= SlotsPerDay
}

// Label is the condensed cell text used by grid projections
func (b *Batch) Label() string {
	label := b.ProductName
	if label == "" {
		label = string(b.ProductID)
	}
	if b.ProcessID != "" {
		label += "/" + string(b.ProcessID)
	}
	if b.LotNumber != "" {
		label += "/" + b.LotNumber
	}
	if b.IsCleaning {
		label = "[clean] " + label
	}
	return label
}
