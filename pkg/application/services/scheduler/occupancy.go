package scheduler

import (
	"time"

	"github.com/vsinha/aps/pkg/domain/entities"
)

type slotKey struct {
	equipment entities.EquipmentID
	day       string
	slot      int
}

// occupancy tracks which (equipment, day, slot) cells are taken during a run
type occupancy struct {
	taken map[slotKey]bool
}

func newOccupancy() *occupancy {
	return &occupancy{taken: make(map[slotKey]bool)}
}

func key(equipmentID entities.EquipmentID, day time.Time, slot int) slotKey {
	// slots past the end of the day spill into the following days
	d := entities.Day(day).AddDate(0, 0, slot/entities.SlotsPerDay)
	return slotKey{equipment: equipmentID, day: d.Format("2006-01-02"), slot: slot % entities.SlotsPerDay}
}

func (o *occupancy) free(equipmentID entities.EquipmentID, day time.Time, first, count int) bool {
	for s := first; s < first+count; s++ {
		if o.taken[key(equipmentID, day, s)] {
			return false
		}
	}
	return true
}

func (o *occupancy) mark(equipmentID entities.EquipmentID, day time.Time, first, count int) {
	for s := first; s < first+count; s++ {
		o.taken[key(equipmentID, day, s)] = true
	}
}

func (o *occupancy) markBatch(b entities.Batch) {
	first, count := b.SlotRange()
	o.mark(b.EquipmentID, b.Start, first, count)
}
