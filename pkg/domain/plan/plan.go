// Package plan holds the ProductionPlan aggregate: every scheduled batch, an
// equipment-indexed timeline and the projections used for export.
//
// Plan primitives do not enforce the no-overlap invariant; callers check with
// CheckOverlap first. Check-then-act sequences belong inside Atomically.
package plan

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/vsinha/aps/pkg/domain/entities"
)

// ProductionPlan is the mutable set of scheduled batches
type ProductionPlan struct {
	mu sync.RWMutex

	batches  map[string]*entities.Batch
	timeline map[entities.EquipmentID][]string

	flatCache []FlatRow
}

// New creates an empty plan
func New() *ProductionPlan {
	return &ProductionPlan{
		batches:  make(map[string]*entities.Batch),
		timeline: make(map[entities.EquipmentID][]string),
	}
}

// Txn is an unlocked view of the plan handed out by Atomically
type Txn struct {
	p *ProductionPlan
}

// Atomically runs fn while holding the plan's write lock. fn must only use the
// Txn it receives; calling locked plan methods from fn deadlocks.
func (p *ProductionPlan) Atomically(fn func(tx *Txn) error) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return fn(&Txn{p: p})
}

// AddBatch appends a batch to the id map and its equipment timeline
func (p *ProductionPlan) AddBatch(b *entities.Batch) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.addBatch(b)
}

// RemoveBatch deletes a batch from the plan
func (p *ProductionPlan) RemoveBatch(id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.removeBatch(id)
}

// MoveBatch reassigns equipment and start, recomputing the end instant.
// It does not check for overlaps.
func (p *ProductionPlan) MoveBatch(id string, equipmentID entities.EquipmentID, start time.Time) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.moveBatch(id, equipmentID, start)
}

// CheckOverlap reports whether any batch on the equipment, other than
// excludeBatchID, intersects [start, start+durationHours).
func (p *ProductionPlan) CheckOverlap(equipmentID entities.EquipmentID, start time.Time, durationHours float64, excludeBatchID string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.checkOverlap(equipmentID, start, durationHours, excludeBatchID)
}

// Batch returns a copy of the batch with the given id
func (p *ProductionPlan) Batch(id string) (entities.Batch, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.batch(id)
}

// Len returns the number of batches
func (p *ProductionPlan) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.batches)
}

// Batches returns every batch ordered by start, equipment, then id
func (p *ProductionPlan) Batches() []entities.Batch {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.sortedBatches()
}

// EquipmentIDs returns the equipment that has at least one batch, sorted
func (p *ProductionPlan) EquipmentIDs() []entities.EquipmentID {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.equipmentIDs()
}

// BatchesByEquipment returns the equipment timeline sorted by start
func (p *ProductionPlan) BatchesByEquipment(equipmentID entities.EquipmentID) []entities.Batch {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.batchesByEquipment(equipmentID)
}

// BatchesByDate returns batches starting on the given day, ordered by equipment then start
func (p *ProductionPlan) BatchesByDate(date time.Time) []entities.Batch {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.batchesByDate(date)
}

// DateRange returns the first and last day covered by batches; ok is false for an empty plan
func (p *ProductionPlan) DateRange() (first, last time.Time, ok bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.dateRange()
}

func (p *ProductionPlan) dateRange() (first, last time.Time, ok bool) {
	for _, b := range p.batches {
		start, end := entities.Day(b.Start), entities.Day(b.End.Add(-time.Nanosecond))
		if end.Before(start) {
			end = start
		}
		if !ok || start.Before(first) {
			first = start
		}
		if !ok || end.After(last) {
			last = end
		}
		ok = true
	}
	return first, last, ok
}

// Clear drops every batch
func (p *ProductionPlan) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.batches = make(map[string]*entities.Batch)
	p.timeline = make(map[entities.EquipmentID][]string)
	p.flatCache = nil
}

// RemoveWhere deletes every batch matching pred and returns how many were removed
func (p *ProductionPlan) RemoveWhere(pred func(entities.Batch) bool) int {
	p.mu.Lock()
	defer p.mu.Unlock()

	var ids []string
	for id, b := range p.batches {
		if pred(*b) {
			ids = append(ids, id)
		}
	}
	for _, id := range ids {
		_ = p.removeBatch(id)
	}
	return len(ids)
}

// Txn operations

// AddBatch is the unlocked form of ProductionPlan.AddBatch
func (tx *Txn) AddBatch(b *entities.Batch) error { return tx.p.addBatch(b) }

// RemoveBatch is the unlocked form of ProductionPlan.RemoveBatch
func (tx *Txn) RemoveBatch(id string) error { return tx.p.removeBatch(id) }

// MoveBatch is the unlocked form of ProductionPlan.MoveBatch
func (tx *Txn) MoveBatch(id string, equipmentID entities.EquipmentID, start time.Time) error {
	return tx.p.moveBatch(id, equipmentID, start)
}

// CheckOverlap is the unlocked form of ProductionPlan.CheckOverlap
func (tx *Txn) CheckOverlap(equipmentID entities.EquipmentID, start time.Time, durationHours float64, excludeBatchID string) bool {
	return tx.p.checkOverlap(equipmentID, start, durationHours, excludeBatchID)
}

// Batch is the unlocked form of ProductionPlan.Batch
func (tx *Txn) Batch(id string) (entities.Batch, bool) { return tx.p.batch(id) }

// BatchesByDate is the unlocked form of ProductionPlan.BatchesByDate
func (tx *Txn) BatchesByDate(date time.Time) []entities.Batch { return tx.p.batchesByDate(date) }

// BatchesByEquipment is the unlocked form of ProductionPlan.BatchesByEquipment
func (tx *Txn) BatchesByEquipment(equipmentID entities.EquipmentID) []entities.Batch {
	return tx.p.batchesByEquipment(equipmentID)
}

// internal, callers hold the lock

func (p *ProductionPlan) addBatch(b *entities.Batch) error {
	if b == nil {
		return fmt.Errorf("batch cannot be nil")
	}
	if _, exists := p.batches[b.ID]; exists {
		return fmt.Errorf("batch %s: %w", b.ID, entities.ErrDuplicate)
	}
	stored := *b
	p.batches[b.ID] = &stored
	p.timeline[b.EquipmentID] = append(p.timeline[b.EquipmentID], b.ID)
	p.flatCache = nil
	return nil
}

func (p *ProductionPlan) removeBatch(id string) error {
	b, exists := p.batches[id]
	if !exists {
		return fmt.Errorf("batch %s: %w", id, entities.ErrNotFound)
	}
	p.unindex(b.EquipmentID, id)
	delete(p.batches, id)
	p.flatCache = nil
	return nil
}

func (p *ProductionPlan) moveBatch(id string, equipmentID entities.EquipmentID, start time.Time) error {
	b, exists := p.batches[id]
	if !exists {
		return fmt.Errorf("batch %s: %w", id, entities.ErrNotFound)
	}
	if b.EquipmentID != equipmentID {
		p.unindex(b.EquipmentID, id)
		p.timeline[equipmentID] = append(p.timeline[equipmentID], id)
	}
	b.Reschedule(equipmentID, start)
	p.flatCache = nil
	return nil
}

func (p *ProductionPlan) unindex(equipmentID entities.EquipmentID, id string) {
	ids := p.timeline[equipmentID]
	for i, existing := range ids {
		if existing == id {
			ids = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	if len(ids) == 0 {
		delete(p.timeline, equipmentID)
		return
	}
	p.timeline[equipmentID] = ids
}

func (p *ProductionPlan) checkOverlap(equipmentID entities.EquipmentID, start time.Time, durationHours float64, excludeBatchID string) bool {
	end := entities.EndOf(start, durationHours)
	for _, id := range p.timeline[equipmentID] {
		if id == excludeBatchID {
			continue
		}
		if p.batches[id].Overlaps(start, end) {
			return true
		}
	}
	return false
}

func (p *ProductionPlan) batch(id string) (entities.Batch, bool) {
	b, exists := p.batches[id]
	if !exists {
		return entities.Batch{}, false
	}
	return *b, true
}

func (p *ProductionPlan) batchesByEquipment(equipmentID entities.EquipmentID) []entities.Batch {
	ids := p.timeline[equipmentID]
	batches := make([]entities.Batch, 0, len(ids))
	for _, id := range ids {
		batches = append(batches, *p.batches[id])
	}
	sort.SliceStable(batches, func(i, j int) bool {
		if !batches[i].Start.Equal(batches[j].Start) {
			return batches[i].Start.Before(batches[j].Start)
		}
		return batches[i].ID < batches[j].ID
	})
	return batches
}

func (p *ProductionPlan) batchesByDate(date time.Time) []entities.Batch {
	day := entities.Day(date)
	var batches []entities.Batch
	for _, b := range p.batches {
		if entities.Day(b.Start).Equal(day) {
			batches = append(batches, *b)
		}
	}
	sort.SliceStable(batches, func(i, j int) bool {
		if batches[i].EquipmentID != batches[j].EquipmentID {
			return batches[i].EquipmentID < batches[j].EquipmentID
		}
		if !batches[i].Start.Equal(batches[j].Start) {
			return batches[i].Start.Before(batches[j].Start)
		}
		return batches[i].ID < batches[j].ID
	})
	return batches
}

func (p *ProductionPlan) sortedBatches() []entities.Batch {
	batches := make([]entities.Batch, 0, len(p.batches))
	for _, b := range p.batches {
		batches = append(batches, *b)
	}
	sort.SliceStable(batches, func(i, j int) bool {
		if !batches[i].Start.Equal(batches[j].Start) {
			return batches[i].Start.Before(batches[j].Start)
		}
		if batches[i].EquipmentID != batches[j].EquipmentID {
			return batches[i].EquipmentID < batches[j].EquipmentID
		}
		return batches[i].ID < batches[j].ID
	})
	return batches
}

func (p *ProductionPlan) equipmentIDs() []entities.EquipmentID {
	ids := make([]entities.EquipmentID, 0, len(p.timeline))
	for id := range p.timeline {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
