// Package editing applies manual edits coming from the plan UI: drag-and-drop
// moves, deletions and lot withdrawals. Every edit is validated and applied
// under the plan lock.
package editing

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/vsinha/aps/pkg/domain/entities"
	"github.com/vsinha/aps/pkg/domain/plan"
	"github.com/vsinha/aps/pkg/domain/repositories"
	"github.com/vsinha/aps/pkg/infrastructure/events"
)

// ErrInvalidMove wraps the reason a move was rejected
var ErrInvalidMove = errors.New("invalid batch move")

// PlanEditor validates and applies edits to a ProductionPlan
type PlanEditor struct {
	plan   *plan.ProductionPlan
	md     repositories.MasterData
	events events.EventStore
	logger *zap.Logger
}

// NewPlanEditor creates an editor; store and logger may be nil
func NewPlanEditor(p *plan.ProductionPlan, md repositories.MasterData, store events.EventStore, logger *zap.Logger) *PlanEditor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PlanEditor{plan: p, md: md, events: store, logger: logger}
}

// Plan returns the plan being edited
func (e *PlanEditor) Plan() *plan.ProductionPlan {
	return e.plan
}

// ValidateBatchMove reports whether the batch can be moved to the equipment and
// start instant, and why not when it cannot. It never mutates the plan.
func (e *PlanEditor) ValidateBatchMove(batchID string, equipmentID entities.EquipmentID, start time.Time) (bool, string) {
	var ok bool
	var reason string
	_ = e.plan.Atomically(func(tx *plan.Txn) error {
		ok, reason = e.validate(tx, batchID, equipmentID, start)
		return nil
	})
	return ok, reason
}

// ApplyMove validates and performs a move as one step. The returned batch is
// the moved state; a rejected move leaves the plan untouched.
func (e *PlanEditor) ApplyMove(batchID string, equipmentID entities.EquipmentID, start time.Time) (entities.Batch, error) {
	var before, after entities.Batch
	err := e.plan.Atomically(func(tx *plan.Txn) error {
		if ok, reason := e.validate(tx, batchID, equipmentID, start); !ok {
			return fmt.Errorf("%w: %s", ErrInvalidMove, reason)
		}
		before, _ = tx.Batch(batchID)
		if err := tx.MoveBatch(batchID, equipmentID, start); err != nil {
			return err
		}
		after, _ = tx.Batch(batchID)
		return nil
	})
	if err != nil {
		e.logger.Info("batch move rejected",
			zap.String("batch", batchID),
			zap.String("equipment", string(equipmentID)),
			zap.Time("start", start),
			zap.Error(err))
		return entities.Batch{}, err
	}

	e.logger.Info("batch moved",
		zap.String("batch", batchID),
		zap.String("from", string(before.EquipmentID)),
		zap.String("to", string(after.EquipmentID)),
		zap.Time("start", after.Start))
	e.publish(events.NewBatchMovedEvent(before, after))
	return after, nil
}

// DeleteBatch removes one batch from the plan
func (e *PlanEditor) DeleteBatch(batchID string) error {
	var removed entities.Batch
	err := e.plan.Atomically(func(tx *plan.Txn) error {
		b, ok := tx.Batch(batchID)
		if !ok {
			return fmt.Errorf("batch %s: %w", batchID, entities.ErrNotFound)
		}
		removed = b
		return tx.RemoveBatch(batchID)
	})
	if err != nil {
		return err
	}
	e.logger.Info("batch deleted", zap.String("batch", batchID))
	e.publish(events.NewBatchRemovedEvent(removed, "deleted"))
	return nil
}

// WithdrawLot removes every batch of a lot after its demand was withdrawn and
// returns how many batches were dropped.
func (e *PlanEditor) WithdrawLot(lotNumber string) int {
	if lotNumber == "" {
		return 0
	}
	var removed []entities.Batch
	e.plan.RemoveWhere(func(b entities.Batch) bool {
		if b.LotNumber == lotNumber {
			removed = append(removed, b)
			return true
		}
		return false
	})
	for _, b := range removed {
		e.publish(events.NewBatchRemovedEvent(b, "lot withdrawn"))
	}
	e.logger.Info("lot withdrawn", zap.String("lot", lotNumber), zap.Int("batches", len(removed)))
	return len(removed)
}

func (e *PlanEditor) validate(tx *plan.Txn, batchID string, equipmentID entities.EquipmentID, start time.Time) (bool, string) {
	b, ok := tx.Batch(batchID)
	if !ok {
		return false, fmt.Sprintf("batch %s not found", batchID)
	}

	eq, err := e.md.GetEquipment(equipmentID)
	if err != nil {
		return false, fmt.Sprintf("equipment %s not found", equipmentID)
	}
	if b.ProcessID != "" && eq.ProcessID != b.ProcessID {
		return false, fmt.Sprintf("equipment %s does not serve process %s", equipmentID, b.ProcessID)
	}
	if !b.IsCleaning && !eq.CanRun(b.ProductID) {
		return false, fmt.Sprintf("product %s is not eligible on equipment %s", b.ProductID, equipmentID)
	}

	if !entities.OnSlotBoundary(start) {
		return false, fmt.Sprintf("start %s is not on a slot boundary", start.Format("15:04"))
	}
	moved := b
	moved.Reschedule(equipmentID, start)
	if moved.End.After(entities.SlotStart(start, entities.SlotsPerDay)) || !moved.WithinOneDay() {
		return false, "batch must stay within a single day's slots"
	}
	if !eq.IsAvailableBetween(moved.Start, moved.End) {
		return false, fmt.Sprintf("equipment %s is unavailable during its blackout window", equipmentID)
	}

	processID := eq.ProcessID
	info, ok := e.md.GetOperatorInfo(processID, start)
	if !ok {
		return false, fmt.Sprintf("no operators are rostered for %s on %s", processID, entities.Day(start).Format("2006-01-02"))
	}
	load := 0
	for _, other := range tx.BatchesByDate(start) {
		if other.ID != batchID && other.ProcessID == processID && !other.IsCleaning {
			load++
		}
	}
	if float64(load+1) > info.TotalCapacity {
		return false, fmt.Sprintf("operator capacity for %s on %s is exhausted (%d of %g)",
			processID, entities.Day(start).Format("2006-01-02"), load, info.TotalCapacity)
	}

	if tx.CheckOverlap(equipmentID, moved.Start, moved.DurationHours, batchID) {
		return false, fmt.Sprintf("overlaps another batch on equipment %s", equipmentID)
	}
	return true, ""
}

func (e *PlanEditor) publish(ev events.Event) {
	if e.events == nil {
		return
	}
	if err := e.events.AppendEvent(ev.StreamID(), ev); err != nil {
		e.logger.Warn("failed to publish event", zap.String("event", ev.Type()), zap.Error(err))
	}
}
