// Package scheduler turns normalized demand into a ProductionPlan with a
// single-pass, first-fit slot allocation over a day grid of fixed slots.
package scheduler

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/vsinha/aps/pkg/application/dto"
	"github.com/vsinha/aps/pkg/domain/entities"
	"github.com/vsinha/aps/pkg/domain/plan"
	"github.com/vsinha/aps/pkg/domain/repositories"
	"github.com/vsinha/aps/pkg/infrastructure/events"
)

// DefaultSearchWindowDays bounds the forward search for every process step
const DefaultSearchWindowDays = 30

// APSScheduler allocates process steps of demand to equipment slots
type APSScheduler struct {
	md           repositories.MasterData
	logger       *zap.Logger
	optimizer    Optimizer
	changeover   ChangeoverPolicy
	events       events.EventStore
	searchWindow int
}

// Option configures an APSScheduler
type Option func(*APSScheduler)

// WithLogger sets the logger used for run summaries and skipped steps
func WithLogger(logger *zap.Logger) Option {
	return func(s *APSScheduler) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithSearchWindow sets the number of calendar days searched per process step
func WithSearchWindow(days int) Option {
	return func(s *APSScheduler) {
		if days > 0 {
			s.searchWindow = days
		}
	}
}

// WithOptimizer installs a post-generation optimizer
func WithOptimizer(o Optimizer) Option {
	return func(s *APSScheduler) {
		if o != nil {
			s.optimizer = o
		}
	}
}

// WithChangeoverPolicy installs a changeover block policy
func WithChangeoverPolicy(c ChangeoverPolicy) Option {
	return func(s *APSScheduler) {
		if c != nil {
			s.changeover = c
		}
	}
}

// WithEventStore publishes scheduled and unscheduled steps to the store
func WithEventStore(store events.EventStore) Option {
	return func(s *APSScheduler) {
		s.events = store
	}
}

// NewAPSScheduler creates a scheduler reading the given catalogue
func NewAPSScheduler(md repositories.MasterData, opts ...Option) *APSScheduler {
	s := &APSScheduler{
		md:           md,
		logger:       zap.NewNop(),
		optimizer:    NoopOptimizer{},
		changeover:   NoChangeover{},
		searchWindow: DefaultSearchWindowDays,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// placement is an accepted (day, slot, equipment) triple
type placement struct {
	day       time.Time
	slot      int
	equipment *entities.Equipment
}

// Schedule places every unit batch of the entries into p and reports what
// could not be placed. Existing batches in p are treated as occupied.
func (s *APSScheduler) Schedule(ctx context.Context, entries []entities.DemandEntry, p *plan.ProductionPlan) (*dto.ScheduleResult, error) {
	started := time.Now()
	if p == nil {
		p = plan.New()
	}
	entries = entities.SequenceEntries(entries)
	result := &dto.ScheduleResult{Plan: p, Entries: entries}

	occ := newOccupancy()
	for _, b := range p.Batches() {
		occ.markBatch(b)
	}

	for _, entry := range OrderEntries(entries) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		units := entry.UnitBatches()
		product, err := s.md.GetProduct(entry.ProductID)
		if err != nil {
			for unit := 0; unit < units; unit++ {
				result.RequestedUnits++
				s.skip(result, dto.UnscheduledStep{
					ProductID: entry.ProductID,
					LotNumber: entry.LotFor(unit),
					Day:       entry.Day,
					Reason:    dto.ReasonUnknownProduct,
				})
			}
			continue
		}

		for unit := 0; unit < units; unit++ {
			result.RequestedUnits++
			if s.scheduleUnit(result, occ, product, entry, entry.LotFor(unit)) {
				result.PlacedUnits++
			}
		}
	}

	if err := s.optimizer.Optimize(ctx, p, s.md); err != nil {
		return nil, fmt.Errorf("optimizer failed: %w", err)
	}

	result.Duration = time.Since(started)
	s.logger.Info("schedule generated",
		zap.Int("entries", len(entries)),
		zap.Int("requested_units", result.RequestedUnits),
		zap.Int("placed_units", result.PlacedUnits),
		zap.Int("unscheduled_steps", len(result.Unscheduled)),
		zap.Int("batches", p.Len()),
		zap.Duration("elapsed", result.Duration))
	return result, nil
}

// Run normalizes an intake table and schedules it into a fresh plan
func (s *APSScheduler) Run(ctx context.Context, table entities.DemandTable, catalogue repositories.ProductCatalogue, opts IntakeOptions) (*dto.ScheduleResult, error) {
	intake, err := NormalizeIntake(table, catalogue, opts)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("intake normalized",
		zap.Stringer("shape", intake.Shape),
		zap.Int("entries", len(intake.Entries)),
		zap.Int("unresolved", len(intake.Unresolved)))

	result, err := s.Schedule(ctx, intake.Entries, plan.New())
	if err != nil {
		return nil, err
	}
	result.Unresolved = intake.Unresolved
	return result, nil
}

// scheduleUnit walks the product route for one unit batch. It stops at the
// first step that cannot be placed; later steps have no resume point.
func (s *APSScheduler) scheduleUnit(result *dto.ScheduleResult, occ *occupancy, product *entities.Product, entry entities.DemandEntry, lot string) bool {
	day, slot := entities.Day(entry.Day), 0

	for pos, processID := range product.ProcessOrder {
		step := dto.UnscheduledStep{
			ProductID: product.ID,
			ProcessID: processID,
			Position:  pos,
			LotNumber: lot,
			Day:       day,
		}

		process, err := s.md.GetProcess(processID)
		if err != nil {
			step.Reason = dto.ReasonUnknownProcess
			s.skip(result, step)
			return false
		}
		equipment := s.md.GetEquipmentForProcess(processID)
		if len(equipment) == 0 {
			step.Reason = dto.ReasonNoEquipment
			s.skip(result, step)
			return false
		}

		hours := product.DurationFor(process)
		if hours <= 0 {
			hours = entities.SlotHours
		}
		// reserve every slot the real end reaches
		slots := entities.SlotsReached(hours)

		found, ok := s.findSlot(product.ID, processID, equipment, day, slot, slots, hours, occ)
		if !ok {
			step.Reason = dto.ReasonNoSlot
			s.skip(result, step)
			return false
		}

		batch, err := entities.NewBatch(
			entities.NewBatchID(),
			product.ID,
			product.Name,
			found.equipment.ID,
			entities.SlotStart(found.day, found.slot),
			hours,
			processID,
			lot,
		)
		if err != nil {
			step.Reason = err.Error()
			s.skip(result, step)
			return false
		}
		if err := result.Plan.AddBatch(batch); err != nil {
			step.Reason = err.Error()
			s.skip(result, step)
			return false
		}
		occ.mark(found.equipment.ID, found.day, found.slot, slots)
		s.insertChangeover(result.Plan, occ, batch)
		s.publish(events.NewBatchScheduledEvent(*batch))

		// resume right after this step's slot range
		endSlot := found.slot + slots - 1
		day, slot = found.day, endSlot+1
		if slot >= entities.SlotsPerDay {
			day, slot = day.AddDate(0, 0, 1), 0
		}
		if lead := product.LeadDaysAfter(processID); lead > 0 {
			day, slot = day.AddDate(0, 0, lead), 0
		}
	}
	return true
}

// findSlot searches forward from (day, startSlot) for the first day/slot where
// operators are rostered and an eligible equipment unit is free.
func (s *APSScheduler) findSlot(
	productID entities.ProductID,
	processID entities.ProcessID,
	equipment []*entities.Equipment,
	day time.Time,
	startSlot, slots int,
	hours float64,
	occ *occupancy,
) (placement, bool) {
	for offset := 0; offset < s.searchWindow; offset++ {
		candidate := day.AddDate(0, 0, offset)
		first := 0
		if offset == 0 {
			first = startSlot
		}
		if entities.IsWeekend(candidate) {
			continue
		}
		if _, ok := s.md.GetOperatorCapacity(processID, candidate); !ok {
			continue
		}

		for slot := first; slot+slots <= entities.SlotsPerDay; slot++ {
			start := entities.SlotStart(candidate, slot)
			end := entities.EndOf(start, hours)
			for _, eq := range equipment {
				if !eq.CanRun(productID) {
					continue
				}
				if !occ.free(eq.ID, candidate, slot, slots) {
					continue
				}
				if !eq.IsAvailableBetween(start, end) {
					continue
				}
				return placement{day: candidate, slot: slot, equipment: eq}, true
			}
		}
	}
	return placement{}, false
}

// insertChangeover consults the changeover policy; blocks that would collide
// with existing work are not inserted.
func (s *APSScheduler) insertChangeover(p *plan.ProductionPlan, occ *occupancy, next *entities.Batch) {
	var prev *entities.Batch
	for _, b := range p.BatchesByEquipment(next.EquipmentID) {
		if b.End.After(next.Start) {
			break
		}
		b := b
		prev = &b
	}
	for _, block := range s.changeover.Between(prev, next) {
		if block == nil || p.CheckOverlap(block.EquipmentID, block.Start, block.DurationHours, "") {
			continue
		}
		block.IsCleaning = true
		if err := p.AddBatch(block); err != nil {
			continue
		}
		occ.markBatch(*block)
	}
}

func (s *APSScheduler) skip(result *dto.ScheduleResult, step dto.UnscheduledStep) {
	result.Unscheduled = append(result.Unscheduled, step)
	s.logger.Debug("process step not scheduled",
		zap.String("product", string(step.ProductID)),
		zap.String("process", string(step.ProcessID)),
		zap.String("lot", step.LotNumber),
		zap.Time("day", step.Day),
		zap.String("reason", step.Reason))
	s.publish(events.NewDemandUnscheduledEvent(events.DemandUnscheduled{
		ProductID: step.ProductID,
		ProcessID: step.ProcessID,
		LotNumber: step.LotNumber,
		Day:       step.Day,
		Reason:    step.Reason,
	}))
}

func (s *APSScheduler) publish(e events.Event) {
	if s.events == nil {
		return
	}
	if err := s.events.AppendEvent(e.StreamID(), e); err != nil {
		s.logger.Warn("failed to publish event", zap.String("event", e.Type()), zap.Error(err))
	}
}

// OrderEntries sorts demand by production day, then ascending priority rank.
// Entries with equal day and rank keep their intake order.
func OrderEntries(entries []entities.DemandEntry) []entities.DemandEntry {
	ordered := make([]entities.DemandEntry, len(entries))
	copy(ordered, entries)
	sort.SliceStable(ordered, func(i, j int) bool {
		di, dj := entities.Day(ordered[i].Day), entities.Day(ordered[j].Day)
		if !di.Equal(dj) {
			return di.Before(dj)
		}
		return ordered[i].Priority < ordered[j].Priority
	})
	return ordered
}
