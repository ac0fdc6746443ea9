// Package aps is the library entry point for embedding the planner: fill a
// catalogue, hand it a raw demand table and get back a production plan that
// can be edited afterwards.
package aps

import (
	"context"

	"go.uber.org/zap"

	"github.com/vsinha/aps/pkg/application/dto"
	"github.com/vsinha/aps/pkg/application/services/editing"
	"github.com/vsinha/aps/pkg/application/services/scheduler"
	"github.com/vsinha/aps/pkg/domain/entities"
	"github.com/vsinha/aps/pkg/domain/plan"
	"github.com/vsinha/aps/pkg/domain/services"
	"github.com/vsinha/aps/pkg/infrastructure/events"
	"github.com/vsinha/aps/pkg/infrastructure/repositories/memory"
)

// PlannerConfig holds tuning for a Planner
type PlannerConfig struct {
	// SearchWindowDays bounds the slot search per process step (0 = scheduler default)
	SearchWindowDays int
	// Year that monthly intake columns refer to (0 = current year)
	Year int
	// Optional hooks; nil keeps the no-op defaults
	Optimizer  scheduler.Optimizer
	Changeover scheduler.ChangeoverPolicy
	Logger     *zap.Logger
}

// Planner ties a catalogue, the scheduler and an event log together
type Planner struct {
	md     *memory.MasterDataStore
	events *events.InMemoryEventStore
	config PlannerConfig
	logger *zap.Logger
}

// NewPlanner creates a planner over md. A nil md starts an empty,
// non-persistent catalogue.
func NewPlanner(md *memory.MasterDataStore, config PlannerConfig) *Planner {
	if md == nil {
		md = memory.NewMasterDataStore(nil)
	}
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Planner{
		md:     md,
		events: events.NewInMemoryEventStore(logger),
		config: config,
		logger: logger,
	}
}

// Catalogue returns the master data the planner schedules against
func (p *Planner) Catalogue() *memory.MasterDataStore {
	return p.md
}

// Events returns the log of every scheduling and editing event so far
func (p *Planner) Events() *events.InMemoryEventStore {
	return p.events
}

// Validate checks the catalogue for dangling references and unroutable steps
func (p *Planner) Validate() *services.ValidationResult {
	return services.NewCatalogueValidator().Validate(p.md.GetProcessesOrdered(), p.md.Products(), p.md.Equipment())
}

// Schedule normalizes the demand table and schedules it into a new plan
func (p *Planner) Schedule(ctx context.Context, table entities.DemandTable) (*dto.ScheduleResult, error) {
	return p.Reschedule(ctx, table, nil)
}

// Reschedule schedules the demand table around the batches already in existing.
// The existing plan is extended in place.
func (p *Planner) Reschedule(ctx context.Context, table entities.DemandTable, existing *plan.ProductionPlan) (*dto.ScheduleResult, error) {
	intake, err := scheduler.NormalizeIntake(table, p.md, scheduler.IntakeOptions{Year: p.config.Year})
	if err != nil {
		return nil, err
	}
	if existing == nil {
		existing = plan.New()
	}

	result, err := p.scheduler().Schedule(ctx, intake.Entries, existing)
	if err != nil {
		return nil, err
	}
	result.Unresolved = intake.Unresolved
	return result, nil
}

// Editor returns an editor for pl that publishes into the planner's event log
func (p *Planner) Editor(pl *plan.ProductionPlan) *editing.PlanEditor {
	return editing.NewPlanEditor(pl, p.md, p.events, p.logger)
}

func (p *Planner) scheduler() *scheduler.APSScheduler {
	return scheduler.NewAPSScheduler(p.md,
		scheduler.WithLogger(p.logger),
		scheduler.WithSearchWindow(p.config.SearchWindowDays),
		scheduler.WithOptimizer(p.config.Optimizer),
		scheduler.WithChangeoverPolicy(p.config.Changeover),
		scheduler.WithEventStore(p.events),
	)
}
