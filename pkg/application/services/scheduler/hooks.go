package scheduler

import (
	"context"

	"github.com/vsinha/aps/pkg/domain/entities"
	"github.com/vsinha/aps/pkg/domain/plan"
	"github.com/vsinha/aps/pkg/domain/repositories"
)

// Optimizer improves a generated schedule in place. The default does nothing.
type Optimizer interface {
	Optimize(ctx context.Context, p *plan.ProductionPlan, md repositories.MasterData) error
}

// NoopOptimizer leaves the first-fit schedule untouched
type NoopOptimizer struct{}

func (NoopOptimizer) Optimize(context.Context, *plan.ProductionPlan, repositories.MasterData) error {
	return nil
}

// ChangeoverPolicy decides which cleaning blocks to insert before next when it
// follows prev on the same equipment. prev is nil for the first batch.
type ChangeoverPolicy interface {
	Between(prev *entities.Batch, next *entities.Batch) []*entities.Batch
}

// NoChangeover never inserts cleaning blocks
type NoChangeover struct{}

func (NoChangeover) Between(*entities.Batch, *entities.Batch) []*entities.Batch {
	return nil
}
