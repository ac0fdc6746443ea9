package dto

import (
	"time"

	"github.com/vsinha/aps/pkg/domain/entities"
	"github.com/vsinha/aps/pkg/domain/plan"
)

// Reasons a unit batch step could not be placed
const (
	ReasonNoSlot         = "no_slot"
	ReasonNoEquipment    = "no_equipment"
	ReasonUnknownProcess = "unknown_process"
	ReasonUnknownProduct = "unknown_product"
)

// ScheduleResult contains the complete output of a scheduling run
type ScheduleResult struct {
	Plan           *plan.ProductionPlan
	Entries        []entities.DemandEntry
	Unscheduled    []UnscheduledStep
	Unresolved     []UnresolvedDemand
	RequestedUnits int
	PlacedUnits    int
	Duration       time.Duration
}

// UnscheduledStep is the first process step of a unit batch that could not be
// placed; later steps of the same unit were never attempted.
type UnscheduledStep struct {
	ProductID entities.ProductID `json:"product_id"`
	ProcessID entities.ProcessID `json:"process_id"`
	Position  int                `json:"position"`
	LotNumber string             `json:"lot_number"`
	Day       time.Time          `json:"day"`
	Reason    string             `json:"reason"`
}

// UnresolvedDemand is an intake row that could not be mapped to a product
type UnresolvedDemand struct {
	Row     int    `json:"row"`
	Product string `json:"product"`
	Reason  string `json:"reason"`
}

// Complete reports whether every requested unit batch was fully placed
func (r *ScheduleResult) Complete() bool {
	return r.PlacedUnits == r.RequestedUnits && len(r.Unresolved) == 0
}
