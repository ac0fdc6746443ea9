package events

import (
	"time"

	"github.com/vsinha/aps/pkg/domain/entities"
)

const (
	BatchScheduledEvent    = "batch.scheduled"
	BatchMovedEvent        = "batch.moved"
	BatchRemovedEvent      = "batch.removed"
	DemandUnscheduledEvent = "demand.unscheduled"
)

// PlanStream is the stream every plan lifecycle event is appended to
const PlanStream = "plan"

type BatchScheduled struct {
	Batch entities.Batch `json:"batch"`
}

type BatchMoved struct {
	Before entities.Batch `json:"before"`
	After  entities.Batch `json:"after"`
}

type BatchRemoved struct {
	Batch  entities.Batch `json:"batch"`
	Reason string         `json:"reason"`
}

type DemandUnscheduled struct {
	ProductID entities.ProductID `json:"product_id"`
	ProcessID entities.ProcessID `json:"process_id"`
	LotNumber string             `json:"lot_number"`
	Day       time.Time          `json:"day"`
	Reason    string             `json:"reason"`
}

func NewBatchScheduledEvent(b entities.Batch) Event {
	return NewEvent(BatchScheduledEvent, PlanStream, BatchScheduled{Batch: b})
}

func NewBatchMovedEvent(before, after entities.Batch) Event {
	return NewEvent(BatchMovedEvent, PlanStream, BatchMoved{Before: before, After: after})
}

func NewBatchRemovedEvent(b entities.Batch, reason string) Event {
	return NewEvent(BatchRemovedEvent, PlanStream, BatchRemoved{Batch: b, Reason: reason})
}

func NewDemandUnscheduledEvent(d DemandUnscheduled) Event {
	return NewEvent(DemandUnscheduledEvent, PlanStream, d)
}
