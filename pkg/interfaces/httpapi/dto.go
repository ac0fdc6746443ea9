package httpapi

import (
	"time"

	"github.com/vsinha/aps/pkg/domain/entities"
	"github.com/vsinha/aps/pkg/domain/plan"
)

// Request payloads

type MoveRequest struct {
	EquipmentID string    `json:"equipment_id" minLength:"1"`
	Start       time.Time `json:"start" doc:"New start instant, RFC 3339"`
}

type batchPath struct {
	ID string `path:"id"`
}

// Response payloads

type BatchListResponse struct {
	Body struct {
		Batches []plan.FlatRow `json:"batches"`
	}
}

type BatchResponse struct {
	Body entities.Batch
}

type GridColumn struct {
	Date string `json:"date"`
	Slot int    `json:"slot"`
}

type GridResponse struct {
	Body struct {
		Equipment []string     `json:"equipment"`
		Columns   []GridColumn `json:"columns"`
		Cells     [][]string   `json:"cells"`
	}
}

type ValidationResponse struct {
	Body struct {
		Valid  bool   `json:"valid"`
		Reason string `json:"reason,omitempty"`
	}
}

type WithdrawResponse struct {
	Body struct {
		Removed int `json:"removed"`
	}
}

type Event struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Version   int       `json:"version"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

type EventListResponse struct {
	Body struct {
		Events []Event `json:"events"`
	}
}
