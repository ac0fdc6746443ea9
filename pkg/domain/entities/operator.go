package entities

import (
	"fmt"
	"time"
)

// OperatorCapacity records the operators staffed on a process for one day.
// Its presence is the availability gate for that (process, date) pair.
type OperatorCapacity struct {
	ProcessID      ProcessID `yaml:"process_id" json:"process_id"`
	Date           time.Time `yaml:"date" json:"date"`
	Workers        int       `yaml:"workers" json:"workers"`
	UnitsPerWorker float64   `yaml:"units_per_worker" json:"units_per_worker"`
	TotalCapacity  float64   `yaml:"total_capacity" json:"total_capacity"`
}

// NewOperatorCapacity creates a validated OperatorCapacity with derived total capacity
func NewOperatorCapacity(processID ProcessID, date time.Time, workers int, unitsPerWorker float64) (*OperatorCapacity, error) {
	if processID == "" {
		return nil, fmt.Errorf("process id cannot be empty")
	}
	if workers < 0 {
		return nil, fmt.Errorf("workers cannot be negative, got %d", workers)
	}
	if unitsPerWorker < 0 {
		return nil, fmt.Errorf("units per worker cannot be negative, got %g", unitsPerWorker)
	}

	return &OperatorCapacity{
		ProcessID:      processID,
		Date:           Day(date),
		Workers:        workers,
		UnitsPerWorker: unitsPerWorker,
		TotalCapacity:  float64(workers) * unitsPerWorker,
	}, nil
}
