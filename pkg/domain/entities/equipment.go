package entities

import "time"

// Window is a half-open [Start, End) time range
type Window struct {
	Start time.Time `yaml:"start" json:"start"`
	End   time.Time `yaml:"end" json:"end"`
}

// Contains reports whether the instant falls inside the window
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// Overlaps reports whether [start, end) intersects the window
func (w Window) Overlaps(start, end time.Time) bool {
	return start.Before(w.End) && w.Start.Before(end)
}

// Equipment represents a machine owned by exactly one process
type Equipment struct {
	ID                EquipmentID                     `yaml:"id" json:"id"`
	Name              string                          `yaml:"name" json:"name"`
	ProcessID         ProcessID                       `yaml:"process_id" json:"process_id"`
	EligibleProducts  []ProductID                     `yaml:"eligible_products" json:"eligible_products"`
	Blackout          *Window                         `yaml:"blackout,omitempty" json:"blackout,omitempty"`
	DisplayAttributes map[ProductID]map[string]string `yaml:"display_attributes,omitempty" json:"display_attributes,omitempty"`
}

// CanRun reports whether the product is listed as eligible on this equipment
func (e *Equipment) CanRun(productID ProductID) bool {
	for _, id := range e.EligibleProducts {
		if id == productID {
			return true
		}
	}
	return false
}

// IsAvailableAt is false only when the instant falls inside the blackout window
func (e *Equipment) IsAvailableAt(t time.Time) bool {
	if e.Blackout == nil {
		return true
	}
	return !e.Blackout.Contains(t)
}

// IsAvailableBetween is false when [start, end) touches the blackout window
func (e *Equipment) IsAvailableBetween(start, end time.Time) bool {
	if e.Blackout == nil {
		return true
	}
	return !e.Blackout.Overlaps(start, end)
}
