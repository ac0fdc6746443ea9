package entities

import (
	"fmt"
	"time"
)

// ProductID identifies a product in the catalogue
type ProductID string

// ProcessID identifies a processing step
type ProcessID string

// EquipmentID identifies a piece of equipment
type EquipmentID string

// LeadTimeUnit is the unit a product lead time is expressed in
type LeadTimeUnit int

const (
	LeadTimeDays LeadTimeUnit = iota
	LeadTimeHours
)

// String method for LeadTimeUnit enum
func (u LeadTimeUnit) String() string {
	switch u {
	case LeadTimeDays:
		return "days"
	case LeadTimeHours:
		return "hours"
	default:
		return "unknown"
	}
}

// ParseLeadTimeUnit accepts "days"/"d" and "hours"/"h"; blank means days
func ParseLeadTimeUnit(s string) (LeadTimeUnit, error) {
	switch s {
	case "", "days", "day", "d":
		return LeadTimeDays, nil
	case "hours", "hour", "h":
		return LeadTimeHours, nil
	default:
		return LeadTimeDays, fmt.Errorf("invalid lead time unit: %s (expected days or hours)", s)
	}
}

// LeadTime is the overall time a product needs before its due date
type LeadTime struct {
	Value float64      `yaml:"value" json:"value"`
	Unit  LeadTimeUnit `yaml:"unit" json:"unit"`
}

// Product represents a catalogue product and the route it must follow
type Product struct {
	ID                 ProductID             `yaml:"id" json:"id"`
	Name               string                `yaml:"name" json:"name"`
	Priority           int                   `yaml:"priority" json:"priority"`
	ProcessOrder       []ProcessID           `yaml:"process_order" json:"process_order"`
	PreferredEquipment []EquipmentID         `yaml:"preferred_equipment,omitempty" json:"preferred_equipment,omitempty"`
	ProcessDurations   map[ProcessID]float64 `yaml:"process_durations,omitempty" json:"process_durations,omitempty"`
	ProcessLeadDays    map[ProcessID]int     `yaml:"process_lead_days,omitempty" json:"process_lead_days,omitempty"`
	LeadTime           LeadTime              `yaml:"lead_time" json:"lead_time"`
}

// DurationFor returns the hours this product spends in the given process,
// falling back to the process default when no override is configured.
func (p *Product) DurationFor(process *Process) float64 {
	if hours, ok := p.ProcessDurations[process.ID]; ok && hours > 0 {
		return hours
	}
	return process.DefaultDurationHours
}

// LeadDaysAfter returns the whole days to wait after the given process step
func (p *Product) LeadDaysAfter(processID ProcessID) int {
	return p.ProcessLeadDays[processID]
}

// ProductionDate back-computes the production day from a due date
func (p *Product) ProductionDate(due time.Time) time.Time {
	switch p.LeadTime.Unit {
	case LeadTimeHours:
		return Day(due.Add(-time.Duration(p.LeadTime.Value * float64(time.Hour))))
	default:
		return Day(due).AddDate(0, 0, -int(p.LeadTime.Value))
	}
}

// HasProcess reports whether the process is part of this product's route
func (p *Product) HasProcess(processID ProcessID) bool {
	for _, id := range p.ProcessOrder {
		if id == processID {
			return true
		}
	}
	return false
}
