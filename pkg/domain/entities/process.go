package entities

// Process represents a processing step of the shop floor
type Process struct {
	ID                   ProcessID `yaml:"id" json:"id"`
	Name                 string    `yaml:"name" json:"name"`
	Sequence             int       `yaml:"sequence" json:"sequence"`
	DefaultDurationHours float64   `yaml:"default_duration_hours" json:"default_duration_hours"`
}
