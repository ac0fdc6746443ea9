package entities

import "errors"

// Sentinel errors shared by the catalogue and the plan.
var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("duplicate")
)
