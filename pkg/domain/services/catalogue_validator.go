package services

import (
	"fmt"

	"github.com/vsinha/aps/pkg/domain/entities"
)

// CatalogueValidator checks the referential integrity of the master catalogue
type CatalogueValidator struct{}

// NewCatalogueValidator creates a new catalogue validator
func NewCatalogueValidator() *CatalogueValidator {
	return &CatalogueValidator{}
}

// RouteStep addresses one process of one product's route
type RouteStep struct {
	ProductID entities.ProductID
	ProcessID entities.ProcessID
}

// ValidationResult contains the results of catalogue validation. Errors make
// scheduling impossible for the products involved; warnings only flag steps
// that will always end up unscheduled.
type ValidationResult struct {
	Errors            []string
	Warnings          []string
	UnroutableSteps   []RouteStep
	OrphanedProcesses []entities.ProcessID
}

// Valid reports whether no errors were found
func (r *ValidationResult) Valid() bool {
	return len(r.Errors) == 0
}

// Validate runs every catalogue check
func (v *CatalogueValidator) Validate(
	processes []*entities.Process,
	products []*entities.Product,
	equipment []*entities.Equipment,
) *ValidationResult {
	result := &ValidationResult{
		Errors:   make([]string, 0),
		Warnings: make([]string, 0),
	}

	processByID := make(map[entities.ProcessID]*entities.Process, len(processes))
	for _, p := range processes {
		processByID[p.ID] = p
	}
	productIDs := make(map[entities.ProductID]bool, len(products))
	for _, p := range products {
		productIDs[p.ID] = true
	}
	equipmentByID := make(map[entities.EquipmentID]*entities.Equipment, len(equipment))
	equipmentByProcess := make(map[entities.ProcessID][]*entities.Equipment)
	for _, eq := range equipment {
		equipmentByID[eq.ID] = eq
		equipmentByProcess[eq.ProcessID] = append(equipmentByProcess[eq.ProcessID], eq)
	}

	v.checkEquipment(equipment, processByID, productIDs, result)
	for _, product := range products {
		v.checkRoute(product, processByID, equipmentByID, equipmentByProcess, result)
	}

	for _, p := range processes {
		if len(equipmentByProcess[p.ID]) == 0 {
			result.OrphanedProcesses = append(result.OrphanedProcesses, p.ID)
			result.Warnings = append(result.Warnings, fmt.Sprintf("process %s has no equipment", p.ID))
		}
	}

	return result
}

func (v *CatalogueValidator) checkEquipment(
	equipment []*entities.Equipment,
	processByID map[entities.ProcessID]*entities.Process,
	productIDs map[entities.ProductID]bool,
	result *ValidationResult,
) {
	for _, eq := range equipment {
		if _, ok := processByID[eq.ProcessID]; !ok {
			result.Errors = append(result.Errors,
				fmt.Sprintf("equipment %s references unknown process %s", eq.ID, eq.ProcessID))
		}
		for _, productID := range eq.EligibleProducts {
			if !productIDs[productID] {
				result.Warnings = append(result.Warnings,
					fmt.Sprintf("equipment %s lists unknown product %s", eq.ID, productID))
			}
		}
	}
}

// checkRoute validates one product's route. A process appearing twice makes the
// route ambiguous and is rejected, as is a step on an unknown process.
func (v *CatalogueValidator) checkRoute(
	product *entities.Product,
	processByID map[entities.ProcessID]*entities.Process,
	equipmentByID map[entities.EquipmentID]*entities.Equipment,
	equipmentByProcess map[entities.ProcessID][]*entities.Equipment,
	result *ValidationResult,
) {
	if len(product.ProcessOrder) == 0 {
		result.Warnings = append(result.Warnings, fmt.Sprintf("product %s has an empty route", product.ID))
	}

	seen := make(map[entities.ProcessID]bool)
	lastSequence := 0
	for _, processID := range product.ProcessOrder {
		if seen[processID] {
			result.Errors = append(result.Errors,
				fmt.Sprintf("product %s visits process %s more than once", product.ID, processID))
			continue
		}
		seen[processID] = true

		process, ok := processByID[processID]
		if !ok {
			result.Errors = append(result.Errors,
				fmt.Sprintf("product %s routes through unknown process %s", product.ID, processID))
			continue
		}
		if process.Sequence < lastSequence {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("product %s visits process %s out of sequence order", product.ID, processID))
		}
		lastSequence = process.Sequence

		eligible := false
		for _, eq := range equipmentByProcess[processID] {
			if eq.CanRun(product.ID) {
				eligible = true
				break
			}
		}
		if !eligible {
			result.UnroutableSteps = append(result.UnroutableSteps, RouteStep{ProductID: product.ID, ProcessID: processID})
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("no equipment can run product %s in process %s", product.ID, processID))
		}
	}

	for _, id := range product.PreferredEquipment {
		eq, ok := equipmentByID[id]
		if !ok {
			result.Errors = append(result.Errors,
				fmt.Sprintf("product %s prefers unknown equipment %s", product.ID, id))
			continue
		}
		if !seen[eq.ProcessID] {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("product %s prefers equipment %s outside its route", product.ID, id))
		}
	}
}
