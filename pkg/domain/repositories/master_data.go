package repositories

import (
	"time"

	"github.com/vsinha/aps/pkg/domain/entities"
)

// MasterData provides the catalogue queries the scheduler and the plan editor rely on.
// Implementations must treat a missing operator capacity record as "unavailable".
type MasterData interface {
	GetProduct(id entities.ProductID) (*entities.Product, error)
	GetProcess(id entities.ProcessID) (*entities.Process, error)
	GetProcessesOrdered() []*entities.Process
	GetEquipment(id entities.EquipmentID) (*entities.Equipment, error)
	GetEquipmentForProcess(processID entities.ProcessID) []*entities.Equipment
	IsEquipmentAvailable(id entities.EquipmentID, at time.Time) bool
	IsEquipmentAvailableBetween(id entities.EquipmentID, start, end time.Time) bool
	GetOperatorCapacity(processID entities.ProcessID, date time.Time) (float64, bool)
	GetOperatorInfo(processID entities.ProcessID, date time.Time) (*entities.OperatorCapacity, bool)
}

// ProductCatalogue resolves intake rows to catalogue products
type ProductCatalogue interface {
	GetProduct(id entities.ProductID) (*entities.Product, error)
	GetProductByName(name string) (*entities.Product, error)
}
