package memory

import (
	"fmt"
	"maps"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/vsinha/aps/pkg/domain/entities"
	"github.com/vsinha/aps/pkg/domain/repositories"
)

type operatorKey struct {
	processID entities.ProcessID
	date      string
}

func keyFor(processID entities.ProcessID, date time.Time) operatorKey {
	return operatorKey{processID: processID, date: entities.Day(date).Format("2006-01-02")}
}

// MasterDataStore keeps the catalogue in memory, in insertion order, and writes
// every mutation through to its SnapshotStore. A mutation is only applied in
// memory once its snapshot has been saved.
type MasterDataStore struct {
	mu sync.RWMutex

	products   []entities.Product
	productIdx map[entities.ProductID]int

	processes  []entities.Process
	processIdx map[entities.ProcessID]int

	equipment    []entities.Equipment
	equipmentIdx map[entities.EquipmentID]int

	operators map[operatorKey]entities.OperatorCapacity

	store repositories.SnapshotStore
}

// NewMasterDataStore creates an empty store; a nil SnapshotStore disables persistence
func NewMasterDataStore(store repositories.SnapshotStore) *MasterDataStore {
	return &MasterDataStore{
		productIdx:   make(map[entities.ProductID]int),
		processIdx:   make(map[entities.ProcessID]int),
		equipmentIdx: make(map[entities.EquipmentID]int),
		operators:    make(map[operatorKey]entities.OperatorCapacity),
		store:        store,
	}
}

// Verify interface compliance
var (
	_ repositories.MasterData       = (*MasterDataStore)(nil)
	_ repositories.ProductCatalogue = (*MasterDataStore)(nil)
)

// LoadMasterDataStore reads every persisted collection and serves it from memory
func LoadMasterDataStore(store repositories.SnapshotStore) (*MasterDataStore, error) {
	s := NewMasterDataStore(store)
	if store == nil {
		return s, nil
	}

	var processes []entities.Process
	if _, err := store.Load(repositories.KindProcesses, &processes); err != nil {
		return nil, fmt.Errorf("failed to load processes: %w", err)
	}
	var products []entities.Product
	if _, err := store.Load(repositories.KindProducts, &products); err != nil {
		return nil, fmt.Errorf("failed to load products: %w", err)
	}
	var equipment []entities.Equipment
	if _, err := store.Load(repositories.KindEquipment, &equipment); err != nil {
		return nil, fmt.Errorf("failed to load equipment: %w", err)
	}
	var operators []entities.OperatorCapacity
	if _, err := store.Load(repositories.KindOperatorCapacity, &operators); err != nil {
		return nil, fmt.Errorf("failed to load operator capacity: %w", err)
	}

	for _, p := range processes {
		s.putProcess(p)
	}
	for _, p := range products {
		s.putProduct(p)
	}
	for _, e := range equipment {
		s.putEquipment(e)
	}
	for _, oc := range operators {
		s.operators[keyFor(oc.ProcessID, oc.Date)] = oc
	}
	return s, nil
}

// Products

// AddProduct inserts or replaces a product and persists the product collection
func (s *MasterDataStore) AddProduct(product entities.Product) error {
	if product.ID == "" {
		return fmt.Errorf("product id cannot be empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	next := upsert(s.products, s.productIdx, product.ID, product)
	if err := s.persist(repositories.KindProducts, next); err != nil {
		return err
	}
	s.products = next
	s.reindexProducts()
	return nil
}

// RemoveProduct deletes a product and persists the product collection
func (s *MasterDataStore) RemoveProduct(id entities.ProductID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	index, exists := s.productIdx[id]
	if !exists {
		return fmt.Errorf("product %s: %w", id, entities.ErrNotFound)
	}
	next := slices.Delete(slices.Clone(s.products), index, index+1)
	if err := s.persist(repositories.KindProducts, next); err != nil {
		return err
	}
	s.products = next
	s.reindexProducts()
	return nil
}

// GetProduct returns a copy of the product with the given id
func (s *MasterDataStore) GetProduct(id entities.ProductID) (*entities.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	index, exists := s.productIdx[id]
	if !exists {
		return nil, fmt.Errorf("product %s: %w", id, entities.ErrNotFound)
	}
	p := s.products[index]
	return &p, nil
}

// GetProductByName resolves a product by its display name, then by id
func (s *MasterDataStore) GetProductByName(name string) (*entities.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := range s.products {
		if s.products[i].Name == name {
			p := s.products[i]
			return &p, nil
		}
	}
	if index, exists := s.productIdx[entities.ProductID(name)]; exists {
		p := s.products[index]
		return &p, nil
	}
	return nil, fmt.Errorf("product named %q: %w", name, entities.ErrNotFound)
}

// Products returns every product in catalogue order
func (s *MasterDataStore) Products() []*entities.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()

	products := make([]*entities.Product, 0, len(s.products))
	for i := range s.products {
		p := s.products[i]
		products = append(products, &p)
	}
	return products
}

// Processes

// AddProcess inserts or replaces a process and persists the process collection
func (s *MasterDataStore) AddProcess(process entities.Process) error {
	if process.ID == "" {
		return fmt.Errorf("process id cannot be empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	next := upsert(s.processes, s.processIdx, process.ID, process)
	if err := s.persist(repositories.KindProcesses, next); err != nil {
		return err
	}
	s.processes = next
	s.reindexProcesses()
	return nil
}

// GetProcess returns a copy of the process with the given id
func (s *MasterDataStore) GetProcess(id entities.ProcessID) (*entities.Process, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	index, exists := s.processIdx[id]
	if !exists {
		return nil, fmt.Errorf("process %s: %w", id, entities.ErrNotFound)
	}
	p := s.processes[index]
	return &p, nil
}

// GetProcessesOrdered returns processes in ascending canonical sequence
func (s *MasterDataStore) GetProcessesOrdered() []*entities.Process {
	s.mu.RLock()
	defer s.mu.RUnlock()

	processes := make([]*entities.Process, 0, len(s.processes))
	for i := range s.processes {
		p := s.processes[i]
		processes = append(processes, &p)
	}
	sort.SliceStable(processes, func(i, j int) bool {
		if processes[i].Sequence != processes[j].Sequence {
			return processes[i].Sequence < processes[j].Sequence
		}
		return processes[i].ID < processes[j].ID
	})
	return processes
}

// Equipment

// AddEquipment inserts or replaces equipment; its owning process must exist
func (s *MasterDataStore) AddEquipment(equipment entities.Equipment) error {
	if equipment.ID == "" {
		return fmt.Errorf("equipment id cannot be empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.processIdx[equipment.ProcessID]; !exists {
		return fmt.Errorf("equipment %s references process %s: %w", equipment.ID, equipment.ProcessID, entities.ErrNotFound)
	}
	next := upsert(s.equipment, s.equipmentIdx, equipment.ID, equipment)
	if err := s.persist(repositories.KindEquipment, next); err != nil {
		return err
	}
	s.equipment = next
	s.reindexEquipment()
	return nil
}

// RemoveEquipment deletes equipment and persists the equipment collection
func (s *MasterDataStore) RemoveEquipment(id entities.EquipmentID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	index, exists := s.equipmentIdx[id]
	if !exists {
		return fmt.Errorf("equipment %s: %w", id, entities.ErrNotFound)
	}
	next := slices.Delete(slices.Clone(s.equipment), index, index+1)
	if err := s.persist(repositories.KindEquipment, next); err != nil {
		return err
	}
	s.equipment = next
	s.reindexEquipment()
	return nil
}

// GetEquipment returns a copy of the equipment with the given id
func (s *MasterDataStore) GetEquipment(id entities.EquipmentID) (*entities.Equipment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	index, exists := s.equipmentIdx[id]
	if !exists {
		return nil, fmt.Errorf("equipment %s: %w", id, entities.ErrNotFound)
	}
	e := s.equipment[index]
	return &e, nil
}

// Equipment returns every equipment unit in catalogue order
func (s *MasterDataStore) Equipment() []*entities.Equipment {
	s.mu.RLock()
	defer s.mu.RUnlock()

	equipment := make([]*entities.Equipment, 0, len(s.equipment))
	for i := range s.equipment {
		e := s.equipment[i]
		equipment = append(equipment, &e)
	}
	return equipment
}

// GetEquipmentForProcess returns the units owned by a process in catalogue order
func (s *MasterDataStore) GetEquipmentForProcess(processID entities.ProcessID) []*entities.Equipment {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var equipment []*entities.Equipment
	for i := range s.equipment {
		if s.equipment[i].ProcessID == processID {
			e := s.equipment[i]
			equipment = append(equipment, &e)
		}
	}
	return equipment
}

// IsEquipmentAvailable is false for unknown equipment or inside a blackout window
func (s *MasterDataStore) IsEquipmentAvailable(id entities.EquipmentID, at time.Time) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	index, exists := s.equipmentIdx[id]
	if !exists {
		return false
	}
	return s.equipment[index].IsAvailableAt(at)
}

// IsEquipmentAvailableBetween is the interval form of IsEquipmentAvailable
func (s *MasterDataStore) IsEquipmentAvailableBetween(id entities.EquipmentID, start, end time.Time) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	index, exists := s.equipmentIdx[id]
	if !exists {
		return false
	}
	return s.equipment[index].IsAvailableBetween(start, end)
}

// Operator capacity

// SetOperatorCapacity records staffing for a (process, date) pair
func (s *MasterDataStore) SetOperatorCapacity(oc entities.OperatorCapacity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.processIdx[oc.ProcessID]; !exists {
		return fmt.Errorf("operator capacity references process %s: %w", oc.ProcessID, entities.ErrNotFound)
	}
	oc.Date = entities.Day(oc.Date)
	next := maps.Clone(s.operators)
	next[keyFor(oc.ProcessID, oc.Date)] = oc
	if err := s.persist(repositories.KindOperatorCapacity, operatorList(next)); err != nil {
		return err
	}
	s.operators = next
	return nil
}

// RemoveOperatorCapacity deletes the record, making the process unavailable that day
func (s *MasterDataStore) RemoveOperatorCapacity(processID entities.ProcessID, date time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := keyFor(processID, date)
	if _, exists := s.operators[key]; !exists {
		return fmt.Errorf("operator capacity %s on %s: %w", processID, key.date, entities.ErrNotFound)
	}
	next := maps.Clone(s.operators)
	delete(next, key)
	if err := s.persist(repositories.KindOperatorCapacity, operatorList(next)); err != nil {
		return err
	}
	s.operators = next
	return nil
}

// GetOperatorCapacity returns the total capacity; ok=false means the process cannot run that day
func (s *MasterDataStore) GetOperatorCapacity(processID entities.ProcessID, date time.Time) (float64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	oc, exists := s.operators[keyFor(processID, date)]
	if !exists {
		return 0, false
	}
	return oc.TotalCapacity, true
}

// GetOperatorInfo returns the full record; ok=false means the process cannot run that day
func (s *MasterDataStore) GetOperatorInfo(processID entities.ProcessID, date time.Time) (*entities.OperatorCapacity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	oc, exists := s.operators[keyFor(processID, date)]
	if !exists {
		return nil, false
	}
	return &oc, true
}

// OperatorCapacities returns every record ordered by date then process
func (s *MasterDataStore) OperatorCapacities() []entities.OperatorCapacity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return operatorList(s.operators)
}

// internal helpers, callers hold the lock

func (s *MasterDataStore) putProduct(p entities.Product) {
	if index, exists := s.productIdx[p.ID]; exists {
		s.products[index] = p
		return
	}
	s.productIdx[p.ID] = len(s.products)
	s.products = append(s.products, p)
}

func (s *MasterDataStore) putProcess(p entities.Process) {
	if index, exists := s.processIdx[p.ID]; exists {
		s.processes[index] = p
		return
	}
	s.processIdx[p.ID] = len(s.processes)
	s.processes = append(s.processes, p)
}

func (s *MasterDataStore) putEquipment(e entities.Equipment) {
	if index, exists := s.equipmentIdx[e.ID]; exists {
		s.equipment[index] = e
		return
	}
	s.equipmentIdx[e.ID] = len(s.equipment)
	s.equipment = append(s.equipment, e)
}

// upsert returns a copy of list with item replacing the entry at idx[id], or appended
func upsert[T any, K comparable](list []T, idx map[K]int, id K, item T) []T {
	next := slices.Clone(list)
	if index, exists := idx[id]; exists {
		next[index] = item
		return next
	}
	return append(next, item)
}

func (s *MasterDataStore) reindexProducts() {
	s.productIdx = make(map[entities.ProductID]int, len(s.products))
	for i, p := range s.products {
		s.productIdx[p.ID] = i
	}
}

func (s *MasterDataStore) reindexProcesses() {
	s.processIdx = make(map[entities.ProcessID]int, len(s.processes))
	for i, p := range s.processes {
		s.processIdx[p.ID] = i
	}
}

func (s *MasterDataStore) reindexEquipment() {
	s.equipmentIdx = make(map[entities.EquipmentID]int, len(s.equipment))
	for i, e := range s.equipment {
		s.equipmentIdx[e.ID] = i
	}
}

func operatorList(operators map[operatorKey]entities.OperatorCapacity) []entities.OperatorCapacity {
	list := make([]entities.OperatorCapacity, 0, len(operators))
	for _, oc := range operators {
		list = append(list, oc)
	}
	sort.Slice(list, func(i, j int) bool {
		if !list[i].Date.Equal(list[j].Date) {
			return list[i].Date.Before(list[j].Date)
		}
		return list[i].ProcessID < list[j].ProcessID
	})
	return list
}

func (s *MasterDataStore) persist(kind string, records any) error {
	if s.store == nil {
		return nil
	}
	if err := s.store.Save(kind, records); err != nil {
		return fmt.Errorf("failed to persist %s: %w", kind, err)
	}
	return nil
}
