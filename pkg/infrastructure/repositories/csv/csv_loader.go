// Package csv reads master data and demand intake from CSV files and writes
// plan exports in flat and grid form.
package csv

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/vsinha/aps/pkg/domain/entities"
)

// Master data file names looked up by ImportDir
const (
	ProcessesFile = "processes.csv"
	ProductsFile  = "products.csv"
	EquipmentFile = "equipment.csv"
	OperatorsFile = "operators.csv"
)

const dateLayout = "2006-01-02"

// MasterDataWriter is the mutation surface ImportDir feeds
type MasterDataWriter interface {
	AddProcess(process entities.Process) error
	AddProduct(product entities.Product) error
	AddEquipment(equipment entities.Equipment) error
	SetOperatorCapacity(oc entities.OperatorCapacity) error
}

// ImportSummary counts the records ImportDir applied per file
type ImportSummary struct {
	Processes int
	Products  int
	Equipment int
	Operators int
}

// Loader handles loading catalogue data from CSV files
type Loader struct{}

// NewLoader creates a new CSV loader
func NewLoader() *Loader {
	return &Loader{}
}

// ImportDir loads whichever master data files exist in dir, processes first,
// and applies them to target.
func (l *Loader) ImportDir(dir string, target MasterDataWriter) (ImportSummary, error) {
	var summary ImportSummary

	path := filepath.Join(dir, ProcessesFile)
	if exists(path) {
		processes, err := l.LoadProcesses(path)
		if err != nil {
			return summary, err
		}
		for _, p := range processes {
			if err := target.AddProcess(*p); err != nil {
				return summary, fmt.Errorf("process %s: %w", p.ID, err)
			}
		}
		summary.Processes = len(processes)
	}

	path = filepath.Join(dir, ProductsFile)
	if exists(path) {
		products, err := l.LoadProducts(path)
		if err != nil {
			return summary, err
		}
		for _, p := range products {
			if err := target.AddProduct(*p); err != nil {
				return summary, fmt.Errorf("product %s: %w", p.ID, err)
			}
		}
		summary.Products = len(products)
	}

	path = filepath.Join(dir, EquipmentFile)
	if exists(path) {
		equipment, err := l.LoadEquipment(path)
		if err != nil {
			return summary, err
		}
		for _, e := range equipment {
			if err := target.AddEquipment(*e); err != nil {
				return summary, fmt.Errorf("equipment %s: %w", e.ID, err)
			}
		}
		summary.Equipment = len(equipment)
	}

	path = filepath.Join(dir, OperatorsFile)
	if exists(path) {
		operators, err := l.LoadOperatorCapacity(path)
		if err != nil {
			return summary, err
		}
		for _, oc := range operators {
			if err := target.SetOperatorCapacity(*oc); err != nil {
				return summary, fmt.Errorf("operator capacity %s %s: %w", oc.ProcessID, oc.Date.Format(dateLayout), err)
			}
		}
		summary.Operators = len(operators)
	}

	return summary, nil
}

// LoadProcesses loads processes from a CSV file
func (l *Loader) LoadProcesses(filename string) ([]*entities.Process, error) {
	expectedHeader := []string{"id", "name", "sequence", "default_duration_hours"}
	records, err := readRecords(filename, "processes", expectedHeader)
	if err != nil {
		return nil, err
	}

	var processes []*entities.Process
	for i, record := range records {
		process, err := parseProcess(record)
		if err != nil {
			return nil, fmt.Errorf("processes CSV row %d: %w", i+2, err)
		}
		processes = append(processes, &process)
	}
	return processes, nil
}

// LoadProducts loads products from a CSV file. List columns are separated by
// "|" and per-process columns use "PROCESS=value" pairs.
func (l *Loader) LoadProducts(filename string) ([]*entities.Product, error) {
	expectedHeader := []string{"id", "name", "priority", "process_order", "preferred_equipment", "process_durations", "process_lead_days", "lead_time", "lead_time_unit"}
	records, err := readRecords(filename, "products", expectedHeader)
	if err != nil {
		return nil, err
	}

	var products []*entities.Product
	for i, record := range records {
		product, err := parseProduct(record)
		if err != nil {
			return nil, fmt.Errorf("products CSV row %d: %w", i+2, err)
		}
		products = append(products, &product)
	}
	return products, nil
}

// LoadEquipment loads equipment from a CSV file
func (l *Loader) LoadEquipment(filename string) ([]*entities.Equipment, error) {
	expectedHeader := []string{"id", "name", "process_id", "eligible_products", "blackout_start", "blackout_end"}
	records, err := readRecords(filename, "equipment", expectedHeader)
	if err != nil {
		return nil, err
	}

	var equipment []*entities.Equipment
	for i, record := range records {
		eq, err := parseEquipment(record)
		if err != nil {
			return nil, fmt.Errorf("equipment CSV row %d: %w", i+2, err)
		}
		equipment = append(equipment, &eq)
	}
	return equipment, nil
}

// LoadOperatorCapacity loads daily operator rosters from a CSV file
func (l *Loader) LoadOperatorCapacity(filename string) ([]*entities.OperatorCapacity, error) {
	expectedHeader := []string{"process_id", "date", "workers", "units_per_worker"}
	records, err := readRecords(filename, "operators", expectedHeader)
	if err != nil {
		return nil, err
	}

	var operators []*entities.OperatorCapacity
	for i, record := range records {
		date, err := time.Parse(dateLayout, record[1])
		if err != nil {
			return nil, fmt.Errorf("operators CSV row %d: invalid date format: %s (expected YYYY-MM-DD)", i+2, record[1])
		}
		workers, err := strconv.Atoi(record[2])
		if err != nil {
			return nil, fmt.Errorf("operators CSV row %d: invalid workers: %s", i+2, record[2])
		}
		unitsPerWorker, err := strconv.ParseFloat(record[3], 64)
		if err != nil {
			return nil, fmt.Errorf("operators CSV row %d: invalid units_per_worker: %s", i+2, record[3])
		}

		oc, err := entities.NewOperatorCapacity(entities.ProcessID(record[0]), date, workers, unitsPerWorker)
		if err != nil {
			return nil, fmt.Errorf("operators CSV row %d: %w", i+2, err)
		}
		operators = append(operators, oc)
	}
	return operators, nil
}

// Helper functions for parsing CSV records

func exists(path string) bool {
	_, err := os.Stat(path)
	return !errors.Is(err, os.ErrNotExist)
}

func readRecords(filename, kind string, expectedHeader []string) ([][]string, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s file %s: %w", kind, filename, err)
	}
	defer file.Close()

	return parseRecords(file, kind, expectedHeader)
}

func parseRecords(r io.Reader, kind string, expectedHeader []string) ([][]string, error) {
	reader := csv.NewReader(r)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s CSV: %w", kind, err)
	}

	if len(records) < 1 {
		return nil, fmt.Errorf("%s CSV must have a header row", kind)
	}

	header := records[0]
	if !validateHeader(header, expectedHeader) {
		return nil, fmt.Errorf("%s CSV header mismatch. Expected: %v, Got: %v", kind, expectedHeader, header)
	}

	for i, record := range records[1:] {
		if len(record) != len(expectedHeader) {
			return nil, fmt.Errorf("%s CSV row %d: expected %d columns, got %d", kind, i+2, len(expectedHeader), len(record))
		}
		for j := range record {
			record[j] = strings.TrimSpace(record[j])
		}
	}
	return records[1:], nil
}

func validateHeader(actual, expected []string) bool {
	if len(actual) != len(expected) {
		return false
	}

	for i, col := range expected {
		name := strings.TrimPrefix(actual[i], "\ufeff")
		if strings.ToLower(strings.TrimSpace(name)) != col {
			return false
		}
	}

	return true
}

func parseProcess(record []string) (entities.Process, error) {
	if record[0] == "" {
		return entities.Process{}, fmt.Errorf("id cannot be empty")
	}

	sequence, err := strconv.Atoi(record[2])
	if err != nil {
		return entities.Process{}, fmt.Errorf("invalid sequence: %s", record[2])
	}

	duration, err := strconv.ParseFloat(record[3], 64)
	if err != nil || duration <= 0 {
		return entities.Process{}, fmt.Errorf("invalid default_duration_hours: %s", record[3])
	}

	return entities.Process{
		ID:                   entities.ProcessID(record[0]),
		Name:                 record[1],
		Sequence:             sequence,
		DefaultDurationHours: duration,
	}, nil
}

func parseProduct(record []string) (entities.Product, error) {
	if record[0] == "" {
		return entities.Product{}, fmt.Errorf("id cannot be empty")
	}

	priority := 0
	if record[2] != "" {
		p, err := strconv.Atoi(record[2])
		if err != nil {
			return entities.Product{}, fmt.Errorf("invalid priority: %s", record[2])
		}
		priority = p
	}

	var route []entities.ProcessID
	for _, id := range splitList(record[3]) {
		route = append(route, entities.ProcessID(id))
	}
	var preferred []entities.EquipmentID
	for _, id := range splitList(record[4]) {
		preferred = append(preferred, entities.EquipmentID(id))
	}

	durations := make(map[entities.ProcessID]float64)
	for id, value := range splitPairs(record[5]) {
		hours, err := strconv.ParseFloat(value, 64)
		if err != nil || hours <= 0 {
			return entities.Product{}, fmt.Errorf("invalid process_durations entry %s=%s", id, value)
		}
		durations[entities.ProcessID(id)] = hours
	}

	leadDays := make(map[entities.ProcessID]int)
	for id, value := range splitPairs(record[6]) {
		days, err := strconv.Atoi(value)
		if err != nil || days < 0 {
			return entities.Product{}, fmt.Errorf("invalid process_lead_days entry %s=%s", id, value)
		}
		leadDays[entities.ProcessID(id)] = days
	}

	var leadTime entities.LeadTime
	if record[7] != "" {
		value, err := strconv.ParseFloat(record[7], 64)
		if err != nil || value < 0 {
			return entities.Product{}, fmt.Errorf("invalid lead_time: %s", record[7])
		}
		leadTime.Value = value
	}
	unit, err := entities.ParseLeadTimeUnit(strings.ToLower(record[8]))
	if err != nil {
		return entities.Product{}, err
	}
	leadTime.Unit = unit

	return entities.Product{
		ID:                 entities.ProductID(record[0]),
		Name:               record[1],
		Priority:           priority,
		ProcessOrder:       route,
		PreferredEquipment: preferred,
		ProcessDurations:   durations,
		ProcessLeadDays:    leadDays,
		LeadTime:           leadTime,
	}, nil
}

func parseEquipment(record []string) (entities.Equipment, error) {
	if record[0] == "" {
		return entities.Equipment{}, fmt.Errorf("id cannot be empty")
	}
	if record[2] == "" {
		return entities.Equipment{}, fmt.Errorf("process_id cannot be empty")
	}

	var eligible []entities.ProductID
	for _, id := range splitList(record[3]) {
		eligible = append(eligible, entities.ProductID(id))
	}

	eq := entities.Equipment{
		ID:               entities.EquipmentID(record[0]),
		Name:             record[1],
		ProcessID:        entities.ProcessID(record[2]),
		EligibleProducts: eligible,
	}

	if record[4] != "" || record[5] != "" {
		start, err := parseInstant(record[4])
		if err != nil {
			return entities.Equipment{}, fmt.Errorf("invalid blackout_start: %s", record[4])
		}
		end, err := parseInstant(record[5])
		if err != nil {
			return entities.Equipment{}, fmt.Errorf("invalid blackout_end: %s", record[5])
		}
		if !end.After(start) {
			return entities.Equipment{}, fmt.Errorf("blackout_end must be after blackout_start")
		}
		eq.Blackout = &entities.Window{Start: start, End: end}
	}
	return eq, nil
}

func parseInstant(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse(dateLayout, s)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, "|") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func splitPairs(s string) map[string]string {
	pairs := make(map[string]string)
	for _, part := range splitList(s) {
		key, value, _ := strings.Cut(part, "=")
		pairs[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	return pairs
}
