package plan

import (
	"fmt"
	"time"

	"github.com/vsinha/aps/pkg/domain/entities"
)

// FlatRow is one batch in tabular form
type FlatRow struct {
	BatchID       string    `json:"batch_id"`
	ProductID     string    `json:"product_id"`
	ProductName   string    `json:"product_name"`
	EquipmentID   string    `json:"equipment_id"`
	ProcessID     string    `json:"process_id"`
	LotNumber     string    `json:"lot_number"`
	Start         time.Time `json:"start"`
	End           time.Time `json:"end"`
	DurationHours float64   `json:"duration_hours"`
	IsCleaning    bool      `json:"is_cleaning"`
}

// FlatRows projects the plan into one row per batch. The projection is cached
// until the next mutation.
func (p *ProductionPlan) FlatRows() []FlatRow {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.flatCache == nil {
		batches := p.sortedBatches()
		rows := make([]FlatRow, 0, len(batches))
		for _, b := range batches {
			rows = append(rows, FlatRow{
				BatchID:       b.ID,
				ProductID:     string(b.ProductID),
				ProductName:   b.ProductName,
				EquipmentID:   string(b.EquipmentID),
				ProcessID:     string(b.ProcessID),
				LotNumber:     b.LotNumber,
				Start:         b.Start,
				End:           b.End,
				DurationHours: b.DurationHours,
				IsCleaning:    b.IsCleaning,
			})
		}
		p.flatCache = rows
	}

	out := make([]FlatRow, len(p.flatCache))
	copy(out, p.flatCache)
	return out
}

// FromFlatRows rebuilds a plan from its flat projection
func FromFlatRows(rows []FlatRow) (*ProductionPlan, error) {
	p := New()
	for i, row := range rows {
		b, err := entities.NewBatch(
			row.BatchID,
			entities.ProductID(row.ProductID),
			row.ProductName,
			entities.EquipmentID(row.EquipmentID),
			row.Start,
			row.DurationHours,
			entities.ProcessID(row.ProcessID),
			row.LotNumber,
		)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		b.IsCleaning = row.IsCleaning
		if err := p.AddBatch(b); err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
	}
	return p, nil
}

// GridColumn addresses one slot of one day
type GridColumn struct {
	Date time.Time
	Slot int
}

// Grid is the equipment × (date, slot) view of a plan
type Grid struct {
	Equipment []entities.EquipmentID
	Columns   []GridColumn
	// Cells[row][col] holds the condensed labels of the batches covering the cell
	Cells [][]string
}

// Grid projects the plan onto equipment rows and (date, slot) columns spanning
// the plan's date range. Extra equipment ids are shown even when idle.
func (p *ProductionPlan) Grid(extraEquipment ...entities.EquipmentID) Grid {
	p.mu.RLock()
	defer p.mu.RUnlock()

	first, last, ok := p.dateRange()

	rowIndex := make(map[entities.EquipmentID]int)
	var grid Grid
	for _, id := range extraEquipment {
		if _, seen := rowIndex[id]; !seen {
			rowIndex[id] = len(grid.Equipment)
			grid.Equipment = append(grid.Equipment, id)
		}
	}
	for _, id := range p.equipmentIDs() {
		if _, seen := rowIndex[id]; !seen {
			rowIndex[id] = len(grid.Equipment)
			grid.Equipment = append(grid.Equipment, id)
		}
	}
	if !ok {
		grid.Cells = make([][]string, len(grid.Equipment))
		return grid
	}

	colIndex := make(map[string]int)
	for day := first; !day.After(last); day = day.AddDate(0, 0, 1) {
		for slot := 0; slot < entities.SlotsPerDay; slot++ {
			colIndex[cellKey(day, slot)] = len(grid.Columns)
			grid.Columns = append(grid.Columns, GridColumn{Date: day, Slot: slot})
		}
	}

	grid.Cells = make([][]string, len(grid.Equipment))
	for i := range grid.Cells {
		grid.Cells[i] = make([]string, len(grid.Columns))
	}

	for _, b := range p.sortedBatches() {
		row := rowIndex[b.EquipmentID]
		firstSlot, count := b.SlotRange()
		day := entities.Day(b.Start)
		for s := firstSlot; s < firstSlot+count; s++ {
			d, slot := day.AddDate(0, 0, s/entities.SlotsPerDay), s%entities.SlotsPerDay
			col, exists := colIndex[cellKey(d, slot)]
			if !exists {
				continue
			}
			if grid.Cells[row][col] != "" {
				grid.Cells[row][col] += "; "
			}
			grid.Cells[row][col] += b.Label()
		}
	}
	return grid
}

func cellKey(day time.Time, slot int) string {
	return fmt.Sprintf("%s#%d", entities.Day(day).Format("2006-01-02"), slot)
}
