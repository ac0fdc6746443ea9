package csv

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/vsinha/aps/pkg/domain/entities"
	"github.com/vsinha/aps/pkg/domain/plan"
)

var planHeader = []string{"batch_id", "product_id", "product_name", "equipment_id", "process_id", "lot_number", "start", "end", "duration_hours", "is_cleaning"}

// WritePlanCSV writes one row per batch in the plan's flat projection
func WritePlanCSV(w io.Writer, rows []plan.FlatRow) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(planHeader); err != nil {
		return fmt.Errorf("failed to write plan header: %w", err)
	}
	for _, row := range rows {
		record := []string{
			row.BatchID,
			row.ProductID,
			row.ProductName,
			row.EquipmentID,
			row.ProcessID,
			row.LotNumber,
			row.Start.Format(time.RFC3339),
			row.End.Format(time.RFC3339),
			strconv.FormatFloat(row.DurationHours, 'f', -1, 64),
			strconv.FormatBool(row.IsCleaning),
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write batch %s: %w", row.BatchID, err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// ReadPlanCSV parses a file written by WritePlanCSV back into flat rows
func ReadPlanCSV(r io.Reader) ([]plan.FlatRow, error) {
	records, err := parseRecords(r, "plan", planHeader)
	if err != nil {
		return nil, err
	}

	rows := make([]plan.FlatRow, 0, len(records))
	for i, record := range records {
		start, err := time.Parse(time.RFC3339, record[6])
		if err != nil {
			return nil, fmt.Errorf("plan CSV row %d: invalid start: %s", i+2, record[6])
		}
		end, err := time.Parse(time.RFC3339, record[7])
		if err != nil {
			return nil, fmt.Errorf("plan CSV row %d: invalid end: %s", i+2, record[7])
		}
		hours, err := strconv.ParseFloat(record[8], 64)
		if err != nil {
			return nil, fmt.Errorf("plan CSV row %d: invalid duration_hours: %s", i+2, record[8])
		}
		cleaning, err := strconv.ParseBool(record[9])
		if err != nil {
			return nil, fmt.Errorf("plan CSV row %d: invalid is_cleaning: %s", i+2, record[9])
		}

		rows = append(rows, plan.FlatRow{
			BatchID:       record[0],
			ProductID:     record[1],
			ProductName:   record[2],
			EquipmentID:   record[3],
			ProcessID:     record[4],
			LotNumber:     record[5],
			Start:         start,
			End:           end,
			DurationHours: hours,
			IsCleaning:    cleaning,
		})
	}
	return rows, nil
}

// LoadPlan reads a flat plan file and rebuilds the plan
func LoadPlan(filename string) (*plan.ProductionPlan, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open plan file %s: %w", filename, err)
	}
	defer file.Close()

	rows, err := ReadPlanCSV(file)
	if err != nil {
		return nil, err
	}
	return plan.FromFlatRows(rows)
}

// WriteGridCSV writes the equipment × (date, slot) grid. Equipment names come
// from names when present.
func WriteGridCSV(w io.Writer, grid plan.Grid, names map[entities.EquipmentID]string) error {
	writer := csv.NewWriter(w)

	header := []string{"equipment"}
	for _, col := range grid.Columns {
		header = append(header, fmt.Sprintf("%s #%d", col.Date.Format(dateLayout), col.Slot+1))
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write grid header: %w", err)
	}

	for i, id := range grid.Equipment {
		label := string(id)
		if name, ok := names[id]; ok && name != "" {
			label = name
		}
		record := append([]string{label}, grid.Cells[i]...)
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write grid row %s: %w", id, err)
		}
	}
	writer.Flush()
	return writer.Error()
}
