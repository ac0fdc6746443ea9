package csv

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/vsinha/aps/pkg/domain/entities"
)

// ReadDemandTable loads a demand intake file without interpreting its columns
func ReadDemandTable(filename string) (entities.DemandTable, error) {
	file, err := os.Open(filename)
	if err != nil {
		return entities.DemandTable{}, fmt.Errorf("failed to open demand file %s: %w", filename, err)
	}
	defer file.Close()

	return ParseDemandTable(file)
}

// ParseDemandTable reads a header row and any number of data rows. Short rows
// are padded to the header width.
func ParseDemandTable(r io.Reader) (entities.DemandTable, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return entities.DemandTable{}, fmt.Errorf("failed to read demand CSV: %w", err)
	}
	if len(records) < 1 {
		return entities.DemandTable{}, fmt.Errorf("demand CSV must have a header row")
	}

	columns := make([]string, len(records[0]))
	for i, c := range records[0] {
		columns[i] = strings.TrimSpace(strings.TrimPrefix(c, "\ufeff"))
	}

	table := entities.DemandTable{Columns: columns}
	for _, record := range records[1:] {
		row := make([]string, len(columns))
		copy(row, record)
		table.Rows = append(table.Rows, row)
	}
	return table, nil
}
