package output

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/vsinha/aps/pkg/application/dto"
)

func writeUnscheduledCSV(w io.Writer, steps []dto.UnscheduledStep) error {
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"day", "product_id", "process_id", "step", "lot_number", "reason"}); err != nil {
		return err
	}
	for _, s := range steps {
		record := []string{
			s.Day.Format("2006-01-02"),
			string(s.ProductID),
			string(s.ProcessID),
			strconv.Itoa(s.Position + 1),
			s.LotNumber,
			s.Reason,
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
