package scheduler

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vsinha/aps/pkg/application/dto"
	"github.com/vsinha/aps/pkg/domain/entities"
	"github.com/vsinha/aps/pkg/domain/repositories"
)

// ErrUnsupportedIntake is returned for a table matching neither intake shape
var ErrUnsupportedIntake = errors.New("unsupported demand intake columns")

// IntakeShape identifies which intake layout a table uses
type IntakeShape int

const (
	ShapeUnknown IntakeShape = iota
	ShapeRowPerLot
	ShapeMonthly
)

// String method for IntakeShape enum
func (s IntakeShape) String() string {
	switch s {
	case ShapeRowPerLot:
		return "row-per-lot"
	case ShapeMonthly:
		return "monthly"
	default:
		return "unknown"
	}
}

// IntakeOptions controls normalization
type IntakeOptions struct {
	// Year the monthly-aggregate columns refer to
	Year int
}

// Intake is a normalized demand table
type Intake struct {
	Shape      IntakeShape
	Entries    []entities.DemandEntry
	Unresolved []dto.UnresolvedDemand
}

var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"2006-01-02 15:04:05",
	"2006/01/02 15:04:05",
	time.RFC3339,
	"01/02/2006",
}

var monthNames = map[string]time.Month{
	"jan": time.January, "january": time.January,
	"feb": time.February, "february": time.February,
	"mar": time.March, "march": time.March,
	"apr": time.April, "april": time.April,
	"may": time.May,
	"jun": time.June, "june": time.June,
	"jul": time.July, "july": time.July,
	"aug": time.August, "august": time.August,
	"sep": time.September, "sept": time.September, "september": time.September,
	"oct": time.October, "october": time.October,
	"nov": time.November, "november": time.November,
	"dec": time.December, "december": time.December,
}

// canonical lowercases a header and strips separators
func canonical(header string) string {
	r := strings.NewReplacer(" ", "", "_", "", "-", "", "\t", "", "\ufeff", "")
	return strings.ToLower(r.Replace(strings.TrimSpace(header)))
}

// parseMonth recognises "1".."12", "01", "1月", and English month names
func parseMonth(header string) (time.Month, bool) {
	h := strings.TrimSuffix(canonical(header), "月")
	if m, ok := monthNames[h]; ok {
		return m, true
	}
	n, err := strconv.Atoi(h)
	if err != nil || n < 1 || n > 12 {
		return 0, false
	}
	return time.Month(n), true
}

// DetectShape branches on the columns present
func DetectShape(columns []string) IntakeShape {
	present := make(map[string]bool, len(columns))
	months := 0
	for _, c := range columns {
		present[canonical(c)] = true
		if _, ok := parseMonth(c); ok {
			months++
		}
	}
	if present["productcode"] && present["lotnumber"] && present["quantity"] && present["duedate"] {
		return ShapeRowPerLot
	}
	if present["productname"] && months > 0 {
		return ShapeMonthly
	}
	return ShapeUnknown
}

// NormalizeIntake turns a demand table into per-day demand entries. Rows whose
// product is not in the catalogue are reported as unresolved, not as errors.
func NormalizeIntake(table entities.DemandTable, catalogue repositories.ProductCatalogue, opts IntakeOptions) (*Intake, error) {
	switch DetectShape(table.Columns) {
	case ShapeRowPerLot:
		return normalizeRowPerLot(table, catalogue)
	case ShapeMonthly:
		if opts.Year == 0 {
			opts.Year = time.Now().Year()
		}
		return normalizeMonthly(table, catalogue, opts.Year)
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedIntake, table.Columns)
	}
}

func columnIndex(columns []string) map[string]int {
	index := make(map[string]int, len(columns))
	for i, c := range columns {
		index[canonical(c)] = i
	}
	return index
}

func cell(row []string, index map[string]int, name string) string {
	i, ok := index[name]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date: %s (expected YYYY-MM-DD)", s)
}

func parseQuantity(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	q, err := decimal.NewFromString(strings.ReplaceAll(s, ",", ""))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid quantity: %s", s)
	}
	return q, nil
}

func normalizeRowPerLot(table entities.DemandTable, catalogue repositories.ProductCatalogue) (*Intake, error) {
	index := columnIndex(table.Columns)
	intake := &Intake{Shape: ShapeRowPerLot}

	for i, row := range table.Rows {
		rowNum := i + 2
		code := cell(row, index, "productcode")
		name := cell(row, index, "productname")
		if code == "" && name == "" {
			continue
		}

		product, err := catalogue.GetProduct(entities.ProductID(code))
		if err != nil && name != "" {
			product, err = catalogue.GetProductByName(name)
		}
		if err != nil {
			intake.Unresolved = append(intake.Unresolved, dto.UnresolvedDemand{
				Row: rowNum, Product: firstNonEmpty(code, name), Reason: dto.ReasonUnknownProduct,
			})
			continue
		}

		due, err := parseDate(cell(row, index, "duedate"))
		if err != nil {
			return nil, fmt.Errorf("intake row %d: %w", rowNum, err)
		}
		quantity, err := parseQuantity(cell(row, index, "quantity"))
		if err != nil {
			return nil, fmt.Errorf("intake row %d: %w", rowNum, err)
		}

		intake.Entries = append(intake.Entries, entities.DemandEntry{
			ProductID: product.ID,
			Day:       product.ProductionDate(due),
			DueDate:   entities.Day(due),
			UnitCount: decimal.NewFromInt(1),
			Quantity:  quantity.IntPart(),
			Priority:  entities.ParsePriority(cell(row, index, "priority")),
			LotNumber: cell(row, index, "lotnumber"),
			Source:    ShapeRowPerLot.String(),
		})
	}
	intake.Entries = entities.SequenceEntries(intake.Entries)
	return intake, nil
}

func normalizeMonthly(table entities.DemandTable, catalogue repositories.ProductCatalogue, year int) (*Intake, error) {
	index := columnIndex(table.Columns)
	intake := &Intake{Shape: ShapeMonthly}

	type monthColumn struct {
		month time.Month
		col   int
	}
	var months []monthColumn
	for col, c := range table.Columns {
		if m, ok := parseMonth(c); ok {
			months = append(months, monthColumn{month: m, col: col})
		}
	}

	for i, row := range table.Rows {
		rowNum := i + 2
		name := cell(row, index, "productname")
		if name == "" {
			continue
		}
		product, err := catalogue.GetProductByName(name)
		if err != nil {
			intake.Unresolved = append(intake.Unresolved, dto.UnresolvedDemand{
				Row: rowNum, Product: name, Reason: dto.ReasonUnknownProduct,
			})
			continue
		}

		for _, mc := range months {
			if mc.col >= len(row) {
				continue
			}
			total, err := parseQuantity(strings.TrimSpace(row[mc.col]))
			if err != nil {
				return nil, fmt.Errorf("intake row %d, month %d: %w", rowNum, mc.month, err)
			}
			if total.Sign() <= 0 {
				continue
			}
			days := BusinessDays(year, mc.month)
			if len(days) == 0 {
				continue
			}
			perDay := total.Div(decimal.NewFromInt(int64(len(days))))
			for _, day := range days {
				intake.Entries = append(intake.Entries, entities.DemandEntry{
					ProductID: product.ID,
					Day:       day,
					DueDate:   day,
					UnitCount: perDay,
					Quantity:  total.IntPart(),
					Priority:  productPriority(product),
					Source:    ShapeMonthly.String(),
				})
			}
		}
	}
	intake.Entries = entities.SequenceEntries(intake.Entries)
	return intake, nil
}

// BusinessDays returns the weekdays of a month in UTC
func BusinessDays(year int, month time.Month) []time.Time {
	var days []time.Time
	for d := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC); d.Month() == month; d = d.AddDate(0, 0, 1) {
		if !entities.IsWeekend(d) {
			days = append(days, d)
		}
	}
	return days
}

func productPriority(p *entities.Product) entities.Priority {
	if p.Priority <= 0 {
		return entities.PriorityNormal
	}
	return entities.Priority(p.Priority)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
