package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/vsinha/aps/pkg/application/dto"
	"github.com/vsinha/aps/pkg/domain/entities"
	"github.com/vsinha/aps/pkg/domain/plan"
	"github.com/vsinha/aps/pkg/infrastructure/repositories/csv"
)

// Config holds configuration for output generation
type Config struct {
	Format    string
	OutputDir string
	Verbose   bool
	// Writer receives stdout-bound output; nil means os.Stdout
	Writer io.Writer
	// EquipmentNames labels grid and chart rows
	EquipmentNames map[entities.EquipmentID]string
}

// Output file names written under OutputDir
const (
	PlanFile        = "plan.csv"
	GridFile        = "plan_grid.csv"
	UnscheduledFile = "unscheduled.csv"
	JSONFile        = "schedule.json"
	GanttFile       = "plan_gantt.svg"
	HTMLFile        = "plan.html"
)

// Report is the serialized form of a scheduling run
type Report struct {
	Summary     Summary                `json:"summary"`
	Batches     []plan.FlatRow         `json:"batches"`
	Unscheduled []dto.UnscheduledStep  `json:"unscheduled"`
	Unresolved  []dto.UnresolvedDemand `json:"unresolved"`
}

// Summary holds the headline numbers of a run
type Summary struct {
	Entries        int    `json:"entries"`
	RequestedUnits int    `json:"requested_units"`
	PlacedUnits    int    `json:"placed_units"`
	Batches        int    `json:"batches"`
	Complete       bool   `json:"complete"`
	Elapsed        string `json:"elapsed"`
}

// NewReport flattens a result for serialization
func NewReport(result *dto.ScheduleResult) Report {
	return Report{
		Summary: Summary{
			Entries:        len(result.Entries),
			RequestedUnits: result.RequestedUnits,
			PlacedUnits:    result.PlacedUnits,
			Batches:        result.Plan.Len(),
			Complete:       result.Complete(),
			Elapsed:        result.Duration.Round(time.Microsecond).String(),
		},
		Batches:     result.Plan.FlatRows(),
		Unscheduled: result.Unscheduled,
		Unresolved:  result.Unresolved,
	}
}

// Generate creates output in the specified format
func Generate(result *dto.ScheduleResult, config Config) error {
	if config.Writer == nil {
		config.Writer = os.Stdout
	}
	switch config.Format {
	case "", "text":
		return generateTextOutput(result, config)
	case "json":
		return generateJSONOutput(result, config)
	case "csv":
		return generateCSVOutput(result, config)
	case "svg":
		return generateSVGOutput(result, config)
	case "html":
		return generateHTMLOutput(result, config)
	default:
		return fmt.Errorf("unsupported output format: %s", config.Format)
	}
}

// generateTextOutput creates human-readable tables
func generateTextOutput(result *dto.ScheduleResult, config Config) error {
	w := config.Writer
	report := NewReport(result)

	fmt.Fprintf(w, "Schedule Summary\n================\n\n")
	fmt.Fprintf(w, "Demand entries: %d\n", report.Summary.Entries)
	fmt.Fprintf(w, "Unit batches placed: %d/%d\n", report.Summary.PlacedUnits, report.Summary.RequestedUnits)
	fmt.Fprintf(w, "Batches: %d\n", report.Summary.Batches)
	fmt.Fprintf(w, "Scheduling time: %s\n\n", report.Summary.Elapsed)

	if len(report.Batches) > 0 {
		tw := table.NewWriter()
		tw.SetOutputMirror(w)
		tw.SetTitle("Batches")
		tw.AppendHeader(table.Row{"Start", "End", "Equipment", "Process", "Product", "Lot"})
		for _, row := range report.Batches {
			product := row.ProductName
			if product == "" {
				product = row.ProductID
			}
			equipment := row.EquipmentID
			if name, ok := config.EquipmentNames[entities.EquipmentID(row.EquipmentID)]; ok && name != "" {
				equipment = name
			}
			tw.AppendRow(table.Row{
				row.Start.Format("2006-01-02 15:04"),
				row.End.Format("2006-01-02 15:04"),
				equipment,
				row.ProcessID,
				product,
				row.LotNumber,
			})
		}
		tw.Render()
		fmt.Fprintln(w)
	}

	warn := color.New(color.FgYellow)
	if len(report.Unscheduled) > 0 {
		warn.Fprintf(w, "Unscheduled steps: %d\n", len(report.Unscheduled))
		tw := table.NewWriter()
		tw.SetOutputMirror(w)
		tw.AppendHeader(table.Row{"Day", "Product", "Process", "Step", "Lot", "Reason"})
		for _, u := range report.Unscheduled {
			tw.AppendRow(table.Row{u.Day.Format("2006-01-02"), u.ProductID, u.ProcessID, u.Position + 1, u.LotNumber, u.Reason})
		}
		tw.Render()
		fmt.Fprintln(w)
	}

	if len(report.Unresolved) > 0 {
		warn.Fprintf(w, "Unresolved demand rows: %d\n", len(report.Unresolved))
		tw := table.NewWriter()
		tw.SetOutputMirror(w)
		tw.AppendHeader(table.Row{"Row", "Product", "Reason"})
		for _, u := range report.Unresolved {
			tw.AppendRow(table.Row{u.Row, u.Product, u.Reason})
		}
		tw.Render()
		fmt.Fprintln(w)
	}

	if config.OutputDir != "" {
		if err := writePlanFiles(result, config); err != nil {
			return err
		}
	}
	return nil
}

// generateJSONOutput creates JSON output
func generateJSONOutput(result *dto.ScheduleResult, config Config) error {
	jsonData, err := json.MarshalIndent(NewReport(result), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if config.OutputDir == "" {
		fmt.Fprintln(config.Writer, string(jsonData))
		return nil
	}

	if err := os.MkdirAll(config.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	filename := filepath.Join(config.OutputDir, JSONFile)
	if err := os.WriteFile(filename, jsonData, 0644); err != nil {
		return fmt.Errorf("failed to write JSON file: %w", err)
	}
	if config.Verbose {
		fmt.Fprintf(config.Writer, "JSON results saved to: %s\n", filename)
	}
	return nil
}

// generateCSVOutput writes the flat plan, the grid and the unscheduled steps
func generateCSVOutput(result *dto.ScheduleResult, config Config) error {
	if config.OutputDir == "" {
		return csv.WritePlanCSV(config.Writer, result.Plan.FlatRows())
	}
	return writePlanFiles(result, config)
}

func writePlanFiles(result *dto.ScheduleResult, config Config) error {
	if err := os.MkdirAll(config.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	planFile := filepath.Join(config.OutputDir, PlanFile)
	if err := writeFile(planFile, func(w io.Writer) error {
		return csv.WritePlanCSV(w, result.Plan.FlatRows())
	}); err != nil {
		return fmt.Errorf("failed to write plan CSV: %w", err)
	}

	gridFile := filepath.Join(config.OutputDir, GridFile)
	if err := writeFile(gridFile, func(w io.Writer) error {
		return csv.WriteGridCSV(w, result.Plan.Grid(), config.EquipmentNames)
	}); err != nil {
		return fmt.Errorf("failed to write grid CSV: %w", err)
	}

	unscheduledFile := filepath.Join(config.OutputDir, UnscheduledFile)
	if err := writeFile(unscheduledFile, func(w io.Writer) error {
		return writeUnscheduledCSV(w, result.Unscheduled)
	}); err != nil {
		return fmt.Errorf("failed to write unscheduled CSV: %w", err)
	}

	if config.Verbose {
		fmt.Fprintf(config.Writer, "CSV results saved to:\n")
		fmt.Fprintf(config.Writer, "  Plan: %s\n", planFile)
		fmt.Fprintf(config.Writer, "  Grid: %s\n", gridFile)
		fmt.Fprintf(config.Writer, "  Unscheduled: %s\n", unscheduledFile)
	}
	return nil
}

func writeFile(filename string, write func(io.Writer) error) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	if err := write(file); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
