package commands

import (
	"context"
	gocsv "encoding/csv"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/vsinha/aps/pkg/domain/entities"
	"github.com/vsinha/aps/pkg/infrastructure/repositories/csv"
)

// DemandFile is the name of the generated demand intake file
const DemandFile = "demand.csv"

// GenerateConfig holds configuration for scenario generation
type GenerateConfig struct {
	Processes           int       // Number of processes in the shop
	EquipmentPerProcess int       // Machines per process
	Products            int       // Catalogue size
	Lots                int       // Demand rows to generate
	Days                int       // Calendar days covered by rosters and due dates
	StartDate           time.Time // First rostered day
	OutputDir           string    // Output directory for generated files
	Seed                int64     // Random seed for reproducible generation
	Verbose             bool
	Out                 io.Writer
}

// GenerateCommand writes a synthetic but schedulable scenario: master data
// CSV files and a row-per-lot demand file.
type GenerateCommand struct {
	config GenerateConfig
	rand   *rand.Rand
}

// NewGenerateCommand creates a new generate command
func NewGenerateCommand(config GenerateConfig) *GenerateCommand {
	seed := config.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if config.StartDate.IsZero() {
		config.StartDate = entities.Day(time.Now().UTC())
	}
	if config.Out == nil {
		config.Out = os.Stdout
	}
	return &GenerateCommand{
		config: config,
		rand:   rand.New(rand.NewSource(seed)),
	}
}

// Execute runs the generate command
func (cmd *GenerateCommand) Execute(ctx context.Context) error {
	if err := cmd.validate(); err != nil {
		return fmt.Errorf("validation error: %w", err)
	}
	if cmd.config.Verbose {
		fmt.Fprintf(cmd.config.Out, "Generating %d processes, %d machines each, %d products, %d lots over %d days\n",
			cmd.config.Processes, cmd.config.EquipmentPerProcess, cmd.config.Products, cmd.config.Lots, cmd.config.Days)
	}

	if err := os.MkdirAll(cmd.config.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	processes := cmd.processIDs()
	products := cmd.productIDs()

	steps := []struct {
		file     string
		generate func(*gocsv.Writer) error
	}{
		{csv.ProcessesFile, func(w *gocsv.Writer) error { return cmd.generateProcesses(w, processes) }},
		{csv.ProductsFile, func(w *gocsv.Writer) error { return cmd.generateProducts(w, products, processes) }},
		{csv.EquipmentFile, func(w *gocsv.Writer) error { return cmd.generateEquipment(w, processes, products) }},
		{csv.OperatorsFile, func(w *gocsv.Writer) error { return cmd.generateOperators(w, processes) }},
		{DemandFile, func(w *gocsv.Writer) error { return cmd.generateDemand(w, products) }},
	}
	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := cmd.writeCSV(step.file, step.generate); err != nil {
			return fmt.Errorf("failed to generate %s: %w", step.file, err)
		}
		if cmd.config.Verbose {
			fmt.Fprintf(cmd.config.Out, "  wrote %s\n", step.file)
		}
	}

	if cmd.config.Verbose {
		fmt.Fprintf(cmd.config.Out, "Scenario generated in %s\n", cmd.config.OutputDir)
	}
	return nil
}

func (cmd *GenerateCommand) validate() error {
	switch {
	case cmd.config.OutputDir == "":
		return fmt.Errorf("output directory is required")
	case cmd.config.Processes < 1:
		return fmt.Errorf("processes must be at least 1")
	case cmd.config.EquipmentPerProcess < 1:
		return fmt.Errorf("equipment per process must be at least 1")
	case cmd.config.Products < 1:
		return fmt.Errorf("products must be at least 1")
	case cmd.config.Days < 1:
		return fmt.Errorf("days must be at least 1")
	case cmd.config.Lots < 0:
		return fmt.Errorf("lots cannot be negative")
	}
	return nil
}

func (cmd *GenerateCommand) writeCSV(name string, generate func(*gocsv.Writer) error) error {
	file, err := os.Create(filepath.Join(cmd.config.OutputDir, name))
	if err != nil {
		return err
	}
	defer file.Close()

	w := gocsv.NewWriter(file)
	if err := generate(w); err != nil {
		return err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return file.Close()
}

func (cmd *GenerateCommand) processIDs() []string {
	ids := make([]string, cmd.config.Processes)
	for i := range ids {
		ids[i] = fmt.Sprintf("PR%02d", i+1)
	}
	return ids
}

func (cmd *GenerateCommand) productIDs() []string {
	ids := make([]string, cmd.config.Products)
	for i := range ids {
		ids[i] = fmt.Sprintf("P%03d", i+1)
	}
	return ids
}

func (cmd *GenerateCommand) generateProcesses(w *gocsv.Writer, processes []string) error {
	if err := w.Write([]string{"id", "name", "sequence", "default_duration_hours"}); err != nil {
		return err
	}
	names := []string{"Cutting", "Forming", "Welding", "Machining", "Coating", "Assembly", "Inspection", "Packing"}
	for i, id := range processes {
		name := names[i%len(names)]
		hours := entities.SlotHours * (1 + cmd.rand.Intn(2))
		if err := w.Write([]string{id, name, strconv.Itoa(i + 1), strconv.Itoa(hours)}); err != nil {
			return err
		}
	}
	return nil
}

// generateProducts routes every product through an ordered subset of the
// processes, always starting at a random process and never skipping backwards.
func (cmd *GenerateCommand) generateProducts(w *gocsv.Writer, products, processes []string) error {
	header := []string{"id", "name", "priority", "process_order", "preferred_equipment",
		"process_durations", "process_lead_days", "lead_time", "lead_time_unit"}
	if err := w.Write(header); err != nil {
		return err
	}

	kinds := []string{"Bracket", "Hinge", "Panel", "Frame", "Housing", "Shaft", "Cover", "Plate"}
	for i, id := range products {
		first := cmd.rand.Intn(len(processes))
		var route []string
		for _, p := range processes[first:] {
			if len(route) == 0 || cmd.rand.Intn(3) > 0 {
				route = append(route, p)
			}
		}

		var durations, leadDays []string
		for _, p := range route {
			if cmd.rand.Intn(4) == 0 {
				durations = append(durations, fmt.Sprintf("%s=%d", p, entities.SlotHours*(1+cmd.rand.Intn(2))))
			}
			if cmd.rand.Intn(5) == 0 {
				leadDays = append(leadDays, fmt.Sprintf("%s=1", p))
			}
		}

		record := []string{
			id,
			fmt.Sprintf("%s %d", kinds[i%len(kinds)], i+1),
			strconv.Itoa(cmd.rand.Intn(5)),
			strings.Join(route, "|"),
			"",
			strings.Join(durations, "|"),
			strings.Join(leadDays, "|"),
			strconv.Itoa(cmd.rand.Intn(3)),
			"days",
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	return nil
}

// generateEquipment makes the first machine of every process eligible for the
// whole catalogue so every route step has somewhere to run.
func (cmd *GenerateCommand) generateEquipment(w *gocsv.Writer, processes, products []string) error {
	if err := w.Write([]string{"id", "name", "process_id", "eligible_products", "blackout_start", "blackout_end"}); err != nil {
		return err
	}
	for _, process := range processes {
		for m := 0; m < cmd.config.EquipmentPerProcess; m++ {
			eligible := products
			if m > 0 {
				eligible = nil
				for _, p := range products {
					if cmd.rand.Intn(2) == 0 {
						eligible = append(eligible, p)
					}
				}
			}

			var blackoutStart, blackoutEnd string
			if m > 0 && cmd.rand.Intn(4) == 0 {
				start := cmd.config.StartDate.AddDate(0, 0, cmd.rand.Intn(cmd.config.Days))
				blackoutStart = start.Format(time.RFC3339)
				blackoutEnd = start.AddDate(0, 0, 1).Format(time.RFC3339)
			}

			record := []string{
				fmt.Sprintf("%s-M%d", process, m+1),
				fmt.Sprintf("%s machine %d", process, m+1),
				process,
				strings.Join(eligible, "|"),
				blackoutStart,
				blackoutEnd,
			}
			if err := w.Write(record); err != nil {
				return err
			}
		}
	}
	return nil
}

// generateOperators staffs every process on every weekday of the horizon
func (cmd *GenerateCommand) generateOperators(w *gocsv.Writer, processes []string) error {
	if err := w.Write([]string{"process_id", "date", "workers", "units_per_worker"}); err != nil {
		return err
	}
	for d := 0; d < cmd.config.Days; d++ {
		day := cmd.config.StartDate.AddDate(0, 0, d)
		if entities.IsWeekend(day) {
			continue
		}
		for _, process := range processes {
			record := []string{
				process,
				day.Format("2006-01-02"),
				strconv.Itoa(1 + cmd.rand.Intn(3)),
				strconv.Itoa(2 + cmd.rand.Intn(3)),
			}
			if err := w.Write(record); err != nil {
				return err
			}
		}
	}
	return nil
}

func (cmd *GenerateCommand) generateDemand(w *gocsv.Writer, products []string) error {
	if err := w.Write([]string{"productCode", "lotNumber", "quantity", "dueDate", "priority"}); err != nil {
		return err
	}
	priorities := []string{"Urgent", "High", "Normal", "Normal", "Low"}
	for i := 0; i < cmd.config.Lots; i++ {
		due := cmd.config.StartDate.AddDate(0, 0, cmd.rand.Intn(cmd.config.Days))
		record := []string{
			products[cmd.rand.Intn(len(products))],
			fmt.Sprintf("LOT-%04d", i+1),
			strconv.Itoa(10 * (1 + cmd.rand.Intn(20))),
			due.Format("2006-01-02"),
			priorities[cmd.rand.Intn(len(priorities))],
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	return nil
}
