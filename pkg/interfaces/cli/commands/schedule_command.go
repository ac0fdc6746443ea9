package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/vsinha/aps/pkg/application/services/scheduler"
	"github.com/vsinha/aps/pkg/domain/plan"
	"github.com/vsinha/aps/pkg/infrastructure/events"
	"github.com/vsinha/aps/pkg/infrastructure/repositories/csv"
	"github.com/vsinha/aps/pkg/infrastructure/repositories/memory"
	"github.com/vsinha/aps/pkg/interfaces/cli/output"
)

// ScheduleConfig holds configuration for the schedule command
type ScheduleConfig struct {
	// MasterDataDir, when set, is imported into the catalogue before scheduling
	MasterDataDir string
	DemandFile    string
	// PlanFile is an existing flat plan CSV whose batches are kept and worked around
	PlanFile     string
	OutputDir    string
	Format       string
	Verbose      bool
	Year         int
	SearchWindow int
	Out          io.Writer
}

// ScheduleCommand turns a demand intake file into a production plan
type ScheduleCommand struct {
	config ScheduleConfig
	md     *memory.MasterDataStore
	logger *zap.Logger
	events *events.InMemoryEventStore
}

// NewScheduleCommand creates a schedule command over the given catalogue
func NewScheduleCommand(config ScheduleConfig, md *memory.MasterDataStore, logger *zap.Logger) *ScheduleCommand {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.Out == nil {
		config.Out = os.Stdout
	}
	return &ScheduleCommand{
		config: config,
		md:     md,
		logger: logger,
		events: events.NewInMemoryEventStore(logger),
	}
}

// Events exposes the lifecycle events published during the last run
func (c *ScheduleCommand) Events() *events.InMemoryEventStore {
	return c.events
}

// Execute runs the schedule command
func (c *ScheduleCommand) Execute(ctx context.Context) error {
	if err := c.validateInputs(); err != nil {
		return fmt.Errorf("validation error: %w", err)
	}

	if c.config.Verbose {
		c.printHeader()
	}

	if c.config.MasterDataDir != "" {
		summary, err := csv.NewLoader().ImportDir(c.config.MasterDataDir, c.md)
		if err != nil {
			return fmt.Errorf("error importing master data: %w", err)
		}
		if c.config.Verbose {
			fmt.Fprintf(c.config.Out, "Master data imported: %d processes, %d products, %d equipment, %d operator records\n\n",
				summary.Processes, summary.Products, summary.Equipment, summary.Operators)
		}
	}

	table, err := csv.ReadDemandTable(c.config.DemandFile)
	if err != nil {
		return fmt.Errorf("error loading demand: %w", err)
	}

	intake, err := scheduler.NormalizeIntake(table, c.md, scheduler.IntakeOptions{Year: c.config.Year})
	if err != nil {
		return fmt.Errorf("error normalizing demand: %w", err)
	}
	if c.config.Verbose {
		fmt.Fprintf(c.config.Out, "Demand intake: %s, %d entries, %d unresolved rows\n\n",
			intake.Shape, len(intake.Entries), len(intake.Unresolved))
	}

	p := plan.New()
	if c.config.PlanFile != "" {
		if p, err = csv.LoadPlan(c.config.PlanFile); err != nil {
			return fmt.Errorf("error loading existing plan: %w", err)
		}
	}

	opts := []scheduler.Option{
		scheduler.WithLogger(c.logger),
		scheduler.WithEventStore(c.events),
	}
	if c.config.SearchWindow > 0 {
		opts = append(opts, scheduler.WithSearchWindow(c.config.SearchWindow))
	}

	result, err := scheduler.NewAPSScheduler(c.md, opts...).Schedule(ctx, intake.Entries, p)
	if err != nil {
		return fmt.Errorf("error running scheduler: %w", err)
	}
	result.Unresolved = intake.Unresolved

	outputConfig := output.Config{
		Format:         c.config.Format,
		OutputDir:      c.config.OutputDir,
		Verbose:        c.config.Verbose,
		Writer:         c.config.Out,
		EquipmentNames: equipmentNames(c.md),
	}
	if err := output.Generate(result, outputConfig); err != nil {
		return fmt.Errorf("error generating output: %w", err)
	}
	return nil
}

func (c *ScheduleCommand) validateInputs() error {
	if c.config.DemandFile == "" {
		return fmt.Errorf("a demand file is required")
	}
	files := []string{c.config.DemandFile}
	if c.config.PlanFile != "" {
		files = append(files, c.config.PlanFile)
	}
	for _, path := range files {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return fmt.Errorf("file not found: %s", path)
		}
	}
	if c.config.MasterDataDir != "" {
		if info, err := os.Stat(c.config.MasterDataDir); err != nil || !info.IsDir() {
			return fmt.Errorf("master data directory not found: %s", c.config.MasterDataDir)
		}
	}
	return nil
}

func (c *ScheduleCommand) printHeader() {
	fmt.Fprintf(c.config.Out, "APS Scheduler\n")
	fmt.Fprintf(c.config.Out, "Demand file: %s\n", c.config.DemandFile)
	if c.config.MasterDataDir != "" {
		fmt.Fprintf(c.config.Out, "Master data: %s\n", c.config.MasterDataDir)
	}
	if c.config.PlanFile != "" {
		fmt.Fprintf(c.config.Out, "Existing plan: %s\n", c.config.PlanFile)
	}
	fmt.Fprintf(c.config.Out, "Output format: %s\n", c.config.Format)
	if c.config.OutputDir != "" {
		fmt.Fprintf(c.config.Out, "Output directory: %s\n", c.config.OutputDir)
	}
	fmt.Fprintln(c.config.Out)
}
