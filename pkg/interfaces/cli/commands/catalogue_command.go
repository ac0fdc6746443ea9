package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"go.uber.org/zap"

	"github.com/vsinha/aps/pkg/domain/entities"
	"github.com/vsinha/aps/pkg/domain/services"
	"github.com/vsinha/aps/pkg/infrastructure/repositories/csv"
	"github.com/vsinha/aps/pkg/infrastructure/repositories/memory"
)

// ImportConfig holds configuration for the master data import
type ImportConfig struct {
	Dir     string
	Verbose bool
	Out     io.Writer
}

// ImportCommand loads master data CSV files into the catalogue
type ImportCommand struct {
	config ImportConfig
	md     *memory.MasterDataStore
	logger *zap.Logger
}

// NewImportCommand creates an import command writing into md
func NewImportCommand(config ImportConfig, md *memory.MasterDataStore, logger *zap.Logger) *ImportCommand {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.Out == nil {
		config.Out = os.Stdout
	}
	return &ImportCommand{config: config, md: md, logger: logger}
}

// Execute imports every master data file present in the directory, then
// validates the resulting catalogue
func (c *ImportCommand) Execute(ctx context.Context) error {
	if info, err := os.Stat(c.config.Dir); err != nil || !info.IsDir() {
		return fmt.Errorf("master data directory not found: %s", c.config.Dir)
	}

	summary, err := csv.NewLoader().ImportDir(c.config.Dir, c.md)
	if err != nil {
		return fmt.Errorf("error importing master data: %w", err)
	}
	c.logger.Info("master data imported",
		zap.String("dir", c.config.Dir),
		zap.Int("processes", summary.Processes),
		zap.Int("products", summary.Products),
		zap.Int("equipment", summary.Equipment),
		zap.Int("operators", summary.Operators))

	fmt.Fprintf(c.config.Out, "Imported %d processes, %d products, %d equipment, %d operator records\n",
		summary.Processes, summary.Products, summary.Equipment, summary.Operators)

	return reportValidation(c.config.Out, c.md, c.config.Verbose)
}

func reportValidation(w io.Writer, md *memory.MasterDataStore, verbose bool) error {
	result := services.NewCatalogueValidator().Validate(md.GetProcessesOrdered(), md.Products(), md.Equipment())

	if verbose || !result.Valid() {
		warn := color.New(color.FgYellow)
		for _, msg := range result.Warnings {
			warn.Fprintf(w, "warning: %s\n", msg)
		}
	}
	if !result.Valid() {
		red := color.New(color.FgRed)
		for _, msg := range result.Errors {
			red.Fprintf(w, "error: %s\n", msg)
		}
		return fmt.Errorf("catalogue validation failed with %d errors", len(result.Errors))
	}
	return nil
}

// ListConfig holds configuration for the catalogue listing
type ListConfig struct {
	// Kind limits the listing to processes, products, equipment or operators
	Kind string
	Out  io.Writer
}

// ListCommand prints the catalogue as tables
type ListCommand struct {
	config ListConfig
	md     *memory.MasterDataStore
}

// NewListCommand creates a list command over md
func NewListCommand(config ListConfig, md *memory.MasterDataStore) *ListCommand {
	if config.Out == nil {
		config.Out = os.Stdout
	}
	return &ListCommand{config: config, md: md}
}

// Execute renders the requested catalogue sections
func (c *ListCommand) Execute(ctx context.Context) error {
	sections := map[string]func(){
		"processes": c.listProcesses,
		"products":  c.listProducts,
		"equipment": c.listEquipment,
		"operators": c.listOperators,
	}
	order := []string{"processes", "products", "equipment", "operators"}

	if c.config.Kind != "" && c.config.Kind != "all" {
		render, ok := sections[c.config.Kind]
		if !ok {
			return fmt.Errorf("unknown catalogue section: %s (expected one of %s)", c.config.Kind, strings.Join(order, ", "))
		}
		render()
		return nil
	}
	for _, kind := range order {
		sections[kind]()
	}
	return nil
}

func (c *ListCommand) newTable(title string) table.Writer {
	tw := table.NewWriter()
	tw.SetOutputMirror(c.config.Out)
	tw.SetTitle(title)
	return tw
}

func (c *ListCommand) listProcesses() {
	tw := c.newTable("Processes")
	tw.AppendHeader(table.Row{"ID", "Name", "Sequence", "Default Hours"})
	for _, p := range c.md.GetProcessesOrdered() {
		tw.AppendRow(table.Row{p.ID, p.Name, p.Sequence, p.DefaultDurationHours})
	}
	tw.Render()
}

func (c *ListCommand) listProducts() {
	tw := c.newTable("Products")
	tw.AppendHeader(table.Row{"ID", "Name", "Priority", "Route", "Lead Time"})
	for _, p := range c.md.Products() {
		route := make([]string, len(p.ProcessOrder))
		for i, id := range p.ProcessOrder {
			route[i] = string(id)
		}
		tw.AppendRow(table.Row{
			p.ID, p.Name, p.Priority,
			strings.Join(route, " > "),
			fmt.Sprintf("%g %s", p.LeadTime.Value, p.LeadTime.Unit),
		})
	}
	tw.Render()
}

func (c *ListCommand) listEquipment() {
	tw := c.newTable("Equipment")
	tw.AppendHeader(table.Row{"ID", "Name", "Process", "Eligible Products", "Blackout"})
	for _, eq := range c.md.Equipment() {
		eligible := make([]string, len(eq.EligibleProducts))
		for i, id := range eq.EligibleProducts {
			eligible[i] = string(id)
		}
		blackout := ""
		if eq.Blackout != nil {
			blackout = fmt.Sprintf("%s - %s", eq.Blackout.Start.Format("2006-01-02 15:04"), eq.Blackout.End.Format("2006-01-02 15:04"))
		}
		tw.AppendRow(table.Row{eq.ID, eq.Name, eq.ProcessID, strings.Join(eligible, ", "), blackout})
	}
	tw.Render()
}

func (c *ListCommand) listOperators() {
	tw := c.newTable("Operator Capacity")
	tw.AppendHeader(table.Row{"Process", "Date", "Workers", "Units/Worker", "Total"})
	for _, oc := range c.md.OperatorCapacities() {
		tw.AppendRow(table.Row{oc.ProcessID, oc.Date.Format("2006-01-02"), oc.Workers, oc.UnitsPerWorker, oc.TotalCapacity})
	}
	tw.Render()
}

func equipmentNames(md *memory.MasterDataStore) map[entities.EquipmentID]string {
	names := make(map[entities.EquipmentID]string)
	for _, eq := range md.Equipment() {
		if eq.Name != "" {
			names[eq.ID] = eq.Name
		}
	}
	return names
}
