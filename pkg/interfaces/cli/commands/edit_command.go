package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"go.uber.org/zap"

	"github.com/vsinha/aps/pkg/application/services/editing"
	"github.com/vsinha/aps/pkg/domain/entities"
	"github.com/vsinha/aps/pkg/infrastructure/events"
	"github.com/vsinha/aps/pkg/infrastructure/repositories/csv"
	"github.com/vsinha/aps/pkg/infrastructure/repositories/memory"
)

// errQuit ends the interactive session
var errQuit = errors.New("quit")

// EditConfig holds configuration for the interactive edit session
type EditConfig struct {
	PlanFile string
	In       io.Reader
	Out      io.Writer
}

// EditCommand runs an interactive session applying manual edits to a saved plan
type EditCommand struct {
	config  EditConfig
	md      *memory.MasterDataStore
	logger  *zap.Logger
	editor  *editing.PlanEditor
	events  *events.InMemoryEventStore
	scanner *bufio.Scanner
	dirty   bool
}

// NewEditCommand creates a new edit command
func NewEditCommand(config EditConfig, md *memory.MasterDataStore, logger *zap.Logger) *EditCommand {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.In == nil {
		config.In = os.Stdin
	}
	if config.Out == nil {
		config.Out = os.Stdout
	}
	return &EditCommand{
		config:  config,
		md:      md,
		logger:  logger,
		scanner: bufio.NewScanner(config.In),
	}
}

// Execute loads the plan and reads commands until EOF or quit
func (c *EditCommand) Execute(ctx context.Context) error {
	p, err := csv.LoadPlan(c.config.PlanFile)
	if err != nil {
		return fmt.Errorf("failed to load plan: %w", err)
	}
	c.events = events.NewInMemoryEventStore(c.logger)
	c.editor = editing.NewPlanEditor(p, c.md, c.events, c.logger)

	return c.runInteractiveSession(ctx)
}

func (c *EditCommand) runInteractiveSession(ctx context.Context) error {
	out := c.config.Out
	fmt.Fprintf(out, "=== Plan Edit Session: %s (%d batches) ===\n", c.config.PlanFile, c.editor.Plan().Len())
	fmt.Fprintln(out, "Type 'help' for available commands")
	fmt.Fprintln(out)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		fmt.Fprint(out, "aps> ")
		if !c.scanner.Scan() {
			break
		}

		line := strings.TrimSpace(c.scanner.Text())
		if line == "" {
			continue
		}

		if err := c.processCommand(line); err != nil {
			if errors.Is(err, errQuit) {
				break
			}
			fmt.Fprintf(out, "Error: %v\n", err)
		}
		fmt.Fprintln(out)
	}

	if c.dirty {
		fmt.Fprintln(out, "Unsaved edits discarded")
	}
	return c.scanner.Err()
}

func (c *EditCommand) processCommand(line string) error {
	parts := strings.Fields(line)
	command, args := parts[0], parts[1:]

	switch command {
	case "help", "h":
		c.printInteractiveHelp()
	case "list", "ls":
		return c.handleList(args)
	case "validate", "check":
		return c.handleValidate(args)
	case "move", "mv":
		return c.handleMove(args)
	case "delete", "rm":
		return c.handleDelete(args)
	case "withdraw":
		return c.handleWithdraw(args)
	case "events":
		return c.handleShowEvents(args)
	case "save":
		return c.handleSave(args)
	case "quit", "q", "exit":
		fmt.Fprintln(c.config.Out, "Goodbye!")
		return errQuit
	default:
		return fmt.Errorf("unknown command: %s (type 'help' for available commands)", command)
	}
	return nil
}

func (c *EditCommand) handleList(args []string) error {
	batches := c.editor.Plan().Batches()
	if len(args) > 0 {
		batches = c.editor.Plan().BatchesByEquipment(entities.EquipmentID(args[0]))
	}

	tw := table.NewWriter()
	tw.SetOutputMirror(c.config.Out)
	tw.AppendHeader(table.Row{"Batch", "Equipment", "Start", "End", "Product", "Process", "Lot"})
	for _, b := range batches {
		tw.AppendRow(table.Row{
			b.ID, b.EquipmentID,
			b.Start.Format("2006-01-02 15:04"), b.End.Format("2006-01-02 15:04"),
			b.Label(), b.ProcessID, b.LotNumber,
		})
	}
	tw.Render()
	return nil
}

func (c *EditCommand) handleValidate(args []string) error {
	batchID, equipmentID, start, err := moveArgs("validate", args)
	if err != nil {
		return err
	}
	if ok, reason := c.editor.ValidateBatchMove(batchID, equipmentID, start); !ok {
		fmt.Fprintf(c.config.Out, "Rejected: %s\n", reason)
		return nil
	}
	fmt.Fprintln(c.config.Out, "OK")
	return nil
}

func (c *EditCommand) handleMove(args []string) error {
	batchID, equipmentID, start, err := moveArgs("move", args)
	if err != nil {
		return err
	}
	moved, err := c.editor.ApplyMove(batchID, equipmentID, start)
	if err != nil {
		return err
	}
	c.dirty = true
	fmt.Fprintf(c.config.Out, "Moved %s to %s at %s\n", moved.ID, moved.EquipmentID, moved.Start.Format("2006-01-02 15:04"))
	return nil
}

func (c *EditCommand) handleDelete(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: delete <batch-id>")
	}
	if err := c.editor.DeleteBatch(args[0]); err != nil {
		return err
	}
	c.dirty = true
	fmt.Fprintf(c.config.Out, "Deleted %s\n", args[0])
	return nil
}

func (c *EditCommand) handleWithdraw(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: withdraw <lot-number>")
	}
	n := c.editor.WithdrawLot(args[0])
	if n > 0 {
		c.dirty = true
	}
	fmt.Fprintf(c.config.Out, "Removed %d batches of lot %s\n", n, args[0])
	return nil
}

func (c *EditCommand) handleShowEvents(args []string) error {
	limit := 10
	if len(args) > 0 {
		if l, err := strconv.Atoi(args[0]); err == nil {
			limit = l
		}
	}

	allEvents, err := c.events.ReadAllEvents(0)
	if err != nil {
		return fmt.Errorf("failed to read events: %w", err)
	}

	fmt.Fprintf(c.config.Out, "=== Recent Events (last %d) ===\n", limit)
	start := max(len(allEvents)-limit, 0)
	for _, event := range allEvents[start:] {
		fmt.Fprintf(c.config.Out, "[%s] %s -> %s\n",
			event.Timestamp().Format("15:04:05"),
			event.Type(),
			event.StreamID())
	}
	return nil
}

func (c *EditCommand) handleSave(args []string) error {
	target := c.config.PlanFile
	if len(args) > 0 {
		target = args[0]
	}
	file, err := os.Create(target)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", target, err)
	}
	if err := csv.WritePlanCSV(file, c.editor.Plan().FlatRows()); err != nil {
		file.Close()
		return fmt.Errorf("failed to write plan: %w", err)
	}
	if err := file.Close(); err != nil {
		return err
	}
	c.dirty = false
	fmt.Fprintf(c.config.Out, "Saved %d batches to %s\n", c.editor.Plan().Len(), target)
	return nil
}

func moveArgs(command string, args []string) (string, entities.EquipmentID, time.Time, error) {
	if len(args) != 3 {
		return "", "", time.Time{}, fmt.Errorf("usage: %s <batch-id> <equipment-id> <start>", command)
	}
	start, err := ParseStart(args[2])
	if err != nil {
		return "", "", time.Time{}, err
	}
	return args[0], entities.EquipmentID(args[1]), start, nil
}

// ParseStart accepts RFC3339, "2006-01-02T15:04" or a grid address such as
// "2006-01-02#2" naming the second slot of the day.
func ParseStart(s string) (time.Time, error) {
	if date, slot, ok := strings.Cut(s, "#"); ok {
		day, err := time.Parse("2006-01-02", date)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid date %q", date)
		}
		n, err := strconv.Atoi(slot)
		if err != nil || n < 1 || n > entities.SlotsPerDay {
			return time.Time{}, fmt.Errorf("invalid slot %q (expected 1-%d)", slot, entities.SlotsPerDay)
		}
		return entities.SlotStart(day, n-1), nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid start %q", s)
}

func (c *EditCommand) printInteractiveHelp() {
	fmt.Fprint(c.config.Out, `Available commands:
  list [equipment]                         List batches, optionally for one machine
  validate <batch> <equipment> <start>     Check a move without applying it
  move <batch> <equipment> <start>         Validate and apply a move
  delete <batch>                           Remove one batch
  withdraw <lot>                           Remove every batch of a lot
  events [n]                               Show the last n edit events
  save [file]                              Write the plan back as CSV
  quit                                     Leave the session

<start> is RFC3339, 2006-01-02T15:04 or a grid slot such as 2025-03-10#2
`)
}
