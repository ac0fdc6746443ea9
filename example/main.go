package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/vsinha/aps/pkg/aps"
	"github.com/vsinha/aps/pkg/domain/entities"
	"github.com/vsinha/aps/pkg/interfaces/cli/output"
)

func main() {
	ctx := context.Background()

	planner := aps.NewPlanner(nil, aps.PlannerConfig{SearchWindowDays: 14})
	start := time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC)
	if err := setupBracketLine(planner, start); err != nil {
		fmt.Println("catalogue setup failed:", err)
		os.Exit(1)
	}

	if v := planner.Validate(); !v.Valid() {
		for _, e := range v.Errors {
			fmt.Println("catalogue error:", e)
		}
		os.Exit(1)
	}

	demand := entities.DemandTable{
		Columns: []string{"productCode", "lotNumber", "quantity", "dueDate", "priority"},
		Rows: [][]string{
			{"BRK-100", "LOT-0001", "500", "2025-12-02", "High"},
			{"BRK-100", "LOT-0002", "500", "2025-12-03", ""},
			{"HNG-200", "LOT-0003", "1200", "2025-12-02", "Urgent"},
			{"HNG-200", "LOT-0004", "800", "2025-12-04", "Low"},
		},
	}

	fmt.Println("Scheduling bracket line demand...")
	result, err := planner.Schedule(ctx, demand)
	if err != nil {
		fmt.Println("scheduling failed:", err)
		os.Exit(1)
	}

	err = output.Generate(result, output.Config{
		Format: "text",
		Writer: os.Stdout,
		EquipmentNames: map[entities.EquipmentID]string{
			"LSR-1": "Laser 1", "LSR-2": "Laser 2", "BND-1": "Press brake", "WLD-1": "Weld cell",
		},
	})
	if err != nil {
		fmt.Println("report failed:", err)
		os.Exit(1)
	}

	// A planner drags the first laser batch onto the second laser
	lasered := result.Plan.BatchesByEquipment("LSR-1")
	if len(lasered) == 0 {
		return
	}
	b := lasered[0]
	editor := planner.Editor(result.Plan)
	if ok, reason := editor.ValidateBatchMove(b.ID, "LSR-2", b.Start); !ok {
		fmt.Printf("Move of %s rejected: %s\n", b.Label(), reason)
		return
	}
	moved, err := editor.ApplyMove(b.ID, "LSR-2", b.Start)
	if err != nil {
		fmt.Println("move failed:", err)
		os.Exit(1)
	}
	fmt.Printf("Moved %s to %s at %s\n", moved.Label(), moved.EquipmentID, moved.Start.Format("2006-01-02 15:04"))
}

func setupBracketLine(planner *aps.Planner, start time.Time) error {
	md := planner.Catalogue()

	processes := []entities.Process{
		{ID: "LASER", Name: "Laser cutting", Sequence: 1, DefaultDurationHours: 2},
		{ID: "BEND", Name: "Bending", Sequence: 2, DefaultDurationHours: 2},
		{ID: "WELD", Name: "Welding", Sequence: 3, DefaultDurationHours: 4},
	}
	for _, p := range processes {
		if err := md.AddProcess(p); err != nil {
			return err
		}
	}

	products := []entities.Product{
		{
			ID:           "BRK-100",
			Name:         "Mounting bracket",
			Priority:     1,
			ProcessOrder: []entities.ProcessID{"LASER", "BEND", "WELD"},
			LeadTime:     entities.LeadTime{Value: 1, Unit: entities.LeadTimeDays},
		},
		{
			ID:               "HNG-200",
			Name:             "Door hinge",
			Priority:         2,
			ProcessOrder:     []entities.ProcessID{"LASER", "BEND"},
			ProcessDurations: map[entities.ProcessID]float64{"BEND": 4},
		},
	}
	for _, p := range products {
		if err := md.AddProduct(p); err != nil {
			return err
		}
	}

	both := []entities.ProductID{"BRK-100", "HNG-200"}
	equipment := []entities.Equipment{
		{ID: "LSR-1", Name: "Laser 1", ProcessID: "LASER", EligibleProducts: both},
		{ID: "LSR-2", Name: "Laser 2", ProcessID: "LASER", EligibleProducts: both},
		{ID: "BND-1", Name: "Press brake", ProcessID: "BEND", EligibleProducts: both},
		{ID: "WLD-1", Name: "Weld cell", ProcessID: "WELD", EligibleProducts: []entities.ProductID{"BRK-100"}},
	}
	for _, e := range equipment {
		if err := md.AddEquipment(e); err != nil {
			return err
		}
	}

	for day := 0; day < 14; day++ {
		date := start.AddDate(0, 0, day)
		if entities.IsWeekend(date) {
			continue
		}
		for _, p := range processes {
			oc, err := entities.NewOperatorCapacity(p.ID, date, 2, 4)
			if err != nil {
				return err
			}
			if err := md.SetOperatorCapacity(*oc); err != nil {
				return err
			}
		}
	}
	return nil
}
