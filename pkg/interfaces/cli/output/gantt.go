package output

import (
	"fmt"
	"html"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/vsinha/aps/pkg/domain/entities"
	"github.com/vsinha/aps/pkg/domain/plan"
)

var processPalette = []string{"#4CAF50", "#2196F3", "#FF9800", "#9C27B0", "#00BCD4", "#E91E63", "#795548", "#3F51B5"}

const cleaningColor = "#9E9E9E"

// GanttChart renders a plan as equipment rows over the plan's days
type GanttChart struct {
	Width        int
	Height       int
	MarginLeft   int
	MarginTop    int
	MarginRight  int
	MarginBottom int
	RowHeight    int
	StartTime    time.Time
	EndTime      time.Time

	names  map[entities.EquipmentID]string
	colors map[entities.ProcessID]string
}

// GanttBar represents a single batch in the chart
type GanttBar struct {
	Batch entities.Batch
	X     int
	Width int
	Color string
}

// NewGanttChart sizes a chart for the plan
func NewGanttChart(p *plan.ProductionPlan, names map[entities.EquipmentID]string) *GanttChart {
	gc := &GanttChart{
		Width:        800,
		Height:       200,
		MarginLeft:   150,
		MarginTop:    60,
		MarginRight:  50,
		MarginBottom: 60,
		RowHeight:    30,
		names:        names,
		colors:       make(map[entities.ProcessID]string),
	}

	first, last, ok := p.DateRange()
	if !ok {
		return gc
	}
	gc.StartTime = first
	gc.EndTime = last.AddDate(0, 0, 1)

	days := int(gc.EndTime.Sub(gc.StartTime).Hours() / 24)
	gc.Width = gc.MarginLeft + gc.MarginRight + max(800, days*entities.SlotsPerDay*30)
	gc.Height = gc.MarginTop + gc.MarginBottom + len(p.EquipmentIDs())*gc.RowHeight + 30
	return gc
}

// GenerateSVG creates an SVG representation of the plan
func (gc *GanttChart) GenerateSVG(p *plan.ProductionPlan) string {
	equipment := p.EquipmentIDs()
	if len(equipment) == 0 {
		return gc.generateEmptyChart()
	}

	var svg strings.Builder

	fmt.Fprintf(&svg, `<svg width="%d" height="%d" xmlns="http://www.w3.org/2000/svg">`, gc.Width, gc.Height)
	svg.WriteString(`<defs><style>`)
	svg.WriteString(`.row-label { font-family: Arial, sans-serif; font-size: 12px; fill: #333; }`)
	svg.WriteString(`.time-label { font-family: Arial, sans-serif; font-size: 10px; fill: #666; }`)
	svg.WriteString(`.title { font-family: Arial, sans-serif; font-size: 16px; font-weight: bold; fill: #333; }`)
	svg.WriteString(`.grid-line { stroke: #e0e0e0; stroke-width: 1; }`)
	svg.WriteString(`.day-line { stroke: #bdbdbd; stroke-width: 1; }`)
	svg.WriteString(`.batch-bar { stroke: #333; stroke-width: 1; }`)
	svg.WriteString(`.batch-text { font-family: Arial, sans-serif; font-size: 9px; fill: white; }`)
	svg.WriteString(`</style></defs>`)

	fmt.Fprintf(&svg, `<rect width="%d" height="%d" fill="white"/>`, gc.Width, gc.Height)
	fmt.Fprintf(&svg, `<text x="%d" y="30" class="title" text-anchor="middle">Production Plan</text>`, gc.Width/2)

	rows := gc.organizeBars(p.Batches())

	gc.drawTimeAxis(&svg)
	gc.drawTimeGrid(&svg, len(equipment))
	gc.drawEquipmentRows(&svg, equipment, rows)
	gc.drawLegend(&svg)

	svg.WriteString(`</svg>`)
	return svg.String()
}

func (gc *GanttChart) organizeBars(batches []entities.Batch) map[entities.EquipmentID][]GanttBar {
	rows := make(map[entities.EquipmentID][]GanttBar)
	for _, b := range batches {
		x := gc.xFor(b.Start)
		width := gc.xFor(b.End) - x
		if width < 2 {
			width = 2
		}
		rows[b.EquipmentID] = append(rows[b.EquipmentID], GanttBar{
			Batch: b,
			X:     x,
			Width: width,
			Color: gc.barColor(b),
		})
	}
	return rows
}

// xFor maps an instant onto the slot axis; hours past the last slot of a day
// collapse onto the day boundary.
func (gc *GanttChart) xFor(t time.Time) int {
	chartWidth := gc.Width - gc.MarginLeft - gc.MarginRight
	days := int(gc.EndTime.Sub(gc.StartTime).Hours() / 24)
	if days <= 0 {
		return gc.MarginLeft
	}
	day := entities.Day(t)
	slots := math.Min(t.Sub(day).Hours()/entities.SlotHours, entities.SlotsPerDay)
	units := float64(int(day.Sub(gc.StartTime).Hours()/24)*entities.SlotsPerDay) + slots
	return gc.MarginLeft + int(units/float64(days*entities.SlotsPerDay)*float64(chartWidth))
}

func (gc *GanttChart) gridBottom(numRows int) int {
	return gc.MarginTop + numRows*gc.RowHeight
}

// drawTimeAxis labels every day at its first slot
func (gc *GanttChart) drawTimeAxis(svg *strings.Builder) {
	axisY := gc.Height - gc.MarginBottom
	for day := gc.StartTime; day.Before(gc.EndTime); day = day.AddDate(0, 0, 1) {
		x := gc.xFor(entities.SlotStart(day, entities.SlotsPerDay/2))
		fmt.Fprintf(svg, `<text x="%d" y="%d" class="time-label" text-anchor="middle">%s</text>`,
			x, axisY+15, day.Format("Mon Jan 2"))
	}
	fmt.Fprintf(svg, `<line x1="%d" y1="%d" x2="%d" y2="%d" class="grid-line"/>`,
		gc.MarginLeft, axisY, gc.Width-gc.MarginRight, axisY)
}

// drawTimeGrid draws a line per slot and a darker line per day
func (gc *GanttChart) drawTimeGrid(svg *strings.Builder, numRows int) {
	bottom := gc.gridBottom(numRows)
	for day := gc.StartTime; day.Before(gc.EndTime); day = day.AddDate(0, 0, 1) {
		for s := 0; s < entities.SlotsPerDay; s++ {
			class := "grid-line"
			if s == 0 {
				class = "day-line"
			}
			x := gc.xFor(entities.SlotStart(day, s))
			fmt.Fprintf(svg, `<line x1="%d" y1="%d" x2="%d" y2="%d" class="%s"/>`,
				x, gc.MarginTop, x, bottom, class)
		}
	}
}

func (gc *GanttChart) drawEquipmentRows(svg *strings.Builder, equipment []entities.EquipmentID, rows map[entities.EquipmentID][]GanttBar) {
	for i, id := range equipment {
		y := gc.MarginTop + i*gc.RowHeight

		label := string(id)
		if name := gc.names[id]; name != "" {
			label = name
		}
		fmt.Fprintf(svg, `<text x="%d" y="%d" class="row-label" text-anchor="end">%s</text>`,
			gc.MarginLeft-15, y+gc.RowHeight/2+4, html.EscapeString(label))
		fmt.Fprintf(svg, `<line x1="%d" y1="%d" x2="%d" y2="%d" class="grid-line"/>`,
			gc.MarginLeft, y+gc.RowHeight, gc.Width-gc.MarginRight, y+gc.RowHeight)

		for _, bar := range rows[id] {
			gc.drawBar(svg, bar, y)
		}
	}
}

func (gc *GanttChart) drawBar(svg *strings.Builder, bar GanttBar, rowY int) {
	barHeight := gc.RowHeight - 4
	barY := rowY + 2
	b := bar.Batch

	svg.WriteString(`<g>`)
	fmt.Fprintf(svg, `<rect x="%d" y="%d" width="%d" height="%d" fill="%s" class="batch-bar"/>`,
		bar.X, barY, bar.Width, barHeight, bar.Color)
	if bar.Width > 40 {
		fmt.Fprintf(svg, `<text x="%d" y="%d" class="batch-text" text-anchor="middle">%s</text>`,
			bar.X+bar.Width/2, barY+barHeight/2+3, html.EscapeString(b.LotNumber))
	}

	tooltip := fmt.Sprintf("%s, Process: %s, Lot: %s, %s - %s",
		b.Label(), b.ProcessID, b.LotNumber,
		b.Start.Format("2006-01-02 15:04"), b.End.Format("2006-01-02 15:04"))
	if b.IsCleaning {
		tooltip = fmt.Sprintf("Cleaning, %s - %s", b.Start.Format("2006-01-02 15:04"), b.End.Format("15:04"))
	}
	fmt.Fprintf(svg, `<title>%s</title>`, html.EscapeString(tooltip))
	svg.WriteString(`</g>`)
}

// drawLegend lists the process colors in use
func (gc *GanttChart) drawLegend(svg *strings.Builder) {
	processes := make([]entities.ProcessID, 0, len(gc.colors))
	for id := range gc.colors {
		processes = append(processes, id)
	}
	sort.Slice(processes, func(i, j int) bool { return processes[i] < processes[j] })

	legendX := gc.MarginLeft
	legendY := gc.Height - gc.MarginBottom + 30
	for i, id := range processes {
		x := legendX + i*110
		fmt.Fprintf(svg, `<rect x="%d" y="%d" width="12" height="8" fill="%s"/>`, x, legendY, gc.colors[id])
		fmt.Fprintf(svg, `<text x="%d" y="%d" class="time-label">%s</text>`, x+18, legendY+8, html.EscapeString(string(id)))
	}
	x := legendX + len(processes)*110
	fmt.Fprintf(svg, `<rect x="%d" y="%d" width="12" height="8" fill="%s"/>`, x, legendY, cleaningColor)
	fmt.Fprintf(svg, `<text x="%d" y="%d" class="time-label">Cleaning</text>`, x+18, legendY+8)
}

// barColor assigns palette colors to processes in order of first use
func (gc *GanttChart) barColor(b entities.Batch) string {
	if b.IsCleaning {
		return cleaningColor
	}
	if c, ok := gc.colors[b.ProcessID]; ok {
		return c
	}
	c := processPalette[len(gc.colors)%len(processPalette)]
	gc.colors[b.ProcessID] = c
	return c
}

func (gc *GanttChart) generateEmptyChart() string {
	return fmt.Sprintf(`<svg width="%d" height="%d" xmlns="http://www.w3.org/2000/svg">
		<rect width="%d" height="%d" fill="white"/>
		<text x="%d" y="%d" class="title" text-anchor="middle">No Batches Scheduled</text>
		<style>
			.title { font-family: Arial, sans-serif; font-size: 16px; fill: #666; }
		</style>
	</svg>`, gc.Width, gc.Height, gc.Width, gc.Height, gc.Width/2, gc.Height/2)
}
