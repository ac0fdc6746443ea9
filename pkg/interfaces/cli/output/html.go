package output

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"os"
	"path/filepath"

	"github.com/vsinha/aps/pkg/application/dto"
	"github.com/vsinha/aps/pkg/domain/entities"
	"github.com/vsinha/aps/pkg/domain/plan"
)

var pageTemplate = template.Must(template.New("plan").Funcs(template.FuncMap{
	"inc": func(i int) int { return i + 1 },
}).Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Production Plan</title>
<style>
body { font-family: Arial, sans-serif; margin: 24px; color: #333; }
table { border-collapse: collapse; font-size: 11px; }
th, td { border: 1px solid #e0e0e0; padding: 2px 6px; white-space: nowrap; }
th { background: #f5f5f5; }
td.busy { background: #e8f5e9; }
.warn { color: #e65100; }
</style>
</head>
<body>
<h1>Production Plan</h1>
<p>Unit batches placed: {{.Summary.PlacedUnits}}/{{.Summary.RequestedUnits}}. Batches: {{.Summary.Batches}}. Scheduling time: {{.Summary.Elapsed}}.</p>
<div>{{.Chart}}</div>
<h2>Grid</h2>
<table>
<tr><th>Equipment</th>{{range .Grid.Columns}}<th>{{.Date.Format "01-02"}} #{{inc .Slot}}</th>{{end}}</tr>
{{range .Rows}}<tr><th>{{.Name}}</th>{{range .Cells}}<td{{if .}} class="busy"{{end}}>{{.}}</td>{{end}}</tr>
{{end}}</table>
{{if .Unscheduled}}<h2 class="warn">Unscheduled steps</h2>
<table>
<tr><th>Day</th><th>Product</th><th>Process</th><th>Lot</th><th>Reason</th></tr>
{{range .Unscheduled}}<tr><td>{{.Day.Format "2006-01-02"}}</td><td>{{.ProductID}}</td><td>{{.ProcessID}}</td><td>{{.LotNumber}}</td><td>{{.Reason}}</td></tr>
{{end}}</table>{{end}}
</body>
</html>
`))

type htmlRow struct {
	Name  string
	Cells []string
}

type htmlPage struct {
	Summary     Summary
	Chart       template.HTML
	Grid        plan.Grid
	Rows        []htmlRow
	Unscheduled []dto.UnscheduledStep
}

// WriteHTML renders the plan page with the Gantt chart and slot grid
func WriteHTML(w io.Writer, result *dto.ScheduleResult, names map[entities.EquipmentID]string) error {
	grid := result.Plan.Grid()
	page := htmlPage{
		Summary:     NewReport(result).Summary,
		Chart:       template.HTML(NewGanttChart(result.Plan, names).GenerateSVG(result.Plan)),
		Grid:        grid,
		Unscheduled: result.Unscheduled,
	}
	for i, id := range grid.Equipment {
		name := string(id)
		if n := names[id]; n != "" {
			name = n
		}
		page.Rows = append(page.Rows, htmlRow{Name: name, Cells: grid.Cells[i]})
	}
	return pageTemplate.Execute(w, page)
}

func generateSVGOutput(result *dto.ScheduleResult, config Config) error {
	svg := NewGanttChart(result.Plan, config.EquipmentNames).GenerateSVG(result.Plan)
	return writeDocument(config, GanttFile, []byte(svg))
}

func generateHTMLOutput(result *dto.ScheduleResult, config Config) error {
	var buf bytes.Buffer
	if err := WriteHTML(&buf, result, config.EquipmentNames); err != nil {
		return fmt.Errorf("failed to render HTML: %w", err)
	}
	return writeDocument(config, HTMLFile, buf.Bytes())
}

// writeDocument writes to OutputDir/name, or to the writer without an output dir
func writeDocument(config Config, name string, data []byte) error {
	if config.OutputDir == "" {
		_, err := config.Writer.Write(data)
		return err
	}
	if err := os.MkdirAll(config.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	filename := filepath.Join(config.OutputDir, name)
	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	if config.Verbose {
		fmt.Fprintf(config.Writer, "Saved to: %s\n", filename)
	}
	return nil
}
