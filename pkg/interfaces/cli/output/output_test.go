package output

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/aps/pkg/application/dto"
	"github.com/vsinha/aps/pkg/domain/entities"
	"github.com/vsinha/aps/pkg/domain/plan"
)

var monday = time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

func sampleResult(t *testing.T) *dto.ScheduleResult {
	t.Helper()
	p := plan.New()
	add := func(id string, eq entities.EquipmentID, day time.Time, slot int, process entities.ProcessID, cleaning bool) {
		b, err := entities.NewBatch(id, "P1", "Bracket", eq, entities.SlotStart(day, slot), 2, process, "LOT-1")
		require.NoError(t, err)
		b.IsCleaning = cleaning
		require.NoError(t, p.AddBatch(b))
	}
	add("B1", "SAW1", monday, 0, "CUT", false)
	add("B2", "WLD1", monday, 1, "WELD", false)
	add("C1", "SAW1", monday, 1, "CUT", true)

	return &dto.ScheduleResult{
		Plan:           p,
		Entries:        []entities.DemandEntry{{ProductID: "P1", Day: monday}},
		RequestedUnits: 2,
		PlacedUnits:    1,
		Duration:       3 * time.Millisecond,
		Unscheduled: []dto.UnscheduledStep{
			{ProductID: "P1", ProcessID: "CUT", LotNumber: "LOT-2", Day: monday, Reason: dto.ReasonNoSlot},
		},
		Unresolved: []dto.UnresolvedDemand{{Row: 3, Product: "X9", Reason: dto.ReasonUnknownProduct}},
	}
}

func TestGenerate_Text(t *testing.T) {
	color.NoColor = true
	var buf bytes.Buffer
	err := Generate(sampleResult(t), Config{
		Format:         "text",
		Writer:         &buf,
		EquipmentNames: map[entities.EquipmentID]string{"SAW1": "Saw 1"},
	})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "Unit batches placed: 1/2")
	assert.Contains(t, out, "Saw 1")
	assert.Contains(t, out, "2025-03-10 02:00")
	assert.Contains(t, out, "Unscheduled steps: 1")
	assert.Contains(t, out, "no_slot")
	assert.Contains(t, out, "Unresolved demand rows: 1")
	assert.Contains(t, out, "X9")
}

func TestGenerate_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Generate(sampleResult(t), Config{Format: "json", Writer: &buf}))

	var report Report
	require.NoError(t, json.Unmarshal(buf.Bytes(), &report))
	assert.Equal(t, 3, report.Summary.Batches)
	assert.False(t, report.Summary.Complete)
	require.Len(t, report.Batches, 3)
	assert.Equal(t, "B1", report.Batches[0].BatchID)
	assert.Len(t, report.Unscheduled, 1)
}

func TestGenerate_JSONToDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Generate(sampleResult(t), Config{Format: "json", OutputDir: dir, Writer: &bytes.Buffer{}}))
	assert.FileExists(t, filepath.Join(dir, JSONFile))
}

func TestGenerate_CSV(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	var buf bytes.Buffer
	require.NoError(t, Generate(sampleResult(t), Config{Format: "csv", OutputDir: dir, Verbose: true, Writer: &buf}))

	for _, name := range []string{PlanFile, GridFile, UnscheduledFile} {
		assert.FileExists(t, filepath.Join(dir, name))
	}
	assert.Contains(t, buf.String(), PlanFile)

	data, err := os.ReadFile(filepath.Join(dir, UnscheduledFile))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "2025-03-10,P1,CUT,1,LOT-2,no_slot", lines[1])
}

func TestGenerate_CSVToWriter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Generate(sampleResult(t), Config{Format: "csv", Writer: &buf}))
	assert.True(t, strings.HasPrefix(buf.String(), "batch_id,"))
}

func TestGenerate_UnsupportedFormat(t *testing.T) {
	err := Generate(sampleResult(t), Config{Format: "pdf", Writer: &bytes.Buffer{}})
	assert.ErrorContains(t, err, "unsupported output format")
}

func TestGanttChart(t *testing.T) {
	result := sampleResult(t)
	gc := NewGanttChart(result.Plan, map[entities.EquipmentID]string{"SAW1": "Saw <1>"})
	svg := gc.GenerateSVG(result.Plan)

	assert.True(t, strings.HasPrefix(svg, "<svg"))
	assert.True(t, strings.HasSuffix(svg, "</svg>"))
	assert.Contains(t, svg, "Saw &lt;1&gt;")
	assert.Contains(t, svg, "WLD1")
	assert.Contains(t, svg, cleaningColor)
	assert.Contains(t, svg, processPalette[0])
	assert.Contains(t, svg, processPalette[1])
	assert.Equal(t, 3, strings.Count(svg, `class="batch-bar"`))
}

func TestGanttChart_SlotAxis(t *testing.T) {
	result := sampleResult(t)
	gc := NewGanttChart(result.Plan, nil)

	assert.Equal(t, gc.MarginLeft, gc.xFor(monday))
	assert.Equal(t, gc.Width-gc.MarginRight, gc.xFor(monday.Add(8*time.Hour)))
	assert.Equal(t, gc.xFor(monday.Add(8*time.Hour)), gc.xFor(monday.Add(20*time.Hour)))
}

func TestGanttChart_Empty(t *testing.T) {
	p := plan.New()
	svg := NewGanttChart(p, nil).GenerateSVG(p)
	assert.Contains(t, svg, "No Batches Scheduled")
}

func TestWriteHTML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteHTML(&buf, sampleResult(t), map[entities.EquipmentID]string{"SAW1": "Saw 1"}))

	page := buf.String()
	assert.Contains(t, page, "<svg")
	assert.Contains(t, page, "<th>Saw 1</th>")
	assert.Contains(t, page, "03-10 #1")
	assert.Contains(t, page, `class="busy"`)
	assert.Contains(t, page, "Unscheduled steps")
}

func TestGenerate_HTMLToDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Generate(sampleResult(t), Config{Format: "html", OutputDir: dir, Writer: &bytes.Buffer{}}))
	assert.FileExists(t, filepath.Join(dir, HTMLFile))
}
