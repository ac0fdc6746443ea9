package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vsinha/aps/pkg/application/services/editing"
	"github.com/vsinha/aps/pkg/domain/entities"
	"github.com/vsinha/aps/pkg/domain/plan"
	"github.com/vsinha/aps/pkg/infrastructure/events"
	"github.com/vsinha/aps/pkg/infrastructure/repositories/memory"
)

var monday = time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

func newTestHandler(t *testing.T) (http.Handler, *editing.PlanEditor) {
	t.Helper()
	md := memory.NewMasterDataStore(nil)
	require.NoError(t, md.AddProcess(entities.Process{ID: "CUT", Sequence: 1, DefaultDurationHours: 2}))
	require.NoError(t, md.AddProduct(entities.Product{ID: "P1", Name: "Bracket", ProcessOrder: []entities.ProcessID{"CUT"}}))
	for _, id := range []entities.EquipmentID{"SAW1", "SAW2"} {
		require.NoError(t, md.AddEquipment(entities.Equipment{ID: id, ProcessID: "CUT", EligibleProducts: []entities.ProductID{"P1"}}))
	}
	oc, err := entities.NewOperatorCapacity("CUT", monday, 2, 5)
	require.NoError(t, err)
	require.NoError(t, md.SetOperatorCapacity(*oc))

	p := plan.New()
	for i, id := range []string{"B1", "B2"} {
		b, err := entities.NewBatch(id, "P1", "Bracket", "SAW1", entities.SlotStart(monday, i), 2, "CUT", "LOT-"+id)
		require.NoError(t, err)
		require.NoError(t, p.AddBatch(b))
	}

	store := events.NewInMemoryEventStore(zap.NewNop())
	editor := editing.NewPlanEditor(p, md, store, zap.NewNop())
	level := zap.NewAtomicLevelAt(zap.InfoLevel)
	return New(Config{Editor: editor, Events: store, LogLevel: level}), editor
}

func do(t *testing.T, h http.Handler, method, url string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, url, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestHealth(t *testing.T) {
	h, _ := newTestHandler(t)
	rec := do(t, h, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode[map[string]any](t, rec)["status"])
}

func TestListBatches(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := do(t, h, http.MethodGet, "/plan/batches", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[struct {
		Batches []plan.FlatRow `json:"batches"`
	}](t, rec)
	require.Len(t, body.Batches, 2)
	assert.Equal(t, "B1", body.Batches[0].BatchID)

	rec = do(t, h, http.MethodGet, "/plan/batches?equipment=SAW2", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body = decode[struct {
		Batches []plan.FlatRow `json:"batches"`
	}](t, rec)
	assert.Empty(t, body.Batches)
}

func TestGetBatch(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := do(t, h, http.MethodGet, "/plan/batches/B2", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "LOT-B2", decode[entities.Batch](t, rec).LotNumber)

	rec = do(t, h, http.MethodGet, "/plan/batches/NOPE", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGrid(t *testing.T) {
	h, _ := newTestHandler(t)
	rec := do(t, h, http.MethodGet, "/plan/grid", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode[struct {
		Equipment []string     `json:"equipment"`
		Columns   []GridColumn `json:"columns"`
		Cells     [][]string   `json:"cells"`
	}](t, rec)
	assert.Equal(t, []string{"SAW1"}, body.Equipment)
	require.Len(t, body.Columns, entities.SlotsPerDay)
	assert.Equal(t, GridColumn{Date: "2025-03-10", Slot: 0}, body.Columns[0])
	assert.Equal(t, "Bracket/CUT/LOT-B2", body.Cells[0][1])
}

func TestValidateMove(t *testing.T) {
	h, _ := newTestHandler(t)

	testCases := []struct {
		name   string
		req    MoveRequest
		valid  bool
		reason string
	}{
		{"free slot", MoveRequest{EquipmentID: "SAW2", Start: monday}, true, ""},
		{"overlap", MoveRequest{EquipmentID: "SAW1", Start: monday}, false, "overlaps"},
		{"no operators", MoveRequest{EquipmentID: "SAW2", Start: monday.AddDate(0, 0, 1)}, false, "no operators"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/plan/batches/B2/validate-move", tc.req)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			body := decode[struct {
				Valid  bool   `json:"valid"`
				Reason string `json:"reason"`
			}](t, rec)
			assert.Equal(t, tc.valid, body.Valid)
			assert.Contains(t, body.Reason, tc.reason)
		})
	}
}

func TestMoveBatch(t *testing.T) {
	h, editor := newTestHandler(t)

	rec := do(t, h, http.MethodPost, "/plan/batches/B2/move", MoveRequest{EquipmentID: "SAW2", Start: monday})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	moved := decode[entities.Batch](t, rec)
	assert.Equal(t, entities.EquipmentID("SAW2"), moved.EquipmentID)
	assert.Len(t, editor.Plan().BatchesByEquipment("SAW2"), 1)

	rec = do(t, h, http.MethodPost, "/plan/batches/B1/move", MoveRequest{EquipmentID: "SAW2", Start: monday})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "overlaps")

	rec = do(t, h, http.MethodPost, "/plan/batches/NOPE/move", MoveRequest{EquipmentID: "SAW2", Start: monday})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodGet, "/plan/events", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[struct {
		Events []Event `json:"events"`
	}](t, rec)
	require.Len(t, body.Events, 1)
	assert.Equal(t, events.BatchMovedEvent, body.Events[0].Type)
	assert.Equal(t, 1, body.Events[0].Version)
	assert.NotEmpty(t, body.Events[0].ID)
}

func TestDeleteBatchAndWithdrawLot(t *testing.T) {
	h, editor := newTestHandler(t)

	rec := do(t, h, http.MethodDelete, "/plan/batches/B1", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(t, h, http.MethodDelete, "/plan/batches/B1", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodDelete, "/plan/lots/LOT-B2", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, decode[map[string]any](t, rec)["removed"])
	assert.Zero(t, editor.Plan().Len())
}

func TestLogLevel(t *testing.T) {
	h, _ := newTestHandler(t)
	rec := do(t, h, http.MethodGet, "/log/level", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "info", decode[map[string]any](t, rec)["level"])
}
