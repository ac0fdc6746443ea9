// Package httpapi exposes the plan and its edit operations to the planning UI.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	humachi "github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/vsinha/aps/pkg/application/services/editing"
	"github.com/vsinha/aps/pkg/domain/entities"
	"github.com/vsinha/aps/pkg/infrastructure/events"
)

// Config for the HTTP API handler.
type Config struct {
	Editor *editing.PlanEditor
	// Events, when set, is served at /plan/events
	Events events.EventStore
	Logger *zap.Logger
	// LogLevel, when set, is mounted at /log/level
	LogLevel http.Handler
}

// New returns an HTTP handler exposing the plan edit surface.
func New(cfg Config) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	huma.DefaultArrayNullable = false

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.Use(requestLogger(logger))

	if cfg.LogLevel != nil {
		router.Handle("/log/level", cfg.LogLevel)
	}

	hcfg := huma.DefaultConfig("APS Plan API", "1.0.0")
	hcfg.OpenAPIPath = "/openapi"
	hcfg.DocsPath = ""
	api := humachi.New(router, hcfg)

	registerHealth(api)
	registerPlan(api, cfg.Editor)
	registerEdits(api, cfg.Editor)
	if cfg.Events != nil {
		registerEvents(api, cfg.Events)
	}
	return router
}

func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Debug("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("elapsed", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())))
		})
	}
}

func registerHealth(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/healthz",
		Summary:     "Health check",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body map[string]string `json:"body"`
	}, error) {
		return &struct {
			Body map[string]string `json:"body"`
		}{Body: map[string]string{"status": "ok"}}, nil
	})
}

func registerPlan(api huma.API, editor *editing.PlanEditor) {
	huma.Register(api, huma.Operation{
		OperationID: "list-batches",
		Method:      http.MethodGet,
		Path:        "/plan/batches",
		Summary:     "List plan batches as flat rows",
	}, func(ctx context.Context, input *struct {
		Equipment string `query:"equipment" doc:"Only batches on this equipment"`
	}) (*BatchListResponse, error) {
		rows := editor.Plan().FlatRows()
		if input.Equipment != "" {
			filtered := rows[:0]
			for _, row := range rows {
				if row.EquipmentID == input.Equipment {
					filtered = append(filtered, row)
				}
			}
			rows = filtered
		}
		resp := &BatchListResponse{}
		resp.Body.Batches = rows
		return resp, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-batch",
		Method:      http.MethodGet,
		Path:        "/plan/batches/{id}",
		Summary:     "Get one batch",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *batchPath) (*BatchResponse, error) {
		b, ok := editor.Plan().Batch(input.ID)
		if !ok {
			return nil, huma.Error404NotFound("batch " + input.ID + " not found")
		}
		return &BatchResponse{Body: b}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-grid",
		Method:      http.MethodGet,
		Path:        "/plan/grid",
		Summary:     "Equipment by (date, slot) grid of the plan",
	}, func(ctx context.Context, _ *struct{}) (*GridResponse, error) {
		grid := editor.Plan().Grid()
		resp := &GridResponse{}
		resp.Body.Equipment = make([]string, len(grid.Equipment))
		for i, id := range grid.Equipment {
			resp.Body.Equipment[i] = string(id)
		}
		resp.Body.Columns = make([]GridColumn, len(grid.Columns))
		for i, col := range grid.Columns {
			resp.Body.Columns[i] = GridColumn{Date: col.Date.Format("2006-01-02"), Slot: col.Slot}
		}
		resp.Body.Cells = grid.Cells
		return resp, nil
	})
}

func registerEdits(api huma.API, editor *editing.PlanEditor) {
	huma.Register(api, huma.Operation{
		OperationID: "validate-move",
		Method:      http.MethodPost,
		Path:        "/plan/batches/{id}/validate-move",
		Summary:     "Check whether a batch can be moved",
	}, func(ctx context.Context, input *struct {
		ID   string      `path:"id"`
		Body MoveRequest `json:"body"`
	}) (*ValidationResponse, error) {
		ok, reason := editor.ValidateBatchMove(input.ID, entities.EquipmentID(input.Body.EquipmentID), input.Body.Start)
		resp := &ValidationResponse{}
		resp.Body.Valid = ok
		resp.Body.Reason = reason
		return resp, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "move-batch",
		Method:      http.MethodPost,
		Path:        "/plan/batches/{id}/move",
		Summary:     "Validate and apply a batch move",
		Errors:      []int{http.StatusNotFound, http.StatusUnprocessableEntity},
	}, func(ctx context.Context, input *struct {
		ID   string      `path:"id"`
		Body MoveRequest `json:"body"`
	}) (*BatchResponse, error) {
		if _, ok := editor.Plan().Batch(input.ID); !ok {
			return nil, huma.Error404NotFound("batch " + input.ID + " not found")
		}
		moved, err := editor.ApplyMove(input.ID, entities.EquipmentID(input.Body.EquipmentID), input.Body.Start)
		if err != nil {
			return nil, handleError(err)
		}
		return &BatchResponse{Body: moved}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "delete-batch",
		Method:        http.MethodDelete,
		Path:          "/plan/batches/{id}",
		Summary:       "Remove a batch",
		DefaultStatus: http.StatusNoContent,
		Errors:        []int{http.StatusNotFound},
	}, func(ctx context.Context, input *batchPath) (*struct{}, error) {
		if err := editor.DeleteBatch(input.ID); err != nil {
			return nil, handleError(err)
		}
		return nil, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "withdraw-lot",
		Method:      http.MethodDelete,
		Path:        "/plan/lots/{lot}",
		Summary:     "Remove every batch of a withdrawn lot",
	}, func(ctx context.Context, input *struct {
		Lot string `path:"lot"`
	}) (*WithdrawResponse, error) {
		resp := &WithdrawResponse{}
		resp.Body.Removed = editor.WithdrawLot(input.Lot)
		return resp, nil
	})
}

func registerEvents(api huma.API, store events.EventStore) {
	huma.Register(api, huma.Operation{
		OperationID: "list-events",
		Method:      http.MethodGet,
		Path:        "/plan/events",
		Summary:     "Plan lifecycle events",
	}, func(ctx context.Context, input *struct {
		From int `query:"from" minimum:"0" doc:"First event version to return"`
	}) (*EventListResponse, error) {
		list, err := store.ReadEvents(events.PlanStream, input.From)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to read events", err)
		}
		resp := &EventListResponse{}
		resp.Body.Events = make([]Event, len(list))
		for i, e := range list {
			resp.Body.Events[i] = Event{
				ID:        e.ID(),
				Type:      e.Type(),
				Version:   e.Version(),
				Timestamp: e.Timestamp(),
				Data:      e.Data(),
			}
		}
		return resp, nil
	})
}

func handleError(err error) huma.StatusError {
	switch {
	case errors.Is(err, entities.ErrNotFound):
		return huma.Error404NotFound(err.Error())
	case errors.Is(err, editing.ErrInvalidMove):
		return huma.Error422UnprocessableEntity(err.Error())
	default:
		return huma.Error500InternalServerError(err.Error())
	}
}
