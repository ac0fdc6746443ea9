package events

import (
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrNilEvent is returned when appending a nil event
var ErrNilEvent = errors.New("nil event")

// InMemoryEventStore keeps a single append-ordered log with a per-stream index.
// Subscribers run synchronously after the lock is released, in append order;
// a failing handler is logged and does not fail the append.
type InMemoryEventStore struct {
	mu          sync.RWMutex
	log         []record
	byStream    map[string][]int
	subscribers map[string][]EventHandler
	logger      *zap.Logger
}

func NewInMemoryEventStore(logger *zap.Logger) *InMemoryEventStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InMemoryEventStore{
		byStream:    make(map[string][]int),
		subscribers: make(map[string][]EventHandler),
		logger:      logger,
	}
}

// AppendEvent stores the event under streamID and assigns its stream version
func (s *InMemoryEventStore) AppendEvent(streamID string, event Event) error {
	if event == nil {
		return ErrNilEvent
	}

	rec := record{
		id:     event.ID(),
		kind:   event.Type(),
		stream: streamID,
		data:   event.Data(),
		at:     event.Timestamp(),
	}
	if rec.id == "" {
		rec.id = uuid.NewString()
	}
	if rec.at.IsZero() {
		rec.at = time.Now().UTC()
	}

	s.mu.Lock()
	rec.version = len(s.byStream[streamID]) + 1
	s.byStream[streamID] = append(s.byStream[streamID], len(s.log))
	s.log = append(s.log, rec)
	handlers := slices.Clone(s.subscribers[rec.kind])
	s.mu.Unlock()

	for _, h := range handlers {
		if !h.CanHandle(rec.kind) {
			continue
		}
		if err := h.Handle(rec); err != nil {
			s.logger.Warn("event handler failed",
				zap.String("event", rec.kind),
				zap.String("stream", streamID),
				zap.Int("version", rec.version),
				zap.Error(err))
		}
	}
	return nil
}

// ReadEvents returns the stream's events from fromVersion on; versions below 1
// read the whole stream.
func (s *InMemoryEventStore) ReadEvents(streamID string, fromVersion int) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	positions := s.byStream[streamID]
	fromVersion = max(fromVersion, 1)
	if fromVersion > len(positions) {
		return []Event{}, nil
	}

	out := make([]Event, 0, len(positions)-fromVersion+1)
	for _, pos := range positions[fromVersion-1:] {
		out = append(out, s.log[pos])
	}
	return out, nil
}

// ReadAllEvents returns every event from the 0-based log position on
func (s *InMemoryEventStore) ReadAllEvents(fromPosition int) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	fromPosition = max(fromPosition, 0)
	if fromPosition >= len(s.log) {
		return []Event{}, nil
	}

	out := make([]Event, 0, len(s.log)-fromPosition)
	for _, rec := range s.log[fromPosition:] {
		out = append(out, rec)
	}
	return out, nil
}

// Len returns the number of events across all streams
func (s *InMemoryEventStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.log)
}

func (s *InMemoryEventStore) Subscribe(eventTypes []string, handler EventHandler) error {
	if handler == nil {
		return errors.New("nil event handler")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range eventTypes {
		s.subscribers[t] = append(s.subscribers[t], handler)
	}
	return nil
}
