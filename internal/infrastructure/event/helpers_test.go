package event

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/trainhub/backend/internal/domain/shared"
)

type sampleEvent struct {
	shared.BaseDomainEvent
	Note string `json:"note"`
}

func newSampleEvent(eventType string) *sampleEvent {
	return &sampleEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, "Sample", uuid.New(), uuid.New()),
		Note:            "hello",
	}
}

type recordingHandler struct {
	mu      sync.Mutex
	types   []string
	handled []shared.DomainEvent
	err     error
	panics  bool
}

func newRecordingHandler(types ...string) *recordingHandler {
	return &recordingHandler{types: types}
}

func (h *recordingHandler) Handle(_ context.Context, ev shared.DomainEvent) error {
	if h.panics {
		panic("boom")
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handled = append(h.handled, ev)
	return h.err
}

func (h *recordingHandler) EventTypes() []string {
	return h.types
}

func (h *recordingHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.handled)
}
