package event

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestInMemoryEventBus_DeliversByType(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	sessions := newRecordingHandler("TrainingSessionCreated")
	relay := newRecordingHandler()
	bus.Subscribe(sessions)
	bus.Subscribe(relay)

	ctx := context.Background()
	require.NoError(t, bus.Publish(ctx, newSampleEvent("TrainingSessionCreated"), newSampleEvent("InvoiceCreated")))

	assert.Equal(t, 1, sessions.count())
	assert.Equal(t, 2, relay.count())
}

func TestInMemoryEventBus_ExplicitTypesOverrideHandler(t *testing.T) {
	bus := NewInMemoryEventBus(nil)
	h := newRecordingHandler("TrainingSessionCreated")
	bus.Subscribe(h, "PayablePaid")

	require.NoError(t, bus.Publish(context.Background(), newSampleEvent("TrainingSessionCreated"), newSampleEvent("PayablePaid")))
	assert.Equal(t, 1, h.count())
}

func TestInMemoryEventBus_FailuresAreIsolated(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	bus := NewInMemoryEventBus(zap.New(core))

	failing := newRecordingHandler("InvoiceCreated")
	failing.err = errors.New("db down")
	panicking := newRecordingHandler("InvoiceCreated")
	panicking.panics = true
	healthy := newRecordingHandler("InvoiceCreated")
	bus.Subscribe(failing)
	bus.Subscribe(panicking)
	bus.Subscribe(healthy)

	err := bus.Publish(context.Background(), newSampleEvent("InvoiceCreated"))
	require.NoError(t, err)
	assert.Equal(t, 1, healthy.count())
	assert.Equal(t, 2, logs.FilterMessage("event handler failed").Len())
}

func TestInMemoryEventBus_Unsubscribe(t *testing.T) {
	bus := NewInMemoryEventBus(nil)
	h := newRecordingHandler()
	bus.Subscribe(h)
	bus.Unsubscribe(h)

	require.NoError(t, bus.Publish(context.Background(), newSampleEvent("InvoiceCreated")))
	assert.Zero(t, h.count())
}

func TestInMemoryEventBus_StartStop(t *testing.T) {
	bus := NewInMemoryEventBus(nil)
	ctx := context.Background()

	require.NoError(t, bus.Start(ctx))
	assert.True(t, bus.Running())
	require.NoError(t, bus.Stop(ctx))
	assert.False(t, bus.Running())
}
