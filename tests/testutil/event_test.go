package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/restoreops/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEvent struct {
	shared.BaseDomainEvent
}

func newTestEvent(eventType string) *testEvent {
	return &testEvent{BaseDomainEvent: shared.NewBaseDomainEvent(eventType, "TestAggregate", uuid.New())}
}

func TestNewMockEventHandler(t *testing.T) {
	handler := NewMockEventHandler("Event1", "Event2")

	assert.Equal(t, []string{"Event1", "Event2"}, handler.EventTypes())
	assert.Equal(t, 0, handler.HandledCount())
}

func TestMockEventHandler_Handle(t *testing.T) {
	handler := NewMockEventHandler("TestEvent")
	event := newTestEvent("TestEvent")

	err := handler.Handle(context.Background(), event)

	require.NoError(t, err)
	assert.Equal(t, 1, handler.HandledCount())
	assert.Equal(t, event, handler.Handled()[0])
}

func TestMockEventHandler_SetError(t *testing.T) {
	handler := NewMockEventHandler("TestEvent")
	handler.SetError(assert.AnError)

	err := handler.Handle(context.Background(), newTestEvent("TestEvent"))
	assert.Equal(t, assert.AnError, err)
}

func TestRecordingPublisher(t *testing.T) {
	publisher := NewRecordingPublisher()

	require.NoError(t, publisher.Publish(context.Background(), newTestEvent("A"), newTestEvent("B")))
	require.NoError(t, publisher.Publish(context.Background(), newTestEvent("C")))

	assert.Equal(t, []string{"A", "B", "C"}, publisher.Types())
	assert.Len(t, publisher.Events(), 3)
}

func TestWaitForEventCount(t *testing.T) {
	handler := NewMockEventHandler()
	go func() {
		_ = handler.Handle(context.Background(), newTestEvent("Async"))
	}()

	assert.True(t, WaitForEventCount(t, handler, 1, time.Second))
}
