package event

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/restoreops/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type testEvent struct {
	shared.BaseDomainEvent
	Memo string `json:"memo"`
}

func newTestEvent(eventType string) *testEvent {
	return &testEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, "Invoice", uuid.New()),
		Memo:            "approved",
	}
}

type recordingHandler struct {
	mu      sync.Mutex
	types   []string
	handled []shared.DomainEvent
	err     error
	panics  bool
}

func (h *recordingHandler) Handle(_ context.Context, evt shared.DomainEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handled = append(h.handled, evt)
	if h.panics {
		panic("boom")
	}
	return h.err
}

func (h *recordingHandler) EventTypes() []string { return h.types }

func (h *recordingHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.handled)
}

func TestInMemoryEventBus_RoutesByType(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	approved := &recordingHandler{}
	other := &recordingHandler{}
	all := &recordingHandler{}
	bus.Subscribe(approved, "InvoiceApproved")
	bus.Subscribe(other, "PaymentCreated")
	bus.Subscribe(all)

	evt := newTestEvent("InvoiceApproved")
	require.NoError(t, bus.Publish(context.Background(), evt, newTestEvent("InvoiceApproved")))

	assert.Equal(t, 2, approved.count())
	assert.Equal(t, 0, other.count())
	assert.Equal(t, 2, all.count())
	assert.Same(t, evt, approved.handled[0])
}

func TestInMemoryEventBus_SubscribeUsesHandlerTypes(t *testing.T) {
	bus := NewInMemoryEventBus(nil)
	h := &recordingHandler{types: []string{"PaymentForwarded"}}
	bus.Subscribe(h)

	require.NoError(t, bus.Publish(context.Background(), newTestEvent("InvoiceApproved"), newTestEvent("PaymentForwarded")))
	assert.Equal(t, 1, h.count())
}

func TestInMemoryEventBus_FailuresDoNotStopDelivery(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	bus := NewInMemoryEventBus(zap.New(core))

	failing := &recordingHandler{err: errors.New("smtp down")}
	panicking := &recordingHandler{panics: true}
	healthy := &recordingHandler{}
	bus.Subscribe(failing, "InvoiceApproved")
	bus.Subscribe(panicking, "InvoiceApproved")
	bus.Subscribe(healthy, "InvoiceApproved")

	require.NoError(t, bus.Publish(context.Background(), newTestEvent("InvoiceApproved")))

	assert.Equal(t, 1, healthy.count())
	assert.Equal(t, 2, logs.FilterMessage("handler failed to process event").Len())
}

func TestInMemoryEventBus_Unsubscribe(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	h := &recordingHandler{}
	bus.Subscribe(h, "InvoiceApproved", "InvoiceDeleted")

	_ = bus.Publish(context.Background(), newTestEvent("InvoiceApproved"))
	bus.Unsubscribe(h)
	_ = bus.Publish(context.Background(), newTestEvent("InvoiceApproved"), newTestEvent("InvoiceDeleted"))

	assert.Equal(t, 1, h.count())
	assert.Empty(t, bus.registry.HandlersFor("InvoiceDeleted"))
}

func TestAuditLogHandler(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	bus := NewInMemoryEventBus(zap.NewNop())
	bus.Subscribe(NewAuditLogHandler(zap.New(core)))

	evt := newTestEvent("CreditNoteApproved")
	require.NoError(t, bus.Publish(context.Background(), evt))

	entries := logs.FilterMessage("domain event").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "CreditNoteApproved", fields["event_type"])
	assert.Equal(t, evt.AggregateID().String(), fields["aggregate_id"])
	assert.Contains(t, fields["payload"], `"memo":"approved"`)
}
