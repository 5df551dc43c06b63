package event

import (
	"context"
	"encoding/json"

	"github.com/restoreops/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// AuditLogHandler writes every published event to the log as a JSON payload.
// It is the default subscriber wired by ledgerctl.
type AuditLogHandler struct {
	logger *zap.Logger
}

// NewAuditLogHandler creates the handler
func NewAuditLogHandler(logger *zap.Logger) *AuditLogHandler {
	return &AuditLogHandler{logger: logger.Named("audit")}
}

// Handle implements shared.EventHandler
func (h *AuditLogHandler) Handle(_ context.Context, evt shared.DomainEvent) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	h.logger.Info("domain event",
		zap.String("event_type", evt.EventType()),
		zap.String("aggregate_type", evt.AggregateType()),
		zap.String("aggregate_id", evt.AggregateID().String()),
		zap.Time("occurred_at", evt.OccurredAt()),
		zap.ByteString("payload", payload),
	)
	return nil
}

// EventTypes returns nil so the handler receives all events
func (h *AuditLogHandler) EventTypes() []string {
	return nil
}
