package finance

import (
	"context"

	"github.com/google/uuid"
	"github.com/restoreops/backend/internal/domain/finance"
	"github.com/restoreops/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// LifecycleHooks are called after a lifecycle step has committed. They must
// not fail the operation; implementations log their own errors.
type LifecycleHooks interface {
	OnCreated(ctx context.Context, entity *finance.FinancialEntity, userID uuid.UUID)
	OnUpdated(ctx context.Context, entity *finance.FinancialEntity, userID uuid.UUID)
	OnApproveRequestCreated(ctx context.Context, entity *finance.FinancialEntity, userID uuid.UUID, approverIDs []uuid.UUID)
	OnApproved(ctx context.Context, entity *finance.FinancialEntity, userID uuid.UUID)
	OnDeleted(ctx context.Context, entity *finance.FinancialEntity, userID uuid.UUID)
}

// EventHooks publishes a finance.EntityEvent for every lifecycle step
type EventHooks struct {
	publisher shared.EventPublisher
	logger    *zap.Logger
}

// NewEventHooks creates hooks that publish through publisher. A nil
// publisher makes every hook a no-op.
func NewEventHooks(publisher shared.EventPublisher, logger *zap.Logger) *EventHooks {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventHooks{publisher: publisher, logger: logger}
}

// OnCreated publishes <Kind>Created
func (h *EventHooks) OnCreated(ctx context.Context, entity *finance.FinancialEntity, userID uuid.UUID) {
	h.emit(ctx, finance.NewEntityEvent(entity, finance.ActionCreated, userID))
}

// OnUpdated publishes <Kind>Updated
func (h *EventHooks) OnUpdated(ctx context.Context, entity *finance.FinancialEntity, userID uuid.UUID) {
	h.emit(ctx, finance.NewEntityEvent(entity, finance.ActionUpdated, userID))
}

// OnApproveRequestCreated publishes <Kind>ApproveRequestCreated with the invited approvers
func (h *EventHooks) OnApproveRequestCreated(ctx context.Context, entity *finance.FinancialEntity, userID uuid.UUID, approverIDs []uuid.UUID) {
	evt := finance.NewEntityEvent(entity, finance.ActionApproveRequestCreated, userID)
	evt.ApproverIDs = approverIDs
	h.emit(ctx, evt)
}

// OnApproved publishes <Kind>Approved
func (h *EventHooks) OnApproved(ctx context.Context, entity *finance.FinancialEntity, userID uuid.UUID) {
	h.emit(ctx, finance.NewEntityEvent(entity, finance.ActionApproved, userID))
}

// OnDeleted publishes <Kind>Deleted
func (h *EventHooks) OnDeleted(ctx context.Context, entity *finance.FinancialEntity, userID uuid.UUID) {
	h.emit(ctx, finance.NewEntityEvent(entity, finance.ActionDeleted, userID))
}

func (h *EventHooks) emit(ctx context.Context, evt *finance.EntityEvent) {
	if h.publisher == nil {
		return
	}
	if err := h.publisher.Publish(ctx, evt); err != nil {
		h.logger.Warn("failed to publish entity event",
			zap.String("event_type", evt.EventType()),
			zap.String("entity_id", evt.AggregateID().String()),
			zap.Error(err),
		)
	}
}

var _ LifecycleHooks = (*EventHooks)(nil)
