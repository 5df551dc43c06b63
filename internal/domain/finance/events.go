package finance

import (
	"github.com/google/uuid"
	"github.com/restoreops/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// EntityAction is the lifecycle step an EntityEvent reports
type EntityAction string

const (
	ActionCreated               EntityAction = "Created"
	ActionUpdated               EntityAction = "Updated"
	ActionApproveRequestCreated EntityAction = "ApproveRequestCreated"
	ActionApproved              EntityAction = "Approved"
	ActionDeleted               EntityAction = "Deleted"
)

// EntityEventType returns the event type for a kind and action,
// e.g. "InvoiceApproved"
func EntityEventType(kind EntityKind, action EntityAction) string {
	return kind.AggregateType() + string(action)
}

// EntityEvent is emitted after a lifecycle step of a financial entity commits
type EntityEvent struct {
	shared.BaseDomainEvent
	Kind        EntityKind      `json:"kind"`
	Action      EntityAction    `json:"action"`
	LocationID  uuid.UUID       `json:"location_id"`
	UserID      uuid.UUID       `json:"user_id"`
	Total       decimal.Decimal `json:"total"`
	ApproverIDs []uuid.UUID     `json:"approver_ids,omitempty"`
}

// NewEntityEvent creates an event describing entity after action
func NewEntityEvent(entity *FinancialEntity, action EntityAction, userID uuid.UUID) *EntityEvent {
	return &EntityEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(
			EntityEventType(entity.Kind, action),
			entity.Kind.AggregateType(),
			entity.ID,
		),
		Kind:       entity.Kind,
		Action:     action,
		LocationID: entity.LocationID,
		UserID:     userID,
		Total:      entity.Total(),
	}
}

const (
	EventTypePaymentCreated      = "PaymentCreated"
	EventTypeCreditCardProcessed = "CreditCardProcessed"
	EventTypePaymentForwarded    = "PaymentForwarded"
	EventTypeCreditCardCaptured  = "CreditCardCaptured"
)

// PaymentCreatedEvent is emitted after a payment and its allocations commit
type PaymentCreatedEvent struct {
	shared.BaseDomainEvent
	PaymentType PaymentType     `json:"payment_type"`
	Amount      decimal.Decimal `json:"amount"`
	Tax         decimal.Decimal `json:"tax"`
	InvoiceIDs  []uuid.UUID     `json:"invoice_ids,omitempty"`
	UserID      uuid.UUID       `json:"user_id"`
}

// NewPaymentCreatedEvent creates a payment-created event
func NewPaymentCreatedEvent(p *Payment) *PaymentCreatedEvent {
	return &PaymentCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePaymentCreated, "Payment", p.ID),
		PaymentType:     p.Type,
		Amount:          p.Amount,
		Tax:             p.Tax,
		InvoiceIDs:      invoiceIDs(p.Invoices),
		UserID:          p.UserID,
	}
}

// CreditCardProcessedEvent carries what receipt dispatch needs
type CreditCardProcessedEvent struct {
	shared.BaseDomainEvent
	ReceiptEmail string          `json:"receipt_email"`
	Amount       decimal.Decimal `json:"amount"`
	InvoiceIDs   []uuid.UUID     `json:"invoice_ids"`
}

// NewCreditCardProcessedEvent creates a credit-card-processed event
func NewCreditCardProcessedEvent(p *Payment, receiptEmail string) *CreditCardProcessedEvent {
	return &CreditCardProcessedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCreditCardProcessed, "Payment", p.ID),
		ReceiptEmail:    receiptEmail,
		Amount:          p.Amount,
		InvoiceIDs:      invoiceIDs(p.Invoices),
	}
}

// CreditCardCapturedEvent is emitted when a capture callback is recorded
type CreditCardCapturedEvent struct {
	shared.BaseDomainEvent
	ExternalTransactionID string `json:"external_transaction_id"`
}

// NewCreditCardCapturedEvent creates a credit-card-captured event
func NewCreditCardCapturedEvent(charge *CreditCardCharge) *CreditCardCapturedEvent {
	return &CreditCardCapturedEvent{
		BaseDomainEvent:       shared.NewBaseDomainEvent(EventTypeCreditCardCaptured, "Payment", charge.PaymentID),
		ExternalTransactionID: charge.ExternalTransactionID,
	}
}

// PaymentForwardedEvent is emitted after funds are forwarded
type PaymentForwardedEvent struct {
	shared.BaseDomainEvent
	ForwardedPaymentID uuid.UUID       `json:"forwarded_payment_id"`
	Funds              decimal.Decimal `json:"funds"`
	InvoiceIDs         []uuid.UUID     `json:"invoice_ids"`
}

// NewPaymentForwardedEvent creates a payment-forwarded event
func NewPaymentForwardedEvent(fp *ForwardedPayment) *PaymentForwardedEvent {
	ids := make([]uuid.UUID, 0, len(fp.Invoices))
	for _, inv := range fp.Invoices {
		ids = append(ids, inv.InvoiceID)
	}
	return &PaymentForwardedEvent{
		BaseDomainEvent:    shared.NewBaseDomainEvent(EventTypePaymentForwarded, "Payment", fp.PaymentID),
		ForwardedPaymentID: fp.ID,
		Funds:              fp.Total(),
		InvoiceIDs:         ids,
	}
}

func invoiceIDs(payments []InvoicePayment) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(payments))
	ids := make([]uuid.UUID, 0, len(payments))
	for _, ip := range payments {
		if _, ok := seen[ip.InvoiceID]; ok {
			continue
		}
		seen[ip.InvoiceID] = struct{}{}
		ids = append(ids, ip.InvoiceID)
	}
	return ids
}
