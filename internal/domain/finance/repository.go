package finance

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// EntityFilter defines filtering options for financial entity queries
type EntityFilter struct {
	Kind       *EntityKind   // Filter by kind
	LocationID *uuid.UUID    // Filter by location
	Status     *EntityStatus // Filter by current status
	FromDate   *time.Time    // Filter by entity date range start
	ToDate     *time.Time    // Filter by entity date range end
}

// FinancialEntityRepository defines the interface for financial entity persistence.
// Entities are returned with their items and status history loaded.
type FinancialEntityRepository interface {
	// FindByID finds an entity by ID, returns nil if not found
	FindByID(ctx context.Context, id uuid.UUID) (*FinancialEntity, error)

	// FindByIDForUpdate finds an entity and takes an exclusive row lock
	// until the enclosing transaction ends
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*FinancialEntity, error)

	// FindByIDs finds entities by IDs; missing IDs are absent from the result
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]FinancialEntity, error)

	// FindAll lists entities matching the filter, newest first
	FindAll(ctx context.Context, filter EntityFilter) ([]FinancialEntity, error)

	// Create persists a new entity with its items and status history
	Create(ctx context.Context, entity *FinancialEntity) error

	// Update saves the entity's fields, replaces its items and appends
	// any new status entries
	Update(ctx context.Context, entity *FinancialEntity) error

	// Delete removes the entity with its items and status history
	Delete(ctx context.Context, id uuid.UUID) error
}

// ApproveRequestRepository defines the interface for approve request persistence
type ApproveRequestRepository interface {
	// FindByEntity lists all approve requests of an entity, oldest first
	FindByEntity(ctx context.Context, entityID uuid.UUID) ([]ApproveRequest, error)

	// CreateBatch inserts the given requests
	CreateBatch(ctx context.Context, requests []ApproveRequest) error

	// Save creates or updates a single request
	Save(ctx context.Context, request *ApproveRequest) error

	// DeleteByEntityExcept deletes an entity's requests other than keepID
	DeleteByEntityExcept(ctx context.Context, entityID, keepID uuid.UUID) error

	// CountByEntity counts an entity's requests
	CountByEntity(ctx context.Context, entityID uuid.UUID) (int64, error)
}

// AccountingOrganizationRepository defines the interface for organization persistence
type AccountingOrganizationRepository interface {
	// FindByID finds an organization by ID, returns nil if not found
	FindByID(ctx context.Context, id uuid.UUID) (*AccountingOrganization, error)

	// FindActiveByLocation finds the active organization of a location,
	// returns nil if none is active
	FindActiveByLocation(ctx context.Context, locationID uuid.UUID) (*AccountingOrganization, error)

	// Save creates or updates an organization
	Save(ctx context.Context, org *AccountingOrganization) error
}

// PaymentRepository defines the interface for payment persistence
type PaymentRepository interface {
	// FindByID finds a payment with its invoice attachments, returns nil if not found
	FindByID(ctx context.Context, id uuid.UUID) (*Payment, error)

	// Create persists a payment with its invoice attachments
	Create(ctx context.Context, payment *Payment) error

	// Update saves a payment's mutable fields (paid-at, reference)
	Update(ctx context.Context, payment *Payment) error

	// FindInvoicePayments lists the attachments of an invoice ordered by payment id
	FindInvoicePayments(ctx context.Context, invoiceID uuid.UUID) ([]InvoicePayment, error)

	// FindForwardable lists forwardable attachments of invoices at a location,
	// optionally limited to invoiceIDs, ordered by payment id
	FindForwardable(ctx context.Context, locationID uuid.UUID, invoiceIDs []uuid.UUID) ([]InvoicePayment, error)

	// FindByCreditNote lists payments drawn on a credit note
	FindByCreditNote(ctx context.Context, creditNoteID uuid.UUID) ([]Payment, error)
}

// CreditCardChargeRepository defines the interface for card charge persistence
type CreditCardChargeRepository interface {
	// FindByPaymentID finds the charge of a payment, returns nil if not found
	FindByPaymentID(ctx context.Context, paymentID uuid.UUID) (*CreditCardCharge, error)

	// FindUncaptured lists charges authorized before the cutoff and never captured
	FindUncaptured(ctx context.Context, authorizedBefore time.Time) ([]CreditCardCharge, error)

	// Save creates or updates a charge
	Save(ctx context.Context, charge *CreditCardCharge) error
}

// ForwardedPaymentRepository defines the interface for forwarded payment persistence
type ForwardedPaymentRepository interface {
	// Create persists a forwarded payment with its invoice attachments
	Create(ctx context.Context, fp *ForwardedPayment) error

	// AggregateByInvoices returns, per invoice, the latest forwarded payment id
	// and the sum already forwarded. Invoices never forwarded are absent.
	AggregateByInvoices(ctx context.Context, invoiceIDs []uuid.UUID) ([]ForwardedAggregate, error)
}
