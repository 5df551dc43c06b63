package finance

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/restoreops/backend/internal/domain/shared"
	"github.com/restoreops/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// EntityKind identifies the concrete type of a financial entity
type EntityKind string

const (
	KindInvoice       EntityKind = "INVOICE"
	KindCreditNote    EntityKind = "CREDIT_NOTE"
	KindPurchaseOrder EntityKind = "PURCHASE_ORDER"
)

// IsValid checks if the kind is a valid EntityKind
func (k EntityKind) IsValid() bool {
	switch k {
	case KindInvoice, KindCreditNote, KindPurchaseOrder:
		return true
	}
	return false
}

// String returns the string representation of EntityKind
func (k EntityKind) String() string {
	return string(k)
}

// DisplayName returns a human-readable name, e.g. "Credit Note"
func (k EntityKind) DisplayName() string {
	switch k {
	case KindInvoice:
		return "Invoice"
	case KindCreditNote:
		return "Credit Note"
	case KindPurchaseOrder:
		return "Purchase Order"
	}
	return string(k)
}

// AggregateType returns the name used as event prefix and aggregate type
func (k EntityKind) AggregateType() string {
	return strings.ReplaceAll(k.DisplayName(), " ", "")
}

// EntityStatus represents the lifecycle status of a financial entity
type EntityStatus string

const (
	StatusDraft           EntityStatus = "DRAFT"            // Editable
	StatusPendingApproval EntityStatus = "PENDING_APPROVAL" // Locked, awaiting an approver
	StatusApproved        EntityStatus = "APPROVED"         // Terminal
)

// IsValid checks if the status is a valid EntityStatus
func (s EntityStatus) IsValid() bool {
	switch s {
	case StatusDraft, StatusPendingApproval, StatusApproved:
		return true
	}
	return false
}

// String returns the string representation of EntityStatus
func (s EntityStatus) String() string {
	return string(s)
}

// CanTransitionTo reports whether moving to target is a legal transition
func (s EntityStatus) CanTransitionTo(target EntityStatus) bool {
	switch s {
	case StatusDraft:
		return target == StatusPendingApproval || target == StatusApproved
	case StatusPendingApproval:
		return target == StatusApproved
	}
	return false
}

var (
	// ErrAlreadyApproved is returned for any mutation of an approved entity
	ErrAlreadyApproved = shared.NewNotAllowedError("ALREADY_APPROVED", "Entity is already approved")
	// ErrEntityLocked is returned when a locked entity is modified without force
	ErrEntityLocked = shared.NewNotAllowedError("ENTITY_LOCKED", "Entity is locked pending approval")
	// ErrZeroTotal is returned when approving an entity whose total is zero
	ErrZeroTotal = shared.NewNotAllowedError("ZERO_TOTAL", "Cannot approve an entity with a zero total")
	// ErrHasApproveRequests is returned when deleting an entity that has approve requests
	ErrHasApproveRequests = shared.NewNotAllowedError("HAS_APPROVE_REQUESTS", "Entity has outstanding approve requests")
)

// Recipient is the contact and address snapshot copied onto the entity at
// creation. It is not linked to the live contact record.
type Recipient struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	AddressLine1 string `json:"address_line1"`
	AddressLine2 string `json:"address_line2"`
	Suburb       string `json:"suburb"`
	State        string `json:"state"`
	Postcode     string `json:"postcode"`
	Country      string `json:"country"`
}

// StatusEntry is one row of the append-only status history
type StatusEntry struct {
	ID        uuid.UUID    `json:"id"`
	EntityID  uuid.UUID    `json:"entity_id"`
	Status    EntityStatus `json:"status"`
	UserID    uuid.UUID    `json:"user_id"`
	CreatedAt time.Time    `json:"created_at"`
}

// AccountAmount is an amount attributed to a GL account
type AccountAmount struct {
	GLAccountID uuid.UUID
	Amount      decimal.Decimal
}

// FinancialEntity is the aggregate root shared by invoices, credit notes and
// purchase orders. Totals are always derived from the line items.
type FinancialEntity struct {
	shared.BaseAggregateRoot
	Kind                     EntityKind    `json:"kind"`
	LocationID               uuid.UUID     `json:"location_id"`
	AccountingOrganizationID uuid.UUID     `json:"accounting_organization_id"`
	Recipient                Recipient     `json:"recipient"`
	Date                     time.Time     `json:"date"`
	DueAt                    *time.Time    `json:"due_at,omitempty"`
	Reference                string        `json:"reference"`
	Notes                    string        `json:"notes"`
	DocumentID               *uuid.UUID    `json:"document_id,omitempty"`
	Locked                   bool          `json:"locked"`
	CreatedBy                uuid.UUID     `json:"created_by"`
	Items                    []LineItem    `json:"items"`
	StatusHistory            []StatusEntry `json:"status_history"`
}

// NewFinancialEntity creates a draft entity with its initial status row
func NewFinancialEntity(
	kind EntityKind,
	locationID, organizationID, createdBy uuid.UUID,
	recipient Recipient,
	date time.Time,
	items []LineItem,
) (*FinancialEntity, error) {
	if !kind.IsValid() {
		return nil, shared.NewValidationError("INVALID_KIND", "Invalid financial entity kind")
	}
	if locationID == uuid.Nil {
		return nil, shared.NewValidationError("INVALID_LOCATION", "Location cannot be empty")
	}
	if organizationID == uuid.Nil {
		return nil, shared.NewValidationError("INVALID_ORGANIZATION", "Accounting organization cannot be empty")
	}
	if date.IsZero() {
		return nil, shared.NewValidationError("INVALID_DATE", "Date is required")
	}

	e := &FinancialEntity{
		BaseAggregateRoot:        shared.NewBaseAggregateRoot(),
		Kind:                     kind,
		LocationID:               locationID,
		AccountingOrganizationID: organizationID,
		Recipient:                recipient,
		Date:                     date,
		CreatedBy:                createdBy,
	}
	if err := e.ReplaceItems(items); err != nil {
		return nil, err
	}
	e.appendStatus(StatusDraft, createdBy, e.CreatedAt)
	return e, nil
}

// Status returns the latest status in the history
func (e *FinancialEntity) Status() EntityStatus {
	if len(e.StatusHistory) == 0 {
		return StatusDraft
	}
	return e.StatusHistory[len(e.StatusHistory)-1].Status
}

// IsApproved returns true if the entity has reached its terminal state
func (e *FinancialEntity) IsApproved() bool {
	return e.Status() == StatusApproved
}

// Subtotal returns the sum of line totals
func (e *FinancialEntity) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range e.Items {
		total = total.Add(item.Total())
	}
	return total
}

// Tax returns the sum of line taxes
func (e *FinancialEntity) Tax() decimal.Decimal {
	total := decimal.Zero
	for _, item := range e.Items {
		total = total.Add(item.Tax())
	}
	return total
}

// Total returns subtotal plus tax
func (e *FinancialEntity) Total() decimal.Decimal {
	return e.Subtotal().Add(e.Tax())
}

// CanBeApproved returns false for zero-total entities
func (e *FinancialEntity) CanBeApproved() bool {
	return !valueobject.IsZero(e.Total())
}

// SubtotalsByGLAccount groups line totals by GL account, in first-seen order
func (e *FinancialEntity) SubtotalsByGLAccount() []AccountAmount {
	index := make(map[uuid.UUID]int)
	var out []AccountAmount
	for _, item := range e.Items {
		i, ok := index[item.GLAccountID]
		if !ok {
			index[item.GLAccountID] = len(out)
			out = append(out, AccountAmount{GLAccountID: item.GLAccountID, Amount: item.Total()})
			continue
		}
		out[i].Amount = out[i].Amount.Add(item.Total())
	}
	return out
}

// EnsureEditable fails for approved entities, and for locked entities
// unless force is set.
func (e *FinancialEntity) EnsureEditable(force bool) error {
	if e.IsApproved() {
		return ErrAlreadyApproved
	}
	if e.Locked && !force {
		return ErrEntityLocked
	}
	return nil
}

// ReplaceItems validates and replaces all line items
func (e *FinancialEntity) ReplaceItems(items []LineItem) error {
	replaced := make([]LineItem, 0, len(items))
	for i, item := range items {
		if err := item.Validate(); err != nil {
			return err
		}
		if item.ID == uuid.Nil {
			item.ID = shared.NewID()
		}
		item.EntityID = e.ID
		item.Position = i + 1
		replaced = append(replaced, item)
	}
	e.Items = replaced
	return nil
}

// Lock marks the entity as pending approval
func (e *FinancialEntity) Lock(userID uuid.UUID, now time.Time) error {
	if e.IsApproved() {
		return ErrAlreadyApproved
	}
	e.Locked = true
	if e.Status() != StatusPendingApproval {
		e.appendStatus(StatusPendingApproval, userID, now)
	}
	return nil
}

// Approve moves the entity to its terminal state
func (e *FinancialEntity) Approve(userID uuid.UUID, now time.Time) error {
	if !e.Status().CanTransitionTo(StatusApproved) {
		return ErrAlreadyApproved
	}
	if !e.CanBeApproved() {
		return ErrZeroTotal
	}
	e.Locked = true
	e.appendStatus(StatusApproved, userID, now)
	return nil
}

// EnsureDeletable fails if the entity cannot be removed
func (e *FinancialEntity) EnsureDeletable(approveRequestCount int) error {
	if err := e.EnsureEditable(false); err != nil {
		return err
	}
	if approveRequestCount > 0 {
		return ErrHasApproveRequests
	}
	return nil
}

// SetDocument records a newly rendered document and returns the previous one
func (e *FinancialEntity) SetDocument(documentID uuid.UUID) *uuid.UUID {
	previous := e.DocumentID
	e.DocumentID = &documentID
	e.Touch()
	return previous
}

func (e *FinancialEntity) appendStatus(status EntityStatus, userID uuid.UUID, at time.Time) {
	e.StatusHistory = append(e.StatusHistory, StatusEntry{
		ID:        shared.NewID(),
		EntityID:  e.ID,
		Status:    status,
		UserID:    userID,
		CreatedAt: at.UTC(),
	})
}
