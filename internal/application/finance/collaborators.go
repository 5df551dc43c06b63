package finance

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/restoreops/backend/internal/domain/finance"
	"github.com/shopspring/decimal"
)

// DocumentView is the data handed to the document renderer
type DocumentView struct {
	Kind       finance.EntityKind
	Title      string
	EntityID   uuid.UUID
	Reference  string
	Date       time.Time
	DueAt      *time.Time
	Recipient  finance.Recipient
	Notes      string
	Lines      []DocumentLine
	Subtotal   decimal.Decimal
	Tax        decimal.Decimal
	Total      decimal.Decimal
	Status     finance.EntityStatus
	RenderedAt time.Time
}

// DocumentLine is one rendered line item
type DocumentLine struct {
	GSCode      string
	Description string
	Quantity    int
	UnitAmount  decimal.Decimal
	Total       decimal.Decimal
	Tax         decimal.Decimal
}

// NewDocumentView builds the render data for an entity
func NewDocumentView(entity *finance.FinancialEntity, now time.Time) DocumentView {
	view := DocumentView{
		Kind:       entity.Kind,
		Title:      entity.Kind.DisplayName(),
		EntityID:   entity.ID,
		Reference:  entity.Reference,
		Date:       entity.Date,
		DueAt:      entity.DueAt,
		Recipient:  entity.Recipient,
		Notes:      entity.Notes,
		Subtotal:   entity.Subtotal(),
		Tax:        entity.Tax(),
		Total:      entity.Total(),
		Status:     entity.Status(),
		RenderedAt: now.UTC(),
	}
	for _, item := range entity.Items {
		view.Lines = append(view.Lines, DocumentLine{
			GSCode:      item.GSCode,
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitAmount:  item.UnitAmount(),
			Total:       item.Total(),
			Tax:         item.Tax(),
		})
	}
	return view
}

// DocumentRenderer renders an entity view to a file and returns its path
type DocumentRenderer interface {
	Render(ctx context.Context, view DocumentView, templateName string) (string, error)
}

// DocumentStore keeps rendered documents
type DocumentStore interface {
	// CreateFromFile stores the file at path and returns the new document id
	CreateFromFile(ctx context.Context, path string) (uuid.UUID, error)
	// Delete removes a document. Force skips retention checks.
	Delete(ctx context.Context, documentID uuid.UUID, force bool) error
}

// CardPaymentRequest is what the card processor needs to authorize a charge
type CardPaymentRequest struct {
	PaymentReference string          `json:"payment_reference"`
	Amount           decimal.Decimal `json:"amount"`
	CardToken        string          `json:"card_token"`
	ReceiptEmail     string          `json:"receipt_email"`
	InvoiceIDs       []uuid.UUID     `json:"invoice_ids"`
}

// CardAuthorization is the processor's answer to an authorization
type CardAuthorization struct {
	Token     string    `json:"token"`
	CreatedAt time.Time `json:"created_at"`
}

// CardCapture is the processor's answer to a capture
type CardCapture struct {
	Token      string    `json:"token"`
	CapturedAt time.Time `json:"captured_at"`
}

// PaymentProcessor is the external credit card capability
type PaymentProcessor interface {
	Process(ctx context.Context, req CardPaymentRequest) (*CardAuthorization, error)
	Capture(ctx context.Context, req CardPaymentRequest, token string) (*CardCapture, error)
}

// ApproverDirectory resolves a user's approval rights
type ApproverDirectory interface {
	// FindApprover returns nil when the user has no approval profile
	FindApprover(ctx context.Context, userID uuid.UUID) (*finance.Approver, error)
}

// IdempotencyStore remembers processed keys
type IdempotencyStore interface {
	// MarkProcessed records key and reports whether it was new
	MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error)
	// Forget removes key so a failed attempt can be retried
	Forget(ctx context.Context, key string) error
}
