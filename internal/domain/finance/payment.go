package finance

import (
	"time"

	"github.com/google/uuid"
	"github.com/restoreops/backend/internal/domain/shared"
	"github.com/restoreops/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// PaymentType represents how money moved
type PaymentType string

const (
	PaymentTypeDirectDeposit PaymentType = "DIRECT_DEPOSIT"
	PaymentTypeCreditNote    PaymentType = "CREDIT_NOTE"
	PaymentTypeCreditCard    PaymentType = "CREDIT_CARD"
	PaymentTypeForwarded     PaymentType = "FORWARDED"
)

// IsValid checks if the type is a valid PaymentType
func (t PaymentType) IsValid() bool {
	switch t {
	case PaymentTypeDirectDeposit, PaymentTypeCreditNote, PaymentTypeCreditCard, PaymentTypeForwarded:
		return true
	}
	return false
}

// String returns the string representation of PaymentType
func (t PaymentType) String() string {
	return string(t)
}

var (
	// ErrAllocationMismatch is returned when invoice amounts don't add up to the payment
	ErrAllocationMismatch = shared.NewNotAllowedError("ALLOCATION_MISMATCH", "sum of items should equal payment amount")
	// ErrPaymentsDisabled is returned when money is paid into an account that doesn't accept payments
	ErrPaymentsDisabled = shared.NewNotAllowedError("PAYMENTS_DISABLED", "Account does not accept payments")
	// ErrInvalidPaymentAmount is returned for non-positive payment amounts
	ErrInvalidPaymentAmount = shared.NewValidationError("INVALID_PAYMENT_AMOUNT", "Payment amount must be positive")
)

// Payment owns exactly one ledger transaction. Amount is gross, so
// Amount - Tax is the net sum allocated to invoices.
type Payment struct {
	shared.BaseAggregateRoot
	Type                     PaymentType      `json:"type"`
	AccountingOrganizationID uuid.UUID        `json:"accounting_organization_id"`
	Amount                   decimal.Decimal  `json:"amount"`
	Tax                      decimal.Decimal  `json:"tax"`
	PaidAt                   *time.Time       `json:"paid_at,omitempty"`
	TransactionID            uuid.UUID        `json:"transaction_id"`
	Reference                string           `json:"reference"`
	UserID                   uuid.UUID        `json:"user_id"`
	CreditNoteID             *uuid.UUID       `json:"credit_note_id,omitempty"` // Set for credit-note payments
	Invoices                 []InvoicePayment `json:"invoices,omitempty"`
}

// NewPayment creates a payment for a committed ledger transaction
func NewPayment(
	paymentType PaymentType,
	organizationID, transactionID, userID uuid.UUID,
	amount, tax decimal.Decimal,
	paidAt *time.Time,
	reference string,
) (*Payment, error) {
	if !paymentType.IsValid() {
		return nil, shared.NewValidationError("INVALID_PAYMENT_TYPE", "Invalid payment type")
	}
	if !valueobject.IsPositive(amount) {
		return nil, ErrInvalidPaymentAmount
	}
	if tax.IsNegative() {
		return nil, shared.NewValidationError("INVALID_TAX", "Payment tax cannot be negative")
	}
	if transactionID == uuid.Nil {
		return nil, shared.NewValidationError("INVALID_TRANSACTION", "Payment must reference a ledger transaction")
	}
	return &Payment{
		BaseAggregateRoot:        shared.NewBaseAggregateRoot(),
		Type:                     paymentType,
		AccountingOrganizationID: organizationID,
		Amount:                   amount,
		Tax:                      tax,
		PaidAt:                   paidAt,
		TransactionID:            transactionID,
		Reference:                reference,
		UserID:                   userID,
	}, nil
}

// NetAmount returns amount minus tax
func (p *Payment) NetAmount() decimal.Decimal {
	return p.Amount.Sub(p.Tax)
}

// IsSettled returns true once the payment has a paid-at timestamp
func (p *Payment) IsSettled() bool {
	return p.PaidAt != nil
}

// Attach allocates part of the payment to an invoice
func (p *Payment) Attach(invoiceID uuid.UUID, amount decimal.Decimal, forwardable bool) error {
	if !valueobject.IsPositive(amount) {
		return shared.NewValidationError("INVALID_ALLOCATION", "Invoice allocation must be positive")
	}
	p.Invoices = append(p.Invoices, InvoicePayment{
		ID:            shared.NewID(),
		PaymentID:     p.ID,
		InvoiceID:     invoiceID,
		Amount:        amount,
		IsForwardable: forwardable,
	})
	return nil
}

// EnsureAllocationMatches checks that the invoice allocations add up to the net amount
func (p *Payment) EnsureAllocationMatches() error {
	allocated := decimal.Zero
	for _, ip := range p.Invoices {
		allocated = allocated.Add(ip.Amount)
	}
	if !valueobject.Equal(p.NetAmount(), allocated) {
		return ErrAllocationMismatch
	}
	return nil
}

// MarkSettled records the settlement time
func (p *Payment) MarkSettled(at time.Time) {
	t := at.UTC()
	p.PaidAt = &t
	p.Touch()
}

// InvoicePayment attaches part of a payment to one invoice
type InvoicePayment struct {
	ID            uuid.UUID       `json:"id"`
	PaymentID     uuid.UUID       `json:"payment_id"`
	InvoiceID     uuid.UUID       `json:"invoice_id"`
	Amount        decimal.Decimal `json:"amount"`
	IsForwardable bool            `json:"is_forwardable"`
}

// CreditCardCharge is the authorize/capture sub-record of a card payment
type CreditCardCharge struct {
	ID                    uuid.UUID  `json:"id"`
	PaymentID             uuid.UUID  `json:"payment_id"`
	Token                 string     `json:"token"`
	ReceiptEmail          string     `json:"receipt_email"`
	AuthorizedAt          time.Time  `json:"authorized_at"`
	CapturedAt            *time.Time `json:"captured_at,omitempty"`
	ExternalTransactionID string     `json:"external_transaction_id,omitempty"`
}

// ErrAlreadyCaptured is returned when capturing a charge twice
var ErrAlreadyCaptured = shared.NewNotAllowedError("ALREADY_CAPTURED", "Charge has already been captured")

// NewCreditCardCharge creates an authorized, uncaptured charge
func NewCreditCardCharge(paymentID uuid.UUID, token, receiptEmail string, authorizedAt time.Time) *CreditCardCharge {
	return &CreditCardCharge{
		ID:           shared.NewID(),
		PaymentID:    paymentID,
		Token:        token,
		ReceiptEmail: receiptEmail,
		AuthorizedAt: authorizedAt.UTC(),
	}
}

// IsCaptured returns true once the capture callback has been recorded
func (c *CreditCardCharge) IsCaptured() bool {
	return c.CapturedAt != nil
}

// Capture records the settlement of the charge
func (c *CreditCardCharge) Capture(externalTransactionID string, capturedAt time.Time) error {
	if c.IsCaptured() {
		return ErrAlreadyCaptured
	}
	t := capturedAt.UTC()
	c.CapturedAt = &t
	c.ExternalTransactionID = externalTransactionID
	return nil
}
