package finance

import (
	"time"

	"github.com/google/uuid"
	"github.com/restoreops/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

var (
	// ErrNotBankAccount is returned when forwarding from a non-bank account
	ErrNotBankAccount = shared.NewNotAllowedError("NOT_BANK_ACCOUNT", "Source account must be a bank account")
	// ErrNothingToForward is returned when there are no unforwarded funds
	ErrNothingToForward = shared.NewNotAllowedError("NOTHING_TO_FORWARD", "There are no unforwarded payments")
	// ErrInsufficientFunds is returned when the source balance cannot cover the funds
	ErrInsufficientFunds = shared.NewNotAllowedError("INSUFFICIENT_FUNDS", "Source account balance is insufficient")
	// ErrSameAccount is returned when the source and destination accounts are the same
	ErrSameAccount = shared.NewValidationError("SAME_ACCOUNT", "Destination account must differ from the source account")
)

// ForwardedPayment records a transfer of received invoice funds to a
// destination account.
type ForwardedPayment struct {
	ID                  uuid.UUID                 `json:"id"`
	PaymentID           uuid.UUID                 `json:"payment_id"`
	RemittanceReference string                    `json:"remittance_reference"`
	TransferredAt       time.Time                 `json:"transferred_at"`
	CreatedAt           time.Time                 `json:"created_at"`
	Invoices            []ForwardedPaymentInvoice `json:"invoices"`
}

// ForwardedPaymentInvoice is the amount forwarded for one invoice
type ForwardedPaymentInvoice struct {
	ID                 uuid.UUID       `json:"id"`
	ForwardedPaymentID uuid.UUID       `json:"forwarded_payment_id"`
	InvoiceID          uuid.UUID       `json:"invoice_id"`
	Amount             decimal.Decimal `json:"amount"`
}

// NewForwardedPayment creates a forwarded payment with one attachment per
// invoice. Amounts of several payments to the same invoice are summed.
func NewForwardedPayment(paymentID uuid.UUID, reference string, transferredAt, now time.Time, forwarded []InvoicePayment) *ForwardedPayment {
	fp := &ForwardedPayment{
		ID:                  shared.NewID(),
		PaymentID:           paymentID,
		RemittanceReference: reference,
		TransferredAt:       transferredAt.UTC(),
		CreatedAt:           now.UTC(),
	}
	for _, g := range GroupByInvoice(forwarded) {
		fp.Invoices = append(fp.Invoices, ForwardedPaymentInvoice{
			ID:                 shared.NewID(),
			ForwardedPaymentID: fp.ID,
			InvoiceID:          g.InvoiceID,
			Amount:             g.Amount,
		})
	}
	return fp
}

// Total returns the sum forwarded across invoices
func (fp *ForwardedPayment) Total() decimal.Decimal {
	total := decimal.Zero
	for _, inv := range fp.Invoices {
		total = total.Add(inv.Amount)
	}
	return total
}

// InvoiceAmount is an amount attributed to an invoice
type InvoiceAmount struct {
	InvoiceID uuid.UUID
	Amount    decimal.Decimal
}

// GroupByInvoice sums payment amounts per invoice, in first-seen order
func GroupByInvoice(payments []InvoicePayment) []InvoiceAmount {
	index := make(map[uuid.UUID]int)
	var out []InvoiceAmount
	for _, p := range payments {
		i, ok := index[p.InvoiceID]
		if !ok {
			index[p.InvoiceID] = len(out)
			out = append(out, InvoiceAmount{InvoiceID: p.InvoiceID, Amount: p.Amount})
			continue
		}
		out[i].Amount = out[i].Amount.Add(p.Amount)
	}
	return out
}
