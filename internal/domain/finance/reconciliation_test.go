package finance

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/restoreops/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// forwardable creates attachments with ascending payment ids
func forwardable(invoiceID uuid.UUID, amounts ...string) []InvoicePayment {
	out := make([]InvoicePayment, 0, len(amounts))
	for _, a := range amounts {
		out = append(out, InvoicePayment{
			ID:            shared.NewID(),
			PaymentID:     shared.NewID(),
			InvoiceID:     invoiceID,
			Amount:        dec(a),
			IsForwardable: true,
		})
	}
	return out
}

func TestUnforwardedPaymentsNothingForwarded(t *testing.T) {
	invoice := uuid.New()
	payments := forwardable(invoice, "10", "10", "5")
	payments = append(payments, InvoicePayment{ID: shared.NewID(), PaymentID: shared.NewID(), InvoiceID: invoice, Amount: dec("7")})

	got := UnforwardedPayments(payments, nil)
	assert.Equal(t, payments[:3], got, "non-forwardable payments are excluded")
	assert.True(t, SumPayments(got).Equal(dec("25")))
}

func TestUnforwardedPaymentsPartialForwarding(t *testing.T) {
	invoice := uuid.New()
	payments := forwardable(invoice, "10", "10", "5")
	aggregates := []ForwardedAggregate{{InvoiceID: invoice, ForwardedAmount: dec("15")}}

	got := UnforwardedPayments(payments, aggregates)
	require.Len(t, got, 2)
	assert.Equal(t, payments[1].ID, got[0].ID)
	assert.Equal(t, payments[2].ID, got[1].ID)
}

func TestUnforwardedPaymentsExceedsIsStrict(t *testing.T) {
	invoice := uuid.New()
	payments := forwardable(invoice, "10", "10", "5")

	got := UnforwardedPayments(payments, []ForwardedAggregate{{InvoiceID: invoice, ForwardedAmount: dec("20")}})
	require.Len(t, got, 1)
	assert.Equal(t, payments[2].ID, got[0].ID)

	got = UnforwardedPayments(payments, []ForwardedAggregate{{InvoiceID: invoice, ForwardedAmount: dec("25")}})
	assert.Empty(t, got)

	got = UnforwardedPayments(payments, []ForwardedAggregate{{InvoiceID: invoice, ForwardedAmount: dec("19.999")}})
	require.Len(t, got, 1, "comparison is at cent precision")
}

func TestUnforwardedPaymentsMixedInvoices(t *testing.T) {
	forwardedInvoice, freshInvoice := uuid.New(), uuid.New()
	a := forwardable(forwardedInvoice, "10", "10")
	b := forwardable(freshInvoice, "30")
	// interleave and shuffle input order
	payments := []InvoicePayment{b[0], a[1], a[0]}

	got := UnforwardedPayments(payments, []ForwardedAggregate{{InvoiceID: forwardedInvoice, ForwardedAmount: dec("10")}})
	require.Len(t, got, 2)
	assert.Equal(t, a[1].ID, got[0].ID)
	assert.Equal(t, b[0].ID, got[1].ID)
}

func TestNewForwardedPaymentGroupsByInvoice(t *testing.T) {
	first, second := uuid.New(), uuid.New()
	payments := append(forwardable(first, "10", "5"), forwardable(second, "7")...)

	created := time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)
	fp := NewForwardedPayment(uuid.New(), "REM-1", created.Add(-time.Hour), created, payments)
	assert.Equal(t, created, fp.CreatedAt)
	assert.Equal(t, created.Add(-time.Hour), fp.TransferredAt)
	require.Len(t, fp.Invoices, 2)
	assert.Equal(t, first, fp.Invoices[0].InvoiceID)
	assert.True(t, fp.Invoices[0].Amount.Equal(dec("15")))
	assert.Equal(t, second, fp.Invoices[1].InvoiceID)
	assert.True(t, fp.Invoices[1].Amount.Equal(dec("7")))
	assert.True(t, fp.Total().Equal(dec("22")))
	for _, inv := range fp.Invoices {
		assert.Equal(t, fp.ID, inv.ForwardedPaymentID)
	}
}
