package finance_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	appfinance "github.com/restoreops/backend/internal/application/finance"
	"github.com/restoreops/backend/internal/domain/finance"
	"github.com/restoreops/backend/internal/domain/shared/valueobject"
	"github.com/restoreops/backend/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func payInput(e *env, invoiceID uuid.UUID, amount, tax, allocated string) appfinance.PayInvoicesInput {
	return appfinance.PayInvoicesInput{
		Type:             finance.PaymentTypeDirectDeposit,
		Amount:           dec(amount),
		Tax:              dec(tax),
		DepositAccountID: e.f.Bank.ID,
		Invoices: []appfinance.InvoiceAllocationInput{
			{InvoiceID: invoiceID, Amount: dec(allocated)},
		},
		Reference: "EFT 88213",
		UserID:    testutil.TestUserID(),
	}
}

func TestPaymentService_Pay_DirectDeposit(t *testing.T) {
	e := newEnv(t, 0)
	ctx := context.Background()
	invoice := e.approved(t, e.invoices, 2, "100")

	payment, err := e.payments.Pay(ctx, payInput(e, invoice.ID, "200", "20", "200"))
	require.NoError(t, err)

	assert.Equal(t, finance.PaymentTypeDirectDeposit, payment.Type)
	assert.True(t, valueobject.Equal(dec("220"), payment.Amount))
	assert.True(t, valueobject.Equal(dec("200"), payment.NetAmount()))
	require.NotNil(t, payment.PaidAt)
	assert.True(t, payment.PaidAt.Equal(fixedNow))
	require.Len(t, payment.Invoices, 1)

	assert.True(t, valueobject.Equal(dec("220"), e.f.Balance(t, e.f.Bank)))
	assert.True(t, e.f.Balance(t, e.f.Receivable).IsZero())
	assert.True(t, e.f.TrialBalance(t).Status.IsBalanced())

	balance, err := e.payments.InvoiceBalance(ctx, invoice.ID)
	require.NoError(t, err)
	assert.True(t, balance.FullyPaid)
	assert.True(t, balance.Outstanding.IsZero())
	assert.True(t, valueobject.Equal(dec("200"), balance.Paid))
	assert.True(t, valueobject.Equal(dec("220"), balance.Total))

	assert.Contains(t, e.publisher.Types(), finance.EventTypePaymentCreated)
}

func TestPaymentService_Pay_Partial(t *testing.T) {
	e := newEnv(t, 0)
	ctx := context.Background()
	invoice := e.approved(t, e.invoices, 2, "100")

	e.pay(t, invoice.ID, "120", "12", false)

	balance, err := e.payments.InvoiceBalance(ctx, invoice.ID)
	require.NoError(t, err)
	assert.False(t, balance.FullyPaid)
	assert.True(t, valueobject.Equal(dec("80"), balance.Outstanding))
	assert.True(t, valueobject.Equal(dec("88"), e.f.Balance(t, e.f.Receivable)))
}

func TestPaymentService_Pay_Errors(t *testing.T) {
	e := newEnv(t, 0)
	ctx := context.Background()
	invoice := e.approved(t, e.invoices, 2, "100")

	t.Run("allocation mismatch", func(t *testing.T) {
		_, err := e.payments.Pay(ctx, payInput(e, invoice.ID, "200", "20", "150"))
		assert.ErrorIs(t, err, finance.ErrAllocationMismatch)
	})

	t.Run("draft invoice", func(t *testing.T) {
		draft := e.create(t, e.invoices, 1, "10")
		_, err := e.payments.Pay(ctx, payInput(e, draft.ID, "10", "1", "10"))
		assert.ErrorIs(t, err, appfinance.ErrInvoiceNotPayable)
	})

	t.Run("unknown invoice", func(t *testing.T) {
		_, err := e.payments.Pay(ctx, payInput(e, testutil.NewTestUUID("ghost"), "10", "1", "10"))
		assert.ErrorIs(t, err, appfinance.ErrEntityNotFound)
	})

	t.Run("forwarded type", func(t *testing.T) {
		input := payInput(e, invoice.ID, "200", "20", "200")
		input.Type = finance.PaymentTypeForwarded
		_, err := e.payments.Pay(ctx, input)
		assert.ErrorIs(t, err, appfinance.ErrUnsupportedPaymentType)
	})

	t.Run("deposit account without payments", func(t *testing.T) {
		input := payInput(e, invoice.ID, "200", "20", "200")
		input.DepositAccountID = e.f.Sales.ID
		_, err := e.payments.Pay(ctx, input)
		assert.ErrorIs(t, err, finance.ErrPaymentsDisabled)
	})

	t.Run("credit note missing", func(t *testing.T) {
		input := payInput(e, invoice.ID, "200", "20", "200")
		input.Type = finance.PaymentTypeCreditNote
		_, err := e.payments.Pay(ctx, input)
		assert.ErrorIs(t, err, appfinance.ErrCreditNoteRequired)
	})

	// None of the failures above touched the ledger
	assert.Equal(t, 1, e.f.TrialBalance(t).TransactionCount)
}

func TestPaymentService_Pay_CreditNote(t *testing.T) {
	e := newEnv(t, 0)
	ctx := context.Background()
	invoice := e.approved(t, e.invoices, 2, "100")
	note := e.approved(t, e.creditNotes, 1, "100")

	input := payInput(e, invoice.ID, "100", "10", "100")
	input.Type = finance.PaymentTypeCreditNote
	input.CreditNoteID = &note.ID

	payment, err := e.payments.Pay(ctx, input)
	require.NoError(t, err)
	require.NotNil(t, payment.CreditNoteID)
	assert.Equal(t, note.ID, *payment.CreditNoteID)

	t.Run("exhausted", func(t *testing.T) {
		again := payInput(e, invoice.ID, "10", "0", "10")
		again.Type = finance.PaymentTypeCreditNote
		again.CreditNoteID = &note.ID
		_, err := e.payments.Pay(ctx, again)
		assert.ErrorIs(t, err, appfinance.ErrCreditNoteExhausted)
	})

	t.Run("draft credit note", func(t *testing.T) {
		draft := e.create(t, e.creditNotes, 1, "10")
		input := payInput(e, invoice.ID, "10", "0", "10")
		input.Type = finance.PaymentTypeCreditNote
		input.CreditNoteID = &draft.ID
		_, err := e.payments.Pay(ctx, input)
		assert.ErrorIs(t, err, appfinance.ErrCreditNoteNotUsable)
	})
}

func TestPaymentService_CreatePayment(t *testing.T) {
	e := newEnv(t, 0)
	ctx := context.Background()
	e.f.Deposit(t, e.f.Bank, dec("50"))

	payment, err := e.payments.CreatePayment(ctx, appfinance.CreatePaymentInput{
		Type:                     finance.PaymentTypeDirectDeposit,
		Payable:                  []appfinance.AccountAmountInput{{AccountID: e.f.Bank.ID, Amount: dec("30")}},
		Receivable:               []appfinance.AccountAmountInput{{AccountID: e.f.Clearing.ID, Amount: dec("30")}},
		Amount:                   dec("30"),
		AccountingOrganizationID: e.f.Organization.ID,
		UserID:                   testutil.TestUserID(),
	})
	require.NoError(t, err)
	assert.Empty(t, payment.Invoices)

	assert.True(t, valueobject.Equal(dec("20"), e.f.Balance(t, e.f.Bank)))
	assert.True(t, valueobject.Equal(dec("30"), e.f.Balance(t, e.f.Clearing)))

	stored, err := e.f.Repos.PaymentRepo().FindByID(ctx, payment.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, payment.TransactionID, stored.TransactionID)
}

func TestPaymentService_CreatePayment_Unbalanced(t *testing.T) {
	e := newEnv(t, 0)

	_, err := e.payments.CreatePayment(context.Background(), appfinance.CreatePaymentInput{
		Type:                     finance.PaymentTypeDirectDeposit,
		Payable:                  []appfinance.AccountAmountInput{{AccountID: e.f.Bank.ID, Amount: dec("30")}},
		Receivable:               []appfinance.AccountAmountInput{{AccountID: e.f.Clearing.ID, Amount: dec("25")}},
		Amount:                   dec("30"),
		AccountingOrganizationID: e.f.Organization.ID,
		UserID:                   testutil.TestUserID(),
	})
	require.Error(t, err)
	assert.Equal(t, 0, e.f.TrialBalance(t).TransactionCount)
}
