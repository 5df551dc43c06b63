package finance_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	appfinance "github.com/restoreops/backend/internal/application/finance"
	"github.com/restoreops/backend/internal/domain/finance"
	"github.com/restoreops/backend/internal/domain/shared"
	"github.com/restoreops/backend/internal/domain/shared/valueobject"
	"github.com/restoreops/backend/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (e *env) forwardInput(source, destination uuid.UUID, invoiceIDs ...uuid.UUID) appfinance.ForwardInput {
	return appfinance.ForwardInput{
		SourceAccountID:      source,
		DestinationAccountID: destination,
		UserID:               e.approver.UserID,
		InvoiceIDs:           invoiceIDs,
		RemittanceReference:  "REMIT-0042",
	}
}

func TestForwardingService_Forward(t *testing.T) {
	e := newEnv(t, 0)
	ctx := context.Background()
	invoice := e.approved(t, e.invoices, 2, "100")
	e.pay(t, invoice.ID, "120", "12", true)
	e.pay(t, invoice.ID, "80", "8", true)

	result, err := e.forwarding.Forward(ctx, e.forwardInput(e.f.Bank.ID, e.f.Clearing.ID))
	require.NoError(t, err)

	assert.True(t, valueobject.Equal(dec("200"), result.Funds))
	assert.Equal(t, finance.PaymentTypeForwarded, result.Payment.Type)
	assert.Equal(t, result.Payment.ID, result.ForwardedPayment.PaymentID)
	assert.Equal(t, "REMIT-0042", result.ForwardedPayment.RemittanceReference)
	assert.True(t, result.ForwardedPayment.TransferredAt.Equal(fixedNow))
	require.Len(t, result.ForwardedPayment.Invoices, 1)
	assert.Equal(t, invoice.ID, result.ForwardedPayment.Invoices[0].InvoiceID)
	assert.True(t, valueobject.Equal(dec("200"), result.ForwardedPayment.Invoices[0].Amount))

	// 220 deposited, 200 forwarded on
	assert.True(t, valueobject.Equal(dec("20"), e.f.Balance(t, e.f.Bank)))
	assert.True(t, valueobject.Equal(dec("200"), e.f.Balance(t, e.f.Clearing)))
	assert.True(t, e.f.TrialBalance(t).Status.IsBalanced())

	remaining, err := e.forwarding.Unforwarded(ctx, e.f.LocationID, nil)
	require.NoError(t, err)
	assert.Empty(t, remaining)

	types := e.publisher.Types()
	assert.Contains(t, types, finance.EventTypePaymentForwarded)

	_, err = e.forwarding.Forward(ctx, e.forwardInput(e.f.Bank.ID, e.f.Clearing.ID))
	assert.ErrorIs(t, err, finance.ErrNothingToForward)
}

func TestForwardingService_ForwardsOnlyNewPayments(t *testing.T) {
	e := newEnv(t, 0)
	ctx := context.Background()
	invoice := e.approved(t, e.invoices, 1, "25")

	e.pay(t, invoice.ID, "10", "1", true)
	second := e.pay(t, invoice.ID, "10", "1", true)
	_, err := e.forwarding.Forward(ctx, e.forwardInput(e.f.Bank.ID, e.f.Clearing.ID, invoice.ID))
	require.NoError(t, err)

	third := e.pay(t, invoice.ID, "5", "0.5", true)

	pending, err := e.forwarding.Unforwarded(ctx, e.f.LocationID, []uuid.UUID{invoice.ID})
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, third.ID, pending[0].PaymentID)
	assert.NotEqual(t, second.ID, pending[0].PaymentID)

	result, err := e.forwarding.Forward(ctx, e.forwardInput(e.f.Bank.ID, e.f.Clearing.ID, invoice.ID))
	require.NoError(t, err)
	assert.True(t, valueobject.Equal(dec("5"), result.Funds))
	assert.True(t, valueobject.Equal(dec("25"), e.f.Balance(t, e.f.Clearing)))
}

func TestForwardingService_SkipsNonForwardable(t *testing.T) {
	e := newEnv(t, 0)
	ctx := context.Background()
	invoice := e.approved(t, e.invoices, 2, "100")
	e.pay(t, invoice.ID, "150", "15", false)
	e.pay(t, invoice.ID, "50", "5", true)

	pending, err := e.forwarding.Unforwarded(ctx, e.f.LocationID, nil)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.True(t, valueobject.Equal(dec("50"), pending[0].Amount))
}

func TestForwardingService_Forward_InsufficientFunds(t *testing.T) {
	e := newEnv(t, 0)
	ctx := context.Background()
	invoice := e.approved(t, e.invoices, 1, "100")

	// The customer paid into clearing, so the bank only holds its opening 50
	_, err := e.payments.Pay(ctx, appfinance.PayInvoicesInput{
		Type:             finance.PaymentTypeDirectDeposit,
		Amount:           dec("100"),
		Tax:              dec("10"),
		DepositAccountID: e.f.Clearing.ID,
		Invoices: []appfinance.InvoiceAllocationInput{
			{InvoiceID: invoice.ID, Amount: dec("100"), IsForwardable: true},
		},
		UserID: testutil.TestUserID(),
	})
	require.NoError(t, err)
	e.f.Deposit(t, e.f.Bank, dec("50"))

	_, err = e.forwarding.Forward(ctx, e.forwardInput(e.f.Bank.ID, e.f.Clearing.ID))
	assert.ErrorIs(t, err, finance.ErrInsufficientFunds)
	assert.True(t, valueobject.Equal(dec("50"), e.f.Balance(t, e.f.Bank)))

	pending, err := e.forwarding.Unforwarded(ctx, e.f.LocationID, nil)
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}

func TestForwardingService_Forward_Errors(t *testing.T) {
	e := newEnv(t, 0)
	ctx := context.Background()
	invoice := e.approved(t, e.invoices, 1, "100")
	e.pay(t, invoice.ID, "100", "10", true)

	t.Run("source is not a bank account", func(t *testing.T) {
		_, err := e.forwarding.Forward(ctx, e.forwardInput(e.f.Clearing.ID, e.f.Bank.ID))
		assert.ErrorIs(t, err, finance.ErrNotBankAccount)
	})

	t.Run("same account", func(t *testing.T) {
		_, err := e.forwarding.Forward(ctx, e.forwardInput(e.f.Bank.ID, e.f.Bank.ID))
		assert.ErrorIs(t, err, finance.ErrSameAccount)
		assert.True(t, shared.IsValidation(err))
	})

	t.Run("unknown source account", func(t *testing.T) {
		_, err := e.forwarding.Forward(ctx, e.forwardInput(testutil.NewTestUUID("nowhere"), e.f.Clearing.ID))
		assert.ErrorIs(t, err, appfinance.ErrGLAccountNotFound)
	})

	t.Run("unknown user", func(t *testing.T) {
		input := e.forwardInput(e.f.Bank.ID, e.f.Clearing.ID)
		input.UserID = testutil.NewTestUUID("stranger")
		_, err := e.forwarding.Forward(ctx, input)
		assert.ErrorIs(t, err, appfinance.ErrUserNotFound)
	})

	t.Run("destination refuses payments", func(t *testing.T) {
		_, err := e.forwarding.Forward(ctx, e.forwardInput(e.f.Bank.ID, e.f.Sales.ID))
		assert.ErrorIs(t, err, finance.ErrPaymentsDisabled)
	})

	t.Run("user at another location", func(t *testing.T) {
		other := &finance.Approver{
			UserID:            testutil.NewTestUUID("remote-user"),
			PrimaryLocationID: testutil.NewTestUUID("remote-location"),
		}
		require.NoError(t, e.f.Directory.Save(ctx, other))
		input := e.forwardInput(e.f.Bank.ID, e.f.Clearing.ID)
		input.UserID = other.UserID
		_, err := e.forwarding.Forward(ctx, input)
		assert.ErrorIs(t, err, finance.ErrNothingToForward)
	})

	pending, err := e.forwarding.Unforwarded(ctx, e.f.LocationID, nil)
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}

func TestForwardingService_Forward_TransferDate(t *testing.T) {
	e := newEnv(t, 0)
	invoice := e.approved(t, e.invoices, 1, "100")
	e.pay(t, invoice.ID, "100", "10", true)

	at := time.Date(2026, 5, 18, 15, 30, 0, 0, time.FixedZone("AEST", 10*60*60))
	input := e.forwardInput(e.f.Bank.ID, e.f.Clearing.ID)
	input.TransferredAt = &at

	result, err := e.forwarding.Forward(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, time.UTC, result.ForwardedPayment.TransferredAt.Location())
	assert.True(t, result.ForwardedPayment.TransferredAt.Equal(at))
	require.NotNil(t, result.Payment.PaidAt)
	assert.True(t, result.Payment.PaidAt.Equal(at))
}
