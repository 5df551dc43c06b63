package finance_test

import (
	"context"
	"errors"
	"testing"
	"time"

	appfinance "github.com/restoreops/backend/internal/application/finance"
	"github.com/restoreops/backend/internal/domain/finance"
	"github.com/restoreops/backend/internal/domain/shared/valueobject"
	"github.com/restoreops/backend/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func cardInput(e *env, invoice *finance.FinancialEntity) appfinance.CardPaymentInput {
	return appfinance.CardPaymentInput{
		CardToken:        "card_tok_visa",
		ReceiptEmail:     "jane@example.com",
		Amount:           dec("200"),
		Tax:              dec("20"),
		DepositAccountID: e.f.Bank.ID,
		Invoices: []appfinance.InvoiceAllocationInput{
			{InvoiceID: invoice.ID, Amount: dec("200")},
		},
		Reference: "CARD-1",
		UserID:    testutil.TestUserID(),
	}
}

func authorizedAt() time.Time {
	return fixedNow.Add(-time.Hour)
}

func newCardService(e *env, processor appfinance.PaymentProcessor, idem appfinance.IdempotencyStore) *appfinance.CreditCardService {
	return appfinance.NewCreditCardService(e.payments, processor, idem,
		appfinance.WithClock(testutil.FixedClock(fixedNow)),
		appfinance.WithEventPublisher(e.publisher),
	)
}

func TestCreditCardService_Charge(t *testing.T) {
	e := newEnv(t, 0)
	ctx := context.Background()
	invoice := e.approved(t, e.invoices, 2, "100")

	processor := new(MockPaymentProcessor)
	processor.On("Process", mock.Anything, mock.MatchedBy(func(req appfinance.CardPaymentRequest) bool {
		return valueobject.Equal(req.Amount, dec("220")) && req.CardToken == "card_tok_visa" &&
			len(req.InvoiceIDs) == 1 && req.InvoiceIDs[0] == invoice.ID
	})).Return(&appfinance.CardAuthorization{Token: "auth_123", CreatedAt: authorizedAt()}, nil)

	svc := newCardService(e, processor, nil)
	payment, charge, err := svc.Charge(ctx, cardInput(e, invoice))
	require.NoError(t, err)

	assert.Equal(t, finance.PaymentTypeCreditCard, payment.Type)
	assert.False(t, payment.IsSettled())
	assert.Equal(t, payment.ID, charge.PaymentID)
	assert.Equal(t, "auth_123", charge.Token)
	assert.False(t, charge.IsCaptured())

	// The ledger moves on authorization, settlement only stamps the payment
	assert.True(t, valueobject.Equal(dec("220"), e.f.Balance(t, e.f.Bank)))

	types := e.publisher.Types()
	assert.Contains(t, types, finance.EventTypePaymentCreated)
	assert.Contains(t, types, finance.EventTypeCreditCardProcessed)
	processor.AssertExpectations(t)
}

func TestCreditCardService_Charge_Declined(t *testing.T) {
	e := newEnv(t, 0)
	invoice := e.approved(t, e.invoices, 2, "100")

	processor := new(MockPaymentProcessor)
	processor.On("Process", mock.Anything, mock.Anything).Return(nil, errors.New("card declined"))

	svc := newCardService(e, processor, nil)
	_, _, err := svc.Charge(context.Background(), cardInput(e, invoice))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "card declined")
	assert.True(t, e.f.Balance(t, e.f.Bank).IsZero())
}

func TestCreditCardService_Charge_MismatchSkipsProcessor(t *testing.T) {
	e := newEnv(t, 0)
	invoice := e.approved(t, e.invoices, 2, "100")

	processor := new(MockPaymentProcessor)
	svc := newCardService(e, processor, nil)

	input := cardInput(e, invoice)
	input.Invoices[0].Amount = dec("150")
	_, _, err := svc.Charge(context.Background(), input)
	assert.ErrorIs(t, err, finance.ErrAllocationMismatch)
	processor.AssertNotCalled(t, "Process", mock.Anything, mock.Anything)
}

func TestCreditCardService_Charge_UnpayableInvoiceSkipsProcessor(t *testing.T) {
	e := newEnv(t, 0)
	ctx := context.Background()

	processor := new(MockPaymentProcessor)
	svc := newCardService(e, processor, nil)

	t.Run("draft invoice", func(t *testing.T) {
		draft := e.create(t, e.invoices, 2, "100")
		_, _, err := svc.Charge(ctx, cardInput(e, draft))
		assert.ErrorIs(t, err, appfinance.ErrInvoiceNotPayable)
	})

	t.Run("unknown invoice", func(t *testing.T) {
		missing := &finance.FinancialEntity{}
		missing.ID = testutil.NewTestUUID("no-such-invoice")
		_, _, err := svc.Charge(ctx, cardInput(e, missing))
		assert.ErrorIs(t, err, appfinance.ErrEntityNotFound)
	})

	processor.AssertNotCalled(t, "Process", mock.Anything, mock.Anything)
	assert.True(t, e.f.Balance(t, e.f.Bank).IsZero())
	assert.NotContains(t, e.publisher.Types(), finance.EventTypeCreditCardProcessed)
}

func TestCreditCardService_Capture(t *testing.T) {
	e := newEnv(t, 0)
	ctx := context.Background()
	invoice := e.approved(t, e.invoices, 2, "100")
	capturedAt := fixedNow.Add(-5 * time.Minute)

	processor := new(MockPaymentProcessor)
	processor.On("Process", mock.Anything, mock.Anything).
		Return(&appfinance.CardAuthorization{Token: "auth_123", CreatedAt: authorizedAt()}, nil)
	processor.On("Capture", mock.Anything, mock.Anything, "auth_123").
		Return(&appfinance.CardCapture{Token: "ch_987", CapturedAt: capturedAt}, nil).Once()

	idem := new(MockIdempotencyStore)
	idem.On("MarkProcessed", mock.Anything, mock.AnythingOfType("string"), appfinance.DefaultCaptureIdempotencyTTL).
		Return(true, nil).Once()

	svc := newCardService(e, processor, idem)
	payment, _, err := svc.Charge(ctx, cardInput(e, invoice))
	require.NoError(t, err)

	charge, err := svc.Capture(ctx, payment.ID)
	require.NoError(t, err)
	assert.True(t, charge.IsCaptured())
	assert.Equal(t, "ch_987", charge.ExternalTransactionID)

	stored, err := e.f.Repos.PaymentRepo().FindByID(ctx, payment.ID)
	require.NoError(t, err)
	require.True(t, stored.IsSettled())
	assert.True(t, stored.PaidAt.Equal(capturedAt))

	_, err = svc.Capture(ctx, payment.ID)
	assert.ErrorIs(t, err, finance.ErrAlreadyCaptured)

	assert.Contains(t, e.publisher.Types(), finance.EventTypeCreditCardCaptured)
	processor.AssertExpectations(t)
	idem.AssertExpectations(t)
}

func TestCreditCardService_RecordCapture_Replay(t *testing.T) {
	e := newEnv(t, 0)
	ctx := context.Background()
	invoice := e.approved(t, e.invoices, 2, "100")

	processor := new(MockPaymentProcessor)
	processor.On("Process", mock.Anything, mock.Anything).
		Return(&appfinance.CardAuthorization{Token: "auth_123", CreatedAt: authorizedAt()}, nil)

	svc := newCardService(e, processor, nil)
	payment, _, err := svc.Charge(ctx, cardInput(e, invoice))
	require.NoError(t, err)

	cb := appfinance.CaptureCallback{PaymentID: payment.ID, ExternalTransactionID: "ch_1", CapturedAt: fixedNow}

	first, err := svc.RecordCapture(ctx, cb)
	require.NoError(t, err)
	assert.True(t, first.IsCaptured())

	// Same callback again is a no-op
	second, err := svc.RecordCapture(ctx, cb)
	require.NoError(t, err)
	assert.Equal(t, first.ExternalTransactionID, second.ExternalTransactionID)

	captured := 0
	for _, typ := range e.publisher.Types() {
		if typ == finance.EventTypeCreditCardCaptured {
			captured++
		}
	}
	assert.Equal(t, 1, captured)

	// A different capture for a settled charge is rejected
	cb.ExternalTransactionID = "ch_2"
	_, err = svc.RecordCapture(ctx, cb)
	assert.ErrorIs(t, err, finance.ErrAlreadyCaptured)
}

func TestCreditCardService_RecordCapture_Idempotency(t *testing.T) {
	e := newEnv(t, 0)
	ctx := context.Background()
	invoice := e.approved(t, e.invoices, 2, "100")

	processor := new(MockPaymentProcessor)
	processor.On("Process", mock.Anything, mock.Anything).
		Return(&appfinance.CardAuthorization{Token: "auth_123", CreatedAt: authorizedAt()}, nil)

	t.Run("duplicate key short-circuits", func(t *testing.T) {
		idem := new(MockIdempotencyStore)
		idem.On("MarkProcessed", mock.Anything, mock.Anything, mock.Anything).Return(false, nil).Once()

		svc := newCardService(e, processor, idem)
		payment, _, err := svc.Charge(ctx, cardInput(e, invoice))
		require.NoError(t, err)

		charge, err := svc.RecordCapture(ctx, appfinance.CaptureCallback{
			PaymentID: payment.ID, ExternalTransactionID: "ch_dup", CapturedAt: fixedNow,
		})
		require.NoError(t, err)
		assert.False(t, charge.IsCaptured())
		idem.AssertExpectations(t)
	})

	t.Run("store outage falls back to charge state", func(t *testing.T) {
		idem := new(MockIdempotencyStore)
		idem.On("MarkProcessed", mock.Anything, mock.Anything, mock.Anything).Return(false, errors.New("redis down")).Once()

		svc := newCardService(e, processor, idem)
		payment, _, err := svc.Charge(ctx, cardInput(e, invoice))
		require.NoError(t, err)

		charge, err := svc.RecordCapture(ctx, appfinance.CaptureCallback{
			PaymentID: payment.ID, ExternalTransactionID: "ch_outage", CapturedAt: fixedNow,
		})
		require.NoError(t, err)
		assert.True(t, charge.IsCaptured())
	})

	t.Run("failure releases the key", func(t *testing.T) {
		idem := new(MockIdempotencyStore)
		idem.On("MarkProcessed", mock.Anything, mock.Anything, mock.Anything).Return(true, nil).Once()
		idem.On("Forget", mock.Anything, mock.AnythingOfType("string")).Return(nil).Once()

		svc := newCardService(e, processor, idem)
		_, err := svc.RecordCapture(ctx, appfinance.CaptureCallback{
			PaymentID: testutil.NewTestUUID("no-charge"), ExternalTransactionID: "ch_x", CapturedAt: fixedNow,
		})
		assert.ErrorIs(t, err, appfinance.ErrChargeNotFound)
		idem.AssertExpectations(t)
	})
}

func TestCreditCardService_ListUnsettled(t *testing.T) {
	e := newEnv(t, 0)
	ctx := context.Background()
	invoice := e.approved(t, e.invoices, 2, "100")

	processor := new(MockPaymentProcessor)
	processor.On("Process", mock.Anything, mock.Anything).
		Return(&appfinance.CardAuthorization{Token: "auth_123", CreatedAt: authorizedAt()}, nil)

	svc := newCardService(e, processor, nil)
	payment, _, err := svc.Charge(ctx, cardInput(e, invoice))
	require.NoError(t, err)

	stale, err := svc.ListUnsettled(ctx, 30*time.Minute)
	require.NoError(t, err)
	require.Len(t, stale, 1)
	assert.Equal(t, payment.ID, stale[0].PaymentID)

	recent, err := svc.ListUnsettled(ctx, 2*time.Hour)
	require.NoError(t, err)
	assert.Empty(t, recent)

	_, err = svc.RecordCapture(ctx, appfinance.CaptureCallback{PaymentID: payment.ID, ExternalTransactionID: "ch_1", CapturedAt: fixedNow})
	require.NoError(t, err)

	stale, err = svc.ListUnsettled(ctx, 30*time.Minute)
	require.NoError(t, err)
	assert.Empty(t, stale)
}
