package persistence_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/restoreops/backend/internal/domain/finance"
	"github.com/restoreops/backend/internal/domain/shared/valueobject"
	"github.com/restoreops/backend/tests/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormPaymentRepository_CreateAndFind(t *testing.T) {
	f := testutil.NewFinanceFixture(t, 0)
	ctx := context.Background()
	invoice := newInvoice(t, f, 2, "100")

	payment := newPayment(t, f, "150", map[uuid.UUID]string{invoice.ID: "150"}, true)

	got, err := f.Repos.PaymentRepo().FindByID(ctx, payment.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, finance.PaymentTypeDirectDeposit, got.Type)
	require.Len(t, got.Invoices, 1)
	assert.True(t, valueobject.Equal(decimal.NewFromInt(150), got.Invoices[0].Amount))

	attachments, err := f.Repos.PaymentRepo().FindInvoicePayments(ctx, invoice.ID)
	require.NoError(t, err)
	assert.Len(t, attachments, 1)

	got.Reference = "DEP-2"
	require.NoError(t, f.Repos.PaymentRepo().Update(ctx, got))
	updated, err := f.Repos.PaymentRepo().FindByID(ctx, payment.ID)
	require.NoError(t, err)
	assert.Equal(t, "DEP-2", updated.Reference)
}

func TestGormPaymentRepository_FindForwardable(t *testing.T) {
	f := testutil.NewFinanceFixture(t, 0)
	ctx := context.Background()
	a := newInvoice(t, f, 1, "100")
	b := newInvoice(t, f, 1, "100")

	p1 := newPayment(t, f, "10", map[uuid.UUID]string{a.ID: "10"}, true)
	p2 := newPayment(t, f, "20", map[uuid.UUID]string{b.ID: "20"}, true)
	newPayment(t, f, "30", map[uuid.UUID]string{a.ID: "30"}, false)

	all, err := f.Repos.PaymentRepo().FindForwardable(ctx, f.LocationID, nil)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, p1.ID, all[0].PaymentID)
	assert.Equal(t, p2.ID, all[1].PaymentID)

	onlyB, err := f.Repos.PaymentRepo().FindForwardable(ctx, f.LocationID, []uuid.UUID{b.ID})
	require.NoError(t, err)
	require.Len(t, onlyB, 1)
	assert.Equal(t, b.ID, onlyB[0].InvoiceID)

	elsewhere, err := f.Repos.PaymentRepo().FindForwardable(ctx, uuid.New(), nil)
	require.NoError(t, err)
	assert.Empty(t, elsewhere)
}

func TestGormForwardedPaymentRepository_AggregateByInvoices(t *testing.T) {
	f := testutil.NewFinanceFixture(t, 0)
	ctx := context.Background()
	invoice := newInvoice(t, f, 1, "100")
	other := newInvoice(t, f, 1, "100")

	p1 := newPayment(t, f, "10", map[uuid.UUID]string{invoice.ID: "10"}, true)
	p2 := newPayment(t, f, "5", map[uuid.UUID]string{invoice.ID: "5"}, true)
	at := time.Now()

	first := finance.NewForwardedPayment(p1.ID, "R1", at, at, p1.Invoices)
	require.NoError(t, f.Repos.ForwardedPaymentRepo().Create(ctx, first))
	second := finance.NewForwardedPayment(p2.ID, "R2", at, at, p2.Invoices)
	require.NoError(t, f.Repos.ForwardedPaymentRepo().Create(ctx, second))

	aggregates, err := f.Repos.ForwardedPaymentRepo().AggregateByInvoices(ctx, []uuid.UUID{invoice.ID, other.ID})
	require.NoError(t, err)
	require.Len(t, aggregates, 1)
	assert.Equal(t, invoice.ID, aggregates[0].InvoiceID)
	assert.Equal(t, second.ID, aggregates[0].LastForwardedPaymentID)
	assert.True(t, valueobject.Equal(decimal.NewFromInt(15), aggregates[0].ForwardedAmount))
}

func TestGormCreditCardChargeRepository(t *testing.T) {
	f := testutil.NewFinanceFixture(t, 0)
	ctx := context.Background()
	repo := f.Repos.ChargeRepo()
	invoice := newInvoice(t, f, 1, "100")
	payment := newPayment(t, f, "110", map[uuid.UUID]string{invoice.ID: "110"}, true)

	authorized := time.Now().Add(-48 * time.Hour)
	charge := finance.NewCreditCardCharge(payment.ID, "tok_123", "jane@example.com", authorized)
	require.NoError(t, repo.Save(ctx, charge))

	stale, err := repo.FindUncaptured(ctx, time.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	require.Len(t, stale, 1)
	assert.Equal(t, "tok_123", stale[0].Token)

	require.NoError(t, charge.Capture("ext-1", time.Now()))
	require.NoError(t, repo.Save(ctx, charge))

	stale, err = repo.FindUncaptured(ctx, time.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Empty(t, stale)

	got, err := repo.FindByPaymentID(ctx, payment.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.IsCaptured())
	assert.Equal(t, "ext-1", got.ExternalTransactionID)
}
