package persistence_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/restoreops/backend/internal/domain/finance"
	"github.com/restoreops/backend/internal/domain/ledger"
	"github.com/restoreops/backend/tests/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var testDate = time.Date(2026, 5, 4, 0, 0, 0, 0, time.UTC)

func newInvoice(t *testing.T, f *testutil.FinanceFixture, qty int, unitCost string) *finance.FinancialEntity {
	t.Helper()
	entity, err := finance.NewFinancialEntity(
		finance.KindInvoice,
		f.LocationID, f.Organization.ID, testutil.TestUserID(),
		finance.Recipient{Name: "Jane Citizen", Email: "jane@example.com"},
		testDate,
		[]finance.LineItem{{
			GSCode:      "WTR-01",
			Description: "Water extraction",
			Quantity:    qty,
			UnitCost:    decimal.RequireFromString(unitCost),
			GLAccountID: f.Sales.ID,
			TaxRate:     decimal.RequireFromString("0.1"),
		}},
	)
	require.NoError(t, err)
	require.NoError(t, f.Repos.EntityRepo().Create(context.Background(), entity))
	return entity
}

func commit(t *testing.T, f *testutil.FinanceFixture, build func(p *ledger.PendingTransaction)) *ledger.Transaction {
	t.Helper()
	pending := ledger.NewPendingTransaction("test")
	build(pending)
	tx, err := pending.Build(time.Now())
	require.NoError(t, err)
	require.NoError(t, f.Repos.LedgerTransactionRepo().Create(context.Background(), tx))
	return tx
}

func newPayment(t *testing.T, f *testutil.FinanceFixture, amount string, allocations map[uuid.UUID]string, forwardable bool) *finance.Payment {
	t.Helper()
	amt := decimal.RequireFromString(amount)
	tx := commit(t, f, func(p *ledger.PendingTransaction) {
		require.NoError(t, p.Increase(f.Bank, amt))
		require.NoError(t, p.Decrease(f.Receivable, amt))
	})
	paidAt := time.Now().UTC()
	payment, err := finance.NewPayment(finance.PaymentTypeDirectDeposit, f.Organization.ID, tx.ID, testutil.TestUserID(),
		amt, decimal.Zero, &paidAt, "DEP")
	require.NoError(t, err)
	for invoiceID, a := range allocations {
		require.NoError(t, payment.Attach(invoiceID, decimal.RequireFromString(a), forwardable))
	}
	require.NoError(t, f.Repos.PaymentRepo().Create(context.Background(), payment))
	return payment
}
