package testutil

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/restoreops/backend/internal/domain/finance"
	"github.com/restoreops/backend/internal/domain/ledger"
	"github.com/restoreops/backend/internal/infrastructure/persistence"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// Account type names seeded by NewFinanceFixture
const (
	TypeAsset     = "Asset"
	TypeLiability = "Liability"
	TypeRevenue   = "Revenue"
	TypeExpense   = "Expense"
)

// FinanceFixture is a database seeded with one accounting organization and
// a small chart of accounts.
type FinanceFixture struct {
	DB        *gorm.DB
	Scope     *persistence.GormTransactionScope
	Repos     *persistence.GormRepositories
	Directory *persistence.GormApproverDirectory

	LocationID   uuid.UUID
	Organization *finance.AccountingOrganization
	Types        map[string]*ledger.AccountType

	Receivable *ledger.GLAccount // Asset, the organization's receivable
	TaxPayable *ledger.GLAccount // Liability
	Sales      *ledger.GLAccount // Revenue, used on invoice lines
	Bank       *ledger.GLAccount // Asset, bank account accepting payments
	Clearing   *ledger.GLAccount // Asset, accepts forwarded funds
}

// NewFinanceFixture seeds a fresh in-memory database. lockDay configures the
// organization's month-end lock; 0 disables it.
func NewFinanceFixture(t *testing.T, lockDay int) *FinanceFixture {
	t.Helper()
	return SeedFinanceFixture(t, NewSQLiteDB(t), lockDay)
}

// SeedFinanceFixture seeds db, which must already have the finance schema
func SeedFinanceFixture(t *testing.T, db *gorm.DB, lockDay int) *FinanceFixture {
	t.Helper()
	ctx := context.Background()

	f := &FinanceFixture{
		DB:         db,
		Scope:      persistence.NewGormTransactionScope(db),
		Repos:      persistence.NewGormRepositories(db),
		Directory:  persistence.NewGormApproverDirectory(db),
		LocationID: TestLocationID(),
		Types:      make(map[string]*ledger.AccountType),
	}

	for name, debit := range map[string]bool{
		TypeAsset:     true,
		TypeExpense:   true,
		TypeLiability: false,
		TypeRevenue:   false,
	} {
		at, err := ledger.NewAccountType(name, debit)
		require.NoError(t, err)
		require.NoError(t, f.Repos.AccountTypeRepo().Save(ctx, at))
		f.Types[name] = at
	}

	org, err := finance.NewAccountingOrganization(f.LocationID, "Test Restoration", lockDay)
	require.NoError(t, err)
	f.Organization = org

	f.Receivable = f.AddAccount(t, TypeAsset, "1100", "Accounts Receivable")
	f.TaxPayable = f.AddAccount(t, TypeLiability, "2200", "GST Payable")
	f.Sales = f.AddAccount(t, TypeRevenue, "4000", "Restoration Sales")
	f.Bank = f.AddAccount(t, TypeAsset, "1000", "Operating Account")
	f.Bank.MarkAsBankAccount("Operating Account")
	f.Bank.EnablePaymentsToAccount = true
	require.NoError(t, f.Repos.GLAccountRepo().Save(ctx, f.Bank))
	f.Clearing = f.AddAccount(t, TypeAsset, "1010", "Head Office Clearing")
	f.Clearing.EnablePaymentsToAccount = true
	require.NoError(t, f.Repos.GLAccountRepo().Save(ctx, f.Clearing))

	org.ReceivableAccountID = f.Receivable.ID
	org.TaxPayableAccountID = f.TaxPayable.ID
	require.NoError(t, f.Repos.OrganizationRepo().Save(ctx, org))
	return f
}

// AddAccount creates a GL account of the named type in the organization.
func (f *FinanceFixture) AddAccount(t *testing.T, typeName, code, name string) *ledger.GLAccount {
	t.Helper()
	at, ok := f.Types[typeName]
	require.True(t, ok, "unknown account type %s", typeName)
	account, err := ledger.NewGLAccount(f.Organization.ID, at, code, name)
	require.NoError(t, err)
	require.NoError(t, f.Repos.GLAccountRepo().Save(context.Background(), account))
	return account
}

// AddApprover registers a user at the fixture location with the same limit
// for every entity kind.
func (f *FinanceFixture) AddApprover(t *testing.T, seed string, limit decimal.Decimal) *finance.Approver {
	t.Helper()
	approver := &finance.Approver{
		UserID:                    NewTestUUID(seed),
		PrimaryLocationID:         f.LocationID,
		InvoiceApproveLimit:       limit,
		CreditNoteApproveLimit:    limit,
		PurchaseOrderApproveLimit: limit,
	}
	require.NoError(t, f.Directory.Save(context.Background(), approver))
	return approver
}

// Balance replays an account's full history.
func (f *FinanceFixture) Balance(t *testing.T, account *ledger.GLAccount) decimal.Decimal {
	t.Helper()
	records, err := f.Repos.LedgerTransactionRepo().FindRecordsByAccount(context.Background(), account.ID, sharedAllTime)
	require.NoError(t, err)
	balance, err := ledger.ReplayBalance(account, records)
	require.NoError(t, err)
	return balance.Balance
}

// TrialBalance computes the trial balance over every record.
func (f *FinanceFixture) TrialBalance(t *testing.T) *ledger.TrialBalance {
	t.Helper()
	records, err := f.Repos.LedgerTransactionRepo().FindRecords(context.Background(), sharedAllTime)
	require.NoError(t, err)
	return ledger.ComputeTrialBalance(records)
}

// Deposit increases account and sales by amount, for tests that
// need an opening balance.
func (f *FinanceFixture) Deposit(t *testing.T, account *ledger.GLAccount, amount decimal.Decimal) {
	t.Helper()
	pending := ledger.NewPendingTransaction("opening balance")
	require.NoError(t, pending.Increase(account, amount))
	require.NoError(t, pending.Increase(f.Sales, amount))
	tx, err := pending.Build(nowUTC())
	require.NoError(t, err)
	require.NoError(t, f.Repos.LedgerTransactionRepo().Create(context.Background(), tx))
}
