package persistence

import (
	"context"

	appfinance "github.com/restoreops/backend/internal/application/finance"
	"github.com/restoreops/backend/internal/domain/finance"
	"github.com/restoreops/backend/internal/domain/ledger"
	"gorm.io/gorm"
)

// GormTransactionScope implements TransactionScope using GORM transactions.
// It provides atomic execution of ledger postings together with the entity
// and payment rows they belong to.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope.
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs the given function within a database transaction.
// If the function returns an error, the transaction is rolled back.
// If the function succeeds, the transaction is committed.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos appfinance.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewGormRepositories(tx))
	})
}

// GormRepositories bundles every finance and ledger repository over one
// *gorm.DB, which is either the root connection or an open transaction.
type GormRepositories struct {
	tx *gorm.DB
}

// NewGormRepositories creates repositories bound to db.
func NewGormRepositories(db *gorm.DB) *GormRepositories {
	return &GormRepositories{tx: db}
}

// AccountTypeRepo returns the account type repository. Only seeding needs it,
// so it is not part of TransactionalRepositories.
func (r *GormRepositories) AccountTypeRepo() ledger.AccountTypeRepository {
	return NewGormAccountTypeRepository(r.tx)
}

// GLAccountRepo returns the GL account repository scoped to the current transaction.
func (r *GormRepositories) GLAccountRepo() ledger.GLAccountRepository {
	return NewGormGLAccountRepository(r.tx)
}

// LedgerTransactionRepo returns the ledger transaction repository scoped to the current transaction.
func (r *GormRepositories) LedgerTransactionRepo() ledger.TransactionRepository {
	return NewGormLedgerTransactionRepository(r.tx)
}

// EntityRepo returns the financial entity repository scoped to the current transaction.
func (r *GormRepositories) EntityRepo() finance.FinancialEntityRepository {
	return NewGormFinancialEntityRepository(r.tx)
}

// ApproveRequestRepo returns the approve request repository scoped to the current transaction.
func (r *GormRepositories) ApproveRequestRepo() finance.ApproveRequestRepository {
	return NewGormApproveRequestRepository(r.tx)
}

// OrganizationRepo returns the accounting organization repository scoped to the current transaction.
func (r *GormRepositories) OrganizationRepo() finance.AccountingOrganizationRepository {
	return NewGormAccountingOrganizationRepository(r.tx)
}

// PaymentRepo returns the payment repository scoped to the current transaction.
func (r *GormRepositories) PaymentRepo() finance.PaymentRepository {
	return NewGormPaymentRepository(r.tx)
}

// ChargeRepo returns the credit card charge repository scoped to the current transaction.
func (r *GormRepositories) ChargeRepo() finance.CreditCardChargeRepository {
	return NewGormCreditCardChargeRepository(r.tx)
}

// ForwardedPaymentRepo returns the forwarded payment repository scoped to the current transaction.
func (r *GormRepositories) ForwardedPaymentRepo() finance.ForwardedPaymentRepository {
	return NewGormForwardedPaymentRepository(r.tx)
}

// Ensure GormTransactionScope implements TransactionScope
var _ appfinance.TransactionScope = (*GormTransactionScope)(nil)

// Ensure GormRepositories implements TransactionalRepositories
var _ appfinance.TransactionalRepositories = (*GormRepositories)(nil)
