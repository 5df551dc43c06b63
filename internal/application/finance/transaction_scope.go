package finance

import (
	"context"

	"github.com/restoreops/backend/internal/domain/finance"
	"github.com/restoreops/backend/internal/domain/ledger"
)

// TransactionScope provides transactional access to finance repositories.
// When a function is executed within a transaction scope, all repository operations
// will be part of the same database transaction and will be committed or rolled back atomically.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	// If the function succeeds, the transaction is committed.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to all finance repositories within a transaction.
// All repositories returned share the same underlying database transaction, so
// a ledger posting made through LedgerTransactionRepo commits or rolls back
// together with the entity or payment rows written in the same unit.
type TransactionalRepositories interface {
	// GLAccountRepo returns the GL account repository scoped to the current transaction
	GLAccountRepo() ledger.GLAccountRepository
	// LedgerTransactionRepo returns the ledger transaction repository scoped to the current transaction
	LedgerTransactionRepo() ledger.TransactionRepository
	// EntityRepo returns the financial entity repository scoped to the current transaction
	EntityRepo() finance.FinancialEntityRepository
	// ApproveRequestRepo returns the approve request repository scoped to the current transaction
	ApproveRequestRepo() finance.ApproveRequestRepository
	// OrganizationRepo returns the accounting organization repository scoped to the current transaction
	OrganizationRepo() finance.AccountingOrganizationRepository
	// PaymentRepo returns the payment repository scoped to the current transaction
	PaymentRepo() finance.PaymentRepository
	// ChargeRepo returns the credit card charge repository scoped to the current transaction
	ChargeRepo() finance.CreditCardChargeRepository
	// ForwardedPaymentRepo returns the forwarded payment repository scoped to the current transaction
	ForwardedPaymentRepo() finance.ForwardedPaymentRepository
}
