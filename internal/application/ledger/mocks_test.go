package ledger

import (
	"context"

	"github.com/google/uuid"
	"github.com/restoreops/backend/internal/domain/ledger"
	"github.com/restoreops/backend/internal/domain/shared"
	"github.com/stretchr/testify/mock"
)

// MockTransactionRepository is a mock implementation of ledger.TransactionRepository
type MockTransactionRepository struct {
	mock.Mock
}

func (m *MockTransactionRepository) Create(ctx context.Context, tx *ledger.Transaction) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *MockTransactionRepository) FindByID(ctx context.Context, id uuid.UUID) (*ledger.Transaction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) FindReversal(ctx context.Context, id uuid.UUID) (*ledger.Transaction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) FindRecordsByAccount(ctx context.Context, accountID uuid.UUID, rng shared.DateRange) ([]ledger.TransactionRecord, error) {
	args := m.Called(ctx, accountID, rng)
	return args.Get(0).([]ledger.TransactionRecord), args.Error(1)
}

func (m *MockTransactionRepository) FindRecords(ctx context.Context, rng shared.DateRange) ([]ledger.TransactionRecord, error) {
	args := m.Called(ctx, rng)
	return args.Get(0).([]ledger.TransactionRecord), args.Error(1)
}

// MockGLAccountRepository is a mock implementation of ledger.GLAccountRepository
type MockGLAccountRepository struct {
	mock.Mock
}

func (m *MockGLAccountRepository) FindByID(ctx context.Context, id uuid.UUID) (*ledger.GLAccount, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.GLAccount), args.Error(1)
}

func (m *MockGLAccountRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*ledger.GLAccount, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.GLAccount), args.Error(1)
}

func (m *MockGLAccountRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]ledger.GLAccount, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).([]ledger.GLAccount), args.Error(1)
}

func (m *MockGLAccountRepository) FindByCode(ctx context.Context, organizationID uuid.UUID, code string) (*ledger.GLAccount, error) {
	args := m.Called(ctx, organizationID, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.GLAccount), args.Error(1)
}

func (m *MockGLAccountRepository) FindByOrganization(ctx context.Context, organizationID uuid.UUID) ([]ledger.GLAccount, error) {
	args := m.Called(ctx, organizationID)
	return args.Get(0).([]ledger.GLAccount), args.Error(1)
}

func (m *MockGLAccountRepository) Save(ctx context.Context, account *ledger.GLAccount) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func newAccount(code string, increaseIsDebit bool) *ledger.GLAccount {
	at := &ledger.AccountType{ID: uuid.New(), Name: code + "-type", IncreaseActionIsDebit: increaseIsDebit}
	a, err := ledger.NewGLAccount(uuid.New(), at, code, code)
	if err != nil {
		panic(err)
	}
	return a
}
