package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/restoreops/backend/internal/domain/ledger"
	"github.com/restoreops/backend/internal/domain/shared"
	"github.com/restoreops/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func record(txID, accountID uuid.UUID, amount int64, debit bool) ledger.TransactionRecord {
	return ledger.TransactionRecord{
		ID:            shared.NewID(),
		TransactionID: txID,
		GLAccountID:   accountID,
		Amount:        decimal.NewFromInt(amount),
		IsDebit:       debit,
		CreatedAt:     fixedNow,
	}
}

func TestService_GetAccountBalance(t *testing.T) {
	bank := newAccount("1000", true)
	tx1, tx2 := shared.NewID(), shared.NewID()
	records := []ledger.TransactionRecord{
		record(tx1, bank.ID, 100, true),
		record(tx2, bank.ID, 30, false),
	}

	accounts := new(MockGLAccountRepository)
	accounts.On("FindByID", mock.Anything, bank.ID).Return(bank, nil)
	transactions := new(MockTransactionRepository)
	transactions.On("FindRecordsByAccount", mock.Anything, bank.ID, shared.DateRange{}).Return(records, nil)

	svc := NewService(accounts, transactions)

	balance, err := svc.GetAccountBalance(context.Background(), bank.ID, nil)
	require.NoError(t, err)
	assert.True(t, valueobject.Equal(decimal.NewFromInt(70), balance))

	history, err := svc.GetAccountBalanceHistory(context.Background(), bank.ID, nil)
	require.NoError(t, err)
	require.Len(t, history.History, 2)

	again, err := svc.GetAccountBalanceHistory(context.Background(), bank.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, history, again, "replay is deterministic")
}

func TestService_GetAccountBalance_Errors(t *testing.T) {
	t.Run("unknown account", func(t *testing.T) {
		accounts := new(MockGLAccountRepository)
		id := uuid.New()
		accounts.On("FindByID", mock.Anything, id).Return(nil, nil)

		_, err := NewService(accounts, new(MockTransactionRepository)).GetAccountBalance(context.Background(), id, nil)
		assert.ErrorIs(t, err, ErrAccountNotFound)
	})

	t.Run("inverted range", func(t *testing.T) {
		rng := &shared.DateRange{From: fixedNow, To: fixedNow.Add(-time.Hour)}
		_, err := NewService(new(MockGLAccountRepository), new(MockTransactionRepository)).
			GetAccountBalance(context.Background(), uuid.New(), rng)
		assert.Error(t, err)
	})
}

func TestService_TrialBalance(t *testing.T) {
	bank := newAccount("1000", true)
	sales := newAccount("4000", false)
	tx := shared.NewID()
	transactions := new(MockTransactionRepository)
	transactions.On("FindRecords", mock.Anything, shared.DateRange{}).Return([]ledger.TransactionRecord{
		record(tx, bank.ID, 50, true),
		record(tx, sales.ID, 50, false),
	}, nil)

	tb, err := NewService(new(MockGLAccountRepository), transactions).TrialBalance(context.Background(), nil)
	require.NoError(t, err)
	assert.True(t, tb.Status.IsBalanced())
	assert.Equal(t, 1, tb.TransactionCount)
	assert.True(t, valueobject.Equal(decimal.NewFromInt(50), tb.DebitTotal))
}
