package ledger

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/restoreops/backend/internal/domain/ledger"
	"github.com/restoreops/backend/internal/domain/shared"
	"github.com/restoreops/backend/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
)

// ErrAccountNotFound is returned for balance queries on unknown accounts
var ErrAccountNotFound = shared.NewNotFoundError("GL_ACCOUNT_NOT_FOUND", "GL account not found")

// Service is the ledger's application entry point: posting, rollback and
// balance queries.
type Service struct {
	accounts     ledger.GLAccountRepository
	transactions ledger.TransactionRepository
	poster       *Poster
}

// NewService creates a new ledger Service
func NewService(accounts ledger.GLAccountRepository, transactions ledger.TransactionRepository, opts ...Option) *Service {
	return &Service{
		accounts:     accounts,
		transactions: transactions,
		poster:       NewPoster(transactions, opts...),
	}
}

// Commit persists a pending transaction
func (s *Service) Commit(ctx context.Context, pending *ledger.PendingTransaction) (uuid.UUID, error) {
	return s.poster.Commit(ctx, pending)
}

// Rollback reverses a committed transaction
func (s *Service) Rollback(ctx context.Context, transactionID uuid.UUID) (uuid.UUID, error) {
	return s.poster.Rollback(ctx, transactionID)
}

// GetAccountBalance returns the account's balance over rng, or over all
// time when rng is nil.
func (s *Service) GetAccountBalance(ctx context.Context, accountID uuid.UUID, rng *shared.DateRange) (decimal.Decimal, error) {
	result, err := s.GetAccountBalanceHistory(ctx, accountID, rng)
	if err != nil {
		return decimal.Zero, err
	}
	return result.Balance, nil
}

// GetAccountBalanceHistory returns the balance and the running balance
// after every record, in chronological order.
func (s *Service) GetAccountBalanceHistory(ctx context.Context, accountID uuid.UUID, rng *shared.DateRange) (*ledger.AccountBalance, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "ledger", "account_balance")
	defer span.End()
	telemetry.SetAttribute(span, telemetry.SpanAttrAccountID, accountID.String())

	window, err := resolveRange(rng)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	account, err := s.accounts.FindByID(ctx, accountID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to load GL account: %w", err)
	}
	if account == nil {
		telemetry.RecordError(span, ErrAccountNotFound)
		return nil, ErrAccountNotFound
	}

	records, err := s.transactions.FindRecordsByAccount(ctx, accountID, window)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to load ledger records: %w", err)
	}

	result, err := ledger.ReplayBalance(account, records)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetAttributes(span, "record_count", len(records), "balance", result.Balance.String())
	return result, nil
}

// TrialBalance compares total debits against total credits over rng
func (s *Service) TrialBalance(ctx context.Context, rng *shared.DateRange) (*ledger.TrialBalance, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "ledger", "trial_balance")
	defer span.End()

	window, err := resolveRange(rng)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	records, err := s.transactions.FindRecords(ctx, window)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to load ledger records: %w", err)
	}
	tb := ledger.ComputeTrialBalance(records)
	telemetry.SetAttributes(span, "status", string(tb.Status), "transaction_count", tb.TransactionCount)
	return tb, nil
}

func resolveRange(rng *shared.DateRange) (shared.DateRange, error) {
	if rng == nil {
		return shared.DateRange{}, nil
	}
	if err := rng.Validate(); err != nil {
		return shared.DateRange{}, err
	}
	return *rng, nil
}
