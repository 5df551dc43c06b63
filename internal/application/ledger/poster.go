package ledger

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/restoreops/backend/internal/domain/ledger"
	"github.com/restoreops/backend/internal/domain/shared"
	"github.com/restoreops/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

var (
	// ErrTransactionNotFound is returned when rolling back an unknown transaction
	ErrTransactionNotFound = shared.NewNotFoundError("TRANSACTION_NOT_FOUND", "Ledger transaction not found")
	// ErrAlreadyReversed is returned when a transaction already has a reversal
	ErrAlreadyReversed = shared.NewNotAllowedError("ALREADY_REVERSED", "Ledger transaction has already been rolled back")
)

// Poster commits pending transactions. It writes through whatever
// TransactionRepository it is given, so a Poster built from a scoped
// repository joins the caller's database transaction.
type Poster struct {
	transactions ledger.TransactionRepository
	opts         options
}

// NewPoster creates a Poster over the given repository
func NewPoster(transactions ledger.TransactionRepository, opts ...Option) *Poster {
	return &Poster{transactions: transactions, opts: buildOptions(opts)}
}

// Commit validates the pending transaction and persists it with all of its
// records, returning the new transaction id.
func (p *Poster) Commit(ctx context.Context, pending *ledger.PendingTransaction) (uuid.UUID, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "ledger", "commit")
	defer span.End()

	tx, err := pending.Build(p.opts.now())
	if err != nil {
		telemetry.RecordError(span, err)
		return uuid.Nil, err
	}
	telemetry.SetAttributes(span,
		telemetry.SpanAttrTransactionID, tx.ID.String(),
		"record_count", len(tx.Records),
	)

	if err := p.transactions.Create(ctx, tx); err != nil {
		telemetry.RecordError(span, err)
		return uuid.Nil, fmt.Errorf("failed to persist ledger transaction: %w", err)
	}

	p.opts.metrics.RecordTransaction(ctx, tx.IsReversal())
	p.opts.logger.Debug("ledger transaction committed",
		zap.String("transaction_id", tx.ID.String()),
		zap.String("memo", tx.Memo),
		zap.Int("records", len(tx.Records)),
	)
	return tx.ID, nil
}

// Rollback commits a transaction that exactly inverts transactionID and
// returns the id of the reversal. A transaction can be rolled back once.
func (p *Poster) Rollback(ctx context.Context, transactionID uuid.UUID) (uuid.UUID, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "ledger", "rollback")
	defer span.End()
	telemetry.SetAttribute(span, telemetry.SpanAttrTransactionID, transactionID.String())

	original, err := p.transactions.FindByID(ctx, transactionID)
	if err != nil {
		telemetry.RecordError(span, err)
		return uuid.Nil, fmt.Errorf("failed to load ledger transaction: %w", err)
	}
	if original == nil {
		telemetry.RecordError(span, ErrTransactionNotFound)
		return uuid.Nil, ErrTransactionNotFound
	}

	existing, err := p.transactions.FindReversal(ctx, transactionID)
	if err != nil {
		telemetry.RecordError(span, err)
		return uuid.Nil, fmt.Errorf("failed to check for reversal: %w", err)
	}
	if existing != nil {
		telemetry.RecordError(span, ErrAlreadyReversed)
		return uuid.Nil, ErrAlreadyReversed
	}

	reversalID, err := p.Commit(ctx, ledger.Reverse(original))
	if err != nil {
		return uuid.Nil, err
	}
	p.opts.logger.Info("ledger transaction rolled back",
		zap.String("transaction_id", transactionID.String()),
		zap.String("reversal_id", reversalID.String()),
	)
	return reversalID, nil
}
