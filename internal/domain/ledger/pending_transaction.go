package ledger

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/restoreops/backend/internal/domain/shared"
	"github.com/restoreops/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

var (
	// ErrUnbalancedTransaction is returned when debits and credits differ
	ErrUnbalancedTransaction = shared.NewNotAllowedError("UNBALANCED_TRANSACTION", "Transaction debits must equal credits")
	// ErrEmptyTransaction is returned when a transaction has no records
	ErrEmptyTransaction = shared.NewNotAllowedError("EMPTY_TRANSACTION", "Transaction has no records")
	// ErrNegativeAmount is returned for negative ledger amounts
	ErrNegativeAmount = shared.NewValidationError("NEGATIVE_AMOUNT", "Ledger amounts must not be negative")
)

// PendingRecord is a not yet committed ledger line
type PendingRecord struct {
	GLAccountID uuid.UUID
	Amount      decimal.Decimal
	IsDebit     bool
}

// PendingTransaction accumulates increases and decreases against GL accounts.
// It becomes a Transaction only through Build, which enforces balance.
type PendingTransaction struct {
	memo       string
	reversalOf *uuid.UUID
	records    []PendingRecord
}

// NewPendingTransaction creates an empty builder
func NewPendingTransaction(memo string) *PendingTransaction {
	return &PendingTransaction{memo: memo}
}

// Increase appends a record that raises the account balance by amount
func (p *PendingTransaction) Increase(account *GLAccount, amount decimal.Decimal) error {
	return p.add(account, amount, true)
}

// Decrease appends a record that lowers the account balance by amount
func (p *PendingTransaction) Decrease(account *GLAccount, amount decimal.Decimal) error {
	return p.add(account, amount, false)
}

func (p *PendingTransaction) add(account *GLAccount, amount decimal.Decimal, increase bool) error {
	if account == nil {
		return shared.NewValidationError("INVALID_ACCOUNT", "GL account is required")
	}
	if amount.IsNegative() {
		return ErrNegativeAmount
	}
	if amount.IsZero() {
		return nil
	}
	increaseIsDebit, err := account.increaseIsDebit()
	if err != nil {
		return err
	}
	isDebit := increaseIsDebit
	if !increase {
		isDebit = !increaseIsDebit
	}
	p.records = append(p.records, PendingRecord{
		GLAccountID: account.ID,
		Amount:      amount,
		IsDebit:     isDebit,
	})
	return nil
}

// Memo returns the transaction memo
func (p *PendingTransaction) Memo() string {
	return p.memo
}

// ReversalOf returns the id of the transaction this one reverses, if any
func (p *PendingTransaction) ReversalOf() *uuid.UUID {
	return p.reversalOf
}

// Records returns a copy of the pending records
func (p *PendingTransaction) Records() []PendingRecord {
	out := make([]PendingRecord, len(p.records))
	copy(out, p.records)
	return out
}

// IsEmpty returns true if nothing has been recorded
func (p *PendingTransaction) IsEmpty() bool {
	return len(p.records) == 0
}

// Totals returns the debit and credit sums recorded so far
func (p *PendingTransaction) Totals() (debit, credit decimal.Decimal) {
	debit, credit = decimal.Zero, decimal.Zero
	for _, r := range p.records {
		if r.IsDebit {
			debit = debit.Add(r.Amount)
		} else {
			credit = credit.Add(r.Amount)
		}
	}
	return debit, credit
}

// Build validates the builder and produces the transaction to persist
func (p *PendingTransaction) Build(now time.Time) (*Transaction, error) {
	if p.IsEmpty() {
		return nil, ErrEmptyTransaction
	}
	debit, credit := p.Totals()
	if !valueobject.Equal(debit, credit) {
		return nil, shared.NewNotAllowedError(ErrUnbalancedTransaction.Code,
			fmt.Sprintf("Transaction debits (%s) must equal credits (%s)",
				debit.StringFixed(valueobject.MoneyScale), credit.StringFixed(valueobject.MoneyScale)))
	}

	tx := &Transaction{
		ID:         shared.NewID(),
		Memo:       p.memo,
		ReversalOf: p.reversalOf,
		CreatedAt:  now.UTC(),
		Records:    make([]TransactionRecord, 0, len(p.records)),
	}
	for _, r := range p.records {
		tx.Records = append(tx.Records, TransactionRecord{
			ID:            shared.NewID(),
			TransactionID: tx.ID,
			GLAccountID:   r.GLAccountID,
			Amount:        r.Amount,
			IsDebit:       r.IsDebit,
			CreatedAt:     tx.CreatedAt,
		})
	}
	return tx, nil
}

// Reverse builds a pending transaction that exactly cancels tx
func Reverse(tx *Transaction) *PendingTransaction {
	id := tx.ID
	p := &PendingTransaction{
		memo:       "Reversal of " + tx.ID.String(),
		reversalOf: &id,
		records:    make([]PendingRecord, 0, len(tx.Records)),
	}
	for _, r := range tx.Records {
		p.records = append(p.records, PendingRecord{
			GLAccountID: r.GLAccountID,
			Amount:      r.Amount,
			IsDebit:     !r.IsDebit,
		})
	}
	return p
}
