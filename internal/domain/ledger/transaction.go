package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/restoreops/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// TransactionRecord is one debit or credit line of a committed transaction
type TransactionRecord struct {
	ID            uuid.UUID       `json:"id"`
	TransactionID uuid.UUID       `json:"transaction_id"`
	GLAccountID   uuid.UUID       `json:"gl_account_id"`
	Amount        decimal.Decimal `json:"amount"`
	IsDebit       bool            `json:"is_debit"`
	CreatedAt     time.Time       `json:"created_at"` // Same as the owning transaction
}

// Transaction is an immutable, balanced set of records. Corrections are
// made by committing a reversal, never by editing.
type Transaction struct {
	ID         uuid.UUID           `json:"id"`
	Memo       string              `json:"memo"`
	ReversalOf *uuid.UUID          `json:"reversal_of,omitempty"`
	CreatedAt  time.Time           `json:"created_at"`
	Records    []TransactionRecord `json:"records"`
}

// Totals returns the debit and credit sums of the transaction
func (t *Transaction) Totals() (debit, credit decimal.Decimal) {
	return sideTotals(t.Records)
}

// IsBalanced reports whether debits equal credits at money scale
func (t *Transaction) IsBalanced() bool {
	debit, credit := t.Totals()
	return valueobject.Equal(debit, credit)
}

// IsReversal returns true if the transaction reverses another one
func (t *Transaction) IsReversal() bool {
	return t.ReversalOf != nil
}

func sideTotals(records []TransactionRecord) (debit, credit decimal.Decimal) {
	debit, credit = decimal.Zero, decimal.Zero
	for _, r := range records {
		if r.IsDebit {
			debit = debit.Add(r.Amount)
		} else {
			credit = credit.Add(r.Amount)
		}
	}
	return debit, credit
}
