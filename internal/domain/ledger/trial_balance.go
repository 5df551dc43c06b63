package ledger

import (
	"bytes"
	"sort"

	"github.com/google/uuid"
	"github.com/restoreops/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// TrialBalanceStatus represents the result status of a trial balance check
type TrialBalanceStatus string

const (
	TrialBalanceStatusBalanced   TrialBalanceStatus = "BALANCED"   // Debit equals Credit
	TrialBalanceStatusUnbalanced TrialBalanceStatus = "UNBALANCED" // Debit does not equal Credit
)

// IsBalanced returns true if the trial balance is balanced
func (s TrialBalanceStatus) IsBalanced() bool {
	return s == TrialBalanceStatusBalanced
}

// TrialBalance summarises all records in a window. Every committed
// transaction is balanced, so an unbalanced result points at data written
// outside the ledger engine.
type TrialBalance struct {
	DebitTotal             decimal.Decimal    `json:"debit_total"`
	CreditTotal            decimal.Decimal    `json:"credit_total"`
	Difference             decimal.Decimal    `json:"difference"`
	Status                 TrialBalanceStatus `json:"status"`
	TransactionCount       int                `json:"transaction_count"`
	UnbalancedTransactions []uuid.UUID        `json:"unbalanced_transactions,omitempty"`
}

// ComputeTrialBalance checks debits against credits overall and per transaction
func ComputeTrialBalance(records []TransactionRecord) *TrialBalance {
	byTx := make(map[uuid.UUID][]TransactionRecord)
	for _, r := range records {
		byTx[r.TransactionID] = append(byTx[r.TransactionID], r)
	}

	debit, credit := sideTotals(records)
	tb := &TrialBalance{
		DebitTotal:       debit,
		CreditTotal:      credit,
		Difference:       debit.Sub(credit),
		Status:           TrialBalanceStatusBalanced,
		TransactionCount: len(byTx),
	}
	for txID, recs := range byTx {
		d, c := sideTotals(recs)
		if !valueobject.Equal(d, c) {
			tb.UnbalancedTransactions = append(tb.UnbalancedTransactions, txID)
		}
	}
	sort.Slice(tb.UnbalancedTransactions, func(i, j int) bool {
		return bytes.Compare(tb.UnbalancedTransactions[i][:], tb.UnbalancedTransactions[j][:]) < 0
	})
	if !valueobject.Equal(debit, credit) || len(tb.UnbalancedTransactions) > 0 {
		tb.Status = TrialBalanceStatusUnbalanced
	}
	return tb
}
