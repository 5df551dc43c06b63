package ledger

import (
	"bytes"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BalancePoint is the running balance of an account after one record
type BalancePoint struct {
	TransactionID uuid.UUID       `json:"transaction_id"`
	RecordID      uuid.UUID       `json:"record_id"`
	At            time.Time       `json:"at"`
	Delta         decimal.Decimal `json:"delta"`
	Balance       decimal.Decimal `json:"balance"`
}

// AccountBalance is the result of replaying an account's records
type AccountBalance struct {
	AccountID uuid.UUID       `json:"account_id"`
	Balance   decimal.Decimal `json:"balance"`
	History   []BalancePoint  `json:"history"`
}

// SignedAmount returns the record's effect on an account whose increase
// side is given by increaseIsDebit.
func SignedAmount(increaseIsDebit bool, r TransactionRecord) decimal.Decimal {
	if r.IsDebit == increaseIsDebit {
		return r.Amount
	}
	return r.Amount.Neg()
}

// ReplayBalance folds the account's records in (created_at, record id)
// order. Records belonging to other accounts are ignored. Input order has
// no effect on the result.
func ReplayBalance(account *GLAccount, records []TransactionRecord) (*AccountBalance, error) {
	increaseIsDebit, err := account.increaseIsDebit()
	if err != nil {
		return nil, err
	}

	ordered := make([]TransactionRecord, 0, len(records))
	for _, r := range records {
		if r.GLAccountID == account.ID {
			ordered = append(ordered, r)
		}
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		if !ordered[i].CreatedAt.Equal(ordered[j].CreatedAt) {
			return ordered[i].CreatedAt.Before(ordered[j].CreatedAt)
		}
		return bytes.Compare(ordered[i].ID[:], ordered[j].ID[:]) < 0
	})

	result := &AccountBalance{
		AccountID: account.ID,
		Balance:   decimal.Zero,
		History:   make([]BalancePoint, 0, len(ordered)),
	}
	for _, r := range ordered {
		delta := SignedAmount(increaseIsDebit, r)
		result.Balance = result.Balance.Add(delta)
		result.History = append(result.History, BalancePoint{
			TransactionID: r.TransactionID,
			RecordID:      r.ID,
			At:            r.CreatedAt,
			Delta:         delta,
			Balance:       result.Balance,
		})
	}
	return result, nil
}
