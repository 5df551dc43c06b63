package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/restoreops/backend/internal/domain/ledger"
	"github.com/shopspring/decimal"
)

// AccountTypeModel is the persistence model for ledger.AccountType
type AccountTypeModel struct {
	ID                    uuid.UUID `gorm:"type:uuid;primary_key"`
	Name                  string    `gorm:"type:varchar(100);not null;uniqueIndex"`
	IncreaseActionIsDebit bool      `gorm:"not null"`
}

// TableName returns the table name for GORM
func (AccountTypeModel) TableName() string {
	return "account_types"
}

// ToDomain converts the persistence model to a domain AccountType
func (m *AccountTypeModel) ToDomain() *ledger.AccountType {
	return &ledger.AccountType{
		ID:                    m.ID,
		Name:                  m.Name,
		IncreaseActionIsDebit: m.IncreaseActionIsDebit,
	}
}

// AccountTypeModelFromDomain creates a persistence model from a domain AccountType
func AccountTypeModelFromDomain(t *ledger.AccountType) *AccountTypeModel {
	return &AccountTypeModel{
		ID:                    t.ID,
		Name:                  t.Name,
		IncreaseActionIsDebit: t.IncreaseActionIsDebit,
	}
}

// GLAccountModel is the persistence model for ledger.GLAccount
type GLAccountModel struct {
	BaseModel
	AccountingOrganizationID uuid.UUID         `gorm:"type:uuid;not null;uniqueIndex:idx_gl_account_org_code,priority:1"`
	AccountTypeID            uuid.UUID         `gorm:"type:uuid;not null;index"`
	AccountType              *AccountTypeModel `gorm:"foreignKey:AccountTypeID;references:ID"`
	Code                     string            `gorm:"type:varchar(50);not null;uniqueIndex:idx_gl_account_org_code,priority:2"`
	Name                     string            `gorm:"type:varchar(200);not null"`
	BankAccountName          *string           `gorm:"type:varchar(200)"`
	EnablePaymentsToAccount  bool              `gorm:"not null;default:false"`
	IsActive                 bool              `gorm:"not null"`
}

// TableName returns the table name for GORM
func (GLAccountModel) TableName() string {
	return "gl_accounts"
}

// ToDomain converts the persistence model to a domain GLAccount
func (m *GLAccountModel) ToDomain() *ledger.GLAccount {
	a := &ledger.GLAccount{
		BaseEntity:               m.BaseModel.ToDomain(),
		AccountingOrganizationID: m.AccountingOrganizationID,
		AccountTypeID:            m.AccountTypeID,
		Code:                     m.Code,
		Name:                     m.Name,
		BankAccountName:          m.BankAccountName,
		EnablePaymentsToAccount:  m.EnablePaymentsToAccount,
		IsActive:                 m.IsActive,
	}
	if m.AccountType != nil {
		a.AccountType = m.AccountType.ToDomain()
	}
	return a
}

// GLAccountModelFromDomain creates a persistence model from a domain GLAccount.
// The account type association is not carried so saves never touch account_types.
func GLAccountModelFromDomain(a *ledger.GLAccount) *GLAccountModel {
	m := &GLAccountModel{
		AccountingOrganizationID: a.AccountingOrganizationID,
		AccountTypeID:            a.AccountTypeID,
		Code:                     a.Code,
		Name:                     a.Name,
		BankAccountName:          a.BankAccountName,
		EnablePaymentsToAccount:  a.EnablePaymentsToAccount,
		IsActive:                 a.IsActive,
	}
	m.FromDomainBaseEntity(a.BaseEntity)
	return m
}

// LedgerTransactionModel is the persistence model for ledger.Transaction.
// The unique index on reversal_of allows at most one reversal per transaction.
type LedgerTransactionModel struct {
	ID         uuid.UUID           `gorm:"type:uuid;primary_key"`
	Memo       string              `gorm:"type:varchar(500);not null;default:''"`
	ReversalOf *uuid.UUID          `gorm:"type:uuid;uniqueIndex"`
	CreatedAt  time.Time           `gorm:"not null;index"`
	Records    []LedgerRecordModel `gorm:"foreignKey:TransactionID;references:ID"`
}

// TableName returns the table name for GORM
func (LedgerTransactionModel) TableName() string {
	return "ledger_transactions"
}

// ToDomain converts the persistence model to a domain Transaction
func (m *LedgerTransactionModel) ToDomain() *ledger.Transaction {
	tx := &ledger.Transaction{
		ID:         m.ID,
		Memo:       m.Memo,
		ReversalOf: m.ReversalOf,
		CreatedAt:  m.CreatedAt,
		Records:    make([]ledger.TransactionRecord, len(m.Records)),
	}
	for i := range m.Records {
		tx.Records[i] = m.Records[i].ToDomain()
	}
	return tx
}

// LedgerTransactionModelFromDomain creates a persistence model with its records
func LedgerTransactionModelFromDomain(tx *ledger.Transaction) *LedgerTransactionModel {
	m := &LedgerTransactionModel{
		ID:         tx.ID,
		Memo:       tx.Memo,
		ReversalOf: tx.ReversalOf,
		CreatedAt:  tx.CreatedAt,
		Records:    make([]LedgerRecordModel, len(tx.Records)),
	}
	for i, r := range tx.Records {
		m.Records[i] = LedgerRecordModel{
			ID:            r.ID,
			TransactionID: tx.ID,
			GLAccountID:   r.GLAccountID,
			Amount:        r.Amount,
			IsDebit:       r.IsDebit,
			CreatedAt:     tx.CreatedAt,
		}
	}
	return m
}

// LedgerRecordModel is the persistence model for ledger.TransactionRecord.
// CreatedAt duplicates the owning transaction's timestamp so balance queries
// filter records without a join.
type LedgerRecordModel struct {
	ID            uuid.UUID       `gorm:"type:uuid;primary_key"`
	TransactionID uuid.UUID       `gorm:"type:uuid;not null;index"`
	GLAccountID   uuid.UUID       `gorm:"type:uuid;not null;index:idx_ledger_record_account_created,priority:1"`
	Amount        decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	IsDebit       bool            `gorm:"not null"`
	CreatedAt     time.Time       `gorm:"not null;index:idx_ledger_record_account_created,priority:2"`
}

// TableName returns the table name for GORM
func (LedgerRecordModel) TableName() string {
	return "ledger_transaction_records"
}

// ToDomain converts the persistence model to a domain TransactionRecord
func (m *LedgerRecordModel) ToDomain() ledger.TransactionRecord {
	return ledger.TransactionRecord{
		ID:            m.ID,
		TransactionID: m.TransactionID,
		GLAccountID:   m.GLAccountID,
		Amount:        m.Amount,
		IsDebit:       m.IsDebit,
		CreatedAt:     m.CreatedAt,
	}
}
