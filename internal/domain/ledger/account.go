package ledger

import (
	"strings"

	"github.com/google/uuid"
	"github.com/restoreops/backend/internal/domain/shared"
)

// AccountType classifies GL accounts by the side that increases them.
// Assets and expenses increase on the debit side; liabilities, equity and
// revenue increase on the credit side.
type AccountType struct {
	ID                    uuid.UUID `json:"id"`
	Name                  string    `json:"name"`
	IncreaseActionIsDebit bool      `json:"increase_action_is_debit"`
}

// NewAccountType creates a new account type
func NewAccountType(name string, increaseIsDebit bool) (*AccountType, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewValidationError("INVALID_ACCOUNT_TYPE", "Account type name cannot be empty")
	}
	return &AccountType{
		ID:                    shared.NewID(),
		Name:                  name,
		IncreaseActionIsDebit: increaseIsDebit,
	}, nil
}

// GLAccount is a general-ledger account owned by an accounting organization
type GLAccount struct {
	shared.BaseEntity
	AccountingOrganizationID uuid.UUID    `json:"accounting_organization_id"`
	AccountTypeID            uuid.UUID    `json:"account_type_id"`
	AccountType              *AccountType `json:"account_type,omitempty"`
	Code                     string       `json:"code"`
	Name                     string       `json:"name"`
	BankAccountName          *string      `json:"bank_account_name,omitempty"` // Set only for bank accounts
	EnablePaymentsToAccount  bool         `json:"enable_payments_to_account"`
	IsActive                 bool         `json:"is_active"`
}

// NewGLAccount creates an active GL account of the given type
func NewGLAccount(organizationID uuid.UUID, accountType *AccountType, code, name string) (*GLAccount, error) {
	if organizationID == uuid.Nil {
		return nil, shared.NewValidationError("INVALID_ORGANIZATION", "Accounting organization cannot be empty")
	}
	if accountType == nil {
		return nil, shared.NewValidationError("INVALID_ACCOUNT_TYPE", "Account type is required")
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, shared.NewValidationError("INVALID_ACCOUNT_CODE", "Account code cannot be empty")
	}
	return &GLAccount{
		BaseEntity:               shared.NewBaseEntity(),
		AccountingOrganizationID: organizationID,
		AccountTypeID:            accountType.ID,
		AccountType:              accountType,
		Code:                     code,
		Name:                     strings.TrimSpace(name),
		IsActive:                 true,
	}, nil
}

// MarkAsBankAccount flags the account as a real bank account
func (a *GLAccount) MarkAsBankAccount(bankAccountName string) {
	name := strings.TrimSpace(bankAccountName)
	if name == "" {
		a.BankAccountName = nil
		return
	}
	a.BankAccountName = &name
}

// IsBankAccount returns true if the account is backed by a bank account
func (a *GLAccount) IsBankAccount() bool {
	return a.BankAccountName != nil && strings.TrimSpace(*a.BankAccountName) != ""
}

// increaseIsDebit returns the account type's increase polarity
func (a *GLAccount) increaseIsDebit() (bool, error) {
	if a.AccountType == nil {
		return false, shared.NewValidationError("ACCOUNT_TYPE_NOT_LOADED", "GL account "+a.Code+" has no account type")
	}
	return a.AccountType.IncreaseActionIsDebit, nil
}
