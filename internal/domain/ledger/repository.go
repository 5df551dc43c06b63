package ledger

import (
	"context"

	"github.com/google/uuid"
	"github.com/restoreops/backend/internal/domain/shared"
)

// AccountTypeRepository defines the interface for account type persistence
type AccountTypeRepository interface {
	// FindByID finds an account type by ID
	FindByID(ctx context.Context, id uuid.UUID) (*AccountType, error)

	// FindByName finds an account type by its unique name
	FindByName(ctx context.Context, name string) (*AccountType, error)

	// Save creates or updates an account type
	Save(ctx context.Context, accountType *AccountType) error
}

// GLAccountRepository defines the interface for GL account persistence.
// Returned accounts always carry their AccountType.
type GLAccountRepository interface {
	// FindByID finds a GL account by ID, returns nil if not found
	FindByID(ctx context.Context, id uuid.UUID) (*GLAccount, error)

	// FindByIDForUpdate finds a GL account and takes an exclusive row lock
	// held until the enclosing transaction ends, returns nil if not found
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*GLAccount, error)

	// FindByIDs finds GL accounts by IDs; missing IDs are absent from the result
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]GLAccount, error)

	// FindByCode finds a GL account by code within an accounting organization
	FindByCode(ctx context.Context, organizationID uuid.UUID, code string) (*GLAccount, error)

	// FindByOrganization lists the GL accounts of an accounting organization
	FindByOrganization(ctx context.Context, organizationID uuid.UUID) ([]GLAccount, error)

	// Save creates or updates a GL account
	Save(ctx context.Context, account *GLAccount) error
}

// TransactionRepository defines the interface for ledger transaction persistence.
// Transactions are append-only: there is no update or delete.
type TransactionRepository interface {
	// Create persists a transaction with all its records atomically
	Create(ctx context.Context, tx *Transaction) error

	// FindByID finds a transaction with its records, returns nil if not found
	FindByID(ctx context.Context, id uuid.UUID) (*Transaction, error)

	// FindReversal finds the transaction that reverses id, returns nil if none
	FindReversal(ctx context.Context, id uuid.UUID) (*Transaction, error)

	// FindRecordsByAccount lists an account's records whose transaction falls in rng
	FindRecordsByAccount(ctx context.Context, accountID uuid.UUID, rng shared.DateRange) ([]TransactionRecord, error)

	// FindRecords lists all records whose transaction falls in rng
	FindRecords(ctx context.Context, rng shared.DateRange) ([]TransactionRecord, error)
}
