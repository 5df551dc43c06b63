package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/restoreops/backend/internal/domain/ledger"
	"github.com/restoreops/backend/internal/domain/shared"
	"github.com/restoreops/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormAccountTypeRepository implements ledger.AccountTypeRepository using GORM
type GormAccountTypeRepository struct {
	db *gorm.DB
}

// NewGormAccountTypeRepository creates a new GormAccountTypeRepository
func NewGormAccountTypeRepository(db *gorm.DB) *GormAccountTypeRepository {
	return &GormAccountTypeRepository{db: db}
}

// FindByID finds an account type by ID
func (r *GormAccountTypeRepository) FindByID(ctx context.Context, id uuid.UUID) (*ledger.AccountType, error) {
	return r.findOne(ctx, "id = ?", id)
}

// FindByName finds an account type by name
func (r *GormAccountTypeRepository) FindByName(ctx context.Context, name string) (*ledger.AccountType, error) {
	return r.findOne(ctx, "name = ?", name)
}

func (r *GormAccountTypeRepository) findOne(ctx context.Context, query string, arg any) (*ledger.AccountType, error) {
	var model models.AccountTypeModel
	if err := r.db.WithContext(ctx).Where(query, arg).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Save creates or updates an account type
func (r *GormAccountTypeRepository) Save(ctx context.Context, accountType *ledger.AccountType) error {
	return r.db.WithContext(ctx).Save(models.AccountTypeModelFromDomain(accountType)).Error
}

// GormGLAccountRepository implements ledger.GLAccountRepository using GORM
type GormGLAccountRepository struct {
	db *gorm.DB
}

// NewGormGLAccountRepository creates a new GormGLAccountRepository
func NewGormGLAccountRepository(db *gorm.DB) *GormGLAccountRepository {
	return &GormGLAccountRepository{db: db}
}

func (r *GormGLAccountRepository) query(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Preload("AccountType")
}

// FindByID finds a GL account by ID with its account type
func (r *GormGLAccountRepository) FindByID(ctx context.Context, id uuid.UUID) (*ledger.GLAccount, error) {
	return r.findOne(r.query(ctx), id)
}

// FindByIDForUpdate finds a GL account and locks its row for the rest of
// the enclosing transaction
func (r *GormGLAccountRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*ledger.GLAccount, error) {
	return r.findOne(r.query(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (r *GormGLAccountRepository) findOne(db *gorm.DB, id uuid.UUID) (*ledger.GLAccount, error) {
	var model models.GLAccountModel
	if err := db.Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDs finds GL accounts by IDs
func (r *GormGLAccountRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]ledger.GLAccount, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []models.GLAccountModel
	if err := r.query(ctx).Where("id IN ?", ids).Order("code").Find(&rows).Error; err != nil {
		return nil, err
	}
	return glAccountsToDomain(rows), nil
}

// FindByCode finds a GL account by code within an organization
func (r *GormGLAccountRepository) FindByCode(ctx context.Context, organizationID uuid.UUID, code string) (*ledger.GLAccount, error) {
	var model models.GLAccountModel
	if err := r.query(ctx).
		Where("accounting_organization_id = ? AND code = ?", organizationID, code).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByOrganization lists an organization's GL accounts ordered by code
func (r *GormGLAccountRepository) FindByOrganization(ctx context.Context, organizationID uuid.UUID) ([]ledger.GLAccount, error) {
	var rows []models.GLAccountModel
	if err := r.query(ctx).
		Where("accounting_organization_id = ?", organizationID).
		Order("code").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return glAccountsToDomain(rows), nil
}

// Save creates or updates a GL account without touching its account type
func (r *GormGLAccountRepository) Save(ctx context.Context, account *ledger.GLAccount) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(models.GLAccountModelFromDomain(account)).Error
}

func glAccountsToDomain(rows []models.GLAccountModel) []ledger.GLAccount {
	out := make([]ledger.GLAccount, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out
}

// GormLedgerTransactionRepository implements ledger.TransactionRepository using GORM
type GormLedgerTransactionRepository struct {
	db *gorm.DB
}

// NewGormLedgerTransactionRepository creates a new GormLedgerTransactionRepository
func NewGormLedgerTransactionRepository(db *gorm.DB) *GormLedgerTransactionRepository {
	return &GormLedgerTransactionRepository{db: db}
}

// Create inserts the transaction and its records in one database transaction.
// Inside an outer transaction gorm uses a savepoint.
func (r *GormLedgerTransactionRepository) Create(ctx context.Context, tx *ledger.Transaction) error {
	model := models.LedgerTransactionModelFromDomain(tx)
	records := model.Records
	model.Records = nil
	return r.db.WithContext(ctx).Transaction(func(db *gorm.DB) error {
		if err := db.Create(model).Error; err != nil {
			return err
		}
		if len(records) == 0 {
			return nil
		}
		return db.Create(&records).Error
	})
}

// FindByID finds a transaction with its records in id order
func (r *GormLedgerTransactionRepository) FindByID(ctx context.Context, id uuid.UUID) (*ledger.Transaction, error) {
	return r.findOne(ctx, "id = ?", id)
}

// FindReversal finds the transaction reversing id
func (r *GormLedgerTransactionRepository) FindReversal(ctx context.Context, id uuid.UUID) (*ledger.Transaction, error) {
	return r.findOne(ctx, "reversal_of = ?", id)
}

func (r *GormLedgerTransactionRepository) findOne(ctx context.Context, query string, arg any) (*ledger.Transaction, error) {
	var model models.LedgerTransactionModel
	if err := r.db.WithContext(ctx).
		Preload("Records", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Where(query, arg).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindRecordsByAccount lists an account's records in rng
func (r *GormLedgerTransactionRepository) FindRecordsByAccount(ctx context.Context, accountID uuid.UUID, rng shared.DateRange) ([]ledger.TransactionRecord, error) {
	return r.findRecords(ctx, rng, "gl_account_id = ?", accountID)
}

// FindRecords lists all records in rng
func (r *GormLedgerTransactionRepository) FindRecords(ctx context.Context, rng shared.DateRange) ([]ledger.TransactionRecord, error) {
	return r.findRecords(ctx, rng, "")
}

func (r *GormLedgerTransactionRepository) findRecords(ctx context.Context, rng shared.DateRange, query string, args ...any) ([]ledger.TransactionRecord, error) {
	db := r.db.WithContext(ctx).Model(&models.LedgerRecordModel{})
	if query != "" {
		db = db.Where(query, args...)
	}
	if !rng.From.IsZero() {
		db = db.Where("created_at >= ?", rng.From.UTC())
	}
	if !rng.To.IsZero() {
		db = db.Where("created_at <= ?", rng.To.UTC())
	}

	var rows []models.LedgerRecordModel
	if err := db.Order("created_at").Order("id").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]ledger.TransactionRecord, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out, nil
}

var (
	_ ledger.AccountTypeRepository = (*GormAccountTypeRepository)(nil)
	_ ledger.GLAccountRepository   = (*GormGLAccountRepository)(nil)
	_ ledger.TransactionRepository = (*GormLedgerTransactionRepository)(nil)
)
