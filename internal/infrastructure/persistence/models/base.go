package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/restoreops/backend/internal/domain/shared"
)

// BaseModel provides common persistence fields for entity tables.
// It maps to the domain's BaseEntity.
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// ToDomain converts BaseModel to domain BaseEntity
func (m *BaseModel) ToDomain() shared.BaseEntity {
	return shared.BaseEntity{
		ID:        m.ID,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// FromDomainBaseEntity populates BaseModel from domain BaseEntity
func (m *BaseModel) FromDomainBaseEntity(e shared.BaseEntity) {
	m.ID = e.ID
	m.CreatedAt = e.CreatedAt
	m.UpdatedAt = e.UpdatedAt
}

// aggregateRoot rebuilds the root identity of a loaded aggregate
func (m *BaseModel) aggregateRoot() shared.BaseAggregateRoot {
	return shared.BaseAggregateRoot{BaseEntity: m.ToDomain()}
}

// All lists every model, in dependency order, for schema auto-migration in
// sqlite mode and tests. Postgres deployments use the SQL migrations.
func All() []any {
	return []any{
		&AccountTypeModel{},
		&AccountingOrganizationModel{},
		&GLAccountModel{},
		&LedgerTransactionModel{},
		&LedgerRecordModel{},
		&FinancialEntityModel{},
		&LineItemModel{},
		&StatusEntryModel{},
		&ApproveRequestModel{},
		&ApproverProfileModel{},
		&ApproverLocationModel{},
		&PaymentModel{},
		&InvoicePaymentModel{},
		&CreditCardChargeModel{},
		&ForwardedPaymentModel{},
		&ForwardedPaymentInvoiceModel{},
	}
}
