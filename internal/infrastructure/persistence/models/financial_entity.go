package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/restoreops/backend/internal/domain/finance"
	"github.com/shopspring/decimal"
)

// AccountingOrganizationModel is the persistence model for finance.AccountingOrganization
type AccountingOrganizationModel struct {
	BaseModel
	LocationID          uuid.UUID `gorm:"type:uuid;not null;index"`
	Name                string    `gorm:"type:varchar(200);not null"`
	IsActive            bool      `gorm:"not null"`
	LockDayOfMonth      int       `gorm:"not null;default:0"`
	ReceivableAccountID uuid.UUID `gorm:"type:uuid"`
	TaxPayableAccountID uuid.UUID `gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (AccountingOrganizationModel) TableName() string {
	return "accounting_organizations"
}

// ToDomain converts the persistence model to a domain AccountingOrganization
func (m *AccountingOrganizationModel) ToDomain() *finance.AccountingOrganization {
	return &finance.AccountingOrganization{
		BaseEntity:          m.BaseModel.ToDomain(),
		LocationID:          m.LocationID,
		Name:                m.Name,
		IsActive:            m.IsActive,
		LockDayOfMonth:      m.LockDayOfMonth,
		ReceivableAccountID: m.ReceivableAccountID,
		TaxPayableAccountID: m.TaxPayableAccountID,
	}
}

// AccountingOrganizationModelFromDomain creates a persistence model from a domain organization
func AccountingOrganizationModelFromDomain(o *finance.AccountingOrganization) *AccountingOrganizationModel {
	m := &AccountingOrganizationModel{
		LocationID:          o.LocationID,
		Name:                o.Name,
		IsActive:            o.IsActive,
		LockDayOfMonth:      o.LockDayOfMonth,
		ReceivableAccountID: o.ReceivableAccountID,
		TaxPayableAccountID: o.TaxPayableAccountID,
	}
	m.FromDomainBaseEntity(o.BaseEntity)
	return m
}

// FinancialEntityModel is the persistence model for finance.FinancialEntity.
// The recipient snapshot is flattened into recipient_* columns.
type FinancialEntityModel struct {
	BaseModel
	Kind                     finance.EntityKind `gorm:"type:varchar(30);not null;index"`
	LocationID               uuid.UUID          `gorm:"type:uuid;not null;index"`
	AccountingOrganizationID uuid.UUID          `gorm:"type:uuid;not null;index"`
	RecipientName            string             `gorm:"type:varchar(200)"`
	RecipientEmail           string             `gorm:"type:varchar(200)"`
	RecipientPhone           string             `gorm:"type:varchar(50)"`
	RecipientAddressLine1    string             `gorm:"type:varchar(200)"`
	RecipientAddressLine2    string             `gorm:"type:varchar(200)"`
	RecipientSuburb          string             `gorm:"type:varchar(100)"`
	RecipientState           string             `gorm:"type:varchar(100)"`
	RecipientPostcode        string             `gorm:"type:varchar(20)"`
	RecipientCountry         string             `gorm:"type:varchar(100)"`
	Date                     time.Time          `gorm:"not null;index"`
	DueAt                    *time.Time
	Reference                string             `gorm:"type:varchar(100)"`
	Notes                    string             `gorm:"type:text"`
	DocumentID               *uuid.UUID         `gorm:"type:uuid"`
	Locked                   bool               `gorm:"not null;default:false"`
	CreatedBy                uuid.UUID          `gorm:"type:uuid;not null"`
	Items                    []LineItemModel    `gorm:"foreignKey:EntityID;references:ID"`
	StatusHistory            []StatusEntryModel `gorm:"foreignKey:EntityID;references:ID"`
}

// TableName returns the table name for GORM
func (FinancialEntityModel) TableName() string {
	return "financial_entities"
}

// ToDomain converts the persistence model to a domain FinancialEntity.
// Items are expected in position order and history in id order.
func (m *FinancialEntityModel) ToDomain() *finance.FinancialEntity {
	e := &finance.FinancialEntity{
		BaseAggregateRoot:        m.aggregateRoot(),
		Kind:                     m.Kind,
		LocationID:               m.LocationID,
		AccountingOrganizationID: m.AccountingOrganizationID,
		Recipient: finance.Recipient{
			Name:         m.RecipientName,
			Email:        m.RecipientEmail,
			Phone:        m.RecipientPhone,
			AddressLine1: m.RecipientAddressLine1,
			AddressLine2: m.RecipientAddressLine2,
			Suburb:       m.RecipientSuburb,
			State:        m.RecipientState,
			Postcode:     m.RecipientPostcode,
			Country:      m.RecipientCountry,
		},
		Date:          m.Date,
		DueAt:         m.DueAt,
		Reference:     m.Reference,
		Notes:         m.Notes,
		DocumentID:    m.DocumentID,
		Locked:        m.Locked,
		CreatedBy:     m.CreatedBy,
		Items:         make([]finance.LineItem, len(m.Items)),
		StatusHistory: make([]finance.StatusEntry, len(m.StatusHistory)),
	}
	for i := range m.Items {
		e.Items[i] = m.Items[i].ToDomain()
	}
	for i := range m.StatusHistory {
		e.StatusHistory[i] = m.StatusHistory[i].ToDomain()
	}
	return e
}

// FinancialEntityModelFromDomain creates a persistence model with items and history
func FinancialEntityModelFromDomain(e *finance.FinancialEntity) *FinancialEntityModel {
	m := &FinancialEntityModel{
		Kind:                     e.Kind,
		LocationID:               e.LocationID,
		AccountingOrganizationID: e.AccountingOrganizationID,
		RecipientName:            e.Recipient.Name,
		RecipientEmail:           e.Recipient.Email,
		RecipientPhone:           e.Recipient.Phone,
		RecipientAddressLine1:    e.Recipient.AddressLine1,
		RecipientAddressLine2:    e.Recipient.AddressLine2,
		RecipientSuburb:          e.Recipient.Suburb,
		RecipientState:           e.Recipient.State,
		RecipientPostcode:        e.Recipient.Postcode,
		RecipientCountry:         e.Recipient.Country,
		Date:                     e.Date,
		DueAt:                    e.DueAt,
		Reference:                e.Reference,
		Notes:                    e.Notes,
		DocumentID:               e.DocumentID,
		Locked:                   e.Locked,
		CreatedBy:                e.CreatedBy,
		Items:                    LineItemModelsFromDomain(e.ID, e.Items),
		StatusHistory:            make([]StatusEntryModel, len(e.StatusHistory)),
	}
	m.FromDomainBaseEntity(e.BaseEntity)
	for i, s := range e.StatusHistory {
		m.StatusHistory[i] = StatusEntryModelFromDomain(e.ID, s)
	}
	return m
}

// LineItemModel is the persistence model for finance.LineItem
type LineItemModel struct {
	ID              uuid.UUID       `gorm:"type:uuid;primary_key"`
	EntityID        uuid.UUID       `gorm:"type:uuid;not null;index"`
	Position        int             `gorm:"not null"`
	GSCode          string          `gorm:"type:varchar(50)"`
	Description     string          `gorm:"type:text"`
	Quantity        int             `gorm:"not null"`
	UnitCost        decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	DiscountPercent decimal.Decimal `gorm:"type:decimal(8,4);not null;default:0"`
	MarkupPercent   decimal.Decimal `gorm:"type:decimal(8,4);not null;default:0"`
	GLAccountID     uuid.UUID       `gorm:"type:uuid;not null"`
	TaxRate         decimal.Decimal `gorm:"type:decimal(8,4);not null;default:0"`
}

// TableName returns the table name for GORM
func (LineItemModel) TableName() string {
	return "financial_entity_items"
}

// ToDomain converts the persistence model to a domain LineItem
func (m *LineItemModel) ToDomain() finance.LineItem {
	return finance.LineItem{
		ID:              m.ID,
		EntityID:        m.EntityID,
		Position:        m.Position,
		GSCode:          m.GSCode,
		Description:     m.Description,
		Quantity:        m.Quantity,
		UnitCost:        m.UnitCost,
		DiscountPercent: m.DiscountPercent,
		MarkupPercent:   m.MarkupPercent,
		GLAccountID:     m.GLAccountID,
		TaxRate:         m.TaxRate,
	}
}

// LineItemModelsFromDomain creates persistence models for an entity's items
func LineItemModelsFromDomain(entityID uuid.UUID, items []finance.LineItem) []LineItemModel {
	out := make([]LineItemModel, len(items))
	for i, li := range items {
		out[i] = LineItemModel{
			ID:              li.ID,
			EntityID:        entityID,
			Position:        li.Position,
			GSCode:          li.GSCode,
			Description:     li.Description,
			Quantity:        li.Quantity,
			UnitCost:        li.UnitCost,
			DiscountPercent: li.DiscountPercent,
			MarkupPercent:   li.MarkupPercent,
			GLAccountID:     li.GLAccountID,
			TaxRate:         li.TaxRate,
		}
	}
	return out
}

// StatusEntryModel is the persistence model for finance.StatusEntry
type StatusEntryModel struct {
	ID        uuid.UUID            `gorm:"type:uuid;primary_key"`
	EntityID  uuid.UUID            `gorm:"type:uuid;not null;index"`
	Status    finance.EntityStatus `gorm:"type:varchar(30);not null"`
	UserID    uuid.UUID            `gorm:"type:uuid;not null"`
	CreatedAt time.Time            `gorm:"not null"`
}

// TableName returns the table name for GORM
func (StatusEntryModel) TableName() string {
	return "financial_entity_statuses"
}

// ToDomain converts the persistence model to a domain StatusEntry
func (m *StatusEntryModel) ToDomain() finance.StatusEntry {
	return finance.StatusEntry{
		ID:        m.ID,
		EntityID:  m.EntityID,
		Status:    m.Status,
		UserID:    m.UserID,
		CreatedAt: m.CreatedAt,
	}
}

// StatusEntryModelFromDomain creates a persistence model for a status entry
func StatusEntryModelFromDomain(entityID uuid.UUID, s finance.StatusEntry) StatusEntryModel {
	return StatusEntryModel{
		ID:        s.ID,
		EntityID:  entityID,
		Status:    s.Status,
		UserID:    s.UserID,
		CreatedAt: s.CreatedAt,
	}
}

// ApproveRequestModel is the persistence model for finance.ApproveRequest
type ApproveRequestModel struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key"`
	EntityID    uuid.UUID `gorm:"type:uuid;not null;index"`
	ApproverID  uuid.UUID `gorm:"type:uuid;not null;index"`
	RequesterID uuid.UUID `gorm:"type:uuid;not null"`
	ApprovedAt  *time.Time
	CreatedAt   time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ApproveRequestModel) TableName() string {
	return "approve_requests"
}

// ToDomain converts the persistence model to a domain ApproveRequest
func (m *ApproveRequestModel) ToDomain() finance.ApproveRequest {
	return finance.ApproveRequest{
		ID:          m.ID,
		EntityID:    m.EntityID,
		ApproverID:  m.ApproverID,
		RequesterID: m.RequesterID,
		ApprovedAt:  m.ApprovedAt,
		CreatedAt:   m.CreatedAt,
	}
}

// ApproveRequestModelFromDomain creates a persistence model for an approve request
func ApproveRequestModelFromDomain(r *finance.ApproveRequest) *ApproveRequestModel {
	return &ApproveRequestModel{
		ID:          r.ID,
		EntityID:    r.EntityID,
		ApproverID:  r.ApproverID,
		RequesterID: r.RequesterID,
		ApprovedAt:  r.ApprovedAt,
		CreatedAt:   r.CreatedAt,
	}
}
