package models

import (
	"github.com/google/uuid"
	"github.com/restoreops/backend/internal/domain/finance"
	"github.com/shopspring/decimal"
)

// ApproverProfileModel stores a user's approval limits. It is the local
// projection of the identity service read by the approver directory.
type ApproverProfileModel struct {
	UserID                    uuid.UUID               `gorm:"type:uuid;primary_key"`
	PrimaryLocationID         uuid.UUID               `gorm:"type:uuid;not null"`
	InvoiceApproveLimit       decimal.Decimal         `gorm:"type:decimal(18,4);not null;default:0"`
	CreditNoteApproveLimit    decimal.Decimal         `gorm:"type:decimal(18,4);not null;default:0"`
	PurchaseOrderApproveLimit decimal.Decimal         `gorm:"type:decimal(18,4);not null;default:0"`
	Locations                 []ApproverLocationModel `gorm:"foreignKey:UserID;references:UserID"`
}

// TableName returns the table name for GORM
func (ApproverProfileModel) TableName() string {
	return "approver_profiles"
}

// ToDomain converts the persistence model to a domain Approver
func (m *ApproverProfileModel) ToDomain() *finance.Approver {
	a := &finance.Approver{
		UserID:                    m.UserID,
		PrimaryLocationID:         m.PrimaryLocationID,
		InvoiceApproveLimit:       m.InvoiceApproveLimit,
		CreditNoteApproveLimit:    m.CreditNoteApproveLimit,
		PurchaseOrderApproveLimit: m.PurchaseOrderApproveLimit,
		LocationIDs:               make([]uuid.UUID, len(m.Locations)),
	}
	for i, l := range m.Locations {
		a.LocationIDs[i] = l.LocationID
	}
	return a
}

// ApproverProfileModelFromDomain creates a persistence model with its locations
func ApproverProfileModelFromDomain(a *finance.Approver) *ApproverProfileModel {
	m := &ApproverProfileModel{
		UserID:                    a.UserID,
		PrimaryLocationID:         a.PrimaryLocationID,
		InvoiceApproveLimit:       a.InvoiceApproveLimit,
		CreditNoteApproveLimit:    a.CreditNoteApproveLimit,
		PurchaseOrderApproveLimit: a.PurchaseOrderApproveLimit,
		Locations:                 make([]ApproverLocationModel, len(a.LocationIDs)),
	}
	for i, id := range a.LocationIDs {
		m.Locations[i] = ApproverLocationModel{UserID: a.UserID, LocationID: id}
	}
	return m
}

// ApproverLocationModel links an approver to a location they may approve for
type ApproverLocationModel struct {
	UserID     uuid.UUID `gorm:"type:uuid;primary_key"`
	LocationID uuid.UUID `gorm:"type:uuid;primary_key"`
}

// TableName returns the table name for GORM
func (ApproverLocationModel) TableName() string {
	return "approver_locations"
}
