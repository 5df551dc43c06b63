package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/restoreops/backend/internal/domain/finance"
	"github.com/shopspring/decimal"
)

// PaymentModel is the persistence model for finance.Payment
type PaymentModel struct {
	BaseModel
	Type                     finance.PaymentType `gorm:"type:varchar(30);not null;index"`
	AccountingOrganizationID uuid.UUID           `gorm:"type:uuid;not null;index"`
	Amount                   decimal.Decimal     `gorm:"type:decimal(18,4);not null"`
	Tax                      decimal.Decimal     `gorm:"type:decimal(18,4);not null;default:0"`
	PaidAt                   *time.Time
	TransactionID            uuid.UUID             `gorm:"type:uuid;not null;uniqueIndex"`
	Reference                string                `gorm:"type:varchar(200)"`
	UserID                   uuid.UUID             `gorm:"type:uuid;not null"`
	CreditNoteID             *uuid.UUID            `gorm:"type:uuid;index"`
	Invoices                 []InvoicePaymentModel `gorm:"foreignKey:PaymentID;references:ID"`
}

// TableName returns the table name for GORM
func (PaymentModel) TableName() string {
	return "payments"
}

// ToDomain converts the persistence model to a domain Payment
func (m *PaymentModel) ToDomain() *finance.Payment {
	p := &finance.Payment{
		BaseAggregateRoot:        m.aggregateRoot(),
		Type:                     m.Type,
		AccountingOrganizationID: m.AccountingOrganizationID,
		Amount:                   m.Amount,
		Tax:                      m.Tax,
		PaidAt:                   m.PaidAt,
		TransactionID:            m.TransactionID,
		Reference:                m.Reference,
		UserID:                   m.UserID,
		CreditNoteID:             m.CreditNoteID,
	}
	for i := range m.Invoices {
		p.Invoices = append(p.Invoices, m.Invoices[i].ToDomain())
	}
	return p
}

// PaymentModelFromDomain creates a persistence model with its invoice attachments
func PaymentModelFromDomain(p *finance.Payment) *PaymentModel {
	m := &PaymentModel{
		Type:                     p.Type,
		AccountingOrganizationID: p.AccountingOrganizationID,
		Amount:                   p.Amount,
		Tax:                      p.Tax,
		PaidAt:                   p.PaidAt,
		TransactionID:            p.TransactionID,
		Reference:                p.Reference,
		UserID:                   p.UserID,
		CreditNoteID:             p.CreditNoteID,
	}
	m.FromDomainBaseEntity(p.BaseEntity)
	for _, ip := range p.Invoices {
		m.Invoices = append(m.Invoices, InvoicePaymentModel{
			ID:            ip.ID,
			PaymentID:     p.ID,
			InvoiceID:     ip.InvoiceID,
			Amount:        ip.Amount,
			IsForwardable: ip.IsForwardable,
		})
	}
	return m
}

// InvoicePaymentModel is the persistence model for finance.InvoicePayment
type InvoicePaymentModel struct {
	ID            uuid.UUID       `gorm:"type:uuid;primary_key"`
	PaymentID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	InvoiceID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	Amount        decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	IsForwardable bool            `gorm:"not null;default:false"`
}

// TableName returns the table name for GORM
func (InvoicePaymentModel) TableName() string {
	return "invoice_payments"
}

// ToDomain converts the persistence model to a domain InvoicePayment
func (m *InvoicePaymentModel) ToDomain() finance.InvoicePayment {
	return finance.InvoicePayment{
		ID:            m.ID,
		PaymentID:     m.PaymentID,
		InvoiceID:     m.InvoiceID,
		Amount:        m.Amount,
		IsForwardable: m.IsForwardable,
	}
}

// CreditCardChargeModel is the persistence model for finance.CreditCardCharge
type CreditCardChargeModel struct {
	ID                    uuid.UUID `gorm:"type:uuid;primary_key"`
	PaymentID             uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`
	Token                 string    `gorm:"type:varchar(200);not null"`
	ReceiptEmail          string    `gorm:"type:varchar(200)"`
	AuthorizedAt          time.Time `gorm:"not null;index"`
	CapturedAt            *time.Time
	ExternalTransactionID string `gorm:"type:varchar(200)"`
}

// TableName returns the table name for GORM
func (CreditCardChargeModel) TableName() string {
	return "credit_card_charges"
}

// ToDomain converts the persistence model to a domain CreditCardCharge
func (m *CreditCardChargeModel) ToDomain() *finance.CreditCardCharge {
	return &finance.CreditCardCharge{
		ID:                    m.ID,
		PaymentID:             m.PaymentID,
		Token:                 m.Token,
		ReceiptEmail:          m.ReceiptEmail,
		AuthorizedAt:          m.AuthorizedAt,
		CapturedAt:            m.CapturedAt,
		ExternalTransactionID: m.ExternalTransactionID,
	}
}

// CreditCardChargeModelFromDomain creates a persistence model for a charge
func CreditCardChargeModelFromDomain(c *finance.CreditCardCharge) *CreditCardChargeModel {
	return &CreditCardChargeModel{
		ID:                    c.ID,
		PaymentID:             c.PaymentID,
		Token:                 c.Token,
		ReceiptEmail:          c.ReceiptEmail,
		AuthorizedAt:          c.AuthorizedAt,
		CapturedAt:            c.CapturedAt,
		ExternalTransactionID: c.ExternalTransactionID,
	}
}

// ForwardedPaymentModel is the persistence model for finance.ForwardedPayment
type ForwardedPaymentModel struct {
	ID                  uuid.UUID                      `gorm:"type:uuid;primary_key"`
	PaymentID           uuid.UUID                      `gorm:"type:uuid;not null;index"`
	RemittanceReference string                         `gorm:"type:varchar(200)"`
	TransferredAt       time.Time                      `gorm:"not null"`
	CreatedAt           time.Time                      `gorm:"not null"`
	Invoices            []ForwardedPaymentInvoiceModel `gorm:"foreignKey:ForwardedPaymentID;references:ID"`
}

// TableName returns the table name for GORM
func (ForwardedPaymentModel) TableName() string {
	return "forwarded_payments"
}

// ForwardedPaymentModelFromDomain creates a persistence model with its invoices
func ForwardedPaymentModelFromDomain(fp *finance.ForwardedPayment) *ForwardedPaymentModel {
	m := &ForwardedPaymentModel{
		ID:                  fp.ID,
		PaymentID:           fp.PaymentID,
		RemittanceReference: fp.RemittanceReference,
		TransferredAt:       fp.TransferredAt,
		CreatedAt:           fp.CreatedAt,
	}
	for _, inv := range fp.Invoices {
		m.Invoices = append(m.Invoices, ForwardedPaymentInvoiceModel{
			ID:                 inv.ID,
			ForwardedPaymentID: fp.ID,
			InvoiceID:          inv.InvoiceID,
			Amount:             inv.Amount,
		})
	}
	return m
}

// ForwardedPaymentInvoiceModel is the persistence model for finance.ForwardedPaymentInvoice
type ForwardedPaymentInvoiceModel struct {
	ID                 uuid.UUID       `gorm:"type:uuid;primary_key"`
	ForwardedPaymentID uuid.UUID       `gorm:"type:uuid;not null;index"`
	InvoiceID          uuid.UUID       `gorm:"type:uuid;not null;index"`
	Amount             decimal.Decimal `gorm:"type:decimal(18,4);not null"`
}

// TableName returns the table name for GORM
func (ForwardedPaymentInvoiceModel) TableName() string {
	return "forwarded_payment_invoices"
}
