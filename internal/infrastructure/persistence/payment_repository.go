package persistence

import (
	"bytes"
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/restoreops/backend/internal/domain/finance"
	"github.com/restoreops/backend/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormPaymentRepository implements finance.PaymentRepository using GORM
type GormPaymentRepository struct {
	db *gorm.DB
}

// NewGormPaymentRepository creates a new GormPaymentRepository
func NewGormPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

func withInvoices(db *gorm.DB) *gorm.DB {
	return db.Preload("Invoices", func(db *gorm.DB) *gorm.DB { return db.Order("id") })
}

// FindByID finds a payment with its invoice attachments
func (r *GormPaymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*finance.Payment, error) {
	var model models.PaymentModel
	if err := withInvoices(r.db.WithContext(ctx)).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Create inserts a payment and its invoice attachments
func (r *GormPaymentRepository) Create(ctx context.Context, payment *finance.Payment) error {
	model := models.PaymentModelFromDomain(payment)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(model).Error; err != nil {
			return err
		}
		if len(model.Invoices) == 0 {
			return nil
		}
		return tx.Create(&model.Invoices).Error
	})
}

// Update saves the settlement time and reference
func (r *GormPaymentRepository) Update(ctx context.Context, payment *finance.Payment) error {
	return r.db.WithContext(ctx).Model(&models.PaymentModel{}).
		Where("id = ?", payment.ID).
		Updates(map[string]any{
			"paid_at":    payment.PaidAt,
			"reference":  payment.Reference,
			"updated_at": payment.UpdatedAt,
		}).Error
}

// FindInvoicePayments lists an invoice's attachments ordered by payment id
func (r *GormPaymentRepository) FindInvoicePayments(ctx context.Context, invoiceID uuid.UUID) ([]finance.InvoicePayment, error) {
	var rows []models.InvoicePaymentModel
	if err := r.db.WithContext(ctx).
		Where("invoice_id = ?", invoiceID).
		Order("payment_id, id").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return invoicePaymentsToDomain(rows), nil
}

// FindForwardable lists the forwardable attachments of invoices at a location
func (r *GormPaymentRepository) FindForwardable(ctx context.Context, locationID uuid.UUID, invoiceIDs []uuid.UUID) ([]finance.InvoicePayment, error) {
	db := r.db.WithContext(ctx).
		Joins("JOIN financial_entities ON financial_entities.id = invoice_payments.invoice_id").
		Where("financial_entities.location_id = ?", locationID).
		Where("invoice_payments.is_forwardable = ?", true)
	if len(invoiceIDs) > 0 {
		db = db.Where("invoice_payments.invoice_id IN ?", invoiceIDs)
	}

	var rows []models.InvoicePaymentModel
	if err := db.Order("invoice_payments.payment_id, invoice_payments.id").Find(&rows).Error; err != nil {
		return nil, err
	}
	return invoicePaymentsToDomain(rows), nil
}

// FindByCreditNote lists payments drawn on a credit note
func (r *GormPaymentRepository) FindByCreditNote(ctx context.Context, creditNoteID uuid.UUID) ([]finance.Payment, error) {
	var rows []models.PaymentModel
	if err := withInvoices(r.db.WithContext(ctx)).
		Where("credit_note_id = ?", creditNoteID).
		Order("id").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]finance.Payment, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, nil
}

func invoicePaymentsToDomain(rows []models.InvoicePaymentModel) []finance.InvoicePayment {
	out := make([]finance.InvoicePayment, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out
}

// GormCreditCardChargeRepository implements finance.CreditCardChargeRepository using GORM
type GormCreditCardChargeRepository struct {
	db *gorm.DB
}

// NewGormCreditCardChargeRepository creates a new GormCreditCardChargeRepository
func NewGormCreditCardChargeRepository(db *gorm.DB) *GormCreditCardChargeRepository {
	return &GormCreditCardChargeRepository{db: db}
}

// FindByPaymentID finds the charge of a payment
func (r *GormCreditCardChargeRepository) FindByPaymentID(ctx context.Context, paymentID uuid.UUID) (*finance.CreditCardCharge, error) {
	var model models.CreditCardChargeModel
	if err := r.db.WithContext(ctx).Where("payment_id = ?", paymentID).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindUncaptured lists charges authorized before the cutoff that were never captured
func (r *GormCreditCardChargeRepository) FindUncaptured(ctx context.Context, authorizedBefore time.Time) ([]finance.CreditCardCharge, error) {
	var rows []models.CreditCardChargeModel
	if err := r.db.WithContext(ctx).
		Where("captured_at IS NULL AND authorized_at < ?", authorizedBefore.UTC()).
		Order("authorized_at, id").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]finance.CreditCardCharge, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, nil
}

// Save creates or updates a charge
func (r *GormCreditCardChargeRepository) Save(ctx context.Context, charge *finance.CreditCardCharge) error {
	return r.db.WithContext(ctx).Save(models.CreditCardChargeModelFromDomain(charge)).Error
}

// GormForwardedPaymentRepository implements finance.ForwardedPaymentRepository using GORM
type GormForwardedPaymentRepository struct {
	db *gorm.DB
}

// NewGormForwardedPaymentRepository creates a new GormForwardedPaymentRepository
func NewGormForwardedPaymentRepository(db *gorm.DB) *GormForwardedPaymentRepository {
	return &GormForwardedPaymentRepository{db: db}
}

// Create inserts a forwarded payment with its invoice rows
func (r *GormForwardedPaymentRepository) Create(ctx context.Context, fp *finance.ForwardedPayment) error {
	model := models.ForwardedPaymentModelFromDomain(fp)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(model).Error; err != nil {
			return err
		}
		if len(model.Invoices) == 0 {
			return nil
		}
		return tx.Create(&model.Invoices).Error
	})
}

// AggregateByInvoices sums what has been forwarded per invoice. Amounts are
// added in Go so decimal precision does not depend on the driver.
func (r *GormForwardedPaymentRepository) AggregateByInvoices(ctx context.Context, invoiceIDs []uuid.UUID) ([]finance.ForwardedAggregate, error) {
	if len(invoiceIDs) == 0 {
		return nil, nil
	}
	var rows []models.ForwardedPaymentInvoiceModel
	if err := r.db.WithContext(ctx).
		Where("invoice_id IN ?", invoiceIDs).
		Order("forwarded_payment_id, id").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	index := make(map[uuid.UUID]int)
	var out []finance.ForwardedAggregate
	for _, row := range rows {
		i, ok := index[row.InvoiceID]
		if !ok {
			index[row.InvoiceID] = len(out)
			out = append(out, finance.ForwardedAggregate{
				InvoiceID:              row.InvoiceID,
				LastForwardedPaymentID: row.ForwardedPaymentID,
				ForwardedAmount:        decimal.Zero,
			})
			i = len(out) - 1
		}
		agg := &out[i]
		agg.ForwardedAmount = agg.ForwardedAmount.Add(row.Amount)
		if bytes.Compare(row.ForwardedPaymentID[:], agg.LastForwardedPaymentID[:]) > 0 {
			agg.LastForwardedPaymentID = row.ForwardedPaymentID
		}
	}
	return out, nil
}

var (
	_ finance.PaymentRepository          = (*GormPaymentRepository)(nil)
	_ finance.CreditCardChargeRepository = (*GormCreditCardChargeRepository)(nil)
	_ finance.ForwardedPaymentRepository = (*GormForwardedPaymentRepository)(nil)
)
