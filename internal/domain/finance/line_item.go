package finance

import (
	"github.com/google/uuid"
	"github.com/restoreops/backend/internal/domain/shared"
	"github.com/restoreops/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// LineItem is one priced line of a financial entity
type LineItem struct {
	ID              uuid.UUID       `json:"id"`
	EntityID        uuid.UUID       `json:"entity_id"`
	Position        int             `json:"position"`
	GSCode          string          `json:"gs_code"`
	Description     string          `json:"description"`
	Quantity        int             `json:"quantity"`
	UnitCost        decimal.Decimal `json:"unit_cost"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	MarkupPercent   decimal.Decimal `json:"markup_percent"`
	GLAccountID     uuid.UUID       `json:"gl_account_id"`
	TaxRate         decimal.Decimal `json:"tax_rate"` // Fraction, 0.1 for 10%
}

// Validate checks the line item's own fields
func (li LineItem) Validate() error {
	if li.Quantity < 1 {
		return shared.NewValidationError("INVALID_QUANTITY", "Line item quantity must be at least 1")
	}
	if li.UnitCost.IsNegative() {
		return shared.NewValidationError("INVALID_UNIT_COST", "Line item unit cost cannot be negative")
	}
	if li.TaxRate.IsNegative() {
		return shared.NewValidationError("INVALID_TAX_RATE", "Line item tax rate cannot be negative")
	}
	if li.DiscountPercent.IsNegative() || li.MarkupPercent.IsNegative() {
		return shared.NewValidationError("INVALID_ADJUSTMENT", "Discount and markup percentages cannot be negative")
	}
	if li.DiscountPercent.GreaterThan(hundred) {
		return shared.NewValidationError("INVALID_DISCOUNT", "Discount cannot exceed 100 percent")
	}
	if li.GLAccountID == uuid.Nil {
		return shared.NewValidationError("INVALID_GL_ACCOUNT", "Line item GL account is required")
	}
	return nil
}

// UnitAmount returns unit cost adjusted by markup minus discount
func (li LineItem) UnitAmount() decimal.Decimal {
	return valueobject.NewMoney(li.UnitCost).
		Percent(li.MarkupPercent.Sub(li.DiscountPercent)).
		Amount()
}

// Total returns the line total rounded to money scale
func (li LineItem) Total() decimal.Decimal {
	return valueobject.Round(li.UnitAmount().Mul(decimal.NewFromInt(int64(li.Quantity))))
}

// Tax returns the line tax rounded to money scale
func (li LineItem) Tax() decimal.Decimal {
	return valueobject.Round(li.Total().Mul(li.TaxRate))
}
