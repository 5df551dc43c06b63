package finance

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/restoreops/backend/internal/domain/finance"
	"github.com/restoreops/backend/internal/domain/shared"
	"github.com/restoreops/backend/internal/infrastructure/logger"
	"github.com/restoreops/backend/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	// ErrChargeNotFound is returned when a payment has no card charge
	ErrChargeNotFound = shared.NewNotFoundError("CHARGE_NOT_FOUND", "Credit card charge not found")
	// ErrPaymentNotFound is returned for unknown payment ids
	ErrPaymentNotFound = shared.NewNotFoundError("PAYMENT_NOT_FOUND", "Payment not found")
)

// CardPaymentInput pays invoices by credit card
type CardPaymentInput struct {
	CardToken        string                   `json:"card_token" validate:"required"`
	ReceiptEmail     string                   `json:"receipt_email" validate:"omitempty,email"`
	Amount           decimal.Decimal          `json:"amount" validate:"gt=0"`
	Tax              decimal.Decimal          `json:"tax" validate:"gte=0"`
	DepositAccountID uuid.UUID                `json:"deposit_account_id" validate:"required"`
	Invoices         []InvoiceAllocationInput `json:"invoices" validate:"required,min=1,dive"`
	Reference        string                   `json:"reference" validate:"max=200"`
	UserID           uuid.UUID                `json:"user_id" validate:"required"`
}

func (in CardPaymentInput) payInput() PayInvoicesInput {
	return PayInvoicesInput{
		Type:             finance.PaymentTypeCreditCard,
		Amount:           in.Amount,
		Tax:              in.Tax,
		DepositAccountID: in.DepositAccountID,
		Invoices:         in.Invoices,
		Reference:        in.Reference,
		UserID:           in.UserID,
	}
}

// CaptureCallback is the processor's settlement notification
type CaptureCallback struct {
	PaymentID             uuid.UUID `json:"payment_id" validate:"required"`
	ExternalTransactionID string    `json:"external_transaction_id" validate:"required"`
	CapturedAt            time.Time `json:"captured_at" validate:"required"`
}

func (cb CaptureCallback) key() string {
	return "card-capture:" + cb.PaymentID.String() + ":" + cb.ExternalTransactionID
}

// CreditCardService runs the two-phase card flow: authorize and record the
// payment unsettled, then settle it when the capture is confirmed.
type CreditCardService struct {
	payments    *PaymentService
	processor   PaymentProcessor
	idempotency IdempotencyStore
	opts        options
}

// NewCreditCardService creates a new CreditCardService. A nil idempotency
// store disables callback deduplication beyond the charge's own state.
func NewCreditCardService(payments *PaymentService, processor PaymentProcessor, idempotency IdempotencyStore, opts ...Option) *CreditCardService {
	return &CreditCardService{
		payments:    payments,
		processor:   processor,
		idempotency: idempotency,
		opts:        buildOptions(opts),
	}
}

// Charge checks the invoices are payable, authorizes the card, then records
// the unsettled payment, its invoice allocations and the charge in one unit.
func (s *CreditCardService) Charge(ctx context.Context, input CardPaymentInput) (*finance.Payment, *finance.CreditCardCharge, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "credit_card", "charge")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrAmount, input.Amount,
		telemetry.SpanAttrUserID, input.UserID.String(),
	)

	if err := validateInput(input); err != nil {
		telemetry.RecordError(span, err)
		return nil, nil, err
	}
	payInput := input.payInput()
	if err := s.payments.checkPayInput(payInput); err != nil {
		telemetry.RecordError(span, err)
		return nil, nil, err
	}
	// The invoices are checked before the card is authorized so a rejected
	// charge never leaves an authorization without a payment behind.
	err := s.payments.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		_, err := payableOrganization(ctx, repos, payInput.invoiceIDs())
		return err
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, nil, err
	}

	auth, err := s.processor.Process(ctx, CardPaymentRequest{
		PaymentReference: input.Reference,
		Amount:           payInput.Gross(),
		CardToken:        input.CardToken,
		ReceiptEmail:     input.ReceiptEmail,
		InvoiceIDs:       payInput.invoiceIDs(),
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, nil, fmt.Errorf("failed to authorize card payment: %w", err)
	}
	authorizedAt := auth.CreatedAt
	if authorizedAt.IsZero() {
		authorizedAt = s.opts.now()
	}

	var (
		payment *finance.Payment
		charge  *finance.CreditCardCharge
	)
	err = s.payments.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		payment, err = s.payments.payInScope(ctx, repos, payInput)
		if err != nil {
			return err
		}
		charge = finance.NewCreditCardCharge(payment.ID, auth.Token, input.ReceiptEmail, authorizedAt)
		if err := repos.ChargeRepo().Save(ctx, charge); err != nil {
			return fmt.Errorf("failed to save card charge: %w", err)
		}
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		logger.Enrich(ctx, s.opts.logger).Warn("card authorized but payment not recorded",
			zap.String("token", auth.Token),
			zap.Error(err),
		)
		return nil, nil, err
	}

	telemetry.SetAttribute(span, telemetry.SpanAttrPaymentID, payment.ID.String())
	s.payments.afterCommit(ctx, payment)
	s.opts.publish(ctx,
		finance.NewPaymentCreatedEvent(payment),
		finance.NewCreditCardProcessedEvent(payment, input.ReceiptEmail),
	)
	return payment, charge, nil
}

// Capture asks the processor to capture an authorized charge and records
// the settlement.
func (s *CreditCardService) Capture(ctx context.Context, paymentID uuid.UUID) (*finance.CreditCardCharge, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "credit_card", "capture")
	defer span.End()
	telemetry.SetAttribute(span, telemetry.SpanAttrPaymentID, paymentID.String())

	var (
		payment *finance.Payment
		charge  *finance.CreditCardCharge
	)
	err := s.payments.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		if charge, err = s.loadCharge(ctx, repos, paymentID); err != nil {
			return err
		}
		if charge.IsCaptured() {
			return finance.ErrAlreadyCaptured
		}
		if payment, err = s.loadPayment(ctx, repos, paymentID); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(payment.Invoices))
	for _, ip := range payment.Invoices {
		ids = append(ids, ip.InvoiceID)
	}
	captured, err := s.processor.Capture(ctx, CardPaymentRequest{
		PaymentReference: payment.Reference,
		Amount:           payment.Amount,
		ReceiptEmail:     charge.ReceiptEmail,
		InvoiceIDs:       ids,
	}, charge.Token)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to capture card payment: %w", err)
	}
	capturedAt := captured.CapturedAt
	if capturedAt.IsZero() {
		capturedAt = s.opts.now()
	}

	return s.RecordCapture(ctx, CaptureCallback{
		PaymentID:             paymentID,
		ExternalTransactionID: captured.Token,
		CapturedAt:            capturedAt,
	})
}

// RecordCapture settles a payment from a capture callback. Replays of the
// same callback return the settled charge without changing anything.
func (s *CreditCardService) RecordCapture(ctx context.Context, cb CaptureCallback) (*finance.CreditCardCharge, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "credit_card", "record_capture")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrPaymentID, cb.PaymentID.String(),
		"external_transaction_id", cb.ExternalTransactionID,
	)

	if err := validateInput(cb); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	log := logger.Enrich(ctx, s.opts.logger)

	if s.idempotency != nil {
		fresh, err := s.idempotency.MarkProcessed(ctx, cb.key(), s.opts.captureTTL)
		if err != nil {
			log.Warn("idempotency store unavailable, relying on charge state", zap.Error(err))
		} else if !fresh {
			telemetry.AddEvent(span, "duplicate_capture_callback")
			return s.currentCharge(ctx, cb.PaymentID)
		}
	}

	var (
		charge  *finance.CreditCardCharge
		settled bool
	)
	err := s.payments.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		if charge, err = s.loadCharge(ctx, repos, cb.PaymentID); err != nil {
			return err
		}
		if charge.IsCaptured() {
			if charge.ExternalTransactionID == cb.ExternalTransactionID {
				return nil
			}
			return finance.ErrAlreadyCaptured
		}
		if err := charge.Capture(cb.ExternalTransactionID, cb.CapturedAt); err != nil {
			return err
		}
		if err := repos.ChargeRepo().Save(ctx, charge); err != nil {
			return fmt.Errorf("failed to save card charge: %w", err)
		}

		payment, err := s.loadPayment(ctx, repos, cb.PaymentID)
		if err != nil {
			return err
		}
		payment.MarkSettled(cb.CapturedAt)
		if err := repos.PaymentRepo().Update(ctx, payment); err != nil {
			return fmt.Errorf("failed to settle payment: %w", err)
		}
		settled = true
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		if s.idempotency != nil {
			if ferr := s.idempotency.Forget(ctx, cb.key()); ferr != nil {
				log.Warn("failed to release capture key", zap.Error(ferr))
			}
		}
		return nil, err
	}

	if settled {
		log.Info("card payment captured",
			zap.String("payment_id", cb.PaymentID.String()),
			zap.String("external_transaction_id", cb.ExternalTransactionID),
		)
		s.opts.publish(ctx, finance.NewCreditCardCapturedEvent(charge))
	}
	return charge, nil
}

// ListUnsettled lists charges authorized more than olderThan ago that were
// never captured. Nothing reverses them automatically.
func (s *CreditCardService) ListUnsettled(ctx context.Context, olderThan time.Duration) ([]finance.CreditCardCharge, error) {
	cutoff := s.opts.now().Add(-olderThan)
	var charges []finance.CreditCardCharge
	err := s.payments.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		charges, err = repos.ChargeRepo().FindUncaptured(ctx, cutoff)
		return err
	})
	return charges, err
}

func (s *CreditCardService) currentCharge(ctx context.Context, paymentID uuid.UUID) (*finance.CreditCardCharge, error) {
	var charge *finance.CreditCardCharge
	err := s.payments.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		charge, err = s.loadCharge(ctx, repos, paymentID)
		return err
	})
	return charge, err
}

func (s *CreditCardService) loadCharge(ctx context.Context, repos TransactionalRepositories, paymentID uuid.UUID) (*finance.CreditCardCharge, error) {
	charge, err := repos.ChargeRepo().FindByPaymentID(ctx, paymentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load card charge: %w", err)
	}
	if charge == nil {
		return nil, ErrChargeNotFound
	}
	return charge, nil
}

func (s *CreditCardService) loadPayment(ctx context.Context, repos TransactionalRepositories, paymentID uuid.UUID) (*finance.Payment, error) {
	payment, err := repos.PaymentRepo().FindByID(ctx, paymentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load payment: %w", err)
	}
	if payment == nil {
		return nil, ErrPaymentNotFound
	}
	return payment, nil
}
