package finance

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/restoreops/backend/internal/domain/finance"
	"github.com/restoreops/backend/internal/domain/ledger"
	"github.com/restoreops/backend/internal/domain/shared"
	"github.com/restoreops/backend/internal/domain/shared/valueobject"
	"github.com/restoreops/backend/internal/infrastructure/logger"
	"github.com/restoreops/backend/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	// ErrInvoiceNotPayable is returned when paying an entity that is not an approved invoice
	ErrInvoiceNotPayable = shared.NewNotAllowedError("INVOICE_NOT_PAYABLE", "Only approved invoices can be paid")
	// ErrOrganizationMismatch is returned when a payment spans accounting organizations
	ErrOrganizationMismatch = shared.NewNotAllowedError("ORGANIZATION_MISMATCH", "All invoices must belong to the same accounting organization")
	// ErrCreditNoteRequired is returned for credit-note payments without a credit note
	ErrCreditNoteRequired = shared.NewValidationError("CREDIT_NOTE_REQUIRED", "Credit note payments must reference a credit note")
	// ErrCreditNoteNotUsable is returned when the credit note is not approved or belongs elsewhere
	ErrCreditNoteNotUsable = shared.NewNotAllowedError("CREDIT_NOTE_NOT_USABLE", "Credit note must be approved and belong to the same accounting organization")
	// ErrCreditNoteExhausted is returned when the credit note cannot cover the payment
	ErrCreditNoteExhausted = shared.NewNotAllowedError("CREDIT_NOTE_EXHAUSTED", "Credit note remaining total does not cover the payment")
	// ErrUnsupportedPaymentType is returned for payment types that have their own entry point
	ErrUnsupportedPaymentType = shared.NewValidationError("UNSUPPORTED_PAYMENT_TYPE", "Payment type is not supported by this operation")
)

// AccountAmountInput is one side of a payment posting
type AccountAmountInput struct {
	AccountID uuid.UUID       `json:"account_id" validate:"required"`
	Amount    decimal.Decimal `json:"amount" validate:"gt=0"`
}

// CreatePaymentInput describes a raw payment between GL accounts
type CreatePaymentInput struct {
	Type                     finance.PaymentType  `json:"type" validate:"required"`
	Payable                  []AccountAmountInput `json:"payable" validate:"required,min=1,dive"`
	Receivable               []AccountAmountInput `json:"receivable" validate:"required,min=1,dive"`
	Amount                   decimal.Decimal      `json:"amount" validate:"gt=0"`
	Tax                      decimal.Decimal      `json:"tax" validate:"gte=0"`
	AccountingOrganizationID uuid.UUID            `json:"accounting_organization_id" validate:"required"`
	PaidAt                   *time.Time           `json:"paid_at"`
	Reference                string               `json:"reference" validate:"max=200"`
	UserID                   uuid.UUID            `json:"user_id" validate:"required"`
}

// InvoiceAllocationInput is the part of a payment applied to one invoice
type InvoiceAllocationInput struct {
	InvoiceID     uuid.UUID       `json:"invoice_id" validate:"required"`
	Amount        decimal.Decimal `json:"amount" validate:"gt=0"`
	IsForwardable bool            `json:"is_forwardable"`
}

// PayInvoicesInput pays one or more approved invoices. Amount is net of tax
// and must equal the sum of the invoice allocations.
type PayInvoicesInput struct {
	Type             finance.PaymentType      `json:"type" validate:"required"`
	Amount           decimal.Decimal          `json:"amount" validate:"gt=0"`
	Tax              decimal.Decimal          `json:"tax" validate:"gte=0"`
	DepositAccountID uuid.UUID                `json:"deposit_account_id" validate:"required"`
	Invoices         []InvoiceAllocationInput `json:"invoices" validate:"required,min=1,dive"`
	CreditNoteID     *uuid.UUID               `json:"credit_note_id"`
	PaidAt           *time.Time               `json:"paid_at"`
	Reference        string                   `json:"reference" validate:"max=200"`
	UserID           uuid.UUID                `json:"user_id" validate:"required"`
}

// Gross returns amount plus tax
func (in PayInvoicesInput) Gross() decimal.Decimal {
	return in.Amount.Add(in.Tax)
}

func (in PayInvoicesInput) invoiceIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(in.Invoices))
	seen := make(map[uuid.UUID]bool, len(in.Invoices))
	for _, inv := range in.Invoices {
		if !seen[inv.InvoiceID] {
			seen[inv.InvoiceID] = true
			ids = append(ids, inv.InvoiceID)
		}
	}
	return ids
}

// ensureAllocation checks that the invoice allocations add up to the net amount
func (in PayInvoicesInput) ensureAllocation() error {
	allocated := decimal.Zero
	for _, inv := range in.Invoices {
		allocated = allocated.Add(inv.Amount)
	}
	if !valueobject.Equal(allocated, in.Amount) {
		return finance.ErrAllocationMismatch
	}
	return nil
}

// InvoiceBalance summarizes what has been paid against an invoice. Payment
// allocations are net of tax, so they are measured against the subtotal.
type InvoiceBalance struct {
	InvoiceID   uuid.UUID       `json:"invoice_id"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	Tax         decimal.Decimal `json:"tax"`
	Total       decimal.Decimal `json:"total"`
	Paid        decimal.Decimal `json:"paid"`
	Outstanding decimal.Decimal `json:"outstanding"`
	FullyPaid   bool            `json:"fully_paid"`
}

// PaymentService records payments as ledger transactions and allocates them to invoices
type PaymentService struct {
	scope TransactionScope
	opts  options
}

// NewPaymentService creates a new PaymentService
func NewPaymentService(scope TransactionScope, opts ...Option) *PaymentService {
	return &PaymentService{scope: scope, opts: buildOptions(opts)}
}

// CreatePayment posts one ledger transaction that decreases every payable
// account and increases every receivable account, then records the payment.
func (s *PaymentService) CreatePayment(ctx context.Context, input CreatePaymentInput) (*finance.Payment, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "payment", "create")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrPaymentType, string(input.Type),
		telemetry.SpanAttrAmount, input.Amount,
		telemetry.SpanAttrUserID, input.UserID.String(),
	)

	if err := validateInput(input); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	var payment *finance.Payment
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		payment, err = s.createInScope(ctx, repos, paymentDraft{
			paymentType:    input.Type,
			organizationID: input.AccountingOrganizationID,
			payable:        input.Payable,
			receivable:     input.Receivable,
			amount:         input.Amount,
			tax:            input.Tax,
			paidAt:         utcPtr(input.PaidAt),
			reference:      input.Reference,
			userID:         input.UserID,
		})
		return err
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.afterCommit(ctx, payment)
	s.opts.publish(ctx, finance.NewPaymentCreatedEvent(payment))
	return payment, nil
}

// Pay records a payment against approved invoices. The organization's
// receivable account is decreased and the deposit account increased by the
// gross amount, and the payment is allocated to each invoice, all in one unit.
func (s *PaymentService) Pay(ctx context.Context, input PayInvoicesInput) (*finance.Payment, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "payment", "pay")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrPaymentType, string(input.Type),
		telemetry.SpanAttrAmount, input.Amount,
		"invoice_count", len(input.Invoices),
	)

	if input.Type == finance.PaymentTypeForwarded {
		telemetry.RecordError(span, ErrUnsupportedPaymentType)
		return nil, ErrUnsupportedPaymentType
	}
	if err := s.checkPayInput(input); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if input.PaidAt == nil && input.Type != finance.PaymentTypeCreditCard {
		now := s.opts.now()
		input.PaidAt = &now
	}

	var payment *finance.Payment
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		payment, err = s.payInScope(ctx, repos, input)
		return err
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	telemetry.SetAttribute(span, telemetry.SpanAttrPaymentID, payment.ID.String())
	s.afterCommit(ctx, payment)
	s.opts.publish(ctx, finance.NewPaymentCreatedEvent(payment))
	return payment, nil
}

// InvoiceBalance reports how much of an invoice has been paid
func (s *PaymentService) InvoiceBalance(ctx context.Context, invoiceID uuid.UUID) (*InvoiceBalance, error) {
	var balance *InvoiceBalance
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		invoice, err := repos.EntityRepo().FindByID(ctx, invoiceID)
		if err != nil {
			return fmt.Errorf("failed to load invoice: %w", err)
		}
		if invoice == nil || invoice.Kind != finance.KindInvoice {
			return shared.NewNotFoundError(ErrEntityNotFound.Code, fmt.Sprintf("Invoice %s not found", invoiceID))
		}
		payments, err := repos.PaymentRepo().FindInvoicePayments(ctx, invoiceID)
		if err != nil {
			return fmt.Errorf("failed to load invoice payments: %w", err)
		}

		paid := finance.SumPayments(payments)
		subtotal := invoice.Subtotal()
		outstanding := subtotal.Sub(paid)
		if outstanding.IsNegative() {
			outstanding = decimal.Zero
		}
		balance = &InvoiceBalance{
			InvoiceID:   invoiceID,
			Subtotal:    subtotal,
			Tax:         invoice.Tax(),
			Total:       invoice.Total(),
			Paid:        paid,
			Outstanding: outstanding,
			FullyPaid:   valueobject.GreaterThanOrEqual(paid, subtotal),
		}
		return nil
	})
	return balance, err
}

func (s *PaymentService) checkPayInput(input PayInvoicesInput) error {
	if err := validateInput(input); err != nil {
		return err
	}
	if !input.Type.IsValid() {
		return shared.NewValidationError("INVALID_PAYMENT_TYPE", "Invalid payment type")
	}
	if input.Type == finance.PaymentTypeCreditNote && input.CreditNoteID == nil {
		return ErrCreditNoteRequired
	}
	return input.ensureAllocation()
}

// payInScope runs the invoice payment inside the caller's unit
func (s *PaymentService) payInScope(ctx context.Context, repos TransactionalRepositories, input PayInvoicesInput) (*finance.Payment, error) {
	org, err := payableOrganization(ctx, repos, input.invoiceIDs())
	if err != nil {
		return nil, err
	}

	gross := input.Gross()
	if input.Type == finance.PaymentTypeCreditNote {
		if err := s.ensureCreditAvailable(ctx, repos, *input.CreditNoteID, org.ID, gross); err != nil {
			return nil, err
		}
	}

	return s.createInScope(ctx, repos, paymentDraft{
		paymentType:    input.Type,
		organizationID: org.ID,
		payable:        []AccountAmountInput{{AccountID: org.ReceivableAccountID, Amount: gross}},
		receivable:     []AccountAmountInput{{AccountID: input.DepositAccountID, Amount: gross}},
		amount:         gross,
		tax:            input.Tax,
		paidAt:         utcPtr(input.PaidAt),
		reference:      input.Reference,
		userID:         input.UserID,
		creditNoteID:   input.CreditNoteID,
		allocations:    input.Invoices,
	})
}

// payableOrganization checks that every invoice exists, is approved and
// belongs to one accounting organization, and returns that organization
func payableOrganization(ctx context.Context, repos TransactionalRepositories, ids []uuid.UUID) (*finance.AccountingOrganization, error) {
	invoices, err := repos.EntityRepo().FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load invoices: %w", err)
	}
	byID := make(map[uuid.UUID]*finance.FinancialEntity, len(invoices))
	for i := range invoices {
		byID[invoices[i].ID] = &invoices[i]
	}

	var organizationID uuid.UUID
	for _, id := range ids {
		invoice, ok := byID[id]
		if !ok {
			return nil, shared.NewNotFoundError(ErrEntityNotFound.Code, fmt.Sprintf("Invoice %s not found", id))
		}
		if invoice.Kind != finance.KindInvoice || !invoice.IsApproved() {
			return nil, ErrInvoiceNotPayable
		}
		if organizationID == uuid.Nil {
			organizationID = invoice.AccountingOrganizationID
		} else if invoice.AccountingOrganizationID != organizationID {
			return nil, ErrOrganizationMismatch
		}
	}

	org, err := repos.OrganizationRepo().FindByID(ctx, organizationID)
	if err != nil {
		return nil, fmt.Errorf("failed to load accounting organization: %w", err)
	}
	if org == nil {
		return nil, ErrOrganizationNotFound
	}
	return org, nil
}

// ensureCreditAvailable checks the credit note is approved and its total,
// less what earlier payments drew from it, covers amount
func (s *PaymentService) ensureCreditAvailable(ctx context.Context, repos TransactionalRepositories, creditNoteID, organizationID uuid.UUID, amount decimal.Decimal) error {
	note, err := repos.EntityRepo().FindByIDForUpdate(ctx, creditNoteID)
	if err != nil {
		return fmt.Errorf("failed to load credit note: %w", err)
	}
	if note == nil || note.Kind != finance.KindCreditNote {
		return shared.NewNotFoundError(ErrEntityNotFound.Code, fmt.Sprintf("Credit note %s not found", creditNoteID))
	}
	if !note.IsApproved() || note.AccountingOrganizationID != organizationID {
		return ErrCreditNoteNotUsable
	}
	drawn, err := repos.PaymentRepo().FindByCreditNote(ctx, creditNoteID)
	if err != nil {
		return fmt.Errorf("failed to load credit note payments: %w", err)
	}
	used := decimal.Zero
	for _, p := range drawn {
		used = used.Add(p.Amount)
	}
	if valueobject.LessThan(note.Total().Sub(used), amount) {
		return ErrCreditNoteExhausted
	}
	return nil
}

// paymentDraft is everything needed to post and record one payment
type paymentDraft struct {
	paymentType    finance.PaymentType
	organizationID uuid.UUID
	payable        []AccountAmountInput
	receivable     []AccountAmountInput
	amount         decimal.Decimal
	tax            decimal.Decimal
	paidAt         *time.Time
	reference      string
	userID         uuid.UUID
	creditNoteID   *uuid.UUID
	allocations    []InvoiceAllocationInput
}

// createInScope posts the ledger transaction and persists the payment with
// its invoice allocations inside the caller's unit
func (s *PaymentService) createInScope(ctx context.Context, repos TransactionalRepositories, d paymentDraft) (*finance.Payment, error) {
	ids := make([]uuid.UUID, 0, len(d.payable)+len(d.receivable))
	for _, side := range [][]AccountAmountInput{d.payable, d.receivable} {
		for _, aa := range side {
			ids = append(ids, aa.AccountID)
		}
	}
	accounts, err := loadAccounts(ctx, repos, ids)
	if err != nil {
		return nil, err
	}

	pending := ledger.NewPendingTransaction(fmt.Sprintf("%s payment", d.paymentType))
	for _, aa := range d.payable {
		if err := pending.Decrease(accounts[aa.AccountID], aa.Amount); err != nil {
			return nil, err
		}
	}
	for _, aa := range d.receivable {
		account := accounts[aa.AccountID]
		if !account.EnablePaymentsToAccount {
			return nil, shared.NewNotAllowedError(finance.ErrPaymentsDisabled.Code,
				fmt.Sprintf("GL account %s does not accept payments", account.Code))
		}
		if err := pending.Increase(account, aa.Amount); err != nil {
			return nil, err
		}
	}

	transactionID, err := s.opts.poster(repos).Commit(ctx, pending)
	if err != nil {
		return nil, err
	}

	payment, err := finance.NewPayment(d.paymentType, d.organizationID, transactionID, d.userID, d.amount, d.tax, d.paidAt, d.reference)
	if err != nil {
		return nil, err
	}
	payment.CreditNoteID = d.creditNoteID
	for _, alloc := range d.allocations {
		if err := payment.Attach(alloc.InvoiceID, alloc.Amount, alloc.IsForwardable); err != nil {
			return nil, err
		}
	}
	if len(d.allocations) > 0 {
		if err := payment.EnsureAllocationMatches(); err != nil {
			return nil, err
		}
	}

	if err := repos.PaymentRepo().Create(ctx, payment); err != nil {
		return nil, fmt.Errorf("failed to create payment: %w", err)
	}
	return payment, nil
}

func (s *PaymentService) afterCommit(ctx context.Context, payment *finance.Payment) {
	s.opts.metrics.RecordPayment(ctx, string(payment.Type), payment.Amount)
	logger.Enrich(ctx, s.opts.logger).Info("payment recorded",
		zap.String("payment_id", payment.ID.String()),
		zap.String("type", string(payment.Type)),
		zap.String("amount", payment.Amount.StringFixed(2)),
		zap.String("transaction_id", payment.TransactionID.String()),
		zap.Int("invoices", len(payment.Invoices)),
	)
}
