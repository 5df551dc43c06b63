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

// ErrUserNotFound is returned when the forwarding user has no profile
var ErrUserNotFound = shared.NewNotFoundError("USER_NOT_FOUND", "User not found")

// ForwardInput moves received invoice funds from a bank account to a destination account
type ForwardInput struct {
	SourceAccountID      uuid.UUID   `json:"source_account_id" validate:"required"`
	DestinationAccountID uuid.UUID   `json:"destination_account_id" validate:"required"`
	UserID               uuid.UUID   `json:"user_id" validate:"required"`
	InvoiceIDs           []uuid.UUID `json:"invoice_ids"`
	RemittanceReference  string      `json:"remittance_reference" validate:"max=200"`
	TransferredAt        *time.Time  `json:"transferred_at"`
}

// ForwardResult is what a forwarding created
type ForwardResult struct {
	Payment          *finance.Payment          `json:"payment"`
	ForwardedPayment *finance.ForwardedPayment `json:"forwarded_payment"`
	Funds            decimal.Decimal           `json:"funds"`
}

// ForwardingService finds invoice payments that have not been passed on yet
// and forwards their funds.
type ForwardingService struct {
	payments  *PaymentService
	directory ApproverDirectory
	opts      options
}

// NewForwardingService creates a new ForwardingService
func NewForwardingService(payments *PaymentService, directory ApproverDirectory, opts ...Option) *ForwardingService {
	return &ForwardingService{
		payments:  payments,
		directory: directory,
		opts:      buildOptions(opts),
	}
}

// Unforwarded lists the forwardable invoice payments at a location whose
// funds have not been forwarded, optionally limited to invoiceIDs
func (s *ForwardingService) Unforwarded(ctx context.Context, locationID uuid.UUID, invoiceIDs []uuid.UUID) ([]finance.InvoicePayment, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "forwarding", "unforwarded")
	defer span.End()
	telemetry.SetAttribute(span, telemetry.SpanAttrLocationID, locationID.String())

	var payments []finance.InvoicePayment
	err := s.payments.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		payments, err = s.unforwardedInScope(ctx, repos, locationID, invoiceIDs)
		return err
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetAttribute(span, "unforwarded_count", len(payments))
	return payments, nil
}

func (s *ForwardingService) unforwardedInScope(ctx context.Context, repos TransactionalRepositories, locationID uuid.UUID, invoiceIDs []uuid.UUID) ([]finance.InvoicePayment, error) {
	payments, err := repos.PaymentRepo().FindForwardable(ctx, locationID, invoiceIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load forwardable payments: %w", err)
	}
	if len(payments) == 0 {
		return nil, nil
	}

	scope := invoiceIDs
	if len(scope) == 0 {
		for _, g := range finance.GroupByInvoice(payments) {
			scope = append(scope, g.InvoiceID)
		}
	}
	aggregates, err := repos.ForwardedPaymentRepo().AggregateByInvoices(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate forwarded payments: %w", err)
	}
	return finance.UnforwardedPayments(payments, aggregates), nil
}

// Forward sums the unforwarded payments at the user's primary location and
// moves that amount from the source bank account to the destination account.
// The ledger transaction, the payment and the forwarded payment with its
// per-invoice amounts are written in one unit.
func (s *ForwardingService) Forward(ctx context.Context, input ForwardInput) (*ForwardResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "forwarding", "forward")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrAccountID, input.SourceAccountID.String(),
		"destination_account_id", input.DestinationAccountID.String(),
		telemetry.SpanAttrUserID, input.UserID.String(),
	)

	if err := validateInput(input); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if input.SourceAccountID == input.DestinationAccountID {
		telemetry.RecordError(span, finance.ErrSameAccount)
		return nil, finance.ErrSameAccount
	}
	user, err := s.directory.FindApprover(ctx, input.UserID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to resolve user: %w", err)
	}
	if user == nil {
		telemetry.RecordError(span, ErrUserNotFound)
		return nil, ErrUserNotFound
	}
	now := s.opts.now()
	transferredAt := now
	if input.TransferredAt != nil {
		transferredAt = *input.TransferredAt
	}
	transferredAt = transferredAt.UTC()

	var result ForwardResult
	err = s.payments.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		// Concurrent forwards from one account queue here so the same
		// payments are never forwarded twice.
		locked, err := repos.GLAccountRepo().FindByIDForUpdate(ctx, input.SourceAccountID)
		if err != nil {
			return fmt.Errorf("failed to lock source account: %w", err)
		}
		if locked == nil {
			return shared.NewNotFoundError(ErrGLAccountNotFound.Code, fmt.Sprintf("GL account %s not found", input.SourceAccountID))
		}
		accounts, err := loadAccounts(ctx, repos, []uuid.UUID{input.SourceAccountID, input.DestinationAccountID})
		if err != nil {
			return err
		}
		source := accounts[input.SourceAccountID]
		if !source.IsBankAccount() {
			return finance.ErrNotBankAccount
		}

		unforwarded, err := s.unforwardedInScope(ctx, repos, user.PrimaryLocationID, input.InvoiceIDs)
		if err != nil {
			return err
		}
		funds := finance.SumPayments(unforwarded)
		if !valueobject.IsPositive(funds) {
			return finance.ErrNothingToForward
		}

		records, err := repos.LedgerTransactionRepo().FindRecordsByAccount(ctx, source.ID, shared.DateRange{})
		if err != nil {
			return fmt.Errorf("failed to load source account records: %w", err)
		}
		balance, err := ledger.ReplayBalance(source, records)
		if err != nil {
			return err
		}
		if !valueobject.IsPositive(balance.Balance) || valueobject.LessThan(balance.Balance, funds) {
			return shared.NewNotAllowedError(finance.ErrInsufficientFunds.Code,
				fmt.Sprintf("Source account balance %s cannot cover %s", balance.Balance.StringFixed(2), funds.StringFixed(2)))
		}

		payment, err := s.payments.createInScope(ctx, repos, paymentDraft{
			paymentType:    finance.PaymentTypeForwarded,
			organizationID: source.AccountingOrganizationID,
			payable:        []AccountAmountInput{{AccountID: source.ID, Amount: funds}},
			receivable:     []AccountAmountInput{{AccountID: input.DestinationAccountID, Amount: funds}},
			amount:         funds,
			tax:            decimal.Zero,
			paidAt:         &transferredAt,
			reference:      input.RemittanceReference,
			userID:         input.UserID,
		})
		if err != nil {
			return err
		}

		forwarded := finance.NewForwardedPayment(payment.ID, input.RemittanceReference, transferredAt, now, unforwarded)
		if err := repos.ForwardedPaymentRepo().Create(ctx, forwarded); err != nil {
			return fmt.Errorf("failed to create forwarded payment: %w", err)
		}

		result = ForwardResult{Payment: payment, ForwardedPayment: forwarded, Funds: funds}
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	telemetry.SetAttributes(span,
		telemetry.SpanAttrPaymentID, result.Payment.ID.String(),
		telemetry.SpanAttrAmount, result.Funds,
	)
	s.opts.metrics.RecordForwarding(ctx, result.Funds)
	s.payments.afterCommit(ctx, result.Payment)
	logger.Enrich(ctx, s.opts.logger).Info("payments forwarded",
		zap.String("forwarded_payment_id", result.ForwardedPayment.ID.String()),
		zap.String("funds", result.Funds.StringFixed(2)),
		zap.Int("invoices", len(result.ForwardedPayment.Invoices)),
	)
	s.opts.publish(ctx,
		finance.NewPaymentCreatedEvent(result.Payment),
		finance.NewPaymentForwardedEvent(result.ForwardedPayment),
	)
	return &result, nil
}
