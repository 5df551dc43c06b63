package finance_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	appfinance "github.com/restoreops/backend/internal/application/finance"
	"github.com/restoreops/backend/internal/domain/finance"
	"github.com/restoreops/backend/tests/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 5, 20, 9, 0, 0, 0, time.UTC)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// env wires every finance service against one seeded database
type env struct {
	f         *testutil.FinanceFixture
	publisher *testutil.RecordingPublisher
	approver  *finance.Approver

	invoices    *appfinance.LifecycleService
	creditNotes *appfinance.LifecycleService
	orders      *appfinance.LifecycleService
	payments    *appfinance.PaymentService
	forwarding  *appfinance.ForwardingService
}

func newEnv(t *testing.T, lockDay int, extra ...appfinance.Option) *env {
	t.Helper()
	f := testutil.NewFinanceFixture(t, lockDay)
	publisher := testutil.NewRecordingPublisher()

	opts := append([]appfinance.Option{
		appfinance.WithClock(testutil.FixedClock(fixedNow)),
		appfinance.WithEventPublisher(publisher),
	}, extra...)

	payments := appfinance.NewPaymentService(f.Scope, opts...)
	return &env{
		f:           f,
		publisher:   publisher,
		approver:    f.AddApprover(t, "approver", dec("10000")),
		invoices:    appfinance.NewInvoiceService(f.Scope, f.Directory, opts...),
		creditNotes: appfinance.NewCreditNoteService(f.Scope, f.Directory, opts...),
		orders:      appfinance.NewPurchaseOrderService(f.Scope, f.Directory, opts...),
		payments:    payments,
		forwarding:  appfinance.NewForwardingService(payments, f.Directory, opts...),
	}
}

func (e *env) createInput(qty int, unitCost string) appfinance.CreateEntityInput {
	return appfinance.CreateEntityInput{
		LocationID: e.f.LocationID,
		Recipient:  finance.Recipient{Name: "Jane Homeowner", Email: "jane@example.com"},
		Date:       fixedNow.AddDate(0, 0, -1),
		Reference:  "JOB-1001",
		Items: []appfinance.LineItemInput{{
			GSCode:      "WTR-01",
			Description: "Water extraction",
			Quantity:    qty,
			UnitCost:    dec(unitCost),
			GLAccountID: e.f.Sales.ID,
			TaxRate:     dec("0.1"),
		}},
		UserID: testutil.TestUserID(),
	}
}

func (e *env) create(t *testing.T, svc *appfinance.LifecycleService, qty int, unitCost string) *finance.FinancialEntity {
	t.Helper()
	entity, err := svc.Create(context.Background(), e.createInput(qty, unitCost))
	require.NoError(t, err)
	return entity
}

func (e *env) approved(t *testing.T, svc *appfinance.LifecycleService, qty int, unitCost string) *finance.FinancialEntity {
	t.Helper()
	entity := e.create(t, svc, qty, unitCost)
	approved, err := svc.Approve(context.Background(), entity.ID, e.approver.UserID)
	require.NoError(t, err)
	return approved
}

// pay records a direct deposit of amount net plus tax against one invoice
func (e *env) pay(t *testing.T, invoiceID uuid.UUID, amount, tax string, forwardable bool) *finance.Payment {
	t.Helper()
	payment, err := e.payments.Pay(context.Background(), appfinance.PayInvoicesInput{
		Type:             finance.PaymentTypeDirectDeposit,
		Amount:           dec(amount),
		Tax:              dec(tax),
		DepositAccountID: e.f.Bank.ID,
		Invoices: []appfinance.InvoiceAllocationInput{
			{InvoiceID: invoiceID, Amount: dec(amount), IsForwardable: forwardable},
		},
		UserID: testutil.TestUserID(),
	})
	require.NoError(t, err)
	return payment
}

// MockDocumentRenderer is a mock implementation of appfinance.DocumentRenderer
type MockDocumentRenderer struct {
	mock.Mock
}

func (m *MockDocumentRenderer) Render(ctx context.Context, view appfinance.DocumentView, templateName string) (string, error) {
	args := m.Called(ctx, view, templateName)
	return args.String(0), args.Error(1)
}

// MockDocumentStore is a mock implementation of appfinance.DocumentStore
type MockDocumentStore struct {
	mock.Mock
}

func (m *MockDocumentStore) CreateFromFile(ctx context.Context, path string) (uuid.UUID, error) {
	args := m.Called(ctx, path)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (m *MockDocumentStore) Delete(ctx context.Context, documentID uuid.UUID, force bool) error {
	args := m.Called(ctx, documentID, force)
	return args.Error(0)
}

// MockPaymentProcessor is a mock implementation of appfinance.PaymentProcessor
type MockPaymentProcessor struct {
	mock.Mock
}

func (m *MockPaymentProcessor) Process(ctx context.Context, req appfinance.CardPaymentRequest) (*appfinance.CardAuthorization, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appfinance.CardAuthorization), args.Error(1)
}

func (m *MockPaymentProcessor) Capture(ctx context.Context, req appfinance.CardPaymentRequest, token string) (*appfinance.CardCapture, error) {
	args := m.Called(ctx, req, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appfinance.CardCapture), args.Error(1)
}

// MockIdempotencyStore is a mock implementation of appfinance.IdempotencyStore
type MockIdempotencyStore struct {
	mock.Mock
}

func (m *MockIdempotencyStore) MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, key, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *MockIdempotencyStore) Forget(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}
