package finance

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/restoreops/backend/internal/domain/finance"
	"github.com/restoreops/backend/internal/domain/ledger"
	"github.com/restoreops/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// ErrGLAccountNotFound is returned when a posting references an unknown GL account
var ErrGLAccountNotFound = shared.NewNotFoundError("GL_ACCOUNT_NOT_FOUND", "GL account not found")

// EntityPolicy supplies what differs between invoices, credit notes and
// purchase orders. The lifecycle engine itself is kind-agnostic.
type EntityPolicy interface {
	Kind() finance.EntityKind
	// ApproveLimit returns the approver's limit for this kind
	ApproveLimit(approver *finance.Approver) decimal.Decimal
	// TemplateName names the document template
	TemplateName() string
	// PostApproval runs inside the approval unit after the status change
	PostApproval(ctx context.Context, repos TransactionalRepositories, poster Poster, entity *finance.FinancialEntity, org *finance.AccountingOrganization) error
}

// Poster commits ledger transactions within the caller's unit
type Poster interface {
	Commit(ctx context.Context, pending *ledger.PendingTransaction) (uuid.UUID, error)
}

// postingPolicy posts the entity to the ledger on approval. Invoices
// increase receivable, revenue and tax payable; credit notes decrease them.
type postingPolicy struct {
	kind     finance.EntityKind
	template string
	increase bool
}

func (p postingPolicy) Kind() finance.EntityKind { return p.kind }

func (p postingPolicy) TemplateName() string { return p.template }

func (p postingPolicy) ApproveLimit(approver *finance.Approver) decimal.Decimal {
	return approver.LimitFor(p.kind)
}

func (p postingPolicy) PostApproval(
	ctx context.Context,
	repos TransactionalRepositories,
	poster Poster,
	entity *finance.FinancialEntity,
	org *finance.AccountingOrganization,
) error {
	lines := entity.SubtotalsByGLAccount()
	ids := make([]uuid.UUID, 0, len(lines)+2)
	ids = append(ids, org.ReceivableAccountID, org.TaxPayableAccountID)
	for _, l := range lines {
		ids = append(ids, l.GLAccountID)
	}
	accounts, err := loadAccounts(ctx, repos, ids)
	if err != nil {
		return err
	}

	post := (*ledger.PendingTransaction).Decrease
	if p.increase {
		post = (*ledger.PendingTransaction).Increase
	}

	pending := ledger.NewPendingTransaction(fmt.Sprintf("%s %s approved", entity.Kind.DisplayName(), entity.ID))
	if err := post(pending, accounts[org.ReceivableAccountID], entity.Total()); err != nil {
		return err
	}
	for _, l := range lines {
		if err := post(pending, accounts[l.GLAccountID], l.Amount); err != nil {
			return err
		}
	}
	if err := post(pending, accounts[org.TaxPayableAccountID], entity.Tax()); err != nil {
		return err
	}

	if _, err := poster.Commit(ctx, pending); err != nil {
		return err
	}
	return nil
}

// purchaseOrderPolicy posts nothing: a purchase order is a commitment, not a ledger event
type purchaseOrderPolicy struct{}

func (purchaseOrderPolicy) Kind() finance.EntityKind { return finance.KindPurchaseOrder }

func (purchaseOrderPolicy) TemplateName() string { return "purchase_order" }

func (purchaseOrderPolicy) ApproveLimit(approver *finance.Approver) decimal.Decimal {
	return approver.PurchaseOrderApproveLimit
}

func (purchaseOrderPolicy) PostApproval(context.Context, TransactionalRepositories, Poster, *finance.FinancialEntity, *finance.AccountingOrganization) error {
	return nil
}

// InvoicePolicy returns the invoice specialization
func InvoicePolicy() EntityPolicy {
	return postingPolicy{kind: finance.KindInvoice, template: "invoice", increase: true}
}

// CreditNotePolicy returns the credit note specialization
func CreditNotePolicy() EntityPolicy {
	return postingPolicy{kind: finance.KindCreditNote, template: "credit_note", increase: false}
}

// PurchaseOrderPolicy returns the purchase order specialization
func PurchaseOrderPolicy() EntityPolicy {
	return purchaseOrderPolicy{}
}

// NewInvoiceService creates the lifecycle service for invoices
func NewInvoiceService(scope TransactionScope, directory ApproverDirectory, opts ...Option) *LifecycleService {
	return NewLifecycleService(InvoicePolicy(), scope, directory, opts...)
}

// NewCreditNoteService creates the lifecycle service for credit notes
func NewCreditNoteService(scope TransactionScope, directory ApproverDirectory, opts ...Option) *LifecycleService {
	return NewLifecycleService(CreditNotePolicy(), scope, directory, opts...)
}

// NewPurchaseOrderService creates the lifecycle service for purchase orders
func NewPurchaseOrderService(scope TransactionScope, directory ApproverDirectory, opts ...Option) *LifecycleService {
	return NewLifecycleService(PurchaseOrderPolicy(), scope, directory, opts...)
}

// loadAccounts loads GL accounts by id, failing if any is missing
func loadAccounts(ctx context.Context, repos TransactionalRepositories, ids []uuid.UUID) (map[uuid.UUID]*ledger.GLAccount, error) {
	unique := make([]uuid.UUID, 0, len(ids))
	seen := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}

	found, err := repos.GLAccountRepo().FindByIDs(ctx, unique)
	if err != nil {
		return nil, fmt.Errorf("failed to load GL accounts: %w", err)
	}
	accounts := make(map[uuid.UUID]*ledger.GLAccount, len(found))
	for i := range found {
		accounts[found[i].ID] = &found[i]
	}
	for _, id := range unique {
		if _, ok := accounts[id]; !ok {
			return nil, shared.NewNotFoundError(ErrGLAccountNotFound.Code, fmt.Sprintf("GL account %s not found", id))
		}
	}
	return accounts, nil
}
