package finance

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/restoreops/backend/internal/domain/finance"
	"github.com/restoreops/backend/internal/domain/shared"
	"github.com/restoreops/backend/internal/infrastructure/logger"
	"github.com/restoreops/backend/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

var (
	// ErrEntityNotFound is returned for unknown entity ids
	ErrEntityNotFound = shared.NewNotFoundError("ENTITY_NOT_FOUND", "Financial entity not found")
	// ErrNoActiveOrganization is returned when the location has no active accounting organization
	ErrNoActiveOrganization = shared.NewNotAllowedError("NO_ACTIVE_ORGANIZATION", "Location has no active accounting organization")
	// ErrOrganizationNotFound is returned when an entity's organization no longer exists
	ErrOrganizationNotFound = shared.NewNotFoundError("ORGANIZATION_NOT_FOUND", "Accounting organization not found")
	// ErrApproverNotFound is returned when a user has no approval profile
	ErrApproverNotFound = shared.NewNotFoundError("APPROVER_NOT_FOUND", "Approver not found")
	// ErrNoApprovers is returned when an approve request names nobody
	ErrNoApprovers = shared.NewValidationError("NO_APPROVERS", "At least one approver is required")
	// ErrDocumentsNotConfigured is returned when no renderer or store is wired
	ErrDocumentsNotConfigured = shared.NewNotAllowedError("DOCUMENTS_NOT_CONFIGURED", "Document generation is not configured")
)

// LineItemInput is a line item as supplied by the caller
type LineItemInput struct {
	GSCode          string          `json:"gs_code" validate:"max=50"`
	Description     string          `json:"description" validate:"max=1000"`
	Quantity        int             `json:"quantity" validate:"min=1"`
	UnitCost        decimal.Decimal `json:"unit_cost" validate:"gte=0"`
	DiscountPercent decimal.Decimal `json:"discount_percent" validate:"gte=0,lte=100"`
	MarkupPercent   decimal.Decimal `json:"markup_percent" validate:"gte=0"`
	GLAccountID     uuid.UUID       `json:"gl_account_id" validate:"required"`
	TaxRate         decimal.Decimal `json:"tax_rate" validate:"gte=0"`
}

func (in LineItemInput) toDomain() finance.LineItem {
	return finance.LineItem{
		GSCode:          in.GSCode,
		Description:     in.Description,
		Quantity:        in.Quantity,
		UnitCost:        in.UnitCost,
		DiscountPercent: in.DiscountPercent,
		MarkupPercent:   in.MarkupPercent,
		GLAccountID:     in.GLAccountID,
		TaxRate:         in.TaxRate,
	}
}

func lineItems(inputs []LineItemInput) []finance.LineItem {
	items := make([]finance.LineItem, len(inputs))
	for i, in := range inputs {
		items[i] = in.toDomain()
	}
	return items
}

// CreateEntityInput holds the data for a new entity
type CreateEntityInput struct {
	LocationID uuid.UUID         `json:"location_id" validate:"required"`
	Recipient  finance.Recipient `json:"recipient"`
	Date       time.Time         `json:"date" validate:"required"`
	DueAt      *time.Time        `json:"due_at"`
	Reference  string            `json:"reference" validate:"max=100"`
	Notes      string            `json:"notes"`
	Items      []LineItemInput   `json:"items" validate:"dive"`
	UserID     uuid.UUID         `json:"user_id" validate:"required"`
}

// UpdateEntityInput is a patch of the mutable fields. Nil fields are left
// unchanged; a non-nil Items replaces every line. Location, organization and
// document have no slot here and cannot be changed after creation.
type UpdateEntityInput struct {
	Date      *time.Time         `json:"date"`
	DueAt     *time.Time         `json:"due_at"`
	Recipient *finance.Recipient `json:"recipient"`
	Reference *string            `json:"reference" validate:"omitempty,max=100"`
	Notes     *string            `json:"notes"`
	Items     []LineItemInput    `json:"items" validate:"omitempty,dive"`
	UserID    uuid.UUID          `json:"user_id" validate:"required"`
}

// LifecycleService drives a financial entity from draft through approval.
// The policy supplies the kind-specific approval limit, template and ledger
// posting.
type LifecycleService struct {
	policy    EntityPolicy
	scope     TransactionScope
	directory ApproverDirectory
	opts      options
}

// NewLifecycleService creates a lifecycle service for one entity kind
func NewLifecycleService(policy EntityPolicy, scope TransactionScope, directory ApproverDirectory, opts ...Option) *LifecycleService {
	return &LifecycleService{
		policy:    policy,
		scope:     scope,
		directory: directory,
		opts:      buildOptions(opts),
	}
}

// Kind returns the entity kind this service manages
func (s *LifecycleService) Kind() finance.EntityKind {
	return s.policy.Kind()
}

func (s *LifecycleService) startSpan(ctx context.Context, method string) (context.Context, trace.Span) {
	ctx, span := telemetry.StartServiceSpan(ctx, strings.ToLower(string(s.policy.Kind())), method)
	telemetry.SetAttribute(span, telemetry.SpanAttrEntityKind, string(s.policy.Kind()))
	return ctx, span
}

// Create persists a new draft entity with its items. The location must
// have an active accounting organization and the date must fall in its
// open period.
func (s *LifecycleService) Create(ctx context.Context, input CreateEntityInput) (*finance.FinancialEntity, error) {
	ctx, span := s.startSpan(ctx, "create")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrLocationID, input.LocationID.String(),
		telemetry.SpanAttrUserID, input.UserID.String(),
	)

	if err := validateInput(input); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	var entity *finance.FinancialEntity
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		org, err := repos.OrganizationRepo().FindActiveByLocation(ctx, input.LocationID)
		if err != nil {
			return fmt.Errorf("failed to resolve accounting organization: %w", err)
		}
		if org == nil {
			return ErrNoActiveOrganization
		}
		if err := finance.EnsureDateOpen(org, input.Date, s.opts.now()); err != nil {
			return err
		}

		entity, err = finance.NewFinancialEntity(
			s.policy.Kind(),
			input.LocationID,
			org.ID,
			input.UserID,
			input.Recipient,
			input.Date.UTC(),
			lineItems(input.Items),
		)
		if err != nil {
			return err
		}
		entity.DueAt = utcPtr(input.DueAt)
		entity.Reference = input.Reference
		entity.Notes = input.Notes

		if err := s.ensureLineAccounts(ctx, repos, org, entity.Items); err != nil {
			return err
		}
		if err := repos.EntityRepo().Create(ctx, entity); err != nil {
			return fmt.Errorf("failed to create %s: %w", s.policy.Kind().DisplayName(), err)
		}
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	telemetry.SetAttribute(span, telemetry.SpanAttrEntityID, entity.ID.String())
	s.afterCommit(ctx, entity, finance.ActionCreated)
	s.opts.hooks.OnCreated(ctx, entity, input.UserID)
	return entity, nil
}

// Update applies a patch. Approved entities are immutable; locked entities
// can only be changed with force.
func (s *LifecycleService) Update(ctx context.Context, id uuid.UUID, patch UpdateEntityInput, force bool) (*finance.FinancialEntity, error) {
	ctx, span := s.startSpan(ctx, "update")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrEntityID, id.String(),
		"force", force,
	)

	if err := validateInput(patch); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	var entity *finance.FinancialEntity
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		entity, err = s.loadForUpdate(ctx, repos, id)
		if err != nil {
			return err
		}
		if err := entity.EnsureEditable(force); err != nil {
			return err
		}

		org, err := s.organization(ctx, repos, entity)
		if err != nil {
			return err
		}
		if patch.Date != nil && !patch.Date.Equal(entity.Date) {
			if err := finance.EnsureDateOpen(org, *patch.Date, s.opts.now()); err != nil {
				return err
			}
			entity.Date = patch.Date.UTC()
		}
		if patch.DueAt != nil {
			entity.DueAt = utcPtr(patch.DueAt)
		}
		if patch.Recipient != nil {
			entity.Recipient = *patch.Recipient
		}
		if patch.Reference != nil {
			entity.Reference = *patch.Reference
		}
		if patch.Notes != nil {
			entity.Notes = *patch.Notes
		}
		if patch.Items != nil {
			if err := entity.ReplaceItems(lineItems(patch.Items)); err != nil {
				return err
			}
			if err := s.ensureLineAccounts(ctx, repos, org, entity.Items); err != nil {
				return err
			}
		}
		entity.Touch()

		if err := repos.EntityRepo().Update(ctx, entity); err != nil {
			return fmt.Errorf("failed to update %s: %w", s.policy.Kind().DisplayName(), err)
		}
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.afterCommit(ctx, entity, finance.ActionUpdated)
	s.opts.hooks.OnUpdated(ctx, entity, patch.UserID)
	return entity, nil
}

// CreateApproveRequest invites approvers and locks the entity pending
// approval. Every approver must belong to the entity's location and hold a
// sufficient limit; the first one that does not fails the whole request.
// Approvers who already have an open request are skipped.
func (s *LifecycleService) CreateApproveRequest(ctx context.Context, id, requesterID uuid.UUID, approverIDs []uuid.UUID) ([]finance.ApproveRequest, error) {
	ctx, span := s.startSpan(ctx, "create_approve_request")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrEntityID, id.String(),
		telemetry.SpanAttrUserID, requesterID.String(),
		"approver_count", len(approverIDs),
	)

	if len(approverIDs) == 0 {
		telemetry.RecordError(span, ErrNoApprovers)
		return nil, ErrNoApprovers
	}
	approvers, err := s.resolveApprovers(ctx, approverIDs)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	var (
		entity  *finance.FinancialEntity
		created []finance.ApproveRequest
	)
	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		entity, err = s.loadForUpdate(ctx, repos, id)
		if err != nil {
			return err
		}
		if entity.IsApproved() {
			return finance.ErrAlreadyApproved
		}
		org, err := s.organization(ctx, repos, entity)
		if err != nil {
			return err
		}
		now := s.opts.now()
		if err := finance.EnsureDateOpen(org, entity.Date, now); err != nil {
			return err
		}
		for _, approver := range approvers {
			if !finance.CanApprove(approver, s.policy.ApproveLimit(approver), entity) {
				return shared.NewNotAllowedError(finance.ErrApproverNotPermitted.Code,
					fmt.Sprintf("User %s is not permitted to approve this %s", approver.UserID, strings.ToLower(s.policy.Kind().DisplayName())))
			}
		}

		existing, err := repos.ApproveRequestRepo().FindByEntity(ctx, entity.ID)
		if err != nil {
			return fmt.Errorf("failed to load approve requests: %w", err)
		}
		open := make(map[uuid.UUID]bool, len(existing))
		for _, r := range existing {
			if r.IsOpen() {
				open[r.ApproverID] = true
			}
		}
		for _, approver := range approvers {
			if open[approver.UserID] {
				continue
			}
			open[approver.UserID] = true
			created = append(created, *finance.NewApproveRequest(entity.ID, approver.UserID, requesterID, now))
		}

		if err := entity.Lock(requesterID, now); err != nil {
			return err
		}
		if err := repos.EntityRepo().Update(ctx, entity); err != nil {
			return fmt.Errorf("failed to lock %s: %w", s.policy.Kind().DisplayName(), err)
		}
		if err := repos.ApproveRequestRepo().CreateBatch(ctx, created); err != nil {
			return fmt.Errorf("failed to create approve requests: %w", err)
		}
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	invited := make([]uuid.UUID, len(created))
	for i, r := range created {
		invited[i] = r.ApproverID
	}
	telemetry.AddEvent(span, "approve_requests_created", "count", len(created))
	s.afterCommit(ctx, entity, finance.ActionApproveRequestCreated)
	s.opts.hooks.OnApproveRequestCreated(ctx, entity, requesterID, invited)
	return created, nil
}

// Approve moves the entity to its terminal state and posts it to the ledger
// in one unit. The entity row stays locked for the duration so concurrent
// approvals serialize and only the first succeeds.
func (s *LifecycleService) Approve(ctx context.Context, id, userID uuid.UUID) (*finance.FinancialEntity, error) {
	ctx, span := s.startSpan(ctx, "approve")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrEntityID, id.String(),
		telemetry.SpanAttrUserID, userID.String(),
	)

	approvers, err := s.resolveApprovers(ctx, []uuid.UUID{userID})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	approver := approvers[0]

	var entity *finance.FinancialEntity
	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		entity, err = s.loadForUpdate(ctx, repos, id)
		if err != nil {
			return err
		}
		if entity.IsApproved() {
			return finance.ErrAlreadyApproved
		}
		if !entity.CanBeApproved() {
			return finance.ErrZeroTotal
		}
		if !finance.CanApprove(approver, s.policy.ApproveLimit(approver), entity) {
			return finance.ErrApproverNotPermitted
		}
		org, err := s.organization(ctx, repos, entity)
		if err != nil {
			return err
		}

		now := s.opts.now()
		if err := entity.Approve(userID, now); err != nil {
			return err
		}
		if err := repos.EntityRepo().Update(ctx, entity); err != nil {
			return fmt.Errorf("failed to approve %s: %w", s.policy.Kind().DisplayName(), err)
		}
		if err := s.settleApproveRequests(ctx, repos, entity, userID, now); err != nil {
			return err
		}
		return s.policy.PostApproval(ctx, repos, s.opts.poster(repos), entity, org)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	telemetry.SetAttribute(span, telemetry.SpanAttrAmount, entity.Total())
	s.afterCommit(ctx, entity, finance.ActionApproved)
	s.opts.hooks.OnApproved(ctx, entity, userID)
	return entity, nil
}

// settleApproveRequests marks the approver's request approved, creating one
// when the approver acts on a draft directly, and deletes every sibling.
func (s *LifecycleService) settleApproveRequests(ctx context.Context, repos TransactionalRepositories, entity *finance.FinancialEntity, userID uuid.UUID, now time.Time) error {
	requests, err := repos.ApproveRequestRepo().FindByEntity(ctx, entity.ID)
	if err != nil {
		return fmt.Errorf("failed to load approve requests: %w", err)
	}
	var own *finance.ApproveRequest
	for i := range requests {
		if requests[i].ApproverID == userID && requests[i].IsOpen() {
			own = &requests[i]
			break
		}
	}
	if own == nil {
		own = finance.NewApproveRequest(entity.ID, userID, userID, now)
	}
	own.MarkApproved(now)
	if err := repos.ApproveRequestRepo().Save(ctx, own); err != nil {
		return fmt.Errorf("failed to save approve request: %w", err)
	}
	if err := repos.ApproveRequestRepo().DeleteByEntityExcept(ctx, entity.ID, own.ID); err != nil {
		return fmt.Errorf("failed to delete sibling approve requests: %w", err)
	}
	return nil
}

// Delete removes a draft that has no approve requests
func (s *LifecycleService) Delete(ctx context.Context, id, userID uuid.UUID) error {
	ctx, span := s.startSpan(ctx, "delete")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrEntityID, id.String(),
		telemetry.SpanAttrUserID, userID.String(),
	)

	var entity *finance.FinancialEntity
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		entity, err = s.loadForUpdate(ctx, repos, id)
		if err != nil {
			return err
		}
		count, err := repos.ApproveRequestRepo().CountByEntity(ctx, entity.ID)
		if err != nil {
			return fmt.Errorf("failed to count approve requests: %w", err)
		}
		if err := entity.EnsureDeletable(int(count)); err != nil {
			return err
		}
		if err := repos.EntityRepo().Delete(ctx, entity.ID); err != nil {
			return fmt.Errorf("failed to delete %s: %w", s.policy.Kind().DisplayName(), err)
		}
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return err
	}

	s.afterCommit(ctx, entity, finance.ActionDeleted)
	s.opts.hooks.OnDeleted(ctx, entity, userID)
	return nil
}

// GenerateDocument renders the entity, stores the file and records the new
// document id. The previously stored document is deleted afterwards; a
// failure there is logged and ignored since the new document already stands.
func (s *LifecycleService) GenerateDocument(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	ctx, span := s.startSpan(ctx, "generate_document")
	defer span.End()
	telemetry.SetAttribute(span, telemetry.SpanAttrEntityID, id.String())

	if s.opts.renderer == nil || s.opts.store == nil {
		telemetry.RecordError(span, ErrDocumentsNotConfigured)
		return uuid.Nil, ErrDocumentsNotConfigured
	}
	log := logger.Enrich(ctx, s.opts.logger)

	entity, err := s.Get(ctx, id)
	if err != nil {
		telemetry.RecordError(span, err)
		return uuid.Nil, err
	}

	path, err := s.opts.renderer.Render(ctx, NewDocumentView(entity, s.opts.now()), s.policy.TemplateName())
	if err != nil {
		telemetry.RecordError(span, err)
		return uuid.Nil, fmt.Errorf("failed to render document: %w", err)
	}
	documentID, err := s.opts.store.CreateFromFile(ctx, path)
	if err != nil {
		telemetry.RecordError(span, err)
		return uuid.Nil, fmt.Errorf("failed to store document: %w", err)
	}

	var previous *uuid.UUID
	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		current, err := s.loadForUpdate(ctx, repos, id)
		if err != nil {
			return err
		}
		previous = current.SetDocument(documentID)
		if err := repos.EntityRepo().Update(ctx, current); err != nil {
			return fmt.Errorf("failed to save document reference: %w", err)
		}
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		if delErr := s.opts.store.Delete(ctx, documentID, true); delErr != nil {
			log.Warn("failed to delete orphaned document",
				zap.String("document_id", documentID.String()),
				zap.Error(delErr),
			)
		}
		return uuid.Nil, err
	}

	if previous != nil && *previous != documentID {
		if err := s.opts.store.Delete(ctx, *previous, true); err != nil {
			log.Warn("failed to delete superseded document",
				zap.String("entity_id", id.String()),
				zap.String("document_id", previous.String()),
				zap.Error(err),
			)
		}
	}

	telemetry.SetAttribute(span, "document_id", documentID.String())
	log.Info("document generated",
		zap.String("kind", string(s.policy.Kind())),
		zap.String("entity_id", id.String()),
		zap.String("document_id", documentID.String()),
	)
	return documentID, nil
}

// Get returns an entity of this service's kind
func (s *LifecycleService) Get(ctx context.Context, id uuid.UUID) (*finance.FinancialEntity, error) {
	var entity *finance.FinancialEntity
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		found, err := repos.EntityRepo().FindByID(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to load %s: %w", s.policy.Kind().DisplayName(), err)
		}
		if found == nil || found.Kind != s.policy.Kind() {
			return s.notFound(id)
		}
		entity = found
		return nil
	})
	return entity, err
}

// List returns entities of this service's kind matching filter
func (s *LifecycleService) List(ctx context.Context, filter finance.EntityFilter) ([]finance.FinancialEntity, error) {
	kind := s.policy.Kind()
	filter.Kind = &kind
	var entities []finance.FinancialEntity
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		entities, err = repos.EntityRepo().FindAll(ctx, filter)
		return err
	})
	return entities, err
}

// ListApproveRequests returns an entity's approve requests, oldest first
func (s *LifecycleService) ListApproveRequests(ctx context.Context, id uuid.UUID) ([]finance.ApproveRequest, error) {
	var requests []finance.ApproveRequest
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		entity, err := repos.EntityRepo().FindByID(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to load %s: %w", s.policy.Kind().DisplayName(), err)
		}
		if entity == nil || entity.Kind != s.policy.Kind() {
			return s.notFound(id)
		}
		requests, err = repos.ApproveRequestRepo().FindByEntity(ctx, id)
		return err
	})
	return requests, err
}

func (s *LifecycleService) loadForUpdate(ctx context.Context, repos TransactionalRepositories, id uuid.UUID) (*finance.FinancialEntity, error) {
	entity, err := repos.EntityRepo().FindByIDForUpdate(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", s.policy.Kind().DisplayName(), err)
	}
	if entity == nil || entity.Kind != s.policy.Kind() {
		return nil, s.notFound(id)
	}
	return entity, nil
}

func (s *LifecycleService) organization(ctx context.Context, repos TransactionalRepositories, entity *finance.FinancialEntity) (*finance.AccountingOrganization, error) {
	org, err := repos.OrganizationRepo().FindByID(ctx, entity.AccountingOrganizationID)
	if err != nil {
		return nil, fmt.Errorf("failed to load accounting organization: %w", err)
	}
	if org == nil {
		return nil, ErrOrganizationNotFound
	}
	return org, nil
}

// resolveApprovers looks users up before any unit is opened, in the order given
func (s *LifecycleService) resolveApprovers(ctx context.Context, userIDs []uuid.UUID) ([]*finance.Approver, error) {
	seen := make(map[uuid.UUID]bool, len(userIDs))
	approvers := make([]*finance.Approver, 0, len(userIDs))
	for _, id := range userIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		approver, err := s.directory.FindApprover(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve approver: %w", err)
		}
		if approver == nil {
			return nil, shared.NewNotFoundError(ErrApproverNotFound.Code, fmt.Sprintf("Approver %s not found", id))
		}
		approvers = append(approvers, approver)
	}
	return approvers, nil
}

// ensureLineAccounts checks that every line posts to an account of org
func (s *LifecycleService) ensureLineAccounts(ctx context.Context, repos TransactionalRepositories, org *finance.AccountingOrganization, items []finance.LineItem) error {
	if len(items) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, len(items))
	for i, item := range items {
		ids[i] = item.GLAccountID
	}
	accounts, err := loadAccounts(ctx, repos, ids)
	if err != nil {
		return err
	}
	for _, account := range accounts {
		if account.AccountingOrganizationID != org.ID {
			return shared.NewValidationError("GL_ACCOUNT_ORGANIZATION_MISMATCH",
				fmt.Sprintf("GL account %s belongs to another accounting organization", account.Code))
		}
	}
	return nil
}

func (s *LifecycleService) notFound(id uuid.UUID) error {
	return shared.NewNotFoundError(ErrEntityNotFound.Code, fmt.Sprintf("%s %s not found", s.policy.Kind().DisplayName(), id))
}

func (s *LifecycleService) afterCommit(ctx context.Context, entity *finance.FinancialEntity, action finance.EntityAction) {
	s.opts.metrics.RecordTransition(ctx, string(entity.Kind), string(action))
	logger.Enrich(ctx, s.opts.logger).Info("financial entity transition",
		zap.String("action", string(action)),
		zap.String("kind", string(entity.Kind)),
		zap.String("entity_id", entity.ID.String()),
		zap.String("status", string(entity.Status())),
		zap.String("total", entity.Total().StringFixed(2)),
	)
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
