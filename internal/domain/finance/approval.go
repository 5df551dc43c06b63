package finance

import (
	"time"

	"github.com/google/uuid"
	"github.com/restoreops/backend/internal/domain/shared"
	"github.com/restoreops/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// ErrApproverNotPermitted is returned when an approver lacks location or limit
var ErrApproverNotPermitted = shared.NewNotAllowedError("APPROVER_NOT_PERMITTED", "User is not permitted to approve this entity")

// ApproveRequest invites a specific user to approve a specific entity
type ApproveRequest struct {
	ID          uuid.UUID  `json:"id"`
	EntityID    uuid.UUID  `json:"entity_id"`
	ApproverID  uuid.UUID  `json:"approver_id"`
	RequesterID uuid.UUID  `json:"requester_id"`
	ApprovedAt  *time.Time `json:"approved_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// NewApproveRequest creates an open approve request
func NewApproveRequest(entityID, approverID, requesterID uuid.UUID, now time.Time) *ApproveRequest {
	return &ApproveRequest{
		ID:          shared.NewID(),
		EntityID:    entityID,
		ApproverID:  approverID,
		RequesterID: requesterID,
		CreatedAt:   now.UTC(),
	}
}

// IsOpen returns true while the request has not been approved
func (r *ApproveRequest) IsOpen() bool {
	return r.ApprovedAt == nil
}

// MarkApproved stamps the request as satisfied
func (r *ApproveRequest) MarkApproved(now time.Time) {
	t := now.UTC()
	r.ApprovedAt = &t
}

// Approver is the identity collaborator's view of a user's approval rights
type Approver struct {
	UserID                    uuid.UUID       `json:"user_id"`
	PrimaryLocationID         uuid.UUID       `json:"primary_location_id"`
	LocationIDs               []uuid.UUID     `json:"location_ids"`
	InvoiceApproveLimit       decimal.Decimal `json:"invoice_approve_limit"`
	CreditNoteApproveLimit    decimal.Decimal `json:"credit_note_approve_limit"`
	PurchaseOrderApproveLimit decimal.Decimal `json:"purchase_order_approve_limit"`
}

// HasLocation reports whether the user belongs to the location
func (a *Approver) HasLocation(locationID uuid.UUID) bool {
	if a.PrimaryLocationID == locationID {
		return true
	}
	for _, id := range a.LocationIDs {
		if id == locationID {
			return true
		}
	}
	return false
}

// LimitFor returns the user's approval limit for an entity kind
func (a *Approver) LimitFor(kind EntityKind) decimal.Decimal {
	switch kind {
	case KindInvoice:
		return a.InvoiceApproveLimit
	case KindCreditNote:
		return a.CreditNoteApproveLimit
	case KindPurchaseOrder:
		return a.PurchaseOrderApproveLimit
	}
	return decimal.Zero
}

// CanApprove checks location membership and a sufficient limit
func CanApprove(approver *Approver, limit decimal.Decimal, entity *FinancialEntity) bool {
	if approver == nil || entity == nil {
		return false
	}
	return approver.HasLocation(entity.LocationID) &&
		valueobject.GreaterThanOrEqual(limit, entity.Total())
}
