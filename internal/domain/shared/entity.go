package shared

import (
	"time"

	"github.com/google/uuid"
)

// BaseEntity carries identity and audit timestamps. Timestamps are UTC.
type BaseEntity struct {
	ID        uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewBaseEntity creates a BaseEntity with a fresh time-ordered id
func NewBaseEntity() BaseEntity {
	now := time.Now().UTC()
	return BaseEntity{
		ID:        NewID(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Touch bumps UpdatedAt
func (e *BaseEntity) Touch() {
	e.UpdatedAt = time.Now().UTC()
}

// BaseAggregateRoot marks the root of a consistency boundary: a financial
// entity with its items, or a payment with its attachments. Roots are
// loaded and saved whole inside one unit of work. Their events are raised
// by the application layer after that unit commits, never from the root.
type BaseAggregateRoot struct {
	BaseEntity
}

// NewBaseAggregateRoot creates a root with a fresh identity
func NewBaseAggregateRoot() BaseAggregateRoot {
	return BaseAggregateRoot{BaseEntity: NewBaseEntity()}
}

// NewID returns a time-ordered identifier. Ordering by id is ordering by
// creation, which the forwarding reconciliation relies on.
func NewID() uuid.UUID {
	id, err := uuid.NewV7()
	if err != nil {
		// NewV7 only fails when the random source fails
		return uuid.New()
	}
	return id
}
