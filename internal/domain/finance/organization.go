package finance

import (
	"time"

	"github.com/google/uuid"
	"github.com/restoreops/backend/internal/domain/shared"
)

// ErrPeriodClosed is returned when an entity is dated before the open period
var ErrPeriodClosed = shared.NewNotAllowedError("PERIOD_CLOSED", "Date falls in a closed financial period")

// AccountingOrganization owns a chart of accounts for a location and
// configures its month-end close.
type AccountingOrganization struct {
	shared.BaseEntity
	LocationID          uuid.UUID `json:"location_id"`
	Name                string    `json:"name"`
	IsActive            bool      `json:"is_active"`
	LockDayOfMonth      int       `json:"lock_day_of_month"` // 0 disables the lock
	ReceivableAccountID uuid.UUID `json:"receivable_account_id"`
	TaxPayableAccountID uuid.UUID `json:"tax_payable_account_id"`
}

// NewAccountingOrganization creates an active organization
func NewAccountingOrganization(locationID uuid.UUID, name string, lockDay int) (*AccountingOrganization, error) {
	if locationID == uuid.Nil {
		return nil, shared.NewValidationError("INVALID_LOCATION", "Location cannot be empty")
	}
	if lockDay < 0 || lockDay > 31 {
		return nil, shared.NewValidationError("INVALID_LOCK_DAY", "Lock day must be between 0 and 31")
	}
	return &AccountingOrganization{
		BaseEntity:     shared.NewBaseEntity(),
		LocationID:     locationID,
		Name:           name,
		IsActive:       true,
		LockDayOfMonth: lockDay,
	}, nil
}

// OpenPeriodStart returns the first open day of the current cycle as a UTC
// midnight, and false when the organization has no lock configured.
func OpenPeriodStart(org *AccountingOrganization, now time.Time) (time.Time, bool) {
	if org == nil || org.LockDayOfMonth <= 0 {
		return time.Time{}, false
	}
	y, m, day := now.UTC().Date()
	if day < clampDay(y, m, org.LockDayOfMonth) {
		m--
		if m < time.January {
			m = time.December
			y--
		}
	}
	return time.Date(y, m, clampDay(y, m, org.LockDayOfMonth), 0, 0, 0, 0, time.UTC), true
}

// IsDateOpenForPosting reports whether date is on or after the start of the
// organization's current open period. Both days are taken in UTC.
func IsDateOpenForPosting(org *AccountingOrganization, date, now time.Time) bool {
	start, locked := OpenPeriodStart(org, now)
	if !locked {
		return true
	}
	y, m, d := date.UTC().Date()
	return !time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Before(start)
}

// EnsureDateOpen returns ErrPeriodClosed when date is not open for posting
func EnsureDateOpen(org *AccountingOrganization, date, now time.Time) error {
	if !IsDateOpenForPosting(org, date, now) {
		return ErrPeriodClosed
	}
	return nil
}

func clampDay(year int, month time.Month, day int) int {
	last := time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
	if day > last {
		return last
	}
	return day
}
