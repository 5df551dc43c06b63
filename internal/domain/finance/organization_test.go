package finance

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 9, 30, 0, 0, time.UTC)
}

func TestIsDateOpenForPosting(t *testing.T) {
	org, err := NewAccountingOrganization(uuid.New(), "Sydney", 15)
	require.NoError(t, err)

	tests := []struct {
		name string
		date time.Time
		now  time.Time
		want bool
	}{
		{"before lock day in current cycle", day(2026, 6, 10), day(2026, 6, 20), false},
		{"on lock day", day(2026, 6, 15), day(2026, 6, 20), true},
		{"after lock day", day(2026, 6, 18), day(2026, 6, 20), true},
		{"future date", day(2026, 7, 2), day(2026, 6, 20), true},
		{"previous cycle still open before lock day", day(2026, 5, 16), day(2026, 6, 10), true},
		{"older than previous lock day", day(2026, 5, 14), day(2026, 6, 10), false},
		{"january rolls back to december", day(2025, 12, 15), day(2026, 1, 3), true},
		{"january rolls back to december closed", day(2025, 12, 14), day(2026, 1, 3), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsDateOpenForPosting(org, tt.date, tt.now))
		})
	}
}

func TestIsDateOpenForPostingClampsLockDay(t *testing.T) {
	org, err := NewAccountingOrganization(uuid.New(), "Perth", 31)
	require.NoError(t, err)

	start, locked := OpenPeriodStart(org, day(2026, 2, 28))
	require.True(t, locked)
	assert.Equal(t, 28, start.Day())
	assert.Equal(t, time.February, start.Month())

	assert.True(t, IsDateOpenForPosting(org, day(2026, 2, 28), day(2026, 3, 5)))
	assert.False(t, IsDateOpenForPosting(org, day(2026, 2, 27), day(2026, 3, 5)))
}

func TestIsDateOpenForPostingComparesUTCDays(t *testing.T) {
	org, err := NewAccountingOrganization(uuid.New(), "Brisbane", 15)
	require.NoError(t, err)

	newYork := time.FixedZone("EDT", -4*60*60)
	now := time.Date(2026, 5, 20, 9, 0, 0, 0, newYork)

	start, locked := OpenPeriodStart(org, now)
	require.True(t, locked)
	assert.Equal(t, time.Date(2026, 5, 15, 0, 0, 0, 0, time.UTC), start)

	assert.True(t, IsDateOpenForPosting(org, time.Date(2026, 5, 15, 0, 0, 0, 0, time.UTC), now))
	assert.False(t, IsDateOpenForPosting(org, time.Date(2026, 5, 14, 23, 59, 0, 0, time.UTC), now))
	// 22:00 EDT on the 14th is already the 15th in UTC
	assert.True(t, IsDateOpenForPosting(org, time.Date(2026, 5, 14, 22, 0, 0, 0, newYork), now))
}

func TestIsDateOpenForPostingWithoutLock(t *testing.T) {
	org, err := NewAccountingOrganization(uuid.New(), "Darwin", 0)
	require.NoError(t, err)
	assert.True(t, IsDateOpenForPosting(org, day(2001, 1, 1), day(2026, 6, 20)))
	assert.NoError(t, EnsureDateOpen(org, day(2001, 1, 1), day(2026, 6, 20)))
}

func TestEnsureDateOpen(t *testing.T) {
	org, err := NewAccountingOrganization(uuid.New(), "Sydney", 15)
	require.NoError(t, err)
	assert.ErrorIs(t, EnsureDateOpen(org, day(2026, 6, 10), day(2026, 6, 20)), ErrPeriodClosed)
}

func TestNewAccountingOrganizationValidation(t *testing.T) {
	_, err := NewAccountingOrganization(uuid.Nil, "x", 1)
	assert.Error(t, err)
	_, err = NewAccountingOrganization(uuid.New(), "x", 32)
	assert.Error(t, err)
}
