package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/google/uuid"
	"github.com/restoreops/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// dateLayout is the format accepted by --from, --to and --at
const dateLayout = "2006-01-02"

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	badStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
)

// newTable returns a bordered table with the given headers
func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("240"))).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers(headers...)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// parseDate accepts a calendar date or an RFC 3339 timestamp
func parseDate(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: want YYYY-MM-DD or RFC 3339", value)
	}
	return t, nil
}

// parseRange builds a DateRange from --from/--to. A bare --to date covers
// the whole day. Both empty yields nil, meaning all time.
func parseRange(from, to string) (*shared.DateRange, error) {
	if from == "" && to == "" {
		return nil, nil
	}
	var rng shared.DateRange
	if from != "" {
		t, err := parseDate(from)
		if err != nil {
			return nil, err
		}
		rng.From = t
	}
	if to != "" {
		t, err := parseDate(to)
		if err != nil {
			return nil, err
		}
		if !strings.Contains(to, "T") {
			t = t.Add(24*time.Hour - time.Nanosecond)
		}
		rng.To = t
	}
	if err := rng.Validate(); err != nil {
		return nil, err
	}
	return &rng, nil
}

func parseID(name, value string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(value))
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s %q: %w", name, value, err)
	}
	return id, nil
}

func parseIDs(name string, values []string) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(values))
	for _, v := range values {
		id, err := parseID(name, v)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
