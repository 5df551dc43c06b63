package finance

import (
	"bytes"
	"sort"

	"github.com/google/uuid"
	"github.com/restoreops/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// ForwardedAggregate is what has already been forwarded for one invoice
type ForwardedAggregate struct {
	InvoiceID              uuid.UUID
	LastForwardedPaymentID uuid.UUID
	ForwardedAmount        decimal.Decimal
}

// UnforwardedPayments returns the forwardable invoice payments whose funds
// have not been forwarded yet.
//
// Payments are walked per invoice in payment order with a running subtotal.
// A payment is unforwarded once the subtotal exceeds what has already been
// forwarded for its invoice, so an invoice that was forwarded after only
// some of its partial payments arrived yields the later payments. Invoices
// without any forwarded aggregate contribute all their payments.
func UnforwardedPayments(payments []InvoicePayment, aggregates []ForwardedAggregate) []InvoicePayment {
	ordered := make([]InvoicePayment, 0, len(payments))
	for _, p := range payments {
		if p.IsForwardable {
			ordered = append(ordered, p)
		}
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		if c := bytes.Compare(ordered[i].PaymentID[:], ordered[j].PaymentID[:]); c != 0 {
			return c < 0
		}
		return bytes.Compare(ordered[i].ID[:], ordered[j].ID[:]) < 0
	})

	if len(aggregates) == 0 {
		return ordered
	}

	forwarded := make(map[uuid.UUID]decimal.Decimal, len(aggregates))
	for _, a := range aggregates {
		forwarded[a.InvoiceID] = forwarded[a.InvoiceID].Add(a.ForwardedAmount)
	}

	running := make(map[uuid.UUID]decimal.Decimal)
	var out []InvoicePayment
	for _, p := range ordered {
		already, ok := forwarded[p.InvoiceID]
		if !ok {
			out = append(out, p)
			continue
		}
		subtotal := running[p.InvoiceID].Add(p.Amount)
		running[p.InvoiceID] = subtotal
		if valueobject.GreaterThan(subtotal, already) {
			out = append(out, p)
		}
	}
	return out
}

// SumPayments adds up invoice payment amounts
func SumPayments(payments []InvoicePayment) decimal.Decimal {
	total := decimal.Zero
	for _, p := range payments {
		total = total.Add(p.Amount)
	}
	return total
}
