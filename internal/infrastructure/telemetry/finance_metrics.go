package telemetry

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// FinanceMetrics records ledger and approval activity.
// A nil *FinanceMetrics is valid and records nothing.
type FinanceMetrics struct {
	transactionsCommitted metric.Int64Counter
	entityTransitions     metric.Int64Counter
	paymentsRecorded      metric.Int64Counter
	paymentAmount         metric.Float64Histogram
	forwardedFunds        metric.Float64Histogram
}

// NewFinanceMetrics creates the finance instruments on meter.
func NewFinanceMetrics(meter metric.Meter) (*FinanceMetrics, error) {
	var (
		fm  FinanceMetrics
		err error
	)
	counters := []struct {
		dst              *metric.Int64Counter
		name, desc, unit string
	}{
		{&fm.transactionsCommitted, "ledger_transactions_committed_total", "Ledger transactions committed", "{transaction}"},
		{&fm.entityTransitions, "financial_entity_transitions_total", "Financial entity lifecycle transitions", "{transition}"},
		{&fm.paymentsRecorded, "payments_recorded_total", "Payments recorded", "{payment}"},
	}
	for _, c := range counters {
		if *c.dst, err = meter.Int64Counter(c.name, metric.WithDescription(c.desc), metric.WithUnit(c.unit)); err != nil {
			return nil, fmt.Errorf("failed to create counter %s: %w", c.name, err)
		}
	}
	if fm.paymentAmount, err = meter.Float64Histogram("payment_amount",
		metric.WithDescription("Gross payment amounts"), metric.WithUnit("1")); err != nil {
		return nil, fmt.Errorf("failed to create histogram payment_amount: %w", err)
	}
	if fm.forwardedFunds, err = meter.Float64Histogram("forwarded_funds",
		metric.WithDescription("Funds moved per forwarding"), metric.WithUnit("1")); err != nil {
		return nil, fmt.Errorf("failed to create histogram forwarded_funds: %w", err)
	}
	return &fm, nil
}

// RecordTransaction counts a committed ledger transaction.
func (fm *FinanceMetrics) RecordTransaction(ctx context.Context, reversal bool) {
	if fm == nil {
		return
	}
	fm.transactionsCommitted.Add(ctx, 1, metric.WithAttributes(attribute.Bool("reversal", reversal)))
}

// RecordTransition counts a lifecycle step of a financial entity.
func (fm *FinanceMetrics) RecordTransition(ctx context.Context, kind, action string) {
	if fm == nil {
		return
	}
	fm.entityTransitions.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind), attribute.String("action", action)))
}

// RecordPayment counts a payment and records its gross amount.
func (fm *FinanceMetrics) RecordPayment(ctx context.Context, paymentType string, amount decimal.Decimal) {
	if fm == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("payment_type", paymentType))
	fm.paymentsRecorded.Add(ctx, 1, attrs)
	fm.paymentAmount.Record(ctx, amount.InexactFloat64(), attrs)
}

// RecordForwarding records funds moved by a forwarding.
func (fm *FinanceMetrics) RecordForwarding(ctx context.Context, funds decimal.Decimal) {
	if fm == nil {
		return
	}
	fm.forwardedFunds.Record(ctx, funds.InexactFloat64())
}
