// Package payment talks to the external card processor.
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	appfinance "github.com/restoreops/backend/internal/application/finance"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Gateway errors
var (
	ErrCardDeclined         = errors.New("card gateway: card declined")
	ErrGatewayUnavailable   = errors.New("card gateway: unavailable")
	ErrGatewayRequestFailed = errors.New("card gateway: request failed")
	ErrInvalidAmount        = errors.New("card gateway: amount must be positive with at most two decimal places")
)

// CardGatewayAdapter implements appfinance.PaymentProcessor against a
// two-phase (authorize, then capture) card API
type CardGatewayAdapter struct {
	config     *CardGatewayConfig
	httpClient *http.Client
	logger     *zap.Logger
}

// CardGatewayOption configures the adapter
type CardGatewayOption func(*CardGatewayAdapter)

// WithHTTPClient replaces the HTTP client
func WithHTTPClient(client *http.Client) CardGatewayOption {
	return func(a *CardGatewayAdapter) {
		a.httpClient = client
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) CardGatewayOption {
	return func(a *CardGatewayAdapter) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// NewCardGatewayAdapter creates a new card gateway adapter
func NewCardGatewayAdapter(config *CardGatewayConfig, opts ...CardGatewayOption) (*CardGatewayAdapter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	a := &CardGatewayAdapter{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Process authorizes the card for req.Amount without capturing
func (a *CardGatewayAdapter) Process(ctx context.Context, req appfinance.CardPaymentRequest) (*appfinance.CardAuthorization, error) {
	amount, err := toMinorUnits(req.Amount)
	if err != nil {
		return nil, err
	}
	if req.CardToken == "" {
		return nil, fmt.Errorf("%w: missing card token", ErrGatewayRequestFailed)
	}

	body := chargeRequest{
		Amount:       amount,
		Currency:     strings.ToLower(a.config.Currency),
		Source:       req.CardToken,
		Capture:      false,
		Reference:    req.PaymentReference,
		ReceiptEmail: req.ReceiptEmail,
		Metadata:     map[string]string{"invoice_ids": joinIDs(req.InvoiceIDs)},
	}

	var charge chargeResponse
	if err := a.doRequest(ctx, http.MethodPost, chargesPath, "authorize:"+req.PaymentReference, body, &charge); err != nil {
		return nil, err
	}
	if charge.Status == chargeStatusDeclined {
		return nil, fmt.Errorf("%w: %s", ErrCardDeclined, charge.DeclineReason)
	}
	if charge.Status != chargeStatusAuthorized || charge.ID == "" {
		return nil, fmt.Errorf("%w: unexpected charge status %q", ErrGatewayRequestFailed, charge.Status)
	}

	a.logger.Info("card authorized",
		zap.String("reference", req.PaymentReference),
		zap.String("charge_id", charge.ID))
	return &appfinance.CardAuthorization{
		Token:     charge.ID,
		CreatedAt: charge.CreatedAt,
	}, nil
}

// Capture settles the authorization identified by token
func (a *CardGatewayAdapter) Capture(ctx context.Context, req appfinance.CardPaymentRequest, token string) (*appfinance.CardCapture, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: missing charge token", ErrGatewayRequestFailed)
	}
	amount, err := toMinorUnits(req.Amount)
	if err != nil {
		return nil, err
	}

	var charge chargeResponse
	path := fmt.Sprintf(capturePath, token)
	if err := a.doRequest(ctx, http.MethodPost, path, "capture:"+token, captureRequest{Amount: amount}, &charge); err != nil {
		return nil, err
	}
	if charge.Status != chargeStatusCaptured {
		return nil, fmt.Errorf("%w: unexpected charge status %q", ErrGatewayRequestFailed, charge.Status)
	}

	capture := &appfinance.CardCapture{Token: charge.ID}
	if charge.CapturedAt != nil {
		capture.CapturedAt = charge.CapturedAt.UTC()
	}
	a.logger.Info("card captured",
		zap.String("reference", req.PaymentReference),
		zap.String("charge_id", charge.ID))
	return capture, nil
}

// doRequest sends body as JSON and decodes a 2xx answer into out. The
// idempotency key lets the gateway drop retried calls.
func (a *CardGatewayAdapter) doRequest(ctx context.Context, method, path, idempotencyKey string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("card gateway: failed to marshal request: %w", err)
	}

	url := strings.TrimSuffix(a.config.BaseURL, "/") + path
	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("card gateway: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+a.config.APIKey)
	req.Header.Set("Idempotency-Key", idempotencyKey)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("card gateway: failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return a.statusError(resp.StatusCode, respBody)
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("card gateway: failed to parse response: %w", err)
	}
	return nil
}

func (a *CardGatewayAdapter) statusError(status int, body []byte) error {
	var errResp errorResponse
	detail := fmt.Sprintf("HTTP %d", status)
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error.Code != "" {
		detail = errResp.Error.Code + " - " + errResp.Error.Message
	}

	switch {
	case status == http.StatusPaymentRequired:
		return fmt.Errorf("%w: %s", ErrCardDeclined, detail)
	case status >= 500 || status == http.StatusTooManyRequests:
		a.logger.Warn("card gateway unavailable", zap.Int("status", status))
		return fmt.Errorf("%w: %s", ErrGatewayUnavailable, detail)
	default:
		return fmt.Errorf("%w: %s", ErrGatewayRequestFailed, detail)
	}
}

// toMinorUnits converts dollars to cents
func toMinorUnits(amount decimal.Decimal) (int64, error) {
	if !amount.IsPositive() {
		return 0, ErrInvalidAmount
	}
	cents := amount.Shift(2)
	if !cents.Equal(cents.Truncate(0)) {
		return 0, ErrInvalidAmount
	}
	return cents.IntPart(), nil
}

func joinIDs(ids []uuid.UUID) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = id.String()
	}
	return strings.Join(parts, ",")
}

var _ appfinance.PaymentProcessor = (*CardGatewayAdapter)(nil)
