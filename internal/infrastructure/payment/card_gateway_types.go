package payment

import "time"

const (
	chargesPath = "/v1/charges"
	capturePath = "/v1/charges/%s/capture"
)

// Charge statuses reported by the gateway
const (
	chargeStatusAuthorized = "authorized"
	chargeStatusCaptured   = "captured"
	chargeStatusDeclined   = "declined"
)

// chargeRequest authorizes a card without capturing it
type chargeRequest struct {
	Amount       int64             `json:"amount"`
	Currency     string            `json:"currency"`
	Source       string            `json:"source"`
	Capture      bool              `json:"capture"`
	Reference    string            `json:"reference"`
	ReceiptEmail string            `json:"receipt_email,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

// captureRequest settles a previous authorization
type captureRequest struct {
	Amount int64 `json:"amount"`
}

// chargeResponse is the charge object the gateway returns
type chargeResponse struct {
	ID            string     `json:"id"`
	Status        string     `json:"status"`
	Amount        int64      `json:"amount"`
	CreatedAt     time.Time  `json:"created_at"`
	CapturedAt    *time.Time `json:"captured_at,omitempty"`
	DeclineReason string     `json:"decline_reason,omitempty"`
}

// errorResponse is the gateway's error envelope
type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}
