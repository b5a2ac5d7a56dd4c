package paystack

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

const (
	EventChargeSuccess = "charge.success"
	EventChargeFailed  = "charge.failed"

	// Transaction status values reported by the gateway.
	TxStatusSuccess   = "success"
	TxStatusFailed    = "failed"
	TxStatusAbandoned = "abandoned"
)

// Metadata is the free-form object attached to a transaction at checkout.
// Paystack echoes it back verbatim in webhooks and verify responses. The
// order_id field arrives as a number or a string depending on how the
// frontend initialized the charge, so it gets a tolerant decoder.
type Metadata struct {
	OrderID uint   `json:"order_id"`
	Purpose string `json:"purpose"`
}

func (m *Metadata) UnmarshalJSON(data []byte) error {
	// Paystack sends `"metadata": ""` when nothing was attached.
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" || trimmed == `""` || trimmed == "null" {
		*m = Metadata{}
		return nil
	}

	var raw struct {
		OrderID json.RawMessage `json:"order_id"`
		Purpose string          `json:"purpose"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	m.Purpose = raw.Purpose
	m.OrderID = 0
	if len(raw.OrderID) > 0 {
		s := strings.Trim(string(raw.OrderID), `"`)
		if s != "" && s != "null" {
			if id, err := strconv.ParseUint(s, 10, 64); err == nil {
				m.OrderID = uint(id)
			}
		}
	}
	return nil
}

// Customer identifies the paying user on the gateway side.
type Customer struct {
	Email string `json:"email"`
}

// TransactionData is the gateway's view of a single charge. Amount is in the
// minor currency unit (kobo for NGN).
type TransactionData struct {
	Reference string     `json:"reference"`
	Amount    int64      `json:"amount"`
	Currency  string     `json:"currency"`
	Status    string     `json:"status"`
	Channel   string     `json:"channel"`
	PaidAt    *time.Time `json:"paid_at"`
	Customer  Customer   `json:"customer"`
	Metadata  Metadata   `json:"metadata"`
}

// WebhookEvent is the envelope Paystack posts to the webhook endpoint.
type WebhookEvent struct {
	Event string          `json:"event"`
	Data  TransactionData `json:"data"`
}

// ParseWebhookEvent decodes a webhook envelope from the raw request body.
func ParseWebhookEvent(payload []byte) (*WebhookEvent, error) {
	var ev WebhookEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		return nil, err
	}
	return &ev, nil
}

// IsChargeEvent reports whether the event type carries a settlement outcome.
func (e *WebhookEvent) IsChargeEvent() bool {
	switch e.Event {
	case EventChargeSuccess, EventChargeFailed:
		return true
	default:
		return false
	}
}

// Succeeded reports whether the gateway considers the charge settled.
func (d *TransactionData) Succeeded() bool {
	return strings.EqualFold(strings.TrimSpace(d.Status), TxStatusSuccess)
}
