package settlement

import (
	"encoding/json"
	"time"

	"github.com/greenbasket/greenbasket/internal/pkg/paystack"
)

// Outcome is the gateway-reported result of a single payment attempt,
// normalized so the engine does not care whether it arrived via webhook or
// via the synchronous verify path.
type Outcome struct {
	Reference  string
	Success    bool
	AmountKobo int64
	Currency   string
	Channel    string
	PaidAt     *time.Time
	RawPayload string
}

// Result describes what the engine did for one settlement call. Exactly one
// of Applied/AlreadyProcessed is set when the call succeeds; AlreadyProcessed
// is the idempotent no-op acknowledged back to the caller.
type Result struct {
	Applied          bool
	AlreadyProcessed bool
}

// OutcomeFromWebhook normalizes a charge webhook. The raw body is kept for
// the Payment audit row.
func OutcomeFromWebhook(ev *paystack.WebhookEvent, rawBody []byte) Outcome {
	return Outcome{
		Reference:  ev.Data.Reference,
		Success:    ev.Event == paystack.EventChargeSuccess,
		AmountKobo: ev.Data.Amount,
		Currency:   ev.Data.Currency,
		Channel:    ev.Data.Channel,
		PaidAt:     ev.Data.PaidAt,
		RawPayload: string(rawBody),
	}
}

// OutcomeFromVerification normalizes a synchronous verify response.
func OutcomeFromVerification(d *paystack.TransactionData) Outcome {
	raw, err := json.Marshal(d)
	if err != nil {
		raw = nil
	}
	return Outcome{
		Reference:  d.Reference,
		Success:    d.Succeeded(),
		AmountKobo: d.Amount,
		Currency:   d.Currency,
		Channel:    d.Channel,
		PaidAt:     d.PaidAt,
		RawPayload: string(raw),
	}
}
