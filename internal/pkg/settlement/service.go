package settlement

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/greenbasket/greenbasket/app/models"
	"github.com/greenbasket/greenbasket/internal/pkg/notify"
	"github.com/greenbasket/greenbasket/internal/pkg/paystack"
	"gorm.io/gorm"
)

const gatewayCallTimeout = 15 * time.Second

// Gateway is the synchronous verification port of the payment provider.
type Gateway interface {
	VerifyTransaction(ctx context.Context, reference string) (*paystack.TransactionData, error)
}

// Service wires the matcher and engine behind the two entry paths: the
// asynchronous webhook and the client-initiated verify call.
type Service struct {
	store   Store
	gateway Gateway
	matcher *Matcher
	engine  *Engine
}

// NewService creates a settlement service from injected ports.
func NewService(store Store, gateway Gateway, emitter NotificationEmitter) *Service {
	return &Service{
		store:   store,
		gateway: gateway,
		matcher: NewMatcher(store),
		engine:  NewEngine(store, emitter),
	}
}

// NewServiceFromDB creates a settlement service from a GORM DB handle with
// the default gateway client and notification emitter.
func NewServiceFromDB(db *gorm.DB) *Service {
	return NewService(NewStore(db), paystack.NewClientFromEnv(), notify.NewEmitter(db))
}

// WebhookDisposition classifies how a webhook delivery was handled. All
// dispositions are acknowledged with success to the gateway; the distinction
// exists for logging and the response body.
type WebhookDisposition string

const (
	WebhookSettled WebhookDisposition = "settled"
	WebhookNoop    WebhookDisposition = "noop"
	WebhookIgnored WebhookDisposition = "ignored"
)

// WebhookResult is the outcome of processing one webhook delivery.
type WebhookResult struct {
	Disposition WebhookDisposition
	Reason      string
}

// ProcessWebhookEvent handles a signature-verified webhook envelope. Wallet
// funding references are checked before order matching because they tie
// directly to the funding attempt. Unmatchable events are logged with full
// context and acknowledged: nothing is waiting on the webhook ack, and a
// non-success response would only make the gateway retry an event we will
// never be able to apply.
func (s *Service) ProcessWebhookEvent(ctx context.Context, ev *paystack.WebhookEvent, rawBody []byte) (*WebhookResult, error) {
	if !ev.IsChargeEvent() {
		log.Infof("settlement: ignoring webhook event type %q", ev.Event)
		return &WebhookResult{Disposition: WebhookIgnored, Reason: "unhandled event type"}, nil
	}

	reference := strings.TrimSpace(ev.Data.Reference)
	if reference == "" {
		log.Warnf("settlement: webhook event %q carried no reference", ev.Event)
		return &WebhookResult{Disposition: WebhookIgnored, Reason: "missing reference"}, nil
	}

	outcome := OutcomeFromWebhook(ev, rawBody)

	wtx, err := s.store.WalletTransactionByReference(reference)
	if err == nil {
		res, err := s.engine.SettleWalletTransaction(ctx, wtx, outcome)
		if err != nil {
			return nil, err
		}
		return webhookResultFrom(res), nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	user, err := s.store.UserByEmail(strings.TrimSpace(ev.Data.Customer.Email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Warnf("settlement: webhook reference %s: no user for customer email %q", reference, ev.Data.Customer.Email)
			return &WebhookResult{Disposition: WebhookIgnored, Reason: "unknown customer"}, nil
		}
		return nil, err
	}

	order, strategy, err := s.matcher.Match(reference, ev.Data.Metadata.OrderID, user.ID)
	if err != nil {
		if errors.Is(err, ErrNoOrderMatched) {
			log.Warnf("settlement: webhook reference %s: no order matched for user %d", reference, user.ID)
			return &WebhookResult{Disposition: WebhookIgnored, Reason: "no order matched"}, nil
		}
		return nil, err
	}
	log.Infof("settlement: webhook reference %s matched order %d via %s", reference, order.ID, strategy)

	res, err := s.engine.SettleOrder(ctx, order, outcome)
	if err != nil {
		return nil, err
	}
	return webhookResultFrom(res), nil
}

// VerifyResponse is the outcome of the synchronous verify path.
type VerifyResponse struct {
	Order       *models.Order
	Result      Result
	Strategy    MatchStrategy
	Transaction *paystack.TransactionData
}

// VerifyAndSettle consults the gateway for the authoritative state of a
// reference, matches it to one of the caller's orders and applies the
// outcome. A gateway transport failure surfaces as ErrGatewayUnavailable and
// must never be interpreted as a failed payment.
func (s *Service) VerifyAndSettle(ctx context.Context, userID uint, reference string) (*VerifyResponse, error) {
	gctx, cancel := context.WithTimeout(ctx, gatewayCallTimeout)
	defer cancel()

	data, err := s.gateway.VerifyTransaction(gctx, reference)
	if err != nil {
		return nil, err
	}

	order, strategy, err := s.matcher.Match(reference, data.Metadata.OrderID, userID)
	if err != nil {
		if errors.Is(err, ErrNoOrderMatched) {
			log.Warnf("settlement: verify reference %s: no order matched for user %d", reference, userID)
		}
		return nil, err
	}

	res, err := s.engine.SettleOrder(ctx, order, OutcomeFromVerification(data))
	if err != nil {
		return nil, err
	}

	// Return current state, not the snapshot matched before settling.
	if fresh, err := s.store.OrderByIDForUser(order.ID, userID); err == nil {
		order = fresh
	}

	return &VerifyResponse{
		Order:       order,
		Result:      res,
		Strategy:    strategy,
		Transaction: data,
	}, nil
}

func webhookResultFrom(res Result) *WebhookResult {
	if res.AlreadyProcessed {
		return &WebhookResult{Disposition: WebhookNoop, Reason: "already processed"}
	}
	return &WebhookResult{Disposition: WebhookSettled}
}
