package controllers

import (
	"errors"
	"strings"
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/greenbasket/greenbasket/internal/pkg/database"
	"github.com/greenbasket/greenbasket/internal/pkg/env"
	"github.com/greenbasket/greenbasket/internal/pkg/paystack"
	"github.com/greenbasket/greenbasket/internal/pkg/settlement"
	"github.com/greenbasket/greenbasket/internal/pkg/usercontext"
)

var (
	settlementOnce sync.Once
	settlementSvc  *settlement.Service
)

func getSettlementService() *settlement.Service {
	settlementOnce.Do(func() {
		settlementSvc = settlement.NewServiceFromDB(database.GetDB())
	})
	return settlementSvc
}

// SetSettlementService overrides the settlement service. Test hook.
func SetSettlementService(svc *settlement.Service) {
	settlementOnce.Do(func() {})
	settlementSvc = svc
}

func webhookSecret() string {
	secret := strings.TrimSpace(env.GetEnv("PAYSTACK_WEBHOOK_SECRET", ""))
	if secret == "" {
		secret = strings.TrimSpace(env.GetEnv("PAYSTACK_SECRET_KEY", ""))
	}
	return secret
}

// HandlePaystackWebhook receives gateway event deliveries. The signature is
// checked over the exact raw bytes before anything else touches the payload;
// an unsigned or tampered delivery never reaches the database.
func HandlePaystackWebhook(c *fiber.Ctx) error {
	rawBody := append([]byte(nil), c.Body()...)
	signature := c.Get("X-Paystack-Signature")

	switch paystack.CheckWebhookSignature(rawBody, signature, webhookSecret()) {
	case paystack.SignatureValid:
	case paystack.SignatureMissingSecret:
		log.Error("paystack webhook: no webhook secret configured, rejecting delivery")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Webhook not configured"})
	default:
		log.Warnf("paystack webhook: invalid signature from %s", c.IP())
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_signature", "message": "Signature verification failed"})
	}

	ev, err := paystack.ParseWebhookEvent(rawBody)
	if err != nil {
		log.Warnf("paystack webhook: unparseable payload: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_payload", "message": "Malformed event payload"})
	}

	res, err := getSettlementService().ProcessWebhookEvent(c.UserContext(), ev, rawBody)
	if err != nil {
		log.Errorf("paystack webhook: processing %s failed: %v", ev.Event, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Event processing failed"})
	}

	return c.JSON(fiber.Map{"status": "success", "disposition": string(res.Disposition)})
}

// HandlePaymentVerify settles an order from the authoritative gateway state
// of a reference. Called by the storefront after checkout redirect, and safe
// to call any number of times.
func HandlePaymentVerify(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Missing or invalid authentication"})
	}

	reference := strings.TrimSpace(c.Params("reference"))
	if reference == "" {
		reference = strings.TrimSpace(c.Query("reference"))
	}
	if reference == "" && len(c.Body()) > 0 {
		var body struct {
			Reference string `json:"reference"`
		}
		if err := c.BodyParser(&body); err == nil {
			reference = strings.TrimSpace(body.Reference)
		}
	}
	if reference == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Transaction reference is required"})
	}

	resp, err := getSettlementService().VerifyAndSettle(c.UserContext(), userCtx.UserID, reference)
	if err != nil {
		if errors.Is(err, paystack.ErrGatewayUnavailable) {
			log.Warnf("payment verify: gateway unavailable for %s: %v", reference, err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "gateway_unavailable", "message": "Payment gateway could not be reached, payment state is unchanged"})
		}
		if errors.Is(err, settlement.ErrNoOrderMatched) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "No order matched this transaction reference"})
		}
		log.Errorf("payment verify: settling %s failed: %v", reference, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Payment verification failed"})
	}

	return c.JSON(fiber.Map{
		"success":       resp.Transaction.Succeeded(),
		"paymentStatus": resp.Order.PaymentStatus,
		"orderStatus":   resp.Order.Status,
		"orderId":       resp.Order.ID,
		"transactionData": fiber.Map{
			"reference": resp.Transaction.Reference,
			"amount":    resp.Transaction.Amount,
			"currency":  resp.Transaction.Currency,
			"channel":   resp.Transaction.Channel,
			"status":    resp.Transaction.Status,
			"paid_at":   resp.Transaction.PaidAt,
		},
	})
}
