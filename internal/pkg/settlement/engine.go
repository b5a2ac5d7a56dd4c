package settlement

import (
	"context"
	"fmt"

	"github.com/gofiber/fiber/v2/log"
	"github.com/greenbasket/greenbasket/app/models"
)

// AmountToleranceKobo absorbs rounding differences between the order total
// and the gateway-reported amount. Larger mismatches are logged but never
// block settlement: the gateway's status field is authoritative over the
// computed total.
const AmountToleranceKobo = 1

// Engine applies gateway outcomes to orders and wallet transactions exactly
// once per reference. Both the webhook path and the synchronous verify path
// converge here; whichever arrives first performs the mutation and the other
// becomes a no-op that is still acknowledged as success.
type Engine struct {
	store   Store
	emitter NotificationEmitter
	wallet  *WalletCreditProcessor
	rewards *RewardDispatcher
}

func NewEngine(store Store, emitter NotificationEmitter) *Engine {
	return &Engine{
		store:   store,
		emitter: emitter,
		wallet:  NewWalletCreditProcessor(store),
		rewards: NewRewardDispatcher(store, emitter),
	}
}

// SettleOrder advances an order's payment status for the given outcome.
// COMPLETED is sticky: a late charge.failed for an already completed order is
// a no-op. A failed attempt retried with the same reference may still
// complete, so FAILED is not sticky against a later success.
func (e *Engine) SettleOrder(ctx context.Context, order *models.Order, outcome Outcome) (Result, error) {
	_ = ctx

	if !outcome.Success {
		// Terminal snapshots cannot move back to PENDING, so the claim below
		// could never succeed; skip the write.
		if order.IsPaymentTerminal() {
			log.Infof("settlement: order %d reference %s already terminal, ignoring failure event", order.ID, outcome.Reference)
			return Result{AlreadyProcessed: true}, nil
		}

		claimed, err := e.store.TransitionOrderPayment(order.ID, []string{models.PaymentStatusPending}, models.PaymentStatusFailed)
		if err != nil {
			return Result{}, err
		}
		if !claimed {
			log.Infof("settlement: order %d reference %s already terminal, ignoring failure event", order.ID, outcome.Reference)
			return Result{AlreadyProcessed: true}, nil
		}

		if err := e.store.UpsertPaymentByReference(e.paymentRow(order, outcome, models.PaymentStatusFailed)); err != nil {
			log.Errorf("settlement: order %d marked FAILED but payment artifact write failed for %s: %v", order.ID, outcome.Reference, err)
			return Result{Applied: true}, err
		}

		runBestEffort("payment-failed notification", func() error {
			return e.emitter.Notify(order.UserID, models.NotificationTypePayment,
				"Payment failed",
				fmt.Sprintf("Payment for order %s could not be completed. You can retry from your orders page.", order.OrderNumber),
				order.ID)
		})
		return Result{Applied: true}, nil
	}

	e.checkAmount("order "+order.OrderNumber, order.TotalKobo(), outcome)

	claimed, err := e.store.TransitionOrderPayment(order.ID,
		[]string{models.PaymentStatusPending, models.PaymentStatusFailed}, models.PaymentStatusCompleted)
	if err != nil {
		return Result{}, err
	}
	if !claimed {
		log.Infof("settlement: order %d reference %s already settled, acknowledging no-op", order.ID, outcome.Reference)
		return Result{AlreadyProcessed: true}, nil
	}

	if err := e.store.UpsertPaymentByReference(e.paymentRow(order, outcome, models.PaymentStatusCompleted)); err != nil {
		log.Errorf("settlement: order %d marked COMPLETED but payment artifact write failed for %s: %v", order.ID, outcome.Reference, err)
		return Result{Applied: true}, err
	}

	if err := e.store.UpdateOrderStatus(order.ID, models.OrderStatusConfirmed); err != nil {
		log.Errorf("settlement: order %d settled but confirmation status write failed: %v", order.ID, err)
	}

	buyer, err := e.store.UserByID(order.UserID)
	if err != nil {
		log.Errorf("settlement: order %d settled but buyer %d lookup failed, skipping rewards: %v", order.ID, order.UserID, err)
		return Result{Applied: true}, nil
	}

	e.rewards.Dispatch(order, buyer)

	runBestEffort("order-confirmed notification", func() error {
		return e.emitter.Notify(order.UserID, models.NotificationTypeOrder,
			"Order confirmed",
			fmt.Sprintf("Payment received for order %s. We are getting your groceries ready.", order.OrderNumber),
			order.ID)
	})
	runBestEffort("order-confirmed email", func() error {
		return e.emitter.SendEmail(order.UserID,
			fmt.Sprintf("Your GreenBasket order %s is confirmed", order.OrderNumber),
			fmt.Sprintf("We received your payment of %.2f NGN. Order %s is now being prepared.", order.TotalAmount, order.OrderNumber))
	})

	return Result{Applied: true}, nil
}

// SettleWalletTransaction advances a wallet funding attempt. For wallet
// transactions both COMPLETED and FAILED are terminal and never revisited.
func (e *Engine) SettleWalletTransaction(ctx context.Context, wtx *models.WalletTransaction, outcome Outcome) (Result, error) {
	if !outcome.Success {
		claimed, err := e.store.TransitionWalletTransaction(wtx.Reference, models.PaymentStatusPending, models.PaymentStatusFailed)
		if err != nil {
			return Result{}, err
		}
		if !claimed {
			log.Infof("settlement: wallet transaction %s already terminal, ignoring failure event", wtx.Reference)
			return Result{AlreadyProcessed: true}, nil
		}

		if err := e.store.UpsertPaymentByReference(e.walletPaymentRow(wtx, outcome, models.PaymentStatusFailed)); err != nil {
			log.Errorf("settlement: wallet transaction %s marked FAILED but payment artifact write failed: %v", wtx.Reference, err)
			return Result{Applied: true}, err
		}

		runBestEffort("topup-failed notification", func() error {
			return e.emitter.Notify(wtx.UserID, models.NotificationTypeWallet,
				"Wallet top-up failed",
				fmt.Sprintf("Your wallet top-up of %.2f NGN could not be completed.", wtx.Amount),
				wtx.ID)
		})
		return Result{Applied: true}, nil
	}

	e.checkAmount("wallet transaction "+wtx.Reference, wtx.AmountKobo(), outcome)

	creditRes, err := e.wallet.Credit(ctx, wtx)
	if err != nil {
		return Result{}, err
	}

	switch creditRes {
	case CreditAlreadyApplied:
		log.Infof("settlement: wallet transaction %s already settled, acknowledging no-op", wtx.Reference)
		return Result{AlreadyProcessed: true}, nil

	case CreditUserMissing:
		log.Warnf("settlement: wallet transaction %s references missing user %d, marked FAILED", wtx.Reference, wtx.UserID)
		return Result{Applied: true}, nil

	default:
		if err := e.store.UpsertPaymentByReference(e.walletPaymentRow(wtx, outcome, models.PaymentStatusCompleted)); err != nil {
			log.Errorf("settlement: wallet transaction %s credited but payment artifact write failed: %v", wtx.Reference, err)
			return Result{Applied: true}, err
		}

		runBestEffort("topup-completed email", func() error {
			return e.emitter.SendEmail(wtx.UserID,
				"Wallet top-up successful",
				fmt.Sprintf("Your GreenBasket wallet was credited with %.2f NGN.", wtx.Amount))
		})
		return Result{Applied: true}, nil
	}
}

func (e *Engine) checkAmount(target string, expectedKobo int64, outcome Outcome) {
	diff := expectedKobo - outcome.AmountKobo
	if diff < 0 {
		diff = -diff
	}
	if diff > AmountToleranceKobo {
		log.Warnf("settlement: amount mismatch for %s reference %s: expected %d kobo, gateway reported %d kobo; proceeding, gateway is authoritative",
			target, outcome.Reference, expectedKobo, outcome.AmountKobo)
	}
}

func (e *Engine) paymentRow(order *models.Order, outcome Outcome, status string) *models.Payment {
	orderID := order.ID
	return &models.Payment{
		UserID:          order.UserID,
		OrderID:         &orderID,
		TransactionID:   outcome.Reference,
		Amount:          float64(outcome.AmountKobo) / 100,
		Currency:        currencyOrDefault(outcome.Currency),
		Method:          methodOrDefault(outcome.Channel),
		Status:          status,
		GatewayResponse: outcome.RawPayload,
		PaidAt:          outcome.PaidAt,
	}
}

func (e *Engine) walletPaymentRow(wtx *models.WalletTransaction, outcome Outcome, status string) *models.Payment {
	return &models.Payment{
		UserID:          wtx.UserID,
		TransactionID:   outcome.Reference,
		Amount:          float64(outcome.AmountKobo) / 100,
		Currency:        currencyOrDefault(outcome.Currency),
		Method:          methodOrDefault(outcome.Channel),
		Status:          status,
		GatewayResponse: outcome.RawPayload,
		PaidAt:          outcome.PaidAt,
	}
}

func currencyOrDefault(currency string) string {
	if currency == "" {
		return "NGN"
	}
	return currency
}

func methodOrDefault(channel string) string {
	if channel == "" {
		return models.PaymentMethodPaystack
	}
	return channel
}
