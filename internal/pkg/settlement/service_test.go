package settlement

import (
	"context"
	"errors"
	"testing"

	"github.com/greenbasket/greenbasket/app/models"
	"github.com/greenbasket/greenbasket/internal/pkg/paystack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGateway struct {
	data *paystack.TransactionData
	err  error
}

func (g *fakeGateway) VerifyTransaction(ctx context.Context, reference string) (*paystack.TransactionData, error) {
	if g.err != nil {
		return nil, g.err
	}
	return g.data, nil
}

func newTestService(store *memStore, gateway Gateway) *Service {
	return NewService(store, gateway, &memEmitter{})
}

func chargeEvent(event, reference, email string, amount int64) *paystack.WebhookEvent {
	return &paystack.WebhookEvent{
		Event: event,
		Data: paystack.TransactionData{
			Reference: reference,
			Amount:    amount,
			Currency:  "NGN",
			Status:    "success",
			Customer:  paystack.Customer{Email: email},
		},
	}
}

func TestProcessWebhookEvent_UnknownEventIsAcknowledged(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store, &fakeGateway{})

	res, err := svc.ProcessWebhookEvent(context.Background(), &paystack.WebhookEvent{Event: "subscription.create"}, nil)
	require.NoError(t, err)
	assert.Equal(t, WebhookIgnored, res.Disposition)
}

func TestProcessWebhookEvent_SettlesOrderViaCustomerEmail(t *testing.T) {
	store := newMemStore()
	seedOrderFixture(store)
	svc := newTestService(store, &fakeGateway{})

	ev := chargeEvent(paystack.EventChargeSuccess, "ref-1", "shopper@example.com", 500000)
	res, err := svc.ProcessWebhookEvent(context.Background(), ev, []byte(`{"event":"charge.success"}`))
	require.NoError(t, err)
	assert.Equal(t, WebhookSettled, res.Disposition)
	assert.Equal(t, models.PaymentStatusCompleted, store.orders[10].PaymentStatus)
	assert.Len(t, store.payments, 1)
	assert.Len(t, store.rewards, 1)

	// Redelivery of the same event: noop, no new rows.
	res, err = svc.ProcessWebhookEvent(context.Background(), ev, []byte(`{"event":"charge.success"}`))
	require.NoError(t, err)
	assert.Equal(t, WebhookNoop, res.Disposition)
	assert.Len(t, store.payments, 1)
	assert.Len(t, store.rewards, 1)
}

func TestProcessWebhookEvent_RoutesWalletReferencesFirst(t *testing.T) {
	store := newMemStore()
	seedWalletFixture(store)
	svc := newTestService(store, &fakeGateway{})

	ev := chargeEvent(paystack.EventChargeSuccess, "ref-w1", "funder@example.com", 10000)
	res, err := svc.ProcessWebhookEvent(context.Background(), ev, nil)
	require.NoError(t, err)
	assert.Equal(t, WebhookSettled, res.Disposition)
	assert.Equal(t, 100.0, store.users[2].WalletBalance)
	assert.Equal(t, models.PaymentStatusCompleted, store.walletTxs["ref-w1"].Status)
}

func TestProcessWebhookEvent_UnknownCustomerIsAcknowledged(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store, &fakeGateway{})

	ev := chargeEvent(paystack.EventChargeSuccess, "ref-z", "stranger@example.com", 1000)
	res, err := svc.ProcessWebhookEvent(context.Background(), ev, nil)
	require.NoError(t, err)
	assert.Equal(t, WebhookIgnored, res.Disposition)
	assert.Empty(t, store.payments)
}

func TestProcessWebhookEvent_NoOrderMatchedIsAcknowledged(t *testing.T) {
	store := newMemStore()
	store.users[1] = &models.User{ID: 1, Email: "shopper@example.com"}
	svc := newTestService(store, &fakeGateway{})

	ev := chargeEvent(paystack.EventChargeSuccess, "ref-x", "shopper@example.com", 1000)
	res, err := svc.ProcessWebhookEvent(context.Background(), ev, nil)
	require.NoError(t, err)
	assert.Equal(t, WebhookIgnored, res.Disposition)
	assert.Empty(t, store.payments)
}

func TestVerifyAndSettle_WinsRaceThenWebhookIsNoop(t *testing.T) {
	store := newMemStore()
	seedOrderFixture(store)
	gateway := &fakeGateway{data: &paystack.TransactionData{
		Reference: "ref-1",
		Amount:    500000,
		Currency:  "NGN",
		Status:    "success",
		Customer:  paystack.Customer{Email: "shopper@example.com"},
	}}
	svc := newTestService(store, gateway)

	out, err := svc.VerifyAndSettle(context.Background(), 1, "ref-1")
	require.NoError(t, err)
	assert.True(t, out.Result.Applied)
	assert.Equal(t, MatchByTransactionID, out.Strategy)
	assert.Equal(t, models.PaymentStatusCompleted, out.Order.PaymentStatus)
	assert.Equal(t, models.OrderStatusConfirmed, out.Order.Status)

	// The racing webhook for the same reference is a pure noop.
	ev := chargeEvent(paystack.EventChargeSuccess, "ref-1", "shopper@example.com", 500000)
	res, err := svc.ProcessWebhookEvent(context.Background(), ev, nil)
	require.NoError(t, err)
	assert.Equal(t, WebhookNoop, res.Disposition)
	assert.Len(t, store.payments, 1)
	assert.Len(t, store.rewards, 1)
}

func TestVerifyAndSettle_GatewayUnavailableIsNotAFailedPayment(t *testing.T) {
	store := newMemStore()
	order := seedOrderFixture(store)
	svc := newTestService(store, &fakeGateway{err: paystack.ErrGatewayUnavailable})

	_, err := svc.VerifyAndSettle(context.Background(), 1, "ref-1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, paystack.ErrGatewayUnavailable))
	// No state was touched.
	assert.Equal(t, models.PaymentStatusPending, store.orders[order.ID].PaymentStatus)
}

func TestVerifyAndSettle_NoMatchLeavesStateUntouched(t *testing.T) {
	store := newMemStore()
	store.users[1] = &models.User{ID: 1, Email: "shopper@example.com"}
	svc := newTestService(store, &fakeGateway{data: &paystack.TransactionData{
		Reference: "ref-x",
		Amount:    1000,
		Status:    "success",
	}})

	_, err := svc.VerifyAndSettle(context.Background(), 1, "ref-x")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoOrderMatched))
	assert.Empty(t, store.payments)
}

func TestVerifyAndSettle_FailedChargeMarksOrderFailed(t *testing.T) {
	store := newMemStore()
	order := seedOrderFixture(store)
	svc := newTestService(store, &fakeGateway{data: &paystack.TransactionData{
		Reference: "ref-1",
		Amount:    500000,
		Status:    "failed",
	}})

	out, err := svc.VerifyAndSettle(context.Background(), 1, "ref-1")
	require.NoError(t, err)
	assert.True(t, out.Result.Applied)
	assert.Equal(t, models.PaymentStatusFailed, store.orders[order.ID].PaymentStatus)
}
