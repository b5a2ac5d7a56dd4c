package settlement

import (
	"context"
	"testing"
	"time"

	"github.com/greenbasket/greenbasket/app/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedOrderFixture(store *memStore) *models.Order {
	store.users[1] = &models.User{ID: 1, Email: "shopper@example.com", Name: "Shopper"}
	order := &models.Order{
		ID:            10,
		OrderNumber:   "GB-1001",
		UserID:        1,
		TotalAmount:   5000,
		PaymentMethod: models.PaymentMethodPaystack,
		PaymentStatus: models.PaymentStatusPending,
		Status:        models.OrderStatusPending,
		TransactionID: "ref-1",
		CreatedAt:     time.Now(),
	}
	store.orders[order.ID] = order
	store.pointsSetting = &models.PointsSetting{ID: 1, MinimumOrderTotal: 0, AmountPerPoint: 100, IsActive: true}
	return order
}

func successOutcome(reference string, amountKobo int64) Outcome {
	return Outcome{Reference: reference, Success: true, AmountKobo: amountKobo, Currency: "NGN", Channel: "card"}
}

func failureOutcome(reference string) Outcome {
	return Outcome{Reference: reference, Success: false, AmountKobo: 0}
}

func TestSettleOrder_SuccessIsAppliedExactlyOnce(t *testing.T) {
	store := newMemStore()
	emitter := &memEmitter{}
	engine := NewEngine(store, emitter)
	order := seedOrderFixture(store)

	res, err := engine.SettleOrder(context.Background(), order, successOutcome("ref-1", 500000))
	require.NoError(t, err)
	assert.True(t, res.Applied)
	assert.False(t, res.AlreadyProcessed)

	assert.Equal(t, models.PaymentStatusCompleted, store.orders[10].PaymentStatus)
	assert.Equal(t, models.OrderStatusConfirmed, store.orders[10].Status)

	require.Contains(t, store.payments, "ref-1")
	assert.Equal(t, models.PaymentStatusCompleted, store.payments["ref-1"].Status)
	assert.Equal(t, 5000.0, store.payments["ref-1"].Amount)

	assert.Len(t, store.rewards, 1)
	assert.Equal(t, 50, store.users[1].Points)

	// Replaying the same success is a pure no-op.
	for i := 0; i < 3; i++ {
		res, err = engine.SettleOrder(context.Background(), store.orders[10], successOutcome("ref-1", 500000))
		require.NoError(t, err)
		assert.False(t, res.Applied)
		assert.True(t, res.AlreadyProcessed)
	}
	assert.Len(t, store.payments, 1)
	assert.Len(t, store.rewards, 1)
	assert.Equal(t, 50, store.users[1].Points)
}

func TestSettleOrder_CompletedIsNeverDowngraded(t *testing.T) {
	store := newMemStore()
	engine := NewEngine(store, &memEmitter{})
	order := seedOrderFixture(store)

	_, err := engine.SettleOrder(context.Background(), order, successOutcome("ref-1", 500000))
	require.NoError(t, err)

	res, err := engine.SettleOrder(context.Background(), store.orders[10], failureOutcome("ref-1"))
	require.NoError(t, err)
	assert.True(t, res.AlreadyProcessed)
	assert.Equal(t, models.PaymentStatusCompleted, store.orders[10].PaymentStatus)
	assert.Equal(t, models.PaymentStatusCompleted, store.payments["ref-1"].Status)
}

func TestSettleOrder_StaleSnapshotCannotDowngrade(t *testing.T) {
	store := newMemStore()
	engine := NewEngine(store, &memEmitter{})
	order := seedOrderFixture(store)

	// Snapshot read before the success settles, as a racing webhook would see.
	stale := *order

	_, err := engine.SettleOrder(context.Background(), order, successOutcome("ref-1", 500000))
	require.NoError(t, err)

	res, err := engine.SettleOrder(context.Background(), &stale, failureOutcome("ref-1"))
	require.NoError(t, err)
	assert.True(t, res.AlreadyProcessed)
	assert.Equal(t, models.PaymentStatusCompleted, store.orders[10].PaymentStatus)
}

func TestSettleOrder_FailedRetryCanStillComplete(t *testing.T) {
	store := newMemStore()
	engine := NewEngine(store, &memEmitter{})
	order := seedOrderFixture(store)

	res, err := engine.SettleOrder(context.Background(), order, failureOutcome("ref-1"))
	require.NoError(t, err)
	assert.True(t, res.Applied)
	assert.Equal(t, models.PaymentStatusFailed, store.orders[10].PaymentStatus)

	// A second failure is a no-op.
	res, err = engine.SettleOrder(context.Background(), store.orders[10], failureOutcome("ref-1"))
	require.NoError(t, err)
	assert.True(t, res.AlreadyProcessed)

	// But a successful retry with the same reference still completes.
	res, err = engine.SettleOrder(context.Background(), store.orders[10], successOutcome("ref-1", 500000))
	require.NoError(t, err)
	assert.True(t, res.Applied)
	assert.Equal(t, models.PaymentStatusCompleted, store.orders[10].PaymentStatus)
	assert.Equal(t, models.PaymentStatusCompleted, store.payments["ref-1"].Status)
}

func TestSettleOrder_AmountMismatchDoesNotBlock(t *testing.T) {
	tests := []struct {
		name       string
		amountKobo int64
	}{
		{name: "exact", amountKobo: 500000},
		{name: "within tolerance", amountKobo: 499999},
		{name: "large mismatch is logged not rejected", amountKobo: 499500},
	}

	for _, tt := range tests {
		store := newMemStore()
		engine := NewEngine(store, &memEmitter{})
		order := seedOrderFixture(store)

		res, err := engine.SettleOrder(context.Background(), order, successOutcome("ref-1", tt.amountKobo))
		require.NoError(t, err, tt.name)
		assert.True(t, res.Applied, tt.name)
		assert.Equal(t, models.PaymentStatusCompleted, store.orders[10].PaymentStatus, tt.name)
	}
}

func TestSettleOrder_EmitterFailureDoesNotUnwindSettlement(t *testing.T) {
	store := newMemStore()
	engine := NewEngine(store, &memEmitter{fail: true})
	order := seedOrderFixture(store)

	res, err := engine.SettleOrder(context.Background(), order, successOutcome("ref-1", 500000))
	require.NoError(t, err)
	assert.True(t, res.Applied)
	assert.Equal(t, models.PaymentStatusCompleted, store.orders[10].PaymentStatus)
	// Reward insertion is independent of the broken emitter.
	assert.Len(t, store.rewards, 1)
}

func TestSettleOrder_FailureEmitsNotification(t *testing.T) {
	store := newMemStore()
	emitter := &memEmitter{}
	engine := NewEngine(store, emitter)
	order := seedOrderFixture(store)

	res, err := engine.SettleOrder(context.Background(), order, failureOutcome("ref-1"))
	require.NoError(t, err)
	assert.True(t, res.Applied)
	require.Contains(t, store.payments, "ref-1")
	assert.Equal(t, models.PaymentStatusFailed, store.payments["ref-1"].Status)
	assert.Len(t, emitter.notices, 1)
}
