package settlement

import (
	"testing"

	"github.com/greenbasket/greenbasket/app/models"
	"github.com/stretchr/testify/assert"
)

func rewardFixture(store *memStore) (*models.Order, *models.User) {
	referrer := &models.User{ID: 1, Email: "referrer@example.com"}
	referrerID := referrer.ID
	buyer := &models.User{ID: 2, Email: "buyer@example.com", ReferredByID: &referrerID}
	store.users[1] = referrer
	store.users[2] = buyer
	order := &models.Order{ID: 30, OrderNumber: "GB-3001", UserID: 2, TotalAmount: 5000, PaymentMethod: models.PaymentMethodPaystack}
	store.orders[order.ID] = order
	store.pointsSetting = &models.PointsSetting{MinimumOrderTotal: 1000, AmountPerPoint: 100, IsActive: true}
	store.referralSetting = &models.ReferralSetting{ReferrerPointsPerPurchase: 25, IsActive: true}
	return order, buyer
}

func TestDispatch_AwardsBothRewardsOnce(t *testing.T) {
	store := newMemStore()
	emitter := &memEmitter{}
	dispatcher := NewRewardDispatcher(store, emitter)
	order, buyer := rewardFixture(store)

	// Dispatched twice, e.g. once from the webhook and once from a retried
	// verify; every award must stay exactly-once.
	dispatcher.Dispatch(order, buyer)
	dispatcher.Dispatch(order, buyer)

	assert.Len(t, store.rewards, 2)
	assert.Contains(t, store.rewards, rewardKey(order.ID, models.RewardTypePurchase))
	assert.Contains(t, store.rewards, rewardKey(order.ID, models.RewardTypeReferralPurchase))
	assert.Equal(t, 50, store.users[2].Points)
	assert.Equal(t, 25, store.users[1].Points)
	assert.Len(t, emitter.notices, 2)
}

func TestDispatch_NoReferralForUnreferredBuyer(t *testing.T) {
	store := newMemStore()
	dispatcher := NewRewardDispatcher(store, &memEmitter{})
	order, buyer := rewardFixture(store)
	buyer.ReferredByID = nil

	dispatcher.Dispatch(order, buyer)

	assert.Len(t, store.rewards, 1)
	assert.Contains(t, store.rewards, rewardKey(order.ID, models.RewardTypePurchase))
	assert.Equal(t, 0, store.users[1].Points)
}

func TestDispatch_BelowMinimumEarnsNothing(t *testing.T) {
	store := newMemStore()
	dispatcher := NewRewardDispatcher(store, &memEmitter{})
	order, buyer := rewardFixture(store)
	order.TotalAmount = 500 // below the 1000 minimum

	dispatcher.Dispatch(order, buyer)

	assert.NotContains(t, store.rewards, rewardKey(order.ID, models.RewardTypePurchase))
	assert.Equal(t, 0, store.users[2].Points)
	// Referral payout is independent of the purchase threshold.
	assert.Contains(t, store.rewards, rewardKey(order.ID, models.RewardTypeReferralPurchase))
}

func TestDispatch_NoActiveProgramsIsANoop(t *testing.T) {
	store := newMemStore()
	dispatcher := NewRewardDispatcher(store, &memEmitter{})
	order, buyer := rewardFixture(store)
	store.pointsSetting = nil
	store.referralSetting = nil

	dispatcher.Dispatch(order, buyer)

	assert.Empty(t, store.rewards)
	assert.Equal(t, 0, store.users[2].Points)
}

func TestDispatch_ZeroRateReferralSkipsInsert(t *testing.T) {
	store := newMemStore()
	dispatcher := NewRewardDispatcher(store, &memEmitter{})
	order, buyer := rewardFixture(store)
	store.referralSetting = &models.ReferralSetting{ReferrerPointsPerPurchase: 0, IsActive: true}

	dispatcher.Dispatch(order, buyer)

	assert.NotContains(t, store.rewards, rewardKey(order.ID, models.RewardTypeReferralPurchase))
}
