package settlement

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2/log"
	"github.com/greenbasket/greenbasket/app/models"
	"gorm.io/gorm"
)

// RewardDispatcher awards loyalty points and referral rewards as one-time
// side effects of an order settling. Each award is keyed by (order, type)
// through an insert-if-absent, so it stays exactly-once even if dispatch is
// reached through more than one call path.
type RewardDispatcher struct {
	store   Store
	emitter NotificationEmitter
}

func NewRewardDispatcher(store Store, emitter NotificationEmitter) *RewardDispatcher {
	return &RewardDispatcher{store: store, emitter: emitter}
}

// Dispatch runs both award checks. The two effects are independent and each
// wrapped separately: a failure awarding purchase points must not suppress
// the referral payout or vice versa.
func (d *RewardDispatcher) Dispatch(order *models.Order, buyer *models.User) {
	runBestEffort("purchase reward", func() error {
		return d.awardPurchase(order)
	})
	runBestEffort("referral reward", func() error {
		return d.awardReferral(order, buyer)
	})
}

func (d *RewardDispatcher) awardPurchase(order *models.Order) error {
	setting, err := d.store.ActivePointsSetting()
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil // points program not configured
		}
		return err
	}

	points := setting.ComputePurchasePoints(order.TotalAmount)
	if points <= 0 {
		return nil
	}

	created, err := d.store.CreateRewardIfAbsent(&models.Reward{
		UserID:  order.UserID,
		OrderID: order.ID,
		Type:    models.RewardTypePurchase,
		Points:  points,
	})
	if err != nil {
		return err
	}
	if !created {
		log.Infof("settlement: purchase reward for order %d already exists, skipping", order.ID)
		return nil
	}

	if err := d.store.IncrementPoints(order.UserID, points); err != nil {
		return err
	}

	runBestEffort("purchase-reward notification", func() error {
		return d.emitter.Notify(order.UserID, models.NotificationTypeReward,
			"Points earned",
			fmt.Sprintf("You earned %d points on order %s.", points, order.OrderNumber),
			order.ID)
	})
	return nil
}

func (d *RewardDispatcher) awardReferral(order *models.Order, buyer *models.User) error {
	if buyer == nil || !buyer.WasReferred() {
		return nil
	}

	setting, err := d.store.ActiveReferralSetting()
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil // referral program not configured
		}
		return err
	}
	points := setting.ReferrerPointsPerPurchase
	if points <= 0 {
		return nil
	}

	referrerID := *buyer.ReferredByID
	created, err := d.store.CreateRewardIfAbsent(&models.Reward{
		UserID:  referrerID,
		OrderID: order.ID,
		Type:    models.RewardTypeReferralPurchase,
		Points:  points,
	})
	if err != nil {
		return err
	}
	if !created {
		log.Infof("settlement: referral reward for order %d already exists, skipping", order.ID)
		return nil
	}

	if err := d.store.IncrementPoints(referrerID, points); err != nil {
		return err
	}

	runBestEffort("referral-reward notification", func() error {
		return d.emitter.Notify(referrerID, models.NotificationTypeReward,
			"Referral bonus",
			fmt.Sprintf("You earned %d points because someone you referred completed a purchase.", points),
			order.ID)
	})
	return nil
}
