package settlement

import (
	"errors"

	"github.com/gofiber/fiber/v2/log"
	"github.com/greenbasket/greenbasket/app/models"
	"gorm.io/gorm"
)

// MatchStrategy names the fallback step that resolved a reference to an
// order. Logged with every match for support tooling.
type MatchStrategy string

const (
	MatchByTransactionID   MatchStrategy = "transaction_id"
	MatchByMetadataOrderID MatchStrategy = "metadata_order_id"
	MatchByLatestPending   MatchStrategy = "latest_pending"
)

// ErrNoOrderMatched means no fallback strategy resolved the reference.
var ErrNoOrderMatched = errors.New("no order matched reference by any strategy")

// Matcher resolves a payment reference to an order. Every strategy filters by
// the owning user, so a reference can never match across users.
type Matcher struct {
	store Store
}

func NewMatcher(store Store) *Matcher {
	return &Matcher{store: store}
}

// Match tries, in order: the stored transaction id, the order id echoed back
// in gateway metadata, and finally the user's most recent PENDING gateway
// order. The last step exists because checkout may fail to persist the
// reference before redirecting; it can mismatch when a user has several
// orders pending at once, which is a known product-level limitation rather
// than something to second-guess here.
func (m *Matcher) Match(reference string, metadataOrderID uint, userID uint) (*models.Order, MatchStrategy, error) {
	order, err := m.store.OrderByTransactionID(reference, userID)
	if err == nil {
		return order, MatchByTransactionID, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, "", err
	}

	if metadataOrderID != 0 {
		order, err = m.store.OrderByIDForUser(metadataOrderID, userID)
		if err == nil {
			m.healTransactionID(order, reference, MatchByMetadataOrderID)
			return order, MatchByMetadataOrderID, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", err
		}
	}

	order, err = m.store.LatestPendingOrder(userID, models.PaymentMethodPaystack)
	if err == nil {
		log.Warnf("settlement: reference %s for user %d matched heuristically to order %d (latest pending)", reference, userID, order.ID)
		m.healTransactionID(order, reference, MatchByLatestPending)
		return order, MatchByLatestPending, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, "", err
	}

	return nil, "", ErrNoOrderMatched
}

// healTransactionID stores the reference on orders matched by a fallback
// step, so later deliveries for the same reference resolve by step one.
func (m *Matcher) healTransactionID(order *models.Order, reference string, strategy MatchStrategy) {
	if order.TransactionID != "" {
		return
	}
	if err := m.store.SetOrderTransactionID(order.ID, reference); err != nil {
		log.Warnf("settlement: failed to persist reference %s on order %d (%s match): %v", reference, order.ID, strategy, err)
		return
	}
	order.TransactionID = reference
}
