package settlement

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/greenbasket/greenbasket/app/models"
	"gorm.io/gorm"
)

// memStore is an in-memory Store used by the package tests. It mirrors the
// semantics of the GORM implementation: conditional transitions report
// whether the caller won, increments are relative, and reward inserts are
// keyed by (order, type).
type memStore struct {
	mu sync.Mutex

	orders          map[uint]*models.Order
	walletTxs       map[string]*models.WalletTransaction
	users           map[uint]*models.User
	payments        map[string]*models.Payment
	rewards         map[string]*models.Reward
	notifications   []*models.Notification
	pointsSetting   *models.PointsSetting
	referralSetting *models.ReferralSetting

	atomicSupported  bool
	failNotification bool
}

func newMemStore() *memStore {
	return &memStore{
		orders:          map[uint]*models.Order{},
		walletTxs:       map[string]*models.WalletTransaction{},
		users:           map[uint]*models.User{},
		payments:        map[string]*models.Payment{},
		rewards:         map[string]*models.Reward{},
		atomicSupported: true,
	}
}

func rewardKey(orderID uint, rtype string) string {
	return fmt.Sprintf("%d:%s", orderID, rtype)
}

func (s *memStore) OrderByTransactionID(reference string, userID uint) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.orders {
		if o.TransactionID == reference && o.UserID == userID {
			cp := *o
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *memStore) OrderByIDForUser(orderID, userID uint) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if o, ok := s.orders[orderID]; ok && o.UserID == userID {
		cp := *o
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *memStore) LatestPendingOrder(userID uint, paymentMethod string) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var candidates []*models.Order
	for _, o := range s.orders {
		if o.UserID == userID && o.PaymentStatus == models.PaymentStatusPending && o.PaymentMethod == paymentMethod {
			candidates = append(candidates, o)
		}
	}
	if len(candidates) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].CreatedAt.After(candidates[j].CreatedAt)
	})
	cp := *candidates[0]
	return &cp, nil
}

func (s *memStore) TransitionOrderPayment(orderID uint, from []string, to string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[orderID]
	if !ok {
		return false, nil
	}
	for _, f := range from {
		if o.PaymentStatus == f {
			o.PaymentStatus = to
			return true, nil
		}
	}
	return false, nil
}

func (s *memStore) UpdateOrderStatus(orderID uint, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if o, ok := s.orders[orderID]; ok {
		o.Status = status
	}
	return nil
}

func (s *memStore) SetOrderTransactionID(orderID uint, reference string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if o, ok := s.orders[orderID]; ok && o.TransactionID == "" {
		o.TransactionID = reference
	}
	return nil
}

func (s *memStore) WalletTransactionByReference(reference string) (*models.WalletTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.walletTxs[reference]; ok {
		cp := *t
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *memStore) TransitionWalletTransaction(reference string, from, to string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.walletTxs[reference]
	if !ok || t.Status != from {
		return false, nil
	}
	t.Status = to
	return true, nil
}

func (s *memStore) UpsertPaymentByReference(p *models.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.payments[p.TransactionID]; ok {
		p.ID = existing.ID
	} else {
		p.ID = uint(len(s.payments) + 1)
	}
	cp := *p
	s.payments[p.TransactionID] = &cp
	return nil
}

func (s *memStore) UserByID(id uint) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *memStore) UserByEmail(email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *memStore) IncrementWalletBalance(userID uint, amount float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[userID]; ok {
		u.WalletBalance += amount
	}
	return nil
}

func (s *memStore) IncrementPoints(userID uint, points int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[userID]; ok {
		u.Points += points
	}
	return nil
}

func (s *memStore) CreateRewardIfAbsent(r *models.Reward) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := rewardKey(r.OrderID, r.Type)
	if _, ok := s.rewards[key]; ok {
		return false, nil
	}
	r.ID = uint(len(s.rewards) + 1)
	cp := *r
	s.rewards[key] = &cp
	return true, nil
}

func (s *memStore) CreateNotification(n *models.Notification) error {
	if s.failNotification {
		return errors.New("notification store unavailable")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *n
	s.notifications = append(s.notifications, &cp)
	return nil
}

func (s *memStore) ActivePointsSetting() (*models.PointsSetting, error) {
	if s.pointsSetting == nil {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *s.pointsSetting
	return &cp, nil
}

func (s *memStore) ActiveReferralSetting() (*models.ReferralSetting, error) {
	if s.referralSetting == nil {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *s.referralSetting
	return &cp, nil
}

func (s *memStore) Atomic(fn func(Store) error) error {
	if !s.atomicSupported {
		return ErrAtomicUnsupported
	}
	return fn(s)
}

// memEmitter records emitted notifications/emails for assertions.
type memEmitter struct {
	mu      sync.Mutex
	notices []string
	emails  []string
	fail    bool
}

func (e *memEmitter) Notify(userID uint, kind, title, message string, referenceID uint) error {
	if e.fail {
		return errors.New("notification provider down")
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.notices = append(e.notices, fmt.Sprintf("%d:%s:%s", userID, kind, title))
	return nil
}

func (e *memEmitter) SendEmail(userID uint, subject, body string) error {
	if e.fail {
		return errors.New("email provider down")
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.emails = append(e.emails, fmt.Sprintf("%d:%s", userID, subject))
	return nil
}
