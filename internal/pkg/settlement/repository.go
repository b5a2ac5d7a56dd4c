package settlement

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/greenbasket/greenbasket/app/models"
	"github.com/greenbasket/greenbasket/internal/pkg/cache"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrAtomicUnsupported is returned by Store.Atomic when the backing store
// cannot provide an atomic multi-write. Callers fall back to sequential
// application.
var ErrAtomicUnsupported = errors.New("store does not support atomic multi-writes")

// Store is the persistence port of the settlement engine. The conditional
// Transition* methods are the per-reference critical section: they perform
// `UPDATE ... WHERE status = ?` and report via the claimed flag whether this
// caller won the transition, so two racing callers can never both apply the
// same settlement. Increments are relative operations, never read-modify-write.
type Store interface {
	OrderByTransactionID(reference string, userID uint) (*models.Order, error)
	OrderByIDForUser(orderID, userID uint) (*models.Order, error)
	LatestPendingOrder(userID uint, paymentMethod string) (*models.Order, error)
	TransitionOrderPayment(orderID uint, from []string, to string) (claimed bool, err error)
	UpdateOrderStatus(orderID uint, status string) error
	SetOrderTransactionID(orderID uint, reference string) error

	WalletTransactionByReference(reference string) (*models.WalletTransaction, error)
	TransitionWalletTransaction(reference string, from, to string) (claimed bool, err error)

	UpsertPaymentByReference(p *models.Payment) error

	UserByID(id uint) (*models.User, error)
	UserByEmail(email string) (*models.User, error)
	IncrementWalletBalance(userID uint, amount float64) error
	IncrementPoints(userID uint, points int) error

	CreateRewardIfAbsent(r *models.Reward) (created bool, err error)
	CreateNotification(n *models.Notification) error

	ActivePointsSetting() (*models.PointsSetting, error)
	ActiveReferralSetting() (*models.ReferralSetting, error)

	// Atomic runs fn against a store whose writes commit together or not at
	// all. Returns ErrAtomicUnsupported when no such primitive exists.
	Atomic(fn func(Store) error) error
}

const (
	pointsSettingCacheKey   = "settings:points:active"
	referralSettingCacheKey = "settings:referral:active"
	settingCacheTTL         = 5 * time.Minute
)

type gormStore struct {
	db *gorm.DB
}

// NewStore creates a settlement store backed by GORM.
func NewStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) OrderByTransactionID(reference string, userID uint) (*models.Order, error) {
	var o models.Order
	err := s.db.Where("transaction_id = ? AND user_id = ?", reference, userID).First(&o).Error
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (s *gormStore) OrderByIDForUser(orderID, userID uint) (*models.Order, error) {
	var o models.Order
	err := s.db.Where("id = ? AND user_id = ?", orderID, userID).First(&o).Error
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (s *gormStore) LatestPendingOrder(userID uint, paymentMethod string) (*models.Order, error) {
	var o models.Order
	err := s.db.
		Where("user_id = ? AND payment_status = ? AND payment_method = ?", userID, models.PaymentStatusPending, paymentMethod).
		Order("created_at DESC").
		First(&o).Error
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (s *gormStore) TransitionOrderPayment(orderID uint, from []string, to string) (bool, error) {
	tx := s.db.Model(&models.Order{}).
		Where("id = ? AND payment_status IN ?", orderID, from).
		Update("payment_status", to)
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

func (s *gormStore) UpdateOrderStatus(orderID uint, status string) error {
	return s.db.Model(&models.Order{}).Where("id = ?", orderID).Update("status", status).Error
}

func (s *gormStore) SetOrderTransactionID(orderID uint, reference string) error {
	return s.db.Model(&models.Order{}).
		Where("id = ? AND (transaction_id IS NULL OR transaction_id = '')", orderID).
		Update("transaction_id", reference).Error
}

func (s *gormStore) WalletTransactionByReference(reference string) (*models.WalletTransaction, error) {
	var t models.WalletTransaction
	err := s.db.Where("reference = ?", reference).First(&t).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *gormStore) TransitionWalletTransaction(reference string, from, to string) (bool, error) {
	tx := s.db.Model(&models.WalletTransaction{}).
		Where("reference = ? AND status = ?", reference, from).
		Update("status", to)
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

func (s *gormStore) UpsertPaymentByReference(p *models.Payment) error {
	if err := s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "transaction_id"},
		},
		DoUpdates: clause.AssignmentColumns([]string{
			"user_id",
			"order_id",
			"amount",
			"currency",
			"method",
			"status",
			"gateway_response",
			"paid_at",
			"updated_at",
		}),
	}).Create(p).Error; err != nil {
		return err
	}

	// Ensure ID is populated after upsert.
	return s.db.Where("transaction_id = ?", p.TransactionID).First(p).Error
}

func (s *gormStore) UserByID(id uint) (*models.User, error) {
	var u models.User
	err := s.db.First(&u, id).Error
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *gormStore) UserByEmail(email string) (*models.User, error) {
	var u models.User
	err := s.db.Where("email = ?", email).First(&u).Error
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *gormStore) IncrementWalletBalance(userID uint, amount float64) error {
	return s.db.Model(&models.User{}).
		Where("id = ?", userID).
		UpdateColumn("wallet_balance", gorm.Expr("wallet_balance + ?", amount)).Error
}

func (s *gormStore) IncrementPoints(userID uint, points int) error {
	return s.db.Model(&models.User{}).
		Where("id = ?", userID).
		UpdateColumn("points", gorm.Expr("points + ?", points)).Error
}

func (s *gormStore) CreateRewardIfAbsent(r *models.Reward) (bool, error) {
	tx := s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "order_id"},
			{Name: "type"},
		},
		DoNothing: true,
	}).Create(r)
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

func (s *gormStore) CreateNotification(n *models.Notification) error {
	return s.db.Create(n).Error
}

func (s *gormStore) ActivePointsSetting() (*models.PointsSetting, error) {
	if cached, err := cache.Get(pointsSettingCacheKey); err == nil && cached != "" {
		var ps models.PointsSetting
		if err := json.Unmarshal([]byte(cached), &ps); err == nil {
			return &ps, nil
		}
	}

	var ps models.PointsSetting
	err := s.db.Where("is_active = ?", true).Order("id DESC").First(&ps).Error
	if err != nil {
		return nil, err
	}
	if raw, err := json.Marshal(&ps); err == nil {
		_ = cache.Set(pointsSettingCacheKey, string(raw), settingCacheTTL)
	}
	return &ps, nil
}

func (s *gormStore) ActiveReferralSetting() (*models.ReferralSetting, error) {
	if cached, err := cache.Get(referralSettingCacheKey); err == nil && cached != "" {
		var rs models.ReferralSetting
		if err := json.Unmarshal([]byte(cached), &rs); err == nil {
			return &rs, nil
		}
	}

	var rs models.ReferralSetting
	err := s.db.Where("is_active = ?", true).Order("id DESC").First(&rs).Error
	if err != nil {
		return nil, err
	}
	if raw, err := json.Marshal(&rs); err == nil {
		_ = cache.Set(referralSettingCacheKey, string(raw), settingCacheTTL)
	}
	return &rs, nil
}

func (s *gormStore) Atomic(fn func(Store) error) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		return fn(&gormStore{db: tx})
	})
}
