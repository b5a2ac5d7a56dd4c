package repository

import (
	"github.com/greenbasket/greenbasket/app/models"
)

// UserRepository defines the interface for user-related database operations
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	GetByAPIKeyHash(hash string) (*models.User, error)
	Update(user *models.User) error
}

// OrderRepository defines the interface for order-related database operations
type OrderRepository interface {
	GetByIDForUser(id, userID uint) (*models.Order, error)
	ListByUser(userID uint, offset, limit int) ([]models.Order, error)
	CountByUser(userID uint) (int64, error)
}

// WalletTransactionRepository defines the interface for wallet funding records
type WalletTransactionRepository interface {
	Create(tx *models.WalletTransaction) error
	GetByReference(reference string) (*models.WalletTransaction, error)
	ListByUser(userID uint, offset, limit int) ([]models.WalletTransaction, error)
}

// RewardRepository defines the interface for loyalty reward records
type RewardRepository interface {
	ListByUser(userID uint, offset, limit int) ([]models.Reward, error)
}

// NotificationRepository defines the interface for notification records
type NotificationRepository interface {
	ListByUser(userID uint, offset, limit int) ([]models.Notification, error)
	CountUnreadByUser(userID uint) (int64, error)
}
