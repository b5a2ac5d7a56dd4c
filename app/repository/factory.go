package repository

import (
	"sync"

	"gorm.io/gorm"
)

// Repositories bundles all repository instances.
type Repositories struct {
	User              UserRepository
	Order             OrderRepository
	WalletTransaction WalletTransactionRepository
	Reward            RewardRepository
	Notification      NotificationRepository
}

// NewRepositories creates all repositories from one DB handle.
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:              NewUserRepository(db),
		Order:             NewOrderRepository(db),
		WalletTransaction: NewWalletTransactionRepository(db),
		Reward:            NewRewardRepository(db),
		Notification:      NewNotificationRepository(db),
	}
}

// Factory manages repository instances and ensures they are singletons
type Factory struct {
	db    *gorm.DB
	repos *Repositories
	once  sync.Once
}

// NewFactory creates a new repository factory
func NewFactory(db *gorm.DB) *Factory {
	return &Factory{
		db: db,
	}
}

// GetRepositories returns a singleton instance of all repositories
func (f *Factory) GetRepositories() *Repositories {
	f.once.Do(func() {
		f.repos = NewRepositories(f.db)
	})
	return f.repos
}

var (
	globalFactory   *Factory
	globalFactoryMu sync.Mutex
)

// SetGlobalFactory installs the process-wide factory. Called once at startup.
func SetGlobalFactory(f *Factory) {
	globalFactoryMu.Lock()
	defer globalFactoryMu.Unlock()
	globalFactory = f
}

// GetGlobalFactory returns the process-wide factory installed at startup.
func GetGlobalFactory() *Factory {
	globalFactoryMu.Lock()
	defer globalFactoryMu.Unlock()
	return globalFactory
}
