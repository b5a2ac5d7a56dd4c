package repository

import (
	"github.com/greenbasket/greenbasket/app/models"
	"gorm.io/gorm"
)

type walletTransactionRepository struct {
	db *gorm.DB
}

// NewWalletTransactionRepository creates a wallet transaction repository backed by GORM.
func NewWalletTransactionRepository(db *gorm.DB) WalletTransactionRepository {
	return &walletTransactionRepository{db: db}
}

func (r *walletTransactionRepository) Create(tx *models.WalletTransaction) error {
	return r.db.Create(tx).Error
}

func (r *walletTransactionRepository) GetByReference(reference string) (*models.WalletTransaction, error) {
	var tx models.WalletTransaction
	if err := r.db.Where("reference = ?", reference).First(&tx).Error; err != nil {
		return nil, err
	}
	return &tx, nil
}

func (r *walletTransactionRepository) ListByUser(userID uint, offset, limit int) ([]models.WalletTransaction, error) {
	var txs []models.WalletTransaction
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&txs).Error
	return txs, err
}
