package repository

import (
	"github.com/greenbasket/greenbasket/app/models"
	"gorm.io/gorm"
)

type rewardRepository struct {
	db *gorm.DB
}

// NewRewardRepository creates a reward repository backed by GORM.
func NewRewardRepository(db *gorm.DB) RewardRepository {
	return &rewardRepository{db: db}
}

func (r *rewardRepository) ListByUser(userID uint, offset, limit int) ([]models.Reward, error) {
	var rewards []models.Reward
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&rewards).Error
	return rewards, err
}
