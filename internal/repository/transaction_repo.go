package repository

import (
	"context"

	"eloboost/internal/models"

	"gorm.io/gorm"
)

// TransactionRepository is append-only: there is no update or delete.
type TransactionRepository struct {
	db *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

func (r *TransactionRepository) WithTx(tx *gorm.DB) *TransactionRepository {
	return &TransactionRepository{db: tx}
}

func (r *TransactionRepository) Create(ctx context.Context, t *models.Transaction) error {
	return mapError(r.db.WithContext(ctx).Create(t).Error)
}

func (r *TransactionRepository) CreateBatch(ctx context.Context, list []models.Transaction) error {
	if len(list) == 0 {
		return nil
	}
	return mapError(r.db.WithContext(ctx).Create(&list).Error)
}

func (r *TransactionRepository) ListByUserID(ctx context.Context, userID uint, limit, offset int) ([]models.Transaction, error) {
	var list []models.Transaction
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").Limit(limit).Offset(offset).Find(&list).Error
	return list, mapError(err)
}

func (r *TransactionRepository) CountByPayoutID(ctx context.Context, payoutID uint) (int64, error) {
	var c int64
	err := r.db.WithContext(ctx).Model(&models.Transaction{}).Where("payout_id = ?", payoutID).Count(&c).Error
	return c, mapError(err)
}
