package repository

import (
	"context"
	"time"

	"eloboost/internal/domain"
	"eloboost/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PayoutRepository struct {
	db *gorm.DB
}

func NewPayoutRepository(db *gorm.DB) *PayoutRepository {
	return &PayoutRepository{db: db}
}

func (r *PayoutRepository) WithTx(tx *gorm.DB) *PayoutRepository {
	return &PayoutRepository{db: tx}
}

func (r *PayoutRepository) Create(ctx context.Context, p *models.Payout) error {
	return mapError(r.db.WithContext(ctx).Create(p).Error)
}

func (r *PayoutRepository) GetByID(ctx context.Context, id uint) (*models.Payout, error) {
	var p models.Payout
	err := r.db.WithContext(ctx).Preload("Transaction").First(&p, id).Error
	if err != nil {
		return nil, notFound(err, domain.ErrPayoutNotFound)
	}
	return &p, nil
}

// LockByID reads the payout with a row lock held until the enclosing transaction ends.
func (r *PayoutRepository) LockByID(ctx context.Context, id uint) (*models.Payout, error) {
	var p models.Payout
	err := r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).First(&p, id).Error
	if err != nil {
		return nil, notFound(err, domain.ErrPayoutNotFound)
	}
	return &p, nil
}

// MarkProcessed flips a PENDING payout to status. The status guard makes this the single
// writer gate: a payout that is no longer PENDING yields ErrAlreadyProcessed.
func (r *PayoutRepository) MarkProcessed(ctx context.Context, id uint, status string, adminID uint, transactionID *uint) error {
	now := time.Now()
	res := r.db.WithContext(ctx).Model(&models.Payout{}).
		Where("id = ? AND status = ?", id, domain.PayoutStatusPending).
		Updates(map[string]interface{}{
			"status":         status,
			"processed_by":   adminID,
			"processed_at":   now,
			"transaction_id": transactionID,
		})
	if res.Error != nil {
		return mapError(res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrAlreadyProcessed
	}
	return nil
}

type PayoutFilter struct {
	PartnerID *uint
	Status    string
	Limit     int
	Offset    int
}

func (r *PayoutRepository) List(ctx context.Context, f PayoutFilter) ([]models.Payout, error) {
	q := r.db.WithContext(ctx).Model(&models.Payout{})
	if f.PartnerID != nil {
		q = q.Where("partner_id = ?", *f.PartnerID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	var list []models.Payout
	err := q.Order("created_at DESC").Limit(f.Limit).Offset(f.Offset).Find(&list).Error
	return list, mapError(err)
}
