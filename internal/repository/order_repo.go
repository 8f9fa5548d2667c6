package repository

import (
	"context"
	"time"

	"eloboost/internal/domain"
	"eloboost/internal/models"

	"gorm.io/gorm"
)

type OrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

func (r *OrderRepository) WithTx(tx *gorm.DB) *OrderRepository {
	return &OrderRepository{db: tx}
}

// Create inserts the order together with its first status_history entry.
func (r *OrderRepository) Create(ctx context.Context, o *models.Order, actorID *uint) error {
	o.StatusHistory = []models.OrderStatusEntry{{Status: o.Status, ActorID: actorID, CreatedAt: time.Now()}}
	return mapError(r.db.WithContext(ctx).Create(o).Error)
}

func (r *OrderRepository) GetByBoostID(ctx context.Context, boostID string) (*models.Order, error) {
	var o models.Order
	err := r.db.WithContext(ctx).
		Preload("StatusHistory", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Where("boost_id = ?", boostID).First(&o).Error
	if err != nil {
		return nil, notFound(err, domain.ErrOrderNotFound)
	}
	return &o, nil
}

// Transition describes one status move. Changes holds extra column updates applied in the
// same statement as the status.
type Transition struct {
	To      string
	ActorID *uint
	AdminID *uint
	Changes map[string]interface{}
}

// ApplyTransition writes the new status and appends the matching history entry in one
// transaction. The update is guarded on the status and version read by the caller; if another
// writer got there first nothing is written and ErrWriteConflict is returned. The returned
// order is a fresh snapshot.
func (r *OrderRepository) ApplyTransition(ctx context.Context, o *models.Order, t Transition) (*models.Order, error) {
	var out *models.Order
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		updates := map[string]interface{}{
			"status":     t.To,
			"version":    gorm.Expr("version + 1"),
			"updated_at": now,
		}
		for k, v := range t.Changes {
			updates[k] = v
		}
		res := tx.Model(&models.Order{}).
			Where("id = ? AND status = ? AND version = ?", o.ID, o.Status, o.Version).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrWriteConflict
		}
		entry := models.OrderStatusEntry{
			OrderID:   o.ID,
			Status:    t.To,
			ActorID:   t.ActorID,
			AdminID:   t.AdminID,
			CreatedAt: now,
		}
		if err := tx.Create(&entry).Error; err != nil {
			return err
		}
		fresh, err := (&OrderRepository{db: tx}).GetByBoostID(ctx, o.BoostID)
		if err != nil {
			return err
		}
		out = fresh
		return nil
	})
	if err != nil {
		return nil, mapError(err)
	}
	return out, nil
}

// BumpRetry increments retry_count on an order, guarded on the version the caller read.
func (r *OrderRepository) BumpRetry(ctx context.Context, o *models.Order) error {
	res := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND version = ?", o.ID, o.Version).
		Updates(map[string]interface{}{
			"retry_count": gorm.Expr("retry_count + 1"),
			"version":     gorm.Expr("version + 1"),
			"updated_at":  time.Now(),
		})
	if res.Error != nil {
		return mapError(res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrWriteConflict
	}
	return nil
}

// DeletePending hard-deletes an order that is still PENDING, along with its history.
func (r *OrderRepository) DeletePending(ctx context.Context, o *models.Order) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND status = ? AND version = ?", o.ID, domain.OrderStatusPending, o.Version).
			Delete(&models.Order{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrWriteConflict
		}
		return tx.Where("order_id = ?", o.ID).Delete(&models.OrderStatusEntry{}).Error
	})
	return mapError(err)
}

func (r *OrderRepository) ListByUserID(ctx context.Context, userID uint, limit, offset int) ([]models.Order, error) {
	var list []models.Order
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").Limit(limit).Offset(offset).Find(&list).Error
	return list, mapError(err)
}

func (r *OrderRepository) ListByPartnerID(ctx context.Context, partnerID uint, limit, offset int) ([]models.Order, error) {
	var list []models.Order
	err := r.db.WithContext(ctx).Where("partner_id = ?", partnerID).
		Order("created_at DESC, id DESC").Limit(limit).Offset(offset).Find(&list).Error
	return list, mapError(err)
}

// ListAvailable returns the unassigned pool plus WAITING orders pre-assigned to partnerID.
func (r *OrderRepository) ListAvailable(ctx context.Context, partnerID uint, limit, offset int) ([]models.Order, error) {
	var list []models.Order
	err := r.db.WithContext(ctx).
		Where("(status = ? AND partner_id IS NULL) OR (status = ? AND assign_partner_id = ?)",
			domain.OrderStatusInActive, domain.OrderStatusWaiting, partnerID).
		Order("created_at ASC, id ASC").Limit(limit).Offset(offset).Find(&list).Error
	return list, mapError(err)
}
