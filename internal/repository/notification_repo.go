package repository

import (
	"context"

	"eloboost/internal/domain"
	"eloboost/internal/models"

	"gorm.io/gorm"
)

type NotificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) Create(ctx context.Context, n *models.Notification) error {
	return mapError(r.db.WithContext(ctx).Create(n).Error)
}

// ReplaceSingleton deletes the notification holding key and inserts n in its place, in one
// transaction, so at most one row with that key ever exists.
func (r *NotificationRepository) ReplaceSingleton(ctx context.Context, key string, n *models.Notification) error {
	n.SingletonKey = &key
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("singleton_key = ?", key).Delete(&models.Notification{}).Error; err != nil {
			return err
		}
		return tx.Create(n).Error
	})
	return mapError(err)
}

func (r *NotificationRepository) GetBySingletonKey(ctx context.Context, key string) (*models.Notification, error) {
	var n models.Notification
	err := r.db.WithContext(ctx).Where("singleton_key = ?", key).First(&n).Error
	if err != nil {
		return nil, notFound(err, domain.NotFound("notification not found"))
	}
	return &n, nil
}

// ListForUser returns the user's notifications; partners also see pool-wide ones.
func (r *NotificationRepository) ListForUser(ctx context.Context, userID uint, includePool bool, limit, offset int) ([]models.Notification, error) {
	q := r.db.WithContext(ctx).Where("receiver_id = ?", userID)
	if includePool {
		q = r.db.WithContext(ctx).Where("receiver_id = ? OR receiver_id IS NULL", userID)
	}
	var list []models.Notification
	err := q.Order("created_at DESC, id DESC").Limit(limit).Offset(offset).Find(&list).Error
	return list, mapError(err)
}

func (r *NotificationRepository) CountUnread(ctx context.Context, userID uint) (int64, error) {
	var c int64
	err := r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("receiver_id = ? AND is_read = ?", userID, false).Count(&c).Error
	return c, mapError(err)
}

func (r *NotificationRepository) MarkRead(ctx context.Context, id, userID uint) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("id = ? AND receiver_id = ?", id, userID).Update("is_read", true)
	return res.RowsAffected > 0, mapError(res.Error)
}
