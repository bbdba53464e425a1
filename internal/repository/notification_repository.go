package repository

import (
	"context"
	"errors"
	"time"

	"taskboard-chat/internal/domain/notification"
	taskerrors "taskboard-chat/pkg/errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PostgresNotificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &PostgresNotificationRepository{db: db}
}

func (r *PostgresNotificationRepository) Create(ctx context.Context, n *notification.Notification) error {
	res := r.db.WithContext(ctx).Create(n)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return taskerrors.ErrAlreadyExists
		}
		return res.Error
	}
	return nil
}

func (r *PostgresNotificationRepository) ListForUser(ctx context.Context, userID uuid.UUID, limit int) ([]notification.Notification, error) {
	var items []notification.Notification
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *PostgresNotificationRepository) MarkRead(ctx context.Context, id, userID uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Model(&notification.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("read", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return taskerrors.ErrNotFound
	}
	return nil
}

func (r *PostgresNotificationRepository) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&notification.Notification{}).
		Where("user_id = ? AND read = false", userID).
		Update("read", true).Error
}

func (r *PostgresNotificationRepository) CountUnread(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&notification.Notification{}).
		Where("user_id = ? AND read = false", userID).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *PostgresNotificationRepository) HasRecent(ctx context.Context, userID uuid.UUID, kind, link string, since time.Time) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&notification.Notification{}).
		Where("user_id = ? AND kind = ? AND link = ? AND created_at >= ?", userID, kind, link, since).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
