package repository

import (
	"context"
	"errors"
	"time"

	"taskboard-chat/internal/domain/message"
	taskerrors "taskboard-chat/pkg/errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PostgresMessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &PostgresMessageRepository{db: db}
}

func (r *PostgresMessageRepository) Create(ctx context.Context, m *message.Message) error {
	res := r.db.WithContext(ctx).Create(m)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return taskerrors.ErrAlreadyExists
		}
		return res.Error
	}
	return nil
}

func (r *PostgresMessageRepository) GetByID(ctx context.Context, id uuid.UUID) (message.Message, error) {
	var m message.Message
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return message.Message{}, taskerrors.ErrNotFound
		}
		return message.Message{}, err
	}
	return m, nil
}

func (r *PostgresMessageRepository) GetPage(ctx context.Context, chatID uuid.UUID, before *time.Time, limit int) ([]message.Message, error) {
	var msgs []message.Message

	q := r.db.WithContext(ctx).
		Where("chat_id = ?", chatID)
	if before != nil {
		q = q.Where("created_at < ?", *before)
	}

	err := q.
		Order("created_at DESC, seq DESC").
		Limit(limit).
		Find(&msgs).Error
	if err != nil {
		return nil, err
	}
	return msgs, nil
}

func (r *PostgresMessageRepository) Update(ctx context.Context, m message.Message) error {
	res := r.db.WithContext(ctx).Save(&m)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return taskerrors.ErrNotFound
	}
	return nil
}

func (r *PostgresMessageRepository) HardDelete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&message.Message{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return taskerrors.ErrNotFound
	}
	return nil
}

func (r *PostgresMessageRepository) CountUnread(ctx context.Context, chatID, userID uuid.UUID, lastReadAt *time.Time) (int64, error) {
	var count int64

	q := r.db.WithContext(ctx).
		Model(&message.Message{}).
		Where("chat_id = ? AND sender_id <> ?", chatID, userID)
	if lastReadAt != nil {
		q = q.Where("created_at > ?", *lastReadAt)
	}

	if err := q.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *PostgresMessageRepository) GetLatest(ctx context.Context, chatID uuid.UUID) (message.Message, error) {
	var m message.Message
	err := r.db.WithContext(ctx).
		Where("chat_id = ?", chatID).
		Order("created_at DESC, seq DESC").
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return message.Message{}, taskerrors.ErrNotFound
		}
		return message.Message{}, err
	}
	return m, nil
}
