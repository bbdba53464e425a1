package repository

import (
	"context"
	"errors"
	"time"

	"taskboard-chat/internal/domain/chat"
	taskerrors "taskboard-chat/pkg/errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PostgresChatRepository struct {
	db *gorm.DB
}

func NewChatRepository(db *gorm.DB) ChatRepository {
	return &PostgresChatRepository{db: db}
}

func (r *PostgresChatRepository) Create(ctx context.Context, c *chat.Chat, members []chat.Member) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(c).Error; err != nil {
			return err
		}
		for i := range members {
			if err := tx.Create(&members[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return taskerrors.ErrAlreadyExists
		}
		return err
	}
	return nil
}

func (r *PostgresChatRepository) GetByID(ctx context.Context, id uuid.UUID) (chat.Chat, error) {
	var c chat.Chat
	err := r.db.WithContext(ctx).
		Preload("Members").
		Where("id = ?", id).
		First(&c).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return chat.Chat{}, taskerrors.ErrNotFound
		}
		return chat.Chat{}, err
	}
	return c, nil
}

func (r *PostgresChatRepository) GetDirectByPairKey(ctx context.Context, pairKey string) (chat.Chat, error) {
	var c chat.Chat
	err := r.db.WithContext(ctx).
		Preload("Members").
		Where("kind = ? AND pair_key = ?", chat.KindDirect, pairKey).
		First(&c).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return chat.Chat{}, taskerrors.ErrNotFound
		}
		return chat.Chat{}, err
	}
	return c, nil
}

func (r *PostgresChatRepository) GetByProjectRef(ctx context.Context, projectID uuid.UUID) (chat.Chat, error) {
	var c chat.Chat
	err := r.db.WithContext(ctx).
		Preload("Members").
		Where("kind = ? AND project_ref = ?", chat.KindProject, projectID).
		First(&c).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return chat.Chat{}, taskerrors.ErrNotFound
		}
		return chat.Chat{}, err
	}
	return c, nil
}

func (r *PostgresChatRepository) GetUserChats(ctx context.Context, userID uuid.UUID) ([]chat.Chat, error) {
	var chats []chat.Chat

	subQuery := r.db.Model(&chat.Member{}).
		Select("chat_id").
		Where("user_id = ?", userID)

	err := r.db.WithContext(ctx).
		Preload("Members").
		Where("id IN (?)", subQuery).
		Order("updated_at DESC").
		Find(&chats).Error
	if err != nil {
		return nil, err
	}
	return chats, nil
}

func (r *PostgresChatRepository) IsMember(ctx context.Context, chatID, userID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&chat.Member{}).
		Where("chat_id = ? AND user_id = ?", chatID, userID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *PostgresChatRepository) GetMember(ctx context.Context, chatID, userID uuid.UUID) (chat.Member, error) {
	var m chat.Member
	err := r.db.WithContext(ctx).
		Where("chat_id = ? AND user_id = ?", chatID, userID).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return chat.Member{}, taskerrors.ErrNotFound
		}
		return chat.Member{}, err
	}
	return m, nil
}

func (r *PostgresChatRepository) Touch(ctx context.Context, chatID uuid.UUID, at time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&chat.Chat{}).
		Where("id = ?", chatID).
		Update("updated_at", at)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return taskerrors.ErrNotFound
	}
	return nil
}

func (r *PostgresChatRepository) MarkRead(ctx context.Context, chatID, userID uuid.UUID, at time.Time) error {
	// The watermark only moves forward; a delayed request cannot regress it.
	res := r.db.WithContext(ctx).
		Model(&chat.Member{}).
		Where("chat_id = ? AND user_id = ? AND (last_read_at IS NULL OR last_read_at < ?)", chatID, userID, at).
		Update("last_read_at", at)
	if res.Error != nil {
		return res.Error
	}
	return nil
}
