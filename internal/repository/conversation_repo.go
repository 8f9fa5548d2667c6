package repository

import (
	"context"

	"eloboost/internal/models"

	"gorm.io/gorm"
)

// ConversationRepository is the chat capability the order flow consumes: open a conversation
// and append messages to it.
type ConversationRepository struct {
	db *gorm.DB
}

func NewConversationRepository(db *gorm.DB) *ConversationRepository {
	return &ConversationRepository{db: db}
}

func (r *ConversationRepository) WithTx(tx *gorm.DB) *ConversationRepository {
	return &ConversationRepository{db: tx}
}

func (r *ConversationRepository) Create(ctx context.Context, c *models.Conversation) error {
	return mapError(r.db.WithContext(ctx).Create(c).Error)
}

func (r *ConversationRepository) AppendMessage(ctx context.Context, m *models.Message) error {
	return mapError(r.db.WithContext(ctx).Create(m).Error)
}

func (r *ConversationRepository) GetByID(ctx context.Context, id uint) (*models.Conversation, error) {
	var c models.Conversation
	if err := r.db.WithContext(ctx).First(&c, id).Error; err != nil {
		return nil, mapError(err)
	}
	return &c, nil
}

func (r *ConversationRepository) Messages(ctx context.Context, conversationID uint) ([]models.Message, error) {
	var list []models.Message
	err := r.db.WithContext(ctx).Where("conversation_id = ?", conversationID).Order("id ASC").Find(&list).Error
	return list, mapError(err)
}
