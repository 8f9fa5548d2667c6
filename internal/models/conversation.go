package models

import "time"

// Conversation is the chat thread opened between client and partner when an order is accepted.
type Conversation struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	BoostID   string    `gorm:"size:64;index;not null" json:"boost_id"`
	ClientID  uint      `gorm:"not null;index" json:"client_id"`
	PartnerID uint      `gorm:"not null;index" json:"partner_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (Conversation) TableName() string {
	return "conversations"
}

type Message struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	ConversationID uint      `gorm:"not null;index" json:"conversation_id"`
	SenderID       *uint     `gorm:"index" json:"sender_id"` // nil = system message
	Content        string    `gorm:"type:text" json:"content"`
	CreatedAt      time.Time `json:"created_at"`
}

func (Message) TableName() string {
	return "messages"
}
