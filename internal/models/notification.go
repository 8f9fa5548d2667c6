package models

import (
	"time"
)

type Notification struct {
	ID         uint    `gorm:"primaryKey" json:"id"`
	SenderID   *uint   `gorm:"index" json:"sender_id,omitempty"`
	ReceiverID *uint   `gorm:"index" json:"receiver_id,omitempty"` // nil = pool-wide (partners)
	BoostID    *string `gorm:"size:64;index" json:"boost_id,omitempty"`
	ReportID   *uint   `json:"report_id,omitempty"`
	Type       string  `gorm:"size:50;not null;index" json:"type"`
	Content    string  `gorm:"type:text" json:"content"`
	IsRead     bool    `gorm:"not null;default:false" json:"is_read"`
	// SingletonKey is set only on notifications of which at most one may exist.
	SingletonKey *string   `gorm:"size:64;uniqueIndex" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

func (Notification) TableName() string {
	return "notifications"
}
