package models

import (
	"time"

	"eloboost/internal/domain"

	"gorm.io/gorm"
)

type User struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Username  string         `gorm:"uniqueIndex;size:64;not null;default:''" json:"username"`
	Email     string         `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Role      string         `gorm:"size:20;not null;index" json:"role"` // CLIENT | PARTNER | ADMIN
	FCMToken  string         `gorm:"size:512" json:"-"`                 // For push notifications
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Wallet *Wallet `gorm:"foreignKey:UserID" json:"wallet,omitempty"`
}

func (u *User) IsPartner() bool { return u.Role == domain.RolePartner }
func (u *User) IsClient() bool  { return u.Role == domain.RoleClient }
func (u *User) IsAdmin() bool   { return u.Role == domain.RoleAdmin }

// AfterCreate gives every new user exactly one wallet, inside the creating transaction.
func (u *User) AfterCreate(tx *gorm.DB) error {
	return tx.Create(&Wallet{UserID: u.ID, Currency: domain.DefaultCurrency}).Error
}
