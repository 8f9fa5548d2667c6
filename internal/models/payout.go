package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Payout struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	PartnerID     uint            `gorm:"not null;index" json:"partner_id"`
	Amount        decimal.Decimal `gorm:"type:decimal(20,2);not null;<-:create" json:"amount"` // write-once
	Status        string          `gorm:"size:20;not null;index" json:"status"`                // PENDING, APPROVED, DECLINED
	ProcessedBy   *uint           `json:"processed_by,omitempty"`
	ProcessedAt   *time.Time      `json:"processed_at,omitempty"`
	TransactionID *uint           `json:"transaction_id,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`

	Partner     User         `gorm:"foreignKey:PartnerID" json:"-"`
	Transaction *Transaction `gorm:"foreignKey:TransactionID" json:"transaction,omitempty"`
}

func (Payout) TableName() string {
	return "payouts"
}
