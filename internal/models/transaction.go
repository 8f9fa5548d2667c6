package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is an immutable ledger entry. Rows are inserted, never updated or deleted.
type Transaction struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	UserID      uint            `gorm:"not null;index" json:"user_id"`
	Type        string          `gorm:"size:30;not null;index" json:"type"` // SALE, PAYOUT, PARTNER_COMMISSION, FEE, ...
	Amount      decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"amount"` // positive = credit, negative = debit
	Description string          `gorm:"size:255" json:"description"`
	Status      string          `gorm:"size:20;not null" json:"status"`
	BoostID     *string         `gorm:"size:64;index" json:"boost_id,omitempty"`
	PayoutID    *uint           `gorm:"index" json:"payout_id,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

func (Transaction) TableName() string {
	return "transactions"
}
