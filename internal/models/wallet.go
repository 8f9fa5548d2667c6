package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Wallet balances are only moved through the ledger repository's guarded updates.
type Wallet struct {
	ID                uint            `gorm:"primaryKey" json:"id"`
	UserID            uint            `gorm:"uniqueIndex;not null" json:"user_id"`
	Balance           decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0;check:chk_wallets_balance,balance >= 0" json:"balance"`
	EscrowBalance     decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0;check:chk_wallets_escrow,escrow_balance >= 0" json:"escrow_balance"`
	PendingWithdrawal decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0;check:chk_wallets_pending,pending_withdrawal >= 0" json:"pending_withdrawal"`
	TotalEarnings     decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0" json:"total_earnings"`
	TotalWithdrawn    decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0" json:"total_withdrawn"`
	Debt              decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0;check:chk_wallets_debt,debt >= 0" json:"debt"`
	Currency          string          `gorm:"size:3;default:'USD'" json:"currency"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

func (Wallet) TableName() string {
	return "wallets"
}

// NonNegative reports whether every constrained balance is >= 0.
func (w *Wallet) NonNegative() bool {
	return !w.Balance.IsNegative() && !w.EscrowBalance.IsNegative() &&
		!w.PendingWithdrawal.IsNegative() && !w.Debt.IsNegative()
}
