package repository

import (
	"context"
	"errors"

	"eloboost/internal/domain"
	"eloboost/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type WalletRepository struct {
	db *gorm.DB
}

func NewWalletRepository(db *gorm.DB) *WalletRepository {
	return &WalletRepository{db: db}
}

func (r *WalletRepository) WithTx(tx *gorm.DB) *WalletRepository {
	return &WalletRepository{db: tx}
}

func (r *WalletRepository) GetByUserID(ctx context.Context, userID uint) (*models.Wallet, error) {
	var w models.Wallet
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&w).Error
	if err != nil {
		return nil, notFound(err, domain.ErrWalletNotFound)
	}
	return &w, nil
}

// LockByUserID reads the wallet with a row lock held until the enclosing transaction ends.
func (r *WalletRepository) LockByUserID(ctx context.Context, userID uint) (*models.Wallet, error) {
	var w models.Wallet
	err := r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", userID).First(&w).Error
	if err != nil {
		return nil, notFound(err, domain.ErrWalletNotFound)
	}
	return &w, nil
}

// ReserveWithdrawal moves amount from balance to pending_withdrawal.
func (r *WalletRepository) ReserveWithdrawal(ctx context.Context, userID uint, amount decimal.Decimal) error {
	res := r.db.WithContext(ctx).Model(&models.Wallet{}).
		Where("user_id = ? AND balance >= ?", userID, amount).
		Updates(map[string]interface{}{
			"balance":            gorm.Expr("balance - ?", amount),
			"pending_withdrawal": gorm.Expr("pending_withdrawal + ?", amount),
		})
	if res.Error != nil {
		return mapError(res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrInsufficientBalance
	}
	return nil
}

// SettleWithdrawal clears amount from pending_withdrawal into total_withdrawn.
func (r *WalletRepository) SettleWithdrawal(ctx context.Context, userID uint, amount decimal.Decimal) error {
	return r.releasePending(ctx, userID, amount, "total_withdrawn")
}

// ReturnWithdrawal moves amount from pending_withdrawal back to balance.
func (r *WalletRepository) ReturnWithdrawal(ctx context.Context, userID uint, amount decimal.Decimal) error {
	return r.releasePending(ctx, userID, amount, "balance")
}

func (r *WalletRepository) releasePending(ctx context.Context, userID uint, amount decimal.Decimal, into string) error {
	res := r.db.WithContext(ctx).Model(&models.Wallet{}).
		Where("user_id = ? AND pending_withdrawal >= ?", userID, amount).
		Updates(map[string]interface{}{
			"pending_withdrawal": gorm.Expr("pending_withdrawal - ?", amount),
			into:                 gorm.Expr(into+" + ?", amount),
		})
	if res.Error != nil {
		return mapError(res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.Internal(errors.New("pending withdrawal is below the payout amount"))
	}
	return nil
}
