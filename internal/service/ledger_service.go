package service

import (
	"context"
	"fmt"
	"slices"

	"eloboost/internal/domain"
	"eloboost/internal/models"
	"eloboost/internal/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// LedgerService owns wallet balances, payouts and the append-only transaction ledger. Every
// mutation runs as one serializable unit of work; conflicts are returned, never retried.
type LedgerService struct {
	uow          *repository.UnitOfWork
	wallets      *repository.WalletRepository
	payouts      *repository.PayoutRepository
	transactions *repository.TransactionRepository
	dispatch     *Dispatcher
	log          *zap.Logger
}

func NewLedgerService(uow *repository.UnitOfWork, wallets *repository.WalletRepository, payouts *repository.PayoutRepository, transactions *repository.TransactionRepository, dispatch *Dispatcher, logger *zap.Logger) *LedgerService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LedgerService{
		uow:          uow,
		wallets:      wallets,
		payouts:      payouts,
		transactions: transactions,
		dispatch:     dispatch,
		log:          logger.Named("ledger"),
	}
}

func validAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return domain.ErrInvalidAmount
	}
	if amount.Exponent() < -2 && !amount.Equal(amount.Round(2)) {
		return domain.Validation("amount must have at most two decimal places")
	}
	return nil
}

// RequestPayout earmarks amount from the partner's balance and opens a PENDING payout.
func (s *LedgerService) RequestPayout(ctx context.Context, caller domain.Caller, amount decimal.Decimal) (*models.Payout, error) {
	if !caller.IsPartner() {
		return nil, domain.Forbidden("partner role required")
	}
	if err := validAmount(amount); err != nil {
		return nil, err
	}
	var payout *models.Payout
	err := s.uow.Do(ctx, func(tx *gorm.DB) error {
		wallets := s.wallets.WithTx(tx)
		w, err := wallets.LockByUserID(ctx, caller.UserID)
		if err != nil {
			return err
		}
		if w.Balance.LessThan(amount) {
			return domain.ErrInsufficientBalance
		}
		if err := wallets.ReserveWithdrawal(ctx, caller.UserID, amount); err != nil {
			return err
		}
		payout = &models.Payout{PartnerID: caller.UserID, Amount: amount, Status: domain.PayoutStatusPending}
		return s.payouts.WithTx(tx).Create(ctx, payout)
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("payout requested",
		zap.Uint("payout_id", payout.ID), zap.Uint("partner_id", caller.UserID), zap.String("amount", amount.String()))
	s.dispatch.BroadcastToGroup(domain.GroupAdmins, domain.EventPayoutRequested, payout)
	s.dispatch.Publish(ctx, domain.BusPayoutRequested, fmt.Sprint(payout.ID), payout)
	return payout, nil
}

// ApprovePayout settles a PENDING payout: the earmarked funds leave the wallet and a PAYOUT
// ledger entry is written.
func (s *LedgerService) ApprovePayout(ctx context.Context, caller domain.Caller, payoutID uint) (*models.Payout, error) {
	return s.process(ctx, caller, payoutID, domain.PayoutStatusApproved)
}

// DeclinePayout returns the earmarked funds of a PENDING payout to the balance.
func (s *LedgerService) DeclinePayout(ctx context.Context, caller domain.Caller, payoutID uint) (*models.Payout, error) {
	return s.process(ctx, caller, payoutID, domain.PayoutStatusDeclined)
}

func (s *LedgerService) process(ctx context.Context, caller domain.Caller, payoutID uint, status string) (*models.Payout, error) {
	if !caller.IsAdmin() {
		return nil, domain.Forbidden("admin access required")
	}
	var out *models.Payout
	err := s.uow.Do(ctx, func(tx *gorm.DB) error {
		payouts := s.payouts.WithTx(tx)
		wallets := s.wallets.WithTx(tx)
		p, err := payouts.LockByID(ctx, payoutID)
		if err != nil {
			return err
		}
		if p.Status != domain.PayoutStatusPending {
			return domain.ErrAlreadyProcessed
		}
		if _, err := wallets.LockByUserID(ctx, p.PartnerID); err != nil {
			return err
		}
		var txID *uint
		if status == domain.PayoutStatusApproved {
			if err := wallets.SettleWithdrawal(ctx, p.PartnerID, p.Amount); err != nil {
				return err
			}
			entry := &models.Transaction{
				UserID:      p.PartnerID,
				Type:        domain.TxTypePayout,
				Amount:      p.Amount.Neg(),
				Description: fmt.Sprintf("Payout #%d", p.ID),
				Status:      domain.TxStatusCompleted,
				PayoutID:    &p.ID,
			}
			if err := s.transactions.WithTx(tx).Create(ctx, entry); err != nil {
				return err
			}
			txID = &entry.ID
		} else {
			if err := wallets.ReturnWithdrawal(ctx, p.PartnerID, p.Amount); err != nil {
				return err
			}
		}
		if err := payouts.MarkProcessed(ctx, p.ID, status, caller.UserID, txID); err != nil {
			return err
		}
		out, err = payouts.GetByID(ctx, p.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("payout processed",
		zap.Uint("payout_id", out.ID), zap.String("status", out.Status), zap.Uint("admin_id", caller.UserID))

	note := NotifyInput{
		ReceiverID: out.PartnerID,
		SenderID:   &caller.UserID,
		Type:       domain.NotifPayoutApproved,
		Title:      "Payout approved",
		Content:    fmt.Sprintf("Your payout of %s was approved", out.Amount.StringFixed(2)),
	}
	if out.Status == domain.PayoutStatusDeclined {
		note.Type = domain.NotifPayoutDeclined
		note.Title = "Payout declined"
		note.Content = fmt.Sprintf("Your payout of %s was declined and returned to your balance", out.Amount.StringFixed(2))
	}
	s.dispatch.NotifyAll(ctx, note)
	s.dispatch.Publish(ctx, domain.BusPayoutProcessed, fmt.Sprint(out.ID), out)
	return out, nil
}

func (s *LedgerService) GetWallet(ctx context.Context, caller domain.Caller) (*models.Wallet, error) {
	if caller.UserID == 0 {
		return nil, domain.ErrUnauthenticated
	}
	return s.wallets.GetByUserID(ctx, caller.UserID)
}

func (s *LedgerService) ListTransactions(ctx context.Context, caller domain.Caller, limit, offset int) ([]models.Transaction, error) {
	if caller.UserID == 0 {
		return nil, domain.ErrUnauthenticated
	}
	limit, offset = page(limit, offset)
	return s.transactions.ListByUserID(ctx, caller.UserID, limit, offset)
}

// ListPayouts shows admins every payout (optionally for one partner) and partners their own.
func (s *LedgerService) ListPayouts(ctx context.Context, caller domain.Caller, status string, partnerID *uint, limit, offset int) ([]models.Payout, error) {
	if status != "" && !slices.Contains([]string{domain.PayoutStatusPending, domain.PayoutStatusApproved, domain.PayoutStatusDeclined}, status) {
		return nil, domain.Validation("unknown payout status")
	}
	f := repository.PayoutFilter{Status: status}
	f.Limit, f.Offset = page(limit, offset)
	switch {
	case caller.IsAdmin():
		f.PartnerID = partnerID
	case caller.IsPartner():
		id := caller.UserID
		f.PartnerID = &id
	default:
		return nil, domain.Forbidden("partner role required")
	}
	return s.payouts.List(ctx, f)
}

// TransactionInput is one collaborator-computed ledger entry (sale, commission, fee, refund,
// adjustment).
type TransactionInput struct {
	UserID      uint            `json:"user_id" binding:"required"`
	Type        string          `json:"type" binding:"required"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	BoostID     *string         `json:"boost_id"`
}

// PostTransactions appends entries to the ledger as one unit. Balances are not touched: the
// collaborator that computed the amounts owns the matching wallet movements. PAYOUT entries can
// only come from ApprovePayout.
func (s *LedgerService) PostTransactions(ctx context.Context, caller domain.Caller, entries []TransactionInput) ([]models.Transaction, error) {
	if !caller.IsAdmin() && !caller.IsSystem() {
		return nil, domain.Forbidden("admin access required")
	}
	if len(entries) == 0 {
		return nil, domain.Validation("at least one entry is required")
	}
	list := make([]models.Transaction, 0, len(entries))
	for i, e := range entries {
		if e.UserID == 0 {
			return nil, domain.Validation(fmt.Sprintf("entry %d: user_id is required", i))
		}
		if !slices.Contains(domain.TxTypes, e.Type) || e.Type == domain.TxTypePayout {
			return nil, domain.Validation(fmt.Sprintf("entry %d: unsupported type %q", i, e.Type))
		}
		if e.Amount.IsZero() {
			return nil, domain.Validation(fmt.Sprintf("entry %d: amount must not be zero", i))
		}
		list = append(list, models.Transaction{
			UserID:      e.UserID,
			Type:        e.Type,
			Amount:      e.Amount.Round(2),
			Description: e.Description,
			Status:      domain.TxStatusCompleted,
			BoostID:     e.BoostID,
		})
	}
	err := s.uow.Do(ctx, func(tx *gorm.DB) error {
		return s.transactions.WithTx(tx).CreateBatch(ctx, list)
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("ledger entries posted", zap.Int("count", len(list)), zap.Uint("actor", caller.UserID))
	s.dispatch.Publish(ctx, domain.BusLedgerPosted, "", list)
	return list, nil
}
