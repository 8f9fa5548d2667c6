package service

import (
	"context"
	"encoding/json"
	"fmt"

	"eloboost/internal/domain"
	"eloboost/internal/models"
	"eloboost/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type OrderService struct {
	uow           *repository.UnitOfWork
	orders        *repository.OrderRepository
	conversations *repository.ConversationRepository
	users         *repository.UserRepository
	dispatch      *Dispatcher
	log           *zap.Logger
}

func NewOrderService(uow *repository.UnitOfWork, orders *repository.OrderRepository, conversations *repository.ConversationRepository, users *repository.UserRepository, dispatch *Dispatcher, logger *zap.Logger) *OrderService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OrderService{
		uow:           uow,
		orders:        orders,
		conversations: conversations,
		users:         users,
		dispatch:      dispatch,
		log:           logger.Named("orders"),
	}
}

type CreateOrderInput struct {
	Type    string
	Price   decimal.Decimal
	Details json.RawMessage
}

func (s *OrderService) CreateOrder(ctx context.Context, caller domain.Caller, in CreateOrderInput) (*models.Order, error) {
	if caller.UserID == 0 {
		return nil, domain.ErrUnauthenticated
	}
	if !domain.ValidOrderType(in.Type) {
		return nil, domain.Validation("type must be one of premier, wingman, level_farming")
	}
	if !in.Price.IsPositive() {
		return nil, domain.Validation("price must be greater than zero")
	}
	if len(in.Details) > 0 && !json.Valid(in.Details) {
		return nil, domain.Validation("details must be valid JSON")
	}
	o := &models.Order{
		BoostID: uuid.NewString(),
		Type:    in.Type,
		Status:  domain.OrderStatusPending,
		Price:   in.Price.Round(2),
		UserID:  caller.UserID,
		Details: string(in.Details),
	}
	if err := s.orders.Create(ctx, o, &caller.UserID); err != nil {
		return nil, err
	}
	s.log.Info("order created", zap.String("boost_id", o.BoostID), zap.Uint("user_id", o.UserID))
	s.dispatch.Publish(ctx, domain.BusOrderCreated, o.BoostID, o)
	return o, nil
}

// transitionFunc checks the caller and preconditions against the freshly read order and
// returns the transition to apply.
type transitionFunc func(tx *gorm.DB, o *models.Order) (*repository.Transition, error)

// transition re-reads the order inside a unit of work, lets fn validate it and applies the
// resulting status move. It returns the order as read and the new snapshot.
func (s *OrderService) transition(ctx context.Context, boostID string, fn transitionFunc) (*models.Order, *models.Order, error) {
	var prev, next *models.Order
	err := s.uow.Do(ctx, func(tx *gorm.DB) error {
		orders := s.orders.WithTx(tx)
		o, err := orders.GetByBoostID(ctx, boostID)
		if err != nil {
			return err
		}
		t, err := fn(tx, o)
		if err != nil {
			return err
		}
		if !domain.CanTransition(o.Status, t.To) {
			return domain.ErrInvalidTransition
		}
		updated, err := orders.ApplyTransition(ctx, o, *t)
		if err != nil {
			return err
		}
		prev, next = o, updated
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return prev, next, nil
}

// RecordPayment moves a paid PENDING order to WAITING when a partner was pre-selected, or to
// IN_ACTIVE otherwise. Callers are the order owner, an admin, or the verified payment callback.
func (s *OrderService) RecordPayment(ctx context.Context, caller domain.Caller, boostID string, assignPartner *uint) (*models.Order, error) {
	if assignPartner != nil {
		p, err := s.users.GetByID(ctx, *assignPartner)
		if err != nil || !p.IsPartner() {
			return nil, domain.Validation("assign_partner must reference a partner")
		}
	}
	prev, next, err := s.transition(ctx, boostID, func(_ *gorm.DB, o *models.Order) (*repository.Transition, error) {
		if !caller.IsSystem() && !caller.IsAdmin() && caller.UserID != o.UserID {
			return nil, domain.Forbidden("only the order owner can record its payment")
		}
		if o.Status != domain.OrderStatusPending {
			return nil, domain.Conflict("order already paid")
		}
		if assignPartner != nil {
			return &repository.Transition{
				To:      domain.OrderStatusWaiting,
				ActorID: actorOf(caller),
				Changes: map[string]interface{}{"assign_partner_id": *assignPartner},
			}, nil
		}
		return &repository.Transition{To: domain.OrderStatusInActive, ActorID: actorOf(caller)}, nil
	})
	if err != nil {
		return nil, err
	}
	var notes []NotifyInput
	if next.Status == domain.OrderStatusWaiting {
		notes = append(notes, NotifyInput{
			ReceiverID: *next.AssignPartnerID,
			SenderID:   &next.UserID,
			BoostID:    &next.BoostID,
			Type:       domain.NotifOrderAssigned,
			Title:      "New order assigned",
			Content:    fmt.Sprintf("A client selected you for %s order %s", next.Type, next.BoostID),
		})
	}
	s.afterTransition(ctx, caller, prev, next, notes...)
	return next, nil
}

// AcceptOrder assigns the calling partner, opens the client/partner conversation and moves the
// order to IN_PROGRESS.
func (s *OrderService) AcceptOrder(ctx context.Context, caller domain.Caller, boostID string) (*models.Order, error) {
	if !caller.IsPartner() {
		return nil, domain.Forbidden("partner role required")
	}
	prev, next, err := s.transition(ctx, boostID, func(tx *gorm.DB, o *models.Order) (*repository.Transition, error) {
		if o.PartnerID != nil {
			return nil, domain.ErrAlreadyAssigned
		}
		switch o.Status {
		case domain.OrderStatusInActive:
		case domain.OrderStatusWaiting:
			if !caller.Is(o.AssignPartnerID) {
				return nil, domain.Forbidden("order is reserved for another partner")
			}
		default:
			return nil, domain.ErrInvalidTransition
		}
		convs := s.conversations.WithTx(tx)
		conv := &models.Conversation{BoostID: o.BoostID, ClientID: o.UserID, PartnerID: caller.UserID}
		if err := convs.Create(ctx, conv); err != nil {
			return nil, err
		}
		msg := &models.Message{
			ConversationID: conv.ID,
			Content:        fmt.Sprintf("Order %s accepted. Use this chat to coordinate.", o.BoostID),
		}
		if err := convs.AppendMessage(ctx, msg); err != nil {
			return nil, err
		}
		return &repository.Transition{
			To:      domain.OrderStatusInProgress,
			ActorID: &caller.UserID,
			Changes: map[string]interface{}{
				"partner_id":        caller.UserID,
				"assign_partner_id": nil,
				"conversation_id":   conv.ID,
			},
		}, nil
	})
	if err != nil {
		return nil, err
	}
	s.afterTransition(ctx, caller, prev, next, NotifyInput{
		ReceiverID: next.UserID,
		SenderID:   &caller.UserID,
		BoostID:    &next.BoostID,
		Type:       domain.NotifOrderAccepted,
		Title:      "Order accepted",
		Content:    fmt.Sprintf("A partner accepted your order %s", next.BoostID),
	})
	return next, nil
}

func (s *OrderService) CompleteOrder(ctx context.Context, caller domain.Caller, boostID string) (*models.Order, error) {
	return s.finish(ctx, caller, boostID, domain.OrderStatusCompleted, domain.NotifOrderCompleted, "Order completed", "Your order %s was completed")
}

func (s *OrderService) CancelOrder(ctx context.Context, caller domain.Caller, boostID string) (*models.Order, error) {
	return s.finish(ctx, caller, boostID, domain.OrderStatusCancel, domain.NotifOrderCanceled, "Order canceled", "Your order %s was canceled by the partner")
}

// finish moves an IN_PROGRESS order to a terminal status on behalf of its assigned partner.
func (s *OrderService) finish(ctx context.Context, caller domain.Caller, boostID, to, notifType, title, content string) (*models.Order, error) {
	if !caller.IsPartner() {
		return nil, domain.Forbidden("partner role required")
	}
	prev, next, err := s.transition(ctx, boostID, func(_ *gorm.DB, o *models.Order) (*repository.Transition, error) {
		if !caller.Is(o.PartnerID) {
			return nil, domain.Forbidden("only the assigned partner can do this")
		}
		if o.Status != domain.OrderStatusInProgress {
			return nil, domain.ErrInvalidTransition
		}
		return &repository.Transition{To: to, ActorID: &caller.UserID}, nil
	})
	if err != nil {
		return nil, err
	}
	s.afterTransition(ctx, caller, prev, next, NotifyInput{
		ReceiverID: next.UserID,
		SenderID:   &caller.UserID,
		BoostID:    &next.BoostID,
		Type:       notifType,
		Title:      title,
		Content:    fmt.Sprintf(content, next.BoostID),
	})
	return next, nil
}

// RefuseOrder returns a WAITING order to the open pool. Either the owner or the pre-selected
// partner may refuse; the other party is notified.
func (s *OrderService) RefuseOrder(ctx context.Context, caller domain.Caller, boostID string) (*models.Order, error) {
	prev, next, err := s.transition(ctx, boostID, func(_ *gorm.DB, o *models.Order) (*repository.Transition, error) {
		if caller.UserID != o.UserID && !caller.Is(o.AssignPartnerID) {
			return nil, domain.Forbidden("only the owner or the selected partner can refuse")
		}
		if o.Status != domain.OrderStatusWaiting {
			return nil, domain.ErrInvalidTransition
		}
		return &repository.Transition{
			To:      domain.OrderStatusInActive,
			ActorID: &caller.UserID,
			Changes: map[string]interface{}{"assign_partner_id": nil},
		}, nil
	})
	if err != nil {
		return nil, err
	}
	note := NotifyInput{
		ReceiverID: prev.UserID,
		SenderID:   &caller.UserID,
		BoostID:    &next.BoostID,
		Type:       domain.NotifOrderRefused,
		Title:      "Order refused",
		Content:    fmt.Sprintf("The partner declined order %s; it is now open to all partners", next.BoostID),
	}
	var notes []NotifyInput
	if caller.UserID != prev.UserID {
		notes = append(notes, note)
	} else if prev.AssignPartnerID != nil {
		note.ReceiverID = *prev.AssignPartnerID
		note.Content = fmt.Sprintf("The client withdrew order %s from you", next.BoostID)
		notes = append(notes, note)
	}
	s.afterTransition(ctx, caller, prev, next, notes...)
	return next, nil
}

// RenewOrder spawns a new PENDING order from a COMPLETED one and bumps the original's retry
// count.
func (s *OrderService) RenewOrder(ctx context.Context, caller domain.Caller, boostID string) (*models.Order, error) {
	return s.respawn(ctx, caller, boostID, domain.OrderStatusCompleted, domain.OrderStatusPending)
}

// RecoverOrder spawns a new IN_ACTIVE order from a CANCEL one and bumps the original's retry
// count. The new order goes straight back to the pool.
func (s *OrderService) RecoverOrder(ctx context.Context, caller domain.Caller, boostID string) (*models.Order, error) {
	return s.respawn(ctx, caller, boostID, domain.OrderStatusCancel, domain.OrderStatusInActive)
}

func (s *OrderService) respawn(ctx context.Context, caller domain.Caller, boostID, from, to string) (*models.Order, error) {
	if caller.UserID == 0 {
		return nil, domain.ErrUnauthenticated
	}
	var created *models.Order
	err := s.uow.Do(ctx, func(tx *gorm.DB) error {
		orders := s.orders.WithTx(tx)
		o, err := orders.GetByBoostID(ctx, boostID)
		if err != nil {
			return err
		}
		if caller.UserID != o.UserID {
			return domain.Forbidden("only the order owner can do this")
		}
		if o.Status != from {
			return domain.ErrInvalidTransition
		}
		if err := orders.BumpRetry(ctx, o); err != nil {
			return err
		}
		parent := o.BoostID
		created = &models.Order{
			BoostID:       uuid.NewString(),
			Type:          o.Type,
			Status:        to,
			Price:         o.Price,
			UserID:        o.UserID,
			ParentBoostID: &parent,
			Details:       o.Details,
		}
		return orders.Create(ctx, created, &caller.UserID)
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("order respawned",
		zap.String("parent_boost_id", boostID), zap.String("boost_id", created.BoostID), zap.String("status", created.Status))
	s.dispatch.Publish(ctx, domain.BusOrderCreated, created.BoostID, created)
	if created.Status == domain.OrderStatusInActive {
		s.broadcastChanged()
		s.advertise(ctx, created)
	}
	return created, nil
}

// DeleteOrder hard-deletes an unpaid order. Only the owner may delete it.
func (s *OrderService) DeleteOrder(ctx context.Context, caller domain.Caller, boostID string) error {
	err := s.uow.Do(ctx, func(tx *gorm.DB) error {
		orders := s.orders.WithTx(tx)
		o, err := orders.GetByBoostID(ctx, boostID)
		if err != nil {
			return err
		}
		if caller.UserID != o.UserID {
			return domain.Forbidden("only the order owner can delete it")
		}
		if o.Status != domain.OrderStatusPending {
			return domain.Conflict("only unpaid orders can be deleted")
		}
		return orders.DeletePending(ctx, o)
	})
	if err != nil {
		return err
	}
	s.dispatch.Publish(ctx, domain.BusOrderDeleted, boostID, map[string]interface{}{"boost_id": boostID})
	return nil
}

// GetOrder returns the order to its owner, its partners, admins, and to partners browsing the
// open pool.
func (s *OrderService) GetOrder(ctx context.Context, caller domain.Caller, boostID string) (*models.Order, error) {
	o, err := s.orders.GetByBoostID(ctx, boostID)
	if err != nil {
		return nil, err
	}
	switch {
	case caller.IsAdmin(), caller.UserID != 0 && caller.UserID == o.UserID,
		caller.Is(o.PartnerID), caller.Is(o.AssignPartnerID):
		return o, nil
	case caller.IsPartner() && o.Status == domain.OrderStatusInActive && o.PartnerID == nil:
		return o, nil
	}
	return nil, domain.Forbidden("you do not have access to this order")
}

// ListMyOrders returns orders the caller owns, or for partners the orders they fulfil.
func (s *OrderService) ListMyOrders(ctx context.Context, caller domain.Caller, limit, offset int) ([]models.Order, error) {
	if caller.UserID == 0 {
		return nil, domain.ErrUnauthenticated
	}
	limit, offset = page(limit, offset)
	if caller.IsPartner() {
		return s.orders.ListByPartnerID(ctx, caller.UserID, limit, offset)
	}
	return s.orders.ListByUserID(ctx, caller.UserID, limit, offset)
}

// ListAvailable returns the open pool plus orders pre-assigned to the calling partner.
func (s *OrderService) ListAvailable(ctx context.Context, caller domain.Caller, limit, offset int) ([]models.Order, error) {
	if !caller.IsPartner() {
		return nil, domain.Forbidden("partner role required")
	}
	limit, offset = page(limit, offset)
	return s.orders.ListAvailable(ctx, caller.UserID, limit, offset)
}

// AdminSetStatus forces any edge of the transition graph and records the admin in the history.
func (s *OrderService) AdminSetStatus(ctx context.Context, caller domain.Caller, boostID, status string) (*models.Order, error) {
	if !caller.IsAdmin() {
		return nil, domain.Forbidden("admin access required")
	}
	if !domain.ValidOrderStatus(status) {
		return nil, domain.Validation("unknown order status")
	}
	prev, next, err := s.transition(ctx, boostID, func(_ *gorm.DB, o *models.Order) (*repository.Transition, error) {
		t := &repository.Transition{To: status, ActorID: &caller.UserID, AdminID: &caller.UserID}
		switch status {
		case domain.OrderStatusInActive:
			t.Changes = map[string]interface{}{"assign_partner_id": nil}
		case domain.OrderStatusInProgress:
			if o.PartnerID == nil {
				if o.AssignPartnerID == nil {
					return nil, domain.Conflict("order has no partner to start it")
				}
				t.Changes = map[string]interface{}{"partner_id": *o.AssignPartnerID, "assign_partner_id": nil}
			}
		case domain.OrderStatusWaiting:
			if o.AssignPartnerID == nil {
				return nil, domain.Conflict("order has no selected partner")
			}
		}
		return t, nil
	})
	if err != nil {
		return nil, err
	}
	content := fmt.Sprintf("An administrator moved order %s to %s", next.BoostID, next.Status)
	notes := []NotifyInput{{
		ReceiverID: next.UserID,
		SenderID:   &caller.UserID,
		BoostID:    &next.BoostID,
		Type:       domain.NotifOrderStatusAdmin,
		Title:      "Order updated",
		Content:    content,
	}}
	for _, pid := range []*uint{next.PartnerID, next.AssignPartnerID} {
		if pid != nil {
			notes = append(notes, NotifyInput{
				ReceiverID: *pid,
				SenderID:   &caller.UserID,
				BoostID:    &next.BoostID,
				Type:       domain.NotifOrderStatusAdmin,
				Title:      "Order updated",
				Content:    content,
			})
		}
	}
	s.afterTransition(ctx, caller, prev, next, notes...)
	return next, nil
}

// afterTransition runs the post-commit fan-out for a status change. Failures are logged only.
func (s *OrderService) afterTransition(ctx context.Context, caller domain.Caller, prev, next *models.Order, notes ...NotifyInput) {
	s.log.Info("order status changed",
		zap.String("boost_id", next.BoostID),
		zap.String("from", prev.Status),
		zap.String("to", next.Status),
		zap.Uint("actor", caller.UserID))
	s.broadcastChanged()
	s.dispatch.NotifyAll(ctx, notes...)
	if next.Status == domain.OrderStatusInActive {
		s.advertise(ctx, next)
	}
	s.dispatch.Publish(ctx, domain.BusOrderStatusChanged, next.BoostID, map[string]interface{}{
		"boost_id": next.BoostID,
		"from":     prev.Status,
		"to":       next.Status,
		"actor":    actorOf(caller),
	})
}

// broadcastChanged tells partners and admins to refetch their order lists.
func (s *OrderService) broadcastChanged() {
	s.dispatch.BroadcastToGroup(domain.GroupPartners, domain.EventOrderStatusChanged, nil)
	s.dispatch.BroadcastToGroup(domain.GroupAdmins, domain.EventOrderStatusChanged, nil)
}

func (s *OrderService) advertise(ctx context.Context, o *models.Order) {
	if err := s.dispatch.PublishNewOrderAdvert(ctx, o); err != nil {
		s.log.Warn("new order advert failed", zap.String("boost_id", o.BoostID), zap.Error(err))
	}
}

// actorOf returns the caller's user id, or nil for the system caller.
func actorOf(c domain.Caller) *uint {
	if c.UserID == 0 {
		return nil
	}
	id := c.UserID
	return &id
}
