package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"eloboost/internal/domain"
	"eloboost/internal/models"
	"eloboost/internal/repository"
	"eloboost/pkg/eventbus"

	"go.uber.org/zap"
)

// Registry is the live-connection lookup the dispatcher pushes through. *ws.Hub implements it.
type Registry interface {
	Online(userID uint) bool
	SendToUser(userID uint, event string, payload interface{}) bool
	BroadcastToGroup(group, event string, payload interface{}) int
}

// NotifyInput describes one targeted notification.
type NotifyInput struct {
	ReceiverID uint
	SenderID   *uint
	BoostID    *string
	ReportID   *uint
	Type       string
	Title      string // push title only, not persisted
	Content    string
}

// Dispatcher persists notifications and fans events out to live connections, offline devices
// and the event bus. Everything except persistence is best-effort.
type Dispatcher struct {
	notifications *repository.NotificationRepository
	users         *repository.UserRepository
	registry      Registry
	push          Pusher
	bus           eventbus.Publisher
	log           *zap.Logger

	inflight sync.WaitGroup
}

const asyncTimeout = 10 * time.Second

func NewDispatcher(notifications *repository.NotificationRepository, users *repository.UserRepository, registry Registry, push Pusher, bus eventbus.Publisher, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if bus == nil {
		bus = eventbus.Noop{}
	}
	return &Dispatcher{
		notifications: notifications,
		users:         users,
		registry:      registry,
		push:          push,
		bus:           bus,
		log:           logger.Named("dispatch"),
	}
}

// Notify stores the notification, then pushes notification.new to the receiver's live
// connection. Offline receivers with a device token get an FCM push instead. Only the
// persistence error is returned.
func (d *Dispatcher) Notify(ctx context.Context, in NotifyInput) (*models.Notification, error) {
	receiver := in.ReceiverID
	n := &models.Notification{
		SenderID:   in.SenderID,
		ReceiverID: &receiver,
		BoostID:    in.BoostID,
		ReportID:   in.ReportID,
		Type:       in.Type,
		Content:    in.Content,
	}
	if err := d.notifications.Create(ctx, n); err != nil {
		return nil, err
	}
	if d.registry != nil && d.registry.SendToUser(receiver, domain.EventNotificationNew, n) {
		return n, nil
	}
	d.pushOffline(ctx, in)
	return n, nil
}

func (d *Dispatcher) pushOffline(ctx context.Context, in NotifyInput) {
	if d.push == nil || d.users == nil {
		return
	}
	d.async(ctx, func(ctx context.Context) {
		u, err := d.users.GetByID(ctx, in.ReceiverID)
		if err != nil || u.FCMToken == "" {
			return
		}
		data := map[string]interface{}{"boost_id": in.BoostID}
		title := in.Title
		if title == "" {
			title = "Eloboost"
		}
		if err := d.push.SendToUser(ctx, u.FCMToken, in.Type, title, in.Content, data); err != nil {
			d.log.Warn("offline push failed", zap.Uint("user_id", in.ReceiverID), zap.Error(err))
		}
	})
}

// NotifyAll sends each notification, logging failures instead of returning them.
func (d *Dispatcher) NotifyAll(ctx context.Context, list ...NotifyInput) {
	for _, in := range list {
		if _, err := d.Notify(ctx, in); err != nil {
			d.log.Warn("notify failed",
				zap.Uint("user_id", in.ReceiverID), zap.String("type", in.Type), zap.Error(err))
		}
	}
}

// BroadcastToGroup pushes an advisory event to every live member of group. Nothing is stored.
func (d *Dispatcher) BroadcastToGroup(group, event string, payload interface{}) int {
	if d.registry == nil {
		return 0
	}
	return d.registry.BroadcastToGroup(group, event, payload)
}

// PublishNewOrderAdvert replaces the single pool-wide "new order available" notification with
// one for o and broadcasts order.newAvailable to partners.
func (d *Dispatcher) PublishNewOrderAdvert(ctx context.Context, o *models.Order) error {
	boostID := o.BoostID
	n := &models.Notification{
		BoostID: &boostID,
		Type:    domain.NotifNewOrder,
		Content: fmt.Sprintf("New %s order available", o.Type),
	}
	if err := d.notifications.ReplaceSingleton(ctx, domain.NewOrderAdvertKey, n); err != nil {
		return err
	}
	d.BroadcastToGroup(domain.GroupPartners, domain.EventOrderNewAvailable, map[string]interface{}{
		"boost_id": o.BoostID,
		"type":     o.Type,
		"price":    o.Price,
	})
	return nil
}

// Publish hands a domain event to the bus without blocking the caller.
func (d *Dispatcher) Publish(ctx context.Context, eventType, key string, payload interface{}) {
	e := eventbus.Event{Type: eventType, Key: key, OccurredAt: time.Now().UTC(), Payload: payload}
	d.async(ctx, func(ctx context.Context) {
		if err := d.bus.Publish(ctx, e); err != nil {
			d.log.Warn("publish event failed", zap.String("event", eventType), zap.String("key", key), zap.Error(err))
		}
	})
}

func (d *Dispatcher) async(ctx context.Context, fn func(ctx context.Context)) {
	d.inflight.Add(1)
	go func() {
		defer d.inflight.Done()
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), asyncTimeout)
		defer cancel()
		fn(ctx)
	}()
}

// Wait blocks until in-flight pushes and publications finish.
func (d *Dispatcher) Wait() {
	d.inflight.Wait()
}

// ListNotifications returns the caller's notifications, newest first, and the unread count.
// Partners also see the pool-wide advert.
func (d *Dispatcher) ListNotifications(ctx context.Context, caller domain.Caller, limit, offset int) ([]models.Notification, int64, error) {
	if caller.UserID == 0 {
		return nil, 0, domain.ErrUnauthenticated
	}
	limit, offset = page(limit, offset)
	list, err := d.notifications.ListForUser(ctx, caller.UserID, caller.IsPartner(), limit, offset)
	if err != nil {
		return nil, 0, err
	}
	unread, err := d.notifications.CountUnread(ctx, caller.UserID)
	if err != nil {
		return nil, 0, err
	}
	return list, unread, nil
}

func (d *Dispatcher) MarkRead(ctx context.Context, caller domain.Caller, id uint) error {
	if caller.UserID == 0 {
		return domain.ErrUnauthenticated
	}
	ok, err := d.notifications.MarkRead(ctx, id, caller.UserID)
	if err != nil {
		return err
	}
	if !ok {
		return domain.NotFound("notification not found")
	}
	return nil
}
