package service_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"eloboost/internal/domain"
	"eloboost/internal/models"
	"eloboost/internal/repository"
	"eloboost/internal/service"
	"eloboost/internal/testutil"
	"eloboost/internal/ws"
	"eloboost/pkg/eventbus"

	"gorm.io/gorm"
)

type fakePusher struct {
	mu    sync.Mutex
	sent  []string // notif types
	users []string // tokens
}

func (p *fakePusher) SendToUser(_ context.Context, token, notifType, _, _ string, _ map[string]interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, notifType)
	p.users = append(p.users, token)
	return nil
}

type fakeBus struct {
	mu     sync.Mutex
	events []eventbus.Event
}

func (b *fakeBus) Publish(_ context.Context, e eventbus.Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, e)
	return nil
}

func (b *fakeBus) Close() error { return nil }

func (b *fakeBus) types() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, 0, len(b.events))
	for _, e := range b.events {
		out = append(out, e.Type)
	}
	return out
}

type env struct {
	db       *gorm.DB
	hub      *ws.Hub
	push     *fakePusher
	bus      *fakeBus
	dispatch *service.Dispatcher
	orders   *service.OrderService
	ledger   *service.LedgerService
	ctx      context.Context
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db := testutil.NewDB(t)
	hub := ws.NewHub(nil)
	push := &fakePusher{}
	bus := &fakeBus{}
	uow := repository.NewUnitOfWork(db)
	users := repository.NewUserRepository(db)
	dispatch := service.NewDispatcher(repository.NewNotificationRepository(db), users, hub, push, bus, nil)
	t.Cleanup(dispatch.Wait)
	return &env{
		db:       db,
		hub:      hub,
		push:     push,
		bus:      bus,
		dispatch: dispatch,
		orders: service.NewOrderService(uow, repository.NewOrderRepository(db),
			repository.NewConversationRepository(db), users, dispatch, nil),
		ledger: service.NewLedgerService(uow, repository.NewWalletRepository(db),
			repository.NewPayoutRepository(db), repository.NewTransactionRepository(db), dispatch, nil),
		ctx: context.Background(),
	}
}

// connect registers a fake live connection for u and returns it.
func (e *env) connect(u *models.User) *ws.Client {
	c := ws.NewClient(u.ID, []string{u.Role}, 64)
	e.hub.Register(c)
	return c
}

// drain returns the event types queued for c.
func drain(c *ws.Client) []string {
	var out []string
	for {
		select {
		case data := <-c.Send:
			var env ws.Envelope
			_ = json.Unmarshal(data, &env)
			out = append(out, env.Type)
		default:
			return out
		}
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func assertKind(t *testing.T, err error, kind domain.Kind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", kind)
	}
	if got := domain.KindOf(err); got != kind {
		t.Fatalf("expected %s error, got %s (%v)", kind, got, err)
	}
}

func assertHistory(t *testing.T, o *models.Order, want ...string) {
	t.Helper()
	if len(o.StatusHistory) != len(want) {
		t.Fatalf("history length = %d, want %d (%+v)", len(o.StatusHistory), len(want), o.StatusHistory)
	}
	for i, s := range want {
		if o.StatusHistory[i].Status != s {
			t.Fatalf("history[%d] = %s, want %s", i, o.StatusHistory[i].Status, s)
		}
	}
	if o.CurrentHistoryStatus() != o.Status {
		t.Fatalf("last history entry %s != status %s", o.CurrentHistoryStatus(), o.Status)
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("condition not met in time")
		}
		time.Sleep(5 * time.Millisecond)
	}
}
