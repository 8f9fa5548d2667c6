package ws

import (
	"encoding/json"
	"net/http/httptest"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"eloboost/config"
	"eloboost/internal/auth"
	"eloboost/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

func recv(t *testing.T, c *Client) Envelope {
	t.Helper()
	select {
	case data, ok := <-c.Send:
		if !ok {
			t.Fatalf("send channel closed")
		}
		var env Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			t.Fatalf("decode: %v", err)
		}
		return env
	case <-time.After(time.Second):
		t.Fatalf("no message for user %d", c.UserID)
	}
	return Envelope{}
}

func assertEmpty(t *testing.T, c *Client) {
	t.Helper()
	select {
	case data := <-c.Send:
		t.Fatalf("user %d got unexpected message %s", c.UserID, data)
	default:
	}
}

func TestRegisterDerivesGroups(t *testing.T) {
	h := NewHub(nil)
	partner := NewClient(1, []string{domain.RolePartner}, 4)
	admin := NewClient(2, []string{domain.RoleAdmin}, 4)
	client := NewClient(3, []string{domain.RoleClient}, 4)
	for _, c := range []*Client{partner, admin, client} {
		h.Register(c)
	}

	if got := h.GroupMembers(domain.GroupPartners); !slices.Equal(got, []uint{1}) {
		t.Fatalf("partners = %v", got)
	}
	if n := h.BroadcastToGroup(domain.GroupAdmins, domain.EventOrderStatusChanged, nil); n != 1 {
		t.Fatalf("admin broadcast reached %d", n)
	}
	if env := recv(t, admin); env.Type != domain.EventOrderStatusChanged {
		t.Fatalf("admin got %q", env.Type)
	}
	assertEmpty(t, partner)
	assertEmpty(t, client)

	if !h.SendToUser(3, domain.EventNotificationNew, map[string]string{"content": "hi"}) {
		t.Fatalf("send to online user failed")
	}
	if env := recv(t, client); env.Type != domain.EventNotificationNew {
		t.Fatalf("client got %q", env.Type)
	}
	if h.SendToUser(99, domain.EventNotificationNew, nil) {
		t.Fatalf("send to offline user reported success")
	}
}

func TestReplacedConnectionSurvivesStaleDisconnect(t *testing.T) {
	h := NewHub(nil)
	first := NewClient(7, []string{domain.RolePartner}, 4)
	second := NewClient(7, []string{domain.RolePartner}, 4)
	h.Register(first)
	h.Register(second)

	first.Close()
	if !h.Online(7) {
		t.Fatalf("stale disconnect removed the newer connection")
	}
	h.SendToUser(7, domain.EventNotificationNew, nil)
	recv(t, second)

	second.Close()
	if h.Online(7) || len(h.GroupMembers(domain.GroupPartners)) != 0 {
		t.Fatalf("user still registered after disconnect")
	}
	if h.SendToUser(7, domain.EventNotificationNew, nil) {
		t.Fatalf("push to closed client reported success")
	}
}

func TestFullBufferDropsInsteadOfBlocking(t *testing.T) {
	h := NewHub(nil)
	c := NewClient(1, []string{domain.RolePartner}, 1)
	h.Register(c)
	if !h.SendToUser(1, "a", nil) {
		t.Fatalf("first push should fit")
	}
	if h.SendToUser(1, "b", nil) {
		t.Fatalf("second push should be dropped")
	}
}

func TestConcurrentRegisterAndBroadcast(t *testing.T) {
	h := NewHub(nil)
	var wg sync.WaitGroup
	for i := 1; i <= 50; i++ {
		wg.Add(2)
		go func(id uint) {
			defer wg.Done()
			c := NewClient(id, []string{domain.RolePartner}, 8)
			h.Register(c)
			c.Close()
		}(uint(i))
		go func() {
			defer wg.Done()
			h.BroadcastToGroup(domain.GroupPartners, domain.EventOrderNewAvailable, nil)
		}()
	}
	wg.Wait()
	if h.ClientCount() != 0 {
		t.Fatalf("clients left behind: %d", h.ClientCount())
	}
}

func TestServeUpgradesAndRegisters(t *testing.T) {
	gin.SetMode(gin.TestMode)
	jwtCfg := &config.JWTConfig{AccessSecret: "s", AccessExpiry: time.Minute, Issuer: "eloboost"}
	rt := config.RealtimeConfig{SendBuffer: 8, PingInterval: time.Second, PongWait: 2 * time.Second, WriteWait: time.Second}
	h := NewHub(nil)
	r := gin.New()
	r.GET("/ws", Serve(jwtCfg, rt, h))
	srv := httptest.NewServer(r)
	defer srv.Close()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"

	if _, resp, err := websocket.DefaultDialer.Dial(url, nil); err == nil || resp == nil || resp.StatusCode != 401 {
		t.Fatalf("dial without token should be rejected with 401")
	}

	tok, _ := auth.GenerateAccessToken(jwtCfg, 5, domain.RolePartner)
	conn, _, err := websocket.DefaultDialer.Dial(url+"?token="+tok, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(time.Second)
	for !h.Online(5) && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if !h.Online(5) {
		t.Fatalf("connection not registered")
	}
	h.BroadcastToGroup(domain.GroupPartners, domain.EventOrderNewAvailable, map[string]string{"boost_id": "b1"})
	conn.SetReadDeadline(time.Now().Add(time.Second))
	var env Envelope
	if err := conn.ReadJSON(&env); err != nil {
		t.Fatalf("read: %v", err)
	}
	if env.Type != domain.EventOrderNewAvailable {
		t.Fatalf("got %q", env.Type)
	}

	conn.Close()
	deadline = time.Now().Add(time.Second)
	for h.Online(5) && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if h.Online(5) {
		t.Fatalf("disconnect did not unregister")
	}
}
