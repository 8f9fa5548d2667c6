package ws

import (
	"encoding/json"
	"sync"

	"eloboost/internal/domain"

	"go.uber.org/zap"
)

// Client represents a single WebSocket connection with user context.
type Client struct {
	UserID uint
	Roles  []string
	Send   chan []byte
	hub    *Hub
	mu     sync.Mutex
	closed bool
}

func NewClient(userID uint, roles []string, buffer int) *Client {
	if buffer <= 0 {
		buffer = 256
	}
	return &Client{UserID: userID, Roles: roles, Send: make(chan []byte, buffer)}
}

// Close closes the send channel once and removes the client from its hub.
func (c *Client) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.Send)
	h := c.hub
	c.mu.Unlock()
	if h != nil {
		h.Unregister(c)
	}
}

// push queues data without blocking. A full buffer drops the message.
func (c *Client) push(data []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.Send <- data:
		return true
	default:
		return false
	}
}

// Envelope is the frame written to clients for every event.
type Envelope struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

// Hub is the connection registry: one live client per user, plus role groups.
type Hub struct {
	mu     sync.RWMutex
	byUser map[uint]*Client
	groups map[string]map[uint]struct{}
	log    *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		byUser: make(map[uint]*Client),
		groups: make(map[string]map[uint]struct{}),
		log:    logger.Named("ws"),
	}
}

func groupsFor(roles []string) []string {
	var out []string
	for _, r := range roles {
		switch r {
		case domain.RolePartner:
			out = append(out, domain.GroupPartners)
		case domain.RoleAdmin:
			out = append(out, domain.GroupAdmins)
		}
	}
	return out
}

// Register records c as the user's live connection. A previous connection of the same user
// stays open but no longer receives pushes.
func (h *Hub) Register(c *Client) {
	c.mu.Lock()
	c.hub = h
	c.mu.Unlock()

	h.mu.Lock()
	defer h.mu.Unlock()
	if prev, ok := h.byUser[c.UserID]; ok && prev != c {
		h.log.Debug("connection replaced", zap.Uint("user_id", c.UserID))
	}
	h.byUser[c.UserID] = c
	h.leaveGroupsLocked(c.UserID)
	for _, g := range groupsFor(c.Roles) {
		if h.groups[g] == nil {
			h.groups[g] = make(map[uint]struct{})
		}
		h.groups[g][c.UserID] = struct{}{}
	}
}

// Unregister removes the user only while c is still its registered connection, so a late
// disconnect of a replaced connection leaves the newer one in place.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.byUser[c.UserID] != c {
		return
	}
	delete(h.byUser, c.UserID)
	h.leaveGroupsLocked(c.UserID)
}

func (h *Hub) leaveGroupsLocked(userID uint) {
	for g, members := range h.groups {
		delete(members, userID)
		if len(members) == 0 {
			delete(h.groups, g)
		}
	}
}

func (h *Hub) Online(userID uint) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.byUser[userID]
	return ok
}

// SendToUser pushes an event to the user's live connection. It reports false when the user is
// offline or the connection's buffer is full.
func (h *Hub) SendToUser(userID uint, event string, payload interface{}) bool {
	h.mu.RLock()
	c := h.byUser[userID]
	h.mu.RUnlock()
	if c == nil {
		return false
	}
	data, err := json.Marshal(Envelope{Type: event, Data: payload})
	if err != nil {
		h.log.Warn("marshal event", zap.String("event", event), zap.Error(err))
		return false
	}
	return c.push(data)
}

// BroadcastToGroup pushes an event to every live member of group and returns how many
// connections accepted it.
func (h *Hub) BroadcastToGroup(group, event string, payload interface{}) int {
	data, err := json.Marshal(Envelope{Type: event, Data: payload})
	if err != nil {
		h.log.Warn("marshal event", zap.String("event", event), zap.Error(err))
		return 0
	}
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.groups[group]))
	for id := range h.groups[group] {
		if c := h.byUser[id]; c != nil {
			clients = append(clients, c)
		}
	}
	h.mu.RUnlock()
	sent := 0
	for _, c := range clients {
		if c.push(data) {
			sent++
		}
	}
	return sent
}

// GroupMembers returns the user ids currently online in group.
func (h *Hub) GroupMembers(group string) []uint {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]uint, 0, len(h.groups[group]))
	for id := range h.groups[group] {
		out = append(out, id)
	}
	return out
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.byUser)
}
