package hub

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/mohaimenalqadi/kick-donations/internal/model"
)

// completionTimeout bounds the store write triggered by a completion report.
const completionTimeout = 5 * time.Second

// Counts is a per-role snapshot of connected sessions, used only for
// operational visibility.
type Counts struct {
	Control int `json:"control"`
	Display int `json:"display"`
	Other   int `json:"other"`
	Total   int `json:"total"`
}

// CompletionFunc handles an alert-completed report from a display consumer.
// The hub forwards the report to it instead of fanning it out; the function
// is expected to drive the live->done transition and emit the resulting
// status broadcast.
type CompletionFunc func(ctx context.Context, donationID string) error

// Hub maintains the set of connected sessions and relays events between the
// control plane and display consumers. It is a single dispatch loop; the
// session registry is the only shared state and is guarded by mu for the
// read paths that run outside the loop.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan Message
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex

	onCompleted CompletionFunc
}

// New creates a Hub. The completion function receives alert-completed
// reports; passing the dependency explicitly keeps the transition path free
// of globals.
func New(onCompleted CompletionFunc) *Hub {
	return &Hub{
		clients:     make(map[*Client]bool),
		broadcast:   make(chan Message, 256),
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		onCompleted: onCompleted,
	}
}

// Run dispatches registration, unregistration and broadcast events until the
// context is canceled, then closes every remaining session.
func (h *Hub) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return ctx.Err()
		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = true
			total := len(h.clients)
			h.mu.Unlock()
			log.Printf("broadcast-hub: session connected (total=%d)", total)
		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			total := len(h.clients)
			h.mu.Unlock()
			log.Printf("broadcast-hub: session disconnected (total=%d)", total)
		case msg := <-h.broadcast:
			h.fanOut(msg)
		}
	}
}

// fanOut delivers msg to every connected session. A session whose buffer is
// full is dropped; it will reconcile through the snapshot on reconnect.
func (h *Hub) fanOut(msg Message) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			close(c.send)
			delete(h.clients, c)
			log.Printf("broadcast-hub: dropping slow session %s", c.id)
		}
	}
}

// closeAll shuts every session down, used on hub shutdown.
func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		close(c.send)
		delete(h.clients, c)
	}
	log.Printf("broadcast-hub: stopped, all sessions closed")
}

// Counts returns the number of connected sessions per role.
func (h *Hub) CountsByRole() Counts {
	h.mu.RLock()
	defer h.mu.RUnlock()
	var n Counts
	for c := range h.clients {
		switch c.role {
		case RoleControl:
			n.Control++
		case RoleDisplay:
			n.Display++
		default:
			n.Other++
		}
	}
	n.Total = n.Control + n.Display + n.Other
	return n
}

// enqueue pushes a message onto the broadcast channel without blocking.
// Delivery is best-effort by design; a full channel means the message is
// dropped and recovered via snapshot if it mattered.
func (h *Hub) enqueue(msg Message) {
	select {
	case h.broadcast <- msg:
	default:
		log.Printf("broadcast-hub: channel full, dropping %s", msg.Type)
	}
}

// BroadcastNewAlert announces a dispatched donation to all sessions.
func (h *Hub) BroadcastNewAlert(a AlertPayload) {
	h.enqueue(Message{Type: EventNewAlert, Data: a})
}

// BroadcastStatusChanged mirrors a status transition to all sessions.
func (h *Hub) BroadcastStatusChanged(donationID string, status model.Status, displayedAt *time.Time) {
	h.enqueue(Message{Type: EventStatusChanged, Data: StatusChangedPayload{
		DonationID:  donationID,
		Status:      status,
		DisplayedAt: displayedAt,
		UpdatedAt:   time.Now().UTC(),
	}})
}

// BroadcastSettingsChanged pushes the full settings object so overlays pick
// up changes without a reload.
func (h *Hub) BroadcastSettingsChanged(s model.PlatformSettings) {
	h.enqueue(Message{Type: EventSettingsChanged, Data: s})
}

// BroadcastTierChanged pushes a single updated tier record.
func (h *Hub) BroadcastTierChanged(t model.TierSetting) {
	h.enqueue(Message{Type: EventTierChanged, Data: t})
}

// handleInbound routes a decoded client message. register tags the session
// and acknowledges; alert_completed is forwarded to the completion function.
// Unknown event types are ignored.
func (h *Hub) handleInbound(c *Client, env envelope) {
	switch env.Type {
	case EventRegister:
		var p RegisterPayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			log.Printf("broadcast-hub: bad register payload from %s: %v", c.id, err)
			return
		}
		role := Role(p.Role)
		if role != RoleControl && role != RoleDisplay {
			role = RoleOther
		}
		h.mu.Lock()
		c.role = role
		h.mu.Unlock()
		c.trySend(Message{Type: EventConnected, Data: ConnectedPayload{
			SessionID: c.id,
			Role:      role,
			Timestamp: time.Now().UTC(),
		}})
		log.Printf("broadcast-hub: session %s registered as %s", c.id, role)
	case EventAlertCompleted:
		var p AlertCompletedPayload
		if err := json.Unmarshal(env.Data, &p); err != nil || p.DonationID == "" {
			log.Printf("broadcast-hub: bad completion payload from %s", c.id)
			return
		}
		if h.onCompleted == nil {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), completionTimeout)
		defer cancel()
		if err := h.onCompleted(ctx, p.DonationID); err != nil {
			log.Printf("broadcast-hub: completion of %s failed: %v", p.DonationID, err)
		}
	default:
		log.Printf("broadcast-hub: ignoring unknown event %q from %s", env.Type, c.id)
	}
}
