package hub

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/mohaimenalqadi/kick-donations/internal/model"
	"github.com/mohaimenalqadi/kick-donations/internal/tier"
)

// startHub runs a hub in the background for the duration of the test.
func startHub(t *testing.T, fn CompletionFunc) *Hub {
	t.Helper()
	h := New(fn)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() { _ = h.Run(ctx) }()
	return h
}

// testClient builds a client with no underlying connection; the pumps are
// never started so messages accumulate on the send channel.
func testClient(h *Hub) *Client {
	return &Client{id: "test", role: RoleOther, hub: h, send: make(chan Message, 64)}
}

// registerClient pushes a client through the register channel and waits for
// the dispatch loop to pick it up.
func registerClient(t *testing.T, h *Hub, c *Client) {
	t.Helper()
	h.register <- c
	deadline := time.Now().Add(time.Second)
	for h.CountsByRole().Total == 0 {
		if time.Now().After(deadline) {
			t.Fatal("client never registered")
		}
		time.Sleep(time.Millisecond)
	}
}

// recv waits for one message on a client's send channel.
func recv(t *testing.T, c *Client) Message {
	t.Helper()
	select {
	case msg := <-c.send:
		return msg
	case <-time.After(time.Second):
		t.Fatal("no message received")
		return Message{}
	}
}

// TestBroadcastReachesAllSessions verifies global fan-out regardless of role.
func TestBroadcastReachesAllSessions(t *testing.T) {
	h := startHub(t, nil)
	control := testClient(h)
	control.role = RoleControl
	display := testClient(h)
	display.role = RoleDisplay

	registerClient(t, h, control)
	h.register <- display
	for h.CountsByRole().Total < 2 {
		time.Sleep(time.Millisecond)
	}

	d := model.Donation{ID: "d-1", DonorName: "Ali", Amount: 25, Status: model.StatusLive}
	h.BroadcastNewAlert(NewAlertPayload(d, tier.Fallback(25)))

	for _, c := range []*Client{control, display} {
		msg := recv(t, c)
		if msg.Type != EventNewAlert {
			t.Errorf("message type = %q, want %q", msg.Type, EventNewAlert)
		}
		alert, ok := msg.Data.(AlertPayload)
		if !ok {
			t.Fatalf("payload type = %T, want AlertPayload", msg.Data)
		}
		if alert.ID != "d-1" || alert.Tier != "medium" {
			t.Errorf("alert = %+v, want id d-1 tier medium", alert)
		}
	}
}

// TestRegisterTagsRoleAndAcknowledges verifies the register event sets the
// role, counts it, and answers with a connected ack.
func TestRegisterTagsRoleAndAcknowledges(t *testing.T) {
	h := startHub(t, nil)
	c := testClient(h)
	registerClient(t, h, c)

	data, _ := json.Marshal(RegisterPayload{Role: "display"})
	h.handleInbound(c, envelope{Type: EventRegister, Data: data})

	ack := recv(t, c)
	if ack.Type != EventConnected {
		t.Fatalf("ack type = %q, want %q", ack.Type, EventConnected)
	}
	p, ok := ack.Data.(ConnectedPayload)
	if !ok {
		t.Fatalf("ack payload type = %T", ack.Data)
	}
	if p.Role != RoleDisplay || p.SessionID == "" {
		t.Errorf("ack = %+v, want display role and a session id", p)
	}
	if n := h.CountsByRole(); n.Display != 1 || n.Total != 1 {
		t.Errorf("counts = %+v, want one display session", n)
	}
}

// TestRegisterUnknownRoleCountedAsOther verifies unknown role tags are kept
// but not treated as control or display.
func TestRegisterUnknownRoleCountedAsOther(t *testing.T) {
	h := startHub(t, nil)
	c := testClient(h)
	registerClient(t, h, c)

	data, _ := json.Marshal(RegisterPayload{Role: "spectator"})
	h.handleInbound(c, envelope{Type: EventRegister, Data: data})
	recv(t, c) // connected ack

	if n := h.CountsByRole(); n.Other != 1 || n.Control != 0 || n.Display != 0 {
		t.Errorf("counts = %+v, want the session under other", n)
	}
}

// TestCompletionReportRoutedToStateMachine verifies alert_completed is
// forwarded to the completion function, not fanned out.
func TestCompletionReportRoutedToStateMachine(t *testing.T) {
	completed := make(chan string, 1)
	h := startHub(t, func(ctx context.Context, donationID string) error {
		completed <- donationID
		return nil
	})
	c := testClient(h)
	registerClient(t, h, c)

	data, _ := json.Marshal(AlertCompletedPayload{DonationID: "d-9"})
	h.handleInbound(c, envelope{Type: EventAlertCompleted, Data: data})

	select {
	case id := <-completed:
		if id != "d-9" {
			t.Errorf("completed id = %q, want d-9", id)
		}
	case <-time.After(time.Second):
		t.Fatal("completion function never invoked")
	}
	select {
	case msg := <-c.send:
		t.Errorf("completion report was fanned out: %+v", msg)
	default:
	}
}

// TestUnregisterRemovesSession verifies disconnection bookkeeping.
func TestUnregisterRemovesSession(t *testing.T) {
	h := startHub(t, nil)
	c := testClient(h)
	registerClient(t, h, c)

	h.unregister <- c
	deadline := time.Now().Add(time.Second)
	for h.CountsByRole().Total != 0 {
		if time.Now().After(deadline) {
			t.Fatal("session never removed")
		}
		time.Sleep(time.Millisecond)
	}
}
