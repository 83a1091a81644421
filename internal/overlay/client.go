package overlay

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mohaimenalqadi/kick-donations/internal/hub"
	"github.com/mohaimenalqadi/kick-donations/internal/model"
	"github.com/mohaimenalqadi/kick-donations/internal/tier"
)

// Client is the overlay's connection to the server: it registers on the
// broadcast channel as a display session, feeds incoming alerts to the
// scheduler and reports completions back. On every connect, including
// reconnects, it resyncs from the HTTP snapshots before trusting the
// socket, so alerts dispatched while the overlay was offline still play.
type Client struct {
	URL   string // WebSocket endpoint, e.g. "ws://localhost:8080/ws"
	Sync  *Sync
	Sched *Scheduler

	// OnSettings fires with the current settings after each resync and on
	// every settings_changed event.
	OnSettings func(model.PlatformSettings)
	// OnTopDonor fires after each resync and each completed alert.
	OnTopDonor func(*model.TopDonor)
	// OnLatest fires with the most recently completed donation after each
	// resync and again whenever an alert finishes here, nil when none exist
	// yet. Overlays keep it on screen between alerts.
	OnLatest func(*model.Donation)

	mu     sync.Mutex
	conn   *websocket.Conn
	tiers  []model.TierSetting
	latest *model.Donation
}

// NewClient wires a client, its snapshot source and a playback scheduler.
// The scheduler's completion path reports back over the socket before the
// caller's own OnComplete hook runs.
func NewClient(wsURL string, snapshots *Sync, opts Options) *Client {
	c := &Client{URL: wsURL, Sync: snapshots}
	userComplete := opts.OnComplete
	opts.OnComplete = func(e Entry) {
		c.reportCompleted(e.Alert.ID)
		c.setLatest(completedRecord(e))
		if userComplete != nil {
			userComplete(e)
		}
		c.refreshTopDonor()
	}
	c.Sched = NewScheduler(opts)
	return c
}

// Run connects and serves events until the context is cancelled,
// reconnecting with backoff. The caller runs the scheduler separately.
func (c *Client) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := c.connectAndServe(ctx); err != nil {
			log.Printf("overlay: connection lost: %v; reconnecting in %s", err, backoff)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		if backoff < 30*time.Second {
			backoff *= 2
		}
	}
}

func (c *Client) connectAndServe(ctx context.Context) error {
	if err := c.resync(ctx); err != nil {
		return err
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.URL, nil)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.conn = nil
		c.mu.Unlock()
		conn.Close()
	}()

	if err := c.writeJSON(hub.Message{
		Type: hub.EventRegister,
		Data: hub.RegisterPayload{Role: string(hub.RoleDisplay)},
	}); err != nil {
		return err
	}

	// Close the socket when the context ends so ReadMessage unblocks.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		c.handleEvent(data)
	}
}

// resync pulls settings, tier config, the outstanding queue and the last
// completed donation. Donations already live on the server missed their
// broadcast, so their styling is resolved here from the freshly fetched tier
// config and they are enqueued for playback. Pending donations are not
// played; they have not been dispatched yet.
func (c *Client) resync(ctx context.Context) error {
	settings, err := c.Sync.Settings(ctx)
	if err != nil {
		return err
	}
	tiers, err := c.Sync.Tiers(ctx)
	if err != nil {
		return err
	}
	queue, err := c.Sync.Queue(ctx)
	if err != nil {
		return err
	}
	latest, err := c.Sync.Latest(ctx)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.tiers = tiers
	c.mu.Unlock()

	if c.OnSettings != nil {
		c.OnSettings(settings)
	}
	c.setLatest(latest)
	for _, d := range queue {
		if d.Status != model.StatusLive {
			continue
		}
		c.Sched.Enqueue(hub.NewAlertPayload(d, tier.Resolve(d.Amount, tiers)))
	}
	c.refreshTopDonor()
	return nil
}

func (c *Client) handleEvent(data []byte) {
	var env struct {
		Type string          `json:"type"`
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		log.Printf("overlay: malformed event: %v", err)
		return
	}
	switch env.Type {
	case hub.EventConnected:
		// ack only
	case hub.EventNewAlert:
		var a hub.AlertPayload
		if err := json.Unmarshal(env.Data, &a); err != nil {
			log.Printf("overlay: malformed alert: %v", err)
			return
		}
		c.Sched.Enqueue(a)
	case hub.EventStatusChanged:
		// Transitions we initiated; nothing to do on the display side.
	case hub.EventSettingsChanged:
		var s model.PlatformSettings
		if err := json.Unmarshal(env.Data, &s); err != nil {
			return
		}
		if c.OnSettings != nil {
			c.OnSettings(s)
		}
	case hub.EventTierChanged:
		var t model.TierSetting
		if err := json.Unmarshal(env.Data, &t); err != nil {
			return
		}
		c.mu.Lock()
		replaced := false
		for i := range c.tiers {
			if c.tiers[i].ID == t.ID {
				c.tiers[i] = t
				replaced = true
				break
			}
		}
		if !replaced {
			c.tiers = append(c.tiers, t)
		}
		c.mu.Unlock()
	default:
		log.Printf("overlay: ignoring unknown event type %q", env.Type)
	}
}

// reportCompleted tells the server an alert finished displaying. A dropped
// report is fine: the server reconciles through snapshots, and a repeated
// report loses the conditional transition and is discarded there.
func (c *Client) reportCompleted(donationID string) {
	err := c.writeJSON(hub.Message{
		Type: hub.EventAlertCompleted,
		Data: hub.AlertCompletedPayload{DonationID: donationID},
	})
	if err != nil {
		log.Printf("overlay: completion report for %s failed: %v", donationID, err)
	}
}

// LastCompleted returns a copy of the most recently completed donation known
// to this client, nil when nothing has completed yet.
func (c *Client) LastCompleted() *model.Donation {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.latest == nil {
		return nil
	}
	d := *c.latest
	return &d
}

// setLatest records the last completed donation and notifies the hook. A nil
// argument from a fresh install clears nothing; the previous record stays so
// the sticky display does not blank out across reconnects.
func (c *Client) setLatest(d *model.Donation) {
	c.mu.Lock()
	if d == nil && c.latest != nil {
		c.mu.Unlock()
		return
	}
	c.latest = d
	c.mu.Unlock()
	if c.OnLatest != nil {
		c.OnLatest(d)
	}
}

// completedRecord rebuilds the donation record for an alert that just
// finished playing locally, so the sticky display updates without waiting
// for a round trip to the server.
func completedRecord(e Entry) *model.Donation {
	now := time.Now().UTC()
	return &model.Donation{
		ID:          e.Alert.ID,
		DonorName:   e.Alert.DonorName,
		Amount:      e.Alert.Amount,
		Message:     e.Alert.Message,
		Tier:        e.Alert.Tier,
		Status:      model.StatusDone,
		CreatedAt:   e.Alert.CreatedAt,
		DisplayedAt: &now,
	}
}

func (c *Client) refreshTopDonor() {
	if c.OnTopDonor == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	top, err := c.Sync.Top(ctx)
	if err != nil {
		log.Printf("overlay: top donor refresh failed: %v", err)
		return
	}
	c.OnTopDonor(top)
}

func (c *Client) writeJSON(msg hub.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return websocket.ErrCloseSent
	}
	c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return c.conn.WriteJSON(msg)
}
