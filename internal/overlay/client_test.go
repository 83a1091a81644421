package overlay

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/mohaimenalqadi/kick-donations/internal/model"
)

// snapshotServer serves the HTTP snapshot endpoints the overlay resyncs from
// after a connect, backed by fixed fixtures.
func snapshotServer(t *testing.T, queue []model.Donation, latest *model.Donation) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	serve := func(path string, body map[string]any) {
		mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(body)
		})
	}
	serve("/v1/settings", map[string]any{"settings": model.PlatformSettings{
		ID: 1, SiteTitle: "alerts", Currency: "USD",
	}})
	serve("/v1/tier-settings", map[string]any{"tiers": []model.TierSetting{
		{ID: 1, TierKey: "basic", Label: "بسيط", MinAmount: 0, DurationMS: 20, Color: "#10b981", Volume: 80},
	}})
	serve("/v1/donations/queue", map[string]any{"queue": queue})
	serve("/v1/donations/latest", map[string]any{"latest": latest})
	serve("/v1/donations/top", map[string]any{"top": nil})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func doneAt(t time.Time) *time.Time { return &t }

// TestClientResyncRestoresLastCompleted verifies the recovery path: a fresh
// connect pulls the most recently completed donation from the snapshot
// endpoints, surfaces it through the hook and keeps it readable afterwards,
// while only live donations from the queue enter playback.
func TestClientResyncRestoresLastCompleted(t *testing.T) {
	queue := []model.Donation{
		{ID: "waiting", DonorName: "pending donor", Amount: 5, Status: model.StatusPending, CreatedAt: time.Now()},
		{ID: "replay", DonorName: "missed donor", Amount: 5, Status: model.StatusLive, CreatedAt: time.Now()},
	}
	prev := &model.Donation{
		ID: "prev-done", DonorName: "earlier donor", Amount: 25,
		Status: model.StatusDone, CreatedAt: time.Now().Add(-time.Hour),
		DisplayedAt: doneAt(time.Now().Add(-time.Hour)),
	}
	srv := snapshotServer(t, queue, prev)

	var mu sync.Mutex
	var hooked []*model.Donation
	c := NewClient("ws://unused/ws", NewSync(srv.URL), Options{
		SettleDelay: time.Millisecond,
		AutoUnlock:  false,
	})
	c.OnLatest = func(d *model.Donation) {
		mu.Lock()
		hooked = append(hooked, d)
		mu.Unlock()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go c.Sched.Run(ctx)

	if err := c.resync(ctx); err != nil {
		t.Fatalf("resync failed: %v", err)
	}

	mu.Lock()
	if len(hooked) != 1 || hooked[0] == nil || hooked[0].ID != "prev-done" {
		t.Fatalf("hook received %v, want the prev-done record once", hooked)
	}
	mu.Unlock()
	if got := c.LastCompleted(); got == nil || got.ID != "prev-done" {
		t.Fatalf("LastCompleted = %v, want prev-done", got)
	}
	waitFor(t, 3*time.Second, func() bool { return c.Sched.Pending() == 1 })
}

// TestClientCompletionUpdatesLastCompleted plays a resynced live donation to
// completion and expects the last completed record to move from the snapshot
// value to the donation that just finished on this display.
func TestClientCompletionUpdatesLastCompleted(t *testing.T) {
	queue := []model.Donation{
		{ID: "replay", DonorName: "missed donor", Amount: 5, Status: model.StatusLive, CreatedAt: time.Now()},
	}
	prev := &model.Donation{
		ID: "prev-done", DonorName: "earlier donor", Amount: 25,
		Status: model.StatusDone, CreatedAt: time.Now().Add(-time.Hour),
		DisplayedAt: doneAt(time.Now().Add(-time.Hour)),
	}
	srv := snapshotServer(t, queue, prev)

	c := NewClient("ws://unused/ws", NewSync(srv.URL), Options{
		SettleDelay: time.Millisecond,
		AutoUnlock:  true,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go c.Sched.Run(ctx)

	if err := c.resync(ctx); err != nil {
		t.Fatalf("resync failed: %v", err)
	}

	waitFor(t, 3*time.Second, func() bool {
		got := c.LastCompleted()
		return got != nil && got.ID == "replay"
	})
	got := c.LastCompleted()
	if got.Status != model.StatusDone {
		t.Errorf("last completed status = %s, want %s", got.Status, model.StatusDone)
	}
	if got.DisplayedAt == nil {
		t.Error("last completed record missing displayed_at")
	}
}
