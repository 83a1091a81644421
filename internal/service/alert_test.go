package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/mohaimenalqadi/kick-donations/internal/hub"
	"github.com/mohaimenalqadi/kick-donations/internal/model"
	"github.com/mohaimenalqadi/kick-donations/internal/repository"
)

// memoryStore implements DonationStore over an in-memory row set with the
// same compare-and-set transition semantics the SQL repository has: a
// transition only succeeds when the row is in the expected source state.
type memoryStore struct {
	mu   sync.Mutex
	rows map[string]*model.Donation
}

func newMemoryStore(rows ...model.Donation) *memoryStore {
	m := &memoryStore{rows: make(map[string]*model.Donation, len(rows))}
	for i := range rows {
		d := rows[i]
		m.rows[d.ID] = &d
	}
	return m
}

func (m *memoryStore) GetByID(_ context.Context, id string) (model.Donation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.rows[id]
	if !ok {
		return model.Donation{}, repository.ErrNotFound
	}
	return *d, nil
}

func (m *memoryStore) MarkLive(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.rows[id]
	if !ok {
		return repository.ErrNotFound
	}
	if d.Status != model.StatusPending {
		return repository.ErrInvalidTransition
	}
	d.Status = model.StatusLive
	return nil
}

func (m *memoryStore) MarkDone(_ context.Context, id string, displayedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.rows[id]
	if !ok {
		return repository.ErrNotFound
	}
	if d.Status != model.StatusLive {
		return repository.ErrInvalidTransition
	}
	d.Status = model.StatusDone
	d.DisplayedAt = &displayedAt
	return nil
}

type stubTiers struct{ tiers []model.TierSetting }

func (s stubTiers) ListAll(context.Context) ([]model.TierSetting, error) {
	return s.tiers, nil
}

// recordingBroadcaster counts fan-out calls in place of the WebSocket hub.
type recordingBroadcaster struct {
	mu        sync.Mutex
	newAlerts []hub.AlertPayload
	statuses  []model.Status
}

func (b *recordingBroadcaster) BroadcastNewAlert(a hub.AlertPayload) {
	b.mu.Lock()
	b.newAlerts = append(b.newAlerts, a)
	b.mu.Unlock()
}

func (b *recordingBroadcaster) BroadcastStatusChanged(_ string, status model.Status, _ *time.Time) {
	b.mu.Lock()
	b.statuses = append(b.statuses, status)
	b.mu.Unlock()
}

func newTestService(rows ...model.Donation) (*AlertService, *memoryStore, *recordingBroadcaster) {
	store := newMemoryStore(rows...)
	b := &recordingBroadcaster{}
	s := NewAlertService(store, stubTiers{})
	s.AttachHub(b)
	return s, store, b
}

func pendingDonation(id string) model.Donation {
	return model.Donation{
		ID:        id,
		DonorName: "donor",
		Amount:    25,
		Tier:      "medium",
		Status:    model.StatusPending,
		CreatedAt: time.Now().UTC(),
	}
}

// TestDispatchConcurrentCallsOneWinner races several dispatches of the same
// donation. Exactly one caller wins the pending to live transition; every
// other caller gets ErrInvalidTransition and nothing is broadcast for it, so
// an alert can never reach displays twice.
func TestDispatchConcurrentCallsOneWinner(t *testing.T) {
	s, store, b := newTestService(pendingDonation("d1"))

	const callers = 8
	errs := make(chan error, callers)
	var start, done sync.WaitGroup
	start.Add(1)
	done.Add(callers)
	for i := 0; i < callers; i++ {
		go func() {
			defer done.Done()
			start.Wait()
			_, err := s.Dispatch(context.Background(), "d1")
			errs <- err
		}()
	}
	start.Done()
	done.Wait()
	close(errs)

	var wins, losses int
	for err := range errs {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, repository.ErrInvalidTransition):
			losses++
		default:
			t.Errorf("unexpected dispatch error: %v", err)
		}
	}
	if wins != 1 || losses != callers-1 {
		t.Fatalf("wins = %d, losses = %d, want 1 and %d", wins, losses, callers-1)
	}

	b.mu.Lock()
	alerts := len(b.newAlerts)
	b.mu.Unlock()
	if alerts != 1 {
		t.Fatalf("broadcast %d new alerts, want exactly 1", alerts)
	}

	d, err := store.GetByID(context.Background(), "d1")
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if d.Status != model.StatusLive {
		t.Fatalf("status = %s, want %s", d.Status, model.StatusLive)
	}
}

// TestDispatchReplayReturnsInvalidTransition dispatches an already live
// donation and expects the invalid transition error with no broadcast, the
// behavior the HTTP handler maps to a conflict response.
func TestDispatchReplayReturnsInvalidTransition(t *testing.T) {
	s, _, b := newTestService(pendingDonation("d1"))

	if _, err := s.Dispatch(context.Background(), "d1"); err != nil {
		t.Fatalf("first dispatch: %v", err)
	}
	if _, err := s.Dispatch(context.Background(), "d1"); !errors.Is(err, repository.ErrInvalidTransition) {
		t.Fatalf("second dispatch error = %v, want ErrInvalidTransition", err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.newAlerts) != 1 {
		t.Fatalf("broadcast %d new alerts after replay, want 1", len(b.newAlerts))
	}
}

// TestCompleteReplayIsDropped completes a live donation twice. The second
// completion loses the conditional update and must not emit another status
// broadcast, mirroring how a duplicate report from a display is discarded.
func TestCompleteReplayIsDropped(t *testing.T) {
	live := pendingDonation("d1")
	live.Status = model.StatusLive
	s, store, b := newTestService(live)

	if err := s.Complete(context.Background(), "d1"); err != nil {
		t.Fatalf("first complete: %v", err)
	}
	if err := s.Complete(context.Background(), "d1"); !errors.Is(err, repository.ErrInvalidTransition) {
		t.Fatalf("second complete error = %v, want ErrInvalidTransition", err)
	}

	b.mu.Lock()
	doneCasts := 0
	for _, st := range b.statuses {
		if st == model.StatusDone {
			doneCasts++
		}
	}
	b.mu.Unlock()
	if doneCasts != 1 {
		t.Fatalf("broadcast done status %d times, want 1", doneCasts)
	}

	d, err := store.GetByID(context.Background(), "d1")
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if d.Status != model.StatusDone || d.DisplayedAt == nil {
		t.Fatalf("row = %+v, want done with displayed_at set", d)
	}
}
