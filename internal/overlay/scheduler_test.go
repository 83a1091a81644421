package overlay

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/mohaimenalqadi/kick-donations/internal/hub"
	"github.com/mohaimenalqadi/kick-donations/internal/tier"
)

func alertWithID(id string, durationMS int) hub.AlertPayload {
	return hub.AlertPayload{ID: id, DonorName: "donor", Amount: 5, DurationMS: durationMS}
}

// recorder captures show/complete callbacks for assertions.
type recorder struct {
	mu        sync.Mutex
	shown     []string
	completed []string
	showTimes []time.Time
	doneTimes []time.Time
	active    int
	maxActive int
}

func (r *recorder) options(settle time.Duration, autoUnlock bool) Options {
	return Options{
		SettleDelay: settle,
		AutoUnlock:  autoUnlock,
		OnShow: func(e Entry) {
			r.mu.Lock()
			r.shown = append(r.shown, e.Alert.ID)
			r.showTimes = append(r.showTimes, time.Now())
			r.active++
			if r.active > r.maxActive {
				r.maxActive = r.active
			}
			r.mu.Unlock()
		},
		OnComplete: func(e Entry) {
			r.mu.Lock()
			r.completed = append(r.completed, e.Alert.ID)
			r.doneTimes = append(r.doneTimes, time.Now())
			r.active--
			r.mu.Unlock()
		},
	}
}

func (r *recorder) snapshot() ([]string, []string, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	shown := append([]string(nil), r.shown...)
	completed := append([]string(nil), r.completed...)
	return shown, completed, r.maxActive
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

// TestSchedulerPlaysInArrivalOrder enqueues a burst and verifies alerts are
// shown strictly in arrival order and each one completes before the next
// one starts.
func TestSchedulerPlaysInArrivalOrder(t *testing.T) {
	rec := &recorder{}
	s := NewScheduler(rec.options(5*time.Millisecond, true))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	want := []string{"a", "b", "c", "d"}
	for _, id := range want {
		s.Enqueue(alertWithID(id, 20))
	}

	waitFor(t, 3*time.Second, func() bool {
		_, completed, _ := rec.snapshot()
		return len(completed) == len(want)
	})

	shown, completed, _ := rec.snapshot()
	for i, id := range want {
		if shown[i] != id {
			t.Errorf("shown[%d] = %s, want %s", i, shown[i], id)
		}
		if completed[i] != id {
			t.Errorf("completed[%d] = %s, want %s", i, completed[i], id)
		}
	}
}

// TestSchedulerSingleDisplaySlot floods the scheduler and asserts that no
// two alerts ever hold the display slot at once.
func TestSchedulerSingleDisplaySlot(t *testing.T) {
	rec := &recorder{}
	s := NewScheduler(rec.options(time.Millisecond, true))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	for i := 0; i < 10; i++ {
		s.Enqueue(alertWithID(fmt.Sprintf("id-%d", i), 5))
	}

	waitFor(t, 3*time.Second, func() bool {
		_, completed, _ := rec.snapshot()
		return len(completed) == 10
	})

	shown, _, maxActive := rec.snapshot()
	if maxActive != 1 {
		t.Errorf("display slot held by %d alerts at once, want 1", maxActive)
	}
	for i, id := range shown {
		if want := fmt.Sprintf("id-%d", i); id != want {
			t.Errorf("position %d: shown %s, want %s", i, id, want)
		}
	}
}

// TestSchedulerGateHoldsUntilUnlock verifies that alerts accumulate while
// locked and play only after Unlock.
func TestSchedulerGateHoldsUntilUnlock(t *testing.T) {
	rec := &recorder{}
	s := NewScheduler(rec.options(time.Millisecond, false))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	s.Enqueue(alertWithID("held-1", 5))
	s.Enqueue(alertWithID("held-2", 5))

	time.Sleep(50 * time.Millisecond)
	if shown, _, _ := rec.snapshot(); len(shown) != 0 {
		t.Fatalf("locked scheduler showed %v, want nothing", shown)
	}
	if got := s.Pending(); got != 2 {
		t.Fatalf("pending = %d, want 2", got)
	}

	s.Unlock()
	waitFor(t, 3*time.Second, func() bool {
		_, completed, _ := rec.snapshot()
		return len(completed) == 2
	})
}

// TestSchedulerDropsDuplicateIDs replays the same donation ID and expects a
// single playback, covering snapshot-plus-broadcast overlap on reconnect.
func TestSchedulerDropsDuplicateIDs(t *testing.T) {
	rec := &recorder{}
	s := NewScheduler(rec.options(time.Millisecond, true))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	s.Enqueue(alertWithID("dup", 5))
	s.Enqueue(alertWithID("dup", 5))
	s.Enqueue(alertWithID("other", 5))

	waitFor(t, 3*time.Second, func() bool {
		_, completed, _ := rec.snapshot()
		return len(completed) == 2
	})

	time.Sleep(50 * time.Millisecond)
	shown, _, _ := rec.snapshot()
	if len(shown) != 2 || shown[0] != "dup" || shown[1] != "other" {
		t.Errorf("shown = %v, want [dup other]", shown)
	}
}

// TestSchedulerZeroDurationFallsBackToBaseHold enqueues an alert with no
// usable duration and verifies it neither flashes past nor is skipped: it
// takes the display slot and is still holding it well after a zero hold
// would have expired, consistent with the base tier band.
func TestSchedulerZeroDurationFallsBackToBaseHold(t *testing.T) {
	rec := &recorder{}
	s := NewScheduler(rec.options(time.Millisecond, true))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	s.Enqueue(alertWithID("no-duration", 0))

	waitFor(t, 3*time.Second, func() bool {
		shown, _, _ := rec.snapshot()
		return len(shown) == 1
	})

	time.Sleep(100 * time.Millisecond)
	if cur := s.Current(); cur == nil || cur.Alert.ID != "no-duration" {
		t.Fatalf("display slot = %v, want no-duration still holding", cur)
	}
	if _, completed, _ := rec.snapshot(); len(completed) != 0 {
		t.Fatalf("completed = %v, want none while base hold is running", completed)
	}
	if base := tier.BaseDurationMS(); base < 1000 {
		t.Fatalf("base hold = %dms, want at least a second", base)
	}
}

// TestSchedulerSettleDelaySeparatesAlerts checks that the pause between one
// alert completing and the next showing is at least the configured settle
// delay.
func TestSchedulerSettleDelaySeparatesAlerts(t *testing.T) {
	const settle = 80 * time.Millisecond
	rec := &recorder{}
	s := NewScheduler(rec.options(settle, true))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	s.Enqueue(alertWithID("first", 5))
	s.Enqueue(alertWithID("second", 5))

	waitFor(t, 3*time.Second, func() bool {
		_, completed, _ := rec.snapshot()
		return len(completed) == 2
	})

	rec.mu.Lock()
	gap := rec.showTimes[1].Sub(rec.doneTimes[0])
	rec.mu.Unlock()
	if gap < settle-10*time.Millisecond {
		t.Errorf("gap between alerts = %s, want at least ~%s", gap, settle)
	}
}
