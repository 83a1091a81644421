// Package overlay implements the display-side consumer: a WebSocket client
// that receives alert broadcasts, an HTTP snapshot sync for recovery after
// disconnects, and the playback scheduler that shows alerts one at a time.
package overlay

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/mohaimenalqadi/kick-donations/internal/hub"
	"github.com/mohaimenalqadi/kick-donations/internal/tier"
)

// DefaultSettleDelay is the pause between an alert leaving the screen and
// the next one starting, so back-to-back alerts do not visually collide.
const DefaultSettleDelay = 1500 * time.Millisecond

const dedupRingSize = 64

// Entry is an alert occupying the display slot.
type Entry struct {
	Alert   hub.AlertPayload
	ShownAt time.Time
}

// Options tunes the scheduler.
type Options struct {
	// SettleDelay overrides DefaultSettleDelay when positive.
	SettleDelay time.Duration
	// AutoUnlock starts the scheduler unlocked. Browser overlays stay
	// locked until a user gesture enables audio; headless runs unlock
	// immediately.
	AutoUnlock bool
	// OnShow fires when an alert takes the display slot.
	OnShow func(Entry)
	// OnComplete fires after the alert's hold time elapses, with the entry
	// that just left the display slot.
	OnComplete func(e Entry)
}

type schedulerState int

const (
	stateIdle schedulerState = iota
	stateShowing
	stateSettling
)

// Scheduler plays alerts strictly one at a time. Alerts queue in arrival
// order; each holds the display slot for its tier duration, then the slot
// settles for SettleDelay before the next alert starts. Until Unlock is
// called alerts only accumulate. Duplicate donation IDs within the last 64
// admissions are dropped, which makes replayed broadcasts and
// snapshot-plus-broadcast overlap harmless.
type Scheduler struct {
	opts   Options
	settle time.Duration

	enqueueCh chan hub.AlertPayload
	unlockCh  chan struct{}

	mu       sync.Mutex
	pending  []hub.AlertPayload
	current  *Entry
	state    schedulerState
	unlocked bool
	seen     [dedupRingSize]string
	seenPos  int

	timer *time.Timer
}

// NewScheduler builds a stopped scheduler; call Run to start it.
func NewScheduler(opts Options) *Scheduler {
	settle := opts.SettleDelay
	if settle <= 0 {
		settle = DefaultSettleDelay
	}
	return &Scheduler{
		opts:      opts,
		settle:    settle,
		enqueueCh: make(chan hub.AlertPayload, 64),
		unlockCh:  make(chan struct{}, 1),
		unlocked:  opts.AutoUnlock,
	}
}

// Enqueue admits an alert into the playback queue. Safe from any goroutine;
// never blocks the caller for longer than the channel hand-off.
func (s *Scheduler) Enqueue(a hub.AlertPayload) {
	select {
	case s.enqueueCh <- a:
	default:
		log.Printf("overlay: playback queue channel full, dropping alert %s", a.ID)
	}
}

// Unlock releases the gate. Idempotent.
func (s *Scheduler) Unlock() {
	select {
	case s.unlockCh <- struct{}{}:
	default:
	}
}

// Pending reports how many alerts wait behind the display slot.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Current returns a copy of the entry holding the display slot, or nil.
func (s *Scheduler) Current() *Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil
	}
	e := *s.current
	return &e
}

// Run drives playback until the context is cancelled. It owns all state
// transitions; Enqueue and Unlock only feed it.
func (s *Scheduler) Run(ctx context.Context) error {
	defer s.stopTimer()
	for {
		var timerC <-chan time.Time
		if s.timer != nil {
			timerC = s.timer.C
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case a := <-s.enqueueCh:
			s.admit(a)
			s.maybeShow()
		case <-s.unlockCh:
			s.mu.Lock()
			s.unlocked = true
			s.mu.Unlock()
			s.maybeShow()
		case <-timerC:
			s.timer = nil
			s.advance()
		}
	}
}

// admit appends the alert unless its donation ID was seen recently.
func (s *Scheduler) admit(a hub.AlertPayload) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range s.seen {
		if id != "" && id == a.ID {
			return
		}
	}
	s.seen[s.seenPos] = a.ID
	s.seenPos = (s.seenPos + 1) % dedupRingSize
	s.pending = append(s.pending, a)
}

// maybeShow promotes the head of the queue into the display slot when the
// slot is free, the settle pause is over and the gate is open.
func (s *Scheduler) maybeShow() {
	s.mu.Lock()
	if !s.unlocked || s.state != stateIdle || len(s.pending) == 0 {
		s.mu.Unlock()
		return
	}
	a := s.pending[0]
	s.pending = s.pending[1:]
	entry := Entry{Alert: a, ShownAt: time.Now()}
	s.current = &entry
	s.state = stateShowing
	s.mu.Unlock()

	if s.opts.OnShow != nil {
		s.opts.OnShow(entry)
	}
	hold := time.Duration(a.DurationMS) * time.Millisecond
	if hold <= 0 {
		// An alert without a usable duration degrades to the base band's
		// hold time rather than flashing past or sticking forever.
		hold = time.Duration(tier.BaseDurationMS()) * time.Millisecond
	}
	s.resetTimer(hold)
}

// advance handles a timer expiry: either the hold time ended or the settle
// pause ended.
func (s *Scheduler) advance() {
	s.mu.Lock()
	switch s.state {
	case stateShowing:
		finished := *s.current
		s.current = nil
		s.state = stateSettling
		s.mu.Unlock()
		if s.opts.OnComplete != nil {
			s.opts.OnComplete(finished)
		}
		s.resetTimer(s.settle)
	case stateSettling:
		s.state = stateIdle
		s.mu.Unlock()
		s.maybeShow()
	default:
		s.mu.Unlock()
	}
}

func (s *Scheduler) resetTimer(d time.Duration) {
	s.stopTimer()
	s.timer = time.NewTimer(d)
}

func (s *Scheduler) stopTimer() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}
