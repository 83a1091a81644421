package model

import "testing"

// TestStatusValid verifies that only the three known states are valid.
func TestStatusValid(t *testing.T) {
	for _, s := range []Status{StatusPending, StatusLive, StatusDone} {
		if !s.Valid() {
			t.Errorf("Status(%q).Valid() = false, want true", s)
		}
	}
	for _, s := range []Status{"", "PENDING", "deleted", "archived"} {
		if s.Valid() {
			t.Errorf("Status(%q).Valid() = true, want false", s)
		}
	}
}

// TestStatusTransitions verifies that the state machine only allows
// pending->live and live->done; no skipping, no going backward.
func TestStatusTransitions(t *testing.T) {
	cases := []struct {
		from, to Status
		want     bool
	}{
		{StatusPending, StatusLive, true},
		{StatusLive, StatusDone, true},
		{StatusPending, StatusDone, false}, // cannot skip live
		{StatusPending, StatusPending, false},
		{StatusLive, StatusPending, false}, // no going backward
		{StatusLive, StatusLive, false},
		{StatusDone, StatusPending, false},
		{StatusDone, StatusLive, false},
		{StatusDone, StatusDone, false}, // done is terminal
	}
	for _, tc := range cases {
		if got := tc.from.CanTransitionTo(tc.to); got != tc.want {
			t.Errorf("CanTransitionTo(%q -> %q) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}
