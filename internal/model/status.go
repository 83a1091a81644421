package model

// Status is the lifecycle state of a donation. A donation is created as
// PENDING, moves to LIVE when an operator dispatches it to the overlay and
// reaches DONE only when a display consumer reports that the alert finished
// rendering. Transitions are strictly forward; there is no way back and no
// way to skip LIVE.
type Status string

const (
	StatusPending Status = "pending" // created, waiting for dispatch
	StatusLive    Status = "live"    // dispatched, being (or about to be) displayed
	StatusDone    Status = "done"    // displayed, displayed_at stamped
)

// Valid reports whether s is one of the three known states.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusLive, StatusDone:
		return true
	}
	return false
}

// CanTransitionTo reports whether moving from s to next is a legal step of
// the state machine. Only pending->live and live->done are allowed.
func (s Status) CanTransitionTo(next Status) bool {
	switch s {
	case StatusPending:
		return next == StatusLive
	case StatusLive:
		return next == StatusDone
	}
	return false
}
