// Package hub implements the real-time broadcast channel between the admin
// control plane and the overlay display consumers. Sessions register with a
// role tag; events fan out to every connected session with at-most-once,
// best-effort delivery. Anything a disconnected session missed is recovered
// through the HTTP snapshot endpoints, never through replay.
package hub

import (
	"encoding/json"
	"time"

	"github.com/mohaimenalqadi/kick-donations/internal/model"
	"github.com/mohaimenalqadi/kick-donations/internal/tier"
)

// Role tags a connected session. Unknown tags are kept and counted under
// RoleOther; fan-out is global, so the tag is informational only.
type Role string

const (
	RoleControl Role = "control" // operator dashboards
	RoleDisplay Role = "display" // overlay consumers
	RoleOther   Role = "other"   // unrecognized registrations
)

// Event type names. Each name pairs with exactly one payload type so both
// ends can validate shape before acting.
const (
	EventRegister        = "register"         // client -> server
	EventAlertCompleted  = "alert_completed"  // client -> server
	EventConnected       = "connected"        // server -> client
	EventNewAlert        = "new_alert"        // server -> all
	EventStatusChanged   = "status_changed"   // server -> all
	EventSettingsChanged = "settings_changed" // server -> all
	EventTierChanged     = "tier_changed"     // server -> all
)

// Message is the outbound wire envelope.
type Message struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// envelope is the inbound wire form; Data stays raw until the type is known.
type envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// RegisterPayload tags the session with a role.
type RegisterPayload struct {
	Role string `json:"role"`
}

// ConnectedPayload acknowledges a registration.
type ConnectedPayload struct {
	SessionID string    `json:"session_id"`
	Role      Role      `json:"role"`
	Timestamp time.Time `json:"timestamp"`
}

// AlertCompletedPayload reports that an alert finished displaying. This is a
// command addressed to the state machine, not a broadcast.
type AlertCompletedPayload struct {
	DonationID string `json:"donation_id"`
}

// AlertPayload is a dispatched donation together with the tier metadata
// resolved at dispatch time.
type AlertPayload struct {
	ID            string    `json:"id"`
	DonorName     string    `json:"donor_name"`
	Amount        float64   `json:"amount"`
	Message       string    `json:"message"`
	Tier          string    `json:"tier"`
	Label         string    `json:"label"`
	DurationMS    int       `json:"duration"`
	Color         string    `json:"color"`
	SoundURL      string    `json:"sound_url,omitempty"`
	BackgroundURL string    `json:"background_url,omitempty"`
	Volume        int       `json:"volume"`
	CreatedAt     time.Time `json:"created_at"`
	EmittedAt     time.Time `json:"emitted_at"`
}

// NewAlertPayload combines a donation record with its resolved tier into the
// payload broadcast on dispatch.
func NewAlertPayload(d model.Donation, r tier.Resolved) AlertPayload {
	return AlertPayload{
		ID:            d.ID,
		DonorName:     d.DonorName,
		Amount:        d.Amount,
		Message:       d.Message,
		Tier:          r.Key,
		Label:         r.Label,
		DurationMS:    r.DurationMS,
		Color:         r.Color,
		SoundURL:      r.SoundURL,
		BackgroundURL: r.BackgroundURL,
		Volume:        r.Volume,
		CreatedAt:     d.CreatedAt,
		EmittedAt:     time.Now().UTC(),
	}
}

// StatusChangedPayload mirrors a status transition to dashboards so they can
// reflect it without polling.
type StatusChangedPayload struct {
	DonationID  string       `json:"donation_id"`
	Status      model.Status `json:"status"`
	DisplayedAt *time.Time   `json:"displayed_at,omitempty"`
	UpdatedAt   time.Time    `json:"updated_at"`
}
