// Package queue defines message payloads exchanged over the message broker.
package queue

// AlertCompletedEvent is published after a donation alert finishes its
// display cycle and the record reaches its terminal state. It carries enough
// information for downstream consumers to log or feed analytics without
// querying the primary database.
type AlertCompletedEvent struct {
	DonationID  string  `json:"donation_id"`
	DonorName   string  `json:"donor_name"`
	Amount      float64 `json:"amount"`
	Tier        string  `json:"tier"`
	CreatedAt   string  `json:"created_at"`
	DisplayedAt string  `json:"displayed_at"`
}
