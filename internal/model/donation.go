package model

import "time"

// Donation represents a recorded donation as stored in the `donations`
// table. The tier key is stamped once at creation time from the tier
// configuration that was active at that moment and never changes afterwards,
// even when tier settings are edited later; display styling is re-resolved
// at display time instead.
//
// Fields:
//  ID          – opaque UUID identifier.
//  DonorName   – sanitized display name (2–50 chars).
//  Amount      – positive amount rounded to 2 decimals.
//  Message     – filtered free text, may be empty.
//  Tier        – tier key frozen at creation.
//  Status      – lifecycle state (pending, live, done).
//  CreatedAt   – creation timestamp (UTC).
//  DisplayedAt – set only when the status becomes done.
type Donation struct {
	ID          string     `json:"id"`           // donations.id
	DonorName   string     `json:"donor_name"`   // donations.donor_name
	Amount      float64    `json:"amount"`       // donations.amount
	Message     string     `json:"message"`      // donations.message
	Tier        string     `json:"tier"`         // donations.tier
	Status      Status     `json:"status"`       // donations.status
	CreatedAt   time.Time  `json:"created_at"`   // donations.created_at
	DisplayedAt *time.Time `json:"displayed_at"` // donations.displayed_at (nullable)
}

// TopDonor is the highest single donation since a reference point in time,
// used by the overlay's leaderboard element.
type TopDonor struct {
	DonorName string  `json:"donor_name"`
	Amount    float64 `json:"amount"`
}
