package model

import "time"

// TierSetting is a configurable alert tier as stored in the `tier_settings`
// table. Tiers are selected by the greatest MinAmount not exceeding the
// donation amount, so the set should be exhaustive from zero upward. Rows
// are mutated from the admin panel and broadcast to connected overlays so a
// duration or media change takes effect without a reload.
//
// Fields:
//  ID            – primary key identifier.
//  TierKey       – stable identifier used by donations and the overlay.
//  Label         – human readable name shown on the alert.
//  MinAmount     – inclusive lower bound for this tier.
//  DurationMS    – how long the alert stays on screen, in milliseconds.
//  Color         – accent color hex string.
//  SoundURL      – optional sound asset reference.
//  BackgroundURL – optional background media reference.
//  Volume        – playback volume 0–100.
//  UpdatedAt     – timestamp of last update.
type TierSetting struct {
	ID            uint64    `json:"id"`             // tier_settings.id
	TierKey       string    `json:"tier_key"`       // tier_settings.tier_key
	Label         string    `json:"label"`          // tier_settings.label
	MinAmount     float64   `json:"min_amount"`     // tier_settings.min_amount
	DurationMS    int       `json:"duration"`       // tier_settings.duration_ms
	Color         string    `json:"color"`          // tier_settings.color
	SoundURL      string    `json:"sound_url"`      // tier_settings.sound_url
	BackgroundURL string    `json:"background_url"` // tier_settings.background_url
	Volume        int       `json:"volume"`         // tier_settings.volume
	UpdatedAt     time.Time `json:"updated_at"`     // tier_settings.updated_at
}
