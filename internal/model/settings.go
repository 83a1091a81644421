package model

import "time"

// PlatformSettings is the single-row `platform_settings` table holding
// global overlay configuration. Changes are broadcast to all connected
// sessions so long-lived overlays pick them up live.
//
// Fields:
//  ID          – primary key (always one row).
//  SiteTitle   – title shown on the dashboard and overlay gate.
//  Currency    – currency code displayed next to amounts.
//  TTSEnabled  – whether donation messages are read out.
//  TTSVoice    – voice identifier for text to speech.
//  MuteOverlay – global overlay mute switch.
//  UpdatedAt   – timestamp of last update.
type PlatformSettings struct {
	ID          uint64    `json:"id"`           // platform_settings.id
	SiteTitle   string    `json:"site_title"`   // platform_settings.site_title
	Currency    string    `json:"currency"`     // platform_settings.currency
	TTSEnabled  bool      `json:"tts_enabled"`  // platform_settings.tts_enabled
	TTSVoice    string    `json:"tts_voice"`    // platform_settings.tts_voice
	MuteOverlay bool      `json:"mute_overlay"` // platform_settings.mute_overlay
	UpdatedAt   time.Time `json:"updated_at"`   // platform_settings.updated_at
}
