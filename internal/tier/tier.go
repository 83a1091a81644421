// Package tier resolves a donation amount to the tier that should style its
// alert. Resolution is a pure function over the configured tier set: the tier
// with the greatest minimum amount not exceeding the donation wins. When no
// configuration exists, or no configured tier qualifies, a built-in banding
// table takes over so the overlay never fails to render for lack of rows.
package tier

import (
	"sort"

	"github.com/mohaimenalqadi/kick-donations/internal/model"
)

// Resolved carries everything the overlay needs to render one alert. The
// values are captured at resolution time; a later configuration edit does
// not change an alert that is already queued or on screen.
type Resolved struct {
	Key           string `json:"tier"`
	Label         string `json:"label"`
	DurationMS    int    `json:"duration"`
	Color         string `json:"color"`
	SoundURL      string `json:"sound_url,omitempty"`
	BackgroundURL string `json:"background_url,omitempty"`
	Volume        int    `json:"volume"`
	Fallback      bool   `json:"-"` // true when the built-in table was used
}

// fallbackBand is one row of the built-in banding table used when the
// configured tier set cannot resolve an amount.
type fallbackBand struct {
	key        string
	label      string
	minAmount  float64
	durationMS int
	color      string
}

// Built-in bands, lowest first. The zero threshold guarantees resolution is
// total for any non-negative amount.
var fallbackBands = []fallbackBand{
	{key: "basic", label: "بسيط", minAmount: 0, durationMS: 10_000, color: "#10b981"},
	{key: "medium", label: "متوسط", minAmount: 10, durationMS: 30_000, color: "#3b82f6"},
	{key: "professional", label: "احترافي", minAmount: 50, durationMS: 60_000, color: "#8b5cf6"},
	{key: "cinematic", label: "سينمائي", minAmount: 100, durationMS: 180_000, color: "#f59e0b"},
	{key: "legendary", label: "خارق", minAmount: 500, durationMS: 300_000, color: "#ef4444"},
}

const defaultVolume = 80

// Resolve returns the tier for amount given the configured set. The highest
// MinAmount less than or equal to amount wins; boundaries are inclusive of
// the higher tier. An empty set, or an amount below every configured
// threshold, resolves through Fallback instead of erroring.
func Resolve(amount float64, tiers []model.TierSetting) Resolved {
	if len(tiers) == 0 {
		return Fallback(amount)
	}
	sorted := make([]model.TierSetting, len(tiers))
	copy(sorted, tiers)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].MinAmount > sorted[j].MinAmount })
	for _, t := range sorted {
		if amount >= t.MinAmount {
			vol := t.Volume
			if vol <= 0 {
				vol = defaultVolume
			}
			return Resolved{
				Key:           t.TierKey,
				Label:         t.Label,
				DurationMS:    t.DurationMS,
				Color:         t.Color,
				SoundURL:      t.SoundURL,
				BackgroundURL: t.BackgroundURL,
				Volume:        vol,
			}
		}
	}
	return Fallback(amount)
}

// Fallback resolves amount against the built-in banding table. It always
// returns a tier; amounts below zero get the base band.
func Fallback(amount float64) Resolved {
	band := fallbackBands[0]
	for _, b := range fallbackBands {
		if amount >= b.minAmount {
			band = b
		}
	}
	return Resolved{
		Key:        band.key,
		Label:      band.label,
		DurationMS: band.durationMS,
		Color:      band.color,
		Volume:     defaultVolume,
		Fallback:   true,
	}
}

// BaseDurationMS is the hold duration of the lowest built-in band, used when
// an event arrives with no resolvable tier at all.
func BaseDurationMS() int { return fallbackBands[0].durationMS }
