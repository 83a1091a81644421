package tier

import (
	"testing"

	"github.com/mohaimenalqadi/kick-donations/internal/model"
)

// threeTiers is a configuration with thresholds 0, 10 and 50.
func threeTiers() []model.TierSetting {
	return []model.TierSetting{
		{ID: 1, TierKey: "basic", Label: "Basic", MinAmount: 0, DurationMS: 10000, Color: "#10b981"},
		{ID: 2, TierKey: "medium", Label: "Medium", MinAmount: 10, DurationMS: 30000, Color: "#3b82f6"},
		{ID: 3, TierKey: "pro", Label: "Pro", MinAmount: 50, DurationMS: 60000, Color: "#8b5cf6"},
	}
}

// TestResolvePicksGreatestThreshold verifies that the tier with the largest
// minimum amount not exceeding the donation is selected, with boundaries
// inclusive of the higher tier.
func TestResolvePicksGreatestThreshold(t *testing.T) {
	tiers := threeTiers()
	cases := []struct {
		amount float64
		want   string
	}{
		{0, "basic"},
		{5, "basic"},
		{9.99, "basic"},
		{10, "medium"}, // boundary belongs to the higher tier
		{49.5, "medium"},
		{50, "pro"},
		{5000, "pro"},
	}
	for _, tc := range cases {
		got := Resolve(tc.amount, tiers)
		if got.Key != tc.want {
			t.Errorf("Resolve(%v) = %q, want %q", tc.amount, got.Key, tc.want)
		}
		if got.Fallback {
			t.Errorf("Resolve(%v) used fallback with a matching configuration", tc.amount)
		}
	}
}

// TestResolveIsTotal verifies that for any ordering of the input set exactly
// one tier is returned; resolution must not depend on row order.
func TestResolveIsTotal(t *testing.T) {
	tiers := threeTiers()
	reversed := []model.TierSetting{tiers[2], tiers[1], tiers[0]}
	for amount := 0.0; amount <= 120; amount += 7.5 {
		a := Resolve(amount, tiers)
		b := Resolve(amount, reversed)
		if a.Key != b.Key {
			t.Fatalf("Resolve(%v) order-dependent: %q vs %q", amount, a.Key, b.Key)
		}
	}
}

// TestResolveFallsBackOnEmptyConfig verifies the built-in banding table is
// used when no tier rows exist, so the overlay never fails to render.
func TestResolveFallsBackOnEmptyConfig(t *testing.T) {
	got := Resolve(500, nil)
	if !got.Fallback {
		t.Fatal("Resolve with empty config did not use fallback")
	}
	if got.Key != "legendary" {
		t.Errorf("Resolve(500, nil) = %q, want %q", got.Key, "legendary")
	}
	if got.DurationMS == 0 {
		t.Error("fallback tier has zero duration")
	}
}

// TestResolveFallsBackBelowAllThresholds verifies that an amount below every
// configured threshold degrades to the fallback table instead of erroring.
func TestResolveFallsBackBelowAllThresholds(t *testing.T) {
	tiers := []model.TierSetting{
		{ID: 1, TierKey: "whale", Label: "Whale", MinAmount: 1000, DurationMS: 120000, Color: "#fff"},
	}
	got := Resolve(3, tiers)
	if !got.Fallback {
		t.Fatal("Resolve below all thresholds did not use fallback")
	}
	if got.Key != "basic" {
		t.Errorf("Resolve(3) fallback = %q, want %q", got.Key, "basic")
	}
}

// TestFallbackBands spot-checks the built-in band boundaries.
func TestFallbackBands(t *testing.T) {
	cases := []struct {
		amount float64
		want   string
	}{
		{0, "basic"},
		{9, "basic"},
		{10, "medium"},
		{50, "professional"},
		{100, "cinematic"},
		{499, "cinematic"},
		{500, "legendary"},
	}
	for _, tc := range cases {
		if got := Fallback(tc.amount); got.Key != tc.want {
			t.Errorf("Fallback(%v) = %q, want %q", tc.amount, got.Key, tc.want)
		}
	}
}
