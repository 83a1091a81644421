package validate

import (
	"strings"
	"testing"
)

// TestSanitizeStripsMarkupAndDangerousChars verifies HTML tags and unsafe
// characters are removed before any other validation runs.
func TestSanitizeStripsMarkupAndDangerousChars(t *testing.T) {
	got := Sanitize(`  <b>Ali</b>; drop "table"  `)
	if strings.ContainsAny(got, `<>";`) {
		t.Errorf("Sanitize left dangerous characters: %q", got)
	}
	if !strings.Contains(got, "Ali") {
		t.Errorf("Sanitize removed legitimate content: %q", got)
	}
}

// TestDonorNameBounds verifies the 2–50 character rule applies after
// sanitization.
func TestDonorNameBounds(t *testing.T) {
	if _, errMsg := DonorName("A"); errMsg == "" {
		t.Error("single-character name accepted")
	}
	if _, errMsg := DonorName("<i>B</i>"); errMsg == "" {
		t.Error("name that is too short after tag stripping accepted")
	}
	if _, errMsg := DonorName(strings.Repeat("x", 51)); errMsg == "" {
		t.Error("51-character name accepted")
	}
	name, errMsg := DonorName("  Mohaimen  ")
	if errMsg != "" {
		t.Fatalf("valid name rejected: %s", errMsg)
	}
	if name != "Mohaimen" {
		t.Errorf("DonorName = %q, want trimmed %q", name, "Mohaimen")
	}
}

// TestAmountBoundsAndRounding verifies min/max enforcement and rounding to
// two decimals.
func TestAmountBoundsAndRounding(t *testing.T) {
	if _, errMsg := Amount(0.5, 1, 10000); errMsg == "" {
		t.Error("amount below minimum accepted")
	}
	if _, errMsg := Amount(10001, 1, 10000); errMsg == "" {
		t.Error("amount above maximum accepted")
	}
	got, errMsg := Amount(12.345, 1, 10000)
	if errMsg != "" {
		t.Fatalf("valid amount rejected: %s", errMsg)
	}
	if got != 12.35 {
		t.Errorf("Amount(12.345) = %v, want 12.35", got)
	}
}

// TestMessageFilter verifies spam patterns and blocked words are replaced
// with the placeholder while clean messages pass through.
func TestMessageFilter(t *testing.T) {
	cases := []struct {
		in      string
		blocked bool
	}{
		{"شكرا على البث", false},
		{"great stream!", false},
		{"join my discord server", true},
		{"http://spam.example", true},
		{"wooooooooooow", true}, // 8+ repeated characters
		{"يا كلب", true},
		{"ك ل ب", true}, // separator evasion
		{"", false},
	}
	for _, tc := range cases {
		got := Message(tc.in)
		if tc.blocked && got != BlockedPlaceholder {
			t.Errorf("Message(%q) = %q, want placeholder", tc.in, got)
		}
		if !tc.blocked && got == BlockedPlaceholder {
			t.Errorf("Message(%q) blocked a clean message", tc.in)
		}
	}
}

// TestMessageNeverFailsValidation verifies a filthy message does not reject
// the donation itself.
func TestMessageNeverFailsValidation(t *testing.T) {
	res, errs := Donation("Ali", 25, "join my discord", 1, 10000)
	if errs != nil {
		t.Fatalf("Donation rejected due to message: %v", errs)
	}
	if res.Message != BlockedPlaceholder {
		t.Errorf("message = %q, want placeholder", res.Message)
	}
}

// TestDonationCollectsErrors verifies name and amount errors are reported
// together.
func TestDonationCollectsErrors(t *testing.T) {
	_, errs := Donation("x", 0, "hi", 1, 10000)
	if len(errs) != 2 {
		t.Errorf("Donation returned %d errors, want 2: %v", len(errs), errs)
	}
}
