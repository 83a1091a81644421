// Package validate sanitizes and validates donation input before it reaches
// the store. Validation errors are collected and rejected synchronously at
// creation; the message filter never rejects, it replaces disallowed content
// with a placeholder so a donation is never lost to its message.
package validate

import (
	"math"
	"regexp"
	"strings"
)

const (
	minNameLen     = 2
	maxNameLen     = 50
	maxMessageLen  = 200
	maxRawInputLen = 500

	// BlockedPlaceholder replaces messages caught by the content filter.
	BlockedPlaceholder = "[رسالة محظورة]"
)

var (
	htmlTagRe    = regexp.MustCompile(`<[^>]*>`)
	dangerousRe  = regexp.MustCompile("[<>\"'`;]")
	urlRe        = regexp.MustCompile(`(?i)https?://`)
	platformRe   = regexp.MustCompile(`(?i)\b(discord|telegram|kick|twitch)\b`)
	separatorRe  = regexp.MustCompile(`[\s.\-_,;:!?*/\\#$%^&()\[\]{}+=]`)
	diacriticsRe = regexp.MustCompile("[ًٌٍَُِّْٰ]")
)

// blockedWords is the content filter list (common Arabic plus Libyan
// dialect forms). The platform treats the filter as an opaque transform;
// terms are matched against both the raw and the normalized message.
var blockedWords = []string{
	"كلب", "حمار", "شتم", "لعن", "وسخ", "عاهر", "قواد", "عرص",
	"شرموط", "لبوة", "زبي", "كس", "طيز", "كسمك", "نيك", "تناك",
	"خرا", "زق", "يا حيوان", "سكس", "اباحي",
	"فرخ", "تيس", "صايع", "مفرخ", "فرخة", "شلاكة",
	"منيك", "نيكة", "خامر", "سربوت", "قحبة", "زبر", "ميبون", "زامل",
}

// Result carries the sanitized donation fields after validation.
type Result struct {
	DonorName string
	Amount    float64
	Message   string
}

// Sanitize trims input, strips HTML tags and dangerous characters and caps
// the raw length. It is applied to every free-text field before any other
// check.
func Sanitize(input string) string {
	s := strings.TrimSpace(input)
	s = htmlTagRe.ReplaceAllString(s, "")
	s = dangerousRe.ReplaceAllString(s, "")
	if len(s) > maxRawInputLen {
		s = truncate(s, maxRawInputLen)
	}
	return s
}

// DonorName validates the donor display name. It returns the sanitized name
// or an error message suitable for the operator UI.
func DonorName(name string) (string, string) {
	s := Sanitize(name)
	runes := []rune(s)
	if len(runes) < minNameLen {
		return "", "donor name must be at least 2 characters"
	}
	if len(runes) > maxNameLen {
		return "", "donor name too long (max 50 characters)"
	}
	return s, ""
}

// Amount validates the donation amount against the configured bounds and
// rounds it to two decimals.
func Amount(amount, min, max float64) (float64, string) {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return 0, "invalid donation amount"
	}
	if amount < min {
		return 0, "donation amount below minimum"
	}
	if amount > max {
		return 0, "donation amount above maximum"
	}
	return math.Round(amount*100) / 100, ""
}

// Message filters a donation message. It never fails: spam patterns and
// blocked words result in the placeholder, everything else is sanitized and
// truncated. The normalized pass catches evasion by separators, diacritics
// and repeated letters.
func Message(message string) string {
	if message == "" {
		return ""
	}
	s := Sanitize(message)

	if hasRepeatRun(s) || urlRe.MatchString(s) || platformRe.MatchString(s) {
		return BlockedPlaceholder
	}

	normalized := separatorRe.ReplaceAllString(s, "")
	normalized = diacriticsRe.ReplaceAllString(normalized, "")
	normalized = collapseRepeats(normalized)

	lower := strings.ToLower(s)
	lowerNorm := strings.ToLower(normalized)
	for _, w := range blockedWords {
		if strings.Contains(lower, w) || strings.Contains(lowerNorm, w) {
			return BlockedPlaceholder
		}
	}
	return truncate(s, maxMessageLen)
}

// Donation validates a complete donation input. On failure it returns the
// collected error messages; the message field alone can never cause failure.
func Donation(name string, amount float64, message string, minAmount, maxAmount float64) (Result, []string) {
	var errs []string
	var res Result

	n, errMsg := DonorName(name)
	if errMsg != "" {
		errs = append(errs, errMsg)
	} else {
		res.DonorName = n
	}

	a, errMsg := Amount(amount, minAmount, maxAmount)
	if errMsg != "" {
		errs = append(errs, errMsg)
	} else {
		res.Amount = a
	}

	res.Message = Message(message)

	if len(errs) > 0 {
		return Result{}, errs
	}
	return res, nil
}

// hasRepeatRun reports whether s contains a run of 8 or more identical
// non-newline runes. It stands in for the backreference pattern `(.)\1{7,}`,
// which Go's RE2 regexp engine cannot express.
func hasRepeatRun(s string) bool {
	var last rune = -1
	count := 0
	for _, r := range s {
		if r == last && r != '\n' {
			count++
			if count >= 8 {
				return true
			}
		} else {
			last = r
			count = 1
		}
	}
	return false
}

// collapseRepeats merges runs of the same rune into one occurrence.
func collapseRepeats(s string) string {
	var b strings.Builder
	var last rune = -1
	for _, r := range s {
		if r != last {
			b.WriteRune(r)
			last = r
		}
	}
	return b.String()
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	runes := []rune(s)
	for len(string(runes)) > n {
		runes = runes[:len(runes)-1]
	}
	return string(runes)
}
