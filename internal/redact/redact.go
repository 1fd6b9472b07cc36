package redact

import "regexp"

// Placeholder tokens substituted for masked PII. They contain no digits
// and no "@", so running Redact over already-redacted text is a no-op.
const (
	EmailPlaceholder = "[email redacted]"
	PhonePlaceholder = "[phone redacted]"
)

var (
	emailPattern = regexp.MustCompile(`(?i)[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}`)
	phonePattern = regexp.MustCompile(`(\+?\d{1,3}[-. (]+)?\d{3}[-. )]*\d{3}[-. ]?\d{4}`)
)

// Redact masks email-like and phone-like substrings before any scoring
// sees the text. Matching is best effort: missed exotic formats are
// acceptable, and a coincidental digit run being masked is acceptable
// collateral, since masked tokens score as neutral words at worst.
func Redact(text string) string {
	if text == "" {
		return ""
	}
	text = emailPattern.ReplaceAllString(text, EmailPlaceholder)
	text = phonePattern.ReplaceAllString(text, PhonePlaceholder)
	return text
}
