package services

import "regexp"

// PII patterns masked from the reasoning context before it leaves the
// process.
var (
	emailPattern = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)
	ssnPattern   = regexp.MustCompile(`\b\d{3}[-.]?\d{2}[-.]?\d{4}\b`)
	phonePattern = regexp.MustCompile(`\b(?:\+\d{1,3}[- ]?)?\d{3}[- ]?\d{3}[- ]?\d{4}\b`)
)

// redactPII masks emails, social security numbers and phone numbers.
// Emails go first so their digit-bearing local parts cannot be half-eaten
// by the number patterns; SSNs go before phones because the shorter
// digit grouping would otherwise swallow part of a phone number.
func redactPII(text string) string {
	text = emailPattern.ReplaceAllString(text, "[REDACTED_EMAIL]")
	text = ssnPattern.ReplaceAllString(text, "[REDACTED_SSN]")
	text = phonePattern.ReplaceAllString(text, "[REDACTED_PHONE]")
	return text
}
