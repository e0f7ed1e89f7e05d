package utils

import (
	"regexp"
	"strings"
)

var (
	emailPattern = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)
	phonePattern = regexp.MustCompile(`\+?\d[\d\s\-]{7,14}\d`)
	// Opaque secrets: JWT-shaped strings and long token-like runs.
	jwtPattern   = regexp.MustCompile(`eyJ[A-Za-z0-9_\-]+\.[A-Za-z0-9_\-]+\.[A-Za-z0-9_\-]*`)
	tokenPattern = regexp.MustCompile(`[A-Za-z0-9_\-]{32,}`)
)

// MaskEmail masks an email address for safe logging.
// Example: "user@example.com" -> "u***@example.com"
func MaskEmail(email string) string {
	parts := strings.SplitN(email, "@", 2)
	if len(parts) != 2 {
		return "***"
	}
	local := parts[0]
	if len(local) <= 1 {
		return local + "***@" + parts[1]
	}
	return string(local[0]) + "***@" + parts[1]
}

// MaskPhone masks a phone number, keeping only the last two digits.
func MaskPhone(phone string) string {
	digits := 0
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	if digits < 4 {
		return "***"
	}
	return "***" + phone[len(phone)-2:]
}

// MaskToken keeps a short prefix of an opaque token for correlation.
func MaskToken(token string) string {
	if len(token) <= 8 {
		return "***"
	}
	return token[:6] + "..."
}

// MaskForLog redacts email addresses, phone numbers, and token-like
// substrings from a diagnostic string. Every value destined for a log sink
// outside structured fields should pass through here.
func MaskForLog(s string) string {
	s = emailPattern.ReplaceAllStringFunc(s, MaskEmail)
	s = jwtPattern.ReplaceAllStringFunc(s, MaskToken)
	s = tokenPattern.ReplaceAllStringFunc(s, MaskToken)
	s = phonePattern.ReplaceAllStringFunc(s, MaskPhone)
	return s
}

// TruncateForLog truncates a string for safe logging, appending "..." when
// anything was cut.
func TruncateForLog(s string, maxLen int) string {
	if maxLen <= 0 {
		return "..."
	}
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
