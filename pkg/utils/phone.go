package utils

import (
	"strings"

	"roster-service/internal/domain/errs"
)

// NormalizePhone converts Turkish mobile numbers to +90XXXXXXXXXX.
// Unrecognized input is returned trimmed but otherwise unchanged with ok=false,
// so normalizing an already normalized or unknown value is a no-op.
func NormalizePhone(raw string) (normalized string, ok bool) {
	raw = strings.TrimSpace(raw)
	digits := DigitsOnly(raw)

	switch {
	case len(digits) == 10 && strings.HasPrefix(digits, "5"):
		return "+90" + digits, true
	case len(digits) == 11 && strings.HasPrefix(digits, "05"):
		return "+9" + digits, true
	case len(digits) == 11 && strings.HasPrefix(digits, "90"):
		return "+" + digits, true
	case len(digits) == 12 && strings.HasPrefix(digits, "905"):
		return "+" + digits, true
	case len(digits) == 14 && strings.HasPrefix(digits, "0090"):
		return "+" + digits[2:], true
	}
	return raw, false
}

// ValidatePhone normalizes raw for interactive entry; an empty value is allowed
func ValidatePhone(raw string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return "", nil
	}
	normalized, ok := NormalizePhone(raw)
	if !ok {
		return "", errs.NewValidationError("phone", errs.CodeUnrecognizedPhoneFormat, "unrecognized phone number format: %q", raw)
	}
	return normalized, nil
}

// DigitsOnly drops every non-digit character
func DigitsOnly(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
