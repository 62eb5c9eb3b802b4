package utils

import (
	"net/url"
	"strings"

	"roster-service/internal/domain/errs"
)

// ValidateSourceURL accepts absolute http(s) URLs with a host
func ValidateSourceURL(rawURL string) error {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return errs.NewValidationError("url", errs.CodeInvalid, "malformed URL %q", rawURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errs.NewValidationError("url", errs.CodeInvalid, "unsupported URL scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return errs.NewValidationError("url", errs.CodeInvalid, "URL %q has no host", rawURL)
	}
	return nil
}
