package utils

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ParsedName is a free-text doctor name split into its parts
type ParsedName struct {
	Title      string
	GivenName  string
	FamilyName string
}

// titlePattern lists known academic and clinical titles, compound forms first.
// Periods are optional and the parts of a compound title may be separated by spaces.
var titlePattern = regexp.MustCompile(`(?i)^(?:` + strings.Join([]string{
	`prof\.?\s*dr\.?`,
	`do[çc]\.?\s*dr\.?`,
	`uzm\.?\s*dr\.?`,
	`op\.?\s*dr\.?`,
	`dr\.?\s*[öo][ğg]r\.?\s*[üu]yesi`,
	`asst\.?\s*prof\.?`,
	`assoc\.?\s*prof\.?`,
	`prof\.?`,
	`do[çc]\.?`,
	`uzm\.?`,
	`op\.?`,
	`asst\.?`,
	`assoc\.?`,
	`dr\.?`,
	`md\.?`,
	`ph\.?d\.?`,
}, "|") + `)`)

// ParseDoctorName strips a leading title and splits the rest into given and family names.
// The last token is the family name; a single remaining token is the family name alone.
func ParseDoctorName(raw string) ParsedName {
	name := strings.Join(strings.Fields(raw), " ")
	var parsed ParsedName

	if loc := titlePattern.FindStringIndex(name); loc != nil && titleEndsAtBoundary(name, loc[1]) {
		parsed.Title = strings.TrimSpace(name[:loc[1]])
		name = strings.TrimSpace(name[loc[1]:])
	}

	parts := strings.Fields(name)
	switch len(parts) {
	case 0:
	case 1:
		parsed.FamilyName = parts[0]
	default:
		parsed.FamilyName = parts[len(parts)-1]
		parsed.GivenName = strings.Join(parts[:len(parts)-1], " ")
	}
	return parsed
}

// titleEndsAtBoundary rejects matches that are only the start of a longer word, such as "Drake"
func titleEndsAtBoundary(s string, end int) bool {
	if end == len(s) || s[end-1] == '.' {
		return true
	}
	r, _ := utf8.DecodeRuneInString(s[end:])
	return unicode.IsSpace(r)
}
