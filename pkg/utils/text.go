package utils

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// dotlessI maps ı to i; it has no decomposition, so stripping marks leaves it alone
var dotlessI = runes.Map(func(r rune) rune {
	if r == 'ı' {
		return 'i'
	}
	return r
})

// FoldTurkish lower-cases s with Turkish dotted/dotless i rules and then flattens the diacritics to ASCII.
// "GÜNDÜZ", "Gündüz" and "gunduz" all fold to "gunduz".
func FoldTurkish(s string) string {
	// casers and transformers keep state, so each call builds its own
	lower := cases.Lower(language.Turkish).String(s)
	folded, _, err := transform.String(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), dotlessI, norm.NFC), lower)
	if err != nil {
		return lower
	}
	return folded
}

// DepartmentCode derives a department code from its name: Turkish letters transliterated,
// punctuation dropped, spaces turned into underscores, upper-cased and cut to 10 characters.
func DepartmentCode(name string) string {
	var b strings.Builder
	for _, r := range FoldTurkish(strings.TrimSpace(name)) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune('_')
		}
	}
	code := []rune(strings.ToUpper(b.String()))
	if len(code) > 10 {
		code = code[:10]
	}
	return string(code)
}
