// Package normalize folds free text and language codes into canonical forms.
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Query folds a search query so equivalent inputs share a cache key.
// "  Amélie   " and "amelie" both become "amelie". Non-Latin scripts are kept.
func Query(s string) string {
	folder := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(folder, s)
	if err != nil {
		folded = s
	}
	return strings.Join(strings.Fields(strings.ToLower(folded)), " ")
}

// LanguageCode returns the ISO 639-1 code for raw, which may be a 2 or 3
// letter code or a locale such as "pt_BR". Unknown values yield "".
func LanguageCode(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}

	tag, err := language.Parse(raw)
	if err != nil {
		return ""
	}
	base, confidence := tag.Base()
	if confidence == language.No {
		return ""
	}
	return base.String()
}

// Language returns the English display name for raw ("ja" -> "Japanese").
func Language(raw string) string {
	code := LanguageCode(raw)
	if code == "" {
		return ""
	}
	return display.English.Languages().Name(language.Make(code))
}
