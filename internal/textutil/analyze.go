package textutil

import (
	"strings"
	"unicode"

	"github.com/mozillazg/go-unidecode"
	"golang.org/x/text/cases"
)

// Analyze converts free text into the lowercase ASCII tokens used for
// full-text matching. Non-Latin scripts are transliterated so "Léon" and
// "Leon" produce the same token.
func Analyze(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	folded := strings.ToLower(unidecode.Unidecode(text))
	folded = strings.NewReplacer("'", "", "`", "").Replace(folded)
	return strings.FieldsFunc(folded, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// AnalyzeJoined returns the analyzed tokens separated by single spaces.
func AnalyzeJoined(text string) string {
	return strings.Join(Analyze(text), " ")
}

// Fold returns the Unicode case-folded form of s with surrounding
// whitespace removed, suitable for exact case-insensitive comparison.
func Fold(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}

// EqualFold reports whether a and b are equal under Unicode case folding.
func EqualFold(a, b string) bool {
	return Fold(a) == Fold(b)
}

// FirstParagraph returns the text up to the first blank line.
func FirstParagraph(text string) string {
	text = strings.TrimSpace(strings.ReplaceAll(text, "\r\n", "\n"))
	if idx := strings.Index(text, "\n\n"); idx >= 0 {
		text = text[:idx]
	}
	return strings.TrimSpace(text)
}
