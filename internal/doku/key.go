package doku

import (
	"strings"
	"unicode"
)

// ResolveContextKey maps a user-supplied context identifier to the key used
// on disk: only letters and numbers are kept, and an empty result becomes
// [DefaultContext]. The mapping is total and idempotent.
//
// Distinct identifiers can collapse to the same key ("my work" and "mywork"
// both become "mywork"). Create rejects the second one with [ErrContextExists].
func ResolveContextKey(identifier string) string {
	var b strings.Builder

	for _, r := range identifier {
		if isKeyRune(r) {
			b.WriteRune(r)
		}
	}

	if b.Len() == 0 {
		return DefaultContext
	}

	return b.String()
}

// HasContextKey reports whether identifier contains at least one character
// that survives [ResolveContextKey].
func HasContextKey(identifier string) bool {
	return strings.IndexFunc(identifier, isKeyRune) >= 0
}

// isKeyRune accepts letters and every Unicode number, including
// superscripts and vulgar fractions ("x²½").
func isKeyRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsNumber(r)
}

// FileName returns the on-disk file name for a context identifier.
func FileName(identifier string) string {
	return FilePrefix + ResolveContextKey(identifier) + FileSuffix
}

// keyFromFileName reverses [FileName]. ok is false for files that are not
// context documents.
func keyFromFileName(name string) (string, bool) {
	key, ok := strings.CutPrefix(name, FilePrefix)
	if !ok {
		return "", false
	}

	key, ok = strings.CutSuffix(key, FileSuffix)
	if !ok || key == "" || ResolveContextKey(key) != key {
		return "", false
	}

	return key, true
}

// Capitalize upper-cases the first letter and lower-cases the rest, which is
// how default display names are derived from context keys ("default" becomes
// "Default").
func Capitalize(s string) string {
	if s == "" {
		return s
	}

	runes := []rune(strings.ToLower(s))
	runes[0] = unicode.ToUpper(runes[0])

	return string(runes)
}
