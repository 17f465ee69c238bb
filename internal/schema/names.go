package schema

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// NormalizeModelName converts a user supplied model name to PascalCase.
// The name is split on underscores and whitespace; each token keeps its
// first rune upper-cased and the remainder lower-cased, so "user_profile"
// and "User Profile" both become "UserProfile".
func NormalizeModelName(name string) string {
	parts := strings.FieldsFunc(name, func(r rune) bool {
		return r == '_' || unicode.IsSpace(r)
	})

	var b strings.Builder
	b.Grow(len(name))
	for _, p := range parts {
		r, size := utf8.DecodeRuneInString(p)
		b.WriteRune(unicode.ToUpper(r))
		b.WriteString(strings.ToLower(p[size:]))
	}
	return b.String()
}

// lowerFirst lower-cases the first rune of s.
func lowerFirst(s string) string {
	if s == "" {
		return ""
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToLower(r)) + s[size:]
}

// pluralize appends "s" unless the name already ends in one.
func pluralize(s string) string {
	if s == "" || strings.HasSuffix(s, "s") {
		return s
	}
	return s + "s"
}

func isPlural(s string) bool {
	return strings.HasSuffix(s, "s")
}

// backReferenceName is the list field synthesized on the target side of a
// reference declared on origin.
func backReferenceName(origin string) string {
	return pluralize(strings.ToLower(origin))
}

// IsIdentifier reports whether s is a valid model or field identifier.
func IsIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if r == '_' || unicode.IsLetter(r) || (i > 0 && unicode.IsDigit(r)) {
			continue
		}
		return false
	}
	return true
}

// identifierLen returns the length in bytes of the identifier at the start
// of s, or 0 if s does not start with one.
func identifierLen(s string) int {
	n := 0
	for i, r := range s {
		if r == '_' || unicode.IsLetter(r) || (i > 0 && unicode.IsDigit(r)) {
			n = i + utf8.RuneLen(r)
			continue
		}
		break
	}
	return n
}
