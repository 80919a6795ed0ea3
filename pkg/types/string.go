package types

import (
	"strings"
	"unicode"
)

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Quote returns a single-quoted SQL string literal
func Quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// DoubleQuote returns a double-quoted SQL identifier
func DoubleQuote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// IsNumeric returns true if s is a non-empty string of digits
func IsNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

func IsSingleQuoted(s string) bool {
	return len(s) >= 2 && strings.HasPrefix(s, "'") && strings.HasSuffix(s, "'")
}

func IsDoubleQuoted(s string) bool {
	return len(s) >= 2 && strings.HasPrefix(s, `"`) && strings.HasSuffix(s, `"`)
}

// IsIdentifier returns true if s starts with a letter and contains only
// letters, digits, underscores and hyphens, up to 64 characters. Queue
// and namespace names must be identifiers.
func IsIdentifier(s string) bool {
	if s == "" || len(s) > 64 {
		return false
	}
	for i, r := range s {
		switch {
		case r > unicode.MaxASCII:
			return false
		case unicode.IsLetter(r):
			continue
		case i > 0 && (unicode.IsDigit(r) || r == '_' || r == '-'):
			continue
		default:
			return false
		}
	}
	return true
}
