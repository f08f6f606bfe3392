package model

import (
	"strings"
	"unicode"
)

const (
	MinCodeLength = 4
	MaxCodeLength = 10
)

// codeGroups is the 4-2-3-1 display grouping of a full nomenclature code
var codeGroups = []int{4, 2, 3, 1}

// NormalizeCode removes grouping separators (spaces, no-break spaces, dots,
// hyphens) from a code. Other characters are kept so ValidCode rejects them.
func NormalizeCode(raw string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || r == '.' || r == '-' {
			return -1
		}
		return r
	}, raw)
}

// ValidCode reports whether code is 4 to 10 ASCII digits
func ValidCode(code string) bool {
	if len(code) < MinCodeLength || len(code) > MaxCodeLength {
		return false
	}
	return IsDigits(code)
}

// IsDigits reports whether s is a non-empty run of ASCII digits
func IsDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// FormatCode groups a code as 4-2-3-1 digits ("8471300000" -> "8471 30 000 0").
// Shorter codes fill as many groups as they have digits. The result is for
// display only.
func FormatCode(code string) string {
	var parts []string
	rest := code
	for _, size := range codeGroups {
		if rest == "" {
			break
		}
		if len(rest) < size {
			size = len(rest)
		}
		parts = append(parts, rest[:size])
		rest = rest[size:]
	}
	if rest != "" {
		parts = append(parts, rest)
	}
	return strings.Join(parts, " ")
}
