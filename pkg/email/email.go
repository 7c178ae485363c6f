// Package email derives presentable names from addresses. Review notices
// greet the vault owner by name; when a designation predates the name fields
// the address local part is the only thing we have.
package email

import (
	"strings"
	"unicode"
)

// DisplayName returns a greeting-ready name for the address, e.g.
// "alex.mercer@example.com" becomes "Alex Mercer".
func DisplayName(address string) string {
	first, last := DeriveNameFromEmail(address)
	if last == "User" {
		return first
	}
	return first + " " + last
}

// DeriveNameFromEmail splits the local part of an address into a first and
// last name. Unknown pieces fall back to "User".
func DeriveNameFromEmail(address string) (string, string) {
	localPart := address
	if at := strings.IndexByte(address, '@'); at > 0 {
		localPart = address[:at]
	}

	parts := strings.FieldsFunc(localPart, func(r rune) bool {
		return r == '.' || r == '_' || r == '-' || r == '+'
	})

	if len(parts) == 0 {
		return "User", "User"
	}

	first := capitalize(parts[0])
	last := "User"
	if len(parts) > 1 {
		last = capitalize(parts[len(parts)-1])
	}

	return first, last
}

func capitalize(s string) string {
	if s == "" {
		return s
	}

	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
