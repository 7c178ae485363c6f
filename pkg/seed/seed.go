// Package seed implements the protocol seed: the short alphanumeric secret
// printed on the physical succession document. A seed is the sole credential
// a third party needs to verify a digital record, so it must be unguessable
// (12 base36 chars, ~62 bits) yet short enough to type from paper.
package seed

import (
	"crypto/rand"
	"crypto/subtle"
	"strings"

	dErrors "heritage/pkg/domain-errors"
)

const (
	// Length is the number of base36 characters in a seed.
	Length = 12

	alphabet  = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	groupSize = 4
)

// New generates a fresh protocol seed from crypto/rand. The returned value
// is the canonical ungrouped form (12 uppercase base36 characters).
func New() (string, error) {
	buf := make([]byte, Length)
	if _, err := rand.Read(buf); err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "generate protocol seed")
	}
	out := make([]byte, Length)
	for i, b := range buf {
		out[i] = alphabet[int(b)%len(alphabet)]
	}
	return string(out), nil
}

// Format renders a canonical seed in the human-facing 4-4-4 grouping used on
// printed documents (e.g. "E3B0-C442-98FC"). Non-canonical input is
// normalized first.
func Format(s string) string {
	s = Normalize(s)
	var b strings.Builder
	for i := 0; i < len(s); i += groupSize {
		if i > 0 {
			b.WriteByte('-')
		}
		end := min(i+groupSize, len(s))
		b.WriteString(s[i:end])
	}
	return b.String()
}

// Normalize strips every non-alphanumeric rune, uppercases, and caps the
// result at Length. Verification input arrives hand-typed from a printed
// page, so hyphens, spaces, and case must never matter.
func Normalize(s string) string {
	var b strings.Builder
	b.Grow(Length)
	for _, r := range s {
		if b.Len() == Length {
			break
		}
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r)
		case r >= 'a' && r <= 'z':
			b.WriteRune(r - 'a' + 'A')
		}
	}
	return b.String()
}

// Match compares a candidate (in any input form) against a stored canonical
// seed in constant time. Returns false for anything that does not normalize
// to a full-length seed.
func Match(candidate, stored string) bool {
	c := Normalize(candidate)
	if len(c) != Length || len(stored) != Length {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(c), []byte(stored)) == 1
}
