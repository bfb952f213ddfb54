// Package domain contains core business types and interfaces.
//
// This file implements slug and random token generation for photo,
// category and tag URLs.
package domain

import (
	"crypto/rand"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	// SlugSuffixLength is the number of random characters appended to a slug.
	SlugSuffixLength = 6

	// FileTokenLength is the number of random characters in a stored filename.
	FileTokenLength = 40
)

const tokenAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// stripMarks removes diacritical marks after NFD decomposition, so "café"
// slugifies to "cafe" instead of dropping the accented rune entirely.
var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Slugify converts a title to a lowercase, hyphen-separated, URL-safe string.
func Slugify(s string) string {
	if folded, _, err := transform.String(stripMarks, s); err == nil {
		s = folded
	}
	s = strings.ToLower(s)

	var b strings.Builder
	b.Grow(len(s))
	prevDash := true // swallow leading separators
	for _, r := range s {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
			prevDash = false
		default:
			if !prevDash {
				b.WriteByte('-')
				prevDash = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// NewSlug derives a unique slug from a title: slugify(title) plus a random
// 6-character suffix. The suffix makes collisions astronomically unlikely;
// the caller may still retry once on a unique-constraint violation.
func NewSlug(title string) string {
	base := Slugify(title)
	if base == "" {
		base = "photo"
	}
	return base + "-" + RandomToken(SlugSuffixLength)
}

// RandomToken returns n random lowercase alphanumeric characters.
func RandomToken(n int) string {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand never fails on supported platforms
		panic("domain: rand.Read: " + err.Error())
	}
	for i, b := range buf {
		buf[i] = tokenAlphabet[int(b)%len(tokenAlphabet)]
	}
	return string(buf)
}
