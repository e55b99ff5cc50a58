package store

import (
	"regexp"
	"strings"
)

var (
	nonSlugChars   = regexp.MustCompile(`[^a-z0-9]+`)
	sheetPathID    = regexp.MustCompile(`/spreadsheets/d/([a-zA-Z0-9-_]+)`)
	sheetQueryID   = regexp.MustCompile(`[?&]id=([a-zA-Z0-9-_]+)`)
	phoneFormatted = regexp.MustCompile(`^\+?[0-9][0-9 ()-]*$`)
)

// Slugify lowercases s and collapses every run of characters outside
// [a-z0-9] into a single dash. An input with no usable characters yields "".
func Slugify(s string) string {
	s = nonSlugChars.ReplaceAllString(strings.ToLower(s), "-")
	return strings.Trim(s, "-")
}

// SlugWithSuffix builds a store slug from its name and a random suffix.
func SlugWithSuffix(name, suffix string) string {
	base := Slugify(name)
	if base == "" {
		base = "store"
	}
	return base + "-" + suffix
}

// ParseSheetID extracts the spreadsheet id from a Google Sheets URL.
func ParseSheetID(url string) (string, bool) {
	if m := sheetPathID.FindStringSubmatch(url); m != nil {
		return m[1], true
	}
	if m := sheetQueryID.FindStringSubmatch(url); m != nil {
		return m[1], true
	}
	return "", false
}

// Digits returns only the decimal digits of s.
func Digits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ValidPhone accepts numbers written with an optional leading plus, spaces,
// dashes and parentheses, carrying 10 to 15 digits.
func ValidPhone(s string) bool {
	if !phoneFormatted.MatchString(s) {
		return false
	}
	n := len(Digits(s))
	return n >= 10 && n <= 15
}
