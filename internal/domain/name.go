package domain

import "strings"

// ParsedName is the normalized form of a raw domain string.
type ParsedName struct {
	Name string // Trimmed, lowercased input
	SLD  string // Label immediately before the last one (or the only label)
	TLD  string // "." + last label, or "" for single-label input
}

// ParseName normalizes a raw domain string and splits out its SLD and TLD.
//
// Only the immediate second-level label becomes the SLD: for "a.b.c.com" the
// SLD is "c" and the leading labels are dropped. Malformed input never fails;
// the empty string yields an empty ParsedName.
func ParseName(raw string) ParsedName {
	name := strings.ToLower(strings.TrimSpace(raw))
	labels := strings.Split(name, ".")

	if len(labels) < 2 {
		return ParsedName{Name: name, SLD: labels[0]}
	}

	return ParsedName{
		Name: name,
		SLD:  labels[len(labels)-2],
		TLD:  "." + labels[len(labels)-1],
	}
}

// NormalizeTLD lowercases a TLD filter value and adds the leading dot when missing.
func NormalizeTLD(raw string) string {
	tld := strings.ToLower(strings.TrimSpace(raw))
	if tld == "" || strings.HasPrefix(tld, ".") {
		return tld
	}
	return "." + tld
}
