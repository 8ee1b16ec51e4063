package common

import "strings"

// NormalizeCity returns the case-insensitive identity of a city name.
func NormalizeCity(city string) string {
	return strings.ToLower(strings.TrimSpace(city))
}

// SameCity reports whether a and b name the same city, ignoring case and surrounding spaces.
func SameCity(a, b string) bool {
	return NormalizeCity(a) == NormalizeCity(b)
}

// IsBlank returns true if s is empty after trimming.
func IsBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
