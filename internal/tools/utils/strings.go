package utils

import (
	"regexp"
	"strings"
)

var rfc1123Characters = regexp.MustCompile(`[^a-z0-9.-]+`)

// SanitizeRFC1123String converts a string to a valid RFC 1123 label
// fragment: lowercased, with every character outside [a-z0-9.-] removed.
// Used to derive safe identifiers (e.g. an STS session name) from
// user-supplied config values such as db_key.
func SanitizeRFC1123String(input string) string {
	return rfc1123Characters.ReplaceAllString(strings.ToLower(input), "")
}
