package orchestrator

import (
	"regexp"
	"strings"
)

// Order ids are ORD plus exactly six digits, matched case-insensitively on
// a word boundary so longer digit runs don't match.
var orderIDPattern = regexp.MustCompile(`(?i)\bORD\d{6}\b`)

// ExtractOrderID returns the first order id in the text, normalized to
// uppercase, or "" when none is present.
func ExtractOrderID(text string) string {
	match := orderIDPattern.FindString(text)
	if match == "" {
		return ""
	}
	return strings.ToUpper(match)
}
