package parser

import "strings"

// CollapseWhitespace trims s and replaces every run of whitespace,
// including non-breaking spaces, with a single space
func CollapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
