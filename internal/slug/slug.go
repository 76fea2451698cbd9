// Package slug derives URL-friendly slugs for products and collections
// created from the admin console.
package slug

import (
	"regexp"
	"strings"
)

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// Generate creates a slug from a display name: lowercase, hyphens for
// anything non-alphanumeric, no leading or trailing hyphens.
//
// Examples:
//   - "Oxford Shirt" becomes "oxford-shirt"
//   - "Winter '25 / Drop 2" becomes "winter-25-drop-2"
func Generate(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = nonAlnum.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}
