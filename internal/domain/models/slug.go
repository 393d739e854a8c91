// internal/domain/models/slug.go
package models

import (
	"regexp"
	"strings"
)

var (
	// \p{Zs} adds non-breaking and other Unicode spaces to RE2's ASCII \s.
	slugInvalid    = regexp.MustCompile(`[^a-z0-9\s\p{Zs}-]`)
	slugWhitespace = regexp.MustCompile(`[\s\p{Zs}]+`)
	slugDashes     = regexp.MustCompile(`-+`)
)

// Slugify turns a title into a URL slug. Slugify(Slugify(s)) == Slugify(s).
func Slugify(s string) string {
	s = strings.ToLower(s)
	s = slugInvalid.ReplaceAllString(s, "")
	s = strings.TrimSpace(s)
	s = slugWhitespace.ReplaceAllString(s, "-")
	s = slugDashes.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}
