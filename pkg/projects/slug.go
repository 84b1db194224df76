package projects

import "strings"

// Compact trims the name and collapses internal whitespace runs to single
// spaces. Compact(Compact(x)) == Compact(x).
func Compact(name string) string {
	return strings.Join(strings.Fields(name), " ")
}

// Slugify derives the URL-safe form of a display name: compacted, lowered,
// spaces replaced with dashes, everything outside [a-z0-9-] dropped, dash
// runs collapsed. Slugify is idempotent.
func Slugify(name string) string {
	lowered := strings.ToLower(Compact(name))

	var b strings.Builder
	b.Grow(len(lowered))
	lastDash := false
	for _, r := range lowered {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		case r == ' ' || r == '-' || r == '_':
			if !lastDash && b.Len() > 0 {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
