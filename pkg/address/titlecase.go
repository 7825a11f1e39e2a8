package address

import (
	"strings"
	"unicode"
)

// TitleCase lower-cases s and upper-cases the first letter of every word.
// A word starts at the beginning of the string or after whitespace or a
// hyphen, so "GROSSE NEUGASSE" becomes "Grosse Neugasse" and "hinter-brühl"
// becomes "Hinter-Brühl". Applying it twice yields the same result.
func TitleCase(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	boundary := true
	for _, r := range strings.ToLower(s) {
		if boundary {
			b.WriteRune(unicode.ToUpper(r))
		} else {
			b.WriteRune(r)
		}
		boundary = unicode.IsSpace(r) || r == '-'
	}
	return b.String()
}
