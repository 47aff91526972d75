// AngelaMos | 2026
// slug.go

package asset

import (
	"strings"
	"unicode"
)

// Slugify lower-cases name and joins its letter and digit runs with single
// hyphens: "My Art" becomes "my-art".
func Slugify(name string) string {
	var b strings.Builder
	b.Grow(len(name))

	pendingHyphen := false
	for _, r := range strings.ToLower(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
			continue
		}
		pendingHyphen = true
	}

	return b.String()
}
