package slug

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var reSlug = regexp.MustCompile(`^[a-z0-9_]{2,40}$`)

// dotless/dotted i have no decomposition, so fold them before stripping marks.
var turkishFold = strings.NewReplacer("ı", "i", "İ", "i", "I", "i")

// IsSlug returns true if s matches ^[a-z0-9_]{2,40}$
func IsSlug(s string) bool {
	return reSlug.MatchString(s)
}

// asciiFold maps Turkish and other accented letters to their ASCII base
// (ç→c, ğ→g, ö→o, ş→s, ü→u).
func asciiFold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, turkishFold.Replace(s))
	if err != nil {
		return s
	}
	return out
}

// Slugify converts s to a slug: ASCII-folded, lowercase, non [a-z0-9_] -> '_',
// repeats collapsed, trimmed to 40, leading/trailing '_' removed.
func Slugify(s string) string {
	if s == "" {
		return s
	}
	out := make([]rune, 0, len(s))
	prevUnderscore := false
	for _, r := range strings.ToLower(asciiFold(s)) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			prevUnderscore = false
			out = append(out, r)
		} else if !prevUnderscore {
			out = append(out, '_')
			prevUnderscore = true
		}
		if len(out) >= 40 {
			break
		}
	}
	return strings.Trim(string(out), "_")
}
