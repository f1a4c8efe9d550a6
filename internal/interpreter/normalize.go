package interpreter

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// dashes folds every dash variant the range syntax accepts into an ASCII hyphen.
var dashes = strings.NewReplacer(
	"‐", "-", // hyphen
	"‑", "-", // non-breaking hyphen
	"‒", "-", // figure dash
	"–", "-", // en dash
	"—", "-", // em dash
	"―", "-", // horizontal bar
	"−", "-", // minus sign
)

// foldMarks decomposes s and drops combining marks, so ё matches е and й matches и.
func foldMarks(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// normalize prepares request text for matching: marks folded, lower-cased,
// dashes unified and whitespace collapsed.
func normalize(s string) string {
	s = strings.ToLower(foldMarks(s))
	s = dashes.Replace(s)
	return strings.Join(strings.Fields(s), " ")
}

// compile builds a rule pattern. Patterns are written with regular Cyrillic and are
// folded the same way as the input, so they never need to spell out both ё and е.
func compile(pattern string) *regexp.Regexp {
	return regexp.MustCompile(foldMarks(pattern))
}
