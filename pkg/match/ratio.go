// Package match picks the best candidate out of a noisy API search page.
//
// Two resolvers live here: Matcher scores soundtrack albums against a movie
// title with keyword boosts and penalties, and BestMovie resolves a CMU movie
// to a movie database id using title and original title.
package match

import (
	"unicode/utf8"

	"github.com/hbollon/go-edlib"
)

// Ratio returns a 0-100 similarity between a and b based on the indel
// distance, the number of rune insertions and deletions turning one into
// the other: 100 * (1 - indel/(|a|+|b|)). Two empty strings are identical.
func Ratio(a, b string) float64 {
	total := utf8.RuneCountInString(a) + utf8.RuneCountInString(b)
	if total == 0 {
		return 100
	}
	indel := total - 2*edlib.LCS(a, b)
	return 100 * (1 - float64(indel)/float64(total))
}
