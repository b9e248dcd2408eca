package resolve

import (
	"math"
	"strings"
	"unicode"

	"github.com/hbollon/go-edlib"
	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalize prepares a name for comparison: accents and punctuation are
// dropped, case is folded and whitespace collapsed.
func Normalize(name string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, name)
	if err != nil {
		stripped = name
	}
	stripped = strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			return r
		case unicode.IsSpace(r):
			return ' '
		default:
			return -1
		}
	}, stripped)
	return strings.Join(strings.Fields(cases.Fold().String(stripped)), " ")
}

// Similarity scores two names from 0 to 100 using the indel ratio
// 2*LCS/(len(a)+len(b)) over normalized names.
func Similarity(a, b string) int {
	a, b = Normalize(a), Normalize(b)
	total := len([]rune(a)) + len([]rune(b))
	if total == 0 {
		return 100
	}
	common := edlib.LCS(a, b)
	return int(math.Round(200 * float64(common) / float64(total)))
}
