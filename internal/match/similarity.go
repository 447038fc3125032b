package match

import (
	"strings"

	"github.com/texttheater/golang-levenshtein/levenshtein"
)

// Similarity scores how alike two free-text descriptions are on a
// 0-100 scale, using the Levenshtein ratio over runes so multi-byte
// text compares correctly. Either side empty scores 0: absent text is
// no evidence of a match.
func Similarity(a, b string) int {
	a = normalizeText(a)
	b = normalizeText(b)
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 100
	}

	ratio := levenshtein.RatioForStrings([]rune(a), []rune(b), levenshtein.DefaultOptions)
	return int(ratio * 100)
}

// ContainsSimilarity is Similarity with a substring boost: when one
// side wholly contains the other, the texts describe the same
// counterparty even if their lengths differ a lot.
func ContainsSimilarity(a, b string) int {
	na := normalizeText(a)
	nb := normalizeText(b)
	if na == "" || nb == "" {
		return 0
	}
	if strings.Contains(na, nb) || strings.Contains(nb, na) {
		return 100
	}
	return Similarity(a, b)
}

func normalizeText(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.Join(strings.Fields(s), " ")
}
