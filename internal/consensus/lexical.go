package consensus

import (
	"regexp"
	"strings"

	"github.com/Miyazak1/linklore-sub001/pkg/utils"
)

// tokenPattern matches runs of CJK ideographs or runs of Latin letters and digits.
var tokenPattern = regexp.MustCompile(`\p{Han}+|[\p{Latin}\p{Nd}]+`)

// Tokenize returns the case-folded token set of a claim.
func Tokenize(text string) map[string]struct{} {
	tokens := make(map[string]struct{})
	for _, tok := range tokenPattern.FindAllString(strings.ToLower(text), -1) {
		tokens[tok] = struct{}{}
	}
	return tokens
}

// Jaccard returns |a∩b| / |a∪b|, or 0 when both sets are empty.
func Jaccard(a, b map[string]struct{}) float64 {
	if len(a) > len(b) {
		a, b = b, a
	}
	inter := 0
	for tok := range a {
		if _, ok := b[tok]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

// LexicalConsensus is the mean pairwise Jaccard similarity of claims.
// 0 claims yields the neutral score and 1 claim yields 1.
func LexicalConsensus(claims []string) float64 {
	switch len(claims) {
	case 0:
		return 0.5
	case 1:
		return 1
	}
	sets := make([]map[string]struct{}, len(claims))
	for i, c := range claims {
		sets[i] = Tokenize(c)
	}
	sims := make([]float64, 0, len(claims)*(len(claims)-1)/2)
	for i := 0; i < len(sets); i++ {
		for j := i + 1; j < len(sets); j++ {
			sims = append(sims, Jaccard(sets[i], sets[j]))
		}
	}
	return utils.Mean(sims)
}
