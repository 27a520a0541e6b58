package proposal

import "strings"

// Dissimilarity computes Δ(old, new) ∈ [0,1] as the Jaccard distance
// between the two bodies' content token sets (§4.3 "Dissimilarity
// measure Δ"). Δ(x,x)=0, Δ(x,y)=1 iff x and y share no content tokens,
// deterministic and symmetric. (A changed_tokens / max(len(old),
// len(new)) ratio needs a rule for aligning token positions between
// bodies of different lengths; Jaccard distance needs none and satisfies
// the stated contract, see DESIGN.md.)
func Dissimilarity(oldBody, newBody Body) float64 {
	oldTokens := tokenSet(oldBody)
	newTokens := tokenSet(newBody)

	if len(oldTokens) == 0 && len(newTokens) == 0 {
		return 0
	}

	shared := 0
	for tok := range oldTokens {
		if newTokens[tok] {
			shared++
		}
	}
	unionSize := len(oldTokens) + len(newTokens) - shared
	if unionSize == 0 {
		return 0
	}
	return float64(unionSize-shared) / float64(unionSize)
}

func tokenSet(b Body) map[string]bool {
	fields := []string{b.Title, b.Action, b.Rationale, b.Impact, b.Risk, b.Notes}
	fields = append(fields, b.Refs...)
	set := make(map[string]bool)
	for _, f := range fields {
		for _, tok := range strings.Fields(f) {
			set[strings.ToLower(tok)] = true
		}
	}
	return set
}

// RevisionCost computes round(ProposalSelfStake × Δ) (§4.3 revise).
func RevisionCost(selfStake int64, delta float64) int64 {
	return int64(float64(selfStake)*delta + 0.5)
}
