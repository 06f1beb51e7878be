package usecase

import (
	"math"
	"strings"
)

// CosineSimilarity returns the cosine of the angle between a and b. It is 0
// when either vector is empty, the dimensions differ or a magnitude is zero.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}

	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	if math.IsNaN(sim) || math.IsInf(sim, 0) {
		return 0
	}
	return sim
}

// JaccardSimilarity compares the word sets of a and b
func JaccardSimilarity(a, b string) float64 {
	sa, sb := tokenSet(a), tokenSet(b)
	if len(sa) == 0 && len(sb) == 0 {
		if strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b)) {
			return 1
		}
		return 0
	}

	inter := 0
	for tok := range sa {
		if _, ok := sb[tok]; ok {
			inter++
		}
	}
	union := len(sa) + len(sb) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

// contentSimilarity is the dedup measure: cosine when both sides carry
// non-zero embeddings of the same dimension, word-set Jaccard otherwise
func contentSimilarity(aText string, aVec []float32, bText string, bVec []float32) float64 {
	if len(aVec) > 0 && len(aVec) == len(bVec) && nonZero(aVec) && nonZero(bVec) {
		return CosineSimilarity(aVec, bVec)
	}
	return JaccardSimilarity(aText, bText)
}

func nonZero(v []float32) bool {
	for _, x := range v {
		if x != 0 {
			return true
		}
	}
	return false
}

func tokenSet(in string) map[string]struct{} {
	fields := strings.Fields(strings.ToLower(strings.TrimSpace(in)))
	out := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, ".,!?;:\"'()[]{}")
		if len(f) < 2 {
			continue
		}
		out[f] = struct{}{}
	}
	return out
}
