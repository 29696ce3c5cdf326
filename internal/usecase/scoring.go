package usecase

import (
	"math"
	"sort"
	"strings"
)

// Scoring weights. The BM25-like overlap dominates; sequence similarity is
// a secondary signal on top of which token penalties and the data-source
// bonus are applied.
const (
	overlapWeight      = 0.75
	sequenceWeight     = 0.25
	missingTokenWeight = 0.25
	extraTokenWeight   = 0.15
	bm25K1             = 1.2
	minCandidateCorpus = 2 // IDF floor so 1-candidate sets degenerate to pure coverage
)

// dataTypeBonus prefers curated composition data over branded/user-submitted.
var dataTypeBonus = map[string]float64{
	"Survey (FNDDS)": 0.06,
	"SR Legacy":      0.05,
	"Foundation":     0.05,
	"Branded":        0.02,
}

// inBatchIDF weights tokens by how rare they are within this result set.
// No external corpus: whatever token is common among the candidates gets
// downweighted, which is exactly what separates "Diet Cola" from "Cola"
// when every candidate says "cola".
type inBatchIDF struct {
	idf map[string]float64
	n   int
}

func newInBatchIDF(candidateTokens [][]string) *inBatchIDF {
	df := map[string]int{}
	for _, tokens := range candidateTokens {
		seen := map[string]bool{}
		for _, t := range tokens {
			if !seen[t] {
				df[t]++
				seen[t] = true
			}
		}
	}

	n := len(candidateTokens)
	if n < minCandidateCorpus {
		n = minCandidateCorpus
	}

	idf := make(map[string]float64, len(df))
	for t, f := range df {
		idf[t] = math.Log(1 + (float64(n)-float64(f)+0.5)/(float64(f)+0.5))
	}
	return &inBatchIDF{idf: idf, n: n}
}

// weight returns the IDF of a token; tokens never seen in the batch get the
// maximum possible rarity weight for this batch size.
func (w *inBatchIDF) weight(token string) float64 {
	if v, ok := w.idf[token]; ok {
		return v
	}
	return math.Log(1 + (float64(w.n)+0.5)/0.5)
}

func (w *inBatchIDF) sum(tokens []string) float64 {
	total := 0.0
	seen := map[string]bool{}
	for _, t := range tokens {
		if !seen[t] {
			total += w.weight(t)
			seen[t] = true
		}
	}
	return total
}

// scoreCandidate computes the composite match score for one candidate
// description against the query. All components live in roughly [0, 1];
// callers compare scores only within one candidate set.
func scoreCandidate(queryTokens, descTokens []string, idf *inBatchIDF, dataType string) float64 {
	if len(queryTokens) == 0 || len(descTokens) == 0 {
		return 0
	}

	descSet := tokenSet(descTokens)
	querySet := tokenSet(queryTokens)

	// BM25-like: IDF-weighted saturated coverage of query tokens. Tokens
	// are walked in slice order, never map order, so repeated calls produce
	// bit-identical scores.
	denominator := idf.sum(queryTokens)
	matched := 0.0
	counted := map[string]bool{}
	for _, t := range queryTokens {
		if counted[t] {
			continue
		}
		counted[t] = true
		if descSet[t] {
			tf := 1.0
			matched += idf.weight(t) * (tf * (bm25K1 + 1)) / (tf + bm25K1)
		}
	}
	overlap := 0.0
	if denominator > 0 {
		// The saturation factor is constant at tf=1; normalize it back out.
		overlap = matched / (denominator * (bm25K1 + 1) / (1 + bm25K1))
	}

	// Sequence similarity as a secondary factor, on the joined token strings.
	seqSim := sequenceSimilarity(strings.Join(queryTokens, " "), strings.Join(descTokens, " "))

	// IDF-weighted penalties for tokens one side has and the other lacks.
	missing := 0.0
	counted = map[string]bool{}
	for _, t := range queryTokens {
		if counted[t] {
			continue
		}
		counted[t] = true
		if !descSet[t] {
			missing += idf.weight(t)
		}
	}
	missingPenalty := 0.0
	if denominator > 0 {
		missingPenalty = missingTokenWeight * missing / denominator
	}

	extra := 0.0
	descIDFSum := idf.sum(descTokens)
	counted = map[string]bool{}
	for _, t := range descTokens {
		if counted[t] {
			continue
		}
		counted[t] = true
		if !querySet[t] {
			extra += idf.weight(t)
		}
	}
	extraPenalty := 0.0
	if descIDFSum > 0 {
		extraPenalty = extraTokenWeight * extra / descIDFSum
	}

	score := overlapWeight*overlap + sequenceWeight*seqSim - missingPenalty - extraPenalty
	score += dataTypeBonus[dataType]

	return score
}

// sequenceSimilarity is a normalized edit-distance ratio in [0, 1].
func sequenceSimilarity(s1, s2 string) float64 {
	if s1 == s2 {
		return 1
	}
	maxLen := len(s1)
	if len(s2) > maxLen {
		maxLen = len(s2)
	}
	if maxLen == 0 {
		return 1
	}
	return 1 - float64(levenshteinDistance(s1, s2))/float64(maxLen)
}

// levenshteinDistance calculates the edit distance between two strings
// using two rows instead of the full matrix.
func levenshteinDistance(s1, s2 string) int {
	if len(s1) == 0 {
		return len(s2)
	}
	if len(s2) == 0 {
		return len(s1)
	}

	r1 := []rune(s1)
	r2 := []rune(s2)
	m := len(r1)
	n := len(r2)

	prev := make([]int, n+1)
	curr := make([]int, n+1)
	for j := 0; j <= n; j++ {
		prev[j] = j
	}

	for i := 1; i <= m; i++ {
		curr[0] = i
		for j := 1; j <= n; j++ {
			cost := 0
			if r1[i-1] != r2[j-1] {
				cost = 1
			}
			curr[j] = min(
				prev[j]+1,      // deletion
				curr[j-1]+1,    // insertion
				prev[j-1]+cost, // substitution
			)
		}
		prev, curr = curr, prev
	}

	return prev[n]
}

func tokenSet(tokens []string) map[string]bool {
	set := make(map[string]bool, len(tokens))
	for _, t := range tokens {
		set[t] = true
	}
	return set
}

// scoredCandidate pairs a candidate index with its score for sorting.
type scoredCandidate struct {
	index int
	score float64
}

func sortByScore(scored []scoredCandidate) {
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].score > scored[j].score
	})
}
