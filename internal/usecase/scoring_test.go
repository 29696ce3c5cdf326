package usecase

import (
	"math"
	"testing"
)

func TestInBatchIDF(t *testing.T) {
	idf := newInBatchIDF([][]string{
		{"cola", "regular"},
		{"cola", "diet"},
		{"cola", "cherry"},
	})

	t.Run("common tokens weigh less than rare ones", func(t *testing.T) {
		if idf.weight("cola") >= idf.weight("diet") {
			t.Errorf("weight(cola)=%v should be below weight(diet)=%v",
				idf.weight("cola"), idf.weight("diet"))
		}
	})

	t.Run("unseen token gets maximum rarity", func(t *testing.T) {
		if idf.weight("quinoa") <= idf.weight("diet") {
			t.Errorf("unseen weight %v should exceed in-batch rare weight %v",
				idf.weight("quinoa"), idf.weight("diet"))
		}
	})

	t.Run("unseen rarity tracks batch size", func(t *testing.T) {
		// An unseen token in a large batch is rarer than a seen-once token
		// there; a fixed small-corpus weight would invert that.
		big := make([][]string, 25)
		for i := range big {
			big[i] = []string{"cola"}
		}
		big[0] = []string{"cola", "diet"}
		bigIDF := newInBatchIDF(big)
		if bigIDF.weight("quinoa") <= bigIDF.weight("diet") {
			t.Errorf("unseen weight %v should exceed seen-once weight %v in a 25-candidate batch",
				bigIDF.weight("quinoa"), bigIDF.weight("diet"))
		}
		want := math.Log(1 + 25.5/0.5)
		if math.Abs(bigIDF.weight("quinoa")-want) > 1e-12 {
			t.Errorf("unseen weight = %v, want %v", bigIDF.weight("quinoa"), want)
		}
	})

	t.Run("sum deduplicates tokens", func(t *testing.T) {
		single := idf.sum([]string{"cola"})
		doubled := idf.sum([]string{"cola", "cola"})
		if math.Abs(single-doubled) > 1e-9 {
			t.Errorf("sum with duplicate = %v, want %v", doubled, single)
		}
	})
}

func TestInBatchIDF_SingleCandidateFloor(t *testing.T) {
	// One candidate would give df == N and collapse every weight to a
	// constant; the corpus floor keeps the weights positive and ordered.
	idf := newInBatchIDF([][]string{{"cola", "diet"}})
	if idf.weight("cola") <= 0 {
		t.Errorf("weight = %v, want positive with corpus floor", idf.weight("cola"))
	}
}

func TestScoreCandidate(t *testing.T) {
	batch := [][]string{
		{"cola", "regular"},
		{"cola", "diet"},
	}
	idf := newInBatchIDF(batch)
	query := []string{"diet", "cola"}

	t.Run("full coverage outscores partial", func(t *testing.T) {
		full := scoreCandidate(query, batch[1], idf, "Branded")
		partial := scoreCandidate(query, batch[0], idf, "Branded")
		if full <= partial {
			t.Errorf("full coverage %v should outscore partial %v", full, partial)
		}
	})

	t.Run("missing rare token costs more than missing common one", func(t *testing.T) {
		// "diet" is rarer in-batch than "cola"; a candidate missing it
		// drops further.
		missingRare := scoreCandidate(query, []string{"cola"}, idf, "")
		missingCommon := scoreCandidate(query, []string{"diet"}, idf, "")
		if missingRare >= missingCommon {
			t.Errorf("missing rare %v should score below missing common %v", missingRare, missingCommon)
		}
	})

	t.Run("extra tokens penalized", func(t *testing.T) {
		exact := scoreCandidate(query, []string{"diet", "cola"}, idf, "")
		noisy := scoreCandidate(query, []string{"diet", "cola", "cherry", "vanilla", "bottled"}, idf, "")
		if noisy >= exact {
			t.Errorf("noisy %v should score below exact %v", noisy, exact)
		}
	})

	t.Run("curated data type outranks branded on equal text", func(t *testing.T) {
		branded := scoreCandidate(query, batch[1], idf, "Branded")
		survey := scoreCandidate(query, batch[1], idf, "Survey (FNDDS)")
		if survey <= branded {
			t.Errorf("survey %v should outscore branded %v", survey, branded)
		}
	})

	t.Run("repeated calls are bit-identical", func(t *testing.T) {
		// Token accumulation must not depend on map iteration order: a
		// persisted score trail has to be reproducible bit for bit.
		longQuery := []string{
			"grilled", "chicken", "breast", "skinless", "boneless", "seasoned",
			"with", "lemon", "pepper", "garlic", "herbs", "olive", "oil",
			"roasted", "vegetables", "brown", "rice", "pilaf",
		}
		desc := []string{"chicken", "breast", "grilled", "skinless", "rice", "seasoned", "garlic"}
		bigBatch := [][]string{
			desc,
			{"chicken", "thigh", "roasted"},
			{"rice", "brown", "cooked"},
			{"vegetables", "mixed", "roasted", "oil"},
			{"lemon", "pepper", "seasoning"},
		}
		bigIDF := newInBatchIDF(bigBatch)

		first := scoreCandidate(longQuery, desc, bigIDF, "SR Legacy")
		for i := 0; i < 200; i++ {
			if got := scoreCandidate(longQuery, desc, bigIDF, "SR Legacy"); got != first {
				t.Fatalf("call %d = %v, want bit-identical %v", i, got, first)
			}
		}
	})

	t.Run("empty inputs score zero", func(t *testing.T) {
		if got := scoreCandidate(nil, batch[0], idf, ""); got != 0 {
			t.Errorf("got %v, want 0", got)
		}
		if got := scoreCandidate(query, nil, idf, ""); got != 0 {
			t.Errorf("got %v, want 0", got)
		}
	})
}

func TestSequenceSimilarity(t *testing.T) {
	if got := sequenceSimilarity("cola", "cola"); got != 1 {
		t.Errorf("identical strings = %v, want 1", got)
	}
	if got := sequenceSimilarity("", ""); got != 1 {
		t.Errorf("empty strings = %v, want 1", got)
	}
	got := sequenceSimilarity("diet cola", "diet cherry cola")
	if got <= 0 || got >= 1 {
		t.Errorf("partial similarity = %v, want in (0, 1)", got)
	}
}

func TestLevenshteinDistance(t *testing.T) {
	tests := []struct {
		s1, s2 string
		want   int
	}{
		{"", "", 0},
		{"abc", "", 3},
		{"", "abc", 3},
		{"kitten", "sitting", 3},
		{"cola", "cola", 0},
		{"cola", "colas", 1},
	}
	for _, tt := range tests {
		if got := levenshteinDistance(tt.s1, tt.s2); got != tt.want {
			t.Errorf("levenshteinDistance(%q, %q) = %d, want %d", tt.s1, tt.s2, got, tt.want)
		}
	}
}

func TestSortByScore(t *testing.T) {
	scored := []scoredCandidate{
		{index: 0, score: 0.2},
		{index: 1, score: 0.9},
		{index: 2, score: 0.5},
	}
	sortByScore(scored)
	if scored[0].index != 1 || scored[1].index != 2 || scored[2].index != 0 {
		t.Errorf("sort order = %v, want descending by score", scored)
	}
}
