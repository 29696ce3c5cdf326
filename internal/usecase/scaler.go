package usecase

import (
	"math"

	"github.com/nutriground/backend/internal/domain"
)

// Scale converts a grounded item's per-100 profile to an absolute portion.
// Fallback and ambiguous items scale to zero macros: their per-100 profile
// is zero by construction, and inventing numbers for them would poison the
// totals silently.
func Scale(item domain.GroundedItem, grams float64) domain.ScaledItem {
	factor := grams / 100.0
	return domain.ScaledItem{
		Name:    item.Name,
		Grams:   grams,
		Energy:  round2(item.Per100.Energy * factor),
		Protein: round2(item.Per100.Protein * factor),
		Carb:    round2(item.Per100.Carb * factor),
		Fat:     round2(item.Per100.Fat * factor),
		Source:  item.Source,
		FdcID:   item.FdcID,
	}
}

// Aggregate sums scaled items into meal totals. Floats carry full precision
// through the sum; display values round once at the end so the rounding
// error never compounds.
func Aggregate(items []domain.ScaledItem) domain.Totals {
	var t domain.Totals
	for _, item := range items {
		t.Energy += item.Energy
		t.Protein += item.Protein
		t.Carb += item.Carb
		t.Fat += item.Fat

		t.ItemCount++
		switch item.Source {
		case domain.MatchMatched:
			t.MatchedCount++
		case domain.MatchAmbiguous:
			t.AmbiguousCount++
		default:
			t.FallbackCount++
		}
	}
	t.EnergyDisplay = int(math.RoundToEven(t.Energy))
	t.ProteinDisplay = int(math.RoundToEven(t.Protein))
	t.CarbDisplay = int(math.RoundToEven(t.Carb))
	t.FatDisplay = int(math.RoundToEven(t.Fat))
	return t
}

// round2 rounds to two decimals with banker's rounding so repeated
// aggregation over symmetric data stays unbiased.
func round2(v float64) float64 {
	return math.RoundToEven(v*100) / 100
}
