package fdc

import "github.com/nutriground/backend/internal/domain"

// Nutrient IDs for the macros this engine cares about.
const (
	NutrientIDEnergy       = 1008 // kcal
	NutrientIDProtein      = 1003 // g
	NutrientIDCarbohydrate = 1005 // g
	NutrientIDTotalFat     = 1004 // g
	NutrientIDSodium       = 1093 // mg
)

// MapPer100 extracts the per-100-unit macro profile from a candidate.
// A candidate with missing nutrient fields maps to a zero profile; it is
// the caller's job to exclude such candidates, not this function's to fail.
func MapPer100(candidate *domain.FoodCandidate) domain.MacroProfile {
	var profile domain.MacroProfile

	for _, nutrient := range candidate.Nutrients {
		switch nutrient.NutrientID {
		case NutrientIDEnergy:
			profile.Energy = nutrient.Value
		case NutrientIDProtein:
			profile.Protein = nutrient.Value
		case NutrientIDCarbohydrate:
			profile.Carb = nutrient.Value
		case NutrientIDTotalFat:
			profile.Fat = nutrient.Value
		}
	}

	// Some records omit energy but carry macros; backfill with 4/4/9.
	if profile.Energy == 0 && (profile.Protein > 0 || profile.Carb > 0 || profile.Fat > 0) {
		profile.Energy = 4*profile.Protein + 4*profile.Carb + 9*profile.Fat
	}

	return profile
}

// SodiumPer100 returns the sodium value in mg, or 0 when absent.
func SodiumPer100(candidate *domain.FoodCandidate) float64 {
	for _, nutrient := range candidate.Nutrients {
		if nutrient.NutrientID == NutrientIDSodium {
			return nutrient.Value
		}
	}
	return 0
}
