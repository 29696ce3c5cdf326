package usecase

import (
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"

	"github.com/nutriground/backend/internal/domain"
)

// 4/4/9 macro-energy check.
const (
	macroEnergyTolerance = 0.10
	proteinKcalPerGram   = 4.0
	carbKcalPerGram      = 4.0
	fatKcalPerGram       = 9.0
)

// Confidence composition. Base minus bounded penalties, clamped to the
// domain band.
const (
	confidenceBase          = 0.8
	fallbackPenaltyCap      = 0.3
	fallbackPenaltyScale    = 0.5
	macroFailPenalty        = 0.1
	portionPenaltyCap       = 0.2
	portionPenaltyPerWarn   = 0.05
	highSeverityPenalty     = 0.05
	comboPenaltyCap         = 0.3
	comboPenaltyPerWarn     = 0.04
	universalMaxGrams       = 1000.0
	highSeverityBoundFactor = 2.0
)

// portionBound caps a single ingredient's plausible weight. Matched by
// substring against the item name; first match wins.
type portionBound struct {
	keyword  string
	maxGrams float64
	category string
}

// portionBounds is keyword-ordered: specific fats first, then seasonings,
// then the generous carb-base caps.
var portionBounds = []portionBound{
	{"olive oil", 30, "fat"},
	{"coconut oil", 30, "fat"},
	{"avocado oil", 30, "fat"},
	{"oil", 30, "fat"},
	{"butter", 30, "fat"},
	{"ghee", 30, "fat"},

	{"garlic powder", 20, "spice"},
	{"onion powder", 20, "spice"},
	{"chili powder", 20, "spice"},
	{"soy sauce", 20, "condiment"},
	{"lemon juice", 20, "condiment"},
	{"lime juice", 20, "condiment"},
	{"salt", 20, "condiment"},
	{"pepper", 20, "spice"},
	{"cumin", 20, "spice"},
	{"turmeric", 20, "spice"},
	{"paprika", 20, "spice"},
	{"oregano", 20, "spice"},
	{"basil", 20, "spice"},
	{"thyme", 20, "spice"},
	{"rosemary", 20, "spice"},
	{"cayenne", 20, "spice"},
	{"cinnamon", 20, "spice"},
	{"nutmeg", 20, "spice"},
	{"vinegar", 20, "condiment"},

	{"rice", 500, "carb_base"},
	{"pasta", 500, "carb_base"},
	{"bread", 500, "carb_base"},
	{"quinoa", 500, "carb_base"},
	{"oats", 500, "carb_base"},
	{"noodles", 500, "carb_base"},
	{"couscous", 500, "carb_base"},
	{"barley", 500, "carb_base"},
}

// Combo sanity thresholds, all per 100 g (or 100 mL after density
// normalization for beverages).
const (
	dietKcalPer100mlMax   = 10.0
	leafyProteinPer100Max = 5.0
	leanFatPer100Max      = 10.0
	skimFatPer100Max      = 1.0
	waterKcalMax          = 1.0 // absolute, per item
)

// energyDensityBand is the plausible kcal/100g window for a dish category.
type energyDensityBand struct {
	min float64
	max float64
}

var energyDensityBands = map[string]energyDensityBand{
	"rice_mixed_main": {120, 260},
	"yogurt_side":     {40, 150},
	"curry":           {80, 250},
	"salad":           {20, 180},
}

var leafyGreens = []string{"spinach", "lettuce", "kale", "arugula", "chard", "watercress", "leafy greens"}

var leanProteins = []string{"chicken breast", "turkey breast", "egg white", "tilapia", "cod", "shrimp", "tuna"}

// Validator runs the plausibility layer over a scaled meal and folds the
// findings into one confidence score. It only ever reads the scaled items;
// warnings never mutate the numbers they describe.
type Validator struct {
	normalizer *Normalizer
	logger     *zap.Logger
}

func NewValidator(normalizer *Normalizer, logger *zap.Logger) *Validator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Validator{normalizer: normalizer, logger: logger}
}

// Validate runs every check and computes confidence.
func (v *Validator) Validate(items []domain.ScaledItem, totals domain.Totals) domain.ValidationReport {
	report := domain.ValidationReport{
		MacroEnergy:     ValidateMacroEnergy(totals),
		PortionWarnings: v.validatePortionBounds(items),
	}
	report.ComboSanityWarnings = append(v.validateComboSanity(items), v.validateEnergyDensity(items)...)
	report.Confidence = v.computeConfidence(items, report)

	if len(report.PortionWarnings)+len(report.ComboSanityWarnings) > 0 {
		v.logger.Info("validation produced warnings",
			zap.Int("portionWarnings", len(report.PortionWarnings)),
			zap.Int("comboSanityWarnings", len(report.ComboSanityWarnings)),
			zap.Float64("confidence", report.Confidence))
	}
	return report
}

// ValidateMacroEnergy checks reported calories against 4p + 4c + 9f.
// Zero expected with zero actual passes (all-fallback meals report
// nothing, which is honest); zero expected with nonzero actual fails hard.
func ValidateMacroEnergy(totals domain.Totals) domain.MacroEnergyCheck {
	expected := proteinKcalPerGram*totals.Protein + carbKcalPerGram*totals.Carb + fatKcalPerGram*totals.Fat
	check := domain.MacroEnergyCheck{
		Expected:  expected,
		Actual:    totals.Energy,
		Tolerance: macroEnergyTolerance,
	}
	if expected == 0 {
		if totals.Energy == 0 {
			check.OK = true
			return check
		}
		check.DeltaPct = 1.0
		return check
	}
	check.DeltaPct = math.Abs(totals.Energy-expected) / expected
	check.OK = check.DeltaPct <= macroEnergyTolerance
	return check
}

// validatePortionBounds flags implausibly heavy single ingredients. Only
// the first matching keyword bound applies; the universal 1 kg cap applies
// to everything.
func (v *Validator) validatePortionBounds(items []domain.ScaledItem) []domain.Warning {
	var warnings []domain.Warning
	for _, item := range items {
		nameLower := strings.ToLower(strings.TrimSpace(item.Name))

		for _, bound := range portionBounds {
			if !strings.Contains(nameLower, bound.keyword) {
				continue
			}
			if item.Grams > bound.maxGrams {
				severity := domain.SeverityMedium
				if item.Grams > bound.maxGrams*highSeverityBoundFactor {
					severity = domain.SeverityHigh
				}
				warnings = append(warnings, domain.Warning{
					ItemName:    item.Name,
					Category:    bound.category,
					Severity:    severity,
					ActualGrams: item.Grams,
					ExpectedMax: bound.maxGrams,
					Message: fmt.Sprintf("%s (%.0fg) exceeds typical %s portion (max ~%.0fg)",
						item.Name, item.Grams, bound.category, bound.maxGrams),
				})
			}
			break
		}

		if item.Grams > universalMaxGrams {
			warnings = append(warnings, domain.Warning{
				ItemName:    item.Name,
				Category:    "general",
				Severity:    domain.SeverityHigh,
				ActualGrams: item.Grams,
				ExpectedMax: universalMaxGrams,
				Message: fmt.Sprintf("%s (%.0fg) is unusually large for a single ingredient",
					item.Name, item.Grams),
			})
		}
	}
	return warnings
}

// validateComboSanity checks each item's nutrition against what its own
// name claims to be. Beverage calories are normalized per 100 mL through
// the density table before comparison.
func (v *Validator) validateComboSanity(items []domain.ScaledItem) []domain.Warning {
	var warnings []domain.Warning
	for _, item := range items {
		nameLower := strings.ToLower(item.Name)
		if item.Grams <= 0 {
			continue
		}

		switch {
		case containsAny(nameLower, "diet", "zero", "sugar-free", "sugar free"):
			density, densitySource := densityWithSource(nameLower)
			ml := item.Grams / density
			kcalPer100ml := item.Energy / ml * 100
			if kcalPer100ml > dietKcalPer100mlMax {
				warnings = append(warnings, domain.Warning{
					ItemName:      item.Name,
					Category:      "diet_beverage_kcal",
					Severity:      domain.SeverityHigh,
					DensitySource: densitySource,
					Message: fmt.Sprintf("%s reports %.0f kcal per 100mL; diet beverages should be near zero",
						item.Name, kcalPer100ml),
				})
			}

		case nameLower == "water" || strings.HasPrefix(nameLower, "water ") ||
			strings.HasSuffix(nameLower, " water") || strings.Contains(nameLower, "sparkling water"):
			if item.Energy > waterKcalMax {
				warnings = append(warnings, domain.Warning{
					ItemName: item.Name,
					Category: "water_kcal",
					Severity: domain.SeverityHigh,
					Message:  fmt.Sprintf("%s reports %.0f kcal; water has none", item.Name, item.Energy),
				})
			}

		case strings.Contains(nameLower, "skim") || strings.Contains(nameLower, "nonfat"):
			if per100(item.Fat, item.Grams) > skimFatPer100Max {
				warnings = append(warnings, domain.Warning{
					ItemName: item.Name,
					Category: "skim_milk_fat",
					Severity: domain.SeverityHigh,
					Message: fmt.Sprintf("%s reports %.1fg fat per 100g; skim products carry almost none",
						item.Name, per100(item.Fat, item.Grams)),
				})
			}

		case containsAny(nameLower, leafyGreens...):
			if per100(item.Protein, item.Grams) > leafyProteinPer100Max {
				warnings = append(warnings, domain.Warning{
					ItemName: item.Name,
					Category: "leafy_protein",
					Severity: domain.SeverityHigh,
					Message: fmt.Sprintf("%s reports %.1fg protein per 100g; leafy greens carry far less",
						item.Name, per100(item.Protein, item.Grams)),
				})
			}

		case strings.Contains(nameLower, "lean") || containsAny(nameLower, leanProteins...):
			if per100(item.Fat, item.Grams) > leanFatPer100Max {
				warnings = append(warnings, domain.Warning{
					ItemName: item.Name,
					Category: "lean_protein_fat",
					Severity: domain.SeverityHigh,
					Message: fmt.Sprintf("%s reports %.1fg fat per 100g; implausible for a lean protein",
						item.Name, per100(item.Fat, item.Grams)),
				})
			}
		}
	}
	return warnings
}

// validateEnergyDensity checks items whose category has a known kcal/100g
// band. Out-of-band items get a medium warning; the band is wide enough
// that a violation usually means a wrong match, not an unusual recipe.
func (v *Validator) validateEnergyDensity(items []domain.ScaledItem) []domain.Warning {
	var warnings []domain.Warning
	for _, item := range items {
		if item.Grams <= 0 || item.Source != domain.MatchMatched {
			continue
		}
		category := v.normalizer.Categorize(item.Name)
		band, ok := energyDensityBands[category]
		if !ok {
			continue
		}
		kcalPer100 := per100(item.Energy, item.Grams)
		if kcalPer100 < band.min || kcalPer100 > band.max {
			warnings = append(warnings, domain.Warning{
				ItemName: item.Name,
				Category: "energy_density_band",
				Severity: domain.SeverityMedium,
				Message: fmt.Sprintf("%s reports %.0f kcal per 100g, outside the %.0f-%.0f band for %s",
					item.Name, kcalPer100, band.min, band.max, category),
			})
		}
	}
	return warnings
}

// computeConfidence folds all findings into a single score: base minus
// bounded penalties. Each penalty class is capped so no single failure
// mode dominates.
func (v *Validator) computeConfidence(items []domain.ScaledItem, report domain.ValidationReport) float64 {
	confidence := confidenceBase

	if len(items) > 0 {
		// Only true fallbacks count here. Ambiguous items already surface
		// their shortlist for clarification; double-billing them as
		// fallbacks would punish honest abstention.
		fallback := 0
		for _, item := range items {
			if item.Source == domain.MatchFallback {
				fallback++
			}
		}
		ratio := float64(fallback) / float64(len(items))
		confidence -= math.Min(fallbackPenaltyCap, ratio*fallbackPenaltyScale)
	}

	if !report.MacroEnergy.OK {
		confidence -= macroFailPenalty
	}

	confidence -= math.Min(portionPenaltyCap, float64(len(report.PortionWarnings))*portionPenaltyPerWarn)
	for _, w := range report.PortionWarnings {
		if w.Severity == domain.SeverityHigh {
			confidence -= highSeverityPenalty
		}
	}

	confidence -= math.Min(comboPenaltyCap, float64(len(report.ComboSanityWarnings))*comboPenaltyPerWarn)

	return math.Max(domain.ConfidenceFloor, math.Min(domain.ConfidenceCeiling, confidence))
}

// densityWithSource is densityFor plus whether the table or the default
// supplied the value, for warning attribution.
func densityWithSource(nameLower string) (float64, string) {
	for keyword, density := range beverageDensity {
		if strings.Contains(nameLower, keyword) {
			return density, keyword
		}
	}
	return defaultDensity, "default"
}

func per100(value, grams float64) float64 {
	if grams <= 0 {
		return 0
	}
	return value / grams * 100
}
