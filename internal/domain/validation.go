package domain

// Confidence is clamped to this band: never certain, never total failure.
const (
	ConfidenceFloor   = 0.1
	ConfidenceCeiling = 0.95
)

// Warning severities.
const (
	SeverityMedium = "medium"
	SeverityHigh   = "high"
)

// MacroEnergyCheck is the result of the 4/4/9 consistency check.
type MacroEnergyCheck struct {
	OK        bool    `json:"ok"`
	DeltaPct  float64 `json:"deltaPct"`
	Expected  float64 `json:"expected"`
	Actual    float64 `json:"actual"`
	Tolerance float64 `json:"tolerance"`
}

// Warning is a structured plausibility finding. Category names a rule
// ("diet_beverage_kcal", "carb_base", ...), never free text.
type Warning struct {
	ItemName      string  `json:"itemName"`
	Category      string  `json:"category"`
	Severity      string  `json:"severity"`
	Message       string  `json:"message"`
	ActualGrams   float64 `json:"actualGrams,omitempty"`
	ExpectedMax   float64 `json:"expectedMax,omitempty"`
	DensitySource string  `json:"densitySource,omitempty"`
}

// ValidationReport is recomputed on every pass, never persisted as state.
type ValidationReport struct {
	MacroEnergy         MacroEnergyCheck `json:"macroEnergyCheck"`
	PortionWarnings     []Warning        `json:"portionWarnings"`
	ComboSanityWarnings []Warning        `json:"comboSanityWarnings"`
	Confidence          float64          `json:"confidence"`
}
