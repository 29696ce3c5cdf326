package domain

// FoodCandidate is a record returned by the external food search API.
// Read-only within this engine.
type FoodCandidate struct {
	FdcID       int            `json:"fdcId"`
	Description string         `json:"description"`
	DataType    string         `json:"dataType"`
	Nutrients   []FoodNutrient `json:"foodNutrients"`
}

// FoodNutrient is a single per-100-unit nutrient value on a candidate.
type FoodNutrient struct {
	NutrientID   int     `json:"nutrientId"`
	NutrientName string  `json:"nutrientName,omitempty"`
	UnitName     string  `json:"unitName,omitempty"`
	Value        float64 `json:"value"`
}

// SearchResponse is the envelope returned by the food search API.
type SearchResponse struct {
	Foods     []FoodCandidate `json:"foods"`
	TotalHits int             `json:"totalHits"`
}

// MacroProfile holds the four macros per 100 g (or 100 mL for beverages).
type MacroProfile struct {
	Energy  float64 `json:"energy"` // kcal
	Protein float64 `json:"protein"`
	Carb    float64 `json:"carb"`
	Fat     float64 `json:"fat"`
}

// IsZero reports whether the profile carries no nutrition at all.
func (p MacroProfile) IsZero() bool {
	return p.Energy == 0 && p.Protein == 0 && p.Carb == 0 && p.Fat == 0
}

// MatchSource is the closed set of grounding outcomes. A fallback or
// ambiguous item always carries a zero MacroProfile; the type makes it
// impossible to mistake those zeros for a trusted match.
type MatchSource string

const (
	MatchMatched   MatchSource = "matched"
	MatchFallback  MatchSource = "fallback"
	MatchAmbiguous MatchSource = "ambiguous"
)

// CandidateScore is one entry of the explainability trail.
type CandidateScore struct {
	FdcID       int     `json:"fdcId"`
	Description string  `json:"description"`
	Score       float64 `json:"score"`
}

// GroundedItem is the matcher's verdict for one ingredient. Immutable once
// created. An ambiguous item carries its top candidates so the caller can
// ask for clarification instead of guessing.
type GroundedItem struct {
	Name           string           `json:"name"`
	NormalizedName string           `json:"normalizedName"`
	FdcID          int              `json:"fdcId,omitempty"`
	Source         MatchSource      `json:"source"`
	Per100         MacroProfile     `json:"per100"`
	TopCandidates  []CandidateScore `json:"topCandidates,omitempty"`
}

// ScaledItem is a GroundedItem scaled to a resolved gram weight. Derived
// deterministically as per100 * grams/100; lives for one calculation pass.
type ScaledItem struct {
	Name    string      `json:"name"`
	Grams   float64     `json:"grams"`
	Energy  float64     `json:"energy"`
	Protein float64     `json:"protein"`
	Carb    float64     `json:"carb"`
	Fat     float64     `json:"fat"`
	Source  MatchSource `json:"source"`
	FdcID   int         `json:"fdcId,omitempty"`
}

// Totals aggregates a list of scaled items. The float fields carry full
// precision; the display fields are rounded once at this boundary.
type Totals struct {
	Energy  float64 `json:"energy"`
	Protein float64 `json:"protein"`
	Carb    float64 `json:"carb"`
	Fat     float64 `json:"fat"`

	EnergyDisplay  int `json:"energyDisplay"`
	ProteinDisplay int `json:"proteinDisplay"`
	CarbDisplay    int `json:"carbDisplay"`
	FatDisplay     int `json:"fatDisplay"`

	ItemCount      int `json:"itemCount"`
	MatchedCount   int `json:"matchedCount"`
	FallbackCount  int `json:"fallbackCount"`
	AmbiguousCount int `json:"ambiguousCount"`
}

// Attribution links a result item back to its food database record.
type Attribution struct {
	Name  string `json:"name"`
	FdcID int    `json:"fdcId"`
}

// Explanation records the scored shortlist a match was picked from.
type Explanation struct {
	Name          string           `json:"name"`
	TopCandidates []CandidateScore `json:"topCandidates,omitempty"`
	SelectedFdcID int              `json:"selectedFdcId,omitempty"`
}

// PortionMetrics counts how many ingredients each trust tier resolved.
// Observability only; never consulted for correctness.
type PortionMetrics struct {
	Explicit          int `json:"explicit"`
	BrandSize         int `json:"brandSize"`
	CategoryHeuristic int `json:"categoryHeuristic"`
	Unresolved        int `json:"unresolved"`
}

// Total returns the number of ingredients the resolver saw.
func (m PortionMetrics) Total() int {
	return m.Explicit + m.BrandSize + m.CategoryHeuristic + m.Unresolved
}

// HeuristicRate is the fraction of ingredients resolved by the category
// heuristic tier. A high rate means the higher-trust tiers under-cover
// real traffic.
func (m PortionMetrics) HeuristicRate() float64 {
	total := m.Total()
	if total == 0 {
		return 0
	}
	return float64(m.CategoryHeuristic) / float64(total)
}

// GroundingResult is the single payload returned for a batch of ingredients.
type GroundingResult struct {
	Items          []ScaledItem     `json:"items"`
	Totals         Totals           `json:"totals"`
	Attribution    []Attribution    `json:"attribution"`
	Explainability []Explanation    `json:"explainability"`
	Validation     ValidationReport `json:"validation"`
	PortionMetrics PortionMetrics   `json:"portionMetrics"`
}
