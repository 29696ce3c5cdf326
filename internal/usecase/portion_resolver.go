package usecase

import (
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/nutriground/backend/internal/domain"
	"github.com/nutriground/backend/internal/metrics"
)

// Portion trust tiers, highest first. The tier name doubles as the
// prometheus label value.
const (
	tierExplicit   = "explicit"
	tierBrandSize  = "brand_size"
	tierHeuristic  = "category_heuristic"
	tierUnresolved = "unresolved"
)

const (
	defaultPortionGrams = 100.0
	gramsPerOunce       = 29.5735
	gramsPerScoop       = 30.0
	mlPerTablespoon     = 15.0
	syrupDensity        = 1.4
	oilDensity          = 0.92
	heuristicRateAlert  = 0.20
)

// brandKey identifies a branded menu item, optionally with a size.
type brandKey struct {
	brand string
	item  string
	size  string
}

// brandSizePortions is the authored brand+size gram table. One-time
// authoring, heavily amortized across requests.
var brandSizePortions = map[brandKey]float64{
	{brand: "mcdonalds", item: "cheeseburger"}:   119,
	{brand: "mcdonalds", item: "hamburger"}:      100,
	{brand: "mcdonalds", item: "bigmac"}:         219,
	{brand: "mcdonalds", item: "quarterpounder"}: 198,
	{brand: "mcdonalds", item: "mcdouble"}:       170,

	{brand: "mcdonalds", item: "fries", size: "small"}:  71,
	{brand: "mcdonalds", item: "fries", size: "medium"}: 111,
	{brand: "mcdonalds", item: "fries", size: "large"}:  154,

	// Cola weights assume 1.04 g/mL.
	{brand: "mcdonalds", item: "cola", size: "small"}:  336,
	{brand: "mcdonalds", item: "cola", size: "medium"}: 567,
	{brand: "mcdonalds", item: "cola", size: "large"}:  851,

	{brand: "generic", item: "beverage", size: "small"}:  340, // ~12 oz
	{brand: "generic", item: "beverage", size: "medium"}: 475, // ~16 oz
	{brand: "generic", item: "beverage", size: "large"}:  680, // ~24 oz
}

// beverageDensity maps ingredient keywords to g/mL. Checked in order of
// specificity by substring match; "default" is water.
var beverageDensity = map[string]float64{
	"milk":   1.03,
	"almond": 1.01,
	"water":  1.0,
	"juice":  1.04,
	"soda":   1.04,
	"cola":   1.04,
}

const defaultDensity = 1.0

// containerKey identifies a (container, size, category) capacity entry.
type containerKey struct {
	container string
	size      string
	category  string
}

// containerCapacity holds base grams plus the clamp range for a container
// serving of each food category.
type containerCapacity struct {
	baseGrams float64
	clampMin  float64
	clampMax  float64
}

var containerCapacities = map[containerKey]containerCapacity{
	{"plate", "small", "rice_mixed_main"}:  {400, 300, 550},
	{"plate", "medium", "rice_mixed_main"}: {550, 400, 700},
	{"plate", "large", "rice_mixed_main"}:  {700, 550, 900},
	{"bowl", "small", "rice_mixed_main"}:   {300, 250, 450},
	{"bowl", "medium", "rice_mixed_main"}:  {450, 350, 600},
	{"bowl", "large", "rice_mixed_main"}:   {600, 450, 750},

	{"bowl", "small", "yogurt_side"}:   {80, 50, 120},
	{"bowl", "medium", "yogurt_side"}:  {120, 80, 180},
	{"side", "portion", "yogurt_side"}: {100, 60, 150},

	{"bowl", "small", "curry"}:  {250, 200, 350},
	{"bowl", "medium", "curry"}: {350, 300, 500},
	{"bowl", "large", "curry"}:  {500, 400, 650},

	{"plate", "small", "salad"}:  {150, 100, 250},
	{"plate", "medium", "salad"}: {250, 200, 350},
	{"plate", "large", "salad"}:  {350, 250, 500},
	{"bowl", "small", "salad"}:   {150, 100, 250},
	{"bowl", "medium", "salad"}:  {250, 200, 350},
	{"bowl", "large", "salad"}:   {350, 250, 500},
}

var fillLevelMultipliers = map[string]float64{
	"half":    0.6,
	"level":   1.0,
	"heaping": 1.2,
}

// categoryBound is a sanity clamp range for one food category.
type categoryBound struct {
	min float64
	max float64
}

// categoryBounds prevents outliers like 500 g of fries regardless of which
// tier produced the number.
var categoryBounds = map[string]categoryBound{
	"burger":        {80, 250},
	"fries":         {50, 200},
	"beverage":      {200, 1000},
	"sandwich":      {100, 350},
	"pizza_slice":   {80, 150},
	"rice":          {100, 300},
	"chicken_piece": {80, 250},
	"salad":         {150, 400},
}

// Label quantity extraction. kg/L take precedence over g/mL so "1.5kg"
// never half-parses as grams.
var (
	kgLabelRegex    = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*kg`)
	gramLabelRegex  = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*g(?:rams?)?(?:\s|$)`)
	literLabelRegex = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*l(?:iters?)?(?:\s|$)`)
	mlLabelRegex    = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*ml`)
	ozLabelRegex    = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(?:fl\s*)?oz`)
	scoopLabelRegex = regexp.MustCompile(`(\d+)\s*scoops?`)
	tbspLabelRegex  = regexp.MustCompile(`(\d+)\s*(?:tbsp|tablespoons?|tbs)`)
	floatGroupRegex = regexp.MustCompile(`\d+(?:\.\d+)?`)
)

// PortionResolver converts loosely specified ingredient sizes into
// deterministic gram amounts. It never consults the nutrition model:
// grams come from user statements, authored tables, or heuristics, in
// that order of trust.
type PortionResolver struct {
	normalizer *Normalizer
	logger     *zap.Logger
	metrics    *metrics.Metrics
}

func NewPortionResolver(normalizer *Normalizer, logger *zap.Logger, m *metrics.Metrics) *PortionResolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	if m == nil {
		m = metrics.NewNop()
	}
	return &PortionResolver{normalizer: normalizer, logger: logger, metrics: m}
}

// Resolve fills Amount on every ingredient and returns tier counts. The
// input slice is not mutated; resolved copies are returned. Every resolved
// amount, explicit ones included, passes through the category clamp.
func (r *PortionResolver) Resolve(items []domain.RawIngredient) ([]domain.RawIngredient, domain.PortionMetrics) {
	hasPowder := hasPowderSibling(items)

	out := make([]domain.RawIngredient, 0, len(items))
	var tiers domain.PortionMetrics

	for _, item := range items {
		resolved, tier := r.resolveOne(item, hasPowder)
		out = append(out, resolved)

		switch tier {
		case tierExplicit:
			tiers.Explicit++
		case tierBrandSize:
			tiers.BrandSize++
		case tierHeuristic:
			tiers.CategoryHeuristic++
		default:
			tiers.Unresolved++
		}
		r.metrics.PortionTier.WithLabelValues(tier).Inc()
	}

	if rate := tiers.HeuristicRate(); rate > heuristicRateAlert {
		r.logger.Warn("high category-heuristic portion rate",
			zap.Float64("rate", rate),
			zap.Int("total", tiers.Total()))
	}
	return out, tiers
}

func (r *PortionResolver) resolveOne(item domain.RawIngredient, hasPowder bool) (domain.RawIngredient, string) {
	name := item.Name
	label := strings.ToLower(item.PortionLabel)

	// Tier 1: explicit amount from an audited source. Still clamped; a
	// user typo should not blow up the meal total.
	if item.Amount > 0 && (item.Source == domain.SourceUser || item.Source == domain.SourceEstimator) {
		item.Amount = clampByCategory(name, item.Amount)
		item.Unit = "g"
		return item, tierExplicit
	}

	grams, tier := r.deterministicGrams(item, label, hasPowder)

	// Tier 3: category heuristics.
	if grams == 0 {
		if g := categoryHeuristicGrams(name, item.Notes, label); g > 0 {
			grams, tier = g, tierHeuristic
		}
	}

	// A leftover estimator amount on a non-audited path still beats the
	// blanket default, but only at heuristic trust.
	if grams == 0 && item.Amount > 0 {
		grams, tier = item.Amount, tierHeuristic
	}

	if grams == 0 {
		r.logger.Warn("portion unresolved, using default",
			zap.String("name", name),
			zap.Float64("grams", defaultPortionGrams))
		grams, tier = defaultPortionGrams, tierUnresolved
	}

	item.Amount = clampByCategory(name, grams)
	item.Unit = "g"
	item.Source = domain.SourceResolver
	return item, tier
}

// deterministicGrams tries every tier-2 ladder rung in trust order:
// brand+size tables, then unit quantities volunteered in the portion label,
// then container capacity. All count as brand-size trust.
func (r *PortionResolver) deterministicGrams(item domain.RawIngredient, label string, hasPowder bool) (float64, string) {
	name := item.Name

	if g := brandSizeLookup(name, item.Notes, label); g > 0 {
		return g, tierBrandSize
	}
	if g := gramsFromLabel(label); g > 0 {
		return g, tierBrandSize
	}
	if ml := millilitersFromLabel(label); ml > 0 {
		return ml * densityFor(name), tierBrandSize
	}
	if scoops := intFromLabel(scoopLabelRegex, label); scoops > 0 {
		return float64(scoops) * gramsPerScoop, tierBrandSize
	}
	if oz := floatFromLabel(ozLabelRegex, label); oz > 0 {
		// Shake base liquids lose 2 oz of headroom when a powder shares
		// the batch: the powder displaces liquid in the same container.
		if hasPowder && isShakeBase(name) && isSmoothieContext(item.Notes) && oz >= 12 {
			oz -= 2
		}
		return oz * gramsPerOunce * densityFor(name), tierBrandSize
	}
	if tbsp := intFromLabel(tbspLabelRegex, label); tbsp > 0 {
		return float64(tbsp) * mlPerTablespoon * tablespoonDensity(name), tierBrandSize
	}
	if g := r.containerCapacityGrams(item, label); g > 0 {
		return g, tierBrandSize
	}
	return 0, ""
}

// containerCapacityGrams resolves "large plate", "small bowl" style labels
// against the authored capacity tables. Requires a category from the
// normalizer; unknown categories fall through to heuristics.
func (r *PortionResolver) containerCapacityGrams(item domain.RawIngredient, label string) float64 {
	category := item.Category
	if category == "" {
		category = r.normalizer.Categorize(item.Name)
	}
	if category == "" {
		return 0
	}

	container := inferContainerType(label)
	if container == "" {
		return 0
	}
	_, size := extractBrandAndSize(item.Name, "", label)
	if size == "" {
		size = "medium"
	}
	if strings.Contains(label, "side") && strings.Contains(label, "portion") {
		container, size = "side", "portion"
	}

	capacity, ok := containerCapacities[containerKey{container, size, category}]
	if !ok {
		return 0
	}

	multiplier, ok := fillLevelMultipliers[fillLevelFromLabel(label)]
	if !ok {
		multiplier = 1.0
	}
	grams := capacity.baseGrams * multiplier
	if grams < capacity.clampMin {
		grams = capacity.clampMin
	} else if grams > capacity.clampMax {
		grams = capacity.clampMax
	}
	return grams
}

func fillLevelFromLabel(label string) string {
	switch {
	case strings.Contains(label, "half"):
		return "half"
	case strings.Contains(label, "heaping"):
		return "heaping"
	default:
		return "level"
	}
}

// extractBrandAndSize pulls a known brand and a size word out of the
// ingredient text. The portion label wins over name/notes for size.
func extractBrandAndSize(name, notes, label string) (brand, size string) {
	combined := strings.ToLower(name + " " + notes)

	switch {
	case strings.Contains(combined, "mcdonald") || strings.Contains(combined, "mcd"):
		brand = "mcdonalds"
	case strings.Contains(combined, "starbucks") || strings.Contains(combined, "sbux"):
		brand = "starbucks"
	case strings.Contains(combined, "subway"):
		brand = "subway"
	case strings.Contains(combined, "kfc"):
		brand = "kfc"
	}

	size = sizeFromText(strings.ToLower(label))
	if size == "" {
		size = sizeFromText(combined)
	}
	return brand, size
}

func sizeFromText(text string) string {
	switch {
	case text == "":
		return ""
	case strings.Contains(text, "small") || strings.Contains(text, "sm") || strings.Contains(text, "tall"):
		return "small"
	case strings.Contains(text, "medium") || strings.Contains(text, "med"):
		return "medium"
	case strings.Contains(text, "large") || strings.Contains(text, "lg") ||
		strings.Contains(text, "lrg") || strings.Contains(text, "grande") || strings.Contains(text, "venti"):
		return "large"
	}
	return ""
}

// brandSizeLookup resolves branded menu items. Sized items (fries, cola)
// need both brand and size; fixed-weight items (cheeseburger, big mac)
// match on brand alone.
func brandSizeLookup(name, notes, label string) float64 {
	brand, size := extractBrandAndSize(name, notes, label)
	if brand == "" {
		return 0
	}
	nameLower := strings.ToLower(name)

	if size != "" {
		if strings.Contains(nameLower, "fries") || strings.Contains(nameLower, "fry") {
			if g, ok := brandSizePortions[brandKey{brand: brand, item: "fries", size: size}]; ok {
				return g
			}
		}
		if strings.Contains(nameLower, "cola") || strings.Contains(nameLower, "coke") ||
			strings.Contains(nameLower, "soda") || strings.Contains(nameLower, "pop") {
			if g, ok := brandSizePortions[brandKey{brand: brand, item: "cola", size: size}]; ok {
				return g
			}
		}
	}

	compact := strings.ReplaceAll(nameLower, " ", "")
	for _, item := range []string{"cheeseburger", "hamburger", "bigmac", "quarterpounder", "mcdouble"} {
		if strings.Contains(compact, item) {
			if g, ok := brandSizePortions[brandKey{brand: brand, item: item}]; ok {
				return g
			}
		}
	}
	return 0
}

// categoryHeuristicGrams estimates grams from broad food categories when
// no deterministic source applies.
func categoryHeuristicGrams(name, notes, label string) float64 {
	combined := strings.ToLower(name + " " + notes)
	_, size := extractBrandAndSize(name, notes, label)

	if containsAny(combined, "burger", "sandwich") {
		switch size {
		case "small":
			return 100
		case "large":
			return 200
		default:
			return 150
		}
	}
	if strings.Contains(combined, "fries") || strings.Contains(combined, "fry") {
		switch size {
		case "small":
			return 70
		case "large":
			return 155
		default:
			return 110
		}
	}
	if containsAny(combined, "cola", "soda", "pop", "drink", "juice", "tea", "coffee", "water", "latte", "cappuccino") {
		density := 1.0
		if strings.Contains(combined, "cola") || strings.Contains(combined, "soda") {
			density = 1.04
		}
		switch size {
		case "small":
			return 340 * density
		case "large":
			return 680 * density
		default:
			return 475 * density
		}
	}
	if strings.Contains(combined, "rice") {
		switch size {
		case "small":
			return 150
		case "large":
			return 250
		default:
			return 200
		}
	}
	return 0
}

// clampByCategory bounds grams to the category's plausible range. Clamping
// is idempotent: an already-clamped value maps to itself.
func clampByCategory(name string, grams float64) float64 {
	category := portionCategory(name)
	bound, ok := categoryBounds[category]
	if !ok {
		return grams
	}
	if grams < bound.min {
		return bound.min
	}
	if grams > bound.max {
		return bound.max
	}
	return grams
}

func portionCategory(name string) string {
	nameLower := strings.ToLower(name)
	switch {
	case containsAny(nameLower, "burger", "sandwich"):
		return "burger"
	case strings.Contains(nameLower, "fries") || strings.Contains(nameLower, "fry"):
		return "fries"
	case containsAny(nameLower, "cola", "soda", "pop", "drink", "juice", "tea", "coffee", "water", "latte"):
		// Syrups and condiments mention beverages without being one.
		if containsAny(nameLower, "syrup", "sauce", "ketchup", "mayo", "dressing", "condiment") {
			return ""
		}
		return "beverage"
	case strings.Contains(nameLower, "rice"):
		return "rice"
	case strings.Contains(nameLower, "chicken") && containsAny(nameLower, "piece", "breast", "thigh"):
		return "chicken_piece"
	case strings.Contains(nameLower, "pizza") && strings.Contains(nameLower, "slice"):
		return "pizza_slice"
	case strings.Contains(nameLower, "salad"):
		return "salad"
	}
	return ""
}

// densityFor returns g/mL for a liquid ingredient, defaulting to water.
func densityFor(name string) float64 {
	nameLower := strings.ToLower(name)
	for keyword, density := range beverageDensity {
		if strings.Contains(nameLower, keyword) {
			return density
		}
	}
	return defaultDensity
}

func tablespoonDensity(name string) float64 {
	nameLower := strings.ToLower(name)
	if containsAny(nameLower, "syrup", "honey", "molasses") {
		return syrupDensity
	}
	if containsAny(nameLower, "oil", "butter") {
		return oilDensity
	}
	return densityFor(name)
}

func gramsFromLabel(label string) float64 {
	if kg := floatFromLabel(kgLabelRegex, label); kg > 0 {
		return kg * 1000
	}
	return floatFromLabel(gramLabelRegex, label)
}

func millilitersFromLabel(label string) float64 {
	if ml := floatFromLabel(mlLabelRegex, label); ml > 0 {
		return ml
	}
	if l := floatFromLabel(literLabelRegex, label); l > 0 {
		return l * 1000
	}
	return 0
}

func floatFromLabel(re *regexp.Regexp, label string) float64 {
	if label == "" {
		return 0
	}
	match := re.FindString(label)
	if match == "" {
		return 0
	}
	value, err := strconv.ParseFloat(floatGroupRegex.FindString(match), 64)
	if err != nil {
		return 0
	}
	return value
}

func intFromLabel(re *regexp.Regexp, label string) int {
	return int(floatFromLabel(re, label))
}

func inferContainerType(label string) string {
	switch {
	case label == "":
		return ""
	case strings.Contains(label, "plate"):
		return "plate"
	case strings.Contains(label, "bowl"):
		return "bowl"
	case containsAny(label, "glass", "cup", "oz", "ml"):
		return "glass"
	case strings.Contains(label, "side"):
		return "side"
	}
	return ""
}

func hasPowderSibling(items []domain.RawIngredient) bool {
	for i := range items {
		if containsAny(strings.ToLower(items[i].Name), "protein powder", "whey", "casein", "plant protein") {
			return true
		}
	}
	return false
}

func isShakeBase(name string) bool {
	return containsAny(strings.ToLower(name), "milk", "water", "juice", "base")
}

func isSmoothieContext(notes string) bool {
	return containsAny(strings.ToLower(notes), "smoothie", "shake")
}

func containsAny(s string, substrings ...string) bool {
	for _, sub := range substrings {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
