package usecase

import (
	"context"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/nutriground/backend/internal/domain"
	"github.com/nutriground/backend/internal/infrastructure/fdc"
	"github.com/nutriground/backend/internal/metrics"
)

// Candidate-selection thresholds for non-food detection.
const (
	maxSodiumPer100    = 5000.0 // mg; above this is a spice blend, not a food
	dietEnergyCeiling  = 20.0   // kcal/100 for diet/zero-labeled items
	skimFatCeiling     = 1.0    // g fat/100 for skim-labeled items
	leanFatCeiling     = 10.0   // g fat/100 for lean-labeled items
	powderProteinFloor = 50.0   // g protein/100 for protein powders
	maxTopCandidates   = 3
)

// nonFoodRegex matches seasoning/bouillon/spice-mix records that the search
// API happily returns for plain food queries.
var nonFoodRegex = regexp.MustCompile(
	`(?i)\b(seasoning|bouillon|stock cube|broth cube|spice mix|spice blend|dry rub|extract|baking powder|baking soda)\b`,
)

// loadBearingModifiers are tokens whose presence or absence changes what
// food a description means. Two near-tied candidates disagreeing on one of
// these is true ambiguity, not a scoring problem.
var loadBearingModifiers = map[string]bool{
	"sweet": true, "diet": true, "zero": true, "unsweetened": true,
	"skim": true, "nonfat": true, "whole": true, "lean": true, "veggie": true,
	"beef": true, "chicken": true, "pork": true, "turkey": true, "fish": true,
	"tofu": true, "whey": true, "casein": true, "plant": true, "soy": true,
}

// MatcherConfig holds tuning for candidate selection.
type MatcherConfig struct {
	AcceptThreshold float64 // strategies 1-2
	LooseThreshold  float64 // strategy 3
	NearTieRatio    float64 // candidates within this ratio of the top are "close"
}

// Matcher grounds one normalized ingredient name against the food database.
// It never returns an error: transport failures and empty result sets
// degrade to a fallback item, unresolvable conflicts surface as ambiguous.
type Matcher struct {
	search          domain.FoodSearchClient
	arbiter         domain.Arbiter // may be nil
	normalizer      *Normalizer
	logger          *zap.Logger
	metrics         *metrics.Metrics
	acceptThreshold float64
	looseThreshold  float64
	nearTieRatio    float64
}

// NewMatcher creates a matcher. A nil arbiter disables tie-break delegation;
// close non-conflicting ties then resolve to the top-scored candidate.
func NewMatcher(
	search domain.FoodSearchClient,
	arbiter domain.Arbiter,
	normalizer *Normalizer,
	logger *zap.Logger,
	m *metrics.Metrics,
	config MatcherConfig,
) *Matcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if m == nil {
		m = metrics.NewNop()
	}
	if config.AcceptThreshold <= 0 {
		config.AcceptThreshold = 0.35
	}
	if config.LooseThreshold <= 0 {
		config.LooseThreshold = 0.20
	}
	if config.NearTieRatio <= 0 || config.NearTieRatio > 1 {
		config.NearTieRatio = 0.90
	}
	return &Matcher{
		search:          search,
		arbiter:         arbiter,
		normalizer:      normalizer,
		logger:          logger,
		metrics:         m,
		acceptThreshold: config.AcceptThreshold,
		looseThreshold:  config.LooseThreshold,
		nearTieRatio:    config.NearTieRatio,
	}
}

// searchStrategy is one step of the query fallback chain.
type searchStrategy struct {
	name      string
	query     string
	threshold float64
}

// SearchBestMatch runs the strategy chain for one normalized query:
// the query as typed, then with parenthetical qualifiers relocated, then
// the first head words with a looser threshold. The first strategy that
// produces a verdict (matched or ambiguous) short-circuits the chain.
func (m *Matcher) SearchBestMatch(ctx context.Context, query string) domain.GroundedItem {
	query = strings.TrimSpace(query)
	if query == "" {
		return m.fallbackItem(query, query)
	}

	critical := m.normalizer.ExtractCriticalTokens(query)
	head := m.normalizer.HeadToken(query)

	strategies := []searchStrategy{
		{name: "1", query: query, threshold: m.acceptThreshold},
	}
	if relocated := m.normalizer.StripParenthetical(query); relocated != "" && relocated != query {
		strategies = append(strategies, searchStrategy{name: "2", query: relocated, threshold: m.acceptThreshold})
	}
	if headWords := m.normalizer.HeadWords(query, 2); headWords != "" && headWords != query {
		strategies = append(strategies, searchStrategy{name: "3", query: headWords, threshold: m.looseThreshold})
	}

	for _, strategy := range strategies {
		m.metrics.MatchStrategy.WithLabelValues(strategy.name).Inc()

		candidates, err := m.search.Search(ctx, strategy.query)
		if err != nil {
			// Transport errors are treated like "no results"; retries belong
			// to the HTTP transport, not here.
			m.logger.Warn("food search failed, continuing strategy chain",
				zap.String("query", strategy.query), zap.Error(err))
			continue
		}
		if len(candidates) == 0 {
			continue
		}

		verdict := m.selectBestMatch(ctx, strategy.query, query, critical, head, candidates, strategy.threshold)
		if verdict.Source == domain.MatchFallback {
			continue
		}
		m.metrics.MatchOutcome.WithLabelValues(string(verdict.Source)).Inc()
		m.logger.Debug("match verdict",
			zap.String("query", query),
			zap.String("strategy", strategy.name),
			zap.String("source", string(verdict.Source)),
			zap.Int("fdcId", verdict.FdcID))
		return verdict
	}

	m.metrics.MatchOutcome.WithLabelValues(string(domain.MatchFallback)).Inc()
	return m.fallbackItem(query, query)
}

// selectBestMatch scores and filters one result set. searchQuery is the
// strategy's (possibly rewritten) query used for scoring; originalQuery is
// what the critical tokens were extracted from.
func (m *Matcher) selectBestMatch(
	ctx context.Context,
	searchQuery, originalQuery string,
	critical map[string]bool,
	head string,
	candidates []domain.FoodCandidate,
	threshold float64,
) domain.GroundedItem {
	queryTokens := Tokenize(searchQuery)
	queryHasNonFood := nonFoodRegex.MatchString(originalQuery)

	// Filter pass. Candidates rejected only by the critical-modifier gate
	// are kept around: if nothing else survives they become the ambiguity
	// shortlist instead of a silent wrong pick.
	var survivors []int
	var criticalRejected []int
	for i := range candidates {
		c := &candidates[i]

		if len(c.Nutrients) == 0 {
			continue // malformed record, excluded from scoring
		}
		if !queryHasNonFood && nonFoodRegex.MatchString(c.Description) {
			continue
		}
		if m.looksLikeNonFood(c) {
			continue
		}
		descTokens := Tokenize(c.Description)
		if head != "" && !tokenSet(descTokens)[head] {
			continue // head anchor: "cola" never grounds to tofu
		}
		if m.normalizer.ExclusionConflict(originalQuery, c.Description) {
			continue
		}
		if !m.passesCriticalGate(critical, descTokens) {
			criticalRejected = append(criticalRejected, i)
			continue
		}
		survivors = append(survivors, i)
	}

	if len(survivors) == 0 {
		if len(criticalRejected) > 0 {
			// Everything plausible contradicts a critical modifier
			// ("cola (diet)" with only regular cola on offer). Asking beats
			// guessing.
			return m.ambiguousItem(originalQuery, m.scoreTrail(queryTokens, candidates, criticalRejected))
		}
		return m.fallbackItem(originalQuery, originalQuery)
	}

	// Score survivors with in-batch IDF over the full candidate set.
	idf := newInBatchIDF(tokenizeAll(candidates))
	scored := make([]scoredCandidate, 0, len(survivors))
	for _, i := range survivors {
		s := scoreCandidate(queryTokens, Tokenize(candidates[i].Description), idf, candidates[i].DataType)
		scored = append(scored, scoredCandidate{index: i, score: s})
	}
	sortByScore(scored)

	top := scored[0]
	trail := m.buildTrail(candidates, scored)
	if top.score < threshold {
		return m.fallbackItem(originalQuery, originalQuery)
	}

	// Close set: within the near-tie ratio of the top score.
	close := []scoredCandidate{top}
	for _, s := range scored[1:] {
		if s.score >= top.score*m.nearTieRatio {
			close = append(close, s)
		}
	}

	if len(close) > 1 {
		if m.modifierConflict(candidates, close) {
			return m.ambiguousItem(originalQuery, trail)
		}
		if m.sanityDisagreement(originalQuery, critical, candidates, close) {
			// A sanity split between near-equals is evidence of real
			// ambiguity, not a tiebreak signal.
			return m.ambiguousItem(originalQuery, trail)
		}
		if chosen, ok := m.delegateToArbiter(ctx, originalQuery, candidates, close); ok {
			top = chosen
		}
	}

	pick := &candidates[top.index]
	if !m.passesSanityGate(originalQuery, critical, pick) {
		return m.ambiguousItem(originalQuery, trail)
	}

	return domain.GroundedItem{
		Name:           originalQuery,
		NormalizedName: originalQuery,
		FdcID:          pick.FdcID,
		Source:         domain.MatchMatched,
		Per100:         fdc.MapPer100(pick),
		TopCandidates:  trail,
	}
}

// passesCriticalGate checks that every critical modifier of the query is
// satisfied by some synonym in the candidate description.
func (m *Matcher) passesCriticalGate(critical map[string]bool, descTokens []string) bool {
	if len(critical) == 0 {
		return true
	}
	descSet := tokenSet(descTokens)
	compactDesc := strings.Join(descTokens, "")
	for modifier := range critical {
		satisfied := false
		for _, synonym := range criticalSynonyms[modifier] {
			if descSet[synonym] || strings.Contains(compactDesc, synonym) {
				satisfied = true
				break
			}
		}
		if !satisfied {
			return false
		}
	}
	return true
}

// looksLikeNonFood applies the nutrition-profile heuristic that catches
// spice blends disguised as food records.
func (m *Matcher) looksLikeNonFood(c *domain.FoodCandidate) bool {
	profile := fdc.MapPer100(c)
	sodium := fdc.SodiumPer100(c)
	if sodium > maxSodiumPer100 {
		return true
	}
	if profile.Carb > 40 && profile.Protein == 0 && profile.Fat == 0 && sodium > 1000 {
		return true
	}
	return false
}

// passesSanityGate checks a candidate against its own claimed type.
func (m *Matcher) passesSanityGate(query string, critical map[string]bool, c *domain.FoodCandidate) bool {
	profile := fdc.MapPer100(c)

	if critical["diet"] || critical["zero"] || critical["unsweetened"] {
		if profile.Energy > dietEnergyCeiling {
			return false
		}
	}
	if critical["skim"] && profile.Fat > skimFatCeiling {
		return false
	}
	if critical["lean"] && profile.Fat > leanFatCeiling {
		return false
	}
	if strings.Contains(strings.ToLower(query), "protein powder") && profile.Protein < powderProteinFloor {
		return false
	}
	return true
}

// modifierConflict reports whether the close candidates disagree on a
// load-bearing modifier.
func (m *Matcher) modifierConflict(candidates []domain.FoodCandidate, close []scoredCandidate) bool {
	reference := loadBearingSet(candidates[close[0].index].Description)
	for _, s := range close[1:] {
		other := loadBearingSet(candidates[s.index].Description)
		if !equalSets(reference, other) {
			return true
		}
	}
	return false
}

// sanityDisagreement reports whether exactly one of the top-2 close
// candidates passes the sanity gate while the other fails.
func (m *Matcher) sanityDisagreement(query string, critical map[string]bool, candidates []domain.FoodCandidate, close []scoredCandidate) bool {
	if len(close) < 2 {
		return false
	}
	first := m.passesSanityGate(query, critical, &candidates[close[0].index])
	second := m.passesSanityGate(query, critical, &candidates[close[1].index])
	return first != second
}

// delegateToArbiter passes at most the top 3 close candidates to the
// external arbiter. The arbiter's answer is bounded to the pre-filtered
// set; a bad index or a transport error leaves the top-scored pick.
func (m *Matcher) delegateToArbiter(ctx context.Context, query string, candidates []domain.FoodCandidate, close []scoredCandidate) (scoredCandidate, bool) {
	if m.arbiter == nil {
		return scoredCandidate{}, false
	}
	if len(close) > maxTopCandidates {
		close = close[:maxTopCandidates]
	}

	shortlist := make([]domain.FoodCandidate, len(close))
	for i, s := range close {
		shortlist[i] = candidates[s.index]
	}

	m.metrics.ArbiterCalls.Inc()
	idx, err := m.arbiter.Choose(ctx, query, shortlist)
	if err != nil {
		m.logger.Warn("arbiter unavailable, keeping top-scored candidate",
			zap.String("query", query), zap.Error(err))
		return scoredCandidate{}, false
	}
	if idx < 0 || idx >= len(close) {
		m.logger.Warn("arbiter returned out-of-range index, keeping top-scored candidate",
			zap.String("query", query), zap.Int("index", idx))
		return scoredCandidate{}, false
	}
	return close[idx], true
}

// buildTrail keeps the top-3 scored candidates as an explainability trail.
func (m *Matcher) buildTrail(candidates []domain.FoodCandidate, scored []scoredCandidate) []domain.CandidateScore {
	n := len(scored)
	if n > maxTopCandidates {
		n = maxTopCandidates
	}
	trail := make([]domain.CandidateScore, 0, n)
	for _, s := range scored[:n] {
		trail = append(trail, domain.CandidateScore{
			FdcID:       candidates[s.index].FdcID,
			Description: candidates[s.index].Description,
			Score:       s.score,
		})
	}
	return trail
}

// scoreTrail scores an arbitrary index subset and returns its top-3 trail.
func (m *Matcher) scoreTrail(queryTokens []string, candidates []domain.FoodCandidate, indexes []int) []domain.CandidateScore {
	idf := newInBatchIDF(tokenizeAll(candidates))
	scored := make([]scoredCandidate, 0, len(indexes))
	for _, i := range indexes {
		s := scoreCandidate(queryTokens, Tokenize(candidates[i].Description), idf, candidates[i].DataType)
		scored = append(scored, scoredCandidate{index: i, score: s})
	}
	sortByScore(scored)
	return m.buildTrail(candidates, scored)
}

func (m *Matcher) fallbackItem(name, normalized string) domain.GroundedItem {
	return domain.GroundedItem{
		Name:           name,
		NormalizedName: strings.ToLower(strings.TrimSpace(normalized)),
		Source:         domain.MatchFallback,
	}
}

func (m *Matcher) ambiguousItem(name string, trail []domain.CandidateScore) domain.GroundedItem {
	return domain.GroundedItem{
		Name:           name,
		NormalizedName: strings.ToLower(strings.TrimSpace(name)),
		Source:         domain.MatchAmbiguous,
		TopCandidates:  trail,
	}
}

func tokenizeAll(candidates []domain.FoodCandidate) [][]string {
	all := make([][]string, len(candidates))
	for i := range candidates {
		all[i] = Tokenize(candidates[i].Description)
	}
	return all
}

func loadBearingSet(description string) map[string]bool {
	set := map[string]bool{}
	for _, t := range Tokenize(description) {
		if loadBearingModifiers[t] {
			set[t] = true
		}
	}
	return set
}

func equalSets(a, b map[string]bool) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if !b[k] {
			return false
		}
	}
	return true
}
