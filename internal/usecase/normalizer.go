package usecase

import (
	"regexp"
	"strings"
	"unicode"

	"go.uber.org/zap"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Package-level compiled regex patterns for performance
var (
	punctuationRegex    = regexp.MustCompile(`[^\w\s%]`)
	parentheticalRegex  = regexp.MustCompile(`\(([^)]*)\)`)
	multipleSpacesRegex = regexp.MustCompile(`\s+`)
	leanPercentRegex    = regexp.MustCompile(`\b(\d{1,3})\s*%\s*lean\b|\blean\s*(\d{1,3})\s*%`)
	fatTierRegex        = regexp.MustCompile(`\b([12])\s*%`)
)

// portionAliases folds shorthand portion labels to canonical words.
var portionAliases = map[string]string{
	"med": "medium",
	"lg":  "large",
	"lrg": "large",
	"sm":  "small",
	"sml": "small",
	"reg": "regular",
}

// nameAliases rewrites whole ingredient names; exact match only, applied
// after transliteration and translation.
var nameAliases = map[string]string{
	"soda":                 "cola",
	"pop":                  "cola",
	"coke":                 "cola",
	"french fries":         "fries",
	"potato fries":         "fries",
	"whey protein":         "protein powder (whey)",
	"whey powder":          "protein powder (whey)",
	"protein shake powder": "protein powder (whey)",
	"casein protein":       "protein powder (casein)",
	"plant protein":        "protein powder (plant)",
	"pea protein":          "protein powder (plant)",
	"whole milk":           "milk (whole)",
	"2% milk":              "milk (2%)",
	"1% milk":              "milk (1%)",
	"skim milk":            "milk (skim)",
	"nonfat milk":          "milk (skim)",
	"fat free milk":        "milk (skim)",
}

// multilingualAliases translates common non-English food tokens so that no
// non-English query ever reaches the search API.
var multilingualAliases = map[string]string{
	// Spanish
	"pollo": "chicken", "arroz": "rice", "leche": "milk", "queso": "cheese",
	"huevo": "egg", "carne": "meat", "pescado": "fish", "manzana": "apple",
	"naranja": "orange",
	// French
	"poulet": "chicken", "riz": "rice", "lait": "milk", "fromage": "cheese",
	"oeuf": "egg", "viande": "meat", "poisson": "fish", "pomme": "apple",
	// German
	"huhn": "chicken", "reis": "rice", "milch": "milk", "kase": "cheese",
	"brot": "bread", "fleisch": "meat", "fisch": "fish", "apfel": "apple",
	// Italian
	"riso": "rice", "latte": "milk", "formaggio": "cheese", "pane": "bread",
	"uovo": "egg", "pesce": "fish", "mela": "apple",
	// Transliterated/common variants
	"chai": "tea", "paneer": "cheese", "dal": "lentils", "naan": "bread",
	"roti": "bread", "chapati": "bread",
}

// exclusionModifiers down-rank candidates carrying a modifier the query did
// not ask for ("sweet potato fries" must not ground plain "fries").
var exclusionModifiers = map[string][]string{
	"sweet":  {"fries", "potato"},
	"veggie": {"burger"},
}

// criticalSynonyms maps a canonical critical modifier to the description
// tokens that satisfy it. A query carrying one of these materially changes
// the nutrition profile, so candidates must carry it too.
var criticalSynonyms = map[string][]string{
	"diet":        {"diet", "zero", "sugarfree", "unsweetened"},
	"zero":        {"zero", "diet", "sugarfree"},
	"unsweetened": {"unsweetened", "sugarfree", "diet", "zero"},
	"skim":        {"skim", "nonfat", "fatfree"},
	"1%":          {"1%", "lowfat"},
	"2%":          {"2%", "reduced", "lowfat"},
	"whole":       {"whole"},
	"lean":        {"lean"},
}

// stopTokens are skipped when picking the head token.
var stopTokens = map[string]bool{
	"a": true, "an": true, "the": true, "of": true, "with": true,
	"fresh": true, "plain": true,
}

var asciiFold = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalizer cleans and canonicalizes raw ingredient names before any
// search. It holds no mutable state and is safe for concurrent use.
type Normalizer struct {
	logger *zap.Logger
}

// NewNormalizer creates a normalizer.
func NewNormalizer(logger *zap.Logger) *Normalizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Normalizer{logger: logger}
}

// TransliterateASCII strips combining diacritics and drops any rune that
// still is not ASCII ("café" -> "cafe"). Unknown Unicode is silently
// dropped, never an error.
func (n *Normalizer) TransliterateASCII(s string) string {
	folded, _, err := transform.String(asciiFold, s)
	if err != nil {
		folded = s
	}
	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		if r < 128 {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Canonicalize normalizes an ingredient name: transliteration, multilingual
// translation, context-aware aliasing under a brand, then exact-name
// aliases. Runs strictly before any external search. Empty input is
// returned unchanged.
func (n *Normalizer) Canonicalize(name, brand, category string) string {
	if strings.TrimSpace(name) == "" {
		return name
	}

	ascii := n.TransliterateASCII(name)
	translated := n.applyMultilingualAliases(ascii)
	result := strings.ToLower(strings.TrimSpace(translated))

	// Brand context can change a word's meaning: under a fast-food brand,
	// "chips" is UK English for fries. Exact-token check only.
	if brand != "" && strings.Contains(strings.ToLower(brand), "mcdonald") {
		if category == "starch-side" || category == "side" {
			result = replaceToken(result, "chips", "fries")
		}
	}

	if canonical, ok := nameAliases[result]; ok {
		result = canonical
	}

	if result != strings.ToLower(name) {
		n.logger.Debug("canonicalized ingredient name",
			zap.String("from", name), zap.String("to", result))
	}
	return result
}

// applyMultilingualAliases translates token by token, case-insensitively.
func (n *Normalizer) applyMultilingualAliases(name string) string {
	tokens := strings.Fields(strings.ToLower(name))
	changed := false
	for i, tok := range tokens {
		clean := strings.Trim(tok, ",;.")
		if english, ok := multilingualAliases[clean]; ok {
			tokens[i] = english
			changed = true
		}
	}
	if !changed {
		return name
	}
	return strings.Join(tokens, " ")
}

// CanonicalPortionLabel folds shorthand size words ("med", "lg") to their
// canonical forms and lowercases the label.
func (n *Normalizer) CanonicalPortionLabel(label string) string {
	if label == "" {
		return ""
	}
	label = strings.ToLower(strings.TrimSpace(label))
	tokens := strings.Fields(label)
	for i, tok := range tokens {
		if canonical, ok := portionAliases[tok]; ok {
			tokens[i] = canonical
		}
	}
	return strings.Join(tokens, " ")
}

// ExtractCriticalTokens pulls the modifiers that gate candidate acceptance:
// diet/zero/sugar-free/unsweetened, fat tiers, and numeric lean percents.
func (n *Normalizer) ExtractCriticalTokens(query string) map[string]bool {
	tokens := map[string]bool{}
	lower := strings.ToLower(query)
	compact := strings.ReplaceAll(strings.ReplaceAll(lower, "-", ""), " ", "")

	for _, tok := range Tokenize(lower) {
		switch tok {
		case "diet", "zero", "unsweetened", "skim", "nonfat", "lean", "whole":
			if tok == "nonfat" {
				tok = "skim"
			}
			if tok == "whole" && !strings.Contains(lower, "milk") {
				continue // "whole" is only load-bearing as a fat tier
			}
			tokens[tok] = true
		}
	}
	if strings.Contains(compact, "sugarfree") || strings.Contains(compact, "nosugar") {
		tokens["diet"] = true
	}
	if m := fatTierRegex.FindStringSubmatch(lower); m != nil {
		tokens[m[1]+"%"] = true
	}
	if leanPercentRegex.MatchString(lower) {
		tokens["lean"] = true
	}
	return tokens
}

// HeadToken returns the first content token before any parenthetical. Used
// to anchor candidate matching.
func (n *Normalizer) HeadToken(query string) string {
	base := query
	if idx := strings.Index(base, "("); idx >= 0 {
		base = base[:idx]
	}
	for _, tok := range Tokenize(base) {
		if !stopTokens[tok] {
			return tok
		}
	}
	return ""
}

// StripParenthetical relocates parenthetical qualifiers in front of the base
// name ("cola (diet)" -> "diet cola"), the second search strategy.
func (n *Normalizer) StripParenthetical(query string) string {
	matches := parentheticalRegex.FindStringSubmatch(query)
	base := strings.TrimSpace(parentheticalRegex.ReplaceAllString(query, " "))
	base = multipleSpacesRegex.ReplaceAllString(base, " ")
	if matches == nil {
		return base
	}
	qualifier := strings.TrimSpace(matches[1])
	if qualifier == "" {
		return base
	}
	return strings.TrimSpace(qualifier + " " + base)
}

// HeadWords returns the first n content words of the query, the last-resort
// search strategy.
func (n *Normalizer) HeadWords(query string, count int) string {
	base := query
	if idx := strings.Index(base, "("); idx >= 0 {
		base = base[:idx]
	}
	tokens := Tokenize(base)
	if len(tokens) > count {
		tokens = tokens[:count]
	}
	return strings.Join(tokens, " ")
}

// Categorize buckets a food name into the composite-dish categories used by
// portion resolution and energy-density validation. Empty when no bucket
// applies.
func (n *Normalizer) Categorize(name string) string {
	lower := strings.ToLower(name)

	for _, kw := range []string{"biryani", "pulao", "pilaf", "fried rice", "nasi goreng", "paella"} {
		if strings.Contains(lower, kw) {
			return "rice_mixed_main"
		}
	}
	for _, kw := range []string{"raita", "tzatziki", "yogurt dip"} {
		if strings.Contains(lower, kw) {
			return "yogurt_side"
		}
	}
	for _, kw := range []string{"curry", "dal", "daal", "stew", "chili"} {
		if strings.Contains(lower, kw) {
			return "curry"
		}
	}
	if strings.Contains(lower, "salad") {
		return "salad"
	}
	return ""
}

// ExclusionConflict reports whether the candidate carries a modifier the
// query did not ask for, on a term where that modifier changes the food
// ("sweet potato fries" vs "fries").
func (n *Normalizer) ExclusionConflict(query, candidateDescription string) bool {
	queryLower := strings.ToLower(query)
	descLower := strings.ToLower(candidateDescription)

	for modifier, blockedTerms := range exclusionModifiers {
		if !strings.Contains(descLower, modifier) || strings.Contains(queryLower, modifier) {
			continue
		}
		for _, term := range blockedTerms {
			if strings.Contains(queryLower, term) {
				return true
			}
		}
	}
	return false
}

// Tokenize splits a string into normalized lowercase tokens. Keeps "%" so
// fat tiers like "2%" survive tokenization.
func Tokenize(s string) []string {
	cleaned := punctuationRegex.ReplaceAllString(strings.ToLower(s), " ")
	words := strings.Fields(cleaned)

	tokens := make([]string, 0, len(words))
	for _, word := range words {
		if len(word) <= 1 {
			continue
		}
		tokens = append(tokens, word)
	}
	return tokens
}

// replaceToken replaces a whole token, never a substring.
func replaceToken(s, from, to string) string {
	tokens := strings.Fields(s)
	for i, tok := range tokens {
		if tok == from {
			tokens[i] = to
		}
	}
	return strings.Join(tokens, " ")
}
