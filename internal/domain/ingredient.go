package domain

import "fmt"

// IngredientSource identifies where an ingredient (and in particular its
// gram amount) came from. Amounts are only trusted from audited sources.
type IngredientSource string

const (
	SourceUser      IngredientSource = "user"
	SourceEstimator IngredientSource = "estimator"
	SourceResolver  IngredientSource = "resolver"
	SourceSearch    IngredientSource = "search"
)

// auditedAmountSources are the sources allowed to carry an explicit amount.
var auditedAmountSources = map[IngredientSource]bool{
	SourceUser:      true,
	SourceEstimator: true,
	SourceResolver:  true,
}

// RawIngredient is a loosely-specified ingredient mention as produced by the
// upstream estimator or user input. The portion resolver fills Amount; the
// normalizer rewrites Name and fills Category.
type RawIngredient struct {
	Name         string           `json:"name" binding:"required"`
	Amount       float64          `json:"amount,omitempty"` // grams
	Unit         string           `json:"unit,omitempty"`   // always "g"
	Source       IngredientSource `json:"source"`
	PortionLabel string           `json:"portionLabel,omitempty"`
	Notes        string           `json:"notes,omitempty"`
	Category     string           `json:"category,omitempty"`
}

// Validate enforces construction invariants. A positive amount from an
// unaudited source is a programming error upstream, so it fails fast here
// instead of flowing into the calculation.
func (r *RawIngredient) Validate() error {
	if r.Name == "" {
		return fmt.Errorf("%w: missing name", ErrInvalidIngredient)
	}
	if r.Amount < 0 {
		return fmt.Errorf("%w: negative amount %.1f for %q", ErrInvalidIngredient, r.Amount, r.Name)
	}
	if r.Amount > 0 && !auditedAmountSources[r.Source] {
		return fmt.Errorf("%w: amount set but source %q is not audited for %q",
			ErrInvalidIngredient, r.Source, r.Name)
	}
	if r.Unit != "" && r.Unit != "g" {
		return fmt.Errorf("%w: unsupported unit %q for %q", ErrInvalidIngredient, r.Unit, r.Name)
	}
	return nil
}
