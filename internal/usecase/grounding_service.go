package usecase

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/nutriground/backend/internal/domain"
)

// GroundingService orchestrates one batch: normalize, resolve portions,
// match in parallel, scale, aggregate, validate. One ingredient failing
// never fails the batch; it degrades to a fallback item and the confidence
// score carries the damage.
type GroundingService struct {
	normalizer  *Normalizer
	resolver    *PortionResolver
	matcher     *Matcher
	validator   *Validator
	logger      *zap.Logger
	parallelism int
}

func NewGroundingService(
	normalizer *Normalizer,
	resolver *PortionResolver,
	matcher *Matcher,
	validator *Validator,
	logger *zap.Logger,
	parallelism int,
) *GroundingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if parallelism < 1 {
		parallelism = 1
	}
	return &GroundingService{
		normalizer:  normalizer,
		resolver:    resolver,
		matcher:     matcher,
		validator:   validator,
		logger:      logger,
		parallelism: parallelism,
	}
}

// Ground runs the full pipeline for a batch of raw ingredients. Output
// order matches input order regardless of which lookup finishes first.
func (s *GroundingService) Ground(ctx context.Context, ingredients []domain.RawIngredient) (*domain.GroundingResult, error) {
	if len(ingredients) == 0 {
		return nil, fmt.Errorf("%w: empty ingredient list", domain.ErrInvalidRequest)
	}
	for i := range ingredients {
		if err := ingredients[i].Validate(); err != nil {
			return nil, err
		}
	}

	normalized := make([]domain.RawIngredient, len(ingredients))
	for i, ing := range ingredients {
		ing.Name = s.normalizer.Canonicalize(ing.Name, ing.Notes, ing.Category)
		ing.PortionLabel = s.normalizer.CanonicalPortionLabel(ing.PortionLabel)
		if ing.Category == "" {
			ing.Category = s.normalizer.Categorize(ing.Name)
		}
		normalized[i] = ing
	}

	// Portion resolution is sequential: tiers are table lookups, and the
	// shake-headroom rule needs sight of the whole batch anyway.
	resolved, portionMetrics := s.resolver.Resolve(normalized)

	grounded := make([]domain.GroundedItem, len(resolved))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(s.parallelism)

	for i := range resolved {
		group.Go(func() error {
			grounded[i] = s.groundOne(groupCtx, resolved[i])
			return nil
		})
	}
	// Workers never return errors; Wait is a join barrier.
	_ = group.Wait()

	scaled := make([]domain.ScaledItem, len(grounded))
	for i, item := range grounded {
		scaled[i] = Scale(item, resolved[i].Amount)
	}

	totals := Aggregate(scaled)
	report := s.validator.Validate(scaled, totals)

	result := &domain.GroundingResult{
		Items:          scaled,
		Totals:         totals,
		Validation:     report,
		PortionMetrics: portionMetrics,
	}
	for _, item := range grounded {
		if item.Source == domain.MatchMatched {
			result.Attribution = append(result.Attribution, domain.Attribution{
				Name:  item.Name,
				FdcID: item.FdcID,
			})
		}
		if len(item.TopCandidates) > 0 {
			result.Explainability = append(result.Explainability, domain.Explanation{
				Name:          item.Name,
				TopCandidates: item.TopCandidates,
				SelectedFdcID: item.FdcID,
			})
		}
	}

	s.logger.Info("grounding complete",
		zap.Int("items", totals.ItemCount),
		zap.Int("matched", totals.MatchedCount),
		zap.Int("fallback", totals.FallbackCount),
		zap.Int("ambiguous", totals.AmbiguousCount),
		zap.Float64("confidence", report.Confidence))
	return result, nil
}

// groundOne matches a single ingredient with fault isolation: a panic in
// the match path for one item becomes that item's fallback verdict.
func (s *GroundingService) groundOne(ctx context.Context, ing domain.RawIngredient) (item domain.GroundedItem) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("ingredient grounding panicked, degrading to fallback",
				zap.String("name", ing.Name),
				zap.Any("panic", r))
			item = domain.GroundedItem{
				Name:           ing.Name,
				NormalizedName: ing.Name,
				Source:         domain.MatchFallback,
			}
		}
	}()

	if ctx.Err() != nil {
		// Batch cancelled while this item was queued.
		return domain.GroundedItem{
			Name:           ing.Name,
			NormalizedName: ing.Name,
			Source:         domain.MatchFallback,
		}
	}
	return s.matcher.SearchBestMatch(ctx, ing.Name)
}
