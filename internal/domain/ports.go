package domain

import (
	"context"
	"time"
)

// FoodSearchClient is the port to the external food-composition database.
// The engine assumes nothing about the ordering of the returned records.
type FoodSearchClient interface {
	Search(ctx context.Context, query string) ([]FoodCandidate, error)
}

// Arbiter breaks ties between close, non-conflicting candidates. It receives
// at most three candidates and returns the chosen index. It can never
// introduce a candidate the scorer rejected.
type Arbiter interface {
	Choose(ctx context.Context, query string, candidates []FoodCandidate) (int, error)
}

// Cache is the injected key/value cache port. Keys are built
// deterministically from {purpose, version tag, normalized query} so that a
// matching-logic version bump invalidates stale entries safely.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}
