package domain

import "errors"

var (
	// ErrInvalidIngredient is returned when a RawIngredient violates a
	// construction invariant (e.g., an amount from an unaudited source).
	ErrInvalidIngredient = errors.New("invalid ingredient")

	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrSearchUnavailable is returned when the food search API request fails
	ErrSearchUnavailable = errors.New("food search API request failed")

	// ErrArbiterUnavailable is returned when the external arbiter cannot rule
	ErrArbiterUnavailable = errors.New("arbiter request failed")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrCacheUnavailable is returned when the cache service is unavailable
	ErrCacheUnavailable = errors.New("cache service unavailable")

	// ErrRateLimited is returned when rate limit is exceeded
	ErrRateLimited = errors.New("rate limit exceeded")
)
