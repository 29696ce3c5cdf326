package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the engine's prometheus collectors. All counters are
// observability only; nothing in the grounding path reads them back.
type Metrics struct {
	PortionTier   *prometheus.CounterVec
	MatchStrategy *prometheus.CounterVec
	MatchOutcome  *prometheus.CounterVec
	CacheHits     prometheus.Counter
	CacheMisses   prometheus.Counter
	ArbiterCalls  prometheus.Counter
}

// New registers the engine collectors on the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		PortionTier: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nutriground",
			Name:      "portion_resolutions_total",
			Help:      "Portion resolutions by trust tier.",
		}, []string{"tier"}),
		MatchStrategy: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nutriground",
			Name:      "match_strategy_attempts_total",
			Help:      "Search strategy attempts by strategy number.",
		}, []string{"strategy"}),
		MatchOutcome: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nutriground",
			Name:      "match_outcomes_total",
			Help:      "Grounding outcomes by source (matched, fallback, ambiguous).",
		}, []string{"source"}),
		CacheHits: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "nutriground",
			Name:      "search_cache_hits_total",
			Help:      "Food search cache hits.",
		}),
		CacheMisses: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "nutriground",
			Name:      "search_cache_misses_total",
			Help:      "Food search cache misses.",
		}),
		ArbiterCalls: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "nutriground",
			Name:      "arbiter_calls_total",
			Help:      "Tie-break delegations to the external arbiter.",
		}),
	}
}

// NewNop returns metrics backed by a throwaway registry, for tests.
func NewNop() *Metrics {
	return New(prometheus.NewRegistry())
}
