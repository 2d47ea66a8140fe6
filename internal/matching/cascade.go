package matching

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/attribution/internal/model"
	"github.com/sells-group/attribution/internal/resilience"
	"github.com/sells-group/attribution/internal/store"
)

// No-match reasons reported by the cascade.
const (
	ReasonNoActiveFingerprints = "no_active_fingerprints"
	ReasonNoSufficientMatch    = "no_sufficient_match"
)

// Cascade runs the matchers in fixed order against the org's active
// fingerprints and short-circuits on the first sufficient match. Stage
// errors degrade to "no result for this stage"; only failing to load the
// fingerprints at all is fatal.
type Cascade struct {
	store    store.Store
	matchers []Matcher
	breakers map[string]*resilience.CircuitBreaker
}

// NewCascade builds the cascade over the given stages. Gateway-backed stage
// names listed in gatewayStages get a circuit breaker so a dead gateway
// fails fast instead of timing out on every candidate.
func NewCascade(st store.Store, matchers []Matcher, gatewayStages ...string) *Cascade {
	breakers := make(map[string]*resilience.CircuitBreaker, len(gatewayStages))
	for _, name := range gatewayStages {
		breakers[name] = resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
			OnStateChange: func(from, to resilience.CircuitState) {
				zap.L().Warn("matcher circuit state change",
					zap.String("matcher", name),
					zap.String("from", from.String()),
					zap.String("to", to.String()),
				)
			},
		})
	}
	return &Cascade{store: st, matchers: matchers, breakers: breakers}
}

// Match checks one candidate against the org's active fingerprints. When no
// stage produces a sufficient match the result is nil and reason explains
// why; reason is empty on a match.
func (c *Cascade) Match(ctx context.Context, orgID string, cand model.CandidateContent) (*model.MatchResult, string, error) {
	fingerprints, err := c.store.ListActiveFingerprints(ctx, orgID, time.Now().UTC())
	if err != nil {
		return nil, "", eris.Wrap(err, "matching: load active fingerprints")
	}
	if len(fingerprints) == 0 {
		return nil, ReasonNoActiveFingerprints, nil
	}

	for _, m := range c.matchers {
		result, err := c.attempt(ctx, m, cand, fingerprints)
		if err != nil {
			zap.L().Warn("matcher stage failed",
				zap.String("matcher", m.Name()),
				zap.String("source_url", cand.URL),
				zap.Bool("transient", resilience.IsTransient(err)),
				zap.Error(err),
			)
			continue
		}
		if result != nil {
			zap.L().Info("candidate matched",
				zap.String("matcher", m.Name()),
				zap.String("fingerprint_id", result.Fingerprint.ID),
				zap.String("source_url", cand.URL),
				zap.Float64("confidence", result.Confidence),
			)
			return result, "", nil
		}
	}

	return nil, ReasonNoSufficientMatch, nil
}

func (c *Cascade) attempt(ctx context.Context, m Matcher, cand model.CandidateContent, fingerprints []model.Fingerprint) (*model.MatchResult, error) {
	cb, ok := c.breakers[m.Name()]
	if !ok {
		return m.Attempt(ctx, cand, fingerprints)
	}
	return resilience.ExecuteVal(ctx, cb, func(ctx context.Context) (*model.MatchResult, error) {
		return m.Attempt(ctx, cand, fingerprints)
	})
}
