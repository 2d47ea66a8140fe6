package matching

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/attribution/internal/config"
	"github.com/sells-group/attribution/internal/model"
	"github.com/sells-group/attribution/internal/store"
	"github.com/sells-group/attribution/pkg/embeddings"
)

// SemanticMatcher matches candidates to fingerprints by embedding similarity.
// The candidate text is embedded through the gateway and compared against
// stored fingerprint embeddings with a nearest-neighbor search.
type SemanticMatcher struct {
	embedder embeddings.Client
	store    store.Store
	cfg      config.MatchingConfig
}

// NewSemanticMatcher creates the semantic stage.
func NewSemanticMatcher(embedder embeddings.Client, st store.Store, cfg config.MatchingConfig) *SemanticMatcher {
	return &SemanticMatcher{embedder: embedder, store: st, cfg: cfg}
}

func (m *SemanticMatcher) Name() string { return "semantic" }

// Attempt embeds the candidate and takes the most similar fingerprint above
// the similarity threshold, provided the candidate published within the
// staleness window of the fingerprint's export. Confidence is the cosine
// similarity itself.
func (m *SemanticMatcher) Attempt(ctx context.Context, cand model.CandidateContent, fingerprints []model.Fingerprint) (*model.MatchResult, error) {
	if len(fingerprints) == 0 {
		return nil, nil
	}
	orgID := fingerprints[0].OrgID

	vec, err := m.embedder.Embed(ctx, cand.Text)
	if err != nil {
		return nil, err
	}

	matches, err := m.store.SearchFingerprintEmbeddings(ctx, orgID, vec, m.cfg.SemanticThreshold, m.cfg.SemanticTopK)
	if err != nil {
		return nil, err
	}

	if len(matches) == 0 {
		return nil, nil
	}

	// Results arrive ordered by similarity descending. Only the best one
	// counts: a stale correlation is rejected even when textually similar,
	// and the whole stage yields nothing rather than settling for a weaker
	// neighbor.
	best := matches[0]
	elapsed := elapsedDays(best.Fingerprint.ExportedAt, cand.PublishedAt)
	if elapsed > m.cfg.SemanticMaxElapsedDays {
		zap.L().Debug("semantic match rejected as stale",
			zap.String("fingerprint_id", best.Fingerprint.ID),
			zap.String("source_url", cand.URL),
			zap.Int("elapsed_days", elapsed),
		)
		return nil, nil
	}

	zap.L().Debug("semantic match",
		zap.String("fingerprint_id", best.Fingerprint.ID),
		zap.String("source_url", cand.URL),
		zap.Float64("similarity", best.Similarity),
	)

	return &model.MatchResult{
		Fingerprint: &best.Fingerprint,
		Confidence:  best.Similarity,
		MatchType:   model.MatchTypeSemantic,
		Detail: model.MatchDetail{
			Similarity:  best.Similarity,
			ElapsedDays: elapsed,
		},
	}, nil
}

// elapsedDays is whole days from export to publish, floored at zero so
// coverage published the same day as the export always passes the window.
func elapsedDays(exportedAt, publishedAt time.Time) int {
	d := int(publishedAt.Sub(exportedAt).Hours() / 24)
	if d < 0 {
		return 0
	}
	return d
}
