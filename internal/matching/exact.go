package matching

import (
	"context"

	"go.uber.org/zap"

	"github.com/sells-group/attribution/internal/model"
)

const (
	// exactMinPhraseHits is how many distinct key phrases must appear in the
	// candidate before an exact match is declared. A single phrase recurs too
	// easily across unrelated coverage.
	exactMinPhraseHits = 2

	// exactConfidence is fixed: verbatim phrase reuse is the strongest signal
	// the cascade has.
	exactConfidence = 0.95
)

// ExactPhraseMatcher matches candidates that reuse the fingerprint's seeded
// key phrases verbatim. Purely local, no gateway calls.
type ExactPhraseMatcher struct{}

// NewExactPhraseMatcher creates the exact phrase stage.
func NewExactPhraseMatcher() *ExactPhraseMatcher {
	return &ExactPhraseMatcher{}
}

func (m *ExactPhraseMatcher) Name() string { return "exact_phrase" }

// Attempt scans the candidate's full text for key phrase hits. The title is
// not part of the haystack. The first fingerprint in load order reaching the
// hit threshold wins.
func (m *ExactPhraseMatcher) Attempt(ctx context.Context, cand model.CandidateContent, fingerprints []model.Fingerprint) (*model.MatchResult, error) {
	for i := range fingerprints {
		fp := &fingerprints[i]
		hits, phrases := fp.PhraseHits(cand.Text)
		if hits < exactMinPhraseHits {
			continue
		}

		zap.L().Debug("exact phrase match",
			zap.String("fingerprint_id", fp.ID),
			zap.String("source_url", cand.URL),
			zap.Int("phrase_hits", hits),
		)

		return &model.MatchResult{
			Fingerprint: fp,
			Confidence:  exactConfidence,
			MatchType:   model.MatchTypeExactPhrase,
			Detail: model.MatchDetail{
				MatchedPhrases: phrases,
			},
		}, nil
	}

	return nil, nil
}
