// Package matching implements the three-stage attribution cascade: exact
// phrase overlap, embedding similarity, then LLM contextual classification.
// Stages run in fixed order and the first sufficient match wins.
package matching

import (
	"context"

	"github.com/sells-group/attribution/internal/model"
)

// Matcher is one cascade stage. Attempt inspects the candidate against the
// supplied fingerprints and returns a result, or nil when the stage has no
// sufficient match. Fingerprints arrive in load order (ascending id) and
// implementations use that order to break ties.
type Matcher interface {
	Name() string
	Attempt(ctx context.Context, cand model.CandidateContent, fingerprints []model.Fingerprint) (*model.MatchResult, error)
}
