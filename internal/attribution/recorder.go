// Package attribution turns cascade match results into durable attribution
// records and exposes the combined check-and-record entry point.
package attribution

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/attribution/internal/model"
	"github.com/sells-group/attribution/internal/store"
)

// Recorder persists attributions idempotently. At most one attribution ever
// exists per (fingerprint, source URL) pair; re-checking the same content is
// always safe.
type Recorder struct {
	store store.Store
}

// NewRecorder creates a Recorder over the given store.
func NewRecorder(st store.Store) *Recorder {
	return &Recorder{store: st}
}

// Record persists the match as an attribution unless one already exists for
// the same fingerprint and source URL, in which case the existing record is
// returned unchanged. The second return reports whether a new record was
// created. On first creation the fingerprint advances to matched status.
func (r *Recorder) Record(ctx context.Context, orgID string, cand model.CandidateContent, result *model.MatchResult) (*model.Attribution, bool, error) {
	fp := result.Fingerprint

	existing, err := r.store.GetAttribution(ctx, fp.ID, cand.URL)
	if err != nil {
		return nil, false, eris.Wrap(err, "attribution: lookup existing")
	}
	if existing != nil {
		zap.L().Debug("attribution already recorded",
			zap.String("attribution_id", existing.ID),
			zap.String("fingerprint_id", fp.ID),
			zap.String("source_url", cand.URL),
		)
		return existing, false, nil
	}

	a := &model.Attribution{
		ID:             uuid.New().String(),
		OrgID:          orgID,
		FingerprintID:  fp.ID,
		CampaignID:     fp.CampaignID,
		SourceType:     cand.SourceType,
		SourceURL:      cand.URL,
		SourceOutlet:   cand.SourceOutlet,
		Title:          cand.Title,
		Text:           model.TruncateText(cand.Text, model.MaxStoredTextLen),
		PublishedAt:    cand.PublishedAt,
		Confidence:     result.Confidence,
		MatchType:      result.MatchType,
		Detail:         result.Detail,
		EstimatedReach: cand.EstimatedReach,
		CreatedAt:      time.Now().UTC(),
	}

	if err := r.store.CreateAttribution(ctx, a); err != nil {
		// A concurrent check may have inserted the same pair between our
		// lookup and the insert. The unique constraint makes the insert
		// lose; the stored record wins.
		if dup, lookupErr := r.store.GetAttribution(ctx, fp.ID, cand.URL); lookupErr == nil && dup != nil {
			return dup, false, nil
		}
		return nil, false, eris.Wrap(err, "attribution: create")
	}

	if err := r.store.MarkFingerprintMatched(ctx, fp.ID); err != nil {
		return nil, false, eris.Wrap(err, "attribution: mark fingerprint matched")
	}

	zap.L().Info("attribution recorded",
		zap.String("attribution_id", a.ID),
		zap.String("fingerprint_id", fp.ID),
		zap.String("campaign_id", fp.CampaignID),
		zap.String("source_url", cand.URL),
		zap.String("match_type", string(a.MatchType)),
		zap.Float64("confidence", a.Confidence),
	)

	return a, true, nil
}
