package store

import (
	"context"
	"time"

	"github.com/sells-group/attribution/internal/model"
)

// AttributionFilter scopes an attribution listing. OrgID is required; at
// most one of CampaignID / ContentID is expected (ContentID is resolved
// through the owning fingerprint).
type AttributionFilter struct {
	OrgID      string `json:"org_id"`
	CampaignID string `json:"campaign_id,omitempty"`
	ContentID  string `json:"content_id,omitempty"`
	Limit      int    `json:"limit,omitempty"`
}

// FingerprintMatch pairs a fingerprint with its cosine similarity to a
// query embedding.
type FingerprintMatch struct {
	Fingerprint model.Fingerprint `json:"fingerprint"`
	Similarity  float64           `json:"similarity"`
}

// Store defines the persistence interface for the attribution engine.
type Store interface {
	// Fingerprints
	CreateFingerprint(ctx context.Context, fp *model.Fingerprint) error
	BulkCreateFingerprints(ctx context.Context, fps []model.Fingerprint) (int64, error)
	ListActiveFingerprints(ctx context.Context, orgID string, now time.Time) ([]model.Fingerprint, error)
	MarkFingerprintMatched(ctx context.Context, fingerprintID string) error
	SearchFingerprintEmbeddings(ctx context.Context, orgID string, embedding []float32, threshold float64, limit int) ([]FingerprintMatch, error)

	// Attributions (append-only evidence records)
	GetAttribution(ctx context.Context, fingerprintID, sourceURL string) (*model.Attribution, error)
	CreateAttribution(ctx context.Context, a *model.Attribution) error
	ListAttributions(ctx context.Context, filter AttributionFilter) ([]model.Attribution, error)

	// Outcomes
	CreateOutcome(ctx context.Context, o *model.StrategyOutcome) error
	ListSuccessfulStrategies(ctx context.Context, orgID, excludeStrategyID string, minScore float64, limit int) ([]model.StrategyScore, error)

	// Learning graph
	GetStrategyEmbedding(ctx context.Context, strategyID string) (*model.StrategyEmbedding, error)
	UpsertStrategyEmbedding(ctx context.Context, se *model.StrategyEmbedding) error
	BoostStrategySalience(ctx context.Context, strategyID string, factor float64) error
	CreateWaypoint(ctx context.Context, w *model.StrategyWaypoint) error
	ListWaypoints(ctx context.Context, orgID, fromStrategyID string) ([]model.StrategyWaypoint, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
