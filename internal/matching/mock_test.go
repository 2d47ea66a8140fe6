package matching

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/sells-group/attribution/internal/config"
	"github.com/sells-group/attribution/internal/model"
	"github.com/sells-group/attribution/internal/store"
	"github.com/sells-group/attribution/pkg/anthropic"
)

// mockStore implements store.Store via testify mocks.
type mockStore struct {
	mock.Mock
}

func (m *mockStore) CreateFingerprint(ctx context.Context, fp *model.Fingerprint) error {
	return m.Called(ctx, fp).Error(0)
}

func (m *mockStore) BulkCreateFingerprints(ctx context.Context, fps []model.Fingerprint) (int64, error) {
	args := m.Called(ctx, fps)
	return int64(args.Int(0)), args.Error(1)
}

func (m *mockStore) ListActiveFingerprints(ctx context.Context, orgID string, now time.Time) ([]model.Fingerprint, error) {
	args := m.Called(ctx, orgID, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Fingerprint), args.Error(1)
}

func (m *mockStore) MarkFingerprintMatched(ctx context.Context, fingerprintID string) error {
	return m.Called(ctx, fingerprintID).Error(0)
}

func (m *mockStore) SearchFingerprintEmbeddings(ctx context.Context, orgID string, embedding []float32, threshold float64, limit int) ([]store.FingerprintMatch, error) {
	args := m.Called(ctx, orgID, embedding, threshold, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]store.FingerprintMatch), args.Error(1)
}

func (m *mockStore) GetAttribution(ctx context.Context, fingerprintID, sourceURL string) (*model.Attribution, error) {
	args := m.Called(ctx, fingerprintID, sourceURL)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Attribution), args.Error(1)
}

func (m *mockStore) CreateAttribution(ctx context.Context, a *model.Attribution) error {
	return m.Called(ctx, a).Error(0)
}

func (m *mockStore) ListAttributions(ctx context.Context, filter store.AttributionFilter) ([]model.Attribution, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Attribution), args.Error(1)
}

func (m *mockStore) CreateOutcome(ctx context.Context, o *model.StrategyOutcome) error {
	return m.Called(ctx, o).Error(0)
}

func (m *mockStore) ListSuccessfulStrategies(ctx context.Context, orgID, excludeStrategyID string, minScore float64, limit int) ([]model.StrategyScore, error) {
	args := m.Called(ctx, orgID, excludeStrategyID, minScore, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.StrategyScore), args.Error(1)
}

func (m *mockStore) GetStrategyEmbedding(ctx context.Context, strategyID string) (*model.StrategyEmbedding, error) {
	args := m.Called(ctx, strategyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.StrategyEmbedding), args.Error(1)
}

func (m *mockStore) UpsertStrategyEmbedding(ctx context.Context, se *model.StrategyEmbedding) error {
	return m.Called(ctx, se).Error(0)
}

func (m *mockStore) BoostStrategySalience(ctx context.Context, strategyID string, factor float64) error {
	return m.Called(ctx, strategyID, factor).Error(0)
}

func (m *mockStore) CreateWaypoint(ctx context.Context, w *model.StrategyWaypoint) error {
	return m.Called(ctx, w).Error(0)
}

func (m *mockStore) ListWaypoints(ctx context.Context, orgID, fromStrategyID string) ([]model.StrategyWaypoint, error) {
	args := m.Called(ctx, orgID, fromStrategyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.StrategyWaypoint), args.Error(1)
}

func (m *mockStore) Migrate(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockStore) Close() error {
	return m.Called().Error(0)
}

// mockEmbedder implements embeddings.Client.
type mockEmbedder struct {
	mock.Mock
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]float32), args.Error(1)
}

// mockAnthropic implements anthropic.Client.
type mockAnthropic struct {
	mock.Mock
}

func (m *mockAnthropic) CreateMessage(ctx context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*anthropic.MessageResponse), args.Error(1)
}

// textResponse wraps text in a single-block classifier response.
func textResponse(text string) *anthropic.MessageResponse {
	return &anthropic.MessageResponse{
		Content: []anthropic.ContentBlock{{Type: "text", Text: text}},
	}
}

// testMatchingConfig returns the production cascade thresholds.
func testMatchingConfig() config.MatchingConfig {
	return config.MatchingConfig{
		SemanticThreshold:      0.75,
		SemanticTopK:           3,
		SemanticMaxElapsedDays: 30,
		ContextualThreshold:    0.65,
		ContextualMaxChecks:    5,
	}
}

// testFingerprint builds an active fingerprint for tests.
func testFingerprint(id string, phrases ...string) model.Fingerprint {
	return model.Fingerprint{
		ID:                id,
		OrgID:             "org-1",
		CampaignID:        "camp-1",
		ContentID:         "content-" + id,
		KeyPhrases:        phrases,
		UniqueAngles:      []string{"remote-first hiring cuts office spend"},
		ContentType:       model.ContentTypePressRelease,
		ExpectedChannels:  []string{"news", "blog"},
		Status:            model.ExportStatusExported,
		ExportedAt:        time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		TrackingWindowEnd: time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
	}
}

// testCandidate builds a news candidate for tests.
func testCandidate() model.CandidateContent {
	return model.CandidateContent{
		Title:        "Acme bets on remote-first hiring",
		Text:         "Acme announced a remote-first hiring push this week.",
		URL:          "https://news.example.com/acme-remote",
		SourceType:   model.SourceTypeNews,
		SourceOutlet: "Example News",
		PublishedAt:  time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
	}
}
