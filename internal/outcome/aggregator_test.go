package outcome

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/attribution/internal/model"
	"github.com/sells-group/attribution/internal/store"
	"github.com/sells-group/attribution/pkg/anthropic"
)

const testLearningsModel = "claude-haiku-4-5-20251001"

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

func textResponse(text string) *anthropic.MessageResponse {
	return &anthropic.MessageResponse{
		Content: []anthropic.ContentBlock{{Type: "text", Text: text}},
	}
}

func newTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := store.NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

// attrSpec describes one seeded attribution.
type attrSpec struct {
	confidence float64
	reach      int64
	outlet     string
	sentiment  string
}

// seedCoverage creates a fingerprint for camp-1 and one attribution per spec.
func seedCoverage(t *testing.T, st *store.SQLiteStore, specs []attrSpec) {
	t.Helper()
	ctx := context.Background()

	fp := &model.Fingerprint{
		ID:                uuid.New().String(),
		OrgID:             "org-1",
		CampaignID:        "camp-1",
		ContentID:         "content-1",
		KeyPhrases:        []string{"remote-first hiring"},
		ContentType:       model.ContentTypePressRelease,
		Status:            model.ExportStatusMatched,
		ExportedAt:        time.Now().UTC().AddDate(0, 0, -10),
		TrackingWindowEnd: time.Now().UTC().AddDate(0, 0, 30),
		CreatedAt:         time.Now().UTC(),
	}
	require.NoError(t, st.CreateFingerprint(ctx, fp))

	base := time.Now().UTC().Add(-time.Hour)
	for i, spec := range specs {
		a := &model.Attribution{
			ID:             uuid.New().String(),
			OrgID:          "org-1",
			FingerprintID:  fp.ID,
			CampaignID:     "camp-1",
			SourceType:     model.SourceTypeNews,
			SourceURL:      fmt.Sprintf("https://news.example.com/story-%d", i),
			SourceOutlet:   spec.outlet,
			Title:          fmt.Sprintf("story %d", i),
			Text:           "coverage text",
			PublishedAt:    time.Now().UTC().AddDate(0, 0, -5),
			Confidence:     spec.confidence,
			MatchType:      model.MatchTypeExactPhrase,
			EstimatedReach: spec.reach,
			Sentiment:      spec.sentiment,
			CreatedAt:      base.Add(time.Duration(i) * time.Second),
		}
		require.NoError(t, st.CreateAttribution(ctx, a))
	}
}

// uniformCoverage builds n attribution specs with identical stats.
func uniformCoverage(n int, confidence float64, reach int64) []attrSpec {
	specs := make([]attrSpec, n)
	for i := range specs {
		specs[i] = attrSpec{confidence: confidence, reach: reach, outlet: "Example News"}
	}
	return specs
}

func campaignRequest() RecordRequest {
	return RecordRequest{OrgID: "org-1", StrategyID: "strat-1", CampaignID: "camp-1"}
}

func TestRecord_SuccessClassification(t *testing.T) {
	st := newTestStore(t)
	seedCoverage(t, st, uniformCoverage(12, 0.9, 100_000))

	agg := NewAggregator(st, nil, testLearningsModel)
	o, err := agg.Record(context.Background(), campaignRequest())
	require.NoError(t, err)

	assert.Equal(t, model.OutcomeSuccess, o.OutcomeType)
	assert.Equal(t, 12, o.TotalCoverage)
	assert.Equal(t, int64(1_200_000), o.TotalReach)
	assert.InDelta(t, 0.9, o.AverageConfidence, 0.001)

	// Coverage and reach components both saturate; confidence adds 0.9.
	assert.InDelta(t, 4.9, o.EffectivenessScore, 0.001)

	assert.False(t, o.FailureFactors.LowCoverage)
	assert.False(t, o.FailureFactors.LowConfidenceMatches)
	assert.False(t, o.FailureFactors.NegativeSentiment)
}

func TestRecord_HighVolumeLowConfidenceIsPartial(t *testing.T) {
	st := newTestStore(t)
	// Volume alone is not success; average confidence must exceed 0.8.
	seedCoverage(t, st, uniformCoverage(12, 0.6, 10_000))

	agg := NewAggregator(st, nil, testLearningsModel)
	o, err := agg.Record(context.Background(), campaignRequest())
	require.NoError(t, err)

	assert.Equal(t, model.OutcomePartial, o.OutcomeType)
	assert.True(t, o.FailureFactors.LowConfidenceMatches)
}

func TestRecord_PartialAndMinimalTiers(t *testing.T) {
	tests := []struct {
		name     string
		coverage int
		want     model.OutcomeType
	}{
		{"five placements is partial", 5, model.OutcomePartial},
		{"four placements is minimal", 4, model.OutcomeMinimal},
		{"one placement is minimal", 1, model.OutcomeMinimal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := newTestStore(t)
			seedCoverage(t, st, uniformCoverage(tt.coverage, 0.9, 50_000))

			agg := NewAggregator(st, nil, testLearningsModel)
			o, err := agg.Record(context.Background(), campaignRequest())
			require.NoError(t, err)
			assert.Equal(t, tt.want, o.OutcomeType)
		})
	}
}

func TestRecord_EmptyCoverageIsFailed(t *testing.T) {
	st := newTestStore(t)

	agg := NewAggregator(st, nil, testLearningsModel)
	o, err := agg.Record(context.Background(), campaignRequest())
	require.NoError(t, err)

	assert.Equal(t, model.OutcomeFailed, o.OutcomeType)
	assert.Zero(t, o.TotalCoverage)
	assert.Zero(t, o.TotalReach)
	assert.Zero(t, o.AverageConfidence)
	assert.Zero(t, o.EffectivenessScore)
	assert.True(t, o.FailureFactors.LowCoverage)
	assert.True(t, o.FailureFactors.LowConfidenceMatches)
	assert.Empty(t, o.SuccessFactors.TopOutlets)
}

func TestRecord_MissingScope(t *testing.T) {
	st := newTestStore(t)
	agg := NewAggregator(st, nil, testLearningsModel)

	_, err := agg.Record(context.Background(), RecordRequest{OrgID: "org-1"})
	assert.Error(t, err)

	_, err = agg.Record(context.Background(), RecordRequest{StrategyID: "strat-1"})
	assert.Error(t, err)
}

func TestRecord_TopOutletsFrequencyWithFirstSeenTieBreak(t *testing.T) {
	st := newTestStore(t)
	seedCoverage(t, st, []attrSpec{
		{confidence: 0.9, outlet: "Tribune"},
		{confidence: 0.9, outlet: "Gazette"},
		{confidence: 0.9, outlet: "Gazette"},
		{confidence: 0.9, outlet: "Herald"},
		{confidence: 0.9, outlet: "Courier"},
		{confidence: 0.9, outlet: "Courier"},
		{confidence: 0.9, outlet: "Ledger"},
		{confidence: 0.9, outlet: "Observer"},
	})

	agg := NewAggregator(st, nil, testLearningsModel)
	o, err := agg.Record(context.Background(), campaignRequest())
	require.NoError(t, err)

	// Gazette and Courier lead on frequency (Gazette first seen); the
	// singletons follow in first-seen order, capped at five.
	assert.Equal(t, []string{"Gazette", "Courier", "Tribune", "Herald", "Ledger"}, o.SuccessFactors.TopOutlets)
}

func TestRecord_SentimentStats(t *testing.T) {
	st := newTestStore(t)
	seedCoverage(t, st, []attrSpec{
		{confidence: 0.9, sentiment: "positive"},
		{confidence: 0.9, sentiment: "negative"},
		{confidence: 0.9, sentiment: "negative"},
		{confidence: 0.9, sentiment: "neutral"},
		{confidence: 0.9, sentiment: ""},
	})

	agg := NewAggregator(st, nil, testLearningsModel)
	o, err := agg.Record(context.Background(), campaignRequest())
	require.NoError(t, err)

	// One positive of four scored items; unscored items are excluded.
	assert.InDelta(t, 0.25, o.SuccessFactors.PositiveSentimentRate, 0.001)
	assert.True(t, o.FailureFactors.NegativeSentiment)
}

func TestRecord_LearningsFromLLM(t *testing.T) {
	st := newTestStore(t)
	seedCoverage(t, st, uniformCoverage(12, 0.9, 100_000))

	client := &mockAnthropic{}
	client.On("CreateMessage", mock.Anything, mock.Anything).Return(
		textResponse(`{"learnings": ["Press releases landed well in trade outlets.", "High phrase reuse drove exact matches.", "Double down on the remote-first angle."]}`), nil)

	agg := NewAggregator(st, client, testLearningsModel)
	o, err := agg.Record(context.Background(), campaignRequest())
	require.NoError(t, err)

	assert.Len(t, o.KeyLearnings, 3)
	assert.Equal(t, "Press releases landed well in trade outlets.", o.KeyLearnings[0])
	client.AssertExpectations(t)
}

func TestRecord_LearningsFallbackOnError(t *testing.T) {
	st := newTestStore(t)
	seedCoverage(t, st, uniformCoverage(6, 0.85, 50_000))

	client := &mockAnthropic{}
	client.On("CreateMessage", mock.Anything, mock.Anything).Return(nil, eris.New("overloaded"))

	agg := NewAggregator(st, client, testLearningsModel)
	o, err := agg.Record(context.Background(), campaignRequest())
	require.NoError(t, err)

	// The gateway failure never blocks recording.
	require.Len(t, o.KeyLearnings, 1)
	assert.Contains(t, o.KeyLearnings[0], "6 coverage placements")
}

func TestRecord_LearningsFallbackOnUnparseable(t *testing.T) {
	st := newTestStore(t)
	seedCoverage(t, st, uniformCoverage(6, 0.85, 50_000))

	client := &mockAnthropic{}
	client.On("CreateMessage", mock.Anything, mock.Anything).Return(textResponse("the campaign went fine"), nil)

	agg := NewAggregator(st, client, testLearningsModel)
	o, err := agg.Record(context.Background(), campaignRequest())
	require.NoError(t, err)
	require.Len(t, o.KeyLearnings, 1)
	assert.Contains(t, o.KeyLearnings[0], "average match confidence")
}

func TestRecord_NoDeduplication(t *testing.T) {
	st := newTestStore(t)
	seedCoverage(t, st, uniformCoverage(3, 0.9, 10_000))
	ctx := context.Background()

	agg := NewAggregator(st, nil, testLearningsModel)

	first, err := agg.Record(ctx, campaignRequest())
	require.NoError(t, err)
	second, err := agg.Record(ctx, campaignRequest())
	require.NoError(t, err)

	// Two invocations, two rows.
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, first.OutcomeType, second.OutcomeType)
}

func TestEffectiveness(t *testing.T) {
	tests := []struct {
		name  string
		stats coverageStats
		want  float64
	}{
		{"zero", coverageStats{}, 0},
		{"coverage only", coverageStats{coverage: 5}, 1.0},
		{"coverage saturates", coverageStats{coverage: 25}, 2.0},
		{"reach only", coverageStats{reach: 500_000}, 1.0},
		{"all saturated", coverageStats{coverage: 10, reach: 1_000_000, avgConfidence: 1.0}, 5.0},
		{"mixed", coverageStats{coverage: 8, reach: 250_000, avgConfidence: 0.8}, 1.6 + 0.5 + 0.8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, effectiveness(tt.stats), 0.0001)
		})
	}
}
