package matching

import (
	"context"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/attribution/internal/model"
	"github.com/sells-group/attribution/internal/store"
)

func TestSemanticMatcher_BestAboveThreshold(t *testing.T) {
	embedder := &mockEmbedder{}
	st := &mockStore{}
	m := NewSemanticMatcher(embedder, st, testMatchingConfig())

	cand := testCandidate()
	vec := []float32{0.1, 0.2, 0.3}
	embedder.On("Embed", mock.Anything, cand.Text).Return(vec, nil)

	st.On("SearchFingerprintEmbeddings", mock.Anything, "org-1", vec, 0.75, 3).Return([]store.FingerprintMatch{
		{Fingerprint: testFingerprint("fp-9"), Similarity: 0.91},
		{Fingerprint: testFingerprint("fp-2"), Similarity: 0.82},
	}, nil)

	result, err := m.Attempt(context.Background(), cand, []model.Fingerprint{testFingerprint("fp-1")})
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Equal(t, "fp-9", result.Fingerprint.ID)
	assert.Equal(t, model.MatchTypeSemantic, result.MatchType)
	assert.InDelta(t, 0.91, result.Confidence, 0.001)
	assert.InDelta(t, 0.91, result.Detail.Similarity, 0.001)
	assert.Equal(t, 9, result.Detail.ElapsedDays)

	embedder.AssertExpectations(t)
	st.AssertExpectations(t)
}

func TestSemanticMatcher_StaleBestRejectsStage(t *testing.T) {
	embedder := &mockEmbedder{}
	st := &mockStore{}
	m := NewSemanticMatcher(embedder, st, testMatchingConfig())

	cand := testCandidate()
	embedder.On("Embed", mock.Anything, mock.Anything).Return([]float32{0.5}, nil)

	stale := testFingerprint("fp-old")
	stale.ExportedAt = cand.PublishedAt.AddDate(0, 0, -45)
	fresh := testFingerprint("fp-new")

	st.On("SearchFingerprintEmbeddings", mock.Anything, "org-1", mock.Anything, 0.75, 3).Return([]store.FingerprintMatch{
		{Fingerprint: stale, Similarity: 0.95},
		{Fingerprint: fresh, Similarity: 0.80},
	}, nil)

	// A stale best neighbor rejects the whole stage; the fresh runner-up is
	// never promoted in its place.
	result, err := m.Attempt(context.Background(), cand, []model.Fingerprint{testFingerprint("fp-1")})
	require.NoError(t, err)
	assert.Nil(t, result)
}

func TestSemanticMatcher_AllStale(t *testing.T) {
	embedder := &mockEmbedder{}
	st := &mockStore{}
	m := NewSemanticMatcher(embedder, st, testMatchingConfig())

	cand := testCandidate()
	embedder.On("Embed", mock.Anything, mock.Anything).Return([]float32{0.5}, nil)

	stale := testFingerprint("fp-old")
	stale.ExportedAt = cand.PublishedAt.AddDate(0, 0, -31)

	st.On("SearchFingerprintEmbeddings", mock.Anything, "org-1", mock.Anything, 0.75, 3).Return([]store.FingerprintMatch{
		{Fingerprint: stale, Similarity: 0.95},
	}, nil)

	result, err := m.Attempt(context.Background(), cand, []model.Fingerprint{testFingerprint("fp-1")})
	require.NoError(t, err)
	assert.Nil(t, result)
}

func TestSemanticMatcher_NoNeighbors(t *testing.T) {
	embedder := &mockEmbedder{}
	st := &mockStore{}
	m := NewSemanticMatcher(embedder, st, testMatchingConfig())

	embedder.On("Embed", mock.Anything, mock.Anything).Return([]float32{0.5}, nil)
	st.On("SearchFingerprintEmbeddings", mock.Anything, "org-1", mock.Anything, 0.75, 3).Return([]store.FingerprintMatch{}, nil)

	result, err := m.Attempt(context.Background(), testCandidate(), []model.Fingerprint{testFingerprint("fp-1")})
	require.NoError(t, err)
	assert.Nil(t, result)
}

func TestSemanticMatcher_EmbedError(t *testing.T) {
	embedder := &mockEmbedder{}
	st := &mockStore{}
	m := NewSemanticMatcher(embedder, st, testMatchingConfig())

	embedder.On("Embed", mock.Anything, mock.Anything).Return(nil, eris.New("gateway timeout"))

	result, err := m.Attempt(context.Background(), testCandidate(), []model.Fingerprint{testFingerprint("fp-1")})
	assert.Error(t, err)
	assert.Nil(t, result)
	st.AssertNotCalled(t, "SearchFingerprintEmbeddings", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSemanticMatcher_NoFingerprints(t *testing.T) {
	embedder := &mockEmbedder{}
	st := &mockStore{}
	m := NewSemanticMatcher(embedder, st, testMatchingConfig())

	result, err := m.Attempt(context.Background(), testCandidate(), nil)
	require.NoError(t, err)
	assert.Nil(t, result)
	embedder.AssertNotCalled(t, "Embed", mock.Anything, mock.Anything)
}

func TestElapsedDays(t *testing.T) {
	export := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, 0, elapsedDays(export, export))
	assert.Equal(t, 9, elapsedDays(export, export.AddDate(0, 0, 9)))
	// Publish before export floors at zero.
	assert.Equal(t, 0, elapsedDays(export, export.AddDate(0, 0, -3)))
}
