package matching

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/attribution/internal/model"
)

func TestExactPhraseMatcher_TwoHits(t *testing.T) {
	m := NewExactPhraseMatcher()
	cand := testCandidate()
	cand.Text = "Acme announced a remote-first hiring push, cutting office spend by half."

	fps := []model.Fingerprint{
		testFingerprint("fp-1", "remote-first hiring", "office spend"),
	}

	result, err := m.Attempt(context.Background(), cand, fps)
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Equal(t, "fp-1", result.Fingerprint.ID)
	assert.Equal(t, model.MatchTypeExactPhrase, result.MatchType)
	assert.InDelta(t, 0.95, result.Confidence, 0.001)
	assert.Equal(t, []string{"remote-first hiring", "office spend"}, result.Detail.MatchedPhrases)
}

func TestExactPhraseMatcher_SingleHitInsufficient(t *testing.T) {
	m := NewExactPhraseMatcher()
	cand := testCandidate()
	cand.Text = "Acme announced a remote-first hiring push."

	fps := []model.Fingerprint{
		testFingerprint("fp-1", "remote-first hiring", "four-day workweek"),
	}

	result, err := m.Attempt(context.Background(), cand, fps)
	require.NoError(t, err)
	assert.Nil(t, result)
}

func TestExactPhraseMatcher_CaseInsensitive(t *testing.T) {
	m := NewExactPhraseMatcher()
	cand := testCandidate()
	cand.Text = "After REMOTE-FIRST HIRING took hold, the company slashed OFFICE SPEND."

	fps := []model.Fingerprint{
		testFingerprint("fp-1", "Remote-First Hiring", "Office Spend"),
	}

	result, err := m.Attempt(context.Background(), cand, fps)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, "fp-1", result.Fingerprint.ID)
}

func TestExactPhraseMatcher_TitleNotPartOfHaystack(t *testing.T) {
	m := NewExactPhraseMatcher()
	cand := testCandidate()
	cand.Title = "Acme bets on remote-first hiring"
	cand.Text = "The move should trim office spend."

	fps := []model.Fingerprint{
		testFingerprint("fp-1", "remote-first hiring", "office spend"),
	}

	// Only one phrase appears in the text; the title hit does not count.
	result, err := m.Attempt(context.Background(), cand, fps)
	require.NoError(t, err)
	assert.Nil(t, result)
}

func TestExactPhraseMatcher_FirstInLoadOrderWins(t *testing.T) {
	m := NewExactPhraseMatcher()
	cand := testCandidate()
	cand.Text = "remote-first hiring and office spend and four-day workweek"

	fps := []model.Fingerprint{
		testFingerprint("fp-1", "remote-first hiring", "office spend"),
		testFingerprint("fp-2", "office spend", "four-day workweek"),
	}

	result, err := m.Attempt(context.Background(), cand, fps)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, "fp-1", result.Fingerprint.ID)
}

func TestExactPhraseMatcher_NoFingerprints(t *testing.T) {
	m := NewExactPhraseMatcher()

	result, err := m.Attempt(context.Background(), testCandidate(), nil)
	require.NoError(t, err)
	assert.Nil(t, result)
}
