package model

import (
	"time"
	"unicode/utf8"
)

// SourceType identifies where a piece of candidate content was observed.
type SourceType string

const (
	SourceTypeNews     SourceType = "news"
	SourceTypeTwitter  SourceType = "twitter"
	SourceTypeLinkedIn SourceType = "linkedin"
	SourceTypeBlog     SourceType = "blog"
	SourceTypeOther    SourceType = "other"
)

// MatchType identifies which cascade stage produced a match.
type MatchType string

const (
	MatchTypeExactPhrase MatchType = "exact_phrase"
	MatchTypeSemantic    MatchType = "semantic"
	MatchTypeContextual  MatchType = "contextual"
)

// MaxStoredTextLen bounds the verbatim candidate text kept on an attribution.
const MaxStoredTextLen = 2000

// CandidateContent is one externally observed content item submitted for
// attribution checking.
type CandidateContent struct {
	Title          string     `json:"title"`
	Text           string     `json:"text"`
	URL            string     `json:"url"`
	SourceType     SourceType `json:"source_type"`
	SourceOutlet   string     `json:"source_outlet"`
	PublishedAt    time.Time  `json:"published_at"`
	EstimatedReach int64      `json:"estimated_reach,omitempty"`
}

// MatchDetail is the free-form structured explanation attached to a match:
// matched phrases for the exact stage, similarity for the semantic stage,
// classifier reasoning for the contextual stage.
type MatchDetail struct {
	MatchedPhrases  []string `json:"matched_phrases,omitempty"`
	Similarity      float64  `json:"similarity,omitempty"`
	ElapsedDays     int      `json:"elapsed_days,omitempty"`
	MatchedElements []string `json:"matched_elements,omitempty"`
	Reasoning       string   `json:"reasoning,omitempty"`
}

// MatchResult is the cascade's verdict for one candidate: exactly one
// fingerprint, a confidence, and the stage that produced it.
type MatchResult struct {
	Fingerprint *Fingerprint `json:"fingerprint"`
	Confidence  float64      `json:"confidence"`
	MatchType   MatchType    `json:"match_type"`
	Detail      MatchDetail  `json:"detail"`
}

// Attribution is a confirmed link between one external content item and one
// fingerprint. Append-only: created once, never mutated. At most one
// attribution exists per (fingerprint_id, source_url) pair.
type Attribution struct {
	ID             string      `json:"id"`
	OrgID          string      `json:"org_id"`
	FingerprintID  string      `json:"fingerprint_id"`
	CampaignID     string      `json:"campaign_id"`
	SourceType     SourceType  `json:"source_type"`
	SourceURL      string      `json:"source_url"`
	SourceOutlet   string      `json:"source_outlet,omitempty"`
	Title          string      `json:"title"`
	Text           string      `json:"text"`
	PublishedAt    time.Time   `json:"published_at"`
	Confidence     float64     `json:"confidence"`
	MatchType      MatchType   `json:"match_type"`
	Detail         MatchDetail `json:"detail"`
	EstimatedReach int64       `json:"estimated_reach,omitempty"`
	Sentiment      string      `json:"sentiment,omitempty"`
	CreatedAt      time.Time   `json:"created_at"`
}

// TruncateText bounds text to max bytes for storage, backing off to the
// nearest rune boundary so the result stays valid UTF-8.
func TruncateText(text string, max int) string {
	if max <= 0 || len(text) <= max {
		return text
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut]
}
