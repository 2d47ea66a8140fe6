package model

import (
	"strings"
	"time"
)

// ExportStatus tracks a fingerprint through its lifecycle. Transitions are
// monotonic: draft → exported → matched. A matched fingerprint stays
// eligible for further attributions until its tracking window closes.
type ExportStatus string

const (
	ExportStatusDraft    ExportStatus = "draft"
	ExportStatusExported ExportStatus = "exported"
	ExportStatusMatched  ExportStatus = "matched"
)

// ContentType categorizes the seeded content a fingerprint was derived from.
type ContentType string

const (
	ContentTypePressRelease ContentType = "press-release"
	ContentTypeSocialPost   ContentType = "social-post"
	ContentTypeByline       ContentType = "byline"
	ContentTypePitch        ContentType = "pitch"
	ContentTypeOther        ContentType = "other"
)

// AllContentTypes returns all defined content types.
func AllContentTypes() []ContentType {
	return []ContentType{
		ContentTypePressRelease,
		ContentTypeSocialPost,
		ContentTypeByline,
		ContentTypePitch,
		ContentTypeOther,
	}
}

// Fingerprint describes one piece of campaign-seeded content. Fingerprints
// are created by the campaign-authoring side at export time; this subsystem
// only reads them and advances their export status.
type Fingerprint struct {
	ID                string       `json:"id"`
	OrgID             string       `json:"org_id"`
	CampaignID        string       `json:"campaign_id"`
	ContentID         string       `json:"content_id"`
	KeyPhrases        []string     `json:"key_phrases"`
	UniqueAngles      []string     `json:"unique_angles"`
	ContentType       ContentType  `json:"content_type"`
	ExpectedChannels  []string     `json:"expected_channels"`
	Status            ExportStatus `json:"status"`
	ExportedAt        time.Time    `json:"exported_at"`
	TrackingWindowEnd time.Time    `json:"tracking_window_end"`
	Embedding         []float32    `json:"embedding,omitempty"`
	CreatedAt         time.Time    `json:"created_at"`
}

// Active reports whether the fingerprint is eligible for new matching at the
// given instant: status exported or matched, tracking window still open.
func (f *Fingerprint) Active(now time.Time) bool {
	if f.Status != ExportStatusExported && f.Status != ExportStatusMatched {
		return false
	}
	return !f.TrackingWindowEnd.Before(now)
}

// PhraseHits counts how many of the fingerprint's key phrases occur as
// case-insensitive substrings of text. Empty phrases never count.
func (f *Fingerprint) PhraseHits(text string) (int, []string) {
	lower := strings.ToLower(text)
	var matched []string
	for _, phrase := range f.KeyPhrases {
		p := strings.TrimSpace(phrase)
		if p == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(p)) {
			matched = append(matched, phrase)
		}
	}
	return len(matched), matched
}
