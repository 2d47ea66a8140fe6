package matching

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/attribution/internal/config"
	"github.com/sells-group/attribution/internal/model"
	"github.com/sells-group/attribution/pkg/anthropic"
)

const contextualSystemPrompt = `You judge whether an external content item is coverage resulting from a specific seeded campaign content piece. You are given the campaign piece's unique angles, key phrases, expected channels, content type, and export time, plus the external item. Coverage may paraphrase heavily; judge by substance, not wording. Respond with a valid JSON object: {"is_match": <true|false>, "confidence": <0.0-1.0>, "reasoning": "<one or two sentences>", "matched_elements": ["<angle or phrase that carried over>", ...]}`

const contextualUserPrompt = `Campaign content piece:
- Content type: %s
- Unique angles: %s
- Key phrases: %s
- Expected channels: %s
- Exported: %s

External content item:
- Title: %s
- Source: %s (%s)
- Published: %s

Text (truncated):
%s`

// contextualTextLimit bounds how much candidate text goes into each
// classifier prompt.
const contextualTextLimit = 2000

// ContextualMatcher is the last cascade stage: an LLM judges whether the
// candidate is paraphrased coverage of a fingerprint. The most expensive
// stage, so it checks a bounded prefix of the load order.
type ContextualMatcher struct {
	client    anthropic.Client
	modelName string
	cfg       config.MatchingConfig
}

// NewContextualMatcher creates the contextual stage using the given
// classifier model (Haiku in production).
func NewContextualMatcher(client anthropic.Client, classifierModel string, cfg config.MatchingConfig) *ContextualMatcher {
	return &ContextualMatcher{client: client, modelName: classifierModel, cfg: cfg}
}

func (m *ContextualMatcher) Name() string { return "contextual" }

// Attempt classifies the candidate against up to ContextualMaxChecks
// fingerprints concurrently, then accepts the first fingerprint in load
// order whose classification clears the confidence threshold. Classifier
// errors and unparseable responses count as zero-confidence non-matches.
func (m *ContextualMatcher) Attempt(ctx context.Context, cand model.CandidateContent, fingerprints []model.Fingerprint) (*model.MatchResult, error) {
	checks := fingerprints
	if len(checks) > m.cfg.ContextualMaxChecks {
		checks = checks[:m.cfg.ContextualMaxChecks]
	}
	if len(checks) == 0 {
		return nil, nil
	}

	systemBlocks := anthropic.BuildCachedSystemBlocks(contextualSystemPrompt)
	text := cand.Text
	if len(text) > contextualTextLimit {
		text = model.TruncateText(text, contextualTextLimit)
	}

	verdicts := make([]classification, len(checks))
	g, gctx := errgroup.WithContext(ctx)
	for i := range checks {
		g.Go(func() error {
			verdicts[i] = m.classify(gctx, cand, text, systemBlocks, &checks[i])
			return nil
		})
	}
	// Goroutines never return errors; failures become zero-confidence
	// verdicts so one flaky call cannot sink the whole stage.
	_ = g.Wait()

	for i := range checks {
		v := verdicts[i]
		if !v.IsMatch || v.Confidence <= m.cfg.ContextualThreshold {
			continue
		}

		zap.L().Debug("contextual match",
			zap.String("fingerprint_id", checks[i].ID),
			zap.String("source_url", cand.URL),
			zap.Float64("confidence", v.Confidence),
		)

		return &model.MatchResult{
			Fingerprint: &checks[i],
			Confidence:  v.Confidence,
			MatchType:   model.MatchTypeContextual,
			Detail: model.MatchDetail{
				MatchedElements: v.MatchedElements,
				Reasoning:       v.Reasoning,
			},
		}, nil
	}

	return nil, nil
}

// classify runs one classifier call. Any failure is reported as a
// non-match with zero confidence.
func (m *ContextualMatcher) classify(ctx context.Context, cand model.CandidateContent, text string, systemBlocks []anthropic.SystemBlock, fp *model.Fingerprint) classification {
	prompt := fmt.Sprintf(contextualUserPrompt,
		fp.ContentType,
		strings.Join(fp.UniqueAngles, "; "),
		strings.Join(fp.KeyPhrases, "; "),
		strings.Join(fp.ExpectedChannels, ", "),
		fp.ExportedAt.Format(time.RFC3339),
		cand.Title,
		cand.SourceOutlet,
		cand.SourceType,
		cand.PublishedAt.Format(time.RFC3339),
		text,
	)

	resp, err := m.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     m.modelName,
		MaxTokens: 512,
		System:    systemBlocks,
		Messages: []anthropic.Message{
			{Role: "user", Content: prompt},
		},
	})
	if err != nil {
		zap.L().Warn("contextual classifier call failed",
			zap.String("fingerprint_id", fp.ID),
			zap.String("source_url", cand.URL),
			zap.Error(err),
		)
		return classification{}
	}
	resp.Usage.LogCost(m.modelName, "contextual_classify")

	cleaned := cleanJSON(resp.Text())
	var c classification
	if err := json.Unmarshal([]byte(cleaned), &c); err != nil {
		zap.L().Debug("failed to parse classification JSON",
			zap.String("fingerprint_id", fp.ID),
			zap.Error(err),
		)
		return classification{}
	}
	return c
}

// cleanJSON strips markdown fences and extracts the JSON object.
func cleanJSON(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		text = text[start : end+1]
	}

	return strings.TrimSpace(text)
}

// classification is one fingerprint's classifier verdict.
type classification struct {
	IsMatch         bool     `json:"is_match"`
	Confidence      float64  `json:"confidence"`
	Reasoning       string   `json:"reasoning"`
	MatchedElements []string `json:"matched_elements"`
}
