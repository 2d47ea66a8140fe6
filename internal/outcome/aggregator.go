// Package outcome aggregates recorded attributions into strategy outcome
// verdicts: coverage stats, a qualitative classification, a composite
// effectiveness score, and LLM-generated key learnings.
package outcome

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/attribution/internal/model"
	"github.com/sells-group/attribution/internal/store"
	"github.com/sells-group/attribution/pkg/anthropic"
)

// Classification thresholds. Success requires both volume and match quality;
// the lower tiers are volume-only.
const (
	successMinCoverage   = 10
	successMinConfidence = 0.8
	partialMinCoverage   = 5
	minimalMinCoverage   = 1
)

// Effectiveness scoring saturation points: 10 placements max out the
// coverage component, one million total reach maxes out the reach component.
const (
	coverageSaturation = 10.0
	reachSaturation    = 1_000_000.0
)

// Failure factor thresholds.
const (
	lowCoverageBelow    = 3
	lowConfidenceBelow  = 0.7
	topOutletsLimit     = 5
	learningsMaxOutlets = 3
)

const learningsSystemPrompt = `You analyze PR campaign performance data and extract key learnings. Given aggregate coverage statistics for one strategy, respond with a valid JSON object: {"learnings": ["<actionable takeaway>", ...]} containing 3 to 5 concise strings. Focus on what worked, what did not, and what to repeat or change.`

const learningsUserPrompt = `Strategy performance:
- Coverage placements: %d
- Total estimated reach: %d
- Average match confidence: %.2f
- Positive sentiment rate: %.2f
- Top outlets: %s
- Outcome classification: %s
- Effectiveness score: %.2f / 5`

// RecordRequest scopes one outcome recording. StrategyID names the strategy
// the verdict is stored under; CampaignID or ContentID selects which
// attributions are in scope.
type RecordRequest struct {
	OrgID      string `json:"org_id"`
	StrategyID string `json:"strategy_id"`
	CampaignID string `json:"campaign_id,omitempty"`
	ContentID  string `json:"content_id,omitempty"`
}

// Aggregator computes and persists strategy outcomes.
type Aggregator struct {
	store     store.Store
	client    anthropic.Client
	modelName string
}

// NewAggregator creates an Aggregator. The anthropic client generates key
// learnings; it may be nil, in which case the fallback learning is used.
func NewAggregator(st store.Store, client anthropic.Client, modelName string) *Aggregator {
	return &Aggregator{store: st, client: client, modelName: modelName}
}

// Record aggregates the in-scope attributions into a StrategyOutcome and
// persists it. Outcomes are recomputed from scratch every call and never
// deduplicated; recording cadence is the caller's concern.
func (a *Aggregator) Record(ctx context.Context, req RecordRequest) (*model.StrategyOutcome, error) {
	if req.OrgID == "" || req.StrategyID == "" {
		return nil, eris.New("outcome: org_id and strategy_id are required")
	}

	attrs, err := a.store.ListAttributions(ctx, store.AttributionFilter{
		OrgID:      req.OrgID,
		CampaignID: req.CampaignID,
		ContentID:  req.ContentID,
	})
	if err != nil {
		return nil, eris.Wrap(err, "outcome: list attributions")
	}

	stats := aggregate(attrs)
	outcomeType := classify(stats)
	score := effectiveness(stats)

	o := &model.StrategyOutcome{
		ID:                 uuid.New().String(),
		StrategyID:         req.StrategyID,
		OrgID:              req.OrgID,
		OutcomeType:        outcomeType,
		EffectivenessScore: score,
		SuccessFactors: model.SuccessFactors{
			CoverageCount:         stats.coverage,
			TotalReach:            stats.reach,
			AverageConfidence:     stats.avgConfidence,
			TopOutlets:            stats.topOutlets,
			PositiveSentimentRate: stats.positiveRate,
		},
		FailureFactors: model.FailureFactors{
			LowCoverage:          stats.coverage < lowCoverageBelow,
			LowConfidenceMatches: stats.avgConfidence < lowConfidenceBelow,
			NegativeSentiment:    stats.negative > stats.positive,
		},
		TotalCoverage:     stats.coverage,
		TotalReach:        stats.reach,
		AverageConfidence: stats.avgConfidence,
		CreatedAt:         time.Now().UTC(),
	}
	o.KeyLearnings = a.generateLearnings(ctx, o)

	if err := a.store.CreateOutcome(ctx, o); err != nil {
		return nil, eris.Wrap(err, "outcome: create")
	}

	zap.L().Info("strategy outcome recorded",
		zap.String("outcome_id", o.ID),
		zap.String("strategy_id", o.StrategyID),
		zap.String("outcome_type", string(o.OutcomeType)),
		zap.Float64("effectiveness_score", o.EffectivenessScore),
		zap.Int("total_coverage", o.TotalCoverage),
	)

	return o, nil
}

// coverageStats is the intermediate aggregation over one attribution set.
type coverageStats struct {
	coverage      int
	reach         int64
	avgConfidence float64
	positive      int
	negative      int
	positiveRate  float64
	topOutlets    []string
}

func aggregate(attrs []model.Attribution) coverageStats {
	stats := coverageStats{coverage: len(attrs)}
	if len(attrs) == 0 {
		return stats
	}

	var confidenceSum float64
	var withSentiment int
	outletCounts := make(map[string]int)
	var outletOrder []string

	for _, at := range attrs {
		stats.reach += at.EstimatedReach
		confidenceSum += at.Confidence

		switch at.Sentiment {
		case "positive":
			stats.positive++
			withSentiment++
		case "negative":
			stats.negative++
			withSentiment++
		case "":
			// unscored
		default:
			withSentiment++
		}

		if at.SourceOutlet == "" {
			continue
		}
		if _, seen := outletCounts[at.SourceOutlet]; !seen {
			outletOrder = append(outletOrder, at.SourceOutlet)
		}
		outletCounts[at.SourceOutlet]++
	}

	stats.avgConfidence = confidenceSum / float64(len(attrs))
	if withSentiment > 0 {
		stats.positiveRate = float64(stats.positive) / float64(withSentiment)
	}
	stats.topOutlets = topOutlets(outletCounts, outletOrder, topOutletsLimit)

	return stats
}

// topOutlets ranks outlets by frequency descending; ties keep first-seen
// order.
func topOutlets(counts map[string]int, order []string, limit int) []string {
	ranked := make([]string, len(order))
	copy(ranked, order)
	sort.SliceStable(ranked, func(i, j int) bool {
		return counts[ranked[i]] > counts[ranked[j]]
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

// classify applies the outcome tiers in order. Success demands both volume
// and confidence; partial and minimal are volume-only.
func classify(stats coverageStats) model.OutcomeType {
	switch {
	case stats.coverage >= successMinCoverage && stats.avgConfidence > successMinConfidence:
		return model.OutcomeSuccess
	case stats.coverage >= partialMinCoverage:
		return model.OutcomePartial
	case stats.coverage >= minimalMinCoverage:
		return model.OutcomeMinimal
	default:
		return model.OutcomeFailed
	}
}

// effectiveness is the composite 0-5 score: up to 2 points for coverage
// volume, up to 2 for reach, up to 1 for average match confidence.
func effectiveness(stats coverageStats) float64 {
	coveragePart := min(float64(stats.coverage)/coverageSaturation, 1.0) * 2
	reachPart := min(float64(stats.reach)/reachSaturation, 1.0) * 2
	score := coveragePart + reachPart + stats.avgConfidence

	if score > model.MaxEffectivenessScore {
		return model.MaxEffectivenessScore
	}
	if score < 0 {
		return 0
	}
	return score
}

// generateLearnings asks the LLM for 3-5 takeaways. Any failure degrades to
// a single stats-derived fallback so outcome recording never blocks on the
// gateway.
func (a *Aggregator) generateLearnings(ctx context.Context, o *model.StrategyOutcome) []string {
	fallback := []string{fmt.Sprintf(
		"Strategy achieved %d coverage placements with %.2f average match confidence.",
		o.TotalCoverage, o.AverageConfidence,
	)}

	if a.client == nil {
		return fallback
	}

	outlets := o.SuccessFactors.TopOutlets
	if len(outlets) > learningsMaxOutlets {
		outlets = outlets[:learningsMaxOutlets]
	}
	prompt := fmt.Sprintf(learningsUserPrompt,
		o.TotalCoverage,
		o.TotalReach,
		o.AverageConfidence,
		o.SuccessFactors.PositiveSentimentRate,
		strings.Join(outlets, ", "),
		o.OutcomeType,
		o.EffectivenessScore,
	)

	resp, err := a.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     a.modelName,
		MaxTokens: 1024,
		System:    []anthropic.SystemBlock{{Text: learningsSystemPrompt}},
		Messages:  []anthropic.Message{{Role: "user", Content: prompt}},
	})
	if err != nil {
		zap.L().Warn("key learnings generation failed",
			zap.String("strategy_id", o.StrategyID),
			zap.Error(err),
		)
		return fallback
	}
	resp.Usage.LogCost(a.modelName, "key_learnings")

	var parsed struct {
		Learnings []string `json:"learnings"`
	}
	if err := json.Unmarshal([]byte(cleanJSON(resp.Text())), &parsed); err != nil || len(parsed.Learnings) == 0 {
		zap.L().Debug("failed to parse learnings JSON",
			zap.String("strategy_id", o.StrategyID),
			zap.Error(err),
		)
		return fallback
	}
	return parsed.Learnings
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
