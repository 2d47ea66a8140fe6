package model

import (
	"time"
)

// OutcomeType is the qualitative verdict for a strategy's measured
// performance.
type OutcomeType string

const (
	OutcomeSuccess OutcomeType = "success"
	OutcomePartial OutcomeType = "partial"
	OutcomeMinimal OutcomeType = "minimal"
	OutcomeFailed  OutcomeType = "failed"
)

// MaxEffectivenessScore is the upper bound of the composite effectiveness
// metric: 2 points coverage + 2 points reach + 1 point confidence.
const MaxEffectivenessScore = 5.0

// SuccessFactors summarizes what went right for a strategy.
type SuccessFactors struct {
	CoverageCount         int      `json:"coverage_count"`
	TotalReach            int64    `json:"total_reach"`
	AverageConfidence     float64  `json:"average_confidence"`
	TopOutlets            []string `json:"top_outlets,omitempty"`
	PositiveSentimentRate float64  `json:"positive_sentiment_rate"`
}

// FailureFactors flags independent problems observed in the attribution set.
// The flags are not mutually exclusive.
type FailureFactors struct {
	LowCoverage          bool `json:"low_coverage"`
	LowConfidenceMatches bool `json:"low_confidence_matches"`
	NegativeSentiment    bool `json:"negative_sentiment"`
}

// StrategyOutcome is one aggregated performance verdict, recomputed in full
// on every recording invocation. Callers own recording cadence; this
// subsystem never dedupes outcome rows.
type StrategyOutcome struct {
	ID                 string         `json:"id"`
	StrategyID         string         `json:"strategy_id"`
	OrgID              string         `json:"org_id"`
	OutcomeType        OutcomeType    `json:"outcome_type"`
	EffectivenessScore float64        `json:"effectiveness_score"`
	KeyLearnings       []string       `json:"key_learnings"`
	SuccessFactors     SuccessFactors `json:"success_factors"`
	FailureFactors     FailureFactors `json:"failure_factors"`
	TotalCoverage      int            `json:"total_coverage"`
	TotalReach         int64          `json:"total_reach"`
	AverageConfidence  float64        `json:"average_confidence"`
	CreatedAt          time.Time      `json:"created_at"`
}
