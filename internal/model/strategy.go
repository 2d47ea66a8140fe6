package model

import (
	"time"
)

// DefaultSalience is the baseline retrieval weight for a new strategy
// embedding.
const DefaultSalience = 0.5

// SalienceBoostFactor is applied multiplicatively on each confirmed success.
// Salience only moves upward here (capped at 1.0); decay belongs to an
// external collaborator.
const SalienceBoostFactor = 1.5

// WaypointLinkSuccessfulPattern is currently the only waypoint link type.
const WaypointLinkSuccessfulPattern = "successful_pattern"

// StrategyEmbedding is a retrievable vector representation of a strategy's
// content with a success-reinforced salience weight.
type StrategyEmbedding struct {
	StrategyID   string    `json:"strategy_id"`
	OrgID        string    `json:"org_id"`
	Embedding    []float32 `json:"embedding,omitempty"`
	Salience     float64   `json:"salience"`
	AccessCount  int       `json:"access_count"`
	LastAccessed time.Time `json:"last_accessed"`
}

// StrategyWaypoint is a directed, weighted edge in the cross-strategy
// recommendation graph, pointing from a just-evaluated strategy to another
// historically successful one.
type StrategyWaypoint struct {
	ID             string    `json:"id"`
	OrgID          string    `json:"org_id"`
	FromStrategyID string    `json:"from_strategy_id"`
	ToStrategyID   string    `json:"to_strategy_id"`
	Weight         float64   `json:"weight"`
	LinkType       string    `json:"link_type"`
	CreatedAt      time.Time `json:"created_at"`
}

// StrategyScore pairs a strategy id with its latest effectiveness score,
// as returned by the successful-strategy lookup.
type StrategyScore struct {
	StrategyID         string  `json:"strategy_id"`
	EffectivenessScore float64 `json:"effectiveness_score"`
}
