// Package learning reinforces the strategy knowledge graph from confirmed
// outcomes: successful strategies gain retrieval salience and pick up
// waypoint edges toward other historically successful strategies.
package learning

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/attribution/internal/config"
	"github.com/sells-group/attribution/internal/model"
	"github.com/sells-group/attribution/internal/store"
)

// GraphBuilder applies outcome-driven graph updates.
type GraphBuilder struct {
	store store.Store
	cfg   config.LearningConfig
}

// NewGraphBuilder creates a GraphBuilder.
func NewGraphBuilder(st store.Store, cfg config.LearningConfig) *GraphBuilder {
	return &GraphBuilder{store: st, cfg: cfg}
}

// Reinforce updates the graph for a recorded outcome. Only success outcomes
// reinforce anything; every other outcome type is a no-op. Reinforcement
// only ever strengthens (salience is capped, never decayed here).
func (g *GraphBuilder) Reinforce(ctx context.Context, outcome *model.StrategyOutcome) error {
	if outcome.OutcomeType != model.OutcomeSuccess {
		return nil
	}

	if err := g.boostSalience(ctx, outcome); err != nil {
		return err
	}
	return g.linkSuccessfulPatterns(ctx, outcome)
}

// boostSalience multiplies the strategy embedding's salience by the boost
// factor, capped at 1.0 store-side. A strategy without an embedding row is
// skipped; embedding creation belongs to the strategy authoring side.
func (g *GraphBuilder) boostSalience(ctx context.Context, outcome *model.StrategyOutcome) error {
	se, err := g.store.GetStrategyEmbedding(ctx, outcome.StrategyID)
	if err != nil {
		return eris.Wrap(err, "learning: get strategy embedding")
	}
	if se == nil {
		zap.L().Debug("no strategy embedding to reinforce",
			zap.String("strategy_id", outcome.StrategyID),
		)
		return nil
	}

	if err := g.store.BoostStrategySalience(ctx, outcome.StrategyID, model.SalienceBoostFactor); err != nil {
		return eris.Wrap(err, "learning: boost salience")
	}

	zap.L().Info("strategy salience reinforced",
		zap.String("strategy_id", outcome.StrategyID),
		zap.Float64("previous_salience", se.Salience),
	)
	return nil
}

// linkSuccessfulPatterns creates waypoint edges from the outcome's strategy
// to other org strategies whose latest outcome was a scoring success. Edge
// weight is the target's score normalized to 0-1. No qualifying strategies
// is a normal no-op.
func (g *GraphBuilder) linkSuccessfulPatterns(ctx context.Context, outcome *model.StrategyOutcome) error {
	targets, err := g.store.ListSuccessfulStrategies(ctx, outcome.OrgID, outcome.StrategyID, g.cfg.WaypointMinScore, g.cfg.WaypointLimit)
	if err != nil {
		return eris.Wrap(err, "learning: list successful strategies")
	}
	if len(targets) == 0 {
		return nil
	}

	for _, target := range targets {
		w := &model.StrategyWaypoint{
			ID:             uuid.New().String(),
			OrgID:          outcome.OrgID,
			FromStrategyID: outcome.StrategyID,
			ToStrategyID:   target.StrategyID,
			Weight:         target.EffectivenessScore / model.MaxEffectivenessScore,
			LinkType:       model.WaypointLinkSuccessfulPattern,
			CreatedAt:      time.Now().UTC(),
		}
		if err := g.store.CreateWaypoint(ctx, w); err != nil {
			return eris.Wrap(err, "learning: create waypoint")
		}
	}

	zap.L().Info("waypoints created",
		zap.String("strategy_id", outcome.StrategyID),
		zap.Int("count", len(targets)),
	)
	return nil
}
