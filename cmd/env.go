package main

import (
	"context"

	"github.com/rotisserie/eris"

	attrib "github.com/sells-group/attribution/internal/attribution"
	"github.com/sells-group/attribution/internal/learning"
	"github.com/sells-group/attribution/internal/matching"
	"github.com/sells-group/attribution/internal/outcome"
	"github.com/sells-group/attribution/internal/store"
	"github.com/sells-group/attribution/pkg/anthropic"
	"github.com/sells-group/attribution/pkg/embeddings"
)

// engineEnv holds the initialized store and engine components needed by the
// check/outcome/serve commands.
type engineEnv struct {
	Store      store.Store
	Service    *attrib.Service
	Aggregator *outcome.Aggregator
	Graph      *learning.GraphBuilder
}

// Close releases resources held by the engine environment.
func (e *engineEnv) Close() {
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "attribution.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, nil)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// initEngine sets up the store, gateway clients, the matching cascade, and
// the aggregation/learning components. Callers should defer env.Close().
func initEngine(ctx context.Context, mode string) (*engineEnv, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}

	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}

	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	embedClient := embeddings.NewClient(cfg.Embeddings.Key,
		embeddings.WithBaseURL(cfg.Embeddings.BaseURL),
		embeddings.WithModel(cfg.Embeddings.Model),
	)
	aiClient := anthropic.NewClient(cfg.Anthropic.Key)

	exact := matching.NewExactPhraseMatcher()
	semantic := matching.NewSemanticMatcher(embedClient, st, cfg.Matching)
	contextual := matching.NewContextualMatcher(aiClient, cfg.Anthropic.HaikuModel, cfg.Matching)
	cascade := matching.NewCascade(st,
		[]matching.Matcher{exact, semantic, contextual},
		semantic.Name(), contextual.Name(),
	)

	return &engineEnv{
		Store:      st,
		Service:    attrib.NewService(cascade, attrib.NewRecorder(st)),
		Aggregator: outcome.NewAggregator(st, aiClient, cfg.Anthropic.SonnetModel),
		Graph:      learning.NewGraphBuilder(st, cfg.Learning),
	}, nil
}
