package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	attrib "github.com/sells-group/attribution/internal/attribution"
	"github.com/sells-group/attribution/internal/model"
	"github.com/sells-group/attribution/internal/outcome"
)

var servePort int

// attributionChecker runs one candidate through check-and-record.
type attributionChecker interface {
	CheckAttribution(ctx context.Context, orgID string, cand model.CandidateContent) (*attrib.CheckResult, error)
}

// outcomeRecorder aggregates and persists a strategy outcome.
type outcomeRecorder interface {
	Record(ctx context.Context, req outcome.RecordRequest) (*model.StrategyOutcome, error)
}

// graphReinforcer applies outcome-driven graph updates.
type graphReinforcer interface {
	Reinforce(ctx context.Context, o *model.StrategyOutcome) error
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the attribution HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEngine(ctx, "serve")
		if err != nil {
			return err
		}
		defer env.Close()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           buildRouter(env.Service, env.Aggregator, env.Graph),
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

// buildRouter assembles the HTTP API. Components may be nil in tests; the
// handlers only touch what the exercised route needs.
func buildRouter(checker attributionChecker, recorder outcomeRecorder, reinforcer graphReinforcer) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/v1/attribution/check", func(w http.ResponseWriter, req *http.Request) {
		var body struct {
			OrgID   string                 `json:"org_id"`
			Content model.CandidateContent `json:"content"`
		}
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}
		if body.OrgID == "" || body.Content.URL == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "org_id and content.url are required"})
			return
		}
		if body.Content.PublishedAt.IsZero() {
			body.Content.PublishedAt = time.Now().UTC()
		}

		result, err := checker.CheckAttribution(req.Context(), body.OrgID, body.Content)
		if err != nil {
			zap.L().Error("attribution check failed",
				zap.String("org_id", body.OrgID),
				zap.String("source_url", body.Content.URL),
				zap.Error(err),
			)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "attribution check failed"})
			return
		}
		writeJSON(w, http.StatusOK, result)
	})

	r.Post("/v1/outcomes/record", func(w http.ResponseWriter, req *http.Request) {
		var body outcome.RecordRequest
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}
		if body.OrgID == "" || body.StrategyID == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "org_id and strategy_id are required"})
			return
		}

		o, err := recorder.Record(req.Context(), body)
		if err != nil {
			zap.L().Error("outcome recording failed",
				zap.String("org_id", body.OrgID),
				zap.String("strategy_id", body.StrategyID),
				zap.Error(err),
			)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "outcome recording failed"})
			return
		}

		// Reinforcement failure never rolls back the recorded outcome.
		if reinforcer != nil {
			if err := reinforcer.Reinforce(req.Context(), o); err != nil {
				zap.L().Warn("graph reinforcement failed",
					zap.String("strategy_id", o.StrategyID),
					zap.Error(err),
				)
			}
		}

		writeJSON(w, http.StatusCreated, o)
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
