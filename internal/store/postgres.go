package store

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
	"github.com/rotisserie/eris"

	"github.com/sells-group/attribution/internal/db"
	"github.com/sells-group/attribution/internal/model"
)

// PostgresStore implements Store using pgxpool. Fingerprint embeddings are
// stored in a pgvector column so nearest-neighbor search runs in the
// database.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

const fingerprintColumns = `id, org_id, campaign_id, content_id, key_phrases, unique_angles, content_type, expected_channels, status, exported_at, tracking_window_end, created_at`

const attributionColumns = `id, org_id, fingerprint_id, campaign_id, source_type, source_url, source_outlet, title, text, published_at, confidence, match_type, detail, estimated_reach, sentiment, created_at`

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the hot-path store operations.
var preparedStatements = map[string]string{
	"list_active_fingerprints": `SELECT ` + fingerprintColumns + ` FROM fingerprints WHERE org_id = $1 AND status IN ('exported', 'matched') AND tracking_window_end >= $2 ORDER BY id`,
	"mark_fingerprint_matched": `UPDATE fingerprints SET status = 'matched' WHERE id = $1`,
	"get_attribution":          `SELECT ` + attributionColumns + ` FROM attributions WHERE fingerprint_id = $1 AND source_url = $2`,
	"insert_attribution":       `INSERT INTO attributions (` + attributionColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// Pool returns the underlying database pool for subsystems that need direct
// query access (e.g., bulk fingerprint import).
func (s *PostgresStore) Pool() db.Pool {
	return s.pool
}

// The vector(1536) columns match the dimension of the embedding gateway's
// model; changing models requires a schema migration.
const postgresMigration = `
CREATE EXTENSION IF NOT EXISTS vector;

CREATE TABLE IF NOT EXISTS fingerprints (
	id                  TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	org_id              TEXT NOT NULL,
	campaign_id         TEXT NOT NULL,
	content_id          TEXT NOT NULL,
	key_phrases         JSONB NOT NULL DEFAULT '[]',
	unique_angles       JSONB NOT NULL DEFAULT '[]',
	content_type        TEXT NOT NULL DEFAULT 'other',
	expected_channels   JSONB NOT NULL DEFAULT '[]',
	status              TEXT NOT NULL DEFAULT 'draft',
	exported_at         TIMESTAMPTZ NOT NULL DEFAULT now(),
	tracking_window_end TIMESTAMPTZ NOT NULL,
	embedding           vector(1536),
	created_at          TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_fingerprints_org_status ON fingerprints(org_id, status);
CREATE INDEX IF NOT EXISTS idx_fingerprints_window ON fingerprints(tracking_window_end);
CREATE INDEX IF NOT EXISTS idx_fingerprints_content ON fingerprints(content_id);

CREATE TABLE IF NOT EXISTS attributions (
	id              TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	org_id          TEXT NOT NULL,
	fingerprint_id  TEXT NOT NULL REFERENCES fingerprints(id),
	campaign_id     TEXT NOT NULL,
	source_type     TEXT NOT NULL DEFAULT 'other',
	source_url      TEXT NOT NULL,
	source_outlet   TEXT,
	title           TEXT NOT NULL DEFAULT '',
	text            TEXT NOT NULL DEFAULT '',
	published_at    TIMESTAMPTZ NOT NULL,
	confidence      DOUBLE PRECISION NOT NULL,
	match_type      TEXT NOT NULL,
	detail          JSONB NOT NULL DEFAULT '{}',
	estimated_reach BIGINT NOT NULL DEFAULT 0,
	sentiment       TEXT,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (fingerprint_id, source_url)
);

CREATE INDEX IF NOT EXISTS idx_attributions_org ON attributions(org_id);
CREATE INDEX IF NOT EXISTS idx_attributions_campaign ON attributions(campaign_id);

CREATE TABLE IF NOT EXISTS strategy_outcomes (
	id                  TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	strategy_id         TEXT NOT NULL,
	org_id              TEXT NOT NULL,
	outcome_type        TEXT NOT NULL,
	effectiveness_score DOUBLE PRECISION NOT NULL,
	key_learnings       JSONB NOT NULL DEFAULT '[]',
	success_factors     JSONB NOT NULL DEFAULT '{}',
	failure_factors     JSONB NOT NULL DEFAULT '{}',
	total_coverage      INTEGER NOT NULL DEFAULT 0,
	total_reach         BIGINT NOT NULL DEFAULT 0,
	average_confidence  DOUBLE PRECISION NOT NULL DEFAULT 0,
	created_at          TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_strategy_outcomes_org ON strategy_outcomes(org_id);
CREATE INDEX IF NOT EXISTS idx_strategy_outcomes_strategy ON strategy_outcomes(strategy_id, created_at DESC);

CREATE TABLE IF NOT EXISTS strategy_embeddings (
	strategy_id   TEXT PRIMARY KEY,
	org_id        TEXT NOT NULL,
	embedding     vector(1536),
	salience      DOUBLE PRECISION NOT NULL DEFAULT 0.5,
	access_count  INTEGER NOT NULL DEFAULT 0,
	last_accessed TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS strategy_waypoints (
	id               TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	org_id           TEXT NOT NULL,
	from_strategy_id TEXT NOT NULL,
	to_strategy_id   TEXT NOT NULL,
	weight           DOUBLE PRECISION NOT NULL,
	link_type        TEXT NOT NULL DEFAULT 'successful_pattern',
	created_at       TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_strategy_waypoints_from ON strategy_waypoints(org_id, from_strategy_id);
`

// Migrate applies the embedded schema. Safe to run repeatedly.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, postgresMigration); err != nil {
		return eris.Wrap(err, "postgres: migrate")
	}
	return nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) CreateFingerprint(ctx context.Context, fp *model.Fingerprint) error {
	if fp.ID == "" {
		fp.ID = uuid.New().String()
	}
	if fp.CreatedAt.IsZero() {
		fp.CreatedAt = time.Now().UTC()
	}

	var embedding any
	if len(fp.Embedding) > 0 {
		embedding = pgvector.NewVector(fp.Embedding)
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO fingerprints (id, org_id, campaign_id, content_id, key_phrases, unique_angles, content_type, expected_channels, status, exported_at, tracking_window_end, embedding, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		fp.ID, fp.OrgID, fp.CampaignID, fp.ContentID, fp.KeyPhrases, fp.UniqueAngles,
		fp.ContentType, fp.ExpectedChannels, fp.Status, fp.ExportedAt, fp.TrackingWindowEnd,
		embedding, fp.CreatedAt,
	)
	if err != nil {
		return eris.Wrap(err, "postgres: insert fingerprint")
	}
	return nil
}

// BulkCreateFingerprints imports fingerprints through the COPY protocol.
func (s *PostgresStore) BulkCreateFingerprints(ctx context.Context, fps []model.Fingerprint) (int64, error) {
	rows := make([][]any, 0, len(fps))
	now := time.Now().UTC()
	for i := range fps {
		fp := &fps[i]
		if fp.ID == "" {
			fp.ID = uuid.New().String()
		}
		if fp.CreatedAt.IsZero() {
			fp.CreatedAt = now
		}
		var embedding any
		if len(fp.Embedding) > 0 {
			embedding = pgvector.NewVector(fp.Embedding)
		}
		rows = append(rows, []any{
			fp.ID, fp.OrgID, fp.CampaignID, fp.ContentID, fp.KeyPhrases, fp.UniqueAngles,
			fp.ContentType, fp.ExpectedChannels, fp.Status, fp.ExportedAt, fp.TrackingWindowEnd,
			embedding, fp.CreatedAt,
		})
	}

	n, err := db.CopyFrom(ctx, s.pool, "fingerprints",
		[]string{"id", "org_id", "campaign_id", "content_id", "key_phrases", "unique_angles", "content_type", "expected_channels", "status", "exported_at", "tracking_window_end", "embedding", "created_at"},
		rows,
	)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: bulk insert fingerprints")
	}
	return n, nil
}

func (s *PostgresStore) ListActiveFingerprints(ctx context.Context, orgID string, now time.Time) ([]model.Fingerprint, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+fingerprintColumns+` FROM fingerprints WHERE org_id = $1 AND status IN ('exported', 'matched') AND tracking_window_end >= $2 ORDER BY id`,
		orgID, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list active fingerprints")
	}
	defer rows.Close()

	return scanFingerprints(rows)
}

func (s *PostgresStore) MarkFingerprintMatched(ctx context.Context, fingerprintID string) error {
	_, err := s.pool.Exec(ctx, `UPDATE fingerprints SET status = 'matched' WHERE id = $1`, fingerprintID)
	if err != nil {
		return eris.Wrap(err, "postgres: mark fingerprint matched")
	}
	return nil
}

func (s *PostgresStore) SearchFingerprintEmbeddings(ctx context.Context, orgID string, embedding []float32, threshold float64, limit int) ([]FingerprintMatch, error) {
	if limit <= 0 {
		limit = 3
	}
	vec := pgvector.NewVector(embedding)

	rows, err := s.pool.Query(ctx,
		`SELECT `+fingerprintColumns+`, 1 - (embedding <=> $1) AS similarity
		 FROM fingerprints
		 WHERE org_id = $2 AND status IN ('exported', 'matched') AND tracking_window_end >= $3
		   AND embedding IS NOT NULL AND 1 - (embedding <=> $1) >= $4
		 ORDER BY embedding <=> $1
		 LIMIT $5`,
		vec, orgID, time.Now().UTC(), threshold, limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: search fingerprint embeddings")
	}
	defer rows.Close()

	var matches []FingerprintMatch
	for rows.Next() {
		var fp model.Fingerprint
		var similarity float64
		if err := scanFingerprintRow(rows, &fp, &similarity); err != nil {
			return nil, eris.Wrap(err, "postgres: scan fingerprint match")
		}
		matches = append(matches, FingerprintMatch{Fingerprint: fp, Similarity: similarity})
	}
	return matches, rows.Err()
}

func (s *PostgresStore) GetAttribution(ctx context.Context, fingerprintID, sourceURL string) (*model.Attribution, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+attributionColumns+` FROM attributions WHERE fingerprint_id = $1 AND source_url = $2`,
		fingerprintID, sourceURL,
	)

	a, err := scanAttribution(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrap(err, "postgres: get attribution")
	}
	return a, nil
}

func (s *PostgresStore) CreateAttribution(ctx context.Context, a *model.Attribution) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	a.Text = model.TruncateText(a.Text, model.MaxStoredTextLen)

	_, err := s.pool.Exec(ctx,
		`INSERT INTO attributions (`+attributionColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
		a.ID, a.OrgID, a.FingerprintID, a.CampaignID, a.SourceType, a.SourceURL,
		a.SourceOutlet, a.Title, a.Text, a.PublishedAt, a.Confidence, a.MatchType,
		a.Detail, a.EstimatedReach, a.Sentiment, a.CreatedAt,
	)
	if err != nil {
		return eris.Wrap(err, "postgres: insert attribution")
	}
	return nil
}

func (s *PostgresStore) ListAttributions(ctx context.Context, filter AttributionFilter) ([]model.Attribution, error) {
	query := `SELECT ` + attributionColumns + ` FROM attributions WHERE org_id = $1`
	args := []any{filter.OrgID}

	if filter.CampaignID != "" {
		args = append(args, filter.CampaignID)
		query += ` AND campaign_id = $2`
	} else if filter.ContentID != "" {
		args = append(args, filter.ContentID)
		query += ` AND fingerprint_id IN (SELECT id FROM fingerprints WHERE content_id = $2)`
	}
	query += ` ORDER BY created_at, id`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += ` LIMIT $` + strconv.Itoa(len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list attributions")
	}
	defer rows.Close()

	var out []model.Attribution
	for rows.Next() {
		var a model.Attribution
		if err := scanAttributionValues(rows.Scan, &a); err != nil {
			return nil, eris.Wrap(err, "postgres: scan attribution")
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *PostgresStore) CreateOutcome(ctx context.Context, o *model.StrategyOutcome) error {
	if o.ID == "" {
		o.ID = uuid.New().String()
	}
	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now().UTC()
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO strategy_outcomes (id, strategy_id, org_id, outcome_type, effectiveness_score, key_learnings, success_factors, failure_factors, total_coverage, total_reach, average_confidence, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		o.ID, o.StrategyID, o.OrgID, o.OutcomeType, o.EffectivenessScore,
		o.KeyLearnings, o.SuccessFactors, o.FailureFactors,
		o.TotalCoverage, o.TotalReach, o.AverageConfidence, o.CreatedAt,
	)
	if err != nil {
		return eris.Wrap(err, "postgres: insert outcome")
	}
	return nil
}

func (s *PostgresStore) ListSuccessfulStrategies(ctx context.Context, orgID, excludeStrategyID string, minScore float64, limit int) ([]model.StrategyScore, error) {
	if limit <= 0 {
		limit = 5
	}

	rows, err := s.pool.Query(ctx,
		`SELECT strategy_id, effectiveness_score FROM (
			SELECT DISTINCT ON (strategy_id) strategy_id, outcome_type, effectiveness_score
			FROM strategy_outcomes
			WHERE org_id = $1 AND strategy_id <> $2
			ORDER BY strategy_id, created_at DESC
		) latest
		WHERE outcome_type = 'success' AND effectiveness_score >= $3
		ORDER BY effectiveness_score DESC
		LIMIT $4`,
		orgID, excludeStrategyID, minScore, limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list successful strategies")
	}
	defer rows.Close()

	var out []model.StrategyScore
	for rows.Next() {
		var sc model.StrategyScore
		if err := rows.Scan(&sc.StrategyID, &sc.EffectivenessScore); err != nil {
			return nil, eris.Wrap(err, "postgres: scan strategy score")
		}
		out = append(out, sc)
	}
	return out, rows.Err()
}

func (s *PostgresStore) GetStrategyEmbedding(ctx context.Context, strategyID string) (*model.StrategyEmbedding, error) {
	var se model.StrategyEmbedding
	err := s.pool.QueryRow(ctx,
		`SELECT strategy_id, org_id, salience, access_count, last_accessed FROM strategy_embeddings WHERE strategy_id = $1`,
		strategyID,
	).Scan(&se.StrategyID, &se.OrgID, &se.Salience, &se.AccessCount, &se.LastAccessed)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrap(err, "postgres: get strategy embedding")
	}
	return &se, nil
}

// UpsertStrategyEmbedding inserts a strategy embedding row if absent.
// Existing rows are left alone: salience and access bookkeeping are owned by
// the reinforcement path once a row exists.
func (s *PostgresStore) UpsertStrategyEmbedding(ctx context.Context, se *model.StrategyEmbedding) error {
	var embedding any
	if len(se.Embedding) > 0 {
		embedding = pgvector.NewVector(se.Embedding)
	}
	if se.LastAccessed.IsZero() {
		se.LastAccessed = time.Now().UTC()
	}
	if se.Salience == 0 {
		se.Salience = model.DefaultSalience
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO strategy_embeddings (strategy_id, org_id, embedding, salience, access_count, last_accessed)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (strategy_id) DO NOTHING`,
		se.StrategyID, se.OrgID, embedding, se.Salience, se.AccessCount, se.LastAccessed,
	)
	if err != nil {
		return eris.Wrap(err, "postgres: upsert strategy embedding")
	}
	return nil
}

// BoostStrategySalience multiplies salience by factor capped at 1.0 and
// refreshes the access bookkeeping. Missing rows are a silent no-op.
func (s *PostgresStore) BoostStrategySalience(ctx context.Context, strategyID string, factor float64) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE strategy_embeddings
		 SET salience = LEAST(salience * $1, 1.0), access_count = access_count + 1, last_accessed = now()
		 WHERE strategy_id = $2`,
		factor, strategyID,
	)
	if err != nil {
		return eris.Wrap(err, "postgres: boost strategy salience")
	}
	return nil
}

func (s *PostgresStore) CreateWaypoint(ctx context.Context, w *model.StrategyWaypoint) error {
	if w.ID == "" {
		w.ID = uuid.New().String()
	}
	if w.CreatedAt.IsZero() {
		w.CreatedAt = time.Now().UTC()
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO strategy_waypoints (id, org_id, from_strategy_id, to_strategy_id, weight, link_type, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		w.ID, w.OrgID, w.FromStrategyID, w.ToStrategyID, w.Weight, w.LinkType, w.CreatedAt,
	)
	if err != nil {
		return eris.Wrap(err, "postgres: insert waypoint")
	}
	return nil
}

// ListWaypoints returns a strategy's outgoing edges, strongest first.
func (s *PostgresStore) ListWaypoints(ctx context.Context, orgID, fromStrategyID string) ([]model.StrategyWaypoint, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, org_id, from_strategy_id, to_strategy_id, weight, link_type, created_at
		 FROM strategy_waypoints
		 WHERE org_id = $1 AND from_strategy_id = $2
		 ORDER BY weight DESC, created_at, id`,
		orgID, fromStrategyID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list waypoints")
	}
	defer rows.Close()

	var out []model.StrategyWaypoint
	for rows.Next() {
		var w model.StrategyWaypoint
		if err := rows.Scan(&w.ID, &w.OrgID, &w.FromStrategyID, &w.ToStrategyID, &w.Weight, &w.LinkType, &w.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan waypoint")
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

// scanFingerprints drains rows into fingerprints.
func scanFingerprints(rows pgx.Rows) ([]model.Fingerprint, error) {
	var out []model.Fingerprint
	for rows.Next() {
		var fp model.Fingerprint
		if err := rows.Scan(
			&fp.ID, &fp.OrgID, &fp.CampaignID, &fp.ContentID, &fp.KeyPhrases,
			&fp.UniqueAngles, &fp.ContentType, &fp.ExpectedChannels, &fp.Status,
			&fp.ExportedAt, &fp.TrackingWindowEnd, &fp.CreatedAt,
		); err != nil {
			return nil, eris.Wrap(err, "postgres: scan fingerprint")
		}
		out = append(out, fp)
	}
	return out, rows.Err()
}

func scanFingerprintRow(rows pgx.Rows, fp *model.Fingerprint, similarity *float64) error {
	return rows.Scan(
		&fp.ID, &fp.OrgID, &fp.CampaignID, &fp.ContentID, &fp.KeyPhrases,
		&fp.UniqueAngles, &fp.ContentType, &fp.ExpectedChannels, &fp.Status,
		&fp.ExportedAt, &fp.TrackingWindowEnd, &fp.CreatedAt, similarity,
	)
}

func scanAttribution(row pgx.Row) (*model.Attribution, error) {
	var a model.Attribution
	if err := scanAttributionValues(row.Scan, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func scanAttributionValues(scan func(dest ...any) error, a *model.Attribution) error {
	var outlet, sentiment *string
	err := scan(
		&a.ID, &a.OrgID, &a.FingerprintID, &a.CampaignID, &a.SourceType, &a.SourceURL,
		&outlet, &a.Title, &a.Text, &a.PublishedAt, &a.Confidence, &a.MatchType,
		&a.Detail, &a.EstimatedReach, &sentiment, &a.CreatedAt,
	)
	if err != nil {
		return err
	}
	if outlet != nil {
		a.SourceOutlet = *outlet
	}
	if sentiment != nil {
		a.Sentiment = *sentiment
	}
	return nil
}
