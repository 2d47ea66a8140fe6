package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/attribution/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite. It is the
// local/dev fallback: embeddings are stored as JSON and similarity search is
// a brute-force cosine scan over the org's active fingerprints, which is
// fine at single-org fingerprint counts.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS fingerprints (
	id                  TEXT PRIMARY KEY,
	org_id              TEXT NOT NULL,
	campaign_id         TEXT NOT NULL,
	content_id          TEXT NOT NULL,
	key_phrases         TEXT NOT NULL DEFAULT '[]',
	unique_angles       TEXT NOT NULL DEFAULT '[]',
	content_type        TEXT NOT NULL DEFAULT 'other',
	expected_channels   TEXT NOT NULL DEFAULT '[]',
	status              TEXT NOT NULL DEFAULT 'draft',
	exported_at         DATETIME NOT NULL,
	tracking_window_end DATETIME NOT NULL,
	embedding           TEXT,
	created_at          DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_fingerprints_org_status ON fingerprints(org_id, status);
CREATE INDEX IF NOT EXISTS idx_fingerprints_content ON fingerprints(content_id);

CREATE TABLE IF NOT EXISTS attributions (
	id              TEXT PRIMARY KEY,
	org_id          TEXT NOT NULL,
	fingerprint_id  TEXT NOT NULL REFERENCES fingerprints(id),
	campaign_id     TEXT NOT NULL,
	source_type     TEXT NOT NULL DEFAULT 'other',
	source_url      TEXT NOT NULL,
	source_outlet   TEXT,
	title           TEXT NOT NULL DEFAULT '',
	text            TEXT NOT NULL DEFAULT '',
	published_at    DATETIME NOT NULL,
	confidence      REAL NOT NULL,
	match_type      TEXT NOT NULL,
	detail          TEXT NOT NULL DEFAULT '{}',
	estimated_reach INTEGER NOT NULL DEFAULT 0,
	sentiment       TEXT,
	created_at      DATETIME NOT NULL DEFAULT (datetime('now')),
	UNIQUE (fingerprint_id, source_url)
);

CREATE INDEX IF NOT EXISTS idx_attributions_org ON attributions(org_id);
CREATE INDEX IF NOT EXISTS idx_attributions_campaign ON attributions(campaign_id);

CREATE TABLE IF NOT EXISTS strategy_outcomes (
	id                  TEXT PRIMARY KEY,
	strategy_id         TEXT NOT NULL,
	org_id              TEXT NOT NULL,
	outcome_type        TEXT NOT NULL,
	effectiveness_score REAL NOT NULL,
	key_learnings       TEXT NOT NULL DEFAULT '[]',
	success_factors     TEXT NOT NULL DEFAULT '{}',
	failure_factors     TEXT NOT NULL DEFAULT '{}',
	total_coverage      INTEGER NOT NULL DEFAULT 0,
	total_reach         INTEGER NOT NULL DEFAULT 0,
	average_confidence  REAL NOT NULL DEFAULT 0,
	created_at          DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_strategy_outcomes_strategy ON strategy_outcomes(strategy_id, created_at DESC);

CREATE TABLE IF NOT EXISTS strategy_embeddings (
	strategy_id   TEXT PRIMARY KEY,
	org_id        TEXT NOT NULL,
	embedding     TEXT,
	salience      REAL NOT NULL DEFAULT 0.5,
	access_count  INTEGER NOT NULL DEFAULT 0,
	last_accessed DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS strategy_waypoints (
	id               TEXT PRIMARY KEY,
	org_id           TEXT NOT NULL,
	from_strategy_id TEXT NOT NULL,
	to_strategy_id   TEXT NOT NULL,
	weight           REAL NOT NULL,
	link_type        TEXT NOT NULL DEFAULT 'successful_pattern',
	created_at       DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_strategy_waypoints_from ON strategy_waypoints(org_id, from_strategy_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// execer abstracts *sql.DB and *sql.Tx for fingerprint inserts.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *SQLiteStore) CreateFingerprint(ctx context.Context, fp *model.Fingerprint) error {
	return s.insertFingerprintTx(ctx, s.db, fp)
}

func (s *SQLiteStore) insertFingerprintTx(ctx context.Context, ex execer, fp *model.Fingerprint) error {
	if fp.ID == "" {
		fp.ID = uuid.New().String()
	}
	if fp.CreatedAt.IsZero() {
		fp.CreatedAt = time.Now().UTC()
	}

	phrases, err := json.Marshal(fp.KeyPhrases)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal key phrases")
	}
	angles, err := json.Marshal(fp.UniqueAngles)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal unique angles")
	}
	channels, err := json.Marshal(fp.ExpectedChannels)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal expected channels")
	}

	var embedding any
	if len(fp.Embedding) > 0 {
		b, err := json.Marshal(fp.Embedding)
		if err != nil {
			return eris.Wrap(err, "sqlite: marshal embedding")
		}
		embedding = string(b)
	}

	_, err = ex.ExecContext(ctx,
		`INSERT INTO fingerprints (id, org_id, campaign_id, content_id, key_phrases, unique_angles, content_type, expected_channels, status, exported_at, tracking_window_end, embedding, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		fp.ID, fp.OrgID, fp.CampaignID, fp.ContentID, string(phrases), string(angles),
		string(fp.ContentType), string(channels), string(fp.Status), fp.ExportedAt.UTC(),
		fp.TrackingWindowEnd.UTC(), embedding, fp.CreatedAt,
	)
	if err != nil {
		return eris.Wrap(err, "sqlite: insert fingerprint")
	}
	return nil
}

// BulkCreateFingerprints imports fingerprints in a single transaction.
// SQLite has no COPY equivalent; row inserts inside one transaction are
// close enough at import scale.
func (s *SQLiteStore) BulkCreateFingerprints(ctx context.Context, fps []model.Fingerprint) (int64, error) {
	if len(fps) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin bulk insert")
	}
	defer tx.Rollback() //nolint:errcheck

	var n int64
	for i := range fps {
		if err := s.insertFingerprintTx(ctx, tx, &fps[i]); err != nil {
			return 0, err
		}
		n++
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit bulk insert")
	}
	return n, nil
}

func (s *SQLiteStore) ListActiveFingerprints(ctx context.Context, orgID string, now time.Time) ([]model.Fingerprint, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, org_id, campaign_id, content_id, key_phrases, unique_angles, content_type, expected_channels, status, exported_at, tracking_window_end, embedding, created_at
		 FROM fingerprints
		 WHERE org_id = ? AND status IN ('exported', 'matched') AND tracking_window_end >= ?
		 ORDER BY id`,
		orgID, now.UTC(),
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list active fingerprints")
	}
	defer rows.Close()

	var out []model.Fingerprint
	for rows.Next() {
		fp, err := scanSQLiteFingerprint(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *fp)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) MarkFingerprintMatched(ctx context.Context, fingerprintID string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE fingerprints SET status = 'matched' WHERE id = ?`, fingerprintID)
	return eris.Wrap(err, "sqlite: mark fingerprint matched")
}

func (s *SQLiteStore) SearchFingerprintEmbeddings(ctx context.Context, orgID string, embedding []float32, threshold float64, limit int) ([]FingerprintMatch, error) {
	if limit <= 0 {
		limit = 3
	}

	fps, err := s.ListActiveFingerprints(ctx, orgID, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	var matches []FingerprintMatch
	for _, fp := range fps {
		if len(fp.Embedding) == 0 {
			continue
		}
		sim := cosineSimilarity(embedding, fp.Embedding)
		if sim >= threshold {
			matches = append(matches, FingerprintMatch{Fingerprint: fp, Similarity: sim})
		}
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Similarity > matches[j].Similarity })
	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

func (s *SQLiteStore) GetAttribution(ctx context.Context, fingerprintID, sourceURL string) (*model.Attribution, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, org_id, fingerprint_id, campaign_id, source_type, source_url, source_outlet, title, text, published_at, confidence, match_type, detail, estimated_reach, sentiment, created_at
		 FROM attributions WHERE fingerprint_id = ? AND source_url = ?`,
		fingerprintID, sourceURL,
	)

	a, err := scanSQLiteAttribution(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, eris.Wrap(err, "sqlite: get attribution")
	}
	return a, nil
}

func (s *SQLiteStore) CreateAttribution(ctx context.Context, a *model.Attribution) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	a.Text = model.TruncateText(a.Text, model.MaxStoredTextLen)

	detail, err := json.Marshal(a.Detail)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal match detail")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO attributions (id, org_id, fingerprint_id, campaign_id, source_type, source_url, source_outlet, title, text, published_at, confidence, match_type, detail, estimated_reach, sentiment, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.OrgID, a.FingerprintID, a.CampaignID, string(a.SourceType), a.SourceURL,
		nullable(a.SourceOutlet), a.Title, a.Text, a.PublishedAt.UTC(), a.Confidence,
		string(a.MatchType), string(detail), a.EstimatedReach, nullable(a.Sentiment), a.CreatedAt,
	)
	if err != nil {
		return eris.Wrap(err, "sqlite: insert attribution")
	}
	return nil
}

func (s *SQLiteStore) ListAttributions(ctx context.Context, filter AttributionFilter) ([]model.Attribution, error) {
	query := `SELECT id, org_id, fingerprint_id, campaign_id, source_type, source_url, source_outlet, title, text, published_at, confidence, match_type, detail, estimated_reach, sentiment, created_at
		 FROM attributions WHERE org_id = ?`
	args := []any{filter.OrgID}

	if filter.CampaignID != "" {
		query += ` AND campaign_id = ?`
		args = append(args, filter.CampaignID)
	} else if filter.ContentID != "" {
		query += ` AND fingerprint_id IN (SELECT id FROM fingerprints WHERE content_id = ?)`
		args = append(args, filter.ContentID)
	}
	query += ` ORDER BY created_at, id`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list attributions")
	}
	defer rows.Close()

	var out []model.Attribution
	for rows.Next() {
		a, err := scanSQLiteAttribution(rows.Scan)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan attribution")
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) CreateOutcome(ctx context.Context, o *model.StrategyOutcome) error {
	if o.ID == "" {
		o.ID = uuid.New().String()
	}
	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now().UTC()
	}

	learnings, err := json.Marshal(o.KeyLearnings)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal key learnings")
	}
	success, err := json.Marshal(o.SuccessFactors)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal success factors")
	}
	failure, err := json.Marshal(o.FailureFactors)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal failure factors")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO strategy_outcomes (id, strategy_id, org_id, outcome_type, effectiveness_score, key_learnings, success_factors, failure_factors, total_coverage, total_reach, average_confidence, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		o.ID, o.StrategyID, o.OrgID, string(o.OutcomeType), o.EffectivenessScore,
		string(learnings), string(success), string(failure),
		o.TotalCoverage, o.TotalReach, o.AverageConfidence, o.CreatedAt,
	)
	if err != nil {
		return eris.Wrap(err, "sqlite: insert outcome")
	}
	return nil
}

func (s *SQLiteStore) ListSuccessfulStrategies(ctx context.Context, orgID, excludeStrategyID string, minScore float64, limit int) ([]model.StrategyScore, error) {
	if limit <= 0 {
		limit = 5
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT strategy_id, effectiveness_score FROM (
			SELECT strategy_id, outcome_type, effectiveness_score,
			       ROW_NUMBER() OVER (PARTITION BY strategy_id ORDER BY created_at DESC, rowid DESC) AS rn
			FROM strategy_outcomes
			WHERE org_id = ? AND strategy_id <> ?
		)
		WHERE rn = 1 AND outcome_type = 'success' AND effectiveness_score >= ?
		ORDER BY effectiveness_score DESC
		LIMIT ?`,
		orgID, excludeStrategyID, minScore, limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list successful strategies")
	}
	defer rows.Close()

	var out []model.StrategyScore
	for rows.Next() {
		var sc model.StrategyScore
		if err := rows.Scan(&sc.StrategyID, &sc.EffectivenessScore); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan strategy score")
		}
		out = append(out, sc)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) GetStrategyEmbedding(ctx context.Context, strategyID string) (*model.StrategyEmbedding, error) {
	var se model.StrategyEmbedding
	err := s.db.QueryRowContext(ctx,
		`SELECT strategy_id, org_id, salience, access_count, last_accessed FROM strategy_embeddings WHERE strategy_id = ?`,
		strategyID,
	).Scan(&se.StrategyID, &se.OrgID, &se.Salience, &se.AccessCount, &se.LastAccessed)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, eris.Wrap(err, "sqlite: get strategy embedding")
	}
	return &se, nil
}

func (s *SQLiteStore) BoostStrategySalience(ctx context.Context, strategyID string, factor float64) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE strategy_embeddings
		 SET salience = MIN(salience * ?, 1.0), access_count = access_count + 1, last_accessed = ?
		 WHERE strategy_id = ?`,
		factor, time.Now().UTC(), strategyID,
	)
	return eris.Wrap(err, "sqlite: boost strategy salience")
}

func (s *SQLiteStore) CreateWaypoint(ctx context.Context, w *model.StrategyWaypoint) error {
	if w.ID == "" {
		w.ID = uuid.New().String()
	}
	if w.CreatedAt.IsZero() {
		w.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO strategy_waypoints (id, org_id, from_strategy_id, to_strategy_id, weight, link_type, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		w.ID, w.OrgID, w.FromStrategyID, w.ToStrategyID, w.Weight, w.LinkType, w.CreatedAt,
	)
	return eris.Wrap(err, "sqlite: insert waypoint")
}

// ListWaypoints returns a strategy's outgoing edges, strongest first.
func (s *SQLiteStore) ListWaypoints(ctx context.Context, orgID, fromStrategyID string) ([]model.StrategyWaypoint, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, org_id, from_strategy_id, to_strategy_id, weight, link_type, created_at
		 FROM strategy_waypoints
		 WHERE org_id = ? AND from_strategy_id = ?
		 ORDER BY weight DESC, created_at, id`,
		orgID, fromStrategyID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list waypoints")
	}
	defer rows.Close()

	var out []model.StrategyWaypoint
	for rows.Next() {
		var w model.StrategyWaypoint
		if err := rows.Scan(&w.ID, &w.OrgID, &w.FromStrategyID, &w.ToStrategyID, &w.Weight, &w.LinkType, &w.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan waypoint")
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

// UpsertStrategyEmbedding inserts a strategy embedding row if absent.
// Existing rows are left alone: salience and access bookkeeping are owned by
// the reinforcement path once a row exists.
func (s *SQLiteStore) UpsertStrategyEmbedding(ctx context.Context, se *model.StrategyEmbedding) error {
	var embedding any
	if len(se.Embedding) > 0 {
		b, err := json.Marshal(se.Embedding)
		if err != nil {
			return eris.Wrap(err, "sqlite: marshal strategy embedding")
		}
		embedding = string(b)
	}
	if se.LastAccessed.IsZero() {
		se.LastAccessed = time.Now().UTC()
	}
	if se.Salience == 0 {
		se.Salience = model.DefaultSalience
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO strategy_embeddings (strategy_id, org_id, embedding, salience, access_count, last_accessed)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		se.StrategyID, se.OrgID, embedding, se.Salience, se.AccessCount, se.LastAccessed,
	)
	return eris.Wrap(err, "sqlite: upsert strategy embedding")
}

type sqliteScanner func(dest ...any) error

func scanSQLiteFingerprint(rows *sql.Rows) (*model.Fingerprint, error) {
	var fp model.Fingerprint
	var phrases, angles, channels string
	var embedding sql.NullString
	if err := rows.Scan(
		&fp.ID, &fp.OrgID, &fp.CampaignID, &fp.ContentID, &phrases, &angles,
		&fp.ContentType, &channels, &fp.Status, &fp.ExportedAt,
		&fp.TrackingWindowEnd, &embedding, &fp.CreatedAt,
	); err != nil {
		return nil, eris.Wrap(err, "sqlite: scan fingerprint")
	}

	if err := json.Unmarshal([]byte(phrases), &fp.KeyPhrases); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal key phrases")
	}
	if err := json.Unmarshal([]byte(angles), &fp.UniqueAngles); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal unique angles")
	}
	if err := json.Unmarshal([]byte(channels), &fp.ExpectedChannels); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal expected channels")
	}
	if embedding.Valid && embedding.String != "" {
		if err := json.Unmarshal([]byte(embedding.String), &fp.Embedding); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal embedding")
		}
	}
	return &fp, nil
}

func scanSQLiteAttribution(scan sqliteScanner) (*model.Attribution, error) {
	var a model.Attribution
	var outlet, sentiment sql.NullString
	var detail string
	if err := scan(
		&a.ID, &a.OrgID, &a.FingerprintID, &a.CampaignID, &a.SourceType, &a.SourceURL,
		&outlet, &a.Title, &a.Text, &a.PublishedAt, &a.Confidence, &a.MatchType,
		&detail, &a.EstimatedReach, &sentiment, &a.CreatedAt,
	); err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(detail), &a.Detail); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal match detail")
	}
	a.SourceOutlet = outlet.String
	a.Sentiment = sentiment.String
	return &a, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
