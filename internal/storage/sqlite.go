// Package storage provides the SQLite implementation of the Storage interface.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/Miyazak1/linklore-sub001/internal/models"
)

// SQLiteStorage implements Storage using SQLite through sqlx.
type SQLiteStorage struct {
	db *sqlx.DB
}

// NewSQLiteStorage opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sqlx.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

func initSchema(db *sqlx.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS documents (
		id TEXT PRIMARY KEY,
		topic_id TEXT NOT NULL,
		parent_id TEXT,
		author_id TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_documents_topic ON documents(topic_id, created_at);

	CREATE TABLE IF NOT EXISTS evaluations (
		id TEXT PRIMARY KEY,
		document_id TEXT NOT NULL,
		scores TEXT NOT NULL,
		discipline TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_evaluations_document ON evaluations(document_id, created_at);

	CREATE TABLE IF NOT EXISTS summaries (
		id TEXT PRIMARY KEY,
		document_id TEXT NOT NULL,
		claims TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_summaries_document ON summaries(document_id, created_at);

	CREATE TABLE IF NOT EXISTS disagreements (
		id TEXT PRIMARY KEY,
		topic_id TEXT NOT NULL,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		severity TEXT NOT NULL,
		confidence REAL NOT NULL DEFAULT 0,
		false_positive INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_disagreements_topic ON disagreements(topic_id, confidence);

	CREATE TABLE IF NOT EXISTS ai_configs (
		id TEXT PRIMARY KEY,
		provider TEXT NOT NULL,
		model TEXT NOT NULL DEFAULT '',
		embedding_model TEXT NOT NULL DEFAULT '',
		encrypted_api_key TEXT NOT NULL,
		endpoint TEXT NOT NULL DEFAULT '',
		updated_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS user_consensus (
		topic_id TEXT NOT NULL,
		user1_id TEXT NOT NULL,
		user2_id TEXT NOT NULL,
		consensus TEXT NOT NULL,
		disagreements TEXT NOT NULL,
		consensus_score REAL NOT NULL,
		divergence_score REAL NOT NULL,
		measured INTEGER NOT NULL DEFAULT 0,
		doc_ids TEXT NOT NULL,
		discussion_paths TEXT NOT NULL,
		last_analyzed_at DATETIME NOT NULL,
		version INTEGER NOT NULL,
		PRIMARY KEY (topic_id, user1_id, user2_id)
	);

	CREATE TABLE IF NOT EXISTS consensus_snapshots (
		id TEXT PRIMARY KEY,
		topic_id TEXT NOT NULL,
		snapshot_at DATETIME NOT NULL,
		consensus_score REAL,
		divergence_score REAL,
		consensus_data TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_snapshots_topic ON consensus_snapshots(topic_id, snapshot_at);
	`
	_, err := db.Exec(schema)
	return err
}

// CreateDocument inserts a document. A zero CreatedAt is set to now.
func (s *SQLiteStorage) CreateDocument(ctx context.Context, doc *models.Document) error {
	return insertDocument(ctx, s.db, doc)
}

func insertDocument(ctx context.Context, e sqlx.ExtContext, doc *models.Document) error {
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now()
	}
	doc.CreatedAt = doc.CreatedAt.UTC()
	var parent any
	if !doc.IsRoot() {
		parent = *doc.ParentID
	}
	_, err := e.ExecContext(ctx,
		`INSERT INTO documents (id, topic_id, parent_id, author_id, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		doc.ID, doc.TopicID, parent, doc.AuthorID, doc.CreatedAt,
	)
	return err
}

// ListTopicDocuments returns every document of a topic ordered by creation time.
func (s *SQLiteStorage) ListTopicDocuments(ctx context.Context, topicID string) ([]*models.Document, error) {
	var docs []*models.Document
	err := s.db.SelectContext(ctx, &docs,
		`SELECT id, topic_id, parent_id, author_id, created_at
		 FROM documents WHERE topic_id = ? ORDER BY created_at, rowid`, topicID)
	if err != nil {
		return nil, err
	}
	return docs, nil
}

type evaluationRow struct {
	ID         string    `db:"id"`
	DocumentID string    `db:"document_id"`
	Scores     string    `db:"scores"`
	Discipline string    `db:"discipline"`
	CreatedAt  time.Time `db:"created_at"`
}

// AddEvaluation stores an evaluation. Missing ID and CreatedAt are filled in.
func (s *SQLiteStorage) AddEvaluation(ctx context.Context, eval *models.Evaluation) error {
	return insertEvaluation(ctx, s.db, eval)
}

func insertEvaluation(ctx context.Context, e sqlx.ExtContext, eval *models.Evaluation) error {
	if eval.ID == "" {
		eval.ID = uuid.New().String()
	}
	if eval.CreatedAt.IsZero() {
		eval.CreatedAt = time.Now()
	}
	eval.CreatedAt = eval.CreatedAt.UTC()
	scoresJSON, err := json.Marshal(eval.Scores)
	if err != nil {
		return fmt.Errorf("failed to marshal scores: %w", err)
	}
	_, err = e.ExecContext(ctx,
		`INSERT INTO evaluations (id, document_id, scores, discipline, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		eval.ID, eval.DocumentID, string(scoresJSON), eval.Discipline, eval.CreatedAt,
	)
	return err
}

// LatestEvaluations returns the most recent evaluation per document. Documents
// without an evaluation are absent from the map.
func (s *SQLiteStorage) LatestEvaluations(ctx context.Context, docIDs []string) (map[string]*models.Evaluation, error) {
	out := make(map[string]*models.Evaluation)
	if len(docIDs) == 0 {
		return out, nil
	}
	query, args, err := sqlx.In(
		`SELECT id, document_id, scores, discipline, created_at
		 FROM evaluations WHERE document_id IN (?) ORDER BY created_at, rowid`, docIDs)
	if err != nil {
		return nil, err
	}
	var rows []evaluationRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		return nil, err
	}
	for _, r := range rows {
		out[r.DocumentID] = &models.Evaluation{
			ID:         r.ID,
			DocumentID: r.DocumentID,
			Scores:     decodeScores(r.Scores),
			Discipline: r.Discipline,
			CreatedAt:  r.CreatedAt,
		}
	}
	return out, nil
}

// decodeScores keeps numeric entries only; "_reasoning" and other non-numeric values are dropped.
func decodeScores(raw string) map[string]float64 {
	var generic map[string]any
	scores := make(map[string]float64)
	if err := json.Unmarshal([]byte(raw), &generic); err != nil {
		return scores
	}
	for k, v := range generic {
		if k == "_reasoning" {
			continue
		}
		if f, ok := v.(float64); ok {
			scores[k] = f
		}
	}
	return scores
}

type summaryRow struct {
	ID         string    `db:"id"`
	DocumentID string    `db:"document_id"`
	Claims     string    `db:"claims"`
	CreatedAt  time.Time `db:"created_at"`
}

// AddSummary stores a summary. Missing ID and CreatedAt are filled in.
func (s *SQLiteStorage) AddSummary(ctx context.Context, sum *models.Summary) error {
	return insertSummary(ctx, s.db, sum)
}

func insertSummary(ctx context.Context, e sqlx.ExtContext, sum *models.Summary) error {
	if sum.ID == "" {
		sum.ID = uuid.New().String()
	}
	if sum.CreatedAt.IsZero() {
		sum.CreatedAt = time.Now()
	}
	sum.CreatedAt = sum.CreatedAt.UTC()
	claims := sum.Claims
	if claims == nil {
		claims = []string{}
	}
	claimsJSON, err := json.Marshal(claims)
	if err != nil {
		return fmt.Errorf("failed to marshal claims: %w", err)
	}
	_, err = e.ExecContext(ctx,
		`INSERT INTO summaries (id, document_id, claims, created_at) VALUES (?, ?, ?, ?)`,
		sum.ID, sum.DocumentID, string(claimsJSON), sum.CreatedAt,
	)
	return err
}

// LatestSummaries returns the most recent summary per document.
func (s *SQLiteStorage) LatestSummaries(ctx context.Context, docIDs []string) (map[string]*models.Summary, error) {
	out := make(map[string]*models.Summary)
	if len(docIDs) == 0 {
		return out, nil
	}
	query, args, err := sqlx.In(
		`SELECT id, document_id, claims, created_at
		 FROM summaries WHERE document_id IN (?) ORDER BY created_at, rowid`, docIDs)
	if err != nil {
		return nil, err
	}
	var rows []summaryRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		return nil, err
	}
	for _, r := range rows {
		var claims []string
		if err := json.Unmarshal([]byte(r.Claims), &claims); err != nil {
			claims = nil
		}
		out[r.DocumentID] = &models.Summary{
			ID:         r.ID,
			DocumentID: r.DocumentID,
			Claims:     claims,
			CreatedAt:  r.CreatedAt,
		}
	}
	return out, nil
}

// CreateDisagreement inserts a disagreement record.
func (s *SQLiteStorage) CreateDisagreement(ctx context.Context, d *models.Disagreement) error {
	return insertDisagreement(ctx, s.db, d)
}

func insertDisagreement(ctx context.Context, e sqlx.ExtContext, d *models.Disagreement) error {
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now()
	}
	d.CreatedAt = d.CreatedAt.UTC()
	_, err := sqlx.NamedExecContext(ctx, e,
		`INSERT INTO disagreements (id, topic_id, title, description, severity, confidence, false_positive, created_at)
		 VALUES (:id, :topic_id, :title, :description, :severity, :confidence, :false_positive, :created_at)`, d)
	return err
}

// ListActiveDisagreements returns non-false-positive disagreements for a topic.
func (s *SQLiteStorage) ListActiveDisagreements(ctx context.Context, topicID string, limit int) ([]*models.Disagreement, error) {
	query := `SELECT id, topic_id, title, description, severity, confidence, false_positive, created_at
		FROM disagreements
		WHERE topic_id = ? AND false_positive = 0
		ORDER BY confidence DESC, created_at DESC, rowid DESC`
	args := []any{topicID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	var out []*models.Disagreement
	if err := s.db.SelectContext(ctx, &out, query, args...); err != nil {
		return nil, err
	}
	return out, nil
}

// SaveAIConfig stores an AI configuration. UpdatedAt is set to now.
func (s *SQLiteStorage) SaveAIConfig(ctx context.Context, cfg *models.AIConfig) error {
	if cfg.ID == "" {
		cfg.ID = uuid.New().String()
	}
	cfg.UpdatedAt = time.Now().UTC()
	_, err := s.db.NamedExecContext(ctx,
		`INSERT INTO ai_configs (id, provider, model, embedding_model, encrypted_api_key, endpoint, updated_at)
		 VALUES (:id, :provider, :model, :embedding_model, :encrypted_api_key, :endpoint, :updated_at)
		 ON CONFLICT(id) DO UPDATE SET
			provider = excluded.provider,
			model = excluded.model,
			embedding_model = excluded.embedding_model,
			encrypted_api_key = excluded.encrypted_api_key,
			endpoint = excluded.endpoint,
			updated_at = excluded.updated_at`, cfg)
	return err
}

// LatestAIConfig returns the most recently updated AI configuration.
func (s *SQLiteStorage) LatestAIConfig(ctx context.Context) (*models.AIConfig, error) {
	var cfg models.AIConfig
	err := s.db.GetContext(ctx, &cfg,
		`SELECT id, provider, model, embedding_model, encrypted_api_key, endpoint, updated_at
		 FROM ai_configs ORDER BY updated_at DESC, rowid DESC LIMIT 1`)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Stats returns row counts across all tables.
func (s *SQLiteStorage) Stats(ctx context.Context) (*Stats, error) {
	var st Stats
	err := s.db.GetContext(ctx, &st, `SELECT
		(SELECT COUNT(*) FROM documents) AS documents,
		(SELECT COUNT(*) FROM evaluations) AS evaluations,
		(SELECT COUNT(*) FROM summaries) AS summaries,
		(SELECT COUNT(*) FROM disagreements) AS disagreements,
		(SELECT COUNT(*) FROM user_consensus) AS pairs,
		(SELECT COUNT(*) FROM consensus_snapshots) AS snapshots`)
	if err != nil {
		return nil, err
	}
	return &st, nil
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
