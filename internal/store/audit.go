package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/raaihank/redactview/internal/config"
	"go.uber.org/zap"
)

// AuditStore records detection runs in PostgreSQL. It never stores the
// analyzed text itself or any redaction state, only run metadata keyed by
// the text hash.
type AuditStore struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// Run is one recorded detection run.
type Run struct {
	ID          int64     `db:"id" json:"id"`
	TextHash    string    `db:"text_hash" json:"text_hash"`
	TextBytes   int       `db:"text_bytes" json:"text_bytes"`
	EntityCount int       `db:"entity_count" json:"entity_count"`
	Labels      string    `db:"labels" json:"labels"`
	DurationMS  float64   `db:"duration_ms" json:"duration_ms"`
	CacheHit    bool      `db:"cache_hit" json:"cache_hit"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

const createRunsTable = `
CREATE TABLE IF NOT EXISTS detection_runs (
	id BIGSERIAL PRIMARY KEY,
	text_hash TEXT NOT NULL,
	text_bytes INTEGER NOT NULL,
	entity_count INTEGER NOT NULL,
	labels TEXT NOT NULL,
	duration_ms DOUBLE PRECISION NOT NULL,
	cache_hit BOOLEAN NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// New creates an audit store connected to PostgreSQL.
func New(cfg config.AuditConfig, logger *zap.Logger) (*AuditStore, error) {
	db, err := sqlx.Connect("postgres", cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	store := &AuditStore{
		db:     db,
		logger: logger,
	}

	if err := store.initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize audit store: %w", err)
	}

	logger.Info("Audit store initialized",
		zap.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
		zap.Int("max_open_conns", cfg.MaxOpenConns))

	return store, nil
}

// initialize checks the connection and ensures the runs table exists.
func (s *AuditStore) initialize() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, createRunsTable); err != nil {
		return fmt.Errorf("failed to create detection_runs table: %w", err)
	}

	return nil
}

// RecordRun inserts one detection run.
func (s *AuditStore) RecordRun(ctx context.Context, run *Run) error {
	query := `
		INSERT INTO detection_runs (text_hash, text_bytes, entity_count, labels, duration_ms, cache_hit)
		VALUES (:text_hash, :text_bytes, :entity_count, :labels, :duration_ms, :cache_hit)`

	if _, err := s.db.NamedExecContext(ctx, query, run); err != nil {
		return fmt.Errorf("failed to record detection run: %w", err)
	}

	s.logger.Debug("Detection run recorded",
		zap.String("text_hash", run.TextHash),
		zap.Int("entity_count", run.EntityCount))

	return nil
}

// RecentRuns returns the most recent detection runs, newest first.
func (s *AuditStore) RecentRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 50
	}

	var runs []Run
	query := `
		SELECT id, text_hash, text_bytes, entity_count, labels, duration_ms, cache_hit, created_at
		FROM detection_runs
		ORDER BY created_at DESC
		LIMIT $1`

	if err := s.db.SelectContext(ctx, &runs, query, limit); err != nil {
		return nil, fmt.Errorf("failed to query detection runs: %w", err)
	}

	return runs, nil
}

// Close closes the database connection.
func (s *AuditStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// maskDatabaseURL masks credentials in a database URL for logging.
func maskDatabaseURL(url string) string {
	if idx := strings.Index(url, "@"); idx != -1 {
		if schemeEnd := strings.Index(url, "://"); schemeEnd != -1 {
			return url[:schemeEnd+3] + "***@" + url[idx+1:]
		}
	}
	return url
}
