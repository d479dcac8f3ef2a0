package llmcall

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // Register driver
)

// Store persists Call records in a local SQLite database.
type Store struct {
	db *sql.DB
}

// QueryFilter specifies filters for listing calls.
type QueryFilter struct {
	RunID     string
	PromptKey string
	Category  string
	Model     string
	After     *time.Time
	Success   *bool
	Limit     int
	Offset    int
}

// Open opens (or creates) the database at path and runs migrations.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create db dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping db: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=30000;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}
	// Single connection avoids SQLITE_BUSY from concurrent writers.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS llm_call (
			id TEXT PRIMARY KEY,
			timestamp DATETIME NOT NULL,
			latency_ms INTEGER,
			run_id TEXT,
			prompt_key TEXT,
			category TEXT,
			model TEXT,
			response TEXT,
			success BOOLEAN,
			error TEXT
		);`,
		`CREATE INDEX IF NOT EXISTS idx_llm_call_run ON llm_call(run_id);`,
		`CREATE INDEX IF NOT EXISTS idx_llm_call_timestamp ON llm_call(timestamp);`,
	}
	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Insert writes a single call.
func (s *Store) Insert(ctx context.Context, c *Call) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO llm_call (id, timestamp, latency_ms, run_id, prompt_key, category, model, response, success, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Timestamp.UTC(), c.LatencyMs, c.RunID, c.PromptKey, c.Category, c.Model, c.Response, c.Success, c.Error)
	if err != nil {
		return fmt.Errorf("insert llm call %s: %w", c.ID, err)
	}
	return nil
}

// Get retrieves a single call by ID. Returns nil, nil when not found.
func (s *Store) Get(ctx context.Context, id string) (*Call, error) {
	calls, err := s.query(ctx, "SELECT "+callColumns+" FROM llm_call WHERE id = ?", id)
	if err != nil {
		return nil, err
	}
	if len(calls) == 0 {
		return nil, nil
	}
	return &calls[0], nil
}

// List returns calls matching filter, newest first.
func (s *Store) List(ctx context.Context, filter QueryFilter) ([]Call, error) {
	var where []string
	var args []any

	if filter.RunID != "" {
		where = append(where, "run_id = ?")
		args = append(args, filter.RunID)
	}
	if filter.PromptKey != "" {
		where = append(where, "prompt_key = ?")
		args = append(args, filter.PromptKey)
	}
	if filter.Category != "" {
		where = append(where, "category = ?")
		args = append(args, filter.Category)
	}
	if filter.Model != "" {
		where = append(where, "model = ?")
		args = append(args, filter.Model)
	}
	if filter.After != nil {
		where = append(where, "timestamp > ?")
		args = append(args, filter.After.UTC())
	}
	if filter.Success != nil {
		where = append(where, "success = ?")
		args = append(args, *filter.Success)
	}

	q := "SELECT " + callColumns + " FROM llm_call"
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY timestamp DESC"

	limit := filter.Limit
	if limit <= 0 {
		limit = -1
	}
	q += " LIMIT ? OFFSET ?"
	args = append(args, limit, filter.Offset)

	return s.query(ctx, q, args...)
}

// CountByPromptKey returns call counts grouped by prompt key for a run.
func (s *Store) CountByPromptKey(ctx context.Context, runID string) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT prompt_key, COUNT(*) FROM llm_call WHERE run_id = ? GROUP BY prompt_key", runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var key string
		var n int
		if err := rows.Scan(&key, &n); err != nil {
			return nil, err
		}
		counts[key] = n
	}
	return counts, rows.Err()
}

const callColumns = "id, timestamp, latency_ms, run_id, prompt_key, category, model, response, success, error"

func (s *Store) query(ctx context.Context, q string, args ...any) ([]Call, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query llm calls: %w", err)
	}
	defer rows.Close()

	var calls []Call
	for rows.Next() {
		var c Call
		var runID, promptKey, category, model, response, errMsg sql.NullString
		if err := rows.Scan(&c.ID, &c.Timestamp, &c.LatencyMs, &runID, &promptKey, &category, &model, &response, &c.Success, &errMsg); err != nil {
			return nil, fmt.Errorf("scan llm call: %w", err)
		}
		c.RunID = runID.String
		c.PromptKey = promptKey.String
		c.Category = category.String
		c.Model = model.String
		c.Response = response.String
		c.Error = errMsg.String
		calls = append(calls, c)
	}
	return calls, rows.Err()
}
