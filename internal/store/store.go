package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/ppiankov/storybias/internal/model"
)

const schema = `
-- One row per generate invocation
CREATE TABLE IF NOT EXISTS runs (
    id TEXT PRIMARY KEY,
    models TEXT NOT NULL,
    status TEXT NOT NULL,
    started_at TEXT NOT NULL,
    finished_at TEXT
);

-- Generated responses, one per (model, round, prompt)
CREATE TABLE IF NOT EXISTS responses (
    model TEXT NOT NULL,
    round INTEGER NOT NULL,
    prompt_index INTEGER NOT NULL,
    response TEXT NOT NULL,
    incomplete INTEGER NOT NULL DEFAULT 0,
    attempts INTEGER NOT NULL DEFAULT 1,
    tokens INTEGER NOT NULL DEFAULT 0,
    run_id TEXT,
    created_at TEXT NOT NULL,
    PRIMARY KEY (model, round, prompt_index)
);

CREATE INDEX IF NOT EXISTS idx_responses_run ON responses(run_id);
`

// Run statuses
const (
	RunRunning   = "running"
	RunCompleted = "completed"
	RunFailed    = "failed"
)

// Store is the sqlite checkpoint of generated responses
type Store struct {
	conn *sql.DB
}

// Run is one generation session
type Run struct {
	ID        string
	Models    []string
	Status    string
	StartedAt time.Time
}

// Response is one stored model answer
type Response struct {
	Key        model.RecordKey
	Text       string
	Incomplete bool // still truncated or without a verdict after the last retry
	Attempts   int
	Tokens     int
	RunID      string
	CreatedAt  time.Time
}

// Open opens (and creates if needed) the store at path
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating store directory: %w", err)
		}
	}

	conn, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	s := &Store{conn: conn}
	if err := s.migrate(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

func (s *Store) migrate() error {
	if _, err := s.conn.Exec(schema); err != nil {
		return fmt.Errorf("executing migration: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.conn.Close()
}

// BeginRun records the start of a generation session
func (s *Store) BeginRun(ctx context.Context, models []string) (Run, error) {
	run := Run{
		ID:        uuid.NewString(),
		Models:    models,
		Status:    RunRunning,
		StartedAt: time.Now().UTC(),
	}
	_, err := s.conn.ExecContext(ctx, `
		INSERT INTO runs (id, models, status, started_at) VALUES (?, ?, ?, ?)
	`, run.ID, strings.Join(models, ","), run.Status, run.StartedAt.Format(time.RFC3339))
	if err != nil {
		return Run{}, fmt.Errorf("inserting run: %w", err)
	}
	return run, nil
}

// FinishRun marks a run completed or failed
func (s *Store) FinishRun(ctx context.Context, id, status string) error {
	res, err := s.conn.ExecContext(ctx, `
		UPDATE runs SET status = ?, finished_at = ? WHERE id = ?
	`, status, time.Now().UTC().Format(time.RFC3339), id)
	if err != nil {
		return fmt.Errorf("updating run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("run %s not found", id)
	}
	return nil
}

// Runs lists generation sessions, newest first
func (s *Store) Runs(ctx context.Context) ([]Run, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT id, models, status, started_at FROM runs ORDER BY started_at DESC, rowid DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []Run
	for rows.Next() {
		var r Run
		var models, started string
		if err := rows.Scan(&r.ID, &models, &r.Status, &started); err != nil {
			return nil, err
		}
		if models != "" {
			r.Models = strings.Split(models, ",")
		}
		r.StartedAt, _ = time.Parse(time.RFC3339, started)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Has reports whether a complete response is stored for key.
// Incomplete responses do not count so a later run retries them.
func (s *Store) Has(ctx context.Context, key model.RecordKey) (bool, error) {
	var incomplete int
	err := s.conn.QueryRowContext(ctx, `
		SELECT incomplete FROM responses WHERE model = ? AND round = ? AND prompt_index = ?
	`, key.Model, key.Round, key.Index).Scan(&incomplete)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking %s: %w", key, err)
	}
	return incomplete == 0, nil
}

// Save inserts or replaces the response for its key
func (s *Store) Save(ctx context.Context, r Response) error {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	if r.Attempts == 0 {
		r.Attempts = 1
	}
	_, err := s.conn.ExecContext(ctx, `
		INSERT INTO responses (model, round, prompt_index, response, incomplete, attempts, tokens, run_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(model, round, prompt_index) DO UPDATE SET
			response = excluded.response,
			incomplete = excluded.incomplete,
			attempts = responses.attempts + excluded.attempts,
			tokens = excluded.tokens,
			run_id = excluded.run_id,
			created_at = excluded.created_at
	`, r.Key.Model, r.Key.Round, r.Key.Index, r.Text, boolInt(r.Incomplete), r.Attempts, r.Tokens, nullString(r.RunID), r.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("saving %s: %w", r.Key, err)
	}
	return nil
}

// Responses returns every stored response of one model round, by prompt index
func (s *Store) Responses(ctx context.Context, modelName string, round int) ([]Response, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT prompt_index, response, incomplete, attempts, tokens, COALESCE(run_id, ''), created_at
		FROM responses WHERE model = ? AND round = ? ORDER BY prompt_index
	`, modelName, round)
	if err != nil {
		return nil, fmt.Errorf("querying responses: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Response
	for rows.Next() {
		r := Response{Key: model.RecordKey{Model: modelName, Round: round}}
		var incomplete int
		var created string
		if err := rows.Scan(&r.Key.Index, &r.Text, &incomplete, &r.Attempts, &r.Tokens, &r.RunID, &created); err != nil {
			return nil, err
		}
		r.Incomplete = incomplete != 0
		r.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		out = append(out, r)
	}
	return out, rows.Err()
}

// Rounds returns the rounds that have responses for a model, ascending
func (s *Store) Rounds(ctx context.Context, modelName string) ([]int, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT DISTINCT round FROM responses WHERE model = ? ORDER BY round
	`, modelName)
	if err != nil {
		return nil, fmt.Errorf("querying rounds: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var rounds []int
	for rows.Next() {
		var r int
		if err := rows.Scan(&r); err != nil {
			return nil, err
		}
		rounds = append(rounds, r)
	}
	return rounds, rows.Err()
}

// Models returns the model names with stored responses
func (s *Store) Models(ctx context.Context) ([]string, error) {
	rows, err := s.conn.QueryContext(ctx, `SELECT DISTINCT model FROM responses ORDER BY model`)
	if err != nil {
		return nil, fmt.Errorf("querying models: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var models []string
	for rows.Next() {
		var m string
		if err := rows.Scan(&m); err != nil {
			return nil, err
		}
		models = append(models, m)
	}
	return models, rows.Err()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
