// Package storage provides SQLite-based persistence for training runs,
// per-episode results and human play scores.
// Uses the pure-Go modernc.org/sqlite driver to avoid CGO dependencies.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// ErrRunNotFound is returned when no run matches an ID or ID prefix.
var ErrRunNotFound = errors.New("storage: run not found")

// Store manages the SQLite database connection.
type Store struct {
	db *sql.DB
}

// Run is one training or watching session.
type Run struct {
	ID        string
	Mode      string // "train", "watch", "serve"
	Config    string // Effective YAML config
	Episodes  int
	TopScore  int
	StartedAt time.Time
}

// EpisodeRecord is the stored summary of one finished episode.
type EpisodeRecord struct {
	RunID        string
	Episode      int
	Score        int
	TopScore     int
	AverageScore float64
	Epsilon      float64
	MemorySize   int
	LearningRate float64
	Frames       int
	CreatedAt    time.Time
}

// ScoreEntry is a human play result.
type ScoreEntry struct {
	ID        int64
	Score     int
	CreatedAt time.Time
}

// Open creates or opens a SQLite database at the given path.
// It creates the parent directories if needed and runs migrations.
func Open(dbPath string) (*Store, error) {
	// Expand ~ to home directory
	if dbPath != "" && dbPath[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("storage: cannot expand home directory: %w", err)
		}
		dbPath = filepath.Join(home, dbPath[1:])
	}

	// Create parent directories
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: cannot create directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: cannot connect to database: %w", err)
	}

	store := &Store{db: db}

	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: migration failed: %w", err)
	}

	return store, nil
}

// migrate creates the database schema if it doesn't exist.
func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			mode TEXT NOT NULL,
			config TEXT NOT NULL DEFAULT '',
			episodes INTEGER NOT NULL DEFAULT 0,
			top_score INTEGER NOT NULL DEFAULT 0,
			started_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS episodes (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL REFERENCES runs(id),
			episode INTEGER NOT NULL,
			score INTEGER NOT NULL,
			top_score INTEGER NOT NULL,
			average_score REAL NOT NULL,
			epsilon REAL NOT NULL,
			memory_size INTEGER NOT NULL,
			learning_rate REAL NOT NULL,
			frames INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_episodes_run ON episodes(run_id, episode);

		CREATE TABLE IF NOT EXISTS scores (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			score INTEGER NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_scores_top ON scores(score DESC);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// StartRun records a new run and returns it with a fresh ID.
func (s *Store) StartRun(mode string, config []byte) (Run, error) {
	run := Run{
		ID:        uuid.NewString(),
		Mode:      mode,
		Config:    string(config),
		StartedAt: time.Now().UTC(),
	}
	_, err := s.db.Exec(
		"INSERT INTO runs (id, mode, config, started_at) VALUES (?, ?, ?, ?)",
		run.ID, run.Mode, run.Config, run.StartedAt.Format(timeLayout),
	)
	if err != nil {
		return Run{}, fmt.Errorf("storage: cannot start run: %w", err)
	}
	return run, nil
}

// SaveEpisode stores an episode and updates its run's totals.
func (s *Store) SaveEpisode(e EpisodeRecord) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("storage: cannot begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // No-op after commit

	_, err = tx.Exec(
		`INSERT INTO episodes
		 (run_id, episode, score, top_score, average_score, epsilon, memory_size, learning_rate, frames)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.RunID, e.Episode, e.Score, e.TopScore, e.AverageScore, e.Epsilon, e.MemorySize, e.LearningRate, e.Frames,
	)
	if err != nil {
		return fmt.Errorf("storage: cannot save episode: %w", err)
	}

	res, err := tx.Exec(
		`UPDATE runs SET episodes = episodes + 1, top_score = MAX(top_score, ?) WHERE id = ?`,
		e.Score, e.RunID,
	)
	if err != nil {
		return fmt.Errorf("storage: cannot update run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, e.RunID)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage: cannot commit episode: %w", err)
	}
	return nil
}

// Runs returns the most recent runs, newest first.
func (s *Store) Runs(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.Query(
		`SELECT id, mode, config, episodes, top_score, started_at
		 FROM runs
		 ORDER BY started_at DESC, rowid DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var startedAt any
		if err := rows.Scan(&r.ID, &r.Mode, &r.Config, &r.Episodes, &r.TopScore, &startedAt); err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		r.StartedAt = parseTime(startedAt)
		runs = append(runs, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}

	return runs, nil
}

// FindRun returns the run whose ID equals or starts with idPrefix.
// An ambiguous prefix is reported as not found.
func (s *Store) FindRun(idPrefix string) (Run, error) {
	rows, err := s.db.Query(
		`SELECT id, mode, config, episodes, top_score, started_at
		 FROM runs
		 WHERE id = ? OR substr(id, 1, length(?)) = ?
		 LIMIT 2`,
		idPrefix, idPrefix, idPrefix,
	)
	if err != nil {
		return Run{}, fmt.Errorf("storage: cannot query run: %w", err)
	}
	defer rows.Close()

	var found []Run
	for rows.Next() {
		var r Run
		var startedAt any
		if err := rows.Scan(&r.ID, &r.Mode, &r.Config, &r.Episodes, &r.TopScore, &startedAt); err != nil {
			return Run{}, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		r.StartedAt = parseTime(startedAt)
		found = append(found, r)
	}
	if err := rows.Err(); err != nil {
		return Run{}, fmt.Errorf("storage: row iteration error: %w", err)
	}

	switch {
	case len(found) == 1:
		return found[0], nil
	case len(found) > 1:
		return Run{}, fmt.Errorf("%w: prefix %q is ambiguous", ErrRunNotFound, idPrefix)
	default:
		return Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, idPrefix)
	}
}

// Episodes returns every episode of a run in episode order.
func (s *Store) Episodes(runID string) ([]EpisodeRecord, error) {
	rows, err := s.db.Query(
		`SELECT run_id, episode, score, top_score, average_score, epsilon, memory_size, learning_rate, frames, created_at
		 FROM episodes
		 WHERE run_id = ?
		 ORDER BY episode ASC, id ASC`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query episodes: %w", err)
	}
	defer rows.Close()

	var episodes []EpisodeRecord
	for rows.Next() {
		var e EpisodeRecord
		var createdAt any
		if err := rows.Scan(&e.RunID, &e.Episode, &e.Score, &e.TopScore, &e.AverageScore,
			&e.Epsilon, &e.MemorySize, &e.LearningRate, &e.Frames, &createdAt); err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		e.CreatedAt = parseTime(createdAt)
		episodes = append(episodes, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}

	return episodes, nil
}

// SaveScore records a human play score.
// Returns the ID of the inserted record.
func (s *Store) SaveScore(score int) (int64, error) {
	result, err := s.db.Exec("INSERT INTO scores (score) VALUES (?)", score)
	if err != nil {
		return 0, fmt.Errorf("storage: cannot save score: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("storage: cannot get inserted ID: %w", err)
	}

	return id, nil
}

// TopScores retrieves the top N human play scores, highest first.
func (s *Store) TopScores(limit int) ([]ScoreEntry, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.Query(
		`SELECT id, score, created_at
		 FROM scores
		 ORDER BY score DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query scores: %w", err)
	}
	defer rows.Close()

	var entries []ScoreEntry
	for rows.Next() {
		var e ScoreEntry
		var createdAt any
		if err := rows.Scan(&e.ID, &e.Score, &createdAt); err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		e.CreatedAt = parseTime(createdAt)
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}

	return entries, nil
}

// HighScore returns the best human play score, or 0 if none exist.
func (s *Store) HighScore() (int, error) {
	var score sql.NullInt64
	if err := s.db.QueryRow("SELECT MAX(score) FROM scores").Scan(&score); err != nil {
		return 0, fmt.Errorf("storage: cannot query high score: %w", err)
	}

	if !score.Valid {
		return 0, nil
	}

	return int(score.Int64), nil
}

const timeLayout = "2006-01-02 15:04:05"

// parseTime handles both time.Time and string datetime columns.
func parseTime(v any) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t
	case string:
		if parsed, err := time.Parse(timeLayout, t); err == nil {
			return parsed
		}
	}
	return time.Time{}
}
