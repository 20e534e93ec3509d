// Package runstore persists completed pipeline runs and their answers in a
// SQLite database under the data directory. A file lock guards the directory
// against concurrent writers.
package runstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	_ "modernc.org/sqlite"

	"scrawl/internal/config"
	"scrawl/internal/pipeline"
)

// ErrNotFound is returned when a run id does not exist.
var ErrNotFound = errors.New("run not found")

// Run is one persisted pipeline run.
type Run struct {
	ID            string
	Document      string
	Backend       string
	Variant       string
	Transcript    string
	Confidence    float64
	LowConfidence bool
	Reinterpreted bool
	Duration      time.Duration
	CreatedAt     time.Time
	Answers       []Answer
}

// Answer is one persisted answer row in segment order.
type Answer struct {
	QuestionNumber       string
	Answer               string
	Tier                 string
	ExtractionConfidence float64
	MatchConfidence      float64
	Corrected            bool
	Verified             bool
}

// Store manages run persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	lock *flock.Flock
	path string
}

// Open initializes or connects to the run database and applies migrations.
// The data directory is locked for the lifetime of the store.
func Open(cfg *config.Config) (*Store, error) {
	if err := os.MkdirAll(cfg.Paths.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure data dir: %w", err)
	}

	lock := flock.New(filepath.Join(cfg.Paths.DataDir, "runstore.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire data dir lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("data directory %s is in use by another process", cfg.Paths.DataDir)
	}

	dbPath := filepath.Join(cfg.Paths.DataDir, "runs.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		_ = lock.Unlock()
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			_ = lock.Unlock()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, lock: lock, path: dbPath}
	if err := store.applyMigrations(context.Background()); err != nil {
		_ = db.Close()
		_ = lock.Unlock()
		return nil, err
	}
	return store, nil
}

// Close closes the database and releases the directory lock.
func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	var first error
	if s.db != nil {
		first = s.db.Close()
	}
	if s.lock != nil {
		if err := s.lock.Unlock(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// SaveOutcome records a completed pipeline run with all its answers.
func (s *Store) SaveOutcome(ctx context.Context, outcome pipeline.Outcome) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	document := outcome.Document.ImagePath
	if document == "" {
		document = "<text>"
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (
            id, document, backend, variant, transcript, confidence,
            low_confidence, reinterpreted, duration_ms, created_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		outcome.RunID,
		document,
		outcome.Transcript.Backend,
		outcome.Transcript.Variant,
		outcome.Transcript.Text,
		outcome.Transcript.Confidence,
		boolInt(outcome.Transcript.LowConfidence),
		boolInt(outcome.Transcript.Reinterpreted),
		outcome.Duration.Milliseconds(),
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for i, answer := range outcome.Answers {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO answers (
                run_id, position, question_number, answer, tier,
                extraction_confidence, match_confidence, corrected, verified
            ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			outcome.RunID,
			i,
			answer.QuestionNumber,
			answer.Answer,
			string(answer.TierUsed),
			answer.ExtractionConfidence,
			answer.MatchConfidence,
			boolInt(answer.Corrected),
			boolInt(answer.Verified),
		)
		if err != nil {
			return fmt.Errorf("insert answer %s: %w", answer.QuestionNumber, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit run: %w", err)
	}
	return nil
}

// GetRun loads one run with its answers in segment order.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, document, backend, variant, transcript, confidence,
            low_confidence, reinterpreted, duration_ms, created_at
         FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("load run: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT question_number, answer, tier, extraction_confidence,
            match_confidence, corrected, verified
         FROM answers WHERE run_id = ? ORDER BY position`, id)
	if err != nil {
		return nil, fmt.Errorf("load answers: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var a Answer
		var corrected, verified int
		if err := rows.Scan(&a.QuestionNumber, &a.Answer, &a.Tier,
			&a.ExtractionConfidence, &a.MatchConfidence, &corrected, &verified); err != nil {
			return nil, fmt.Errorf("scan answer: %w", err)
		}
		a.Corrected = corrected != 0
		a.Verified = verified != 0
		run.Answers = append(run.Answers, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate answers: %w", err)
	}
	return run, nil
}

// ListRuns returns the most recent runs, newest first, without answers.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, document, backend, variant, transcript, confidence,
            low_confidence, reinterpreted, duration_ms, created_at
         FROM runs ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	var run Run
	var lowConfidence, reinterpreted int
	var durationMS int64
	var createdAt string
	if err := row.Scan(&run.ID, &run.Document, &run.Backend, &run.Variant,
		&run.Transcript, &run.Confidence, &lowConfidence, &reinterpreted,
		&durationMS, &createdAt); err != nil {
		return nil, err
	}
	run.LowConfidence = lowConfidence != 0
	run.Reinterpreted = reinterpreted != 0
	run.Duration = time.Duration(durationMS) * time.Millisecond
	if ts, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
		run.CreatedAt = ts
	}
	return &run, nil
}

func boolInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
