package history

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Run is one recorded analysis run.
type Run struct {
	ID          int64     `json:"id"`
	Source      string    `json:"source"`
	ReportPath  string    `json:"report_path"`
	VisualPath  string    `json:"visual_path,omitempty"`
	Mode        string    `json:"mode"`
	ObjectCount int       `json:"object_count"`
	OCRDetected bool      `json:"ocr_detected"`
	Confidence  float64   `json:"confidence"`
	CreatedAt   time.Time `json:"created_at"`
}

// Store is a SQLite-backed index of past analysis runs. Recording is
// best-effort; the pipeline works without it.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates and initializes the run-history database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		return nil, fmt.Errorf("failed to migrate history database: %w", err)
	}
	return store, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		source TEXT NOT NULL,
		report_path TEXT NOT NULL,
		visual_path TEXT,
		mode TEXT NOT NULL,
		object_count INTEGER DEFAULT 0,
		ocr_detected INTEGER DEFAULT 0,
		confidence REAL DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);
	CREATE INDEX IF NOT EXISTS idx_runs_source ON runs(source);
	`

	_, err := s.db.Exec(schema)
	return err
}

// InsertRun records a completed analysis run.
func (s *Store) InsertRun(run *Run) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.db.Exec(`
		INSERT INTO runs (source, report_path, visual_path, mode, object_count, ocr_detected, confidence, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, run.Source, run.ReportPath, run.VisualPath, run.Mode, run.ObjectCount, run.OCRDetected, run.Confidence, run.CreatedAt)
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}
	return result.LastInsertId()
}

// RecentRuns returns the newest runs first, capped at limit.
func (s *Store) RecentRuns(limit int) ([]Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.Query(`
		SELECT id, source, report_path, visual_path, mode, object_count, ocr_detected, confidence, created_at
		FROM runs
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		var visualPath sql.NullString
		if err := rows.Scan(&run.ID, &run.Source, &run.ReportPath, &visualPath, &run.Mode,
			&run.ObjectCount, &run.OCRDetected, &run.Confidence, &run.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		run.VisualPath = visualPath.String
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Stats returns aggregate counters over all recorded runs.
func (s *Store) Stats() (map[string]interface{}, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := make(map[string]interface{})

	var total int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM runs`).Scan(&total); err != nil {
		return nil, err
	}
	stats["total_runs"] = total

	var withText int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM runs WHERE ocr_detected = 1`).Scan(&withText); err != nil {
		return nil, err
	}
	stats["runs_with_text"] = withText

	rows, err := s.db.Query(`SELECT mode, COUNT(*) FROM runs GROUP BY mode`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	perMode := make(map[string]int)
	for rows.Next() {
		var mode string
		var count int
		if err := rows.Scan(&mode, &count); err != nil {
			return nil, err
		}
		perMode[mode] = count
	}
	stats["per_mode"] = perMode

	return stats, rows.Err()
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
