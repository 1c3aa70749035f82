package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const (
	driverName  = "sqlite"
	maxAttempts = 5
)

// Run is one recorded analysis pass over a project.
type Run struct {
	ID              string
	ProjectKey      string
	Timestamp       time.Time
	Revision        uint64
	FileCount       int
	ClassCount      int
	DiagnosticCount int
	Duration        time.Duration
}

// Diagnostic is one persisted finding of a run.
type Diagnostic struct {
	RunID   string
	Kind    string
	Message string
	File    string
	Line    int
	Col     int
}

type Store struct {
	path string
	db   *sql.DB
	mu   sync.Mutex
}

func Open(path string) (*Store, error) {
	cleanPath := strings.TrimSpace(path)
	if cleanPath == "" {
		return nil, fmt.Errorf("history path must not be empty")
	}
	if info, err := os.Stat(cleanPath); err == nil && info.IsDir() {
		return nil, fmt.Errorf("history path %q is a directory, expected file", cleanPath)
	}

	dir := filepath.Dir(cleanPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create history directory %q: %w", dir, err)
		}
	}

	// busy_timeout + WAL reduce lock conflicts during watch-mode churn.
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(2000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)", cleanPath)
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite history %q: %w", cleanPath, err)
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite history %q: %w", cleanPath, err)
	}
	if err := EnsureSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize sqlite schema %q: %w", cleanPath, err)
	}

	return &Store{path: cleanPath, db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// SaveRun records a run and its diagnostics in one transaction. A missing ID
// gets a fresh UUID; the assigned ID is returned.
func (s *Store) SaveRun(run Run, diags []Diagnostic) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.ProjectKey == "" {
		run.ProjectKey = "default"
	}
	if run.Timestamp.IsZero() {
		run.Timestamp = time.Now().UTC()
	}

	err := s.withRetry("save run", func() error {
		tx, err := s.db.Begin()
		if err != nil {
			return err
		}
		if _, err := tx.Exec(`
INSERT INTO runs (
  run_id, project_key, ts_utc, revision, file_count, class_count, diagnostic_count, duration_ms
) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
`,
			run.ID,
			run.ProjectKey,
			run.Timestamp.UTC().Format(time.RFC3339Nano),
			run.Revision,
			run.FileCount,
			run.ClassCount,
			run.DiagnosticCount,
			run.Duration.Milliseconds(),
		); err != nil {
			_ = tx.Rollback()
			return err
		}
		for _, d := range diags {
			if _, err := tx.Exec(`
INSERT INTO diagnostics (run_id, kind, message, file, line, col)
VALUES (?, ?, ?, ?, ?, ?)
`, run.ID, d.Kind, d.Message, d.File, d.Line, d.Col); err != nil {
				_ = tx.Rollback()
				return err
			}
		}
		return tx.Commit()
	})
	if err != nil {
		return "", err
	}
	return run.ID, nil
}

// LoadRuns returns the runs of a project in chronological order, optionally
// restricted to ones at or after since.
func (s *Store) LoadRuns(projectKey string, since time.Time) ([]Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if projectKey == "" {
		projectKey = "default"
	}

	query := `
SELECT run_id, project_key, ts_utc, revision, file_count, class_count, diagnostic_count, duration_ms
FROM runs
WHERE project_key = ?`
	args := []any{projectKey}
	if !since.IsZero() {
		query += " AND ts_utc >= ?"
		args = append(args, since.UTC().Format(time.RFC3339Nano))
	}
	query += " ORDER BY ts_utc ASC"

	var rows *sql.Rows
	err := s.withRetry("load runs", func() error {
		var qErr error
		rows, qErr = s.db.Query(query, args...)
		return qErr
	})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := make([]Run, 0)
	for rows.Next() {
		var (
			run        Run
			tsRaw      string
			durationMs int64
		)
		if err := rows.Scan(
			&run.ID,
			&run.ProjectKey,
			&tsRaw,
			&run.Revision,
			&run.FileCount,
			&run.ClassCount,
			&run.DiagnosticCount,
			&durationMs,
		); err != nil {
			return nil, fmt.Errorf("scan run row: %w", err)
		}
		ts, err := time.Parse(time.RFC3339Nano, tsRaw)
		if err != nil {
			return nil, fmt.Errorf("parse run timestamp %q: %w", tsRaw, err)
		}
		run.Timestamp = ts.UTC()
		run.Duration = time.Duration(durationMs) * time.Millisecond
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run rows: %w", err)
	}
	return runs, nil
}

// LoadDiagnostics returns the persisted findings of one run.
func (s *Store) LoadDiagnostics(runID string) ([]Diagnostic, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var rows *sql.Rows
	err := s.withRetry("load diagnostics", func() error {
		var qErr error
		rows, qErr = s.db.Query(`
SELECT run_id, kind, message, file, line, col
FROM diagnostics
WHERE run_id = ?
ORDER BY file ASC, line ASC, col ASC
`, runID)
		return qErr
	})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	diags := make([]Diagnostic, 0)
	for rows.Next() {
		var d Diagnostic
		if err := rows.Scan(&d.RunID, &d.Kind, &d.Message, &d.File, &d.Line, &d.Col); err != nil {
			return nil, fmt.Errorf("scan diagnostic row: %w", err)
		}
		diags = append(diags, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate diagnostic rows: %w", err)
	}
	return diags, nil
}

// KindCount is one cell of the per-run diagnostic trend.
type KindCount struct {
	RunID string
	Kind  string
	Count int
}

// LoadKindTrend returns diagnostic counts grouped by kind for every run of a
// project, ordered by run time.
func (s *Store) LoadKindTrend(projectKey string) ([]KindCount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if projectKey == "" {
		projectKey = "default"
	}

	var rows *sql.Rows
	err := s.withRetry("load kind trend", func() error {
		var qErr error
		rows, qErr = s.db.Query(`
SELECT d.run_id, d.kind, COUNT(*)
FROM diagnostics d
JOIN runs r ON r.run_id = d.run_id
WHERE r.project_key = ?
GROUP BY d.run_id, d.kind
ORDER BY r.ts_utc ASC, d.kind ASC
`, projectKey)
		return qErr
	})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make([]KindCount, 0)
	for rows.Next() {
		var kc KindCount
		if err := rows.Scan(&kc.RunID, &kc.Kind, &kc.Count); err != nil {
			return nil, fmt.Errorf("scan trend row: %w", err)
		}
		counts = append(counts, kc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trend rows: %w", err)
	}
	return counts, nil
}

// Prune deletes runs older than before, along with their diagnostics.
func (s *Store) Prune(before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed int64
	err := s.withRetry("prune runs", func() error {
		res, err := s.db.Exec(
			"DELETE FROM runs WHERE ts_utc < ?",
			before.UTC().Format(time.RFC3339Nano),
		)
		if err != nil {
			return err
		}
		removed, _ = res.RowsAffected()
		return nil
	})
	return removed, err
}

func (s *Store) withRetry(op string, fn func() error) error {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if !isLockError(err) || attempt == maxAttempts {
			break
		}
		time.Sleep(time.Duration(attempt*25) * time.Millisecond)
	}
	return fmt.Errorf("%s: %w", op, lastErr)
}

func isLockError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "busy")
}

func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

func IsCorruptError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "malformed") || strings.Contains(msg, "not a database")
}
