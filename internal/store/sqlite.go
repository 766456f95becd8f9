package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/ppiankov/realcheck/internal/metrics"
	"github.com/ppiankov/realcheck/internal/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS reports (
	id          TEXT PRIMARY KEY,
	url         TEXT NOT NULL,
	created_at  TEXT NOT NULL,
	overall     TEXT NOT NULL,
	ai_score    REAL NOT NULL,
	false_flags INTEGER NOT NULL,
	body        TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_reports_created_at ON reports(created_at);
`

// timeLayout is fixed width so created_at sorts lexically
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// SQLiteStore keeps report history in a SQLite database
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// NewSQLiteStore opens or creates the database at path
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &SQLiteStore{db: db, path: path}, nil
}

// Path returns the database file path
func (s *SQLiteStore) Path() string { return s.path }

func (s *SQLiteStore) Save(ctx context.Context, report *model.Report) (string, error) {
	body, err := json.Marshal(report)
	if err != nil {
		return "", fmt.Errorf("marshal report: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO reports (id, url, created_at, overall, ai_score, false_flags, body)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			url = excluded.url,
			created_at = excluded.created_at,
			overall = excluded.overall,
			ai_score = excluded.ai_score,
			false_flags = excluded.false_flags,
			body = excluded.body
	`, report.ID, report.URL, report.Timestamp.UTC().Format(timeLayout),
		string(report.Overall), report.Authorship.Probability, report.FalseFlags, string(body))
	if err != nil {
		return "", fmt.Errorf("inserting report: %w", err)
	}

	metrics.ReportsStored.WithLabelValues("sqlite").Inc()
	return s.path + "#" + report.ID, nil
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (*model.Report, error) {
	var body string
	row := s.db.QueryRowContext(ctx, "SELECT body FROM reports WHERE id = ?", id)
	if err := row.Scan(&body); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scanning report: %w", err)
	}

	var report model.Report
	if err := json.Unmarshal([]byte(body), &report); err != nil {
		return nil, fmt.Errorf("decoding report: %w", err)
	}
	return &report, nil
}

func (s *SQLiteStore) List(ctx context.Context, limit int) ([]Summary, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, url, created_at, overall, ai_score, false_flags
		FROM reports
		ORDER BY created_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying reports: %w", err)
	}
	defer func() { _ = rows.Close() }()

	summaries := []Summary{}
	for rows.Next() {
		var (
			sum       Summary
			createdAt string
			overall   string
		)
		if err := rows.Scan(&sum.ID, &sum.URL, &createdAt, &overall, &sum.AIScore, &sum.FalseFlags); err != nil {
			return nil, fmt.Errorf("scanning report: %w", err)
		}
		sum.Overall = model.OverallVerdict(overall)
		if sum.Timestamp, err = time.Parse(timeLayout, createdAt); err != nil {
			return nil, fmt.Errorf("parsing timestamp: %w", err)
		}
		summaries = append(summaries, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating reports: %w", err)
	}
	return summaries, nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
