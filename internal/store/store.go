package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ppiankov/realcheck/internal/model"
)

// ErrNotFound is returned when no report has the requested id
var ErrNotFound = errors.New("report not found")

// Summary is the listing view of a stored report
type Summary struct {
	ID         string               `json:"id"`
	URL        string               `json:"url"`
	Timestamp  time.Time            `json:"timestamp"`
	Overall    model.OverallVerdict `json:"overall"`
	AIScore    float64              `json:"ai_score"`
	FalseFlags int                  `json:"false_flags"`
}

// ReportStore persists finished reports
type ReportStore interface {
	// Save stores the report and returns where it was written
	Save(ctx context.Context, report *model.Report) (string, error)
	Get(ctx context.Context, id string) (*model.Report, error)
	// List returns the newest reports first; limit <= 0 returns all
	List(ctx context.Context, limit int) ([]Summary, error)
	Close() error
}

// New opens the configured backend. Backend "none" returns nil.
func New(cfg *model.Config) (ReportStore, error) {
	switch strings.ToLower(cfg.Store.Backend) {
	case "", "none":
		return nil, nil
	case "file":
		return NewFileStore(cfg.Output.ReportsDir)
	case "sqlite":
		path := cfg.Store.Path
		if path == "" {
			path = DefaultSQLitePath()
		}
		return NewSQLiteStore(path)
	default:
		return nil, fmt.Errorf("unknown store backend: %s (supported: file, sqlite, none)", cfg.Store.Backend)
	}
}

// DefaultSQLitePath returns ~/.realcheck/reports.db
func DefaultSQLitePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "reports.db"
	}
	return filepath.Join(home, ".realcheck", "reports.db")
}

func summarize(r *model.Report) Summary {
	return Summary{
		ID:         r.ID,
		URL:        r.URL,
		Timestamp:  r.Timestamp,
		Overall:    r.Overall,
		AIScore:    r.Authorship.Probability,
		FalseFlags: r.FalseFlags,
	}
}
