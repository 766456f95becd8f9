package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/ppiankov/realcheck/internal/logger"
	"github.com/ppiankov/realcheck/internal/metrics"
	"github.com/ppiankov/realcheck/internal/model"
)

const filePrefix = "realcheck_"

// FileStore writes each report as realcheck_<YYYYmmdd_HHMMSS>.json in a directory
type FileStore struct {
	dir string
	mu  sync.Mutex
}

// NewFileStore creates the directory if needed
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		dir = model.DefaultReportsDir()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create reports directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Dir returns the reports directory
func (s *FileStore) Dir() string { return s.dir }

// Save writes the report. Reports finishing within the same second get the
// id appended to keep file names distinct.
func (s *FileStore) Save(ctx context.Context, report *model.Report) (string, error) {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal report: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	name := FileName(report)
	path := filepath.Join(s.dir, name)
	if _, err := os.Stat(path); err == nil {
		suffix := report.ID
		if len(suffix) > 8 {
			suffix = suffix[:8]
		}
		path = filepath.Join(s.dir, strings.TrimSuffix(name, ".json")+"_"+suffix+".json")
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	metrics.ReportsStored.WithLabelValues("file").Inc()
	return path, nil
}

// Get scans the directory for the report with id
func (s *FileStore) Get(ctx context.Context, id string) (*model.Report, error) {
	reports, err := s.readAll(ctx)
	if err != nil {
		return nil, err
	}
	for _, r := range reports {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, ErrNotFound
}

func (s *FileStore) List(ctx context.Context, limit int) ([]Summary, error) {
	reports, err := s.readAll(ctx)
	if err != nil {
		return nil, err
	}

	sort.Slice(reports, func(i, j int) bool {
		return reports[i].Timestamp.After(reports[j].Timestamp)
	})
	if limit > 0 && len(reports) > limit {
		reports = reports[:limit]
	}

	summaries := make([]Summary, len(reports))
	for i, r := range reports {
		summaries[i] = summarize(r)
	}
	return summaries, nil
}

func (s *FileStore) Close() error { return nil }

func (s *FileStore) readAll(ctx context.Context) ([]*model.Report, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read reports directory: %w", err)
	}

	var reports []*model.Report
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if e.IsDir() || !strings.HasPrefix(e.Name(), filePrefix) || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("read report: %w", err)
		}
		var r model.Report
		if err := json.Unmarshal(data, &r); err != nil {
			logger.Warn("Skipping unreadable report file", zap.String("file", e.Name()), zap.Error(err))
			continue
		}
		reports = append(reports, &r)
	}
	return reports, nil
}

// FileName returns realcheck_<YYYYmmdd_HHMMSS>.json for the report timestamp
func FileName(report *model.Report) string {
	return filePrefix + report.Timestamp.UTC().Format("20060102_150405") + ".json"
}
