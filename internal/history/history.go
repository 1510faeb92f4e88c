// Package history stores a record of each compilation run in a local SQLite
// database, so past runs can be listed and inspected (`cnextc history`).
package history

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/jlaustill/cnextc/internal/diag"
)

// Run is one compilation run over a set of targets.
type Run struct {
	ID          string `gorm:"primaryKey"`
	StartedAt   time.Time
	FinishedAt  time.Time
	Targets     string
	FileCount   int
	ErrorCount  int
	WarnCount   int
	Clean       bool
	Diagnostics []Diagnostic `gorm:"foreignKey:RunID;constraint:OnDelete:CASCADE"`
}

// Diagnostic is one diag.Error produced during a run, flattened for storage.
// The columns queried by `cnextc history` stay scalar; the optional
// Rule/Help/Related fields (present on some diagnostics, absent on most)
// are packed into Extra instead of three mostly-empty columns.
type Diagnostic struct {
	ID       uint `gorm:"primaryKey"`
	RunID    string
	File     string
	Line     int
	Column   int
	Severity string
	Code     string
	Message  string
	Extra    datatypes.JSON
}

// diagnosticExtra holds a diag.Error's optional fields for Extra.
type diagnosticExtra struct {
	Rule    string `json:"rule,omitempty"`
	Help    string `json:"help,omitempty"`
	Related string `json:"related,omitempty"`
}

// Store wraps the run-history database.
type Store struct {
	db            *gorm.DB
	retentionRuns int
}

// Open connects to (creating if necessary) the SQLite database at dsn and
// runs migrations. retentionRuns bounds how many runs Record keeps before
// pruning the oldest; zero or negative disables pruning.
func Open(dsn string, retentionRuns int, debug bool) (*Store, error) {
	if dir := filepath.Dir(dsn); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating history directory: %w", err)
		}
	}

	cfg := &gorm.Config{}
	if debug {
		cfg.Logger = logger.Default.LogMode(logger.Info)
	}

	db, err := gorm.Open(sqlite.Open(dsn), cfg)
	if err != nil {
		return nil, fmt.Errorf("opening history database: %w", err)
	}

	if err := db.AutoMigrate(&Run{}, &Diagnostic{}); err != nil {
		return nil, fmt.Errorf("migrating history schema: %w", err)
	}

	return &Store{db: db, retentionRuns: retentionRuns}, nil
}

// Close releases the underlying database connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// FileResult pairs one scanned file with the diagnostics its compilation
// produced, for recording into a Run.
type FileResult struct {
	Path string
	Errs diag.Errors
}

// Record persists one run, then prunes runs beyond the retention window.
func (s *Store) Record(ctx context.Context, targets []string, started, finished time.Time, results []FileResult) error {
	run := Run{
		ID:         uuid.NewString(),
		StartedAt:  started,
		FinishedAt: finished,
		Targets:    joinTargets(targets),
		FileCount:  len(results),
		Clean:      true,
	}

	for _, res := range results {
		for _, e := range res.Errs {
			d := Diagnostic{
				RunID:    run.ID,
				File:     res.Path,
				Line:     e.Line,
				Column:   e.Column,
				Severity: string(e.Severity),
				Code:     string(e.Code),
				Message:  e.Message,
				Extra:    marshalExtra(e),
			}
			if e.Severity == diag.SeverityError {
				run.ErrorCount++
				run.Clean = false
			} else {
				run.WarnCount++
			}
			run.Diagnostics = append(run.Diagnostics, d)
		}
	}

	if err := s.db.WithContext(ctx).Create(&run).Error; err != nil {
		return fmt.Errorf("recording run: %w", err)
	}

	return s.prune(ctx)
}

// prune deletes the oldest runs beyond the retention window.
func (s *Store) prune(ctx context.Context) error {
	if s.retentionRuns <= 0 {
		return nil
	}

	var total int64
	if err := s.db.WithContext(ctx).Model(&Run{}).Count(&total).Error; err != nil {
		return fmt.Errorf("counting runs: %w", err)
	}
	if total <= int64(s.retentionRuns) {
		return nil
	}

	var stale []Run
	if err := s.db.WithContext(ctx).
		Order("started_at ASC").
		Limit(int(total) - s.retentionRuns).
		Find(&stale).Error; err != nil {
		return fmt.Errorf("finding stale runs: %w", err)
	}

	for _, run := range stale {
		if err := s.db.WithContext(ctx).Select("Diagnostics").Delete(&run).Error; err != nil {
			return fmt.Errorf("pruning run %s: %w", run.ID, err)
		}
	}
	return nil
}

// List returns the most recent runs, newest first, up to limit (0 means all).
func (s *Store) List(ctx context.Context, limit int) ([]Run, error) {
	q := s.db.WithContext(ctx).Order("started_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var runs []Run
	if err := q.Find(&runs).Error; err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	return runs, nil
}

// Get returns one run with its diagnostics preloaded.
func (s *Store) Get(ctx context.Context, id string) (*Run, error) {
	var run Run
	if err := s.db.WithContext(ctx).Preload("Diagnostics").First(&run, "id = ?", id).Error; err != nil {
		return nil, fmt.Errorf("loading run %s: %w", id, err)
	}
	return &run, nil
}

// marshalExtra packs a diagnostic's optional Rule/Help/Related fields into
// a JSON blob, or nil when none are set (§ GLOSSARY-adjacent: these fields
// are present on some diagnostics, e.g. MISRA comment violations, and
// absent on most).
func marshalExtra(e diag.Error) datatypes.JSON {
	if e.Rule == "" && e.Help == "" && e.Related == "" {
		return nil
	}
	b, err := json.Marshal(diagnosticExtra{Rule: e.Rule, Help: e.Help, Related: e.Related})
	if err != nil {
		return nil
	}
	return datatypes.JSON(b)
}

func joinTargets(targets []string) string {
	out := ""
	for i, t := range targets {
		if i > 0 {
			out += ","
		}
		out += t
	}
	return out
}
