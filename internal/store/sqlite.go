package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/rocknews/rocktag/internal/models"
)

// timeLayout is fixed-width so created_at sorts lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

var (
	_ Store = (*SQLiteStore)(nil)
	_ Store = (*MemoryStore)(nil)
)

// SQLiteStore implements Store on a single SQLite file.
type SQLiteStore struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

// OpenSQLite opens or creates the database at path and applies migrations.
func OpenSQLite(ctx context.Context, path string, logger *slog.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create store directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// one writer; keeps pragmas and transactions on a single connection
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", p, err)
		}
	}

	s := &SQLiteStore{db: db, path: path, logger: logger}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	logger.Debug("opened run store", "path", path)
	return s, nil
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string { return s.path }

// SaveRun writes the run, its tags and its feedback set in one transaction.
func (s *SQLiteStore) SaveRun(ctx context.Context, run models.Run, tags []models.DocumentTags, feedback []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save run: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM runs WHERE id = ?", run.ID); err != nil {
		return fmt.Errorf("save run: replace %s: %w", run.ID, err)
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, created_at, documents, tagged_documents, feedback_names)
         VALUES (?, ?, ?, ?, ?)`,
		run.ID,
		run.CreatedAt.UTC().Format(timeLayout),
		run.Documents,
		run.TaggedDocuments,
		run.FeedbackNames,
	)
	if err != nil {
		return fmt.Errorf("save run: insert run: %w", err)
	}

	tagStmt, err := tx.PrepareContext(ctx,
		"INSERT INTO document_tags (run_id, document_id, combined_tags, member_tags) VALUES (?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("save run: prepare tags: %w", err)
	}
	defer func() { _ = tagStmt.Close() }()
	for _, t := range tags {
		combined, err := encodeList(t.CombinedTags)
		if err != nil {
			return fmt.Errorf("save run: document %d: %w", t.DocumentID, err)
		}
		members, err := encodeList(t.MemberTags)
		if err != nil {
			return fmt.Errorf("save run: document %d: %w", t.DocumentID, err)
		}
		if _, err := tagStmt.ExecContext(ctx, run.ID, t.DocumentID, combined, members); err != nil {
			return fmt.Errorf("save run: insert document %d: %w", t.DocumentID, err)
		}
	}

	fbStmt, err := tx.PrepareContext(ctx, "INSERT OR IGNORE INTO feedback (run_id, name) VALUES (?, ?)")
	if err != nil {
		return fmt.Errorf("save run: prepare feedback: %w", err)
	}
	defer func() { _ = fbStmt.Close() }()
	for _, name := range feedback {
		if _, err := fbStmt.ExecContext(ctx, run.ID, name); err != nil {
			return fmt.Errorf("save run: insert feedback %q: %w", name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save run: commit: %w", err)
	}
	s.logger.Debug("saved run", "run_id", run.ID, "documents", len(tags), "feedback", len(feedback))
	return nil
}

const runColumns = "id, created_at, documents, tagged_documents, feedback_names"

// GetRun returns a run summary by ID.
func (s *SQLiteStore) GetRun(ctx context.Context, id string) (*models.Run, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+runColumns+" FROM runs WHERE id = ?", id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get run %s: %w", id, err)
	}
	return run, nil
}

// LatestRun returns the most recently created run.
func (s *SQLiteStore) LatestRun(ctx context.Context) (*models.Run, error) {
	runs, err := s.ListRuns(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, ErrNotFound
	}
	return &runs[0], nil
}

// ListRuns returns runs newest first.
func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]models.Run, error) {
	query := "SELECT " + runColumns + " FROM runs ORDER BY created_at DESC, id DESC"
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	runs := []models.Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("list runs: %w", err)
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return runs, nil
}

// Tags returns the run's document tags ordered by document ID.
func (s *SQLiteStore) Tags(ctx context.Context, runID string) ([]models.DocumentTags, error) {
	if err := s.ensureRun(ctx, runID); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT document_id, combined_tags, member_tags FROM document_tags WHERE run_id = ? ORDER BY document_id",
		runID)
	if err != nil {
		return nil, fmt.Errorf("tags for run %s: %w", runID, err)
	}
	defer func() { _ = rows.Close() }()

	out := []models.DocumentTags{}
	for rows.Next() {
		var (
			t                 models.DocumentTags
			combined, members string
		)
		if err := rows.Scan(&t.DocumentID, &combined, &members); err != nil {
			return nil, fmt.Errorf("tags for run %s: scan: %w", runID, err)
		}
		if t.CombinedTags, err = decodeList(combined); err != nil {
			return nil, fmt.Errorf("tags for run %s: document %d: %w", runID, t.DocumentID, err)
		}
		if t.MemberTags, err = decodeList(members); err != nil {
			return nil, fmt.Errorf("tags for run %s: document %d: %w", runID, t.DocumentID, err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("tags for run %s: %w", runID, err)
	}
	return out, nil
}

// Feedback returns the run's feedback set in ascending order.
func (s *SQLiteStore) Feedback(ctx context.Context, runID string) ([]string, error) {
	if err := s.ensureRun(ctx, runID); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, "SELECT name FROM feedback WHERE run_id = ? ORDER BY name", runID)
	if err != nil {
		return nil, fmt.Errorf("feedback for run %s: %w", runID, err)
	}
	defer func() { _ = rows.Close() }()

	out := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("feedback for run %s: scan: %w", runID, err)
		}
		out = append(out, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("feedback for run %s: %w", runID, err)
	}
	return out, nil
}

// DeleteRun removes a run; tags and feedback rows cascade.
func (s *SQLiteStore) DeleteRun(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM runs WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete run %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete run %s: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	s.logger.Debug("deleted run", "run_id", id)
	return nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteStore) ensureRun(ctx context.Context, id string) error {
	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM runs WHERE id = ?", id).Scan(&count); err != nil {
		return fmt.Errorf("lookup run %s: %w", id, err)
	}
	if count == 0 {
		return ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (*models.Run, error) {
	var (
		run     models.Run
		created string
	)
	if err := sc.Scan(&run.ID, &created, &run.Documents, &run.TaggedDocuments, &run.FeedbackNames); err != nil {
		return nil, err
	}
	t, err := time.Parse(timeLayout, created)
	if err != nil {
		return nil, fmt.Errorf("parse created_at %q: %w", created, err)
	}
	run.CreatedAt = t
	return &run, nil
}

func encodeList(values []string) (string, error) {
	if values == nil {
		values = []string{}
	}
	b, err := json.Marshal(values)
	if err != nil {
		return "", fmt.Errorf("encode tag list: %w", err)
	}
	return string(b), nil
}

func decodeList(raw string) ([]string, error) {
	out := []string{}
	if raw == "" {
		return out, nil
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("decode tag list: %w", err)
	}
	return out, nil
}
