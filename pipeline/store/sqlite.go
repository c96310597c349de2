package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// SQLiteStore is a SQLite implementation of RecordStore.
//
// It stores workflow records in a single-file database. Designed for:
//   - Development and testing with zero setup
//   - Single-process deployments requiring durability
//   - Prototyping before migrating to a shared database
//
// SQLiteStore uses WAL mode for concurrent reads. A stage commit is a
// single UPDATE statement, so the artifact and flag become visible
// together or not at all.
//
// Example:
//
//	store, err := NewSQLiteStore("./resumeflow.db")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer store.Close()
//
// For testing with an in-memory database use ":memory:".
type SQLiteStore struct {
	db     *sql.DB
	mu     sync.RWMutex
	closed bool
	path   string
}

// NewSQLiteStore creates a new SQLite-backed record store.
//
// The path parameter specifies the database file location. The store
// creates the file and schema on first use and enables WAL mode with a
// busy timeout so readers don't block behind writers.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite connection: %w", err)
	}

	// SQLite supports one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	ctx := context.Background()
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}

	s := &SQLiteStore{db: db, path: path}
	if err := s.createTables(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return s, nil
}

// createTables creates the schema if it doesn't exist.
func (s *SQLiteStore) createTables(ctx context.Context) error {
	table := `
		CREATE TABLE IF NOT EXISTS workflow_records (
			owner_id TEXT NOT NULL PRIMARY KEY,
			id TEXT NOT NULL,
			parsed INTEGER NOT NULL DEFAULT 0,
			job_described INTEGER NOT NULL DEFAULT 0,
			tailored INTEGER NOT NULL DEFAULT 0,
			formatted INTEGER NOT NULL DEFAULT 0,
			rendered INTEGER NOT NULL DEFAULT 0,
			resume_text TEXT NOT NULL DEFAULT '',
			job_description TEXT NOT NULL DEFAULT '',
			tailored_content TEXT NOT NULL DEFAULT '',
			formatted_document TEXT NOT NULL DEFAULT '',
			rendered_document TEXT NOT NULL DEFAULT '',
			error_message TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)
	`
	if _, err := s.db.ExecContext(ctx, table); err != nil {
		return fmt.Errorf("failed to create workflow_records table: %w", err)
	}
	return nil
}

// GetOrCreate returns the owner's record, inserting an empty one if absent.
//
// The insert uses ON CONFLICT DO NOTHING so concurrent callers for the
// same owner never create duplicates; whichever insert wins, all callers
// read back the same row.
func (s *SQLiteStore) GetOrCreate(ctx context.Context, ownerID string) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return Record{}, errors.New("store is closed")
	}

	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO workflow_records (owner_id, id, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(owner_id) DO NOTHING
	`, ownerID, uuid.NewString(), now, now)
	if err != nil {
		return Record{}, fmt.Errorf("failed to create record: %w", err)
	}

	return s.selectRecord(ctx, ownerID)
}

// Get returns the owner's record or ErrNotFound.
func (s *SQLiteStore) Get(ctx context.Context, ownerID string) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return Record{}, errors.New("store is closed")
	}

	return s.selectRecord(ctx, ownerID)
}

// CommitStage writes the stage artifact, its flag, and clears the error
// message in one UPDATE statement. SQLite statements are atomic, so a
// partial write is never observable.
func (s *SQLiteStore) CommitStage(ctx context.Context, ownerID string, stage Stage, artifact string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return errors.New("store is closed")
	}

	artifactCol, flagCol, err := stageColumns(stage)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`
		UPDATE workflow_records
		SET %s = ?, %s = 1, error_message = '', updated_at = ?
		WHERE owner_id = ?
	`, artifactCol, flagCol)

	res, err := s.db.ExecContext(ctx, query, artifact, time.Now().UTC(), ownerID)
	if err != nil {
		return fmt.Errorf("failed to commit stage %s: %w", stage, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check commit result: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// SetError records a failure message on the owner's record.
func (s *SQLiteStore) SetError(ctx context.Context, ownerID string, msg string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return errors.New("store is closed")
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE workflow_records SET error_message = ?, updated_at = ? WHERE owner_id = ?
	`, msg, time.Now().UTC(), ownerID)
	if err != nil {
		return fmt.Errorf("failed to set error: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Close closes the database connection. After Close, all operations fail.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

func (s *SQLiteStore) selectRecord(ctx context.Context, ownerID string) (Record, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, owner_id, parsed, job_described, tailored, formatted, rendered,
		       resume_text, job_description, tailored_content, formatted_document,
		       rendered_document, error_message, created_at, updated_at
		FROM workflow_records WHERE owner_id = ?
	`, ownerID)

	return scanRecord(row)
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanRecord reads a workflow_records row into a Record. Shared by the
// SQLite and MySQL stores; both use the same column order.
func scanRecord(row rowScanner) (Record, error) {
	var rec Record
	err := row.Scan(
		&rec.ID, &rec.OwnerID,
		&rec.Flags.Parsed, &rec.Flags.JobDescribed, &rec.Flags.Tailored,
		&rec.Flags.Formatted, &rec.Flags.Rendered,
		&rec.Artifacts.ResumeText, &rec.Artifacts.JobDescription,
		&rec.Artifacts.TailoredContent, &rec.Artifacts.FormattedDocument,
		&rec.Artifacts.RenderedDocument,
		&rec.ErrorMessage, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("failed to scan record: %w", err)
	}
	return rec, nil
}

// stageColumns maps a stage to its artifact and flag column names.
// Column names come from this fixed map, never from input.
func stageColumns(stage Stage) (artifactCol, flagCol string, err error) {
	switch stage {
	case StageParse:
		return "resume_text", "parsed", nil
	case StageJobDescribe:
		return "job_description", "job_described", nil
	case StageTailor:
		return "tailored_content", "tailored", nil
	case StageFormat:
		return "formatted_document", "formatted", nil
	case StageRender:
		return "rendered_document", "rendered", nil
	}
	return "", "", fmt.Errorf("unknown stage: %s", stage)
}
