package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
)

// MySQLStore is a MySQL/MariaDB implementation of RecordStore.
//
// Designed for:
//   - Production deployments requiring persistence
//   - Multiple workers sharing one record store
//   - Records that must survive process restarts
//
// A stage commit is a single UPDATE statement, so the artifact and flag
// are written atomically. Rows for distinct owners never contend beyond
// ordinary row locking.
//
// Security note: never hardcode credentials in source. Read the DSN from
// the environment:
//
//	dsn := os.Getenv("MYSQL_DSN")
//	store, err := NewMySQLStore(dsn)
type MySQLStore struct {
	db     *sql.DB
	mu     sync.RWMutex
	closed bool
}

// NewMySQLStore creates a new MySQL-backed record store.
//
// The DSN format follows go-sql-driver/mysql, e.g.
//
//	user:password@tcp(localhost:3306)/resumeflow?parseTime=true
//
// parseTime=true is required so timestamp columns scan into time.Time.
// The store pings the server and creates the schema on startup.
func NewMySQLStore(dsn string) (*MySQLStore, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL connection: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(10 * time.Minute)

	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping MySQL: %w", err)
	}

	s := &MySQLStore{db: db}
	if err := s.createTables(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return s, nil
}

// createTables creates the schema if it doesn't exist.
func (m *MySQLStore) createTables(ctx context.Context) error {
	table := `
		CREATE TABLE IF NOT EXISTS workflow_records (
			owner_id VARCHAR(255) NOT NULL PRIMARY KEY,
			id VARCHAR(36) NOT NULL,
			parsed BOOLEAN NOT NULL DEFAULT FALSE,
			job_described BOOLEAN NOT NULL DEFAULT FALSE,
			tailored BOOLEAN NOT NULL DEFAULT FALSE,
			formatted BOOLEAN NOT NULL DEFAULT FALSE,
			rendered BOOLEAN NOT NULL DEFAULT FALSE,
			resume_text MEDIUMTEXT NOT NULL,
			job_description MEDIUMTEXT NOT NULL,
			tailored_content MEDIUMTEXT NOT NULL,
			formatted_document MEDIUMTEXT NOT NULL,
			rendered_document TEXT NOT NULL,
			error_message TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci
	`
	if _, err := m.db.ExecContext(ctx, table); err != nil {
		return fmt.Errorf("failed to create workflow_records table: %w", err)
	}
	return nil
}

// GetOrCreate returns the owner's record, inserting an empty one if absent.
//
// INSERT IGNORE makes creation idempotent under concurrency: the primary
// key on owner_id guarantees a single row per owner.
func (m *MySQLStore) GetOrCreate(ctx context.Context, ownerID string) (Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return Record{}, errors.New("store is closed")
	}

	now := time.Now().UTC()
	_, err := m.db.ExecContext(ctx, `
		INSERT IGNORE INTO workflow_records
			(owner_id, id, resume_text, job_description, tailored_content,
			 formatted_document, rendered_document, error_message, created_at, updated_at)
		VALUES (?, ?, '', '', '', '', '', '', ?, ?)
	`, ownerID, uuid.NewString(), now, now)
	if err != nil {
		return Record{}, fmt.Errorf("failed to create record: %w", err)
	}

	return m.selectRecord(ctx, ownerID)
}

// Get returns the owner's record or ErrNotFound.
func (m *MySQLStore) Get(ctx context.Context, ownerID string) (Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return Record{}, errors.New("store is closed")
	}

	return m.selectRecord(ctx, ownerID)
}

// CommitStage writes the stage artifact, its flag, and clears the error
// message in one UPDATE statement.
func (m *MySQLStore) CommitStage(ctx context.Context, ownerID string, stage Stage, artifact string) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return errors.New("store is closed")
	}

	artifactCol, flagCol, err := stageColumns(stage)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`
		UPDATE workflow_records
		SET %s = ?, %s = TRUE, error_message = '', updated_at = ?
		WHERE owner_id = ?
	`, artifactCol, flagCol)

	res, err := m.db.ExecContext(ctx, query, artifact, time.Now().UTC(), ownerID)
	if err != nil {
		return fmt.Errorf("failed to commit stage %s: %w", stage, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check commit result: %w", err)
	}
	if affected == 0 {
		// MySQL reports zero affected rows for no-op updates too, so
		// distinguish a missing row from an identical rewrite.
		if _, getErr := m.selectRecord(ctx, ownerID); errors.Is(getErr, ErrNotFound) {
			return ErrNotFound
		}
	}
	return nil
}

// SetError records a failure message on the owner's record.
func (m *MySQLStore) SetError(ctx context.Context, ownerID string, msg string) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return errors.New("store is closed")
	}

	res, err := m.db.ExecContext(ctx, `
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
		if _, getErr := m.selectRecord(ctx, ownerID); errors.Is(getErr, ErrNotFound) {
			return ErrNotFound
		}
	}
	return nil
}

// Close closes the database connection. After Close, all operations fail.
func (m *MySQLStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}
	m.closed = true
	return m.db.Close()
}

func (m *MySQLStore) selectRecord(ctx context.Context, ownerID string) (Record, error) {
	row := m.db.QueryRowContext(ctx, `
		SELECT id, owner_id, parsed, job_described, tailored, formatted, rendered,
		       resume_text, job_description, tailored_content, formatted_document,
		       rendered_document, error_message, created_at, updated_at
		FROM workflow_records WHERE owner_id = ?
	`, ownerID)

	return scanRecord(row)
}
