package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemStore is an in-memory implementation of RecordStore.
//
// Designed for:
//   - Testing and development
//   - Single-process deployments where durability isn't required
//
// MemStore is thread-safe and supports concurrent access across owners.
// Data is lost when the process terminates; use SQLiteStore or MySQLStore
// when records must survive restarts.
type MemStore struct {
	mu      sync.RWMutex
	records map[string]Record // ownerID -> record
	now     func() time.Time
}

// NewMemStore creates a new in-memory record store.
func NewMemStore() *MemStore {
	return &MemStore{
		records: make(map[string]Record),
		now:     time.Now,
	}
}

// GetOrCreate returns the owner's record, creating an empty one if needed.
//
// Creation is idempotent: concurrent callers for the same owner observe a
// single record.
func (m *MemStore) GetOrCreate(_ context.Context, ownerID string) (Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if rec, ok := m.records[ownerID]; ok {
		return rec, nil
	}

	now := m.now()
	rec := Record{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	m.records[ownerID] = rec
	return rec, nil
}

// Get returns the owner's record or ErrNotFound.
func (m *MemStore) Get(_ context.Context, ownerID string) (Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.records[ownerID]
	if !ok {
		return Record{}, ErrNotFound
	}
	return rec, nil
}

// CommitStage writes the artifact and completion flag together under the
// store lock; readers never observe one without the other.
func (m *MemStore) CommitStage(_ context.Context, ownerID string, stage Stage, artifact string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.records[ownerID]
	if !ok {
		return ErrNotFound
	}

	applyStage(&rec, stage, artifact)
	rec.ErrorMessage = ""
	rec.UpdatedAt = m.now()
	m.records[ownerID] = rec
	return nil
}

// SetError records a failure message on the owner's record.
func (m *MemStore) SetError(_ context.Context, ownerID string, msg string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.records[ownerID]
	if !ok {
		return ErrNotFound
	}

	rec.ErrorMessage = msg
	rec.UpdatedAt = m.now()
	m.records[ownerID] = rec
	return nil
}

// applyStage sets the artifact slot and flag for a stage on rec.
// Writing overwrites any prior artifact for the stage; it never appends.
func applyStage(rec *Record, stage Stage, artifact string) {
	switch stage {
	case StageParse:
		rec.Artifacts.ResumeText = artifact
		rec.Flags.Parsed = true
	case StageJobDescribe:
		rec.Artifacts.JobDescription = artifact
		rec.Flags.JobDescribed = true
	case StageTailor:
		rec.Artifacts.TailoredContent = artifact
		rec.Flags.Tailored = true
	case StageFormat:
		rec.Artifacts.FormattedDocument = artifact
		rec.Flags.Formatted = true
	case StageRender:
		rec.Artifacts.RenderedDocument = artifact
		rec.Flags.Rendered = true
	}
}
