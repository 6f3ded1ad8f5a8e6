package store

import (
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"markbook/internal/workbook"
)

// Snapshot is one fully normalized workbook. Immutable once published;
// loaders build a fresh Snapshot and swap it in rather than editing the
// live one.
type Snapshot struct {
	ID           uuid.UUID
	LoadedAt     time.Time
	Source       string
	ContentHash  string
	VocabVersion int64

	Grades           workbook.GradeTable
	Credentials      workbook.CredentialsTable
	GradeSheets      []string
	CredentialsSheet string
}

// SnapshotStore publishes at most one Snapshot at a time. Readers never
// block and never see a half-replaced workbook; Publish swaps the whole
// pointer.
type SnapshotStore struct {
	cur atomic.Pointer[Snapshot]
}

func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{}
}

// Publish replaces the current snapshot. The caller must not mutate snap
// afterwards.
func (s *SnapshotStore) Publish(snap *Snapshot) {
	s.cur.Store(snap)
}

// Current returns the published snapshot, or false when nothing has been
// loaded yet.
func (s *SnapshotStore) Current() (*Snapshot, bool) {
	snap := s.cur.Load()
	return snap, snap != nil
}
