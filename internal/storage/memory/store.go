// Package memory is an in-process SnapshotStore. It backs tests and
// deployments that run without Postgres.
package memory

import (
	"context"
	"errors"
	"sync"

	"bankledger/internal/interfaces"
	"bankledger/internal/models"
)

// ErrNoSnapshot is returned by Load before any Save has happened.
var ErrNoSnapshot = errors.New("no snapshot saved")

type MemorySnapshotStore struct {
	mu    sync.Mutex
	snap  models.Snapshot
	saved bool
}

func NewMemorySnapshotStore() *MemorySnapshotStore {
	return &MemorySnapshotStore{}
}

func (m *MemorySnapshotStore) Save(ctx context.Context, snap models.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Deep-copy so later ledger mutations cannot reach the stored
	// snapshot through shared slices.
	cp := models.Snapshot{NextTransactionID: snap.NextTransactionID}
	for i := range snap.Accounts {
		cp.Accounts = append(cp.Accounts, snap.Accounts[i].Clone())
	}
	m.snap = cp
	m.saved = true
	return nil
}

func (m *MemorySnapshotStore) Load(ctx context.Context) (models.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.saved {
		return models.Snapshot{}, ErrNoSnapshot
	}
	cp := models.Snapshot{NextTransactionID: m.snap.NextTransactionID}
	for i := range m.snap.Accounts {
		cp.Accounts = append(cp.Accounts, m.snap.Accounts[i].Clone())
	}
	return cp, nil
}

var _ interfaces.SnapshotStore = (*MemorySnapshotStore)(nil)
