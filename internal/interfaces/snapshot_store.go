package interfaces

import (
	"context"

	"bankledger/internal/models"
)

// SnapshotStore persists a point-in-time export of the ledger. The
// in-memory ledger stays authoritative; a store only gives a process
// somewhere to save state at shutdown and reload it at startup.
type SnapshotStore interface {
	Save(ctx context.Context, snap models.Snapshot) error
	Load(ctx context.Context) (models.Snapshot, error)
}
