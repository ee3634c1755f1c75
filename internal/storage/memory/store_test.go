package memory

import (
	"context"
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/shopspring/decimal"

	"bankledger/internal/models"
)

func TestMemorySnapshotStore(t *testing.T) {
	store := NewMemorySnapshotStore()
	ctx := context.Background()

	_, err := store.Load(ctx)
	assert.IsError(t, err, ErrNoSnapshot)

	snap := models.Snapshot{
		NextTransactionID: 7,
		Accounts: []models.Account{{
			Username:     "alice",
			Balance:      decimal.RequireFromString("100.00"),
			Transactions: []models.Transaction{{ID: 7, Kind: models.KindDeposit}},
		}},
	}
	assert.NoError(t, store.Save(ctx, snap))

	loaded, err := store.Load(ctx)
	assert.NoError(t, err)
	assert.Equal(t, snap, loaded)

	// The store holds its own copy: mutating what was saved or loaded
	// must not leak into a later Load.
	snap.Accounts[0].Transactions[0].ID = 99
	loaded.Accounts[0].Transactions[0].ID = 42

	again, err := store.Load(ctx)
	assert.NoError(t, err)
	assert.Equal(t, int64(7), again.Accounts[0].Transactions[0].ID)
}
