package repositories

import (
	"log/slog"
	"testing"

	"chat-sync/storage"

	"github.com/dgraph-io/badger/v4"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

// SetupTestStore opens an in-memory badger instance wrapped in a Store.
func SetupTestStore(t *testing.T) (*storage.Store, *slog.Logger) {
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	require.NoError(t, err)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	store := storage.NewStore(db, log, 10)
	t.Cleanup(func() {
		_ = store.Close()
		_ = db.Close()
	})
	return store, log
}
