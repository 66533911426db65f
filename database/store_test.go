package database

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	store, err := InitDB(filepath.Join(t.TempDir(), "data", "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestRecordAndListMoves(t *testing.T) {
	store := testStore(t)

	require.NoError(t, store.RecordMove("guild", "source", "thread-1", "alice", 5))
	require.NoError(t, store.RecordMove("guild", "source", "channel-2", "bob", 12))

	records, err := store.RecentMoves(10)
	require.NoError(t, err)
	require.Len(t, records, 2)

	// Newest first.
	assert.Equal(t, "channel-2", records[0].DestinationID)
	assert.Equal(t, "bob", records[0].InitiatorID)
	assert.Equal(t, 12, records[0].MessageCount)
	assert.Equal(t, "thread-1", records[1].DestinationID)
	assert.NotZero(t, records[0].Timestamp)
}

func TestRecentMovesHonorsLimit(t *testing.T) {
	store := testStore(t)

	for i := 0; i < 5; i++ {
		require.NoError(t, store.RecordMove("guild", "source", "dest", "alice", i+1))
	}

	records, err := store.RecentMoves(3)
	require.NoError(t, err)
	assert.Len(t, records, 3)
	assert.Equal(t, 5, records[0].MessageCount)
}

func TestWebhookLifecycle(t *testing.T) {
	store := testStore(t)

	require.NoError(t, store.RecordWebhook("wh-1", "channel-1"))
	// Re-recording the same webhook is an upsert, not an error.
	require.NoError(t, store.RecordWebhook("wh-1", "channel-1"))
	require.NoError(t, store.RecordWebhook("wh-2", "channel-2"))

	// Fresh webhooks are not stale yet.
	stale, err := store.StaleWebhooks(time.Hour)
	require.NoError(t, err)
	assert.Empty(t, stale)

	// With a zero age everything recorded in the past qualifies.
	stale, err = store.StaleWebhooks(-time.Second)
	require.NoError(t, err)
	require.Len(t, stale, 2)

	require.NoError(t, store.ClearWebhook("wh-1"))

	stale, err = store.StaleWebhooks(-time.Second)
	require.NoError(t, err)
	require.Len(t, stale, 1)
	assert.Equal(t, "wh-2", stale[0].WebhookID)
	assert.Equal(t, "channel-2", stale[0].ChannelID)

	// Clearing an unknown webhook is a no-op.
	require.NoError(t, store.ClearWebhook("wh-unknown"))
}

func TestInitDBCreatesDirectory(t *testing.T) {
	dir := t.TempDir()
	store, err := InitDB(filepath.Join(dir, "nested", "deeper", "bot.db"))
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.RecordMove("g", "s", "d", "u", 1))
}
