package store

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	bolt "go.etcd.io/bbolt"
)

type testItem struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

func makeItems(n int) []testItem {
	items := make([]testItem, n)
	for i := range items {
		items[i] = testItem{ID: i, Name: fmt.Sprintf("channel %d", i)}
	}
	return items
}

func newTestStore(t *testing.T, maxBytes int64) *CacheStore {
	t.Helper()
	s, err := NewCacheStore(t.TempDir(), maxBytes, slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// putRaw writes a pre-built durable payload directly into both tiers,
// bypassing Set's timestamping. Used to fabricate expired or malformed
// entries.
func putRaw(t *testing.T, s *CacheStore, logicalKey, profileID string, payload []byte) {
	t.Helper()
	key := compositeKey(logicalKey, profileID)

	s.mu.Lock()
	s.cache[key] = payload
	s.mu.Unlock()

	err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketCatalog).Put([]byte(key), payload)
	})
	require.NoError(t, err)
}

func TestCacheStore_RoundTrip(t *testing.T) {
	s := newTestStore(t, 0)

	items := makeItems(5)
	require.NoError(t, s.Set("live_streams", "p1", items))

	t.Run("hit for the writing profile", func(t *testing.T) {
		var got []testItem
		assert.True(t, s.Get("live_streams", "p1", &got))
		assert.Equal(t, items, got)
	})

	t.Run("miss for another profile", func(t *testing.T) {
		var got []testItem
		assert.False(t, s.Get("live_streams", "p2", &got))
	})

	t.Run("miss for another key", func(t *testing.T) {
		var got []testItem
		assert.False(t, s.Get("movies", "p1", &got))
	})
}

func TestCacheStore_TTL(t *testing.T) {
	s := newTestStore(t, 0)

	stale := volatileEntry{
		Data:      json.RawMessage(`[{"id":1,"name":"old"}]`),
		Timestamp: time.Now().Add(-TTL - time.Minute).UnixMilli(),
		ProfileID: "p1",
	}
	payload, err := json.Marshal(stale)
	require.NoError(t, err)

	t.Run("expired in-memory entry is a miss", func(t *testing.T) {
		putRaw(t, s, "live_streams", "p1", payload)
		var got []testItem
		assert.False(t, s.Get("live_streams", "p1", &got))
	})

	t.Run("expired durable copy is removed on read", func(t *testing.T) {
		putRaw(t, s, "live_streams", "p1", payload)
		s.DropMemory()
		var got []testItem
		assert.False(t, s.Get("live_streams", "p1", &got))
		assert.Equal(t, 0, s.DurableLen())
	})

	t.Run("fresh entry still served", func(t *testing.T) {
		require.NoError(t, s.Set("movies", "p1", makeItems(3)))
		var got []testItem
		assert.True(t, s.Get("movies", "p1", &got))
		assert.Len(t, got, 3)
	})
}

// The in-memory tier holds full lists while the durable tier caps them,
// so a restart serves a truncated catalog until the next refetch.
func TestCacheStore_DurableTruncation(t *testing.T) {
	s := newTestStore(t, 0)

	items := makeItems(250)
	require.NoError(t, s.Set("live_streams", "p1", items))

	t.Run("memory serves the full list", func(t *testing.T) {
		var got []testItem
		require.True(t, s.Get("live_streams", "p1", &got))
		assert.Len(t, got, 250)
	})

	t.Run("durable copy is capped with original length recorded", func(t *testing.T) {
		total, ok := s.DurableTotal("live_streams", "p1")
		require.True(t, ok)
		assert.Equal(t, 250, total)
	})

	t.Run("after restart only the capped list is served", func(t *testing.T) {
		s.DropMemory()
		var got []testItem
		require.True(t, s.Get("live_streams", "p1", &got))
		assert.Len(t, got, maxItemsPerKey)
		assert.Equal(t, items[:maxItemsPerKey], got)
	})

	t.Run("promoted copy stays capped until refetch", func(t *testing.T) {
		var got []testItem
		require.True(t, s.Get("live_streams", "p1", &got))
		assert.Len(t, got, maxItemsPerKey)
	})

	t.Run("short lists are not capped", func(t *testing.T) {
		require.NoError(t, s.Set("movies", "p1", makeItems(10)))
		s.DropMemory()
		var got []testItem
		require.True(t, s.Get("movies", "p1", &got))
		assert.Len(t, got, 10)
		_, ok := s.DurableTotal("movies", "p1")
		assert.True(t, ok) // Total recorded even when under the cap

		total, _ := s.DurableTotal("movies", "p1")
		assert.Equal(t, 10, total)
	})
}

func TestCacheStore_QuotaEviction(t *testing.T) {
	// Budget sized so roughly four entries fit; payloads are equal-sized.
	s := newTestStore(t, 0)
	require.NoError(t, s.Set("probe", "p1", makeItems(20)))
	entrySize := int64(s.sizes[compositeKey("probe", "p1")])
	s.ClearAll()

	s.maxBytes = entrySize*4 + 16

	for i := 0; i < 4; i++ {
		require.NoError(t, s.Set(fmt.Sprintf("key%d", i), "p1", makeItems(20)))
		time.Sleep(5 * time.Millisecond) // distinct timestamps for age ordering
	}
	require.Equal(t, 4, s.DurableLen())

	// Fifth write exceeds the budget: the oldest half is evicted and the
	// write retried.
	require.NoError(t, s.Set("key4", "p1", makeItems(20)))

	t.Run("oldest half evicted", func(t *testing.T) {
		assert.LessOrEqual(t, s.DurableLen(), 3)
		s.DropMemory()
		var got []testItem
		assert.False(t, s.Get("key0", "p1", &got))
		assert.False(t, s.Get("key1", "p1", &got))
	})

	t.Run("new write landed durably", func(t *testing.T) {
		s.DropMemory()
		var got []testItem
		assert.True(t, s.Get("key4", "p1", &got))
		assert.Len(t, got, 20)
	})

	t.Run("failed durable write never surfaces", func(t *testing.T) {
		// An entry larger than the whole budget cannot be persisted even
		// after eviction, but Set still succeeds and memory serves it.
		require.NoError(t, s.Set("huge", "p1", makeItems(500)))
		var got []testItem
		assert.True(t, s.Get("huge", "p1", &got))
		assert.Len(t, got, 500)
	})
}

func TestCacheStore_MalformedPayload(t *testing.T) {
	s := newTestStore(t, 0)

	putRaw(t, s, "live_streams", "p1", []byte("not json at all"))

	var got []testItem
	assert.False(t, s.Get("live_streams", "p1", &got))

	s.DropMemory()
	assert.False(t, s.Get("live_streams", "p1", &got))
}

func TestCacheStore_Clear(t *testing.T) {
	s := newTestStore(t, 0)

	require.NoError(t, s.Set("live_streams", "p1", makeItems(3)))
	require.NoError(t, s.Set("series_info:10", "p1", makeItems(1)))
	require.NoError(t, s.Set("series_info:11", "p1", makeItems(1)))
	require.NoError(t, s.Set("live_streams", "p2", makeItems(3)))

	var got []testItem

	t.Run("ClearKey removes one key and is idempotent", func(t *testing.T) {
		s.ClearKey("live_streams", "p1")
		s.ClearKey("live_streams", "p1")
		assert.False(t, s.Get("live_streams", "p1", &got))
		assert.True(t, s.Get("live_streams", "p2", &got))
	})

	t.Run("ClearPrefix removes only the prefixed keys of one profile", func(t *testing.T) {
		s.ClearPrefix("series_info:", "p1")
		assert.False(t, s.Get("series_info:10", "p1", &got))
		assert.False(t, s.Get("series_info:11", "p1", &got))
		assert.True(t, s.Get("live_streams", "p2", &got))
	})

	t.Run("Clear removes one profile partition only", func(t *testing.T) {
		require.NoError(t, s.Set("movies", "p1", makeItems(2)))
		s.Clear("p1")
		assert.False(t, s.Get("movies", "p1", &got))
		assert.True(t, s.Get("live_streams", "p2", &got))
	})

	t.Run("ClearAll flushes everything", func(t *testing.T) {
		s.ClearAll()
		assert.False(t, s.Get("live_streams", "p2", &got))
		assert.Equal(t, 0, s.DurableLen())
	})
}

func TestCacheStore_MemoryOnly(t *testing.T) {
	s, err := NewCacheStore("", 0, slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Set("live_streams", "p1", makeItems(250)))

	var got []testItem
	require.True(t, s.Get("live_streams", "p1", &got))
	assert.Len(t, got, 250) // no durable tier, no truncation

	s.DropMemory()
	assert.False(t, s.Get("live_streams", "p1", &got))
}

func TestCacheStore_SurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	logger := slog.New(slog.DiscardHandler)

	s, err := NewCacheStore(dir, 0, logger)
	require.NoError(t, err)
	require.NoError(t, s.Set("live_streams", "p1", makeItems(5)))
	require.NoError(t, s.Close())

	s2, err := NewCacheStore(dir, 0, logger)
	require.NoError(t, err)
	defer s2.Close()

	var got []testItem
	require.True(t, s2.Get("live_streams", "p1", &got))
	assert.Len(t, got, 5)
	assert.Equal(t, 1, s2.DurableLen())
}
