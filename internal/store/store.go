package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"
)

var bucketCatalog = []byte("catalog")

const (
	// TTL is how long a persisted entry remains servable
	TTL = 24 * time.Hour

	// maxItemsPerKey caps how many list elements the durable tier keeps per key.
	// The in-memory copy is never capped.
	maxItemsPerKey = 100
)

// errQuotaExceeded signals that a durable write would push the store past its
// configured byte budget.
var errQuotaExceeded = errors.New("durable cache byte budget exceeded")

// volatileEntry is the full in-memory form of a cache entry.
type volatileEntry struct {
	Data      json.RawMessage `json:"data"`
	Timestamp int64           `json:"timestamp"` // epoch millis at write
	ProfileID string          `json:"profileId"`
}

// durableEntry is the persisted form. When Data held a list longer than
// maxItemsPerKey it is capped and Total records the original length; the
// conversion is lossy and only applies to the durable tier.
type durableEntry struct {
	Data      json.RawMessage `json:"data"`
	Timestamp int64           `json:"timestamp"`
	ProfileID string          `json:"profileId"`
	Total     int             `json:"total,omitempty"`
}

// CacheStore is the profile-scoped catalog cache: an in-memory tier holding
// full entries for the current session, backed by a BoltDB durable tier that
// survives restarts. One instance per process, constructed in main and
// injected; Close releases the database at shutdown.
//
// Implements domain.Store.
type CacheStore struct {
	db     *bolt.DB
	logger *slog.Logger

	mu    sync.RWMutex
	cache map[string][]byte // composite key -> marshaled volatileEntry

	// Durable-tier bookkeeping, guarded by mu. sizes mirrors the byte length
	// of every persisted value so quota checks avoid a bucket scan.
	maxBytes int64
	sizes    map[string]int
	durBytes int64
}

// NewCacheStore opens (or creates) the durable tier under cacheDir. An empty
// cacheDir yields a memory-only store with no persistence. maxBytes of 0
// disables the quota.
func NewCacheStore(cacheDir string, maxBytes int64, logger *slog.Logger) (*CacheStore, error) {
	if logger == nil {
		logger = slog.Default()
	}

	s := &CacheStore{
		logger:   logger,
		cache:    make(map[string][]byte),
		maxBytes: maxBytes,
		sizes:    make(map[string]int),
	}

	if cacheDir == "" {
		return s, nil
	}

	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		return nil, err
	}

	db, err := bolt.Open(filepath.Join(cacheDir, "strix.db"), 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketCatalog)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	s.db = db
	s.seedSizes()
	return s, nil
}

func (s *CacheStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// compositeKey joins the profile partition and the logical key.
func compositeKey(logicalKey, profileID string) string {
	return profileID + ":" + logicalKey
}

// seedSizes initializes the quota counter from the existing bucket contents.
func (s *CacheStore) seedSizes() {
	s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketCatalog).Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			s.sizes[string(k)] = len(v)
			s.durBytes += int64(len(v))
		}
		return nil
	})
}

// Set writes value under (logicalKey, profileID), stamping the current time.
// The in-memory copy holds the full value; the durable copy caps lists at
// maxItemsPerKey elements. Durable failures never surface: on quota
// exhaustion the oldest half of all durable entries is evicted and the write
// retried once, after which it is dropped with the in-memory copy remaining
// authoritative for the session.
func (s *CacheStore) Set(logicalKey, profileID string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	entry := volatileEntry{
		Data:      data,
		Timestamp: time.Now().UnixMilli(),
		ProfileID: profileID,
	}
	full, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	key := compositeKey(logicalKey, profileID)

	s.mu.Lock()
	s.cache[key] = full
	s.mu.Unlock()

	if s.db == nil {
		return nil
	}

	payload, err := json.Marshal(toDurable(entry))
	if err != nil {
		return err
	}

	if err := s.persist(key, payload); err != nil {
		if !errors.Is(err, errQuotaExceeded) {
			s.logger.Warn("durable cache write failed", "key", key, "error", err)
			return nil
		}
		s.evictOldestHalf()
		if err := s.persist(key, payload); err != nil {
			s.logger.Warn("dropping durable cache write after eviction", "key", key, "error", err)
		}
	}
	return nil
}

// toDurable performs the lossy volatile->durable conversion: JSON lists
// longer than maxItemsPerKey are capped, with Total preserving the original
// length. Non-list data passes through untouched.
func toDurable(entry volatileEntry) durableEntry {
	d := durableEntry{
		Data:      entry.Data,
		Timestamp: entry.Timestamp,
		ProfileID: entry.ProfileID,
	}

	trimmed := bytes.TrimLeft(entry.Data, " \t\r\n")
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return d
	}

	var items []json.RawMessage
	if err := json.Unmarshal(entry.Data, &items); err != nil {
		return d
	}
	d.Total = len(items)
	if len(items) > maxItemsPerKey {
		capped, err := json.Marshal(items[:maxItemsPerKey])
		if err != nil {
			return d
		}
		d.Data = capped
	}
	return d
}

// persist writes one durable value, enforcing the byte budget.
func (s *CacheStore) persist(key string, payload []byte) error {
	s.mu.Lock()
	prior := s.sizes[key]
	if s.maxBytes > 0 && s.durBytes-int64(prior)+int64(len(payload)) > s.maxBytes {
		s.mu.Unlock()
		return errQuotaExceeded
	}
	s.mu.Unlock()

	err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketCatalog).Put([]byte(key), payload)
	})
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.durBytes += int64(len(payload)) - int64(prior)
	s.sizes[key] = len(payload)
	s.mu.Unlock()
	return nil
}

// evictOldestHalf removes the oldest 50% of durable entries by write
// timestamp, across all profiles. Entries that fail to decode sort first.
func (s *CacheStore) evictOldestHalf() {
	type aged struct {
		key string
		ts  int64
	}
	var entries []aged

	s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketCatalog).Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			var e durableEntry
			ts := int64(0)
			if err := json.Unmarshal(v, &e); err == nil {
				ts = e.Timestamp
			}
			entries = append(entries, aged{key: string(k), ts: ts})
		}
		return nil
	})
	if len(entries) == 0 {
		return
	}

	sort.SliceStable(entries, func(i, j int) bool { return entries[i].ts < entries[j].ts })
	victims := entries[:len(entries)-len(entries)/2]

	s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketCatalog)
		for _, e := range victims {
			if err := b.Delete([]byte(e.key)); err != nil {
				return err
			}
		}
		return nil
	})

	s.mu.Lock()
	for _, e := range victims {
		s.durBytes -= int64(s.sizes[e.key])
		delete(s.sizes, e.key)
	}
	s.mu.Unlock()

	s.logger.Info("evicted durable cache entries under quota pressure",
		"evicted", len(victims), "remaining", len(entries)-len(victims))
}

// Get unmarshals a non-expired entry into dest, reporting whether one was
// found. Memory is consulted first; otherwise the durable tier is hydrated,
// expired copies are removed on read, and malformed payloads count as misses.
func (s *CacheStore) Get(logicalKey, profileID string, dest any) bool {
	key := compositeKey(logicalKey, profileID)

	s.mu.RLock()
	raw, ok := s.cache[key]
	s.mu.RUnlock()

	if ok {
		var entry volatileEntry
		if err := json.Unmarshal(raw, &entry); err != nil {
			return false
		}
		if expired(entry.Timestamp) {
			s.ClearKey(logicalKey, profileID)
			return false
		}
		return json.Unmarshal(entry.Data, dest) == nil
	}

	if s.db == nil {
		return false
	}

	var payload []byte
	s.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(bucketCatalog).Get([]byte(key)); v != nil {
			payload = make([]byte, len(v))
			copy(payload, v)
		}
		return nil
	})
	if payload == nil {
		return false
	}

	var entry durableEntry
	if err := json.Unmarshal(payload, &entry); err != nil {
		return false
	}
	if expired(entry.Timestamp) {
		s.deleteDurable(key)
		return false
	}
	if err := json.Unmarshal(entry.Data, dest); err != nil {
		return false
	}

	// Promote to the in-memory tier for subsequent reads. The promoted copy
	// is the durable (possibly capped) one; only a refetch restores the full
	// list after a restart.
	if promoted, err := json.Marshal(volatileEntry{
		Data:      entry.Data,
		Timestamp: entry.Timestamp,
		ProfileID: entry.ProfileID,
	}); err == nil {
		s.mu.Lock()
		s.cache[key] = promoted
		s.mu.Unlock()
	}
	return true
}

// DurableTotal returns the original (pre-cap) list length recorded for a
// key's durable copy, if the key holds a list.
func (s *CacheStore) DurableTotal(logicalKey, profileID string) (int, bool) {
	if s.db == nil {
		return 0, false
	}
	key := compositeKey(logicalKey, profileID)

	var entry durableEntry
	found := false
	s.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(bucketCatalog).Get([]byte(key)); v != nil {
			found = json.Unmarshal(v, &entry) == nil
		}
		return nil
	})
	if !found || entry.Total == 0 {
		return 0, false
	}
	return entry.Total, true
}

// DurableLen returns the number of keys in the durable tier.
func (s *CacheStore) DurableLen() int {
	if s.db == nil {
		return 0
	}
	n := 0
	s.db.View(func(tx *bolt.Tx) error {
		n = tx.Bucket(bucketCatalog).Stats().KeyN
		return nil
	})
	return n
}

func expired(tsMillis int64) bool {
	return time.Since(time.UnixMilli(tsMillis)) > TTL
}

// ClearKey removes one composite key from both tiers. Idempotent.
func (s *CacheStore) ClearKey(logicalKey, profileID string) {
	key := compositeKey(logicalKey, profileID)

	s.mu.Lock()
	delete(s.cache, key)
	s.mu.Unlock()

	s.deleteDurable(key)
}

// ClearPrefix removes every key beginning with logicalPrefix in one
// profile's partition, from both tiers.
func (s *CacheStore) ClearPrefix(logicalPrefix, profileID string) {
	s.clearByPrefix(compositeKey(logicalPrefix, profileID))
}

// Clear removes every entry scoped to profileID from both tiers. Entries
// belonging to other profiles are untouched.
func (s *CacheStore) Clear(profileID string) {
	s.clearByPrefix(profileID + ":")
}

func (s *CacheStore) clearByPrefix(prefix string) {
	s.mu.Lock()
	for k := range s.cache {
		if strings.HasPrefix(k, prefix) {
			delete(s.cache, k)
		}
	}
	s.mu.Unlock()

	if s.db == nil {
		return
	}

	var removed []string
	s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketCatalog)
		c := b.Cursor()
		p := []byte(prefix)
		for k, _ := c.Seek(p); k != nil && bytes.HasPrefix(k, p); k, _ = c.Next() {
			removed = append(removed, string(k))
			if err := c.Delete(); err != nil {
				return err
			}
		}
		return nil
	})

	s.mu.Lock()
	for _, k := range removed {
		s.durBytes -= int64(s.sizes[k])
		delete(s.sizes, k)
	}
	s.mu.Unlock()
}

// ClearAll flushes both tiers completely.
func (s *CacheStore) ClearAll() {
	s.mu.Lock()
	s.cache = make(map[string][]byte)
	s.mu.Unlock()

	if s.db == nil {
		return
	}

	s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketCatalog)
		c := b.Cursor()
		for k, _ := c.First(); k != nil; k, _ = c.Next() {
			if err := c.Delete(); err != nil {
				return err
			}
		}
		return nil
	})

	s.mu.Lock()
	s.sizes = make(map[string]int)
	s.durBytes = 0
	s.mu.Unlock()
}

// DropMemory discards the in-memory tier, leaving the durable tier intact.
// Used by tests to simulate a process restart.
func (s *CacheStore) DropMemory() {
	s.mu.Lock()
	s.cache = make(map[string][]byte)
	s.mu.Unlock()
}

func (s *CacheStore) deleteDurable(key string) {
	if s.db == nil {
		return
	}
	s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketCatalog).Delete([]byte(key))
	})

	s.mu.Lock()
	s.durBytes -= int64(s.sizes[key])
	delete(s.sizes, key)
	s.mu.Unlock()
}
