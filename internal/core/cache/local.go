package cache

import (
	"sync"
	"time"

	"fridgechef/internal/pkg/common"

	"go.uber.org/zap"
)

// Local is the in-process cache tier. Entries are lost on restart; that is
// acceptable because the shared tier (when configured) is the durable one.
type Local struct {
	mu       sync.RWMutex
	store    map[string]localEntry
	maxSize  int
	interval time.Duration
	stop     chan struct{}
	stopOnce sync.Once
	stats    localStats
}

type localEntry struct {
	value       []byte
	expiresAt   time.Time
	createdAt   time.Time
	lastAccess  time.Time
	accessCount int
}

type localStats struct {
	hits      int64
	misses    int64
	evictions int64
}

// NewLocal creates the in-process tier and starts its cleanup goroutine.
func NewLocal(maxSize int, cleanupInterval time.Duration) *Local {
	l := &Local{
		store:    make(map[string]localEntry),
		maxSize:  maxSize,
		interval: cleanupInterval,
		stop:     make(chan struct{}),
	}
	go l.startCleanup()
	return l
}

// Get returns the cached value, or nil when absent or expired.
func (l *Local) Get(key string) []byte {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry, exists := l.store[key]
	if !exists {
		l.stats.misses++
		return nil
	}
	if time.Now().After(entry.expiresAt) {
		delete(l.store, key)
		l.stats.evictions++
		l.stats.misses++
		return nil
	}

	entry.lastAccess = time.Now()
	entry.accessCount++
	l.store[key] = entry
	l.stats.hits++
	return entry.value
}

// Set stores a value with the given TTL, evicting expired and then
// least-recently-used entries when the tier is full.
func (l *Local) Set(key string, value []byte, ttl time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.store) >= l.maxSize {
		l.cleanupLocked()
		if len(l.store) >= l.maxSize {
			l.evictLRULocked()
		}
		if len(l.store) >= l.maxSize {
			common.LogWarn("local cache full, dropping write",
				zap.Int("size", len(l.store)),
			)
			return
		}
	}

	now := time.Now()
	l.store[key] = localEntry{
		value:      value,
		expiresAt:  now.Add(ttl),
		createdAt:  now,
		lastAccess: now,
	}
}

func (l *Local) startCleanup() {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.mu.Lock()
			l.cleanupLocked()
			l.mu.Unlock()
		case <-l.stop:
			return
		}
	}
}

func (l *Local) cleanupLocked() int {
	now := time.Now()
	count := 0
	for key, entry := range l.store {
		if now.After(entry.expiresAt) {
			delete(l.store, key)
			count++
			l.stats.evictions++
		}
	}
	return count
}

func (l *Local) evictLRULocked() {
	var oldestKey string
	var oldestAccess time.Time
	var lowestAccessCount int

	for key, entry := range l.store {
		if oldestKey == "" ||
			entry.accessCount < lowestAccessCount ||
			(entry.accessCount == lowestAccessCount && entry.lastAccess.Before(oldestAccess)) {
			oldestKey = key
			oldestAccess = entry.lastAccess
			lowestAccessCount = entry.accessCount
		}
	}

	if oldestKey != "" {
		delete(l.store, oldestKey)
		l.stats.evictions++
	}
}

// Stats reports hit/miss/eviction counts and current size.
func (l *Local) Stats() map[string]interface{} {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return map[string]interface{}{
		"size":      len(l.store),
		"max_size":  l.maxSize,
		"hits":      l.stats.hits,
		"misses":    l.stats.misses,
		"evictions": l.stats.evictions,
	}
}

// Close stops the cleanup goroutine and drops all entries.
func (l *Local) Close() {
	l.stopOnce.Do(func() { close(l.stop) })
	l.mu.Lock()
	l.store = make(map[string]localEntry)
	l.mu.Unlock()
}
