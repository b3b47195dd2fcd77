package cache

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"
)

// MemoryCache кэш в памяти процесса с TTL и инвалидацией по префиксу.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]*memoryEntry
	stop    chan struct{}
	once    sync.Once
}

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

// NewMemoryCache создаёт кэш и запускает фоновую очистку истёкших ключей.
func NewMemoryCache(cleanupInterval time.Duration) *MemoryCache {
	mc := &MemoryCache{
		entries: make(map[string]*memoryEntry),
		stop:    make(chan struct{}),
	}
	if cleanupInterval > 0 {
		go mc.cleanup(cleanupInterval)
	}
	return mc
}

func (mc *MemoryCache) Get(_ context.Context, key string, dest interface{}) (bool, error) {
	mc.mu.RLock()
	entry, exists := mc.entries[key]
	mc.mu.RUnlock()

	if !exists || time.Now().After(entry.expiresAt) {
		return false, nil
	}

	if err := json.Unmarshal(entry.data, dest); err != nil {
		return false, err
	}
	return true, nil
}

func (mc *MemoryCache) Set(_ context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	mc.mu.Lock()
	defer mc.mu.Unlock()

	mc.entries[key] = &memoryEntry{
		data:      data,
		expiresAt: time.Now().Add(ttl),
	}
	return nil
}

func (mc *MemoryCache) InvalidateByPrefix(_ context.Context, prefix string) error {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	for key := range mc.entries {
		if strings.HasPrefix(key, prefix) {
			delete(mc.entries, key)
		}
	}
	return nil
}

// Close останавливает фоновую очистку.
func (mc *MemoryCache) Close() {
	mc.once.Do(func() { close(mc.stop) })
}

func (mc *MemoryCache) cleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-mc.stop:
			return
		case <-ticker.C:
			mc.mu.Lock()
			now := time.Now()
			for key, entry := range mc.entries {
				if now.After(entry.expiresAt) {
					delete(mc.entries, key)
				}
			}
			mc.mu.Unlock()
		}
	}
}
