package cache

import (
	"context"
	"path"
	"sync"
	"time"
)

// cachedReport is one stored payload with its expiration
type cachedReport struct {
	payload   []byte
	expiresAt time.Time
}

// InMemoryReportCache stores rendered reports in an in-process map. It is
// suitable for single-instance deployments and testing; instances do not
// share cached reports.
type InMemoryReportCache struct {
	mu        sync.RWMutex
	reports   map[string]cachedReport
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewInMemoryReportCache creates a new in-memory report cache. It starts a
// background goroutine that evicts expired payloads.
func NewInMemoryReportCache() *InMemoryReportCache {
	c := &InMemoryReportCache{
		reports:  make(map[string]cachedReport),
		stopChan: make(chan struct{}),
	}

	c.wg.Add(1)
	go c.cleanupLoop()

	return c
}

// Get returns the cached payload for the key, or nil on a miss
func (c *InMemoryReportCache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	report, exists := c.reports[key]
	if !exists || time.Now().After(report.expiresAt) {
		return nil, nil
	}
	return report.payload, nil
}

// Set stores the payload under the key with the given TTL
func (c *InMemoryReportCache) Set(_ context.Context, key string, payload []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.reports[key] = cachedReport{
		payload:   payload,
		expiresAt: time.Now().Add(ttl),
	}
	return nil
}

// Invalidate removes every key matching the glob pattern
func (c *InMemoryReportCache) Invalidate(_ context.Context, pattern string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key := range c.reports {
		if ok, _ := path.Match(pattern, key); ok {
			delete(c.reports, key)
		}
	}
	return nil
}

// Close stops the cleanup goroutine
func (c *InMemoryReportCache) Close() error {
	c.closeOnce.Do(func() {
		close(c.stopChan)
	})
	c.wg.Wait()
	return nil
}

// cleanupLoop periodically evicts expired payloads
func (c *InMemoryReportCache) cleanupLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.evictExpired()
		case <-c.stopChan:
			return
		}
	}
}

func (c *InMemoryReportCache) evictExpired() {
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	for key, report := range c.reports {
		if now.After(report.expiresAt) {
			delete(c.reports, key)
		}
	}
}
