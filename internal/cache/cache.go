// Package cache keeps computed recaps around between requests of one process.
package cache

import (
	"context"
	"sync"
	"time"

	"wrapped/internal/log"
)

// Cache is a keyed store of computed values.
type Cache[K comparable, V any] interface {
	Get(key K) (V, bool)
	Set(key K, value V)
	Delete(key K)
	Purge()
	Len() int
}

// Stats counts cache traffic since creation.
type Stats struct {
	Hits      uint64
	Misses    uint64
	Evictions uint64
	Expired   uint64
}

// Cleaner is implemented by caches whose entries expire.
type Cleaner interface {
	CleanExpired() int
}

// Janitor periodically drops expired entries from registered caches.
type Janitor struct {
	mu     sync.Mutex
	caches []Cleaner
	logger *log.Logger
	wg     sync.WaitGroup
}

func NewJanitor(logger *log.Logger) *Janitor {
	if logger == nil {
		logger = log.Discard()
	}
	return &Janitor{logger: logger.WithComponent(log.ComponentCache)}
}

func (j *Janitor) Register(c Cleaner) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.caches = append(j.caches, c)
}

// Sweep cleans every registered cache once and returns the number of dropped entries.
func (j *Janitor) Sweep() int {
	j.mu.Lock()
	caches := append([]Cleaner(nil), j.caches...)
	j.mu.Unlock()

	total := 0
	for _, c := range caches {
		total += c.CleanExpired()
	}
	return total
}

// Start sweeps every interval until ctx is done. Wait blocks until the loop exits.
func (j *Janitor) Start(ctx context.Context, interval time.Duration) {
	j.wg.Add(1)
	go func() {
		defer j.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if n := j.Sweep(); n > 0 {
					j.logger.Debug("expired cache entries dropped", "count", n)
				}
			case <-ctx.Done():
				return
			}
		}
	}()
}

func (j *Janitor) Wait() { j.wg.Wait() }
