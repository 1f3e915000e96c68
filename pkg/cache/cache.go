// Copyright 2025 UMH Systems GmbH
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package cache implements a time-to-live cache with lazy expiry.
//
// Entries are never swept in the background: an expired entry is removed by
// the Get that observes it. Every operation runs under one lock for the whole
// cache, so concurrent collection passes serialize on it briefly.
package cache

import (
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

// TTL is a key to value cache whose entries are valid while their age is
// below the configured time-to-live. The zero TTL disables caching: every
// Get misses.
type TTL[V any] struct {
	mu    sync.Mutex
	store *gocache.Cache
	ttl   time.Duration
	log   *zap.SugaredLogger
}

// New creates a TTL cache. A nil logger is replaced by a no-op logger.
func New[V any](ttl time.Duration, log *zap.SugaredLogger) *TTL[V] {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	if ttl < 0 {
		ttl = 0
	}

	// A cleanup interval of zero keeps go-cache from starting its janitor.
	return &TTL[V]{
		store: gocache.New(gocache.NoExpiration, 0),
		ttl:   ttl,
		log:   log,
	}
}

// Get returns the cached value for key if it is younger than the TTL.
// A stale entry is removed as a side effect.
func (c *TTL[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V

	if c.ttl == 0 {
		c.store.Delete(key)
		c.log.Debugf("Cache disabled, miss: %s", key)
		return zero, false
	}

	raw, found := c.store.Get(key)
	if !found {
		// go-cache reports expired items as absent but keeps them until deleted.
		c.store.Delete(key)
		c.log.Debugf("Cache miss: %s", key)
		return zero, false
	}

	value, ok := raw.(V)
	if !ok {
		c.store.Delete(key)
		return zero, false
	}

	c.log.Debugf("Cache hit: %s", key)
	return value, true
}

// Set inserts or replaces the entry for key, stamping the current time.
func (c *TTL[V]) Set(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	expiration := c.ttl
	if expiration == 0 {
		// Stored but already stale; the next Get removes it.
		expiration = time.Nanosecond
	}
	c.store.Set(key, value, expiration)
	c.log.Debugf("Cache updated: %s", key)
}

// Clear removes all entries.
func (c *TTL[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.store.Flush()
	c.log.Debug("Cache cleared")
}

// Len returns the number of stored entries, including expired entries that
// no Get has observed yet.
func (c *TTL[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.store.ItemCount()
}

// TTL returns the configured time-to-live.
func (c *TTL[V]) TTL() time.Duration {
	return c.ttl
}
