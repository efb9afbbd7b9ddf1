package cache

import (
	"context"
	"sync"
	"time"
)

type value struct {
	object  []byte
	expires time.Time
}

func (v *value) expired(now time.Time) bool {
	return !v.expires.IsZero() && v.expires.Before(now)
}

// MemoryStore is an in-process Store. Entries expire after the configured TTL,
// a zero TTL keeps them for the life of the process.
type MemoryStore struct {
	ctx         context.Context
	cancel      context.CancelFunc
	cache       map[string]*value
	ttl         time.Duration
	mutex       sync.RWMutex
	waitGroup   sync.WaitGroup
	once        sync.Once
	expiryCheck time.Duration
}

var _ Store = (*MemoryStore)(nil)

func (c *MemoryStore) Get(key string) (bool, []byte, error) {
	c.mutex.RLock()
	val, ok := c.cache[key]
	c.mutex.RUnlock()
	if ok {
		if val.expired(time.Now()) {
			c.mutex.Lock()
			delete(c.cache, key)
			c.mutex.Unlock()
			return false, nil, nil
		}
		return true, val.object, nil
	}
	return false, nil, nil
}

func (c *MemoryStore) Set(key string, val []byte) error {
	var expires time.Time
	if c.ttl > 0 {
		expires = time.Now().Add(c.ttl)
	}
	c.mutex.Lock()
	c.cache[key] = &value{val, expires}
	c.mutex.Unlock()
	return nil
}

// Len returns the number of entries, including expired ones not yet collected.
func (c *MemoryStore) Len() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.cache)
}

func (c *MemoryStore) Close() error {
	c.once.Do(func() {
		c.cancel()
		c.waitGroup.Wait()
	})
	return nil
}

func (c *MemoryStore) run() {
	defer c.waitGroup.Done()
	timer := time.NewTicker(c.expiryCheck)
	defer timer.Stop()
	for {
		select {
		case <-c.ctx.Done():
			return
		case <-timer.C:
			now := time.Now()
			c.mutex.Lock()
			for key, val := range c.cache {
				if val.expired(now) {
					delete(c.cache, key)
				}
			}
			c.mutex.Unlock()
		}
	}
}

// NewMemoryStore returns a new in memory store. The expiry loop only runs when ttl is set.
func NewMemoryStore(parent context.Context, ttl time.Duration, expiryCheck time.Duration) *MemoryStore {
	ctx, cancel := context.WithCancel(parent)
	c := &MemoryStore{
		ctx:         ctx,
		cancel:      cancel,
		cache:       make(map[string]*value),
		ttl:         ttl,
		expiryCheck: expiryCheck,
	}
	if ttl > 0 && expiryCheck > 0 {
		c.waitGroup.Add(1)
		go c.run()
	}
	return c
}
