// Package cache is the persistent key value cache consulted before the network
// for slow changing resources such as the schema and translation tables.
package cache

import (
	"fmt"
	"sync"
)

// Store is a key value cache.
type Store interface {
	// Get a value from the cache and return true if found.
	Get(key string) (bool, []byte, error)

	// Set a value into the cache.
	Set(key string, val []byte) error

	// Close will shutdown the cache
	Close() error
}

// Tiered is a memory store in front of a persistent store. Hits of the
// persistent store are promoted into memory.
type Tiered struct {
	memory Store
	disk   Store
	once   sync.Once
}

var _ Store = (*Tiered)(nil)

// NewTiered returns a store reading memory first and disk second.
func NewTiered(memory Store, disk Store) *Tiered {
	return &Tiered{memory: memory, disk: disk}
}

func (t *Tiered) Get(key string) (bool, []byte, error) {
	found, val, err := t.memory.Get(key)
	if err != nil {
		return false, nil, fmt.Errorf("error fetching %s from memory: %w", key, err)
	}
	if found {
		return true, val, nil
	}
	found, val, err = t.disk.Get(key)
	if err != nil {
		return false, nil, fmt.Errorf("error fetching %s from disk: %w", key, err)
	}
	if found {
		if err := t.memory.Set(key, val); err != nil {
			return false, nil, fmt.Errorf("error setting key %s in memory: %w", key, err)
		}
	}
	return found, val, nil
}

func (t *Tiered) Set(key string, val []byte) error {
	if err := t.disk.Set(key, val); err != nil {
		return fmt.Errorf("error setting key %s on disk: %w", key, err)
	}
	return t.memory.Set(key, val)
}

func (t *Tiered) Close() error {
	var err error
	t.once.Do(func() {
		if merr := t.memory.Close(); merr != nil {
			err = merr
		}
		if derr := t.disk.Close(); derr != nil {
			err = derr
		}
	})
	return err
}
