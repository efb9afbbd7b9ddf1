package cache

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/shopmonkeyus/go-common/logger"
	"github.com/tidwall/buntdb"
)

type DiskStoreConfig struct {
	Context context.Context
	Logger  logger.Logger
	Dir     string
}

// DiskStore is a Store kept in a buntdb file so that entries survive restarts.
type DiskStore struct {
	ctx    context.Context
	logger logger.Logger
	db     *buntdb.DB
	once   sync.Once
}

var _ Store = (*DiskStore)(nil)

// Close will close the underlying database.
func (s *DiskStore) Close() error {
	s.logger.Debug("closing")
	var err error
	s.once.Do(func() {
		s.db.Shrink()
		err = s.db.Close()
	})
	s.logger.Debug("closed")
	return err
}

// Get will return the value of the key from the database.
func (s *DiskStore) Get(key string) (bool, []byte, error) {
	var value string
	var found bool
	err := s.db.View(func(tx *buntdb.Tx) error {
		val, err := tx.Get(key, false)
		if err != nil {
			if err == buntdb.ErrNotFound {
				return nil
			}
			return err
		}
		value = val
		found = true
		return nil
	})
	if err != nil {
		return false, nil, fmt.Errorf("failed to get key: %w", err)
	}
	if !found {
		return false, nil, nil
	}
	return true, []byte(value), nil
}

// Set will set the key to the value in the database.
func (s *DiskStore) Set(key string, val []byte) error {
	err := s.db.Update(func(tx *buntdb.Tx) error {
		_, _, err := tx.Set(key, string(val), nil)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to set key: %w", err)
	}
	return nil
}

// Delete will delete the keys from the database, missing keys are ignored.
func (s *DiskStore) Delete(keys ...string) error {
	return s.db.Update(func(tx *buntdb.Tx) error {
		for _, key := range keys {
			if _, err := tx.Delete(key); err != nil && err != buntdb.ErrNotFound {
				return err
			}
		}
		return nil
	})
}

// Keys returns the keys starting with prefix.
func (s *DiskStore) Keys(prefix string) ([]string, error) {
	var keys []string
	err := s.db.View(func(tx *buntdb.Tx) error {
		return tx.AscendKeys(prefix+"*", func(key, _ string) bool {
			keys = append(keys, key)
			return true
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list keys: %w", err)
	}
	return keys, nil
}

// FilenameFromDir returns the filename of the cache database in a specific directory.
func FilenameFromDir(dir string) string {
	return filepath.Join(dir, "vstutils-cache.db")
}

// NewDiskStore will open the cache database in config.Dir, creating it when missing.
func NewDiskStore(config DiskStoreConfig) (*DiskStore, error) {
	db, err := buntdb.Open(FilenameFromDir(config.Dir))
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}

	var dbcfg buntdb.Config
	if err := db.ReadConfig(&dbcfg); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to read db config: %w", err)
	}
	dbcfg.SyncPolicy = buntdb.EverySecond
	if err := db.SetConfig(dbcfg); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set db config: %w", err)
	}

	return &DiskStore{
		db:     db,
		ctx:    config.Context,
		logger: config.Logger.WithPrefix("[cache]"),
	}, nil
}
