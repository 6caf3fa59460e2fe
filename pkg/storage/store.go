/*
Package storage implements the durable key/value backends the local
transaction cache is kept in. A Store holds one account's history rows
and must tolerate being deleted and rebuilt from scratch.
*/
package storage

import (
	"errors"
	"fmt"
)

// ErrKeyNotFound is an error returned by Store implementations when a
// certain key is not found.
var ErrKeyNotFound = errors.New("key not found")

// Store is the underlying KV backend for the transaction cache. Keys are
// returned by Seek in ascending order.
type Store interface {
	Get([]byte) ([]byte, error)
	Put(key, value []byte) error
	// PutBatch atomically applies the given changeset.
	PutBatch(batch map[string][]byte) error
	// Seek iterates over key-value pairs with the given key prefix in
	// ascending key order. Iteration continues until false is returned
	// from f. Key and value slices should not be modified.
	Seek(prefix []byte, f func(k, v []byte) bool)
	Close() error
}

// DBConfiguration describes the configuration of the database backend.
type DBConfiguration struct {
	Type           string         `yaml:"Type"`
	BoltDBOptions  BoltDBOptions  `yaml:"BoltDBOptions"`
	LevelDBOptions LevelDBOptions `yaml:"LevelDBOptions"`
}

// NewStore creates a storage with the preselected in configuration
// database type.
func NewStore(cfg DBConfiguration) (Store, error) {
	var store Store
	var err error
	switch cfg.Type {
	case "leveldb":
		store, err = NewLevelDBStore(cfg.LevelDBOptions)
	case "inmemory":
		store = NewMemoryStore()
	case "boltdb":
		store, err = NewBoltDBStore(cfg.BoltDBOptions)
	default:
		return nil, fmt.Errorf("unknown storage: %s", cfg.Type)
	}
	return store, err
}

// Path returns the filesystem location of the configured backend, empty
// for in-memory storage. It's what gets removed on a corrupt-cache
// rebuild.
func (cfg DBConfiguration) Path() string {
	switch cfg.Type {
	case "leveldb":
		return cfg.LevelDBOptions.DataDirectoryPath
	case "boltdb":
		return cfg.BoltDBOptions.FilePath
	default:
		return ""
	}
}
