package storage

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/core/rawdb"
	"github.com/ethereum/go-ethereum/ethdb"
	gethleveldb "github.com/ethereum/go-ethereum/ethdb/leveldb"
	"github.com/ethereum/go-ethereum/triedb"
	"github.com/syndtr/goleveldb/leveldb"
)

// ErrNotFound is returned by Get when the key is absent.
var ErrNotFound = errors.New("storage: key not found")

// Database is a generic interface for a key-value store.
// This allows the hub to use any database backend (in-memory or persistent).
// Both backends expose the trie node database sharing the same disk handle so
// committed state roots survive restarts.
type Database interface {
	Put(key []byte, value []byte) error
	Get(key []byte) ([]byte, error)
	TrieDB() *triedb.Database
	Close() // A way to gracefully shut down the database connection.
}

type backend struct {
	disk ethdb.Database

	trieOnce sync.Once
	trieDB   *triedb.Database
}

func (b *backend) TrieDB() *triedb.Database {
	b.trieOnce.Do(func() {
		b.trieDB = triedb.NewDatabase(b.disk, triedb.HashDefaults)
	})
	return b.trieDB
}

func (b *backend) Put(key []byte, value []byte) error {
	return b.disk.Put(key, value)
}

// --- In-Memory DB (for testing) ---

type MemDB struct {
	backend
}

func NewMemDB() *MemDB {
	return &MemDB{backend: backend{disk: rawdb.NewMemoryDatabase()}}
}

func (db *MemDB) Get(key []byte) ([]byte, error) {
	ok, err := db.disk.Has(key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotFound
	}
	return db.disk.Get(key)
}

// Close satisfies the Database interface for MemDB.
func (db *MemDB) Close() {
	_ = db.disk.Close()
}

// --- Persistent DB ---

// LevelDB is a persistent key-value store using LevelDB.
type LevelDB struct {
	backend
}

// NewLevelDB creates or opens a LevelDB database at the specified path.
func NewLevelDB(path string) (*LevelDB, error) {
	kv, err := gethleveldb.New(path, 16, 16, "graphhub/db/", false)
	if err != nil {
		return nil, fmt.Errorf("storage: open leveldb: %w", err)
	}
	return &LevelDB{backend: backend{disk: rawdb.NewDatabase(kv)}}, nil
}

// Get retrieves a value for a given key.
func (ldb *LevelDB) Get(key []byte) ([]byte, error) {
	value, err := ldb.disk.Get(key)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, ErrNotFound
	}
	return value, err
}

// Close closes the database connection.
func (ldb *LevelDB) Close() {
	_ = ldb.disk.Close()
}
