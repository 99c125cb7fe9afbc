package trie

import (
	"github.com/ethereum/go-ethereum/common"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethdb/memorydb"
	gethtrie "github.com/ethereum/go-ethereum/trie"
	"github.com/ethereum/go-ethereum/trie/trienode"
	"github.com/ethereum/go-ethereum/triedb"

	"graphhub/storage"
)

// Trie wraps go-ethereum's trie implementation to expose a simplified API for the
// rest of the codebase while keeping access to the underlying trie database.
//
// The wrapper keeps track of the last committed root and recreates the
// underlying trie after each commit/reset so the instance can be reused across
// transactions. Uncommitted mutations can be discarded with Reset(Root()).
//
// The keys passed into Get/Update/Delete are expected to be fully hashed
// (keccak256) before insertion.
//
// Trie is not safe for concurrent use.
type Trie struct {
	store  storage.Database
	trieDB *triedb.Database
	trie   *gethtrie.Trie
	root   common.Hash
}

// NewTrie creates a trie backed by the provided storage and optional root. A nil
// or empty root denotes the empty trie.
func NewTrie(store storage.Database, root []byte) (*Trie, error) {
	trieDB := store.TrieDB()
	rootHash := gethtypes.EmptyRootHash
	if len(root) > 0 {
		rootHash = common.BytesToHash(root)
	}
	underlying, err := gethtrie.New(gethtrie.TrieID(rootHash), trieDB)
	if err != nil {
		return nil, err
	}
	return &Trie{
		store:  store,
		trieDB: trieDB,
		trie:   underlying,
		root:   rootHash,
	}, nil
}

// Get retrieves a value from the trie for the provided key. Missing keys yield
// a nil value and no error.
func (t *Trie) Get(key []byte) ([]byte, error) {
	return t.trie.Get(key)
}

// Update inserts or updates a value in the trie for the provided key.
func (t *Trie) Update(key, value []byte) error {
	return t.trie.Update(key, value)
}

// Delete removes the key from the trie. Deleting an absent key is a no-op.
func (t *Trie) Delete(key []byte) error {
	return t.trie.Delete(key)
}

// Hash returns the root hash of the trie reflecting all in-memory mutations.
func (t *Trie) Hash() common.Hash {
	return t.trie.Hash()
}

// Root returns the last committed root hash.
func (t *Trie) Root() common.Hash {
	return t.root
}

// Reset discards any in-memory changes and reloads the trie at the provided
// root. It is used to roll back a rejected transaction.
func (t *Trie) Reset(root common.Hash) error {
	underlying, err := gethtrie.New(gethtrie.TrieID(root), t.trieDB)
	if err != nil {
		return err
	}
	t.trie = underlying
	t.root = root
	return nil
}

// Commit persists the trie changes to the backing database and returns the new
// root hash. After committing the wrapper recreates the underlying trie so it
// can be reused for subsequent transitions.
func (t *Trie) Commit(parent common.Hash, height uint64) (common.Hash, error) {
	newRoot, nodes := t.trie.Commit(false)
	if nodes != nil {
		merged := trienode.NewMergedNodeSet()
		if err := merged.Merge(nodes); err != nil {
			return common.Hash{}, err
		}
		if err := t.trieDB.Update(newRoot, parent, height, merged, nil); err != nil {
			return common.Hash{}, err
		}
		if err := t.trieDB.Commit(newRoot, false); err != nil {
			return common.Hash{}, err
		}
	}
	underlying, err := gethtrie.New(gethtrie.TrieID(newRoot), t.trieDB)
	if err != nil {
		return common.Hash{}, err
	}
	t.trie = underlying
	t.root = newRoot
	return newRoot, nil
}

type proofCollector struct{ nodes [][]byte }

func (c *proofCollector) Put(_ []byte, value []byte) error {
	c.nodes = append(c.nodes, common.CopyBytes(value))
	return nil
}

func (c *proofCollector) Delete([]byte) error { return nil }

// Prove returns the RLP-encoded nodes on the path from the committed root to
// key, root first. The proof also covers absent keys.
func (t *Trie) Prove(key []byte) ([][]byte, error) {
	var collector proofCollector
	if err := t.trie.Prove(key, &collector); err != nil {
		return nil, err
	}
	return collector.nodes, nil
}

// VerifyProof checks proof against root and returns the value stored under
// key, or nil when the proof shows the key is absent.
func VerifyProof(root common.Hash, key []byte, proof [][]byte) ([]byte, error) {
	db := memorydb.New()
	for _, node := range proof {
		if err := db.Put(crypto.Keccak256(node), node); err != nil {
			return nil, err
		}
	}
	return gethtrie.VerifyProof(root, key, db)
}

// Store exposes the backing storage in case callers need to access it directly.
func (t *Trie) Store() storage.Database {
	return t.store
}
