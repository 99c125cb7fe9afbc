package state

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"

	"graphhub/storage"
	"graphhub/storage/trie"
)

// Manager provides keyed, RLP-encoded access to the hub state held in a
// Merkle-Patricia trie. Writes stay in memory until Commit; Revert discards
// everything written since the last commit.
type Manager struct {
	trie   *trie.Trie
	height uint64
}

var headKey = []byte("graphhub/head")

type storedHead struct {
	Root   common.Hash
	Height uint64
}

// Open loads the last committed head from the database, or starts from the
// empty trie when the database is fresh.
func Open(db storage.Database) (*Manager, error) {
	if db == nil {
		return nil, fmt.Errorf("state: database must not be nil")
	}
	var head storedHead
	raw, err := db.Get(headKey)
	switch {
	case errors.Is(err, storage.ErrNotFound):
	case err != nil:
		return nil, fmt.Errorf("state: load head: %w", err)
	default:
		if err := rlp.DecodeBytes(raw, &head); err != nil {
			return nil, fmt.Errorf("state: decode head: %w", err)
		}
	}
	var root []byte
	if head.Root != (common.Hash{}) {
		root = head.Root.Bytes()
	}
	tr, err := trie.NewTrie(db, root)
	if err != nil {
		return nil, fmt.Errorf("state: open trie: %w", err)
	}
	return &Manager{trie: tr, height: head.Height}, nil
}

// Root returns the last committed state root.
func (m *Manager) Root() common.Hash {
	return m.trie.Root()
}

// Height returns the number of commits applied on top of the empty state.
func (m *Manager) Height() uint64 {
	return m.height
}

// Commit persists pending writes and records the new head.
func (m *Manager) Commit() (common.Hash, error) {
	parent := m.trie.Root()
	root, err := m.trie.Commit(parent, m.height+1)
	if err != nil {
		return common.Hash{}, fmt.Errorf("state: commit: %w", err)
	}
	m.height++
	encoded, err := rlp.EncodeToBytes(storedHead{Root: root, Height: m.height})
	if err != nil {
		return common.Hash{}, err
	}
	if err := m.trie.Store().Put(headKey, encoded); err != nil {
		return common.Hash{}, fmt.Errorf("state: persist head: %w", err)
	}
	return root, nil
}

// Revert drops every write made since the last commit.
func (m *Manager) Revert() error {
	if err := m.trie.Reset(m.trie.Root()); err != nil {
		return fmt.Errorf("state: revert: %w", err)
	}
	return nil
}

func kvKey(key []byte) []byte {
	return ethcrypto.Keccak256(key)
}

// KVPut stores the provided value under the supplied key using RLP encoding.
// The key is automatically hashed with keccak256 to match the requirements of
// the underlying trie implementation.
func (m *Manager) KVPut(key []byte, value interface{}) error {
	if len(key) == 0 {
		return fmt.Errorf("kv: key must not be empty")
	}
	encoded, err := rlp.EncodeToBytes(value)
	if err != nil {
		return err
	}
	return m.trie.Update(kvKey(key), encoded)
}

// KVGet retrieves the value stored under the supplied key and decodes it into
// the provided destination. The boolean return value indicates whether the key
// existed in state.
func (m *Manager) KVGet(key []byte, out interface{}) (bool, error) {
	if len(key) == 0 {
		return false, fmt.Errorf("kv: key must not be empty")
	}
	data, err := m.trie.Get(kvKey(key))
	if err != nil {
		return false, err
	}
	if len(data) == 0 {
		return false, nil
	}
	if out == nil {
		return true, nil
	}
	if err := rlp.DecodeBytes(data, out); err != nil {
		return false, err
	}
	return true, nil
}

// KVDelete removes the value stored under key.
func (m *Manager) KVDelete(key []byte) error {
	if len(key) == 0 {
		return fmt.Errorf("kv: key must not be empty")
	}
	return m.trie.Delete(kvKey(key))
}

// Prove returns a Merkle proof of the value committed under key.
func (m *Manager) Prove(key []byte) ([][]byte, error) {
	if len(key) == 0 {
		return nil, fmt.Errorf("kv: key must not be empty")
	}
	return m.trie.Prove(kvKey(key))
}

// VerifyProof checks a proof produced by Prove against root and decodes the
// proven value into out. The boolean reports whether the key is present.
func VerifyProof(root common.Hash, key []byte, proof [][]byte, out interface{}) (bool, error) {
	if len(key) == 0 {
		return false, fmt.Errorf("kv: key must not be empty")
	}
	data, err := trie.VerifyProof(root, kvKey(key), proof)
	if err != nil {
		return false, fmt.Errorf("state: invalid proof: %w", err)
	}
	if len(data) == 0 {
		return false, nil
	}
	if out == nil {
		return true, nil
	}
	if err := rlp.DecodeBytes(data, out); err != nil {
		return false, err
	}
	return true, nil
}
