package state

import (
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"graphhub/storage"
)

type record struct {
	Owner [20]byte
	Stamp uint64
}

func TestManagerRevertDiscardsPendingWrites(t *testing.T) {
	db := storage.NewMemDB()
	defer db.Close()

	mgr, err := Open(db)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := mgr.KVPut([]byte("ledger/profile/1"), record{Owner: [20]byte{1}, Stamp: 7}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if _, err := mgr.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if err := mgr.KVPut([]byte("ledger/profile/2"), record{Owner: [20]byte{2}, Stamp: 8}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := mgr.KVDelete([]byte("ledger/profile/1")); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := mgr.Revert(); err != nil {
		t.Fatalf("revert: %v", err)
	}

	var got record
	ok, err := mgr.KVGet([]byte("ledger/profile/1"), &got)
	if err != nil || !ok {
		t.Fatalf("expected committed record, ok=%v err=%v", ok, err)
	}
	if got.Stamp != 7 {
		t.Fatalf("unexpected record after revert: %+v", got)
	}
	if ok, _ := mgr.KVGet([]byte("ledger/profile/2"), nil); ok {
		t.Fatalf("expected pending record to be discarded")
	}
}

func TestManagerOpenRestoresHead(t *testing.T) {
	db, err := storage.NewLevelDB(t.TempDir())
	if err != nil {
		t.Fatalf("open leveldb: %v", err)
	}
	mgr, err := Open(db)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	addr := common.HexToAddress("0x00000000000000000000000000000000000000aa")
	if err := mgr.IncrementAccountNonce(addr); err != nil {
		t.Fatalf("increment nonce: %v", err)
	}
	root, err := mgr.Commit()
	if err != nil {
		t.Fatalf("commit: %v", err)
	}

	reopened, err := Open(db)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if reopened.Root() != root || reopened.Height() != 1 {
		t.Fatalf("head mismatch: root=%s height=%d", reopened.Root(), reopened.Height())
	}
	nonce, err := reopened.AccountNonce(addr)
	if err != nil {
		t.Fatalf("account nonce: %v", err)
	}
	if nonce != 1 {
		t.Fatalf("expected nonce 1, got %d", nonce)
	}
	db.Close()
}

func TestEnsureVersion(t *testing.T) {
	db := storage.NewMemDB()
	defer db.Close()
	mgr, err := Open(db)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := mgr.EnsureVersion(false); err != nil {
		t.Fatalf("fresh state should pass: %v", err)
	}
	if err := mgr.SetStateVersion(StateVersion + 1); err != nil {
		t.Fatalf("set version: %v", err)
	}
	if err := mgr.EnsureVersion(false); !errors.Is(err, ErrStateVersionMismatch) {
		t.Fatalf("expected version mismatch, got %v", err)
	}
	if err := mgr.EnsureVersion(true); err != nil {
		t.Fatalf("expected migrate override, got %v", err)
	}
}

func TestManagerProofRoundTrip(t *testing.T) {
	db := storage.NewMemDB()
	defer db.Close()
	mgr, err := Open(db)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	key := []byte("ledger/profile/token/1")
	if err := mgr.KVPut(key, record{Owner: [20]byte{9}, Stamp: 42}); err != nil {
		t.Fatalf("put: %v", err)
	}
	root, err := mgr.Commit()
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	proof, err := mgr.Prove(key)
	if err != nil {
		t.Fatalf("prove: %v", err)
	}

	var got record
	ok, err := VerifyProof(root, key, proof, &got)
	if err != nil || !ok {
		t.Fatalf("verify: ok=%v err=%v", ok, err)
	}
	if got.Owner != [20]byte{9} || got.Stamp != 42 {
		t.Fatalf("unexpected proven record %+v", got)
	}
	// The same proof must not vouch for a different key.
	if ok, err := VerifyProof(root, []byte("ledger/profile/token/2"), proof, nil); err == nil && ok {
		t.Fatalf("proof accepted for the wrong key")
	}
}
