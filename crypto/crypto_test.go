package crypto

import (
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"
)

func TestKeystoreRoundTrip(t *testing.T) {
	key, err := GeneratePrivateKey()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	path := filepath.Join(t.TempDir(), "keys", "signer.keystore")
	if err := SaveToKeystore(path, key, "correct horse"); err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded, err := LoadFromKeystore(path, "correct horse")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Address() != key.Address() {
		t.Fatalf("address mismatch: %s != %s", loaded.Address(), key.Address())
	}
	if _, err := LoadFromKeystore(path, "wrong"); err == nil {
		t.Fatalf("expected wrong passphrase to fail")
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("expected 0600 keystore, got %v", info.Mode().Perm())
	}
	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected only the keystore file, found %d entries", len(entries))
	}
}

func TestPrivateKeyFromHex(t *testing.T) {
	key, err := GeneratePrivateKey()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	encoded := hex.EncodeToString(key.Bytes())
	for _, raw := range []string{encoded, "0x" + encoded} {
		parsed, err := PrivateKeyFromHex(raw)
		if err != nil {
			t.Fatalf("parse %q: %v", raw, err)
		}
		if parsed.Address() != key.Address() {
			t.Fatalf("address mismatch for %q", raw)
		}
	}
	if _, err := PrivateKeyFromHex("0xzz"); err == nil {
		t.Fatalf("expected invalid hex to fail")
	}
}
