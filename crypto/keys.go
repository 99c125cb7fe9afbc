package crypto

import (
	"crypto/ecdsa"
	"crypto/rand"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// --- Key Management ---

type PrivateKey struct {
	*ecdsa.PrivateKey
}

type PublicKey struct {
	*ecdsa.PublicKey
}

func GeneratePrivateKey() (*PrivateKey, error) {
	key, err := ecdsa.GenerateKey(crypto.S256(), rand.Reader)
	if err != nil {
		return nil, err
	}
	return &PrivateKey{key}, nil
}

// Bytes returns the byte representation of the private key.
func (k *PrivateKey) Bytes() []byte {
	return crypto.FromECDSA(k.PrivateKey)
}

func (k *PrivateKey) PubKey() *PublicKey {
	return &PublicKey{&k.PrivateKey.PublicKey}
}

// Address returns the EIP-55 account address of the key.
func (k *PrivateKey) Address() common.Address {
	return k.PubKey().Address()
}

func (k *PublicKey) Address() common.Address {
	return crypto.PubkeyToAddress(*k.PublicKey)
}

// PrivateKeyFromHex parses a hex-encoded key, with or without 0x prefix.
func PrivateKeyFromHex(raw string) (*PrivateKey, error) {
	key, err := crypto.HexToECDSA(trimHexPrefix(raw))
	if err != nil {
		return nil, err
	}
	return &PrivateKey{key}, nil
}

func trimHexPrefix(s string) string {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		return s[2:]
	}
	return s
}
