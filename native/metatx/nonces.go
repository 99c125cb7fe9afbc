package metatx

import (
	"errors"
	"fmt"
	"math"

	"github.com/ethereum/go-ethereum/common"
)

type nonceState interface {
	KVGet(key []byte, out interface{}) (bool, error)
	KVPut(key []byte, value interface{}) error
}

var (
	noncePrefix = []byte("metatx/nonce/")

	errNoncesUninitialised = errors.New("metatx: nonce store not initialised")
	errNonceOverflow       = errors.New("metatx: nonce overflow")
)

// Nonces tracks the strictly sequential signing nonce of every signer.
type Nonces struct {
	state nonceState
}

// NewNonces constructs a nonce store over state.
func NewNonces(state nonceState) *Nonces {
	return &Nonces{state: state}
}

func nonceKey(addr common.Address) []byte {
	buf := make([]byte, 0, len(noncePrefix)+common.AddressLength)
	buf = append(buf, noncePrefix...)
	return append(buf, addr.Bytes()...)
}

// Nonce returns the only nonce value currently accepted for signer.
func (n *Nonces) Nonce(signer common.Address) (uint64, error) {
	if n == nil || n.state == nil {
		return 0, errNoncesUninitialised
	}
	var nonce uint64
	if _, err := n.state.KVGet(nonceKey(signer), &nonce); err != nil {
		return 0, fmt.Errorf("metatx: load nonce: %w", err)
	}
	return nonce, nil
}

// Use returns the current nonce of signer and advances it by one.
func (n *Nonces) Use(signer common.Address) (uint64, error) {
	nonce, err := n.Nonce(signer)
	if err != nil {
		return 0, err
	}
	if nonce == math.MaxUint64 {
		return 0, errNonceOverflow
	}
	if err := n.state.KVPut(nonceKey(signer), nonce+1); err != nil {
		return 0, fmt.Errorf("metatx: store nonce: %w", err)
	}
	return nonce, nil
}
