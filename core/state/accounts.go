package state

import (
	"fmt"
	"math"

	"github.com/ethereum/go-ethereum/common"
)

var accountNoncePrefix = []byte("account/nonce/")

func accountNonceKey(addr common.Address) []byte {
	buf := make([]byte, 0, len(accountNoncePrefix)+common.AddressLength)
	buf = append(buf, accountNoncePrefix...)
	return append(buf, addr.Bytes()...)
}

// AccountNonce returns the next expected direct-call transaction nonce for addr.
func (m *Manager) AccountNonce(addr common.Address) (uint64, error) {
	var nonce uint64
	if _, err := m.KVGet(accountNonceKey(addr), &nonce); err != nil {
		return 0, err
	}
	return nonce, nil
}

// IncrementAccountNonce advances the direct-call transaction nonce for addr.
func (m *Manager) IncrementAccountNonce(addr common.Address) error {
	nonce, err := m.AccountNonce(addr)
	if err != nil {
		return err
	}
	if nonce == math.MaxUint64 {
		return fmt.Errorf("state: account nonce overflow")
	}
	return m.KVPut(accountNonceKey(addr), nonce+1)
}
