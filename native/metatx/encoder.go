package metatx

import (
	"github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
)

// encoder accumulates 32-byte words following the EIP-712 encodeData rules.
// Dynamic values (string, bytes, arrays) contribute the keccak256 of their
// contents; array elements are encoded one word each before hashing.
type encoder struct {
	buf []byte
}

func (e *encoder) word(w [32]byte) {
	e.buf = append(e.buf, w[:]...)
}

func (e *encoder) uint(v uint256.Int) {
	e.word(v.Bytes32())
}

func (e *encoder) uint64(v uint64) {
	e.word(uint256.NewInt(v).Bytes32())
}

func (e *encoder) address(a common.Address) {
	e.word(common.BytesToHash(a.Bytes()))
}

func (e *encoder) boolean(b bool) {
	var w [32]byte
	if b {
		w[31] = 1
	}
	e.word(w)
}

func (e *encoder) bytes(b []byte) {
	e.word(ethcrypto.Keccak256Hash(b))
}

func (e *encoder) str(s string) {
	e.bytes([]byte(s))
}

func (e *encoder) uints(values []uint256.Int) {
	var inner encoder
	for _, v := range values {
		inner.uint(v)
	}
	e.word(inner.hash())
}

func (e *encoder) addresses(values []common.Address) {
	var inner encoder
	for _, v := range values {
		inner.address(v)
	}
	e.word(inner.hash())
}

func (e *encoder) bools(values []bool) {
	var inner encoder
	for _, v := range values {
		inner.boolean(v)
	}
	e.word(inner.hash())
}

func (e *encoder) bytesArray(values [][]byte) {
	var inner encoder
	for _, v := range values {
		inner.bytes(v)
	}
	e.word(inner.hash())
}

func (e *encoder) hash() common.Hash {
	return ethcrypto.Keccak256Hash(e.buf)
}
