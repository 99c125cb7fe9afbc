package ledger

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

const ledgerPrefix = "ledger/"

func (l *Ledger) key(kind string, parts ...[]byte) []byte {
	return collectionKey(l.collection, kind, parts...)
}

func collectionKey(collection, kind string, parts ...[]byte) []byte {
	size := len(ledgerPrefix) + len(collection) + 1 + len(kind)
	for _, p := range parts {
		size += 1 + len(p)
	}
	buf := make([]byte, 0, size)
	buf = append(buf, ledgerPrefix...)
	buf = append(buf, collection...)
	buf = append(buf, '/')
	buf = append(buf, kind...)
	for _, p := range parts {
		buf = append(buf, '/')
		buf = append(buf, p...)
	}
	return buf
}

func idBytes(id uint256.Int) []byte {
	word := id.Bytes32()
	return word[:]
}

// TokenKey is the state key holding the owner record of id in collection, for
// callers building or checking Merkle proofs without a Ledger at hand.
func TokenKey(collection string, id uint256.Int) []byte {
	return collectionKey(normaliseCollection(collection), "token", idBytes(id))
}

func (l *Ledger) tokenKey(id uint256.Int) []byte { return l.key("token", idBytes(id)) }

// TokenKey is the state key holding the owner record of id.
func (l *Ledger) TokenKey(id uint256.Int) []byte { return l.tokenKey(id) }

func (l *Ledger) approvalKey(id uint256.Int) []byte { return l.key("approval", idBytes(id)) }
func (l *Ledger) balanceKey(owner common.Address) []byte {
	return l.key("balance", owner.Bytes())
}
func (l *Ledger) operatorKey(owner, operator common.Address) []byte {
	return l.key("operator", owner.Bytes(), operator.Bytes())
}
func (l *Ledger) supplyKey() []byte { return l.key("supply") }
