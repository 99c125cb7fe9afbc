package ledger

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// ReceivedMagic is the selector of onERC721Received(address,address,uint256,bytes)
// that a contract recipient must echo back to accept a token.
var ReceivedMagic = [4]byte{0x15, 0x0b, 0x7a, 0x02}

// Receivers exposes the recipient-side capabilities the ledger needs for safe
// transfers. Accounts without code are never called back.
type Receivers interface {
	IsContract(addr common.Address) bool
	OnERC721Received(to, operator, from common.Address, tokenID uint256.Int, data []byte) ([4]byte, error)
}

// TokenData is the per-token record: the current owner and the immutable
// time the token was minted (unix seconds).
type TokenData struct {
	Owner         common.Address
	MintTimestamp uint64
}

// TokenRecord is the stored form of TokenData; decode proven state values
// into it.
type TokenRecord struct {
	Owner         [20]byte
	MintTimestamp uint64
}

func (s TokenRecord) TokenData() TokenData {
	return TokenData{Owner: common.Address(s.Owner), MintTimestamp: s.MintTimestamp}
}
