package types

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
)

// TxType selects the hub entry point a transaction dispatches to.
type TxType byte

const (
	TxTypeCreateProfile                   TxType = 0x01
	TxTypeSetProfileMetadataURI           TxType = 0x02
	TxTypeSetFollowModule                 TxType = 0x03
	TxTypeChangeDelegatedExecutorsConfig  TxType = 0x04
	TxTypeSetProfileImageURI              TxType = 0x05
	TxTypeSetFollowNFTURI                 TxType = 0x06
	TxTypePost                            TxType = 0x07
	TxTypeComment                         TxType = 0x08
	TxTypeMirror                          TxType = 0x09
	TxTypeQuote                           TxType = 0x0a
	TxTypeBurn                            TxType = 0x0b
	TxTypeFollow                          TxType = 0x0c
	TxTypeUnfollow                        TxType = 0x0d
	TxTypeSetBlockStatus                  TxType = 0x0e
	TxTypeCollect                         TxType = 0x0f
	TxTypeTransferProfile                 TxType = 0x10
	TxTypeTransferProfileKeepingDelegates TxType = 0x11
	TxTypeApprove                         TxType = 0x12
	TxTypeSetApprovalForAll               TxType = 0x13
	TxTypePermit                          TxType = 0x14
	TxTypePermitForAll                    TxType = 0x15
	TxTypeSetState                        TxType = 0x20
	TxTypeSetGovernance                   TxType = 0x21
	TxTypeSetEmergencyAdmin               TxType = 0x22
	TxTypeWhitelistProfileCreator         TxType = 0x23
)

var txTypeNames = map[TxType]string{
	TxTypeCreateProfile:                   "createProfile",
	TxTypeSetProfileMetadataURI:           "setProfileMetadataURI",
	TxTypeSetFollowModule:                 "setFollowModule",
	TxTypeChangeDelegatedExecutorsConfig:  "changeDelegatedExecutorsConfig",
	TxTypeSetProfileImageURI:              "setProfileImageURI",
	TxTypeSetFollowNFTURI:                 "setFollowNFTURI",
	TxTypePost:                            "post",
	TxTypeComment:                         "comment",
	TxTypeMirror:                          "mirror",
	TxTypeQuote:                           "quote",
	TxTypeBurn:                            "burn",
	TxTypeFollow:                          "follow",
	TxTypeUnfollow:                        "unfollow",
	TxTypeSetBlockStatus:                  "setBlockStatus",
	TxTypeCollect:                         "collect",
	TxTypeTransferProfile:                 "transferProfile",
	TxTypeTransferProfileKeepingDelegates: "transferProfileKeepingDelegates",
	TxTypeApprove:                         "approve",
	TxTypeSetApprovalForAll:               "setApprovalForAll",
	TxTypePermit:                          "permit",
	TxTypePermitForAll:                    "permitForAll",
	TxTypeSetState:                        "setState",
	TxTypeSetGovernance:                   "setGovernance",
	TxTypeSetEmergencyAdmin:               "setEmergencyAdmin",
	TxTypeWhitelistProfileCreator:         "whitelistProfileCreator",
}

// String returns the entry point name for the type.
func (t TxType) String() string {
	if name, ok := txTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("txType(0x%02x)", byte(t))
}

// ParseTxType resolves an entry point name to its type.
func ParseTxType(name string) (TxType, bool) {
	for t, n := range txTypeNames {
		if n == name {
			return t, true
		}
	}
	return 0, false
}

// Transaction is a direct call into the hub signed by its sender. The
// recovered signer becomes the caller of the entry point selected by Type;
// Data carries the RLP-encoded call parameters.
type Transaction struct {
	Type    TxType   `json:"type"`
	Nonce   uint64   `json:"nonce"`
	ChainID *big.Int `json:"chainId"`
	Data    []byte   `json:"data"`

	R, S, V *big.Int `json:"-"`

	from *common.Address
}

var errUnsigned = errors.New("tx: missing signature")

// Hash returns keccak256(rlp(type, nonce, chainId, data)), the digest the
// sender signs.
func (tx *Transaction) Hash() (common.Hash, error) {
	chainID := tx.ChainID
	if chainID == nil {
		chainID = new(big.Int)
	}
	encoded, err := rlp.EncodeToBytes([]interface{}{uint8(tx.Type), tx.Nonce, chainID, tx.Data})
	if err != nil {
		return common.Hash{}, err
	}
	return crypto.Keccak256Hash(encoded), nil
}

// Sign fills in the signature fields using privKey.
func (tx *Transaction) Sign(privKey *ecdsa.PrivateKey) error {
	hash, err := tx.Hash()
	if err != nil {
		return err
	}
	sig, err := crypto.Sign(hash.Bytes(), privKey)
	if err != nil {
		return err
	}
	tx.R = new(big.Int).SetBytes(sig[:32])
	tx.S = new(big.Int).SetBytes(sig[32:64])
	tx.V = new(big.Int).SetBytes([]byte{sig[64] + 27})
	tx.from = nil
	return nil
}

// SetSignature fills in the signature fields from a 65-byte r||s||v value
// with v in {0,1,27,28}.
func (tx *Transaction) SetSignature(sig []byte) error {
	if len(sig) != 65 {
		return fmt.Errorf("tx: signature must be 65 bytes, got %d", len(sig))
	}
	v := sig[64]
	if v < 27 {
		v += 27
	}
	if v != 27 && v != 28 {
		return fmt.Errorf("tx: invalid recovery id %d", sig[64])
	}
	tx.R = new(big.Int).SetBytes(sig[:32])
	tx.S = new(big.Int).SetBytes(sig[32:64])
	tx.V = new(big.Int).SetUint64(uint64(v))
	tx.from = nil
	return nil
}

// Signature returns the 65-byte r||s||v form with v in {0,1}.
func (tx *Transaction) Signature() ([]byte, error) {
	if tx.R == nil || tx.S == nil || tx.V == nil {
		return nil, errUnsigned
	}
	if tx.R.BitLen() > 256 || tx.S.BitLen() > 256 {
		return nil, fmt.Errorf("tx: signature component overflow")
	}
	v := tx.V.Uint64()
	if v >= 27 {
		v -= 27
	}
	if v > 1 {
		return nil, fmt.Errorf("tx: invalid recovery id %d", tx.V.Uint64())
	}
	sig := make([]byte, 65)
	tx.R.FillBytes(sig[:32])
	tx.S.FillBytes(sig[32:64])
	sig[64] = byte(v)
	return sig, nil
}

// From recovers the sender address from the signature.
func (tx *Transaction) From() (common.Address, error) {
	if tx.from != nil {
		return *tx.from, nil
	}
	hash, err := tx.Hash()
	if err != nil {
		return common.Address{}, err
	}
	sig, err := tx.Signature()
	if err != nil {
		return common.Address{}, err
	}
	pubKey, err := crypto.SigToPub(hash.Bytes(), sig)
	if err != nil {
		return common.Address{}, err
	}
	from := crypto.PubkeyToAddress(*pubKey)
	tx.from = &from
	return from, nil
}
