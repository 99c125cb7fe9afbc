package metatx

import (
	"crypto/ecdsa"

	"github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	hubErrors "graphhub/core/errors"
)

// ERC1271Magic is the value isValidSignature(bytes32,bytes) returns for a
// signature the contract accepts.
var ERC1271Magic = [4]byte{0x16, 0x26, 0xba, 0x7e}

// ContractSigners exposes smart-contract accounts: whether an address holds
// code and its own signature check.
type ContractSigners interface {
	IsContract(addr common.Address) bool
	IsValidSignature(contract common.Address, digest common.Hash, signature []byte) ([4]byte, error)
}

// SignerStrategy verifies that signature over digest was produced by signer.
type SignerStrategy interface {
	Verify(digest common.Hash, signer common.Address, signature []byte) error
}

// ECDSARecovery recovers the secp256k1 public key from the signature and
// compares its address with the claimed signer.
type ECDSARecovery struct{}

// Verify implements SignerStrategy.
func (ECDSARecovery) Verify(digest common.Hash, signer common.Address, signature []byte) error {
	if len(signature) != ethcrypto.SignatureLength {
		return hubErrors.ErrSignatureInvalid
	}
	sig := make([]byte, ethcrypto.SignatureLength)
	copy(sig, signature)
	if sig[64] >= 27 {
		sig[64] -= 27
	}
	if sig[64] > 1 {
		return hubErrors.ErrSignatureInvalid
	}
	pub, err := ethcrypto.SigToPub(digest.Bytes(), sig)
	if err != nil {
		return hubErrors.ErrSignatureInvalid
	}
	recovered := ethcrypto.PubkeyToAddress(*pub)
	if recovered == (common.Address{}) || recovered != signer {
		return hubErrors.ErrSignatureInvalid
	}
	return nil
}

// ContractCallback delegates validation to the signer contract.
type ContractCallback struct {
	Contracts ContractSigners
}

// Verify implements SignerStrategy.
func (c ContractCallback) Verify(digest common.Hash, signer common.Address, signature []byte) error {
	if c.Contracts == nil {
		return hubErrors.ErrSignatureInvalid
	}
	magic, err := c.Contracts.IsValidSignature(signer, digest, signature)
	if err != nil || magic != ERC1271Magic {
		return hubErrors.ErrSignatureInvalid
	}
	return nil
}

// SignerResolver picks the verification strategy for a signer.
type SignerResolver struct {
	contracts ContractSigners
}

// NewSignerResolver constructs a resolver. A nil contracts inspector treats
// every signer as an externally owned account.
func NewSignerResolver(contracts ContractSigners) *SignerResolver {
	return &SignerResolver{contracts: contracts}
}

// For returns the strategy that applies to signer.
func (r *SignerResolver) For(signer common.Address) SignerStrategy {
	if r != nil && r.contracts != nil && r.contracts.IsContract(signer) {
		return ContractCallback{Contracts: r.contracts}
	}
	return ECDSARecovery{}
}

// Sign produces the 65-byte r||s||v signature over digest with v in {27,28}.
func Sign(digest common.Hash, key *ecdsa.PrivateKey) ([]byte, error) {
	sig, err := ethcrypto.Sign(digest.Bytes(), key)
	if err != nil {
		return nil, err
	}
	sig[64] += 27
	return sig, nil
}
