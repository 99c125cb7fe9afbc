package metatx

import (
	"github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
)

// Domain binds signatures to one hub instance on one chain.
type Domain struct {
	Name              string
	Version           string
	ChainID           uint256.Int
	VerifyingContract common.Address
}

// KnownDeployment pairs a verifying contract with its precomputed separator.
type KnownDeployment struct {
	Address   common.Address
	Separator common.Hash
}

var domainTypeHash = ethcrypto.Keccak256Hash([]byte("EIP712Domain(string name,string version,uint256 chainId,address verifyingContract)"))

// Separator computes the EIP-712 domain separator.
func (d Domain) Separator() common.Hash {
	var enc encoder
	enc.word(domainTypeHash)
	enc.str(d.Name)
	enc.str(d.Version)
	enc.uint(d.ChainID)
	enc.address(d.VerifyingContract)
	return enc.hash()
}

// Known returns the deployment record for d with its separator precomputed.
func (d Domain) Known() KnownDeployment {
	return KnownDeployment{Address: d.VerifyingContract, Separator: d.Separator()}
}

// Digest returns keccak256(0x19 0x01 || separator || structHash), the bytes
// actually signed.
func Digest(separator, structHash common.Hash) common.Hash {
	buf := make([]byte, 0, 2+2*common.HashLength)
	buf = append(buf, 0x19, 0x01)
	buf = append(buf, separator.Bytes()...)
	buf = append(buf, structHash.Bytes()...)
	return ethcrypto.Keccak256Hash(buf)
}
