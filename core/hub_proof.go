package core

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	hubErrors "graphhub/core/errors"
	"graphhub/core/state"
	"graphhub/native/ledger"
)

// OwnershipProof binds the owner record of a profile token to a committed
// state root. Anyone holding the root can check it with VerifyOwnership.
type OwnershipProof struct {
	Root    common.Hash
	Height  uint64
	TokenID uint256.Int
	Token   ledger.TokenData
	Proof   [][]byte
}

// ProveOwnership returns a Merkle proof of the current owner of profile id.
func (h *Hub) ProveOwnership(id uint256.Int) (OwnershipProof, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	token, err := h.profiles.TokenData(id)
	if err != nil {
		return OwnershipProof{}, err
	}
	proof, err := h.state.Prove(ledger.TokenKey(ProfileCollection, id))
	if err != nil {
		return OwnershipProof{}, fmt.Errorf("hub: prove ownership: %w", err)
	}
	return OwnershipProof{
		Root:    h.state.Root(),
		Height:  h.state.Height(),
		TokenID: id,
		Token:   token,
		Proof:   proof,
	}, nil
}

// VerifyOwnership checks p against p.Root and returns the proven token data.
// It fails if the proof is malformed, proves absence, or disagrees with the
// token data carried in p.
func VerifyOwnership(p OwnershipProof) (ledger.TokenData, error) {
	var record ledger.TokenRecord
	ok, err := state.VerifyProof(p.Root, ledger.TokenKey(ProfileCollection, p.TokenID), p.Proof, &record)
	if err != nil {
		return ledger.TokenData{}, err
	}
	if !ok {
		return ledger.TokenData{}, hubErrors.ErrTokenDoesNotExist
	}
	proven := record.TokenData()
	if proven != p.Token {
		return ledger.TokenData{}, fmt.Errorf("hub: proof disagrees with claimed owner %s", p.Token.Owner.Hex())
	}
	return proven, nil
}
