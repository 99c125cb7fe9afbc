package core

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"graphhub/native/delegation"
	"graphhub/native/profiles"
	"graphhub/native/protocol"
	"graphhub/native/publications"
)

// ProfileView joins a profile token with its stored settings.
type ProfileView struct {
	ID            uint256.Int
	Owner         common.Address
	MintTimestamp uint64
	PubCount      uint256.Int
	Profile       profiles.Profile
}

// Head returns the last committed root and height.
func (h *Hub) Head() (common.Hash, uint64) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.state.Root(), h.state.Height()
}

// ProtocolState returns the current circuit breaker state.
func (h *Hub) ProtocolState() (protocol.State, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.protocol.State()
}

// Governance returns the governance address.
func (h *Hub) Governance() (common.Address, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.protocol.Governance()
}

// EmergencyAdmin returns the emergency admin, zero when unset.
func (h *Hub) EmergencyAdmin() (common.Address, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.protocol.EmergencyAdmin()
}

// IsProfileCreatorWhitelisted reports whether addr may create profiles.
func (h *Hub) IsProfileCreatorWhitelisted(addr common.Address) (bool, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.protocol.IsProfileCreatorWhitelisted(addr)
}

// Profile returns the token data and settings of id.
func (h *Hub) Profile(id uint256.Int) (ProfileView, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	token, err := h.profiles.TokenData(id)
	if err != nil {
		return ProfileView{}, err
	}
	record, err := h.profileData.Get(id)
	if err != nil {
		return ProfileView{}, err
	}
	count, err := h.publications.PubCount(id)
	if err != nil {
		return ProfileView{}, err
	}
	return ProfileView{ID: id, Owner: token.Owner, MintTimestamp: token.MintTimestamp, PubCount: count, Profile: record}, nil
}

// OwnerOf returns the owner of profile id.
func (h *Hub) OwnerOf(id uint256.Int) (common.Address, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.profiles.OwnerOf(id)
}

// BalanceOf returns the number of profiles owned by owner.
func (h *Hub) BalanceOf(owner common.Address) (uint64, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.profiles.BalanceOf(owner)
}

// TotalSupply returns the number of existing profiles.
func (h *Hub) TotalSupply() (uint64, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.profiles.TotalSupply()
}

// GetApproved returns the approved spender of profile id.
func (h *Hub) GetApproved(id uint256.Int) (common.Address, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.profiles.GetApproved(id)
}

// IsApprovedForAll reports whether operator may act for all of owner's profiles.
func (h *Hub) IsApprovedForAll(owner, operator common.Address) (bool, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.profiles.IsApprovedForAll(owner, operator)
}

// Publication returns a stored publication.
func (h *Hub) Publication(profileID, pubID uint256.Int) (publications.Publication, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.publications.Get(profileID, pubID)
}

// CollectCount returns how often a publication was collected.
func (h *Hub) CollectCount(profileID, pubID uint256.Int) (uint64, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.publications.CollectCount(profileID, pubID)
}

// IsFollowing reports whether follower follows target.
func (h *Hub) IsFollowing(follower, target uint256.Int) (bool, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.follows.IsFollowing(follower, target)
}

// FollowerCount returns the number of profiles following target.
func (h *Hub) FollowerCount(target uint256.Int) (uint64, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.follows.FollowerCount(target)
}

// IsBlocked reports whether by has blocked target.
func (h *Hub) IsBlocked(by, target uint256.Int) (bool, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.follows.IsBlocked(by, target)
}

// DelegationConfig returns the delegated executor generations of a profile.
func (h *Hub) DelegationConfig(profileID uint256.Int) (delegation.Config, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.delegation.Config(profileID)
}

// IsDelegatedExecutorApproved checks executor against the active
// configuration of profileID.
func (h *Hub) IsDelegatedExecutorApproved(profileID uint256.Int, executor common.Address) (bool, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.delegation.IsExecutorApproved(profileID, executor)
}

// SigNonce returns the next meta-transaction nonce of signer.
func (h *Hub) SigNonce(signer common.Address) (uint64, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.validator.Nonces().Nonce(signer)
}

// DomainSeparator returns the separator bound into every signed payload.
func (h *Hub) DomainSeparator() common.Hash {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.validator.DomainSeparator()
}

// ChainID returns the chain id transactions and signatures are bound to.
func (h *Hub) ChainID() uint256.Int {
	return h.validator.Domain().ChainID
}
