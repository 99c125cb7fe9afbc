package core

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	hubErrors "graphhub/core/errors"
	"graphhub/core/types"
)

// Follow makes the follower profile follow every listed profile and returns
// the follow token ids it now holds.
func (h *Hub) Follow(sender common.Address, p types.FollowParams) ([]uint256.Int, error) {
	var tokens []uint256.Int
	_, err := h.execute("follow", func() (*uint256.Int, error) {
		var err error
		tokens, err = h.follow(sender, p)
		return nil, err
	})
	if err != nil {
		return nil, err
	}
	return tokens, nil
}

// FollowWithSig is Follow with the signer as executor.
func (h *Hub) FollowWithSig(p types.FollowParams, sig types.EIP712Signature) ([]uint256.Int, error) {
	var tokens []uint256.Int
	_, err := h.execute("followWithSig", func() (*uint256.Int, error) {
		if err := gatedSig(h.requireNotPaused, h.validator.ValidateFollow, p, sig); err != nil {
			return nil, err
		}
		var err error
		tokens, err = h.follow(sig.Signer, p)
		return nil, err
	})
	if err != nil {
		return nil, err
	}
	return tokens, nil
}

func (h *Hub) follow(executor common.Address, p types.FollowParams) ([]uint256.Int, error) {
	if err := h.requireNotPaused(); err != nil {
		return nil, err
	}
	if len(p.IDsOfProfilesToFollow) != len(p.FollowTokenIDs) || len(p.IDsOfProfilesToFollow) != len(p.Datas) {
		return nil, hubErrors.ErrArrayMismatch
	}
	if err := h.requireOwnerOrExecutor(p.FollowerProfileID, executor); err != nil {
		return nil, err
	}
	for _, target := range p.IDsOfProfilesToFollow {
		if err := h.requireProfileExists(target); err != nil {
			return nil, err
		}
	}
	return h.follows.Follow(p.FollowerProfileID, p.IDsOfProfilesToFollow, p.FollowTokenIDs)
}

// Unfollow removes the follow edges of the unfollower profile.
func (h *Hub) Unfollow(sender common.Address, p types.UnfollowParams) error {
	_, err := h.execute("unfollow", func() (*uint256.Int, error) {
		return nil, h.unfollow(sender, p)
	})
	return err
}

// UnfollowWithSig is Unfollow with the signer as executor.
func (h *Hub) UnfollowWithSig(p types.UnfollowParams, sig types.EIP712Signature) error {
	_, err := h.execute("unfollowWithSig", func() (*uint256.Int, error) {
		if err := gatedSig(h.requireNotPaused, h.validator.ValidateUnfollow, p, sig); err != nil {
			return nil, err
		}
		return nil, h.unfollow(sig.Signer, p)
	})
	return err
}

func (h *Hub) unfollow(executor common.Address, p types.UnfollowParams) error {
	if err := h.requireNotPaused(); err != nil {
		return err
	}
	if err := h.requireOwnerOrExecutor(p.UnfollowerProfileID, executor); err != nil {
		return err
	}
	return h.follows.Unfollow(p.UnfollowerProfileID, p.IDsOfProfilesToUnfollow)
}

// SetBlockStatus blocks or unblocks profiles on behalf of ByProfileID.
// Blocking also removes any follow edge from the blocked profile.
func (h *Hub) SetBlockStatus(sender common.Address, p types.SetBlockStatusParams) error {
	_, err := h.execute("setBlockStatus", func() (*uint256.Int, error) {
		return nil, h.setBlockStatus(sender, p)
	})
	return err
}

// SetBlockStatusWithSig is SetBlockStatus with the signer as executor.
func (h *Hub) SetBlockStatusWithSig(p types.SetBlockStatusParams, sig types.EIP712Signature) error {
	_, err := h.execute("setBlockStatusWithSig", func() (*uint256.Int, error) {
		if err := gatedSig(h.requireNotPaused, h.validator.ValidateSetBlockStatus, p, sig); err != nil {
			return nil, err
		}
		return nil, h.setBlockStatus(sig.Signer, p)
	})
	return err
}

func (h *Hub) setBlockStatus(executor common.Address, p types.SetBlockStatusParams) error {
	if err := h.requireNotPaused(); err != nil {
		return err
	}
	if err := h.requireOwnerOrExecutor(p.ByProfileID, executor); err != nil {
		return err
	}
	for _, target := range p.IDsOfProfilesToSetBlockStatus {
		if err := h.requireProfileExists(target); err != nil {
			return err
		}
	}
	return h.follows.SetBlockStatus(p.ByProfileID, p.IDsOfProfilesToSetBlockStatus, p.BlockStatus)
}
