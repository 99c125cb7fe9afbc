package core

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	hubErrors "graphhub/core/errors"
	"graphhub/core/types"
)

// CreateProfile mints a new profile to p.To. The caller must be a
// whitelisted profile creator.
func (h *Hub) CreateProfile(sender common.Address, p types.CreateProfileParams) (uint256.Int, error) {
	receipt, err := h.execute("createProfile", func() (*uint256.Int, error) {
		return idResult(h.createProfile(sender, p))
	})
	return resultID(receipt), err
}

func (h *Hub) createProfile(sender common.Address, p types.CreateProfileParams) (uint256.Int, error) {
	if err := h.requireNotPaused(); err != nil {
		return uint256.Int{}, err
	}
	ok, err := h.protocol.IsProfileCreatorWhitelisted(sender)
	if err != nil {
		return uint256.Int{}, err
	}
	if !ok {
		return uint256.Int{}, hubErrors.ErrNotWhitelisted
	}
	id, err := h.profileData.NextID()
	if err != nil {
		return uint256.Int{}, err
	}
	if err := h.profiles.Mint(p.To, id); err != nil {
		return uint256.Int{}, err
	}
	stamp, err := h.profiles.MintTimestamp(id)
	if err != nil {
		return uint256.Int{}, err
	}
	if err := h.profileData.Create(id, sender, p, stamp); err != nil {
		return uint256.Int{}, err
	}
	return id, nil
}

// SetProfileMetadataURI sets the metadata URI of a profile. The sender must be
// the owner or an approved delegated executor.
func (h *Hub) SetProfileMetadataURI(sender common.Address, p types.SetProfileMetadataURIParams) error {
	_, err := h.execute("setProfileMetadataURI", func() (*uint256.Int, error) {
		return nil, h.setProfileMetadataURI(sender, p)
	})
	return err
}

// SetProfileMetadataURIWithSig is SetProfileMetadataURI with the signer as executor.
func (h *Hub) SetProfileMetadataURIWithSig(p types.SetProfileMetadataURIParams, sig types.EIP712Signature) error {
	_, err := h.execute("setProfileMetadataURIWithSig", func() (*uint256.Int, error) {
		if err := gatedSig(h.requireNotPaused, h.validator.ValidateSetProfileMetadataURI, p, sig); err != nil {
			return nil, err
		}
		return nil, h.setProfileMetadataURI(sig.Signer, p)
	})
	return err
}

func (h *Hub) setProfileMetadataURI(executor common.Address, p types.SetProfileMetadataURIParams) error {
	if err := h.requireNotPaused(); err != nil {
		return err
	}
	if err := h.requireOwnerOrExecutor(p.ProfileID, executor); err != nil {
		return err
	}
	return h.profileData.SetMetadataURI(p.ProfileID, p.MetadataURI)
}

// SetFollowModule sets the follow module of a profile and its init data.
func (h *Hub) SetFollowModule(sender common.Address, p types.SetFollowModuleParams) error {
	_, err := h.execute("setFollowModule", func() (*uint256.Int, error) {
		return nil, h.setFollowModule(sender, p)
	})
	return err
}

// SetFollowModuleWithSig is SetFollowModule with the signer as executor.
func (h *Hub) SetFollowModuleWithSig(p types.SetFollowModuleParams, sig types.EIP712Signature) error {
	_, err := h.execute("setFollowModuleWithSig", func() (*uint256.Int, error) {
		if err := gatedSig(h.requireNotPaused, h.validator.ValidateSetFollowModule, p, sig); err != nil {
			return nil, err
		}
		return nil, h.setFollowModule(sig.Signer, p)
	})
	return err
}

func (h *Hub) setFollowModule(executor common.Address, p types.SetFollowModuleParams) error {
	if err := h.requireNotPaused(); err != nil {
		return err
	}
	if err := h.requireOwnerOrExecutor(p.ProfileID, executor); err != nil {
		return err
	}
	return h.profileData.SetFollowModule(p.ProfileID, p.FollowModule, p.FollowModuleInitData)
}

// SetProfileImageURI sets the image URI of a profile.
func (h *Hub) SetProfileImageURI(sender common.Address, p types.SetProfileImageURIParams) error {
	_, err := h.execute("setProfileImageURI", func() (*uint256.Int, error) {
		return nil, h.setProfileImageURI(sender, p)
	})
	return err
}

// SetProfileImageURIWithSig is SetProfileImageURI with the signer as executor.
func (h *Hub) SetProfileImageURIWithSig(p types.SetProfileImageURIParams, sig types.EIP712Signature) error {
	_, err := h.execute("setProfileImageURIWithSig", func() (*uint256.Int, error) {
		if err := gatedSig(h.requireNotPaused, h.validator.ValidateSetProfileImageURI, p, sig); err != nil {
			return nil, err
		}
		return nil, h.setProfileImageURI(sig.Signer, p)
	})
	return err
}

func (h *Hub) setProfileImageURI(executor common.Address, p types.SetProfileImageURIParams) error {
	if err := h.requireNotPaused(); err != nil {
		return err
	}
	if err := h.requireOwnerOrExecutor(p.ProfileID, executor); err != nil {
		return err
	}
	return h.profileData.SetImageURI(p.ProfileID, p.ImageURI)
}

// SetFollowNFTURI sets the follow NFT URI of a profile.
func (h *Hub) SetFollowNFTURI(sender common.Address, p types.SetFollowNFTURIParams) error {
	_, err := h.execute("setFollowNFTURI", func() (*uint256.Int, error) {
		return nil, h.setFollowNFTURI(sender, p)
	})
	return err
}

// SetFollowNFTURIWithSig is SetFollowNFTURI with the signer as executor.
func (h *Hub) SetFollowNFTURIWithSig(p types.SetFollowNFTURIParams, sig types.EIP712Signature) error {
	_, err := h.execute("setFollowNFTURIWithSig", func() (*uint256.Int, error) {
		if err := gatedSig(h.requireNotPaused, h.validator.ValidateSetFollowNFTURI, p, sig); err != nil {
			return nil, err
		}
		return nil, h.setFollowNFTURI(sig.Signer, p)
	})
	return err
}

func (h *Hub) setFollowNFTURI(executor common.Address, p types.SetFollowNFTURIParams) error {
	if err := h.requireNotPaused(); err != nil {
		return err
	}
	if err := h.requireOwnerOrExecutor(p.ProfileID, executor); err != nil {
		return err
	}
	return h.profileData.SetFollowNFTURI(p.ProfileID, p.FollowNFTURI)
}

// ChangeDelegatedExecutorsConfig is restricted to the profile owner so an
// executor can never widen its own rights.
func (h *Hub) ChangeDelegatedExecutorsConfig(sender common.Address, p types.ChangeDelegatedExecutorsConfigParams) error {
	_, err := h.execute("changeDelegatedExecutorsConfig", func() (*uint256.Int, error) {
		return nil, h.changeDelegatedExecutorsConfig(sender, p)
	})
	return err
}

// ChangeDelegatedExecutorsConfigWithSig is ChangeDelegatedExecutorsConfig signed
// by the profile owner.
func (h *Hub) ChangeDelegatedExecutorsConfigWithSig(p types.ChangeDelegatedExecutorsConfigParams, sig types.EIP712Signature) error {
	_, err := h.execute("changeDelegatedExecutorsConfigWithSig", func() (*uint256.Int, error) {
		if err := gatedSig(h.requireNotPaused, h.validator.ValidateChangeDelegatedExecutorsConfig, p, sig); err != nil {
			return nil, err
		}
		return nil, h.changeDelegatedExecutorsConfig(sig.Signer, p)
	})
	return err
}

func (h *Hub) changeDelegatedExecutorsConfig(executor common.Address, p types.ChangeDelegatedExecutorsConfigParams) error {
	if err := h.requireNotPaused(); err != nil {
		return err
	}
	if err := h.requireOwner(p.DelegatorProfileID, executor); err != nil {
		return err
	}
	_, err := h.delegation.ChangeConfig(p.DelegatorProfileID, p.DelegatedExecutors, p.Approvals, p.ConfigNumber, p.SwitchToGivenConfig)
	return err
}

// TransferProfile moves a profile and opens a fresh delegation generation
// so the new owner inherits no executors.
func (h *Hub) TransferProfile(sender common.Address, p types.TransferParams) error {
	_, err := h.execute("transferProfile", func() (*uint256.Int, error) {
		return nil, h.transferProfile(sender, p, false)
	})
	return err
}

// TransferProfileKeepingDelegates moves a profile and leaves its delegated
// executor configuration in place.
func (h *Hub) TransferProfileKeepingDelegates(sender common.Address, p types.TransferParams) error {
	_, err := h.execute("transferProfileKeepingDelegates", func() (*uint256.Int, error) {
		return nil, h.transferProfile(sender, p, true)
	})
	return err
}

func (h *Hub) transferProfile(sender common.Address, p types.TransferParams, keepDelegates bool) error {
	if err := h.requireNotPaused(); err != nil {
		return err
	}
	if err := h.profiles.SafeTransferFrom(sender, p.From, p.To, p.TokenID, p.Data); err != nil {
		return err
	}
	if keepDelegates {
		return nil
	}
	_, err := h.delegation.SwitchToFreshConfig(p.TokenID)
	return err
}

// Burn destroys a profile. The sender must own it or be approved for it.
func (h *Hub) Burn(sender common.Address, p types.BurnParams) error {
	_, err := h.execute("burn", func() (*uint256.Int, error) {
		return nil, h.burn(sender, p)
	})
	return err
}

// BurnWithSig is Burn with the signer as executor.
func (h *Hub) BurnWithSig(p types.BurnParams, sig types.EIP712Signature) error {
	_, err := h.execute("burnWithSig", func() (*uint256.Int, error) {
		if err := gatedSig(h.requireNotPaused, h.validator.ValidateBurn, p, sig); err != nil {
			return nil, err
		}
		return nil, h.burn(sig.Signer, p)
	})
	return err
}

func (h *Hub) burn(executor common.Address, p types.BurnParams) error {
	if err := h.requireNotPaused(); err != nil {
		return err
	}
	ok, err := h.profiles.IsApprovedOrOwner(executor, p.TokenID)
	if err != nil {
		return err
	}
	if !ok {
		return hubErrors.ErrNotOwnerOrApproved
	}
	if err := h.profiles.Burn(p.TokenID); err != nil {
		return err
	}
	return h.profileData.Delete(p.TokenID)
}

// Approve sets the single approved spender of a profile.
func (h *Hub) Approve(sender common.Address, p types.ApproveParams) error {
	_, err := h.execute("approve", func() (*uint256.Int, error) {
		return nil, h.approve(sender, p)
	})
	return err
}

func (h *Hub) approve(sender common.Address, p types.ApproveParams) error {
	if err := h.requireNotPaused(); err != nil {
		return err
	}
	return h.profiles.Approve(sender, p.To, p.TokenID)
}

// SetApprovalForAll grants or revokes an operator over all of the sender's profiles.
func (h *Hub) SetApprovalForAll(sender common.Address, p types.SetApprovalForAllParams) error {
	_, err := h.execute("setApprovalForAll", func() (*uint256.Int, error) {
		return nil, h.setApprovalForAll(sender, p)
	})
	return err
}

func (h *Hub) setApprovalForAll(sender common.Address, p types.SetApprovalForAllParams) error {
	if err := h.requireNotPaused(); err != nil {
		return err
	}
	return h.profiles.SetApprovalForAll(sender, p.Operator, p.Approved)
}

// Permit approves p.Spender for a profile on the strength of the owner's
// signature.
func (h *Hub) Permit(p types.PermitParams, sig types.EIP712Signature) error {
	_, err := h.execute("permit", func() (*uint256.Int, error) {
		return nil, h.permit(p, sig)
	})
	return err
}

func (h *Hub) permit(p types.PermitParams, sig types.EIP712Signature) error {
	if err := gatedSig(h.requireNotPaused, h.validator.ValidatePermit, p, sig); err != nil {
		return err
	}
	owner, err := h.profiles.OwnerOf(p.TokenID)
	if err != nil {
		return err
	}
	if sig.Signer != owner {
		return hubErrors.ErrSignatureInvalid
	}
	return h.profiles.Approve(owner, p.Spender, p.TokenID)
}

// PermitForAll sets an operator approval on the strength of the owner's
// signature.
func (h *Hub) PermitForAll(p types.PermitForAllParams, sig types.EIP712Signature) error {
	_, err := h.execute("permitForAll", func() (*uint256.Int, error) {
		return nil, h.permitForAll(p, sig)
	})
	return err
}

func (h *Hub) permitForAll(p types.PermitForAllParams, sig types.EIP712Signature) error {
	if err := gatedSig(h.requireNotPaused, h.validator.ValidatePermitForAll, p, sig); err != nil {
		return err
	}
	if sig.Signer != p.Owner {
		return hubErrors.ErrSignatureInvalid
	}
	return h.profiles.SetApprovalForAll(p.Owner, p.Operator, p.Approved)
}
