package core

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	hubErrors "graphhub/core/errors"
	"graphhub/core/types"
	"graphhub/native/protocol"
)

// ApplyTransaction verifies a signed direct call and dispatches it to the
// entry point named by tx.Type. Nonce bookkeeping and the entry point run in
// the same atomic transaction, so a rejected call leaves the sender's nonce
// where it was.
func (h *Hub) ApplyTransaction(tx *types.Transaction) (*Receipt, error) {
	if tx == nil {
		return nil, fmt.Errorf("hub: nil transaction")
	}
	sender, err := tx.From()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", hubErrors.ErrSignatureInvalid, err)
	}
	chainID := h.validator.Domain().ChainID
	if tx.ChainID == nil || chainID.ToBig().Cmp(tx.ChainID) != 0 {
		return nil, fmt.Errorf("%w: chain id", hubErrors.ErrInvalidParameter)
	}
	return h.execute(tx.Type.String(), func() (*uint256.Int, error) {
		expected, err := h.state.AccountNonce(sender)
		if err != nil {
			return nil, err
		}
		if tx.Nonce != expected {
			return nil, fmt.Errorf("%w: have %d, want %d", hubErrors.ErrNonceMismatch, tx.Nonce, expected)
		}
		if err := h.state.IncrementAccountNonce(sender); err != nil {
			return nil, err
		}
		return h.dispatch(sender, tx.Type, tx.Data)
	})
}

// AccountNonce returns the next nonce ApplyTransaction expects from addr.
func (h *Hub) AccountNonce(addr common.Address) (uint64, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.state.AccountNonce(addr)
}

// call decodes a Call[T] payload and resolves the executor. A set signature
// is validated with validate and makes the signer the executor; a nil
// validate means the entry point has no signed variant.
func call[T any](data []byte, sender common.Address, validate func(T, types.EIP712Signature) error) (T, common.Address, error) {
	decoded, err := types.DecodeCall[T](data)
	if err != nil {
		var zero T
		return zero, common.Address{}, fmt.Errorf("%w: decode payload: %v", hubErrors.ErrInvalidParameter, err)
	}
	if !decoded.Sig.IsSet() {
		return decoded.Params, sender, nil
	}
	if validate == nil {
		return decoded.Params, common.Address{}, fmt.Errorf("%w: signature not accepted", hubErrors.ErrInvalidParameter)
	}
	if err := validate(decoded.Params, decoded.Sig); err != nil {
		return decoded.Params, common.Address{}, err
	}
	return decoded.Params, decoded.Sig.Signer, nil
}

func noResult(err error) (*uint256.Int, error) { return nil, err }

func (h *Hub) dispatch(sender common.Address, txType types.TxType, data []byte) (*uint256.Int, error) {
	if err := h.txGate(txType); err != nil {
		return nil, err
	}
	v := h.validator
	switch txType {
	case types.TxTypeCreateProfile:
		p, exec, err := call[types.CreateProfileParams](data, sender, nil)
		if err != nil {
			return nil, err
		}
		return idResult(h.createProfile(exec, p))
	case types.TxTypeSetProfileMetadataURI:
		p, exec, err := call(data, sender, v.ValidateSetProfileMetadataURI)
		if err != nil {
			return nil, err
		}
		return noResult(h.setProfileMetadataURI(exec, p))
	case types.TxTypeSetFollowModule:
		p, exec, err := call(data, sender, v.ValidateSetFollowModule)
		if err != nil {
			return nil, err
		}
		return noResult(h.setFollowModule(exec, p))
	case types.TxTypeChangeDelegatedExecutorsConfig:
		p, exec, err := call(data, sender, v.ValidateChangeDelegatedExecutorsConfig)
		if err != nil {
			return nil, err
		}
		return noResult(h.changeDelegatedExecutorsConfig(exec, p))
	case types.TxTypeSetProfileImageURI:
		p, exec, err := call(data, sender, v.ValidateSetProfileImageURI)
		if err != nil {
			return nil, err
		}
		return noResult(h.setProfileImageURI(exec, p))
	case types.TxTypeSetFollowNFTURI:
		p, exec, err := call(data, sender, v.ValidateSetFollowNFTURI)
		if err != nil {
			return nil, err
		}
		return noResult(h.setFollowNFTURI(exec, p))
	case types.TxTypePost:
		p, exec, err := call(data, sender, v.ValidatePost)
		if err != nil {
			return nil, err
		}
		return idResult(h.post(exec, p))
	case types.TxTypeComment:
		p, exec, err := call(data, sender, v.ValidateComment)
		if err != nil {
			return nil, err
		}
		return idResult(h.comment(exec, p))
	case types.TxTypeMirror:
		p, exec, err := call(data, sender, v.ValidateMirror)
		if err != nil {
			return nil, err
		}
		return idResult(h.mirror(exec, p))
	case types.TxTypeQuote:
		p, exec, err := call(data, sender, v.ValidateQuote)
		if err != nil {
			return nil, err
		}
		return idResult(h.quote(exec, p))
	case types.TxTypeBurn:
		p, exec, err := call(data, sender, v.ValidateBurn)
		if err != nil {
			return nil, err
		}
		return noResult(h.burn(exec, p))
	case types.TxTypeFollow:
		p, exec, err := call(data, sender, v.ValidateFollow)
		if err != nil {
			return nil, err
		}
		_, err = h.follow(exec, p)
		return nil, err
	case types.TxTypeUnfollow:
		p, exec, err := call(data, sender, v.ValidateUnfollow)
		if err != nil {
			return nil, err
		}
		return noResult(h.unfollow(exec, p))
	case types.TxTypeSetBlockStatus:
		p, exec, err := call(data, sender, v.ValidateSetBlockStatus)
		if err != nil {
			return nil, err
		}
		return noResult(h.setBlockStatus(exec, p))
	case types.TxTypeCollect:
		p, exec, err := call(data, sender, v.ValidateCollect)
		if err != nil {
			return nil, err
		}
		return noResult(h.collect(exec, p))
	case types.TxTypeTransferProfile, types.TxTypeTransferProfileKeepingDelegates:
		p, exec, err := call[types.TransferParams](data, sender, nil)
		if err != nil {
			return nil, err
		}
		return noResult(h.transferProfile(exec, p, txType == types.TxTypeTransferProfileKeepingDelegates))
	case types.TxTypeApprove:
		p, exec, err := call[types.ApproveParams](data, sender, nil)
		if err != nil {
			return nil, err
		}
		return noResult(h.approve(exec, p))
	case types.TxTypeSetApprovalForAll:
		p, exec, err := call[types.SetApprovalForAllParams](data, sender, nil)
		if err != nil {
			return nil, err
		}
		return noResult(h.setApprovalForAll(exec, p))
	case types.TxTypePermit:
		decoded, err := types.DecodeCall[types.PermitParams](data)
		if err != nil {
			return nil, fmt.Errorf("%w: decode payload: %v", hubErrors.ErrInvalidParameter, err)
		}
		return noResult(h.permit(decoded.Params, decoded.Sig))
	case types.TxTypePermitForAll:
		decoded, err := types.DecodeCall[types.PermitForAllParams](data)
		if err != nil {
			return nil, fmt.Errorf("%w: decode payload: %v", hubErrors.ErrInvalidParameter, err)
		}
		return noResult(h.permitForAll(decoded.Params, decoded.Sig))
	case types.TxTypeSetState:
		p, exec, err := call[types.SetStateParams](data, sender, nil)
		if err != nil {
			return nil, err
		}
		return noResult(h.protocol.SetState(exec, protocol.State(p.State)))
	case types.TxTypeSetGovernance:
		p, exec, err := call[types.AddressParams](data, sender, nil)
		if err != nil {
			return nil, err
		}
		return noResult(h.protocol.SetGovernance(exec, p.Address))
	case types.TxTypeSetEmergencyAdmin:
		p, exec, err := call[types.AddressParams](data, sender, nil)
		if err != nil {
			return nil, err
		}
		return noResult(h.protocol.SetEmergencyAdmin(exec, p.Address))
	case types.TxTypeWhitelistProfileCreator:
		p, exec, err := call[types.WhitelistProfileCreatorParams](data, sender, nil)
		if err != nil {
			return nil, err
		}
		return noResult(h.protocol.WhitelistProfileCreator(exec, p.Creator, p.Whitelist))
	default:
		return nil, fmt.Errorf("%w: unknown transaction type %s", hubErrors.ErrInvalidParameter, txType)
	}
}
