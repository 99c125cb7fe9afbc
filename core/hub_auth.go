package core

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	hubErrors "graphhub/core/errors"
	"graphhub/core/types"
	nativecommon "graphhub/native/common"
)

func (h *Hub) requireNotPaused() error {
	return nativecommon.RequireNotPaused(h.protocol)
}

func (h *Hub) requirePublishingEnabled() error {
	return nativecommon.RequireNotPublishingPaused(h.protocol)
}

// gatedSig checks the protocol state before validating a meta-transaction
// signature, so a paused hub rejects with ErrPaused or ErrPublishingPaused
// whatever the signature holds.
func gatedSig[T any](gate func() error, validate func(T, types.EIP712Signature) error, p T, sig types.EIP712Signature) error {
	if err := gate(); err != nil {
		return err
	}
	return validate(p, sig)
}

// txGate is the protocol-state check dispatch runs before decoding a payload
// or resolving its executor. Governance calls are never gated.
func (h *Hub) txGate(txType types.TxType) error {
	switch txType {
	case types.TxTypeSetState, types.TxTypeSetGovernance,
		types.TxTypeSetEmergencyAdmin, types.TxTypeWhitelistProfileCreator:
		return nil
	case types.TxTypePost, types.TxTypeComment, types.TxTypeMirror, types.TxTypeQuote:
		return h.requirePublishingEnabled()
	default:
		return h.requireNotPaused()
	}
}

// requireOwnerOrExecutor resolves the profile owner and checks that executor
// is the owner or an approved delegated executor.
func (h *Hub) requireOwnerOrExecutor(profileID uint256.Int, executor common.Address) error {
	owner, err := h.profiles.OwnerOf(profileID)
	if err != nil {
		return err
	}
	ok, err := h.delegation.IsOwnerOrExecutor(profileID, owner, executor)
	if err != nil {
		return err
	}
	if !ok {
		return hubErrors.ErrExecutorInvalid
	}
	return nil
}

func (h *Hub) requireOwner(profileID uint256.Int, executor common.Address) error {
	owner, err := h.profiles.OwnerOf(profileID)
	if err != nil {
		return err
	}
	if owner != executor {
		return hubErrors.ErrExecutorInvalid
	}
	return nil
}

func (h *Hub) requireProfileExists(profileID uint256.Int) error {
	ok, err := h.profiles.Exists(profileID)
	if err != nil {
		return err
	}
	if !ok {
		return hubErrors.ErrTokenDoesNotExist
	}
	return nil
}

func (h *Hub) requireNotBlocked(byProfileID, profileID uint256.Int) error {
	blocked, err := h.follows.IsBlocked(byProfileID, profileID)
	if err != nil {
		return err
	}
	if blocked {
		return hubErrors.ErrBlocked
	}
	return nil
}
