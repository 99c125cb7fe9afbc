package core

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"graphhub/native/protocol"
)

// Governance actions are never gated by the protocol state; otherwise a
// paused hub could not be unpaused.

// SetState moves the circuit breaker. Governance may pick any state; the
// emergency admin may only pause further.
func (h *Hub) SetState(sender common.Address, next protocol.State) error {
	_, err := h.execute("setState", func() (*uint256.Int, error) {
		return nil, h.protocol.SetState(sender, next)
	})
	return err
}

// SetGovernance hands the governance role to next.
func (h *Hub) SetGovernance(sender, next common.Address) error {
	_, err := h.execute("setGovernance", func() (*uint256.Int, error) {
		return nil, h.protocol.SetGovernance(sender, next)
	})
	return err
}

// SetEmergencyAdmin sets or, with the zero address, revokes the emergency admin.
func (h *Hub) SetEmergencyAdmin(sender, admin common.Address) error {
	_, err := h.execute("setEmergencyAdmin", func() (*uint256.Int, error) {
		return nil, h.protocol.SetEmergencyAdmin(sender, admin)
	})
	return err
}

// WhitelistProfileCreator allows or forbids creator to call CreateProfile.
func (h *Hub) WhitelistProfileCreator(sender, creator common.Address, whitelist bool) error {
	_, err := h.execute("whitelistProfileCreator", func() (*uint256.Int, error) {
		return nil, h.protocol.WhitelistProfileCreator(sender, creator, whitelist)
	})
	return err
}
