package events

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"graphhub/core/types"
)

const (
	// TypeTokenTransfer is emitted on mint, transfer and burn of a ledger token.
	TypeTokenTransfer = "ledger.transfer"
	// TypeTokenApproval is emitted when the single approved spender changes.
	TypeTokenApproval = "ledger.approval"
	// TypeTokenApprovalForAll is emitted when an operator approval changes.
	TypeTokenApprovalForAll = "ledger.approval_for_all"
)

// TokenTransfer mirrors the ERC-721 Transfer event. From is zero on mint and
// To is zero on burn.
type TokenTransfer struct {
	Collection string
	From       common.Address
	To         common.Address
	TokenID    uint256.Int
	Timestamp  uint64
}

// EventType implements the Event interface.
func (TokenTransfer) EventType() string { return TypeTokenTransfer }

// Event converts the strongly typed event to the generic representation used by subscribers.
func (e TokenTransfer) Event() *types.Event {
	return &types.Event{
		Type: TypeTokenTransfer,
		Attributes: map[string]string{
			"collection": e.Collection,
			"from":       e.From.Hex(),
			"to":         e.To.Hex(),
			"tokenId":    e.TokenID.Dec(),
			"timestamp":  uint256.NewInt(e.Timestamp).Dec(),
		},
	}
}

// TokenApproval mirrors the ERC-721 Approval event.
type TokenApproval struct {
	Collection string
	Owner      common.Address
	Approved   common.Address
	TokenID    uint256.Int
}

// EventType implements the Event interface.
func (TokenApproval) EventType() string { return TypeTokenApproval }

// Event converts the strongly typed event to the generic representation used by subscribers.
func (e TokenApproval) Event() *types.Event {
	return &types.Event{
		Type: TypeTokenApproval,
		Attributes: map[string]string{
			"collection": e.Collection,
			"owner":      e.Owner.Hex(),
			"approved":   e.Approved.Hex(),
			"tokenId":    e.TokenID.Dec(),
		},
	}
}

// TokenApprovalForAll mirrors the ERC-721 ApprovalForAll event.
type TokenApprovalForAll struct {
	Collection string
	Owner      common.Address
	Operator   common.Address
	Approved   bool
}

// EventType implements the Event interface.
func (TokenApprovalForAll) EventType() string { return TypeTokenApprovalForAll }

// Event converts the strongly typed event to the generic representation used by subscribers.
func (e TokenApprovalForAll) Event() *types.Event {
	approved := "false"
	if e.Approved {
		approved = "true"
	}
	return &types.Event{
		Type: TypeTokenApprovalForAll,
		Attributes: map[string]string{
			"collection": e.Collection,
			"owner":      e.Owner.Hex(),
			"operator":   e.Operator.Hex(),
			"approved":   approved,
		},
	}
}
