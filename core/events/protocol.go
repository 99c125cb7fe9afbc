package events

import (
	"strconv"

	"github.com/ethereum/go-ethereum/common"

	"graphhub/core/types"
)

const (
	TypeProtocolStateSet     = "protocol.state.set"
	TypeGovernanceSet        = "protocol.governance.set"
	TypeEmergencyAdminSet    = "protocol.emergency_admin.set"
	TypeProfileCreatorListed = "protocol.creator.whitelisted"
)

// ProtocolStateSet is emitted whenever the circuit breaker is written.
type ProtocolStateSet struct {
	Caller   common.Address
	Previous string
	New      string
}

// EventType implements the Event interface.
func (ProtocolStateSet) EventType() string { return TypeProtocolStateSet }

// Event converts the strongly typed event to the generic representation used by subscribers.
func (e ProtocolStateSet) Event() *types.Event {
	return &types.Event{
		Type: TypeProtocolStateSet,
		Attributes: map[string]string{
			"caller":   e.Caller.Hex(),
			"previous": e.Previous,
			"new":      e.New,
		},
	}
}

// GovernanceSet is emitted when governance is handed over.
type GovernanceSet struct {
	Caller   common.Address
	Previous common.Address
	New      common.Address
}

// EventType implements the Event interface.
func (GovernanceSet) EventType() string { return TypeGovernanceSet }

// Event converts the strongly typed event to the generic representation used by subscribers.
func (e GovernanceSet) Event() *types.Event {
	return &types.Event{
		Type: TypeGovernanceSet,
		Attributes: map[string]string{
			"caller":   e.Caller.Hex(),
			"previous": e.Previous.Hex(),
			"new":      e.New.Hex(),
		},
	}
}

// EmergencyAdminSet is emitted when governance assigns or revokes the
// emergency admin.
type EmergencyAdminSet struct {
	Caller   common.Address
	Previous common.Address
	New      common.Address
}

// EventType implements the Event interface.
func (EmergencyAdminSet) EventType() string { return TypeEmergencyAdminSet }

// Event converts the strongly typed event to the generic representation used by subscribers.
func (e EmergencyAdminSet) Event() *types.Event {
	return &types.Event{
		Type: TypeEmergencyAdminSet,
		Attributes: map[string]string{
			"caller":   e.Caller.Hex(),
			"previous": e.Previous.Hex(),
			"new":      e.New.Hex(),
		},
	}
}

// ProfileCreatorWhitelisted is emitted when a creator is added or removed.
type ProfileCreatorWhitelisted struct {
	Creator     common.Address
	Whitelisted bool
}

// EventType implements the Event interface.
func (ProfileCreatorWhitelisted) EventType() string { return TypeProfileCreatorListed }

// Event converts the strongly typed event to the generic representation used by subscribers.
func (e ProfileCreatorWhitelisted) Event() *types.Event {
	return &types.Event{
		Type: TypeProfileCreatorListed,
		Attributes: map[string]string{
			"creator":     e.Creator.Hex(),
			"whitelisted": strconv.FormatBool(e.Whitelisted),
		},
	}
}
