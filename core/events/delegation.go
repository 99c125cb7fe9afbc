package events

import (
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"graphhub/core/types"
)

const (
	TypeDelegatedExecutorsConfigChanged = "delegation.config.changed"
	TypeDelegatedExecutorsConfigApplied = "delegation.config.applied"
)

// DelegatedExecutorsConfigChanged records approvals written to one generation.
type DelegatedExecutorsConfigChanged struct {
	ProfileID    uint256.Int
	ConfigNumber uint64
	Executors    []common.Address
	Approvals    []bool
}

// EventType implements the Event interface.
func (DelegatedExecutorsConfigChanged) EventType() string {
	return TypeDelegatedExecutorsConfigChanged
}

// Event converts the strongly typed event to the generic representation used by subscribers.
func (e DelegatedExecutorsConfigChanged) Event() *types.Event {
	executors := make([]string, len(e.Executors))
	for i, addr := range e.Executors {
		executors[i] = addr.Hex()
	}
	approvals := make([]string, len(e.Approvals))
	for i, ok := range e.Approvals {
		approvals[i] = strconv.FormatBool(ok)
	}
	return &types.Event{
		Type: TypeDelegatedExecutorsConfigChanged,
		Attributes: map[string]string{
			"profileId":    e.ProfileID.Dec(),
			"configNumber": strconv.FormatUint(e.ConfigNumber, 10),
			"executors":    strings.Join(executors, ","),
			"approvals":    strings.Join(approvals, ","),
		},
	}
}

// DelegatedExecutorsConfigApplied records a change of active generation.
type DelegatedExecutorsConfigApplied struct {
	ProfileID    uint256.Int
	ConfigNumber uint64
}

// EventType implements the Event interface.
func (DelegatedExecutorsConfigApplied) EventType() string {
	return TypeDelegatedExecutorsConfigApplied
}

// Event converts the strongly typed event to the generic representation used by subscribers.
func (e DelegatedExecutorsConfigApplied) Event() *types.Event {
	return &types.Event{
		Type: TypeDelegatedExecutorsConfigApplied,
		Attributes: map[string]string{
			"profileId":    e.ProfileID.Dec(),
			"configNumber": strconv.FormatUint(e.ConfigNumber, 10),
		},
	}
}
