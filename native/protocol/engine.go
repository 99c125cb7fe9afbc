package protocol

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	hubErrors "graphhub/core/errors"
	"graphhub/core/events"
)

type protocolState interface {
	KVGet(key []byte, out interface{}) (bool, error)
	KVPut(key []byte, value interface{}) error
	KVDelete(key []byte) error
}

var (
	stateKey          = []byte("protocol/state")
	governanceKey     = []byte("protocol/governance")
	emergencyAdminKey = []byte("protocol/emergency-admin")
	creatorPrefix     = []byte("protocol/creator/")

	errProtocolUninitialised = errors.New("protocol: not initialised")
)

// Engine owns the circuit breaker, the governance and emergency admin roles
// and the profile creator whitelist.
type Engine struct {
	state   protocolState
	emitter events.Emitter
}

// NewEngine constructs a protocol engine over state.
func NewEngine(state protocolState) *Engine {
	return &Engine{state: state, emitter: events.NoopEmitter{}}
}

// SetEmitter configures the event emitter used by the engine.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

func (e *Engine) ready() error {
	if e == nil || e.state == nil {
		return errProtocolUninitialised
	}
	return nil
}

// Initialise writes the genesis roles and state. Governance must be set.
func (e *Engine) Initialise(governance, emergencyAdmin common.Address, initial State) error {
	if err := e.ready(); err != nil {
		return err
	}
	if governance == (common.Address{}) {
		return fmt.Errorf("protocol: governance must be set: %w", hubErrors.ErrInvalidParameter)
	}
	if !initial.Valid() {
		return hubErrors.ErrInvalidParameter
	}
	if err := e.putAddress(governanceKey, governance); err != nil {
		return err
	}
	if err := e.putAddress(emergencyAdminKey, emergencyAdmin); err != nil {
		return err
	}
	return e.putState(initial)
}

// State returns the current protocol state. Unset state reads as Unpaused.
func (e *Engine) State() (State, error) {
	if err := e.ready(); err != nil {
		return Unpaused, err
	}
	var raw uint8
	if _, err := e.state.KVGet(stateKey, &raw); err != nil {
		return Unpaused, fmt.Errorf("protocol: load state: %w", err)
	}
	return State(raw), nil
}

func (e *Engine) putState(s State) error {
	if err := e.state.KVPut(stateKey, uint8(s)); err != nil {
		return fmt.Errorf("protocol: store state: %w", err)
	}
	return nil
}

func (e *Engine) address(key []byte) (common.Address, error) {
	if err := e.ready(); err != nil {
		return common.Address{}, err
	}
	var raw [20]byte
	if _, err := e.state.KVGet(key, &raw); err != nil {
		return common.Address{}, fmt.Errorf("protocol: load role: %w", err)
	}
	return common.Address(raw), nil
}

func (e *Engine) putAddress(key []byte, addr common.Address) error {
	if addr == (common.Address{}) {
		if err := e.state.KVDelete(key); err != nil {
			return fmt.Errorf("protocol: clear role: %w", err)
		}
		return nil
	}
	if err := e.state.KVPut(key, [20]byte(addr)); err != nil {
		return fmt.Errorf("protocol: store role: %w", err)
	}
	return nil
}

// Governance returns the governance address.
func (e *Engine) Governance() (common.Address, error) { return e.address(governanceKey) }

// EmergencyAdmin returns the emergency admin, or the zero address when unset.
func (e *Engine) EmergencyAdmin() (common.Address, error) { return e.address(emergencyAdminKey) }

func (e *Engine) requireGovernance(caller common.Address) error {
	gov, err := e.Governance()
	if err != nil {
		return err
	}
	if gov == (common.Address{}) || caller != gov {
		return hubErrors.ErrNotGovernance
	}
	return nil
}

// SetState moves the circuit breaker. Governance may pick any state; the
// emergency admin may only move to a strictly more restrictive one. An
// address holding both roles is treated as the emergency admin.
func (e *Engine) SetState(caller common.Address, next State) error {
	if !next.Valid() {
		return hubErrors.ErrInvalidParameter
	}
	gov, err := e.Governance()
	if err != nil {
		return err
	}
	admin, err := e.EmergencyAdmin()
	if err != nil {
		return err
	}
	current, err := e.State()
	if err != nil {
		return err
	}
	switch {
	case admin != (common.Address{}) && caller == admin:
		if !next.MoreRestrictiveThan(current) {
			return hubErrors.ErrEmergencyAdminCanOnlyPauseFurther
		}
	case gov != (common.Address{}) && caller == gov:
	default:
		return hubErrors.ErrNotGovernanceOrEmergencyAdmin
	}
	if err := e.putState(next); err != nil {
		return err
	}
	e.emitter.Emit(events.ProtocolStateSet{Caller: caller, Previous: current.String(), New: next.String()})
	return nil
}

// SetEmergencyAdmin assigns the emergency admin. The zero address revokes it.
func (e *Engine) SetEmergencyAdmin(caller, admin common.Address) error {
	if err := e.requireGovernance(caller); err != nil {
		return err
	}
	prev, err := e.EmergencyAdmin()
	if err != nil {
		return err
	}
	if err := e.putAddress(emergencyAdminKey, admin); err != nil {
		return err
	}
	e.emitter.Emit(events.EmergencyAdminSet{Caller: caller, Previous: prev, New: admin})
	return nil
}

// SetGovernance hands governance to next.
func (e *Engine) SetGovernance(caller, next common.Address) error {
	if err := e.requireGovernance(caller); err != nil {
		return err
	}
	if next == (common.Address{}) {
		return hubErrors.ErrInvalidParameter
	}
	if err := e.putAddress(governanceKey, next); err != nil {
		return err
	}
	e.emitter.Emit(events.GovernanceSet{Caller: caller, Previous: caller, New: next})
	return nil
}

func creatorKey(addr common.Address) []byte {
	buf := make([]byte, 0, len(creatorPrefix)+common.AddressLength)
	buf = append(buf, creatorPrefix...)
	return append(buf, addr.Bytes()...)
}

// WhitelistProfileCreator adds or removes an address allowed to create
// profiles.
func (e *Engine) WhitelistProfileCreator(caller, creator common.Address, whitelist bool) error {
	if err := e.requireGovernance(caller); err != nil {
		return err
	}
	return e.setCreator(creator, whitelist)
}

// SeedProfileCreator whitelists creator without a role check. Genesis only.
func (e *Engine) SeedProfileCreator(creator common.Address) error {
	if err := e.ready(); err != nil {
		return err
	}
	return e.setCreator(creator, true)
}

func (e *Engine) setCreator(creator common.Address, whitelist bool) error {
	if creator == (common.Address{}) {
		return hubErrors.ErrInvalidParameter
	}
	if whitelist {
		if err := e.state.KVPut(creatorKey(creator), true); err != nil {
			return fmt.Errorf("protocol: store creator: %w", err)
		}
	} else if err := e.state.KVDelete(creatorKey(creator)); err != nil {
		return fmt.Errorf("protocol: clear creator: %w", err)
	}
	e.emitter.Emit(events.ProfileCreatorWhitelisted{Creator: creator, Whitelisted: whitelist})
	return nil
}

// IsProfileCreatorWhitelisted reports whether creator may create profiles.
func (e *Engine) IsProfileCreatorWhitelisted(creator common.Address) (bool, error) {
	if err := e.ready(); err != nil {
		return false, err
	}
	var ok bool
	if _, err := e.state.KVGet(creatorKey(creator), &ok); err != nil {
		return false, fmt.Errorf("protocol: load creator: %w", err)
	}
	return ok, nil
}
