package delegation

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	hubErrors "graphhub/core/errors"
	"graphhub/core/events"
)

type delegationState interface {
	KVGet(key []byte, out interface{}) (bool, error)
	KVPut(key []byte, value interface{}) error
}

var errDelegationUninitialised = errors.New("delegation: not initialised")

// Config is the per-profile delegated executor configuration. Approvals are
// stored per generation so moving ConfigNumber revokes everything approved
// under the previous generation without touching those entries.
type Config struct {
	ConfigNumber       uint64
	PrevConfigNumber   uint64
	MaxConfigNumberSet uint64
}

// Engine manages delegated executors of profiles.
type Engine struct {
	state   delegationState
	emitter events.Emitter
}

// NewEngine constructs a delegation engine over state.
func NewEngine(state delegationState) *Engine {
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

var (
	configPrefix   = []byte("delegation/config/")
	approvalPrefix = []byte("delegation/approval/")
)

func configKey(profileID uint256.Int) []byte {
	word := profileID.Bytes32()
	buf := make([]byte, 0, len(configPrefix)+len(word))
	buf = append(buf, configPrefix...)
	return append(buf, word[:]...)
}

func approvalKey(profileID uint256.Int, executor common.Address, configNumber uint64) []byte {
	word := profileID.Bytes32()
	gen := uint256.NewInt(configNumber).Bytes32()
	buf := make([]byte, 0, len(approvalPrefix)+len(word)+common.AddressLength+len(gen))
	buf = append(buf, approvalPrefix...)
	buf = append(buf, word[:]...)
	buf = append(buf, executor.Bytes()...)
	return append(buf, gen[:]...)
}

// Config returns the configuration of profileID. Profiles that never touched
// delegation sit on generation zero.
func (e *Engine) Config(profileID uint256.Int) (Config, error) {
	if e == nil || e.state == nil {
		return Config{}, errDelegationUninitialised
	}
	var cfg Config
	if _, err := e.state.KVGet(configKey(profileID), &cfg); err != nil {
		return Config{}, fmt.Errorf("delegation: load config: %w", err)
	}
	return cfg, nil
}

func (e *Engine) putConfig(profileID uint256.Int, cfg Config) error {
	if err := e.state.KVPut(configKey(profileID), cfg); err != nil {
		return fmt.Errorf("delegation: store config: %w", err)
	}
	return nil
}

// IsExecutorApproved reports whether executor is approved under the active
// generation of profileID.
func (e *Engine) IsExecutorApproved(profileID uint256.Int, executor common.Address) (bool, error) {
	cfg, err := e.Config(profileID)
	if err != nil {
		return false, err
	}
	return e.IsExecutorApprovedIn(profileID, executor, cfg.ConfigNumber)
}

// IsExecutorApprovedIn reports the approval of executor in a specific
// generation.
func (e *Engine) IsExecutorApprovedIn(profileID uint256.Int, executor common.Address, configNumber uint64) (bool, error) {
	if e == nil || e.state == nil {
		return false, errDelegationUninitialised
	}
	var approved bool
	if _, err := e.state.KVGet(approvalKey(profileID, executor, configNumber), &approved); err != nil {
		return false, fmt.Errorf("delegation: load approval: %w", err)
	}
	return approved, nil
}

func (e *Engine) writeApprovals(profileID uint256.Int, configNumber uint64, executors []common.Address, approvals []bool) error {
	if len(executors) != len(approvals) {
		return hubErrors.ErrArrayMismatch
	}
	for i, executor := range executors {
		if err := e.state.KVPut(approvalKey(profileID, executor, configNumber), approvals[i]); err != nil {
			return fmt.Errorf("delegation: store approval: %w", err)
		}
	}
	return nil
}

// SetApprovals writes executor approvals into the active generation.
func (e *Engine) SetApprovals(profileID uint256.Int, executors []common.Address, approvals []bool) error {
	cfg, err := e.Config(profileID)
	if err != nil {
		return err
	}
	if err := e.writeApprovals(profileID, cfg.ConfigNumber, executors, approvals); err != nil {
		return err
	}
	e.emitter.Emit(events.DelegatedExecutorsConfigChanged{
		ProfileID:    profileID,
		ConfigNumber: cfg.ConfigNumber,
		Executors:    executors,
		Approvals:    approvals,
	})
	return nil
}

// BumpConfiguration moves profileID to a generation. When switchToGiven is
// false a fresh generation is opened, revoking every current approval. When
// switchToGiven is true the given, previously opened generation becomes
// active again.
func (e *Engine) BumpConfiguration(profileID uint256.Int, switchToGiven bool, given uint64) (Config, error) {
	cfg, err := e.Config(profileID)
	if err != nil {
		return Config{}, err
	}
	if !switchToGiven {
		return e.SwitchToFreshConfig(profileID)
	}
	if given > cfg.MaxConfigNumberSet {
		return Config{}, hubErrors.ErrInvalidParameter
	}
	if given != cfg.ConfigNumber {
		cfg.PrevConfigNumber = cfg.ConfigNumber
		cfg.ConfigNumber = given
		if err := e.putConfig(profileID, cfg); err != nil {
			return Config{}, err
		}
		e.emitter.Emit(events.DelegatedExecutorsConfigApplied{ProfileID: profileID, ConfigNumber: given})
	}
	return cfg, nil
}

// SwitchToFreshConfig opens generation MaxConfigNumberSet+1 and activates it.
// Profile transfers call it so the new owner starts without delegates.
func (e *Engine) SwitchToFreshConfig(profileID uint256.Int) (Config, error) {
	cfg, err := e.Config(profileID)
	if err != nil {
		return Config{}, err
	}
	next := cfg.MaxConfigNumberSet + 1
	cfg.PrevConfigNumber = cfg.ConfigNumber
	cfg.ConfigNumber = next
	cfg.MaxConfigNumberSet = next
	if err := e.putConfig(profileID, cfg); err != nil {
		return Config{}, err
	}
	e.emitter.Emit(events.DelegatedExecutorsConfigApplied{ProfileID: profileID, ConfigNumber: next})
	return cfg, nil
}

// ChangeConfig writes approvals into configNumber, which may be any opened
// generation or exactly MaxConfigNumberSet+1 to open a new one. With
// switchToGiven the written generation also becomes active.
func (e *Engine) ChangeConfig(profileID uint256.Int, executors []common.Address, approvals []bool, configNumber uint64, switchToGiven bool) (Config, error) {
	cfg, err := e.Config(profileID)
	if err != nil {
		return Config{}, err
	}
	if len(executors) != len(approvals) {
		return Config{}, hubErrors.ErrArrayMismatch
	}
	if configNumber > cfg.MaxConfigNumberSet {
		if configNumber != cfg.MaxConfigNumberSet+1 {
			return Config{}, hubErrors.ErrInvalidParameter
		}
		cfg.MaxConfigNumberSet = configNumber
	}
	switched := switchToGiven && configNumber != cfg.ConfigNumber
	if switched {
		cfg.PrevConfigNumber = cfg.ConfigNumber
		cfg.ConfigNumber = configNumber
	}
	if err := e.putConfig(profileID, cfg); err != nil {
		return Config{}, err
	}
	if err := e.writeApprovals(profileID, configNumber, executors, approvals); err != nil {
		return Config{}, err
	}
	e.emitter.Emit(events.DelegatedExecutorsConfigChanged{
		ProfileID:    profileID,
		ConfigNumber: configNumber,
		Executors:    executors,
		Approvals:    approvals,
	})
	if switched {
		e.emitter.Emit(events.DelegatedExecutorsConfigApplied{ProfileID: profileID, ConfigNumber: configNumber})
	}
	return cfg, nil
}

// IsOwnerOrExecutor is the authorisation check used by profile scoped
// actions: actor must own the profile or be an approved executor.
func (e *Engine) IsOwnerOrExecutor(profileID uint256.Int, owner, actor common.Address) (bool, error) {
	if actor == owner {
		return true, nil
	}
	return e.IsExecutorApproved(profileID, actor)
}
