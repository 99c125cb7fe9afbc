package delegation

import (
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"

	hubErrors "graphhub/core/errors"
	"graphhub/core/events"
)

type memoryState struct {
	data map[string][]byte
}

func newMemoryState() *memoryState {
	return &memoryState{data: make(map[string][]byte)}
}

func (m *memoryState) KVGet(key []byte, out interface{}) (bool, error) {
	raw, ok := m.data[string(key)]
	if !ok || len(raw) == 0 {
		return false, nil
	}
	if err := rlp.DecodeBytes(raw, out); err != nil {
		return false, err
	}
	return true, nil
}

func (m *memoryState) KVPut(key []byte, value interface{}) error {
	encoded, err := rlp.EncodeToBytes(value)
	if err != nil {
		return err
	}
	m.data[string(key)] = encoded
	return nil
}

type recordingEmitter struct {
	events []events.Event
}

func (r *recordingEmitter) Emit(evt events.Event) { r.events = append(r.events, evt) }

var (
	profile  = *uint256.NewInt(1)
	owner    = common.HexToAddress("0x1000000000000000000000000000000000000001")
	executor = common.HexToAddress("0x2000000000000000000000000000000000000002")
	other    = common.HexToAddress("0x3000000000000000000000000000000000000003")
)

func mustApproved(t *testing.T, e *Engine, addr common.Address) bool {
	t.Helper()
	ok, err := e.IsExecutorApproved(profile, addr)
	if err != nil {
		t.Fatalf("is approved: %v", err)
	}
	return ok
}

func TestSetApprovalsWritesActiveGeneration(t *testing.T) {
	e := NewEngine(newMemoryState())
	if err := e.SetApprovals(profile, []common.Address{executor, other}, []bool{true, false}); err != nil {
		t.Fatalf("set approvals: %v", err)
	}
	if !mustApproved(t, e, executor) {
		t.Fatalf("expected executor approved")
	}
	if mustApproved(t, e, other) {
		t.Fatalf("expected other not approved")
	}
	if err := e.SetApprovals(profile, []common.Address{executor}, nil); !errors.Is(err, hubErrors.ErrArrayMismatch) {
		t.Fatalf("expected array mismatch, got %v", err)
	}
}

func TestConfigBumpRevokesExecutors(t *testing.T) {
	e := NewEngine(newMemoryState())
	if err := e.SetApprovals(profile, []common.Address{executor}, []bool{true}); err != nil {
		t.Fatalf("set approvals: %v", err)
	}
	cfg, err := e.BumpConfiguration(profile, false, 0)
	if err != nil {
		t.Fatalf("bump: %v", err)
	}
	if cfg.ConfigNumber != 1 || cfg.PrevConfigNumber != 0 || cfg.MaxConfigNumberSet != 1 {
		t.Fatalf("unexpected config after bump: %+v", cfg)
	}
	if mustApproved(t, e, executor) {
		t.Fatalf("executor must lose authorisation after config bump")
	}
	// The old generation keeps its entry; only the active pointer moved.
	ok, err := e.IsExecutorApprovedIn(profile, executor, 0)
	if err != nil || !ok {
		t.Fatalf("expected generation 0 approval to remain stored, ok=%v err=%v", ok, err)
	}

	if _, err := e.BumpConfiguration(profile, true, 0); err != nil {
		t.Fatalf("switch back: %v", err)
	}
	if !mustApproved(t, e, executor) {
		t.Fatalf("restoring generation 0 must restore its approvals")
	}
	if _, err := e.BumpConfiguration(profile, true, 7); !errors.Is(err, hubErrors.ErrInvalidParameter) {
		t.Fatalf("expected invalid parameter for unopened generation, got %v", err)
	}
}

func TestChangeConfigRules(t *testing.T) {
	e := NewEngine(newMemoryState())
	emitter := &recordingEmitter{}
	e.SetEmitter(emitter)

	cfg, err := e.ChangeConfig(profile, []common.Address{executor}, []bool{true}, 1, false)
	if err != nil {
		t.Fatalf("open generation 1: %v", err)
	}
	if cfg.MaxConfigNumberSet != 1 || cfg.ConfigNumber != 0 {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if mustApproved(t, e, executor) {
		t.Fatalf("writing an inactive generation must not approve")
	}

	cfg, err = e.ChangeConfig(profile, nil, nil, 1, true)
	if err != nil {
		t.Fatalf("switch to generation 1: %v", err)
	}
	if cfg.ConfigNumber != 1 || cfg.PrevConfigNumber != 0 {
		t.Fatalf("unexpected config after switch: %+v", cfg)
	}
	if !mustApproved(t, e, executor) {
		t.Fatalf("expected executor approved once generation 1 is active")
	}

	if _, err := e.ChangeConfig(profile, nil, nil, 3, false); !errors.Is(err, hubErrors.ErrInvalidParameter) {
		t.Fatalf("expected invalid parameter, got %v", err)
	}
	if _, err := e.ChangeConfig(profile, []common.Address{other}, []bool{true, false}, 1, false); !errors.Is(err, hubErrors.ErrArrayMismatch) {
		t.Fatalf("expected array mismatch, got %v", err)
	}

	var applied int
	for _, evt := range emitter.events {
		if evt.EventType() == events.TypeDelegatedExecutorsConfigApplied {
			applied++
		}
	}
	if applied != 1 {
		t.Fatalf("expected one applied event, got %d", applied)
	}
}

func TestSwitchToFreshConfig(t *testing.T) {
	e := NewEngine(newMemoryState())
	if _, err := e.ChangeConfig(profile, []common.Address{executor}, []bool{true}, 1, true); err != nil {
		t.Fatalf("change config: %v", err)
	}
	cfg, err := e.SwitchToFreshConfig(profile)
	if err != nil {
		t.Fatalf("fresh config: %v", err)
	}
	if cfg.ConfigNumber != 2 || cfg.PrevConfigNumber != 1 || cfg.MaxConfigNumberSet != 2 {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if mustApproved(t, e, executor) {
		t.Fatalf("fresh config must start without executors")
	}
}

func TestIsOwnerOrExecutor(t *testing.T) {
	e := NewEngine(newMemoryState())
	if ok, err := e.IsOwnerOrExecutor(profile, owner, owner); err != nil || !ok {
		t.Fatalf("owner must be authorised")
	}
	if ok, _ := e.IsOwnerOrExecutor(profile, owner, executor); ok {
		t.Fatalf("unapproved executor must not be authorised")
	}
	if err := e.SetApprovals(profile, []common.Address{executor}, []bool{true}); err != nil {
		t.Fatalf("set approvals: %v", err)
	}
	if ok, _ := e.IsOwnerOrExecutor(profile, owner, executor); !ok {
		t.Fatalf("approved executor must be authorised")
	}
}
