package state

import (
	"errors"
	"fmt"
	"math"
)

// StateVersion identifies the expected on-disk key layout for the hub state.
// Ledger, nonce, delegation and protocol records are addressed by fixed key
// prefixes; bump this when any prefix or stored record shape changes.
const StateVersion uint32 = 1

var (
	stateVersionKey = []byte("state/version")
	// ErrStateVersionMismatch indicates the stored schema version does not
	// match the version supported by the current binary.
	ErrStateVersionMismatch = errors.New("state: schema version mismatch")
)

// SetStateVersion records the provided schema version in state. Callers should
// invoke this after performing any required migrations.
func (m *Manager) SetStateVersion(version uint32) error {
	if m == nil {
		return fmt.Errorf("state: manager unavailable")
	}
	return m.KVPut(stateVersionKey, uint64(version))
}

// StateVersion returns the stored schema version and a boolean indicating
// whether the value was present.
func (m *Manager) StateVersion() (uint32, bool, error) {
	if m == nil {
		return 0, false, fmt.Errorf("state: manager unavailable")
	}
	var stored uint64
	ok, err := m.KVGet(stateVersionKey, &stored)
	if err != nil {
		return 0, false, err
	}
	if !ok {
		return 0, false, nil
	}
	if stored > uint64(math.MaxUint32) {
		return 0, false, fmt.Errorf("state: schema version overflow: %d", stored)
	}
	return uint32(stored), true, nil
}

// EnsureVersion verifies that the stored schema version matches the version
// supported by this binary. A state with no commits has no version yet and
// passes. When allowMigrate is true, mismatches are tolerated so operators can
// perform manual migrations.
func (m *Manager) EnsureVersion(allowMigrate bool) error {
	if m == nil {
		return fmt.Errorf("state: manager unavailable")
	}
	version, ok, err := m.StateVersion()
	if err != nil {
		return err
	}
	if !ok && m.height == 0 {
		return nil
	}
	if version == StateVersion || allowMigrate {
		return nil
	}
	return fmt.Errorf("%w: on-disk=%d expected=%d", ErrStateVersionMismatch, version, StateVersion)
}
