package common

import (
	hubErrors "graphhub/core/errors"
	"graphhub/native/protocol"
)

// StateView exposes the protocol circuit breaker to entry points.
type StateView interface {
	State() (protocol.State, error)
}

// Guard fails when the current protocol state is at or beyond blockedAt.
// A fully paused protocol always reports ErrPaused.
func Guard(v StateView, blockedAt protocol.State) error {
	if v == nil {
		return nil
	}
	current, err := v.State()
	if err != nil {
		return err
	}
	if current < blockedAt {
		return nil
	}
	if current == protocol.Paused {
		return hubErrors.ErrPaused
	}
	return hubErrors.ErrPublishingPaused
}

// RequireNotPaused gates every mutating action except governance.
func RequireNotPaused(v StateView) error { return Guard(v, protocol.Paused) }

// RequireNotPublishingPaused gates post, comment, mirror and quote.
func RequireNotPublishingPaused(v StateView) error { return Guard(v, protocol.PublishingPaused) }
