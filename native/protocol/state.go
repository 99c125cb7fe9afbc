package protocol

import (
	"fmt"
	"strings"
)

// State is the global circuit breaker. Values are ordered by restriction.
type State uint8

const (
	Unpaused State = iota
	PublishingPaused
	Paused
)

func (s State) String() string {
	switch s {
	case Unpaused:
		return "unpaused"
	case PublishingPaused:
		return "publishing_paused"
	case Paused:
		return "paused"
	default:
		return fmt.Sprintf("state(%d)", uint8(s))
	}
}

// Valid reports whether s is one of the three defined states.
func (s State) Valid() bool { return s <= Paused }

// MoreRestrictiveThan reports whether s blocks strictly more than other.
func (s State) MoreRestrictiveThan(other State) bool { return s > other }

// ParseState accepts the names produced by String.
func ParseState(raw string) (State, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "unpaused":
		return Unpaused, nil
	case "publishing_paused", "publishingpaused":
		return PublishingPaused, nil
	case "paused":
		return Paused, nil
	default:
		return 0, fmt.Errorf("protocol: unknown state %q", raw)
	}
}
