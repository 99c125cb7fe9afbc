package follows

import (
	"errors"
	"fmt"

	"github.com/holiman/uint256"

	hubErrors "graphhub/core/errors"
	"graphhub/core/events"
)

type followState interface {
	KVGet(key []byte, out interface{}) (bool, error)
	KVPut(key []byte, value interface{}) error
	KVDelete(key []byte) error
}

var (
	followPrefix      = []byte("follows/follow/")
	tokenHolderPrefix = []byte("follows/token/")
	tokenCountPrefix  = []byte("follows/token-count/")
	followerPrefix    = []byte("follows/followers/")
	blockPrefix       = []byte("follows/block/")

	errFollowsUninitialised = errors.New("follows: not initialised")
)

// Engine tracks follow relationships and blocks between profiles. Every
// followed profile issues its own follow token ids starting at 1.
type Engine struct {
	state   followState
	emitter events.Emitter
}

// NewEngine constructs a follow engine over state.
func NewEngine(state followState) *Engine {
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

func pairKey(prefix []byte, a, b uint256.Int) []byte {
	wa, wb := a.Bytes32(), b.Bytes32()
	buf := make([]byte, 0, len(prefix)+64)
	buf = append(buf, prefix...)
	buf = append(buf, wa[:]...)
	return append(buf, wb[:]...)
}

func singleKey(prefix []byte, a uint256.Int) []byte {
	wa := a.Bytes32()
	buf := make([]byte, 0, len(prefix)+32)
	buf = append(buf, prefix...)
	return append(buf, wa[:]...)
}

func (e *Engine) ready() error {
	if e == nil || e.state == nil {
		return errFollowsUninitialised
	}
	return nil
}

// FollowTokenID returns the follow token follower holds for target, or zero
// when follower does not follow target.
func (e *Engine) FollowTokenID(follower, target uint256.Int) (uint256.Int, error) {
	if err := e.ready(); err != nil {
		return uint256.Int{}, err
	}
	var token uint256.Int
	if _, err := e.state.KVGet(pairKey(followPrefix, follower, target), &token); err != nil {
		return uint256.Int{}, fmt.Errorf("follows: load follow: %w", err)
	}
	return token, nil
}

// IsFollowing reports whether follower follows target.
func (e *Engine) IsFollowing(follower, target uint256.Int) (bool, error) {
	token, err := e.FollowTokenID(follower, target)
	if err != nil {
		return false, err
	}
	return !token.IsZero(), nil
}

// IsBlocked reports whether by has blocked target.
func (e *Engine) IsBlocked(by, target uint256.Int) (bool, error) {
	if err := e.ready(); err != nil {
		return false, err
	}
	var blocked bool
	if _, err := e.state.KVGet(pairKey(blockPrefix, by, target), &blocked); err != nil {
		return false, fmt.Errorf("follows: load block: %w", err)
	}
	return blocked, nil
}

// FollowerCount returns how many profiles currently follow target.
func (e *Engine) FollowerCount(target uint256.Int) (uint64, error) {
	if err := e.ready(); err != nil {
		return 0, err
	}
	var count uint64
	if _, err := e.state.KVGet(singleKey(followerPrefix, target), &count); err != nil {
		return 0, fmt.Errorf("follows: load follower count: %w", err)
	}
	return count, nil
}

func (e *Engine) adjustFollowers(target uint256.Int, increase bool) error {
	count, err := e.FollowerCount(target)
	if err != nil {
		return err
	}
	if increase {
		count++
	} else if count > 0 {
		count--
	}
	if err := e.state.KVPut(singleKey(followerPrefix, target), count); err != nil {
		return fmt.Errorf("follows: store follower count: %w", err)
	}
	return nil
}

func (e *Engine) allocateToken(target, requested, follower uint256.Int) (uint256.Int, error) {
	var issued uint256.Int
	if _, err := e.state.KVGet(singleKey(tokenCountPrefix, target), &issued); err != nil {
		return uint256.Int{}, fmt.Errorf("follows: load token count: %w", err)
	}
	if requested.IsZero() {
		var next uint256.Int
		next.AddUint64(&issued, 1)
		if err := e.state.KVPut(singleKey(tokenCountPrefix, target), &next); err != nil {
			return uint256.Int{}, fmt.Errorf("follows: store token count: %w", err)
		}
		return next, nil
	}
	// Re-using a token is only allowed for an issued id that nobody holds.
	if requested.Gt(&issued) {
		return uint256.Int{}, hubErrors.ErrInvalidParameter
	}
	var holder uint256.Int
	held, err := e.state.KVGet(pairKey(tokenHolderPrefix, target, requested), &holder)
	if err != nil {
		return uint256.Int{}, fmt.Errorf("follows: load token holder: %w", err)
	}
	if held && !holder.IsZero() && !holder.Eq(&follower) {
		return uint256.Int{}, hubErrors.ErrInvalidParameter
	}
	return requested, nil
}

// Follow makes follower follow each target. followTokenIDs entries are zero
// to mint a fresh follow token or an issued, unheld token id to reuse.
func (e *Engine) Follow(follower uint256.Int, targets, followTokenIDs []uint256.Int) ([]uint256.Int, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if len(targets) != len(followTokenIDs) {
		return nil, hubErrors.ErrArrayMismatch
	}
	issued := make([]uint256.Int, len(targets))
	for i, target := range targets {
		if target.Eq(&follower) {
			return nil, hubErrors.ErrSelfFollow
		}
		blocked, err := e.IsBlocked(target, follower)
		if err != nil {
			return nil, err
		}
		if blocked {
			return nil, hubErrors.ErrBlocked
		}
		following, err := e.IsFollowing(follower, target)
		if err != nil {
			return nil, err
		}
		if following {
			return nil, hubErrors.ErrAlreadyFollowing
		}
		token, err := e.allocateToken(target, followTokenIDs[i], follower)
		if err != nil {
			return nil, err
		}
		if err := e.state.KVPut(pairKey(followPrefix, follower, target), &token); err != nil {
			return nil, fmt.Errorf("follows: store follow: %w", err)
		}
		if err := e.state.KVPut(pairKey(tokenHolderPrefix, target, token), &follower); err != nil {
			return nil, fmt.Errorf("follows: store token holder: %w", err)
		}
		if err := e.adjustFollowers(target, true); err != nil {
			return nil, err
		}
		issued[i] = token
		e.emitter.Emit(events.Followed{FollowerProfileID: follower, FollowedProfileID: target, FollowTokenID: token})
	}
	return issued, nil
}

func (e *Engine) unfollow(unfollower, target uint256.Int) error {
	token, err := e.FollowTokenID(unfollower, target)
	if err != nil {
		return err
	}
	if token.IsZero() {
		return hubErrors.ErrNotFollowing
	}
	if err := e.state.KVDelete(pairKey(followPrefix, unfollower, target)); err != nil {
		return fmt.Errorf("follows: delete follow: %w", err)
	}
	if err := e.state.KVDelete(pairKey(tokenHolderPrefix, target, token)); err != nil {
		return fmt.Errorf("follows: delete token holder: %w", err)
	}
	if err := e.adjustFollowers(target, false); err != nil {
		return err
	}
	e.emitter.Emit(events.Unfollowed{UnfollowerProfileID: unfollower, UnfollowedProfileID: target})
	return nil
}

// Unfollow removes the follows of unfollower towards each target.
func (e *Engine) Unfollow(unfollower uint256.Int, targets []uint256.Int) error {
	if err := e.ready(); err != nil {
		return err
	}
	for _, target := range targets {
		if err := e.unfollow(unfollower, target); err != nil {
			return err
		}
	}
	return nil
}

// SetBlockStatus blocks or unblocks each target on behalf of by. Blocking a
// follower also removes its follow.
func (e *Engine) SetBlockStatus(by uint256.Int, targets []uint256.Int, status []bool) error {
	if err := e.ready(); err != nil {
		return err
	}
	if len(targets) != len(status) {
		return hubErrors.ErrArrayMismatch
	}
	for i, target := range targets {
		if target.Eq(&by) {
			return hubErrors.ErrSelfFollow
		}
		if status[i] {
			following, err := e.IsFollowing(target, by)
			if err != nil {
				return err
			}
			if following {
				if err := e.unfollow(target, by); err != nil {
					return err
				}
			}
			if err := e.state.KVPut(pairKey(blockPrefix, by, target), true); err != nil {
				return fmt.Errorf("follows: store block: %w", err)
			}
		} else if err := e.state.KVDelete(pairKey(blockPrefix, by, target)); err != nil {
			return fmt.Errorf("follows: clear block: %w", err)
		}
		e.emitter.Emit(events.BlockStatusSet{ByProfileID: by, ProfileID: target, Blocked: status[i]})
	}
	return nil
}
